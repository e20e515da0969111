// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package inputs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/simplifiedchinese"
)

func writeFile(t *testing.T, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.csv")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestReadCSV_DOIColumn(t *testing.T) {
	path := writeFile(t, []byte("Title,Article DOI,Notes\n"+
		"First,https://doi.org/10.1000/ABC,10.9999/ignored\n"+
		"Second,not-a-doi,\n"+
		"Third,doi:10.1000/def\n"+
		"Short\n"+
		"Again,10.1000/abc,\n"))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1000/abc", "10.1000/def"}, got)
}

func TestReadCSV_ScansAllCellsWithoutDOIHeader(t *testing.T) {
	path := writeFile(t, []byte("a,b\n"+
		"x,10.1000/one\n"+
		"10.1000/two,10.1000/three\n"))

	got, err := ReadCSV(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"10.1000/one", "10.1000/two", "10.1000/three"}, got)
}

func TestReadCSV_MissingFile(t *testing.T) {
	_, err := ReadCSV(filepath.Join(t.TempDir(), "nope.csv"))
	assert.Error(t, err)
}

func TestReadCSV_NoDOIs(t *testing.T) {
	got, err := ReadCSV(writeFile(t, []byte("doi\nnothing here\n")))
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = ReadCSV(writeFile(t, nil))
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestParseCSV_Encodings(t *testing.T) {
	gbkHeader, err := simplifiedchinese.GBK.NewEncoder().Bytes([]byte("文献,DOI编号\n"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		data     []byte
		wantEnc  string
		wantDOIs []string
	}{
		{
			name:     "plain utf-8",
			data:     []byte("doi\n10.1000/a\n"),
			wantEnc:  "utf-8",
			wantDOIs: []string{"10.1000/a"},
		},
		{
			name:     "utf-8 with BOM",
			data:     append([]byte("\xef\xbb\xbf"), []byte("DOI\n10.1000/b\n")...),
			wantEnc:  "utf-8",
			wantDOIs: []string{"10.1000/b"},
		},
		{
			name:     "gbk header",
			data:     append(gbkHeader, []byte("x,10.1000/c\n")...),
			wantEnc:  "gbk",
			wantDOIs: []string{"10.1000/c"},
		},
		{
			name:     "latin-1 title",
			data:     []byte("titl\xe9,doi\nr\xe9sum\xe9,10.1000/d\n"),
			wantEnc:  "latin-1",
			wantDOIs: []string{"10.1000/d"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dois, enc := ParseCSV(tt.data)
			assert.Equal(t, tt.wantEnc, enc)
			assert.Equal(t, tt.wantDOIs, dois)
		})
	}
}

func TestDOIColumn(t *testing.T) {
	assert.Equal(t, 1, doiColumn([]string{"title", "My DOI", "doi"}))
	assert.Equal(t, -1, doiColumn([]string{"title", "year"}))
}
