// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package inputs reads the DOIs to query from a CSV file whose encoding is
// not known in advance.
package inputs

import (
	"bytes"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/unicode"

	"github.com/pdiddy/citation-engine/internal/doi"
)

// candidate is one encoding tried when reading a CSV file.
type candidate struct {
	name string
	enc  encoding.Encoding
}

// candidates are tried in order; the first that decodes cleanly and yields
// at least one DOI wins. GB2312 files are decoded with GBK, its superset.
var candidates = []candidate{
	{"utf-8", unicode.UTF8},
	{"utf-8-sig", unicode.UTF8BOM},
	{"gbk", simplifiedchinese.GBK},
	{"gb2312", simplifiedchinese.GBK},
	{"latin-1", charmap.ISO8859_1},
}

var errUndecodable = errors.New("undecodable input")

// ReadCSV returns the canonical DOIs found in the CSV file at path, without
// duplicates and in file order. An empty result with a nil error means the
// file was readable but held no valid DOI.
func ReadCSV(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "inputs: read %s", path)
	}
	dois, _ := ParseCSV(data)
	return doi.Unique(dois), nil
}

// ParseCSV decodes data with the first workable encoding and returns the
// DOIs it contains together with the encoding name. The column used is the
// first whose header mentions "doi"; without one, every data cell is
// scanned. Duplicates are kept.
func ParseCSV(data []byte) ([]string, string) {
	for _, c := range candidates {
		text, err := decode(c.enc, data)
		if err != nil {
			continue
		}
		dois, err := extract(text)
		if err != nil || len(dois) == 0 {
			continue
		}
		return dois, c.name
	}
	return nil, ""
}

// decode converts data to UTF-8, rejecting input that needed replacement
// characters the source did not already contain.
func decode(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", eris.Wrap(err, "inputs: decode")
	}
	replacement := []byte("\uFFFD")
	if bytes.Count(out, replacement) > bytes.Count(data, replacement) {
		return "", errUndecodable
	}
	return string(out), nil
}

func extract(text string) ([]string, error) {
	r := csv.NewReader(strings.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	header, err := r.Read()
	if err != nil {
		return nil, eris.Wrap(err, "inputs: read header")
	}
	column := doiColumn(header)

	var dois []string
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return dois, eris.Wrap(err, "inputs: read row")
		}
		cells := row
		if column >= 0 {
			if column >= len(row) {
				continue
			}
			cells = row[column : column+1]
		}
		for _, cell := range cells {
			if canonical, ok := doi.Normalize(cell); ok {
				dois = append(dois, canonical)
			}
		}
	}
	return dois, nil
}

// doiColumn returns the index of the first header containing "doi", or -1.
func doiColumn(header []string) int {
	for i, h := range header {
		if strings.Contains(strings.ToLower(h), "doi") {
			return i
		}
	}
	return -1
}
