// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package secrets

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T) string
		want  Secrets
	}{
		{
			name: "reads key files and trims whitespace",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, OpenAlexEmail, "  oa@example.com  \n")
				writeFile(t, dir, CrossrefEmail, "cr@example.com")
				return dir
			},
			want: Secrets{OpenAlexEmail: "oa@example.com", CrossrefEmail: "cr@example.com"},
		},
		{
			name: "returns empty set for nonexistent directory",
			setup: func(t *testing.T) string {
				return filepath.Join(t.TempDir(), "does-not-exist")
			},
			want: Secrets{},
		},
		{
			name: "skips empty files, dotfiles, and subdirectories",
			setup: func(t *testing.T) string {
				dir := t.TempDir()
				writeFile(t, dir, CrossrefEmail, "cr@example.com")
				writeFile(t, dir, "blank", "   \n\t  ")
				writeFile(t, dir, ".gitkeep", "")
				writeFile(t, dir, ".hidden", "secret")
				require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir"), 0o755))
				return dir
			},
			want: Secrets{CrossrefEmail: "cr@example.com"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Load(tt.setup(t), nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoad_UnreadableFileIsLogged(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("file permissions are not enforced for root")
	}
	dir := t.TempDir()
	writeFile(t, dir, OpenAlexEmail, "oa@example.com")
	badPath := filepath.Join(dir, "bad-key")
	require.NoError(t, os.WriteFile(badPath, []byte("secret"), 0o000))
	t.Cleanup(func() { os.Chmod(badPath, 0o644) })

	core, logs := observer.New(zap.WarnLevel)
	got, err := Load(dir, zap.New(core))
	require.NoError(t, err)

	assert.Equal(t, "oa@example.com", got[OpenAlexEmail])
	_, hasBad := got["bad-key"]
	assert.False(t, hasBad)
	assert.Equal(t, 1, logs.FilterMessage("could not read secret").Len())
}

func TestContactEmail(t *testing.T) {
	assert.Equal(t, "oa@x", Secrets{OpenAlexEmail: "oa@x", CrossrefEmail: "cr@x"}.ContactEmail())
	assert.Equal(t, "cr@x", Secrets{CrossrefEmail: "cr@x"}.ContactEmail())
	assert.Empty(t, Secrets{}.ContactEmail())
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}
