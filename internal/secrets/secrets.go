// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package secrets loads credentials from a directory of plain-text files.
// Each file is one secret: the filename is the key and the trimmed
// contents are the value.
//
// Recognised keys: openalex-email, crossref-email.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Key names for the polite-pool contact address.
const (
	OpenAlexEmail = "openalex-email"
	CrossrefEmail = "crossref-email"
)

// DefaultDir is where the CLI looks for secret files.
const DefaultDir = ".secrets"

// Secrets maps key names to values.
type Secrets map[string]string

// Load reads every regular, non-hidden file in dir. A missing directory
// yields an empty set. Unreadable files are logged and skipped.
func Load(dir string, logger *zap.Logger) (Secrets, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return Secrets{}, nil
		}
		return nil, fmt.Errorf("reading secrets directory %s: %w", dir, err)
	}

	s := make(Secrets)
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			logger.Warn("could not read secret", zap.String("key", name), zap.Error(err))
			continue
		}
		if value := strings.TrimSpace(string(data)); value != "" {
			s[name] = value
		}
	}
	return s, nil
}

// ContactEmail returns the address sent to OpenAlex and Crossref,
// preferring the OpenAlex key.
func (s Secrets) ContactEmail() string {
	if v := s[OpenAlexEmail]; v != "" {
		return v
	}
	return s[CrossrefEmail]
}
