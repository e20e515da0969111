// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package report renders a finished run: the console summary and the
// result file in CSV, JSON, YAML, SQLite, or CSL-YAML form.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"github.com/pdiddy/citation-engine/pkg/types"
)

const (
	filePrefix      = "Citation_Results_"
	timestampLayout = "20060102_150405"
)

// Run describes one invocation of the pipeline.
type Run struct {
	ID        string
	Input     string
	StartedAt time.Time
	Elapsed   time.Duration
	// Interrupted is set when the run was cancelled before every
	// identifier was processed.
	Interrupted bool
}

// NewRun starts a Run for input with a fresh identifier.
func NewRun(input string, startedAt time.Time) Run {
	return Run{ID: uuid.NewString(), Input: input, StartedAt: startedAt}
}

// OutputPath returns dir/Citation_Results_<timestamp>.<ext> for format.
func OutputPath(dir string, format types.OutputFormat, now time.Time) string {
	if dir == "" {
		dir = "."
	}
	return filepath.Join(dir, filePrefix+now.Format(timestampLayout)+"."+Extension(format))
}

// Extension returns the file extension used for format.
func Extension(format types.OutputFormat) string {
	switch format {
	case types.FormatJSON:
		return "json"
	case types.FormatYAML:
		return "yaml"
	case types.FormatSQLite:
		return "db"
	case types.FormatCSL:
		return "csl.yaml"
	default:
		return "csv"
	}
}

// ParseFormat validates a format name.
func ParseFormat(s string) (types.OutputFormat, error) {
	switch f := types.OutputFormat(s); f {
	case types.FormatCSV, types.FormatJSON, types.FormatYAML, types.FormatSQLite, types.FormatCSL:
		return f, nil
	default:
		return "", eris.Errorf("report: unsupported format %q (want csv, json, yaml, sqlite, or csl)", s)
	}
}

// Save writes results to path in format, creating the parent directory.
func Save(path string, format types.OutputFormat, results *types.Results, run Run) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "report: create directory %s", dir)
		}
	}

	if format == types.FormatSQLite {
		return saveSQLite(path, results, run)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create output file %s", path)
	}
	defer f.Close()

	switch format {
	case types.FormatJSON:
		err = WriteJSON(f, results, run)
	case types.FormatYAML:
		err = WriteYAML(f, results, run)
	case types.FormatCSL:
		err = WriteCSL(f, results)
	case types.FormatCSV, "":
		err = WriteCSV(f, results)
	default:
		err = fmt.Errorf("unsupported format %q", format)
	}
	if err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	return eris.Wrapf(f.Close(), "report: close %s", path)
}
