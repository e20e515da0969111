// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// Document is the structured form of a run written as JSON or YAML.
type Document struct {
	RunID          string    `json:"run_id" yaml:"run_id"`
	Input          string    `json:"input,omitempty" yaml:"input,omitempty"`
	StartedAt      time.Time `json:"started_at" yaml:"started_at"`
	ElapsedSeconds float64   `json:"elapsed_seconds" yaml:"elapsed_seconds"`
	Interrupted    bool      `json:"interrupted" yaml:"interrupted"`
	Queried        int       `json:"queried" yaml:"queried"`
	TotalCitations int       `json:"total_citations" yaml:"total_citations"`
	Results        []Entry   `json:"results" yaml:"results"`
}

// Entry holds the citations of one queried identifier.
type Entry struct {
	QueriedDOI string           `json:"queried_doi" yaml:"queried_doi"`
	Citations  []types.Citation `json:"citations" yaml:"citations"`
}

// NewDocument flattens results into a Document, keeping identifier order.
func NewDocument(results *types.Results, run Run) Document {
	doc := Document{
		RunID:          run.ID,
		Input:          run.Input,
		StartedAt:      run.StartedAt.UTC(),
		ElapsedSeconds: run.Elapsed.Seconds(),
		Interrupted:    run.Interrupted,
		Queried:        results.Len(),
		TotalCitations: results.TotalCitations(),
		Results:        make([]Entry, 0, results.Len()),
	}
	results.Each(func(queried string, citations []types.Citation) {
		if citations == nil {
			citations = []types.Citation{}
		}
		doc.Results = append(doc.Results, Entry{QueriedDOI: queried, Citations: citations})
	})
	return doc
}

// WriteJSON writes the run as indented JSON.
func WriteJSON(w io.Writer, results *types.Results, run Run) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return eris.Wrap(enc.Encode(NewDocument(results, run)), "report: encode JSON")
}

// WriteYAML writes the run as YAML.
func WriteYAML(w io.Writer, results *types.Results, run Run) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(results, run)); err != nil {
		return eris.Wrap(err, "report: encode YAML")
	}
	return eris.Wrap(enc.Close(), "report: close YAML encoder")
}
