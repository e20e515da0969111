// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the citation-engine pipeline:
// the citation record produced by source adapters, the ordered result mapping
// built by the orchestrator, and the configuration passed to every stage.
package types

// Source tags recorded on a Citation. The tag names the adapter that produced
// the first-seen instance of a record and is provenance only.
const (
	SourceOpenAlex      = "OpenAlex"
	SourceOpenCitations = "OpenCitations"
	SourceCrossref      = "Crossref"
)

// Citation represents one publication that cites a queried identifier.
type Citation struct {
	// DOI is the canonical (lowercase, prefix-free) identifier of the citing work.
	// It is the unique key within one queried identifier's result set.
	DOI string `json:"doi" yaml:"doi"`

	// Title is the citing work's title, possibly empty.
	Title string `json:"title" yaml:"title"`

	// Authors lists display names in source order, possibly empty.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is a 4-digit publication year or empty.
	Year string `json:"year" yaml:"year"`

	// Source identifies the adapter that first produced this record.
	Source string `json:"source" yaml:"source"`
}

// NeedsMetadata reports whether any of title, authors, or year is empty.
func (c Citation) NeedsMetadata() bool {
	return c.Title == "" || len(c.Authors) == 0 || c.Year == ""
}

// Backfill fills the empty title, authors, and year fields of c with the
// given values. Non-empty fields and Source are never changed.
func (c *Citation) Backfill(title string, authors []string, year string) {
	if c.Title == "" && title != "" {
		c.Title = title
	}
	if len(c.Authors) == 0 && len(authors) > 0 {
		c.Authors = append([]string(nil), authors...)
	}
	if c.Year == "" && year != "" {
		c.Year = year
	}
}
