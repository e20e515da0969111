// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package merge combines the citation lists returned by several sources
// for one queried DOI into a single list that is unique by DOI.
package merge

import "github.com/pdiddy/citation-engine/pkg/types"

// Set is an insertion-ordered collection of citations keyed by DOI.
// The zero value is ready to use.
type Set struct {
	order []string
	byDOI map[string]*types.Citation
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{byDOI: make(map[string]*types.Citation)}
}

// Add inserts c when its DOI is new. When the DOI is already present, only
// the existing record's empty title, authors, and year are filled from c;
// non-empty fields and the source tag are kept. Records without a DOI are
// ignored. Add reports whether c was inserted.
func (s *Set) Add(c types.Citation) bool {
	if c.DOI == "" {
		return false
	}
	if s.byDOI == nil {
		s.byDOI = make(map[string]*types.Citation)
	}
	if existing, ok := s.byDOI[c.DOI]; ok {
		existing.Backfill(c.Title, c.Authors, c.Year)
		return false
	}
	rec := c
	rec.Authors = append([]string(nil), c.Authors...)
	s.byDOI[c.DOI] = &rec
	s.order = append(s.order, c.DOI)
	return true
}

// Len returns the number of distinct DOIs.
func (s *Set) Len() int { return len(s.order) }

// Citations returns a copy of the records in first-insertion order.
func (s *Set) Citations() []types.Citation {
	out := make([]types.Citation, 0, len(s.order))
	for _, key := range s.order {
		out = append(out, *s.byDOI[key])
	}
	return out
}

// Merge folds the given source results, highest priority first, into one
// list ordered by first appearance.
func Merge(results ...[]types.Citation) []types.Citation {
	s := NewSet()
	for _, citations := range results {
		for _, c := range citations {
			s.Add(c)
		}
	}
	return s.Citations()
}
