// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// Results maps each queried identifier to its citations. Keys iterate in
// insertion order, which the orchestrator keeps equal to input order.
// The zero value is ready to use.
type Results struct {
	keys  []string
	byKey map[string][]Citation
}

// NewResults returns an empty Results.
func NewResults() *Results {
	return &Results{byKey: make(map[string][]Citation)}
}

// Set records citations for doi. A new key is appended to the iteration order;
// an existing key keeps its position and has its value replaced.
func (r *Results) Set(doi string, citations []Citation) {
	if r.byKey == nil {
		r.byKey = make(map[string][]Citation)
	}
	if _, ok := r.byKey[doi]; !ok {
		r.keys = append(r.keys, doi)
	}
	if citations == nil {
		citations = []Citation{}
	}
	r.byKey[doi] = citations
}

// Get returns the citations for doi and whether doi has been recorded.
func (r *Results) Get(doi string) ([]Citation, bool) {
	c, ok := r.byKey[doi]
	return c, ok
}

// Keys returns the queried identifiers in insertion order.
func (r *Results) Keys() []string {
	return append([]string(nil), r.keys...)
}

// Len returns the number of queried identifiers recorded.
func (r *Results) Len() int {
	return len(r.keys)
}

// TotalCitations returns the number of citation records across all identifiers.
func (r *Results) TotalCitations() int {
	total := 0
	for _, k := range r.keys {
		total += len(r.byKey[k])
	}
	return total
}

// Each calls fn for every identifier in insertion order.
func (r *Results) Each(fn func(doi string, citations []Citation)) {
	for _, k := range r.keys {
		fn(k, r.byKey[k])
	}
}
