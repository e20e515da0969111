// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/citation-engine/pkg/types"
)

const (
	ruleWidth     = 70
	doiColumnWide = 50
)

// WriteSummary prints totals and the identifiers with the most citations,
// up to limit rows. Ties keep input order. A limit of zero or less lists
// every identifier.
func WriteSummary(w io.Writer, results *types.Results, limit int, elapsed time.Duration) {
	rule := strings.Repeat("=", ruleWidth)
	fmt.Fprintf(w, "\n%s\n", rule)
	fmt.Fprintln(w, "Citation summary")
	fmt.Fprintln(w, rule)
	fmt.Fprintf(w, "Identifiers queried: %d\n", results.Len())
	fmt.Fprintf(w, "Citations found:     %d\n", results.TotalCitations())
	if elapsed > 0 {
		fmt.Fprintf(w, "Elapsed:             %s\n", elapsed.Round(time.Second))
	}

	ranked := Ranked(results)
	if len(ranked) == 0 {
		fmt.Fprintln(w, rule)
		return
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, "Citations per identifier:")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	shown := ranked
	if limit > 0 && len(shown) > limit {
		shown = shown[:limit]
	}
	for _, r := range shown {
		fmt.Fprintf(w, "  %-*s | %5d citations\n", doiColumnWide, truncate(r.DOI, doiColumnWide), r.Count)
	}
	if rest := len(ranked) - len(shown); rest > 0 {
		fmt.Fprintf(w, "  ... and %d more\n", rest)
	}
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
}

// RankedEntry is one identifier and its citation count.
type RankedEntry struct {
	DOI   string
	Count int
}

// Ranked orders identifiers by citation count, highest first, keeping
// input order among equal counts.
func Ranked(results *types.Results) []RankedEntry {
	var ranked []RankedEntry
	results.Each(func(queried string, citations []types.Citation) {
		ranked = append(ranked, RankedEntry{DOI: queried, Count: len(citations)})
	})
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Count > ranked[j].Count })
	return ranked
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
