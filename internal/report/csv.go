// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"encoding/csv"
	"io"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// NoCitationsPlaceholder fills the citing_doi column for identifiers that
// nothing cites.
const NoCitationsPlaceholder = "(no citation records)"

// utf8BOM lets spreadsheet tools detect the encoding.
const utf8BOM = "\uFEFF"

var csvHeader = []string{"queried_doi", "citing_doi", "citing_title", "citing_authors", "citing_year"}

// WriteCSV writes one row per citation, or one placeholder row for an
// identifier without citations. Authors are joined with "; ". A citing
// DOI is written at most once per queried identifier.
func WriteCSV(w io.Writer, results *types.Results) error {
	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return eris.Wrap(err, "report: write BOM")
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "report: write CSV header")
	}

	var rowErr error
	results.Each(func(queried string, citations []types.Citation) {
		if rowErr != nil {
			return
		}
		if len(citations) == 0 {
			rowErr = cw.Write([]string{queried, NoCitationsPlaceholder, "", "", ""})
			return
		}
		seen := make(map[string]bool, len(citations))
		for _, c := range citations {
			if seen[c.DOI] {
				continue
			}
			seen[c.DOI] = true
			if rowErr = cw.Write([]string{queried, c.DOI, c.Title, strings.Join(c.Authors, "; "), c.Year}); rowErr != nil {
				return
			}
		}
	})
	if rowErr != nil {
		return eris.Wrap(rowErr, "report: write CSV row")
	}

	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush CSV")
}
