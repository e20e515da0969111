// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"io"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// CSLItem is one citing work in CSL-YAML form, the schema read by Pandoc
// and reference managers. Note lists the queried DOIs the work cites.
type CSLItem struct {
	ID     string    `yaml:"id"`
	Type   string    `yaml:"type"`
	Title  string    `yaml:"title,omitempty"`
	Author []CSLName `yaml:"author,omitempty"`
	Issued *CSLDate  `yaml:"issued,omitempty"`
	DOI    string    `yaml:"DOI"`
	Note   string    `yaml:"note,omitempty"`
}

// CSLName is a person's name in CSL form.
type CSLName struct {
	Family  string `yaml:"family,omitempty"`
	Given   string `yaml:"given,omitempty"`
	Literal string `yaml:"literal,omitempty"`
}

// CSLDate holds a CSL date-parts value.
type CSLDate struct {
	DateParts [][]int `yaml:"date-parts"`
}

// CSLItems collects each citing work once, in first-seen order. A work
// citing several queried DOIs lists all of them in its note.
func CSLItems(results *types.Results) []CSLItem {
	var items []CSLItem
	index := map[string]int{}
	cites := map[string][]string{}

	results.Each(func(queried string, citations []types.Citation) {
		for _, c := range citations {
			if c.DOI == "" {
				continue
			}
			if _, ok := index[c.DOI]; !ok {
				index[c.DOI] = len(items)
				items = append(items, toCSLItem(c))
			}
			cites[c.DOI] = appendUnique(cites[c.DOI], queried)
		}
	})
	for i := range items {
		items[i].Note = "cites: " + strings.Join(cites[items[i].DOI], ", ")
	}
	return items
}

// WriteCSL writes the citing works as a CSL-YAML list.
func WriteCSL(w io.Writer, results *types.Results) error {
	items := CSLItems(results)
	if items == nil {
		items = []CSLItem{}
	}
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(items); err != nil {
		return eris.Wrap(err, "report: encode CSL")
	}
	return eris.Wrap(enc.Close(), "report: close CSL encoder")
}

func toCSLItem(c types.Citation) CSLItem {
	item := CSLItem{
		ID:    c.DOI,
		Type:  "article-journal",
		Title: c.Title,
		DOI:   c.DOI,
	}
	for _, a := range c.Authors {
		if name := splitName(a); name != (CSLName{}) {
			item.Author = append(item.Author, name)
		}
	}
	if year, err := strconv.Atoi(c.Year); err == nil && year > 0 {
		item.Issued = &CSLDate{DateParts: [][]int{{year}}}
	}
	return item
}

// splitName splits a display name on its last space into given and
// family parts. Single-token names use the literal field.
func splitName(name string) CSLName {
	name = strings.TrimSpace(name)
	if name == "" {
		return CSLName{}
	}
	idx := strings.LastIndex(name, " ")
	if idx < 0 {
		return CSLName{Literal: name}
	}
	return CSLName{Given: strings.TrimSpace(name[:idx]), Family: name[idx+1:]}
}

func appendUnique(list []string, s string) []string {
	for _, v := range list {
		if v == s {
			return list
		}
	}
	return append(list, s)
}
