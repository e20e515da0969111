// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// Crossref looks up bibliographic metadata from the Crossref works API.
type Crossref struct {
	fetcher *httputil.Fetcher
	baseURL string
	email   string
	logger  *zap.Logger
}

// NewCrossref builds the metadata source from cfg. Pacing is left to the
// caller, which decides when a lookup is needed at all.
func NewCrossref(f *httputil.Fetcher, cfg types.Config, logger *zap.Logger) *Crossref {
	return &Crossref{
		fetcher: f,
		baseURL: strings.TrimRight(cfg.Sources.CrossrefURL, "/"),
		email:   cfg.Sources.Email,
		logger:  nopIfNil(logger),
	}
}

// Lookup fetches the work record for doi and extracts the first title,
// the author names, and the earliest available year.
func (c *Crossref) Lookup(ctx context.Context, doi string) (Metadata, bool, error) {
	var resp crossrefResponse
	outcome, err := c.fetcher.GetJSON(ctx, c.baseURL+"/"+escapePath(doi), mailtoParams(c.email), &resp)
	if err != nil {
		return Metadata{}, false, err
	}
	if !outcome.OK() || resp.Message == nil {
		c.logger.Debug("crossref lookup failed", zap.String("doi", doi), zap.Stringer("outcome", outcome))
		return Metadata{}, false, nil
	}
	return resp.Message.metadata(), true, nil
}

func (w *crossrefWork) metadata() Metadata {
	var md Metadata
	if len(w.Title) > 0 {
		md.Title = strings.TrimSpace(w.Title[0])
	}
	for _, a := range w.Author {
		if name := a.displayName(); name != "" {
			md.Authors = append(md.Authors, name)
		}
	}
	md.Year = w.year()
	return md
}

// displayName prefers "given family", then family, then given, then the
// organisational name.
func (a crossrefAuthor) displayName() string {
	given := strings.TrimSpace(a.Given)
	family := strings.TrimSpace(a.Family)
	switch {
	case given != "" && family != "":
		return given + " " + family
	case family != "":
		return family
	case given != "":
		return given
	default:
		return strings.TrimSpace(a.Name)
	}
}

// year takes the first year found in issued, published-print,
// published-online, then created.
func (w *crossrefWork) year() string {
	for _, d := range []crossrefDate{w.Issued, w.PublishedPrint, w.PublishedOnline, w.Created} {
		if len(d.DateParts) > 0 && len(d.DateParts[0]) > 0 && d.DateParts[0][0] > 0 {
			return strconv.Itoa(d.DateParts[0][0])
		}
	}
	return ""
}

// CrossRef API JSON structures.
type crossrefResponse struct {
	Status  string        `json:"status"`
	Message *crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI             string           `json:"DOI"`
	Title           stringList       `json:"title"`
	Author          []crossrefAuthor `json:"author"`
	Issued          crossrefDate     `json:"issued"`
	PublishedPrint  crossrefDate     `json:"published-print"`
	PublishedOnline crossrefDate     `json:"published-online"`
	Created         crossrefDate     `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
	Name   string `json:"name"`
}

type crossrefDate struct {
	// Unknown parts are null and decode as zero.
	DateParts [][]int `json:"date-parts"`
}

// stringList decodes either a JSON string or an array of strings.
type stringList []string

func (s *stringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		if one != "" {
			*s = stringList{one}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}
