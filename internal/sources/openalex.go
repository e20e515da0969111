// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/doi"
	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/pkg/types"
)

const (
	openAlexIDPrefix     = "https://openalex.org/"
	openAlexSelectFields = "doi,title,authorships,publication_year"
	openAlexFirstCursor  = "*"
	defaultPageSize      = 200
	defaultMaxPages      = 50
)

// OpenAlex lists citing works through the OpenAlex works API using cursor
// pagination over the cites: filter.
type OpenAlex struct {
	fetcher  *httputil.Fetcher
	baseURL  string
	email    string
	pageSize int
	maxPages int
	pacer    *Pacer
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// NewOpenAlex builds the adapter from cfg.
func NewOpenAlex(f *httputil.Fetcher, cfg types.Config, logger *zap.Logger, m *metrics.Collector) *OpenAlex {
	a := &OpenAlex{
		fetcher:  f,
		baseURL:  strings.TrimRight(cfg.Sources.OpenAlexURL, "/"),
		email:    cfg.Sources.Email,
		pageSize: cfg.Pipeline.PageSize,
		maxPages: cfg.Pipeline.MaxPages,
		pacer:    NewPacer(cfg.Pipeline.RequestDelay),
		logger:   nopIfNil(logger),
		metrics:  m,
	}
	if a.pageSize <= 0 || a.pageSize > defaultPageSize {
		a.pageSize = defaultPageSize
	}
	if a.maxPages <= 0 {
		a.maxPages = defaultMaxPages
	}
	return a
}

// Name returns the source tag.
func (a *OpenAlex) Name() string { return types.SourceOpenAlex }

// Citations resolves doi to its OpenAlex work and pages through the works
// that cite it. Pagination stops when next_cursor is absent or after
// maxPages pages, whichever comes first.
func (a *OpenAlex) Citations(ctx context.Context, queried string) ([]types.Citation, error) {
	work, ok, err := a.lookupWork(ctx, queried)
	if err != nil || !ok {
		return nil, err
	}
	if work.CitedByCount == 0 {
		return nil, nil
	}
	workID := strings.TrimPrefix(work.ID, openAlexIDPrefix)

	var citations []types.Citation
	cursor := openAlexFirstCursor
	for page := 0; cursor != "" && page < a.maxPages; page++ {
		if err := a.pacer.Wait(ctx); err != nil {
			return citations, err
		}

		params := mailtoParams(a.email)
		params.Set("filter", "cites:"+workID)
		params.Set("per-page", strconv.Itoa(a.pageSize))
		params.Set("cursor", cursor)
		params.Set("select", openAlexSelectFields)

		var resp openAlexPage
		outcome, err := a.fetcher.GetJSON(ctx, a.baseURL+"/works", params, &resp)
		if err != nil {
			return citations, err
		}
		if !outcome.OK() || resp.Results == nil {
			a.logger.Debug("openalex pagination stopped",
				zap.String("doi", queried), zap.Int("page", page), zap.Stringer("outcome", outcome))
			break
		}

		for _, w := range resp.Results {
			if c, ok := w.toCitation(); ok {
				citations = append(citations, c)
			} else if w.DOI != "" {
				a.logger.Debug("dropping citing work with invalid DOI", zap.String("raw", w.DOI))
			}
		}

		cursor = ""
		if resp.Meta.NextCursor != nil {
			cursor = *resp.Meta.NextCursor
		}
	}

	a.metrics.ObserveSource(a.Name(), len(citations))
	return citations, nil
}

// lookupWork resolves a DOI to its OpenAlex work record.
func (a *OpenAlex) lookupWork(ctx context.Context, queried string) (openAlexWorkRef, bool, error) {
	if err := a.pacer.Wait(ctx); err != nil {
		return openAlexWorkRef{}, false, err
	}
	var work openAlexWorkRef
	outcome, err := a.fetcher.GetJSON(ctx, a.baseURL+"/works/doi:"+escapePath(queried), mailtoParams(a.email), &work)
	if err != nil {
		return openAlexWorkRef{}, false, err
	}
	if !outcome.OK() || work.ID == "" {
		a.logger.Debug("openalex work lookup failed", zap.String("doi", queried), zap.Stringer("outcome", outcome))
		return openAlexWorkRef{}, false, nil
	}
	return work, true, nil
}

// toCitation converts a citing work, dropping it when its DOI is missing or invalid.
func (w openAlexWork) toCitation() (types.Citation, bool) {
	if w.DOI == "" {
		return types.Citation{}, false
	}
	canonical, ok := doi.Normalize(w.DOI)
	if !ok {
		return types.Citation{}, false
	}
	c := types.Citation{
		DOI:    canonical,
		Title:  w.Title,
		Source: types.SourceOpenAlex,
	}
	for _, authorship := range w.Authorships {
		if authorship.Author.DisplayName != "" {
			c.Authors = append(c.Authors, authorship.Author.DisplayName)
		}
	}
	if w.PublicationYear > 0 {
		c.Year = strconv.Itoa(w.PublicationYear)
	}
	return c, true
}

// OpenAlex API JSON structures.
type openAlexWorkRef struct {
	ID           string `json:"id"`
	CitedByCount int    `json:"cited_by_count"`
}

type openAlexPage struct {
	Meta    openAlexMeta   `json:"meta"`
	Results []openAlexWork `json:"results"`
}

type openAlexMeta struct {
	Count      int     `json:"count"`
	NextCursor *string `json:"next_cursor"`
}

type openAlexWork struct {
	DOI             string               `json:"doi"`
	Title           string               `json:"title"`
	PublicationYear int                  `json:"publication_year"`
	Authorships     []openAlexAuthorship `json:"authorships"`
}

type openAlexAuthorship struct {
	Author openAlexAuthor `json:"author"`
}

type openAlexAuthor struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
}
