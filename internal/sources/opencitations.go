// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/doi"
	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// OpenCitations lists citing DOIs from the OpenCitations index. It
// returns bare DOIs; title, authors, and year are left empty.
type OpenCitations struct {
	fetcher *httputil.Fetcher
	baseURL string
	pacer   *Pacer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewOpenCitations builds the adapter from cfg.
func NewOpenCitations(f *httputil.Fetcher, cfg types.Config, logger *zap.Logger, m *metrics.Collector) *OpenCitations {
	return &OpenCitations{
		fetcher: f,
		baseURL: strings.TrimRight(cfg.Sources.OpenCitationsURL, "/"),
		pacer:   NewPacer(cfg.Pipeline.RequestDelay),
		logger:  nopIfNil(logger),
		metrics: m,
	}
}

// Name returns the source tag.
func (o *OpenCitations) Name() string { return types.SourceOpenCitations }

// Citations returns one record per citing DOI in the order the index
// lists them. Entries whose citing DOI does not normalize are dropped.
func (o *OpenCitations) Citations(ctx context.Context, queried string) ([]types.Citation, error) {
	if err := o.pacer.Wait(ctx); err != nil {
		return nil, err
	}

	var items []openCitationsItem
	outcome, err := o.fetcher.GetJSON(ctx, o.baseURL+"/citations/"+escapePath(queried), nil, &items)
	if err != nil {
		return nil, err
	}
	if !outcome.OK() {
		o.logger.Debug("opencitations lookup failed", zap.String("doi", queried), zap.Stringer("outcome", outcome))
		return nil, nil
	}

	var citations []types.Citation
	for _, item := range items {
		canonical, ok := doi.Normalize(item.Citing)
		if !ok {
			if item.Citing != "" {
				o.logger.Debug("dropping citing entry with invalid DOI", zap.String("raw", item.Citing))
			}
			continue
		}
		citations = append(citations, types.Citation{DOI: canonical, Source: types.SourceOpenCitations})
	}

	o.metrics.ObserveSource(o.Name(), len(citations))
	return citations, nil
}

type openCitationsItem struct {
	OCI      string `json:"oci"`
	Citing   string `json:"citing"`
	Cited    string `json:"cited"`
	Creation string `json:"creation"`
}
