// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/enrich"
	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/internal/sources"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// FromConfig assembles an Orchestrator with the sources enabled in cfg,
// in priority order OpenAlex then OpenCitations, and Crossref enrichment
// when enabled. All sources share f.
func FromConfig(cfg types.Config, f *httputil.Fetcher, logger *zap.Logger, m *metrics.Collector) *Orchestrator {
	var srcs []sources.CitationSource
	if cfg.Sources.EnableOpenAlex {
		srcs = append(srcs, sources.NewOpenAlex(f, cfg, logger, m))
	}
	if cfg.Sources.EnableOpenCitations {
		srcs = append(srcs, sources.NewOpenCitations(f, cfg, logger, m))
	}

	opts := []Option{WithLogger(logger), WithMetrics(m)}
	if cfg.Sources.EnableEnrichment {
		crossref := sources.NewCrossref(f, cfg, logger)
		opts = append(opts, WithEnricher(enrich.New(crossref, sources.NewPacer(cfg.Pipeline.RequestDelay), logger, m)))
	}
	return New(srcs, opts...)
}
