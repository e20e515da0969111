// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline runs the per-DOI citation lookup: every configured
// source is queried, the answers are merged in source priority order, and
// the merged records are enriched before being recorded in the results.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/citation-engine/internal/enrich"
	"github.com/pdiddy/citation-engine/internal/merge"
	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/internal/sources"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// enrichProgressEvery controls how often enrichment progress is printed.
const enrichProgressEvery = 5

// Orchestrator processes queried DOIs one at a time.
type Orchestrator struct {
	sources  []sources.CitationSource
	enricher *enrich.Enricher
	logger   *zap.Logger
	metrics  *metrics.Collector
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithEnricher enables metadata backfill of merged records.
func WithEnricher(e *enrich.Enricher) Option {
	return func(o *Orchestrator) { o.enricher = e }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *Orchestrator) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithMetrics records per-identifier counters on m.
func WithMetrics(m *metrics.Collector) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// New returns an Orchestrator over srcs. The order of srcs is the merge
// priority: earlier sources win the source tag and fill fields first.
func New(srcs []sources.CitationSource, opts ...Option) *Orchestrator {
	o := &Orchestrator{sources: srcs, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes dois in order and writes progress to w. Every identifier
// that completes is recorded, with an empty list when nothing cites it or
// its processing failed. When ctx is cancelled the identifier in flight is
// discarded, the loop stops, and the results gathered so far are returned
// together with ctx's error.
func (o *Orchestrator) Run(ctx context.Context, dois []string, w io.Writer) (*types.Results, error) {
	start := time.Now()
	defer func() { o.metrics.ObserveRun(time.Since(start)) }()

	results := types.NewResults()
	total := len(dois)
	for i, queried := range dois {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		fmt.Fprintf(w, "[%d/%d] processing %s\n", i+1, total, queried)

		citations, err := o.process(ctx, queried, w)
		if ctxErr := ctx.Err(); ctxErr != nil {
			fmt.Fprintf(w, "  interrupted, discarding partial results for %s\n", queried)
			return results, ctxErr
		}
		failed := err != nil
		if failed {
			o.logger.Warn("identifier processing failed", zap.String("doi", queried), zap.Error(err))
			fmt.Fprintf(w, "  failed: %v\n", err)
			citations = nil
		}

		results.Set(queried, citations)
		o.metrics.ObserveIdentifier(failed, len(citations))
		fmt.Fprintf(w, "  %d citations recorded\n", len(citations))
	}
	return results, nil
}

// process runs one identifier through fetch, merge, and enrich.
func (o *Orchestrator) process(ctx context.Context, queried string, w io.Writer) (citations []types.Citation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("processing %s: panic: %v", queried, r)
		}
	}()

	perSource, err := o.fetchAll(ctx, queried)
	if err != nil {
		return nil, err
	}
	for i, src := range o.sources {
		fmt.Fprintf(w, "  %s: %d\n", src.Name(), len(perSource[i]))
	}

	merged := merge.Merge(perSource...)
	fmt.Fprintf(w, "  merged: %d unique\n", len(merged))

	if len(merged) > 0 && o.enricher != nil {
		err := o.enricher.Enrich(ctx, merged, func(cur, n int) {
			if cur%enrichProgressEvery == 0 || cur == n {
				fmt.Fprintf(w, "  enriching metadata: %d/%d\n", cur, n)
			}
		})
		if err != nil {
			return nil, fmt.Errorf("enriching %s: %w", queried, err)
		}
	}
	return merged, nil
}

// fetchAll queries every source concurrently. Results land in slots
// indexed by source position so the merge order does not depend on
// completion order. Each source paces its own requests.
func (o *Orchestrator) fetchAll(ctx context.Context, queried string) ([][]types.Citation, error) {
	perSource := make([][]types.Citation, len(o.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range o.sources {
		i, src := i, src
		g.Go(func() error {
			citations, err := o.fetchOne(gctx, src, queried)
			if err != nil {
				return err
			}
			perSource[i] = citations
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return perSource, nil
}

func (o *Orchestrator) fetchOne(ctx context.Context, src sources.CitationSource, queried string) (citations []types.Citation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic: %v", src.Name(), r)
		}
	}()
	citations, err = src.Citations(ctx, queried)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", src.Name(), err)
	}
	return citations, nil
}
