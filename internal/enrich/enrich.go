// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package enrich completes merged citation records whose title, authors,
// or year are missing by looking each one up in a metadata source.
package enrich

import (
	"context"

	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/internal/sources"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// ProgressFunc is called once per record with its 1-based position.
type ProgressFunc func(current, total int)

// Enricher backfills citation records from a MetadataSource.
type Enricher struct {
	source  sources.MetadataSource
	pacer   *sources.Pacer
	logger  *zap.Logger
	metrics *metrics.Collector
}

// New returns an Enricher. pacer spaces lookups; a nil pacer does not wait.
func New(source sources.MetadataSource, pacer *sources.Pacer, logger *zap.Logger, m *metrics.Collector) *Enricher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Enricher{source: source, pacer: pacer, logger: logger, metrics: m}
}

// Enrich fills empty fields of records in place. A record is looked up
// once, when any of its fields is empty; existing values are never
// overwritten and a failed lookup leaves the record unchanged. progress
// may be nil. The only error returned is ctx's.
func (e *Enricher) Enrich(ctx context.Context, records []types.Citation, progress ProgressFunc) error {
	total := len(records)
	for i := range records {
		rec := &records[i]
		if rec.NeedsMetadata() {
			if err := e.lookup(ctx, rec); err != nil {
				return err
			}
		}
		if progress != nil {
			progress(i+1, total)
		}
	}
	return nil
}

func (e *Enricher) lookup(ctx context.Context, rec *types.Citation) error {
	if err := e.pacer.Wait(ctx); err != nil {
		return err
	}
	md, ok, err := e.source.Lookup(ctx, rec.DOI)
	if err != nil {
		return err
	}
	if !ok || md.IsEmpty() {
		e.logger.Debug("no metadata found", zap.String("doi", rec.DOI))
		e.metrics.ObserveEnrichment(false)
		return nil
	}
	before := *rec
	rec.Backfill(md.Title, md.Authors, md.Year)
	filled := before.Title != rec.Title || len(before.Authors) != len(rec.Authors) || before.Year != rec.Year
	e.metrics.ObserveEnrichment(filled)
	return nil
}
