// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics counts fetch outcomes and pipeline totals for a run and
// can dump them in the Prometheus text format for a node_exporter textfile
// collector. A nil *Collector is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "citation_engine"

// Collector holds the counters for one run on a private registry.
type Collector struct {
	registry *prometheus.Registry

	// HTTPResponses counts HTTP responses by host and status code.
	HTTPResponses *prometheus.CounterVec

	// HTTPErrors counts transport errors and timeouts by host.
	HTTPErrors *prometheus.CounterVec

	// RateLimited counts 429 responses by host.
	RateLimited *prometheus.CounterVec

	// FetchOutcomes counts terminal fetch outcomes (success, not_found, exhausted).
	FetchOutcomes *prometheus.CounterVec

	// SourceCitations counts records returned per citation source.
	SourceCitations *prometheus.CounterVec

	// Identifiers counts processed identifiers by status (ok, failed).
	Identifiers *prometheus.CounterVec

	// MergedCitations counts unique citation records after merge.
	MergedCitations prometheus.Counter

	// EnrichmentLookups counts metadata lookups by result (filled, unchanged).
	EnrichmentLookups *prometheus.CounterVec

	// RunDuration observes run wall time in seconds.
	RunDuration prometheus.Histogram
}

// New creates a Collector with all counters registered on a fresh registry.
func New() *Collector {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Collector{
		registry: reg,
		HTTPResponses: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "responses_total",
			Help: "HTTP responses received, by host and status code.",
		}, []string{"host", "code"}),
		HTTPErrors: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "errors_total",
			Help: "HTTP transport errors and timeouts, by host.",
		}, []string{"host"}),
		RateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "rate_limited_total",
			Help: "HTTP 429 responses, by host.",
		}, []string{"host"}),
		FetchOutcomes: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "fetch", Name: "outcomes_total",
			Help: "Terminal fetch outcomes.",
		}, []string{"outcome"}),
		SourceCitations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "source", Name: "citations_total",
			Help: "Citation records returned, by source.",
		}, []string{"source"}),
		Identifiers: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "identifiers_total",
			Help: "Queried identifiers processed, by status.",
		}, []string{"status"}),
		MergedCitations: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "merged_citations_total",
			Help: "Unique citation records after merge.",
		}),
		EnrichmentLookups: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "enrich", Name: "lookups_total",
			Help: "Metadata lookups, by result.",
		}, []string{"result"}),
		RunDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "pipeline", Name: "run_duration_seconds",
			Help:    "Wall time of a citation run.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		}),
	}
}

// Registry exposes the underlying registry as a gatherer.
func (c *Collector) Registry() prometheus.Gatherer {
	if c == nil {
		return prometheus.NewRegistry()
	}
	return c.registry
}

// WriteTextfile writes all metrics to path in the Prometheus text format.
func (c *Collector) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, c.Registry())
}

// ObserveResponse records one HTTP response.
func (c *Collector) ObserveResponse(host string, code int) {
	if c == nil {
		return
	}
	c.HTTPResponses.WithLabelValues(host, strconv.Itoa(code)).Inc()
	if code == 429 {
		c.RateLimited.WithLabelValues(host).Inc()
	}
}

// ObserveTransportError records one failed round trip.
func (c *Collector) ObserveTransportError(host string) {
	if c == nil {
		return
	}
	c.HTTPErrors.WithLabelValues(host).Inc()
}

// ObserveOutcome records a terminal fetch outcome.
func (c *Collector) ObserveOutcome(outcome string) {
	if c == nil {
		return
	}
	c.FetchOutcomes.WithLabelValues(outcome).Inc()
}

// ObserveSource records n records returned by source.
func (c *Collector) ObserveSource(source string, n int) {
	if c == nil {
		return
	}
	c.SourceCitations.WithLabelValues(source).Add(float64(n))
}

// ObserveIdentifier records one processed identifier and its merged count.
func (c *Collector) ObserveIdentifier(failed bool, merged int) {
	if c == nil {
		return
	}
	status := "ok"
	if failed {
		status = "failed"
	}
	c.Identifiers.WithLabelValues(status).Inc()
	c.MergedCitations.Add(float64(merged))
}

// ObserveEnrichment records one metadata lookup.
func (c *Collector) ObserveEnrichment(filled bool) {
	if c == nil {
		return
	}
	result := "unchanged"
	if filled {
		result = "filled"
	}
	c.EnrichmentLookups.WithLabelValues(result).Inc()
}

// ObserveRun records the wall time of a run.
func (c *Collector) ObserveRun(d time.Duration) {
	if c == nil {
		return
	}
	c.RunDuration.Observe(d.Seconds())
}
