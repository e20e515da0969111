// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources adapts the bibliographic APIs (OpenAlex, OpenCitations,
// Crossref) to three capabilities: listing the works that cite a DOI,
// discovering a publisher's DOIs, and looking up a DOI's metadata.
//
// Adapters never fail on missing data. A source that is unavailable or
// has no record contributes nothing; the only error an adapter returns is
// the context's, when the run is cancelled.
package sources

import (
	"context"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pdiddy/citation-engine/pkg/types"
)

// CitationSource lists the works citing a canonical DOI.
type CitationSource interface {
	// Name returns the source tag recorded on produced citations.
	Name() string
	// Citations returns citing works in source order. Title, authors, and
	// year may be empty.
	Citations(ctx context.Context, doi string) ([]types.Citation, error)
}

// IdentifierDiscoverer lists the DOIs registered under a publisher code.
type IdentifierDiscoverer interface {
	Discover(ctx context.Context, pubID string) ([]string, error)
}

// Metadata is the bibliographic record returned by a MetadataSource.
type Metadata struct {
	Title   string
	Authors []string
	Year    string
}

// IsEmpty reports whether the lookup produced no usable field.
func (m Metadata) IsEmpty() bool {
	return m.Title == "" && len(m.Authors) == 0 && m.Year == ""
}

// MetadataSource looks up title, authors, and year for a DOI. The boolean
// is false when the source has no record or could not be reached.
type MetadataSource interface {
	Lookup(ctx context.Context, doi string) (Metadata, bool, error)
}

// Pacer spaces successive calls to one source by at least a fixed delay.
// The first call proceeds immediately. A nil Pacer never waits.
type Pacer struct {
	limiter *rate.Limiter
}

// NewPacer returns a Pacer enforcing delay between calls.
func NewPacer(delay time.Duration) *Pacer {
	if delay <= 0 {
		return &Pacer{limiter: rate.NewLimiter(rate.Inf, 1)}
	}
	return &Pacer{limiter: rate.NewLimiter(rate.Every(delay), 1)}
}

// Wait blocks until the next call is allowed or ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if p == nil {
		return nil
	}
	return p.limiter.Wait(ctx)
}

// escapePath escapes a DOI for use as a URL path segment, keeping "/".
func escapePath(doi string) string {
	return (&url.URL{Path: doi}).EscapedPath()
}

// mailtoParams returns the polite-pool parameter set for email.
func mailtoParams(email string) url.Values {
	v := url.Values{}
	if email != "" {
		v.Set("mailto", email)
	}
	return v
}

func nopIfNil(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
