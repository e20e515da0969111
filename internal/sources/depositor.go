// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"bufio"
	"context"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/citation-engine/internal/doi"
	"github.com/pdiddy/citation-engine/internal/httputil"
	"github.com/pdiddy/citation-engine/pkg/types"
)

// DepositorReport discovers a publisher's DOIs from the Crossref
// depositor report, a plain-text listing keyed by publication code.
type DepositorReport struct {
	fetcher *httputil.Fetcher
	baseURL string
	logger  *zap.Logger
}

// NewDepositorReport builds the discoverer from cfg.
func NewDepositorReport(f *httputil.Fetcher, cfg types.Config, logger *zap.Logger) *DepositorReport {
	return &DepositorReport{
		fetcher: f,
		baseURL: cfg.Sources.DepositorReportURL,
		logger:  nopIfNil(logger),
	}
}

// Discover fetches the report for pubID and returns the DOIs it lists in
// report order. A failed fetch yields an empty list.
func (d *DepositorReport) Discover(ctx context.Context, pubID string) ([]string, error) {
	code := strings.ToUpper(strings.TrimSpace(pubID))
	params := url.Values{"pubid": {code}}

	body, outcome, err := d.fetcher.GetText(ctx, d.baseURL, params)
	if err != nil {
		return nil, err
	}
	if !outcome.OK() {
		d.logger.Warn("depositor report unavailable", zap.String("pubid", code), zap.Stringer("outcome", outcome))
		return nil, nil
	}
	return ParseDepositorReport(body), nil
}

// ParseDepositorReport extracts DOIs from report text. Blank lines and
// header lines starting with "DOI" are skipped; the first
// whitespace-separated column of every other line is normalized, and
// values that are not DOIs are dropped. Duplicates are kept.
func ParseDepositorReport(body string) []string {
	var dois []string
	scanner := bufio.NewScanner(strings.NewReader(body))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(strings.ToUpper(line), "DOI") {
			continue
		}
		fields := strings.Fields(line)
		if canonical, ok := doi.Normalize(fields[0]); ok {
			dois = append(dois, canonical)
		}
	}
	return dois
}
