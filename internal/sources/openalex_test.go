// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/pkg/types"
)

const openAlexWorkJSON = `{"id":"https://openalex.org/W123","cited_by_count":%d}`

func TestOpenAlex_SinglePage(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/works/doi:10.1000/abc":
			assert.Equal(t, "me@example.org", r.URL.Query().Get("mailto"))
			fmt.Fprintf(w, openAlexWorkJSON, 2)
		case "/works":
			q := r.URL.Query()
			assert.Equal(t, "cites:W123", q.Get("filter"))
			assert.Equal(t, "200", q.Get("per-page"))
			assert.Equal(t, "*", q.Get("cursor"))
			assert.Equal(t, openAlexSelectFields, q.Get("select"))
			fmt.Fprint(w, `{"meta":{"count":3,"next_cursor":null},"results":[
				{"doi":"https://doi.org/10.2000/X1","title":"First","publication_year":2021,
				 "authorships":[{"author":{"display_name":"Ada Lovelace"}},{"author":{"display_name":""}}]},
				{"doi":null,"title":"No DOI"},
				{"doi":"https://doi.org/not-a-doi","title":"Bad"},
				{"doi":"10.2000/x2","title":null,"publication_year":null}
			]}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer ts.Close()

	cfg := testConfig(ts)
	cfg.Sources.Email = "me@example.org"
	m := metrics.New()
	a := NewOpenAlex(testFetcher(ts), cfg, nil, m)

	got, err := a.Citations(context.Background(), "10.1000/abc")
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, types.Citation{
		DOI: "10.2000/x1", Title: "First", Authors: []string{"Ada Lovelace"}, Year: "2021", Source: types.SourceOpenAlex,
	}, got[0])
	assert.Equal(t, "10.2000/x2", got[1].DOI)
	assert.Empty(t, got[1].Title)
	assert.Empty(t, got[1].Year)
	assert.Equal(t, types.SourceOpenAlex, a.Name())
}

func TestOpenAlex_ZeroCitedByCountSkipsPagination(t *testing.T) {
	var pages int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/works" {
			atomic.AddInt32(&pages, 1)
		}
		fmt.Fprintf(w, openAlexWorkJSON, 0)
	}))
	defer ts.Close()

	got, err := NewOpenAlex(testFetcher(ts), testConfig(ts), nil, nil).Citations(context.Background(), "10.1000/abc")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, int32(0), atomic.LoadInt32(&pages))
}

func TestOpenAlex_LookupNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	got, err := NewOpenAlex(testFetcher(ts), testConfig(ts), nil, nil).Citations(context.Background(), "10.1000/abc")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestOpenAlex_FollowsCursor(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			fmt.Fprintf(w, openAlexWorkJSON, 2)
			return
		}
		switch r.URL.Query().Get("cursor") {
		case "*":
			fmt.Fprint(w, `{"meta":{"next_cursor":"page2"},"results":[{"doi":"10.2000/p1"}]}`)
		case "page2":
			fmt.Fprint(w, `{"meta":{},"results":[{"doi":"10.2000/p2"}]}`)
		default:
			t.Errorf("unexpected cursor %q", r.URL.Query().Get("cursor"))
		}
	}))
	defer ts.Close()

	got, err := NewOpenAlex(testFetcher(ts), testConfig(ts), nil, nil).Citations(context.Background(), "10.1000/abc")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "10.2000/p1", got[0].DOI)
	assert.Equal(t, "10.2000/p2", got[1].DOI)
}

func TestOpenAlex_StopsAtPageCap(t *testing.T) {
	var pages int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			fmt.Fprintf(w, openAlexWorkJSON, 1000)
			return
		}
		n := atomic.AddInt32(&pages, 1)
		fmt.Fprintf(w, `{"meta":{"next_cursor":"c%d"},"results":[{"doi":"10.2000/p%d"}]}`, n, n)
	}))
	defer ts.Close()

	cfg := testConfig(ts)
	cfg.Pipeline.MaxPages = 3
	got, err := NewOpenAlex(testFetcher(ts), cfg, nil, nil).Citations(context.Background(), "10.1000/abc")
	require.NoError(t, err)

	assert.Len(t, got, 3)
	assert.Equal(t, int32(3), atomic.LoadInt32(&pages))
}

func TestOpenAlex_PageFailureKeepsEarlierPages(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/works" {
			fmt.Fprintf(w, openAlexWorkJSON, 5)
			return
		}
		if r.URL.Query().Get("cursor") == "*" {
			fmt.Fprint(w, `{"meta":{"next_cursor":"next"},"results":[{"doi":"10.2000/kept"}]}`)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	got, err := NewOpenAlex(testFetcher(ts), testConfig(ts), nil, nil).Citations(context.Background(), "10.1000/abc")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "10.2000/kept", got[0].DOI)
}

func TestOpenAlex_Cancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprintf(w, openAlexWorkJSON, 1)
	}))
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewOpenAlex(testFetcher(ts), testConfig(ts), nil, nil).Citations(ctx, "10.1000/abc")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewOpenAlex_ClampsPaging(t *testing.T) {
	cfg := types.DefaultConfig()
	cfg.Pipeline.PageSize = 1000
	cfg.Pipeline.MaxPages = 0
	a := NewOpenAlex(nil, cfg, nil, nil)
	assert.Equal(t, defaultPageSize, a.pageSize)
	assert.Equal(t, defaultMaxPages, a.maxPages)
}
