// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/citation-engine/internal/metrics"
	"github.com/pdiddy/citation-engine/pkg/types"
)

func init() {
	// Use tiny delays so tests finish quickly.
	RateLimitBackoff = 1 * time.Millisecond
	RetryDelay = 1 * time.Millisecond
	TimeoutRetryDelay = 1 * time.Millisecond
}

func testFetcher(ts *httptest.Server, opts ...Option) *Fetcher {
	cfg := types.HTTPConfig{Timeout: 5 * time.Second, MaxAttempts: 3, UserAgent: "citation-engine/test"}
	return NewFetcher(cfg, "", append([]Option{WithHTTPClient(ts.Client())}, opts...)...)
}

type payload struct {
	Name string `json:"name"`
}

func TestGetJSON_ImmediateSuccess(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "citation-engine/test", r.Header.Get("User-Agent"))
		assert.Equal(t, "v", r.URL.Query().Get("k"))
		fmt.Fprint(w, `{"name":"ok"}`)
	}))
	defer ts.Close()

	var got payload
	outcome, err := testFetcher(ts).GetJSON(context.Background(), ts.URL, url.Values{"k": {"v"}}, &got)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, "ok", got.Name)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_NotFoundIsTerminal(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer ts.Close()

	var got payload
	outcome, err := testFetcher(ts).GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)

	assert.Equal(t, OutcomeNotFound, outcome)
	assert.False(t, outcome.OK())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGetJSON_RateLimitedThen200(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"name":"later"}`)
	}))
	defer ts.Close()

	m := metrics.New()
	var got payload
	outcome, err := testFetcher(ts, WithMetrics(m)).GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, "later", got.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	host := ts.Listener.Addr().String()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimited.WithLabelValues(host)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FetchOutcomes.WithLabelValues("success")))
}

func TestGetJSON_RateLimitBackoffGrows(t *testing.T) {
	old := RateLimitBackoff
	RateLimitBackoff = 20 * time.Millisecond
	defer func() { RateLimitBackoff = old }()

	var mu sync.Mutex
	var stamps []time.Time
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		mu.Lock()
		stamps = append(stamps, time.Now())
		mu.Unlock()
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	var got payload
	outcome, err := testFetcher(ts).GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, outcome)

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, stamps, 3)
	assert.GreaterOrEqual(t, stamps[1].Sub(stamps[0]), 20*time.Millisecond)
	assert.GreaterOrEqual(t, stamps[2].Sub(stamps[1]), 40*time.Millisecond)
}

func TestGetJSON_ExhaustsAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	var got payload
	outcome, err := testFetcher(ts).GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, outcome)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetJSON_UndecodableBodyRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			fmt.Fprint(w, `{not json`)
			return
		}
		fmt.Fprint(w, `{"name":"fixed"}`)
	}))
	defer ts.Close()

	var got payload
	outcome, err := testFetcher(ts).GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)

	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, "fixed", got.Name)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestGetJSON_TransportErrorExhausts(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	addr := ts.URL
	client := ts.Client()
	ts.Close()

	cfg := types.HTTPConfig{Timeout: time.Second, MaxAttempts: 2}
	f := NewFetcher(cfg, "ua", WithHTTPClient(client))

	var got payload
	outcome, err := f.GetJSON(context.Background(), addr, nil, &got)
	require.NoError(t, err)
	assert.Equal(t, OutcomeExhausted, outcome)
}

func TestGetJSON_TimeoutRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			time.Sleep(200 * time.Millisecond)
		}
		fmt.Fprint(w, `{"name":"second"}`)
	}))
	defer ts.Close()

	client := ts.Client()
	client.Timeout = 50 * time.Millisecond
	f := NewFetcher(types.HTTPConfig{MaxAttempts: 3}, "ua", WithHTTPClient(client))

	var got payload
	outcome, err := f.GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, "second", got.Name)
}

func TestGetJSON_ContextCancelled(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer ts.Close()

	// Use a longer backoff so the context cancels during the wait.
	old := RateLimitBackoff
	RateLimitBackoff = 500 * time.Millisecond
	defer func() { RateLimitBackoff = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	var got payload
	outcome, err := testFetcher(ts).GetJSON(ctx, ts.URL, nil, &got)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, OutcomeExhausted, outcome)
}

func TestGetJSON_DefaultMaxAttempts(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	f := NewFetcher(types.HTTPConfig{}, "ua", WithHTTPClient(ts.Client()))
	var got payload
	outcome, err := f.GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, outcome)
	assert.Equal(t, int32(defaultMaxAttempts), atomic.LoadInt32(&calls))
}

func TestGetText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "text/plain", r.Header.Get("Accept"))
		fmt.Fprint(w, "DOI\tTITLE\n10.1000/a\tA\n")
	}))
	defer ts.Close()

	text, outcome, err := testFetcher(ts).GetText(context.Background(), ts.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, OutcomeSuccess, outcome)
	assert.Equal(t, "DOI\tTITLE\n10.1000/a\tA\n", text)
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "success", OutcomeSuccess.String())
	assert.Equal(t, "not_found", OutcomeNotFound.String())
	assert.Equal(t, "exhausted", OutcomeExhausted.String())
}

func TestFetcher_WithCopies(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"name":"ok"}`)
	}))
	defer ts.Close()

	base := testFetcher(ts)
	m := metrics.New()
	withMetrics := base.With(WithMetrics(m))

	var got payload
	_, err := base.GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)
	_, err = withMetrics.GetJSON(context.Background(), ts.URL, nil, &got)
	require.NoError(t, err)

	assert.Nil(t, base.metrics)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.FetchOutcomes.WithLabelValues("success")))
}
