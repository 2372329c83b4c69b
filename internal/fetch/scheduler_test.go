package fetch

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/catalyst/internal/common"
)

func testFetchConfig() *common.FetchConfig {
	return &common.FetchConfig{
		UserAgent:      "catalyst-test",
		Workers:        2,
		HostDelay:      time.Millisecond,
		RequestTimeout: 5 * time.Second,
		MaxRetries:     1,
		MaxBodySize:    1024 * 1024,
		DegradeAfter:   2,
	}
}

func TestSchedulerFetch(t *testing.T) {
	var gotUA atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA.Store(r.Header.Get("User-Agent"))
		fmt.Fprint(w, "<html><body>hello</body></html>")
	}))
	defer server.Close()

	s := NewScheduler(testFetchConfig(), common.GetLogger())

	result, err := s.Fetch(context.Background(), server.URL+"/story")
	require.NoError(t, err)
	assert.Equal(t, 200, result.StatusCode)
	assert.Contains(t, result.Body, "hello")
	assert.Equal(t, "catalyst-test", gotUA.Load())
}

func TestSchedulerRetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer server.Close()

	cfg := testFetchConfig()
	s := NewScheduler(cfg, common.GetLogger())
	s.retry.InitialBackoff = time.Millisecond

	result, err := s.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Contains(t, result.Body, "recovered")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSchedulerDoesNotRetryNotFound(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	s := NewScheduler(testFetchConfig(), common.GetLogger())

	_, err := s.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSchedulerDegradesFailingHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	cfg := testFetchConfig()
	cfg.DegradeAfter = 2
	s := NewScheduler(cfg, common.GetLogger())

	// Two consecutive failures cross the threshold
	_, err := s.Fetch(context.Background(), server.URL+"/a")
	require.Error(t, err)
	_, err = s.Fetch(context.Background(), server.URL+"/b")
	require.Error(t, err)

	// Third request is skipped without touching the network
	_, err = s.Fetch(context.Background(), server.URL+"/c")
	assert.ErrorIs(t, err, ErrHostDegraded)

	u, _ := url.Parse(server.URL)
	assert.Contains(t, s.DegradedHosts(), u.Host)
}

func TestSchedulerFollowsRedirects(t *testing.T) {
	var target *httptest.Server
	target = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "final")
	}))
	defer target.Close()

	redirector := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, target.URL+"/canonical", http.StatusMovedPermanently)
	}))
	defer redirector.Close()

	s := NewScheduler(testFetchConfig(), common.GetLogger())

	result, err := s.Fetch(context.Background(), redirector.URL)
	require.NoError(t, err)
	assert.Equal(t, target.URL+"/canonical", result.FinalURL)
	assert.Contains(t, result.Body, "final")
}

func TestAlternateURL(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"https://example.com/news/story", "https://example.com/news/story/amp"},
		{"https://example.com/news/story/", "https://example.com/news/story/amp"},
		{"https://example.com/news?id=7", "https://example.com/news?id=7&amp=1"},
		// Already an AMP page: no variant
		{"https://example.com/news/story/amp", ""},
		{"https://example.com/amp/story", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, AlternateURL(tt.input), "AlternateURL(%q)", tt.input)
	}
}
