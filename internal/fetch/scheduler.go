// -----------------------------------------------------------------------
// Fetch Scheduler - polite concurrent retrieval of feed listings and
// article pages with per-host intervals and bounded retries
// -----------------------------------------------------------------------

package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/catalyst/internal/common"
)

// ErrHostDegraded is returned for hosts that failed repeatedly and are
// skipped for the remainder of the run.
var ErrHostDegraded = errors.New("host degraded for this run")

// Result is one completed page fetch.
type Result struct {
	URL        string
	FinalURL   string // After redirects
	StatusCode int
	Body       string
}

// Scheduler performs rate-limited, retried HTTP fetches. The global
// concurrency cap is enforced here with a semaphore so callers cannot
// oversubscribe it; per-host politeness is enforced by the HostLimiter.
type Scheduler struct {
	config  *common.FetchConfig
	client  *http.Client
	limiter *HostLimiter
	retry   *RetryPolicy
	logger  arbor.ILogger
	sem     chan struct{}

	mu       sync.Mutex
	failures map[string]int
	degraded map[string]bool
}

// NewScheduler creates a fetch scheduler from config.
func NewScheduler(config *common.FetchConfig, logger arbor.ILogger) *Scheduler {
	workers := config.Workers
	if workers <= 0 {
		workers = 1
	}
	return &Scheduler{
		config: config,
		client: &http.Client{
			Timeout: config.RequestTimeout,
		},
		limiter:  NewHostLimiter(config.HostDelay),
		retry:    NewRetryPolicy(config.MaxRetries),
		logger:   logger,
		sem:      make(chan struct{}, workers),
		failures: make(map[string]int),
		degraded: make(map[string]bool),
	}
}

// Limiter exposes the per-host limiter for callers that need to adjust
// individual host delays.
func (s *Scheduler) Limiter() *HostLimiter {
	return s.limiter
}

// Fetch retrieves one URL, honoring the worker cap, the per-host interval,
// and the retry policy. Repeated failures degrade the host: it is logged
// and skipped for the rest of the run, never aborting it.
func (s *Scheduler) Fetch(ctx context.Context, rawURL string) (*Result, error) {
	host := extractHost(rawURL)

	if s.isDegraded(host) {
		return nil, fmt.Errorf("%s: %w", host, ErrHostDegraded)
	}

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-s.sem }()

	if err := s.limiter.Wait(ctx, rawURL); err != nil {
		return nil, err
	}

	var result *Result
	statusCode, err := s.retry.ExecuteWithRetry(ctx, s.logger, func() (int, error) {
		r, err := s.doFetch(ctx, rawURL)
		if err != nil {
			return 0, err
		}
		result = r
		return r.StatusCode, nil
	})

	if err != nil || statusCode >= 400 {
		s.recordFailure(host)
		if err == nil {
			err = fmt.Errorf("fetch %s: HTTP %d", rawURL, statusCode)
		}
		return nil, err
	}

	s.recordSuccess(host)
	return result, nil
}

// doFetch performs a single HTTP GET with a bounded body read.
func (s *Scheduler) doFetch(ctx context.Context, rawURL string) (*Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.config.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	limit := int64(s.config.MaxBodySize)
	if limit <= 0 {
		limit = 5 * 1024 * 1024
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to read body: %w", err)
	}

	finalURL := rawURL
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	return &Result{
		URL:        rawURL,
		FinalURL:   finalURL,
		StatusCode: resp.StatusCode,
		Body:       string(body),
	}, nil
}

// isDegraded reports whether a host has been marked degraded.
func (s *Scheduler) isDegraded(host string) bool {
	if host == "" {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded[host]
}

// recordFailure counts a consecutive failure and degrades the host once the
// threshold is crossed.
func (s *Scheduler) recordFailure(host string) {
	if host == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[host]++
	if !s.degraded[host] && s.config.DegradeAfter > 0 && s.failures[host] >= s.config.DegradeAfter {
		s.degraded[host] = true
		s.logger.Warn().
			Str("host", host).
			Int("consecutive_failures", s.failures[host]).
			Msg("Host degraded, skipping for the rest of the run")
	}
}

// recordSuccess resets the consecutive-failure counter for a host.
func (s *Scheduler) recordSuccess(host string) {
	if host == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[host] = 0
}

// DegradedHosts returns the hosts skipped during this run, for the summary.
func (s *Scheduler) DegradedHosts() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hosts []string
	for host := range s.degraded {
		hosts = append(hosts, host)
	}
	return hosts
}

// AlternateURL derives a mobile/AMP variant of a URL, used as a one-shot
// fallback when extraction fails on the primary page. Returns "" when no
// sensible variant exists.
func AlternateURL(rawURL string) string {
	switch {
	case strings.Contains(rawURL, "/amp/"), strings.HasSuffix(rawURL, "/amp"):
		return ""
	case strings.Contains(rawURL, "?"):
		return rawURL + "&amp=1"
	default:
		return strings.TrimSuffix(rawURL, "/") + "/amp"
	}
}
