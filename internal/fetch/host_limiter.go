package fetch

import (
	"context"
	"net/url"
	"sync"
	"time"
)

// HostLimiter enforces a minimum interval between requests to the same host.
// It is one of the two cross-worker mutable structures in a run (the other
// is the dedup cache) and is safe for concurrent use.
type HostLimiter struct {
	limiters     map[string]*hostState
	mu           sync.RWMutex
	defaultDelay time.Duration
}

// hostState tracks the last request time for a single host
type hostState struct {
	lastRequest time.Time
	mu          sync.Mutex
	delay       time.Duration
}

// NewHostLimiter creates a limiter with the specified default per-host delay
func NewHostLimiter(defaultDelay time.Duration) *HostLimiter {
	return &HostLimiter{
		limiters:     make(map[string]*hostState),
		defaultDelay: defaultDelay,
	}
}

// Wait blocks until the host's minimum interval is satisfied, or returns
// early when the context is cancelled. The worker waits rather than spins.
func (hl *HostLimiter) Wait(ctx context.Context, rawURL string) error {
	host := extractHost(rawURL)
	if host == "" {
		return nil // No host, no rate limiting
	}

	hl.mu.Lock()
	state, exists := hl.limiters[host]
	if !exists {
		state = &hostState{
			delay: hl.defaultDelay,
		}
		hl.limiters[host] = state
	}
	hl.mu.Unlock()

	state.mu.Lock()
	defer state.mu.Unlock()

	now := time.Now()
	nextAllowed := state.lastRequest.Add(state.delay)

	if now.Before(nextAllowed) {
		timer := time.NewTimer(nextAllowed.Sub(now))
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}

	state.lastRequest = time.Now()
	return nil
}

// SetHostDelay sets a custom delay for a specific host
func (hl *HostLimiter) SetHostDelay(host string, delay time.Duration) {
	hl.mu.Lock()
	defer hl.mu.Unlock()

	state, exists := hl.limiters[host]
	if !exists {
		hl.limiters[host] = &hostState{delay: delay}
		return
	}
	state.mu.Lock()
	state.delay = delay
	state.mu.Unlock()
}

// HostDelay returns the current delay for a host
func (hl *HostLimiter) HostDelay(host string) time.Duration {
	hl.mu.RLock()
	defer hl.mu.RUnlock()

	state, exists := hl.limiters[host]
	if !exists {
		return hl.defaultDelay
	}

	state.mu.Lock()
	defer state.mu.Unlock()
	return state.delay
}

// extractHost parses the host from a URL
func extractHost(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Host
}
