package fetch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/catalyst/internal/common"
)

func TestShouldRetry(t *testing.T) {
	p := NewRetryPolicy(2) // 3 attempts total

	// Retryable status codes
	assert.True(t, p.ShouldRetry(1, 429, nil))
	assert.True(t, p.ShouldRetry(1, 503, nil))
	assert.True(t, p.ShouldRetry(2, 500, nil))

	// Non-retryable client errors
	assert.False(t, p.ShouldRetry(1, 404, nil))
	assert.False(t, p.ShouldRetry(1, 403, nil))

	// Attempt cap
	assert.False(t, p.ShouldRetry(3, 503, nil))

	// Retryable error types
	assert.True(t, p.ShouldRetry(1, 0, context.DeadlineExceeded))
	assert.False(t, p.ShouldRetry(1, 0, errors.New("parse failure")))
}

func TestCalculateBackoffGrowsAndCaps(t *testing.T) {
	p := NewRetryPolicy(5)

	// With +/-25% jitter the first backoff stays within [0.75s, 1.25s]
	first := p.CalculateBackoff(0)
	assert.GreaterOrEqual(t, first, 750*time.Millisecond)
	assert.LessOrEqual(t, first, 1250*time.Millisecond)

	// Deep attempts cap at MaxBackoff plus jitter
	deep := p.CalculateBackoff(10)
	assert.LessOrEqual(t, deep, time.Duration(float64(p.MaxBackoff)*1.25))
}

func TestExecuteWithRetryEventuallySucceeds(t *testing.T) {
	p := NewRetryPolicy(2)
	p.InitialBackoff = time.Millisecond

	calls := 0
	status, err := p.ExecuteWithRetry(context.Background(), common.GetLogger(), func() (int, error) {
		calls++
		if calls < 3 {
			return 503, nil
		}
		return 200, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 200, status)
	assert.Equal(t, 3, calls)
}

func TestExecuteWithRetryStopsOnNonRetryable(t *testing.T) {
	p := NewRetryPolicy(3)
	p.InitialBackoff = time.Millisecond

	calls := 0
	_, err := p.ExecuteWithRetry(context.Background(), common.GetLogger(), func() (int, error) {
		calls++
		return 0, errors.New("tls handshake rejected")
	})

	require.Error(t, err)
	assert.Equal(t, 1, calls, "non-retryable errors must fail immediately")
}

func TestExecuteWithRetryHonorsContext(t *testing.T) {
	p := NewRetryPolicy(5)
	p.InitialBackoff = time.Second

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.ExecuteWithRetry(ctx, common.GetLogger(), func() (int, error) {
		return 503, nil
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
