package fetch

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHostLimiterEnforcesMinimumInterval(t *testing.T) {
	hl := NewHostLimiter(50 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, hl.Wait(ctx, "https://example.com/a"))

	start := time.Now()
	require.NoError(t, hl.Wait(ctx, "https://example.com/b"))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 40*time.Millisecond, "second request to the same host must wait")
}

func TestHostLimiterIndependentHosts(t *testing.T) {
	hl := NewHostLimiter(200 * time.Millisecond)
	ctx := context.Background()

	require.NoError(t, hl.Wait(ctx, "https://one.example.com/a"))

	start := time.Now()
	require.NoError(t, hl.Wait(ctx, "https://two.example.com/a"))

	assert.Less(t, time.Since(start), 100*time.Millisecond, "different hosts must not block each other")
}

func TestHostLimiterContextCancellation(t *testing.T) {
	hl := NewHostLimiter(5 * time.Second)

	require.NoError(t, hl.Wait(context.Background(), "https://example.com/a"))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := hl.Wait(ctx, "https://example.com/b")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSetHostDelay(t *testing.T) {
	hl := NewHostLimiter(time.Second)

	hl.SetHostDelay("slow.example.com", 3*time.Second)
	assert.Equal(t, 3*time.Second, hl.HostDelay("slow.example.com"))
	assert.Equal(t, time.Second, hl.HostDelay("other.example.com"))
}
