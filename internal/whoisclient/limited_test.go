package whoisclient

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedClient_DegradesToRateLimitedWhenBucketEmpty(t *testing.T) {
	c := New("127.0.0.1:1")
	l := NewLimited(c)

	for i := 0; i < 100; i++ {
		ok, err := l.bucket.TryAcquire(context.Background())
		require.NoError(t, err)
		assert.True(t, ok)
	}

	outcome, err := l.Lookup(context.Background(), "example.lt")
	require.NoError(t, err, "rate limiting must never raise")
	assert.True(t, outcome.RateLimited)
}

func TestLimitedClient_DelegatesWhenTokenAvailable(t *testing.T) {
	addr := startFakeWHOIS(t, "Domain: example.lt\r\n")
	c := New(addr)
	l := NewLimited(c)

	outcome, err := l.Lookup(context.Background(), "example.lt")
	require.NoError(t, err)
	assert.False(t, outcome.RateLimited)
	assert.Equal(t, "example.lt", outcome.Record.Domain)
}
