package dasclient

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimitedClient_SingleQueryPassesThrough(t *testing.T) {
	addr := startFakeDAS(t, func(req string) []string {
		return []string{"Domain: example.lt", "Status: registered"}
	})
	// Only one fake connection will be served; exercise a single query.
	c := New(addr)
	l := NewLimited(c, 10)

	result, err := l.Check(context.Background(), "example.lt")
	require.NoError(t, err)
	assert.Equal(t, StatusRegistered, result.Status)
}

func TestLimitedClient_QueryCounterAccumulates(t *testing.T) {
	// The queries counter that drives the every-100 stats log crosses the
	// 100 and 200 boundaries without panicking or blocking; the log output
	// itself is not inspected.
	l := &LimitedClient{}
	for i := uint64(0); i < 250; i++ {
		l.queries.Add(1)
	}
	assert.Equal(t, uint64(250), l.queries.Load())
}

func TestLimitedClient_ContextCancellationDuringWait(t *testing.T) {
	c := New("127.0.0.1:1")
	l := NewLimited(c, 0.001) // one token per ~1000s: forces a wait
	// The bucket starts full (capacity 1); spend that token first.
	_, _ = l.bucket.TryAcquire(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := l.Check(ctx, "example.lt")
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
