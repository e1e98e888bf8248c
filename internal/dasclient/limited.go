package dasclient

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/ltdomains/domain-analyzer/internal/ratelimit"
)

// LimitedClient wraps a Client in a rate limiter enforcing the registry's
// soft query cap. Queries are not spaced out while the limiter grants
// tokens: a burst up to the bucket's capacity goes through at once, and
// minGap (1/maxPerSecond) only bounds each sleep after a denied token.
// The limiter defaults to an
// in-process bucket but can be pointed at a shared internal/ratelimit/
// redisbucket.Bucket via WithLimiter for multi-process deployments.
type LimitedClient struct {
	client  *Client
	bucket  ratelimit.Limiter
	minGap  time.Duration
	logger  *slog.Logger
	queries atomic.Uint64
}

// LimitedOption configures a LimitedClient at construction.
type LimitedOption func(*LimitedClient)

// WithLimitedLogger attaches a structured logger to a LimitedClient.
func WithLimitedLogger(logger *slog.Logger) LimitedOption {
	return func(l *LimitedClient) { l.logger = logger }
}

// WithLimiter overrides the default in-process bucket with any other
// ratelimit.Limiter, e.g. a redisbucket.Bucket shared across processes.
func WithLimiter(limiter ratelimit.Limiter) LimitedOption {
	return func(l *LimitedClient) { l.bucket = limiter }
}

// NewLimited wraps client with a token bucket capped at maxPerSecond
// queries/s. NewLimited applies no default of its own; scanconfig's default
// rate is 4/s.
func NewLimited(client *Client, maxPerSecond float64, opts ...LimitedOption) *LimitedClient {
	l := &LimitedClient{
		client: client,
		bucket: ratelimit.Local{TokenBucket: ratelimit.NewFromRate(maxPerSecond)},
		minGap: time.Duration(float64(time.Second) / maxPerSecond),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// waitDuration returns how long to sleep before retrying TryAcquire. When
// the limiter is the local in-process bucket it asks for the exact time
// until a token is available (capped at minGap); a distributed limiter has
// no equivalent estimate, so it always waits minGap between retries.
func (l *LimitedClient) waitDuration() time.Duration {
	if local, ok := l.bucket.(ratelimit.Local); ok {
		if wait := local.TimeUntilToken(); wait < l.minGap {
			return wait
		}
	}
	return l.minGap
}

// Check waits for a rate limiter token (after each denial it sleeps
// waitDuration, never longer than minGap, then retries) then delegates to
// Client.Check. It does not sleep when a token is available.
// Every 100 queries it logs cumulative stats.
func (l *LimitedClient) Check(ctx context.Context, domain string) (Result, error) {
	for {
		ok, err := l.bucket.TryAcquire(ctx)
		if err != nil {
			return conservativeResult(domain), err
		}
		if ok {
			break
		}

		timer := time.NewTimer(l.waitDuration())
		select {
		case <-ctx.Done():
			timer.Stop()
			return conservativeResult(domain), ctx.Err()
		case <-timer.C:
		}
	}

	result, err := l.client.Check(ctx, domain)

	n := l.queries.Add(1)
	if n%100 == 0 {
		l.logger.Info("das: query stats", "total_queries", n)
	}

	return result, err
}
