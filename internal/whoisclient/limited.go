package whoisclient

import (
	"context"
	"time"

	"github.com/ltdomains/domain-analyzer/internal/ratelimit"
)

// Outcome wraps a Lookup result with the degrade-to-rate_limited signal the
// orchestrator needs: when the bucket is empty, WHOIS is skipped entirely
// rather than blocking, and the caller proceeds with whatever DAS already
// produced.
type Outcome struct {
	Record      Record
	RateLimited bool
}

// LimitedClient wraps a Client in a rate limiter sized for the registry's
// documented 100 queries / 30 minutes. The limiter defaults to an
// in-process bucket but can be pointed at a shared
// internal/ratelimit/redisbucket.Bucket via WithLimiter for multi-process
// deployments.
type LimitedClient struct {
	client *Client
	bucket ratelimit.Limiter
}

// LimitedOption configures a LimitedClient at construction.
type LimitedOption func(*LimitedClient)

// WithLimiter overrides the default in-process bucket with any other
// ratelimit.Limiter, e.g. a redisbucket.Bucket shared across processes.
func WithLimiter(limiter ratelimit.Limiter) LimitedOption {
	return func(l *LimitedClient) { l.bucket = limiter }
}

// NewLimited wraps client with the registry's documented cap: capacity 100,
// refill period 30 minutes (rate ~= 1 token per 18s).
func NewLimited(client *Client, opts ...LimitedOption) *LimitedClient {
	l := &LimitedClient{
		client: client,
		bucket: ratelimit.Local{TokenBucket: ratelimit.New(100, 30*time.Minute)},
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Lookup returns a rate_limited Outcome (never an error) when the bucket is
// empty; otherwise it delegates to Client.Lookup.
func (l *LimitedClient) Lookup(ctx context.Context, domain string) (Outcome, error) {
	ok, err := l.bucket.TryAcquire(ctx)
	if err != nil {
		return Outcome{}, err
	}
	if !ok {
		return Outcome{RateLimited: true}, nil
	}

	record, err := l.client.Lookup(ctx, domain)
	return Outcome{Record: record}, err
}
