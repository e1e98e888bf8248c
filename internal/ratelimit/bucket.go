// Package ratelimit implements the fractional-refill token bucket shared by
// the DAS and WHOIS clients.
package ratelimit

import (
	"sync"
	"time"
)

// TokenBucket enforces a maximum long-run query rate with bursts up to
// capacity. State is a floating-point token count plus the timestamp of the
// last refill; every call first replays elapsed time into tokens, then
// evaluates the request. All transitions are serialized under mu.
type TokenBucket struct {
	mu sync.Mutex

	capacity float64
	rate     float64 // tokens per second

	tokens     float64
	lastRefill time.Time

	now func() time.Time
}

// Option configures a TokenBucket at construction.
type Option func(*TokenBucket)

// withClock overrides the bucket's time source; used by tests.
func withClock(now func() time.Time) Option {
	return func(b *TokenBucket) { b.now = now }
}

// New builds a TokenBucket with the given capacity and refill period: rate
// is capacity/refillPeriod. The bucket starts full.
func New(capacity int, refillPeriod time.Duration, opts ...Option) *TokenBucket {
	b := &TokenBucket{
		capacity: float64(capacity),
		rate:     float64(capacity) / refillPeriod.Seconds(),
		tokens:   float64(capacity),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastRefill = b.now()
	return b
}

// NewFromRate builds a TokenBucket from a rate in tokens/second, with
// capacity defaulting to the rate rounded up (spec.md §4.3's alternate
// construction form).
func NewFromRate(ratePerSecond float64, opts ...Option) *TokenBucket {
	capacity := int(ratePerSecond)
	if float64(capacity) < ratePerSecond {
		capacity++
	}
	if capacity < 1 {
		capacity = 1
	}
	b := &TokenBucket{
		capacity: float64(capacity),
		rate:     ratePerSecond,
		tokens:   float64(capacity),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.lastRefill = b.now()
	return b
}

// refill adds tokens for elapsed time since lastRefill, capped at capacity.
// Caller must hold mu.
func (b *TokenBucket) refill() {
	now := b.now()
	elapsed := now.Sub(b.lastRefill).Seconds()
	if elapsed <= 0 {
		return
	}
	b.tokens += elapsed * b.rate
	if b.tokens > b.capacity {
		b.tokens = b.capacity
	}
	b.lastRefill = now
}

// TryAcquire attempts to remove one token, never blocking.
func (b *TokenBucket) TryAcquire() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		b.tokens--
		return true
	}
	return false
}

// TimeUntilToken returns the expected wait until at least one token is
// available, or 0 if one already is.
func (b *TokenBucket) TimeUntilToken() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill()
	if b.tokens >= 1 {
		return 0
	}
	deficit := 1 - b.tokens
	seconds := deficit / b.rate
	return time.Duration(seconds * float64(time.Second))
}
