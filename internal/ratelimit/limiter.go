package ratelimit

import "context"

// Limiter is the contract rate-limited clients depend on instead of a
// concrete bucket type: it is satisfied both by Local (wrapping the
// in-process TokenBucket here) and by redisbucket.Bucket, so a client can
// be pointed at either backend purely through configuration.
type Limiter interface {
	TryAcquire(ctx context.Context) (bool, error)
}

// Local adapts a *TokenBucket to Limiter. The in-process bucket never
// blocks or errors, so TryAcquire ignores ctx and always returns a nil
// error.
type Local struct {
	*TokenBucket
}

// TryAcquire satisfies Limiter by delegating to the wrapped TokenBucket.
func (l Local) TryAcquire(ctx context.Context) (bool, error) {
	return l.TokenBucket.TryAcquire(), nil
}
