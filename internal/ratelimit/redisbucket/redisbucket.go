// Package redisbucket implements a distributed variant of the token bucket
// for deployments where multiple analyzer processes must share one
// registry-enforced rate ceiling. Bucket satisfies internal/ratelimit's
// Limiter interface, so dasclient/whoisclient's LimitedClient can be
// pointed at either the in-process bucket or this one interchangeably.
package redisbucket

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ltdomains/domain-analyzer/internal/ratelimit"
)

var _ ratelimit.Limiter = (*Bucket)(nil)

// refillScript atomically refills and attempts to take one token. KEYS[1] is
// the bucket's hash key holding "tokens" and "last_refill_ns". ARGV:
// capacity, rate (tokens/sec), now_ns.
const refillScript = `
local key = KEYS[1]
local capacity = tonumber(ARGV[1])
local rate = tonumber(ARGV[2])
local now_ns = tonumber(ARGV[3])

local tokens = tonumber(redis.call("HGET", key, "tokens"))
local last_ns = tonumber(redis.call("HGET", key, "last_refill_ns"))

if tokens == nil then
  tokens = capacity
  last_ns = now_ns
end

local elapsed_sec = (now_ns - last_ns) / 1e9
if elapsed_sec > 0 then
  tokens = math.min(capacity, tokens + elapsed_sec * rate)
end

local granted = 0
if tokens >= 1 then
  tokens = tokens - 1
  granted = 1
end

redis.call("HSET", key, "tokens", tokens, "last_refill_ns", now_ns)
redis.call("EXPIRE", key, 3600)

return {granted, tostring(tokens)}
`

// Bucket is a Redis-backed token bucket. One Bucket instance per rate-limit
// key may be shared by many analyzer processes; the HSET/refill logic runs
// atomically inside Redis via the refillScript.
type Bucket struct {
	client   *redis.Client
	key      string
	capacity int
	rate     float64
	script   *redis.Script
}

// New builds a Bucket backed by client, identified by key, with the given
// capacity and refill period.
func New(client *redis.Client, key string, capacity int, refillPeriod time.Duration) *Bucket {
	return &Bucket{
		client:   client,
		key:      key,
		capacity: capacity,
		rate:     float64(capacity) / refillPeriod.Seconds(),
		script:   redis.NewScript(refillScript),
	}
}

// TryAcquire attempts to remove one token, never blocking locally (it does
// make one network round-trip to Redis).
func (b *Bucket) TryAcquire(ctx context.Context) (bool, error) {
	res, err := b.script.Run(ctx, b.client, []string{b.key},
		b.capacity, b.rate, time.Now().UnixNano()).Result()
	if err != nil {
		return false, fmt.Errorf("redisbucket: try acquire: %w", err)
	}

	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return false, fmt.Errorf("redisbucket: unexpected script result %v", res)
	}
	granted, _ := vals[0].(int64)
	return granted == 1, nil
}
