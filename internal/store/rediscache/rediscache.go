// Package rediscache caches recent DAS/WHOIS lookups per domain for the
// duration of one scan batch, so a scan target looked up again within the
// entry's TTL (e.g. listed twice in the same run) does not re-query the
// registry.
package rediscache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var cacheLookupDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "domain_analyzer_cache_lookup_duration_ms",
	Help:    "Latency of cache reads in milliseconds",
	Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
})

const (
	dasKeyPrefix   = "cache:das:"
	whoisKeyPrefix = "cache:whois:"
)

// Cache wraps a redis client with typed get/put helpers for DAS and WHOIS
// results, keyed by normalized domain name.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the default per-entry expiry.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// New builds a Cache backed by client. Entries expire after 30 minutes by
// default, long enough to span one scan batch without outliving it.
func New(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{client: client, ttl: 30 * time.Minute}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// GetDAS returns a cached DAS result for domain, if present.
func (c *Cache) GetDAS(ctx context.Context, domain string, dest any) (bool, error) {
	return c.get(ctx, dasKeyPrefix+domain, dest)
}

// PutDAS caches a DAS result for domain.
func (c *Cache) PutDAS(ctx context.Context, domain string, value any) error {
	return c.put(ctx, dasKeyPrefix+domain, value)
}

// GetWHOIS returns a cached WHOIS record for domain, if present.
func (c *Cache) GetWHOIS(ctx context.Context, domain string, dest any) (bool, error) {
	return c.get(ctx, whoisKeyPrefix+domain, dest)
}

// PutWHOIS caches a WHOIS record for domain.
func (c *Cache) PutWHOIS(ctx context.Context, domain string, value any) error {
	return c.put(ctx, whoisKeyPrefix+domain, value)
}

func (c *Cache) get(ctx context.Context, key string, dest any) (bool, error) {
	start := time.Now()
	defer func() {
		cacheLookupDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) put(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, raw, c.ttl).Err()
}
