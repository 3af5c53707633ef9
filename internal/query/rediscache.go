package query

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/relationgraph/core/internal/relerrors"
	"github.com/relationgraph/core/internal/vocab"
)

// FreshnessCache is an optional shared cache the facade consults ahead of a
// graph-store round trip to answer "is this identity's updated_at within
// the TTL". It never stores graph data itself, only the last-seen
// updated_at per (platform, identity), so it is safe to treat as
// disposable: a cache miss or a misconfigured Redis simply falls back to
// reading the store directly.
type FreshnessCache struct {
	client *redis.Client
}

// NewFreshnessCache connects to redisURL (a redis:// connection string).
func NewFreshnessCache(redisURL string) (*FreshnessCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, relerrors.Internal("parse redis url: %v", err)
	}
	return &FreshnessCache{client: redis.NewClient(opts)}, nil
}

func (c *FreshnessCache) Close() error {
	return c.client.Close()
}

func cacheKey(platform vocab.Platform, identity string) string {
	return "relationgraph:freshness:" + platform.String() + ":" + identity
}

// Get returns the cached updated_at for (platform, identity), if present
// and not itself expired by ttl. A miss (key absent, expired, or any Redis
// error) returns ok=false so callers fall through to the store.
func (c *FreshnessCache) Get(ctx context.Context, platform vocab.Platform, identity string, ttl time.Duration) (time.Time, bool) {
	val, err := c.client.Get(ctx, cacheKey(platform, identity)).Result()
	if err != nil {
		return time.Time{}, false
	}
	unixNano, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	updatedAt := time.Unix(0, unixNano)
	if time.Since(updatedAt) >= ttl {
		return time.Time{}, false
	}
	return updatedAt, true
}

// Set records updatedAt for (platform, identity), expiring the cache entry
// itself after ttl so a stale entry never outlives the freshness window it
// exists to short-circuit.
func (c *FreshnessCache) Set(ctx context.Context, platform vocab.Platform, identity string, updatedAt time.Time, ttl time.Duration) {
	_ = c.client.Set(ctx, cacheKey(platform, identity), strconv.FormatInt(updatedAt.UnixNano(), 10), ttl).Err()
}
