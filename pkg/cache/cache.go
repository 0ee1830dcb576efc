package cache

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "dealdesk"
	defaultTTL = 5 * time.Minute
)

// ListCache caches list query results in Redis, keyed by the full set of
// filter/sort parameters. A stale in-flight fill for one parameter set can
// never overwrite the entry for another, because the parameters are part of
// the key. A nil Redis client disables the cache; every operation becomes a
// no-op miss, so callers never branch on whether caching is on.
type ListCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewListCache creates a list cache over the given Redis client (nil to
// disable caching).
func NewListCache(client *redis.Client, logger *zap.Logger) *ListCache {
	return &ListCache{client: client, ttl: defaultTTL, logger: logger}
}

// Key builds a cache key from a collection identifier and the full ordered
// set of query parameters.
func Key(collection string, params ...string) string {
	parts := append([]string{keyPrefix, collection}, params...)
	return strings.Join(parts, ":")
}

// Get loads a cached value into dest. Returns false on miss, disabled cache,
// or any Redis/decode failure; cache errors are logged, never surfaced.
func (c *ListCache) Get(ctx context.Context, key string, dest any) bool {
	if c.client == nil {
		return false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}

	if err := json.Unmarshal(raw, dest); err != nil {
		c.logger.Warn("Cache entry corrupt, discarding", zap.String("key", key), zap.Error(err))
		_ = c.client.Del(ctx, key).Err()
		return false
	}
	return true
}

// Set stores a value under key. Failures are logged and ignored; the cache
// is best-effort.
func (c *ListCache) Set(ctx context.Context, key string, value any) {
	if c.client == nil {
		return
	}

	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("Cache encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateMutation drops every cached parameter combination for each
// collection the given mutation kind names in the invalidation table.
func (c *ListCache) InvalidateMutation(ctx context.Context, mutation string) {
	c.InvalidateCollections(ctx, CollectionsFor(mutation)...)
}

// InvalidateCollections drops all keys under the given collections.
func (c *ListCache) InvalidateCollections(ctx context.Context, collections ...string) {
	if c.client == nil {
		return
	}

	for _, collection := range collections {
		pattern := Key(collection) + "*"
		iter := c.client.Scan(ctx, 0, pattern, 0).Iterator()
		for iter.Next(ctx) {
			if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
				c.logger.Warn("Cache invalidation failed", zap.String("key", iter.Val()), zap.Error(err))
			}
		}
		if err := iter.Err(); err != nil {
			c.logger.Warn("Cache scan failed", zap.String("pattern", pattern), zap.Error(err))
		}
	}
}
