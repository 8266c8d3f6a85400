// Package respcache short-circuits the quote pipeline for repeated
// request bodies within a TTL window. It is a performance layer only:
// every failure degrades to a cache miss.
package respcache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
)

// Cache stores rendered response payloads in redis, keyed by a stable
// hash of the request body. A nil *Cache is valid and always misses.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger *otelzap.Logger
}

// New creates a response cache. Pass a nil client to disable caching.
func New(client *redis.Client, prefix string, ttl time.Duration, logger *otelzap.Logger) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &Cache{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		logger: logger,
	}
}

// Key derives the cache key from the raw request body.
func (c *Cache) Key(body []byte) string {
	sum := sha1.Sum(body)
	return c.prefix + "quote:" + hex.EncodeToString(sum[:])
}

// Get returns a previously stored payload, or false on miss or error.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}

	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		c.logger.Ctx(ctx).Warn("response cache get failed", zap.Error(err))
		return nil, false
	}
	return raw, true
}

// Set stores a payload under the key for the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, payload []byte) {
	if c == nil {
		return
	}

	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.Ctx(ctx).Warn("response cache set failed", zap.Error(err))
	}
}
