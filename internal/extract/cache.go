// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/pdiddy/invoice-recon/pkg/types"
)

// Cache stores serialized extraction results keyed by image content.
// Get reports found=false, with a nil error, for a missing key.
type Cache interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// RedisCache is a Cache backed by a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the server in cfg and verifies it answers.
func NewRedisCache(ctx context.Context, cfg types.CacheConfig) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.RedisAddr,
		Password:    cfg.RedisPassword,
		DB:          cfg.RedisDB,
		DialTimeout: 2 * time.Second,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", cfg.RedisAddr, err)
	}
	return &RedisCache{client: client}, nil
}

// Get retrieves a value from cache.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache key %s: %w", key, err)
	}
	return value, true, nil
}

// Set stores a value in cache with expiration.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("writing cache key %s: %w", key, err)
	}
	return nil
}

// Close releases the connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// CachedExtractor serves repeat extractions of the same image from a Cache.
// Cache errors are logged and otherwise ignored; they never fail an
// extraction.
type CachedExtractor struct {
	next      Extractor
	cache     Cache
	ttl       time.Duration
	namespace string
	logger    zerolog.Logger
}

// NewCachedExtractor wraps next. namespace separates results from different
// backends or models, e.g. "claude/claude-sonnet-4-5".
func NewCachedExtractor(next Extractor, cache Cache, ttl time.Duration, namespace string, logger zerolog.Logger) *CachedExtractor {
	return &CachedExtractor{next: next, cache: cache, ttl: ttl, namespace: namespace, logger: logger}
}

// Extract returns the cached invoice for image when present, otherwise
// delegates and caches a successful result.
func (c *CachedExtractor) Extract(ctx context.Context, image []byte) (*types.ExtractedInvoice, error) {
	key := c.key(image)

	cached, found, err := c.cache.Get(ctx, key)
	switch {
	case err != nil:
		c.logger.Warn().Err(err).Msg("extraction cache unavailable")
	case found:
		var inv types.ExtractedInvoice
		if err := json.Unmarshal(cached, &inv); err == nil {
			c.logger.Debug().Str("key", key).Msg("extraction cache hit")
			return &inv, nil
		}
		c.logger.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	}

	inv, err := c.next.Extract(ctx, image)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(inv)
	if err != nil {
		c.logger.Warn().Err(err).Msg("encoding extraction for cache")
		return inv, nil
	}
	if err := c.cache.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn().Err(err).Msg("extraction cache unavailable")
	}
	return inv, nil
}

// key is "invoice-recon:extract:<namespace>:<sha256 of image>".
func (c *CachedExtractor) key(image []byte) string {
	sum := sha256.Sum256(image)
	return fmt.Sprintf("invoice-recon:extract:%s:%s", c.namespace, hex.EncodeToString(sum[:]))
}
