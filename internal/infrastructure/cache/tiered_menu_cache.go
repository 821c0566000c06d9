package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kaely/console/internal/domain/menu"
	"github.com/kaely/console/internal/domain/shared"
)

// DurableStore is the L3 tier: payloads keyed with an absolute expiry that
// survive both process restarts and Redis flushes. Implemented by the GORM
// menu cache repository.
type DurableStore interface {
	Get(ctx context.Context, key string) ([]byte, time.Time, error)
	Set(ctx context.Context, key string, payload []byte, expiresAt time.Time) error
	Delete(ctx context.Context, key string) error
}

// TieredMenuCache implements a three-tier caching strategy
// L1: Local in-memory cache (fast, but local to instance)
// L2: Redis cache (slower, but shared across instances)
// L3: Durable database store (survives full restarts)
// Reads fall through tier by tier and populate the faster tiers on the way
// back. Expiry is decided here, once, for all tiers: an entry past its
// expiry is purged from every tier it was found in and treated as a miss.
type TieredMenuCache struct {
	l1     *InMemoryMenuCache
	l2     *RedisMenuCache
	l3     DurableStore
	logger *zap.Logger

	// Stats for monitoring
	l1Hits   int64
	l1Misses int64
	l2Hits   int64
	l2Misses int64
	l3Hits   int64
	l3Misses int64
}

// TieredMenuCacheOption is a functional option for configuring the cache
type TieredMenuCacheOption func(*TieredMenuCache)

// WithTieredLogger sets the logger for the cache
func WithTieredLogger(logger *zap.Logger) TieredMenuCacheOption {
	return func(c *TieredMenuCache) {
		c.logger = logger
	}
}

// NewTieredMenuCache creates a new tiered menu cache. The L2 and L3 tiers
// are optional: a nil tier is skipped, so development setups can run on the
// in-memory tier alone.
func NewTieredMenuCache(
	l1 *InMemoryMenuCache,
	l2 *RedisMenuCache,
	l3 DurableStore,
	opts ...TieredMenuCacheOption,
) *TieredMenuCache {
	cache := &TieredMenuCache{
		l1:     l1,
		l2:     l2,
		l3:     l3,
		logger: zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get retrieves a menu payload from cache (L1 -> L2 -> L3). A nil payload
// means a miss in every tier.
func (c *TieredMenuCache) Get(ctx context.Context, key string) ([]byte, error) {
	// Try L1 first
	payload, expiresAt, err := c.l1.GetWithExpiry(ctx, key)
	if err != nil {
		c.logger.Warn("L1 cache error", zap.String("key", key), zap.Error(err))
	}
	if payload != nil {
		atomic.AddInt64(&c.l1Hits, 1)
		return payload, nil
	}
	atomic.AddInt64(&c.l1Misses, 1)

	// Try L2
	if c.l2 != nil {
		payload, expiresAt, err = c.l2.GetWithExpiry(ctx, key)
		if err != nil {
			c.logger.Warn("L2 cache error", zap.String("key", key), zap.Error(err))
		}
		if payload != nil {
			atomic.AddInt64(&c.l2Hits, 1)
			c.populateL1(ctx, key, payload, expiresAt)
			return payload, nil
		}
		atomic.AddInt64(&c.l2Misses, 1)
	}

	// Try L3
	if c.l3 != nil {
		payload, expiresAt, err = c.l3.Get(ctx, key)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			c.logger.Warn("L3 cache error", zap.String("key", key), zap.Error(err))
		}
		if payload != nil {
			if time.Now().After(expiresAt) {
				// Expired in the durable tier: purge everywhere and miss.
				c.purge(ctx, key)
				atomic.AddInt64(&c.l3Misses, 1)
				return nil, nil
			}
			atomic.AddInt64(&c.l3Hits, 1)
			c.populateL2(ctx, key, payload, expiresAt)
			c.populateL1(ctx, key, payload, expiresAt)
			return payload, nil
		}
		atomic.AddInt64(&c.l3Misses, 1)
	}

	return nil, nil
}

// Set stores a menu payload in all tiers with a single shared expiry
func (c *TieredMenuCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	expiresAt := time.Now().Add(ttl)

	if c.l3 != nil {
		if err := c.l3.Set(ctx, key, payload, expiresAt); err != nil {
			c.logger.Warn("Failed to set L3 cache", zap.String("key", key), zap.Error(err))
		}
	}
	if c.l2 != nil {
		if err := c.l2.Set(ctx, key, payload, ttl); err != nil {
			c.logger.Warn("Failed to set L2 cache", zap.String("key", key), zap.Error(err))
		}
	}
	return c.l1.Set(ctx, key, payload, ttl)
}

// Invalidate removes a menu payload from every tier
func (c *TieredMenuCache) Invalidate(ctx context.Context, key string) error {
	c.purge(ctx, key)
	return nil
}

// Close releases resources held by the owned tiers
func (c *TieredMenuCache) Close() error {
	var lastErr error

	if c.l2 != nil {
		if err := c.l2.Close(); err != nil {
			lastErr = err
		}
	}
	if err := c.l1.Close(); err != nil {
		lastErr = err
	}

	return lastErr
}

// GetCacheStats returns statistics about cache hits and misses per tier
func (c *TieredMenuCache) GetCacheStats() menu.CacheStats {
	return menu.CacheStats{
		L1Hits:   atomic.LoadInt64(&c.l1Hits),
		L1Misses: atomic.LoadInt64(&c.l1Misses),
		L2Hits:   atomic.LoadInt64(&c.l2Hits),
		L2Misses: atomic.LoadInt64(&c.l2Misses),
		L3Hits:   atomic.LoadInt64(&c.l3Hits),
		L3Misses: atomic.LoadInt64(&c.l3Misses),
	}
}

func (c *TieredMenuCache) populateL1(ctx context.Context, key string, payload []byte, expiresAt time.Time) {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if err := c.l1.Set(ctx, key, payload, ttl); err != nil {
		c.logger.Warn("Failed to populate L1 cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *TieredMenuCache) populateL2(ctx context.Context, key string, payload []byte, expiresAt time.Time) {
	if c.l2 == nil {
		return
	}
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return
	}
	if err := c.l2.Set(ctx, key, payload, ttl); err != nil {
		c.logger.Warn("Failed to populate L2 cache", zap.String("key", key), zap.Error(err))
	}
}

func (c *TieredMenuCache) purge(ctx context.Context, key string) {
	if err := c.l1.Invalidate(ctx, key); err != nil {
		c.logger.Warn("Failed to purge L1 cache", zap.String("key", key), zap.Error(err))
	}
	if c.l2 != nil {
		if err := c.l2.Invalidate(ctx, key); err != nil {
			c.logger.Warn("Failed to purge L2 cache", zap.String("key", key), zap.Error(err))
		}
	}
	if c.l3 != nil {
		if err := c.l3.Delete(ctx, key); err != nil {
			c.logger.Warn("Failed to purge L3 cache", zap.String("key", key), zap.Error(err))
		}
	}
}

// Ensure both caches implement menu.Cache
var _ menu.Cache = (*TieredMenuCache)(nil)
var _ menu.Cache = (*InMemoryMenuCache)(nil)
var _ menu.Cache = (*RedisMenuCache)(nil)
