package cache

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Constants for in-memory cache configuration
const (
	defaultCleanupInterval = 30 * time.Second
)

// InMemoryMenuCache implements menu.Cache using in-memory storage.
// This is designed to be used as the L1 tier in front of Redis.
type InMemoryMenuCache struct {
	entries sync.Map // map[string]*cacheEntry
	logger  *zap.Logger
	stopCh  chan struct{}
	stopped int32

	// Stats for monitoring
	hits   int64
	misses int64
}

// cacheEntry wraps a cached payload with expiration time
type cacheEntry struct {
	payload   []byte
	expiresAt time.Time
}

// isExpired checks if the cache entry has expired
func (e *cacheEntry) isExpired() bool {
	return time.Now().After(e.expiresAt)
}

// InMemoryMenuCacheOption is a functional option for configuring the cache
type InMemoryMenuCacheOption func(*InMemoryMenuCache)

// WithInMemoryLogger sets the logger for the cache
func WithInMemoryLogger(logger *zap.Logger) InMemoryMenuCacheOption {
	return func(c *InMemoryMenuCache) {
		c.logger = logger
	}
}

// NewInMemoryMenuCache creates a new in-memory menu cache
func NewInMemoryMenuCache(opts ...InMemoryMenuCacheOption) *InMemoryMenuCache {
	cache := &InMemoryMenuCache{
		logger: zap.NewNop(),
		stopCh: make(chan struct{}),
	}

	for _, opt := range opts {
		opt(cache)
	}

	go cache.cleanupExpired()

	return cache
}

// Get retrieves a menu payload from cache. A nil payload means a miss.
func (c *InMemoryMenuCache) Get(ctx context.Context, key string) ([]byte, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			c.logger.Debug("L1 cache hit for menu", zap.String("key", key))
			return entry.payload, nil
		}
		// Expired, remove from cache
		c.entries.Delete(key)
	}

	atomic.AddInt64(&c.misses, 1)
	c.logger.Debug("L1 cache miss for menu", zap.String("key", key))
	return nil, nil
}

// GetWithExpiry retrieves a payload along with its absolute expiry so an
// outer tier can propagate the remaining lifetime.
func (c *InMemoryMenuCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, error) {
	if value, ok := c.entries.Load(key); ok {
		entry := value.(*cacheEntry)
		if !entry.isExpired() {
			atomic.AddInt64(&c.hits, 1)
			return entry.payload, entry.expiresAt, nil
		}
		c.entries.Delete(key)
	}
	atomic.AddInt64(&c.misses, 1)
	return nil, time.Time{}, nil
}

// Set stores a menu payload in cache
func (c *InMemoryMenuCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if payload == nil {
		return nil
	}

	entry := &cacheEntry{
		payload:   payload,
		expiresAt: time.Now().Add(ttl),
	}

	c.entries.Store(key, entry)
	c.logger.Debug("Cached menu in L1",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Invalidate removes a menu payload from cache
func (c *InMemoryMenuCache) Invalidate(ctx context.Context, key string) error {
	c.entries.Delete(key)
	c.logger.Debug("Deleted menu from L1 cache", zap.String("key", key))
	return nil
}

// Close releases any resources held by the cache
func (c *InMemoryMenuCache) Close() error {
	// Only close once
	if atomic.CompareAndSwapInt32(&c.stopped, 0, 1) {
		close(c.stopCh)
	}
	return nil
}

// GetStats returns cache statistics
func (c *InMemoryMenuCache) GetStats() (hits, misses int64) {
	return atomic.LoadInt64(&c.hits), atomic.LoadInt64(&c.misses)
}

// Count returns the number of entries in the cache
func (c *InMemoryMenuCache) Count() (count int) {
	c.entries.Range(func(_, _ any) bool {
		count++
		return true
	})
	return count
}

// cleanupExpired periodically removes expired entries from the cache
func (c *InMemoryMenuCache) cleanupExpired() {
	ticker := time.NewTicker(defaultCleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C:
			func() {
				defer func() {
					if r := recover(); r != nil {
						c.logger.Error("Panic in cache cleanup",
							zap.Any("panic", r))
					}
				}()
				c.doCleanup()
			}()
		}
	}
}

// doCleanup removes expired entries
func (c *InMemoryMenuCache) doCleanup() {
	var removed int

	c.entries.Range(func(key, value any) bool {
		entry := value.(*cacheEntry)
		if entry.isExpired() {
			c.entries.Delete(key)
			removed++
		}
		return true
	})

	if removed > 0 {
		c.logger.Debug("Cleaned up expired L1 cache entries",
			zap.Int("removed", removed))
	}
}
