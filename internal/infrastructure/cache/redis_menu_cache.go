package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/kaely/console/internal/infrastructure/config"
)

// RedisMenuCache implements menu.Cache using Redis. It is the shared L2
// tier: entries survive process restarts and are visible to every instance.
type RedisMenuCache struct {
	client     *redis.Client
	ownsClient bool // true if we created the client and should close it
	logger     *zap.Logger
}

// redisEnvelope wraps the payload with its absolute expiry. The expiry is
// stored alongside the payload, not only as the Redis key TTL, so lower
// tiers can inherit the remaining lifetime on read-through.
type redisEnvelope struct {
	ExpiresAt time.Time       `json:"expires_at"`
	Payload   json.RawMessage `json:"payload"`
}

// RedisMenuCacheOption is a functional option for configuring the cache
type RedisMenuCacheOption func(*RedisMenuCache)

// WithRedisLogger sets the logger for the cache
func WithRedisLogger(logger *zap.Logger) RedisMenuCacheOption {
	return func(c *RedisMenuCache) {
		c.logger = logger
	}
}

// NewRedisMenuCache creates a new Redis-based menu cache
func NewRedisMenuCache(cfg config.RedisConfig, opts ...RedisMenuCacheOption) (*RedisMenuCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	cache := &RedisMenuCache{
		client:     client,
		ownsClient: true,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache, nil
}

// NewRedisMenuCacheWithClient creates a cache with an existing Redis client.
// The caller retains ownership of the client and is responsible for closing it.
func NewRedisMenuCacheWithClient(client *redis.Client, opts ...RedisMenuCacheOption) *RedisMenuCache {
	cache := &RedisMenuCache{
		client:     client,
		ownsClient: false,
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(cache)
	}

	return cache
}

// Get retrieves a menu payload from cache. A nil payload means a miss.
func (c *RedisMenuCache) Get(ctx context.Context, key string) ([]byte, error) {
	payload, _, err := c.GetWithExpiry(ctx, key)
	return payload, err
}

// GetWithExpiry retrieves a payload along with its absolute expiry
func (c *RedisMenuCache) GetWithExpiry(ctx context.Context, key string) ([]byte, time.Time, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		c.logger.Debug("L2 cache miss for menu", zap.String("key", key))
		return nil, time.Time{}, nil
	}
	if err != nil {
		c.logger.Error("Failed to get menu from cache",
			zap.String("key", key),
			zap.Error(err))
		return nil, time.Time{}, fmt.Errorf("failed to get menu from cache: %w", err)
	}

	var envelope redisEnvelope
	if err := json.Unmarshal(data, &envelope); err != nil {
		c.logger.Error("Failed to unmarshal cached menu",
			zap.String("key", key),
			zap.Error(err))
		// Delete corrupted cache entry
		_ = c.client.Del(ctx, key)
		return nil, time.Time{}, fmt.Errorf("failed to unmarshal cached menu: %w", err)
	}

	if time.Now().After(envelope.ExpiresAt) {
		_ = c.client.Del(ctx, key)
		return nil, time.Time{}, nil
	}

	c.logger.Debug("L2 cache hit for menu", zap.String("key", key))
	return envelope.Payload, envelope.ExpiresAt, nil
}

// Set stores a menu payload in cache
func (c *RedisMenuCache) Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error {
	if payload == nil {
		return nil
	}

	envelope := redisEnvelope{
		ExpiresAt: time.Now().Add(ttl),
		Payload:   payload,
	}
	data, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("failed to marshal cached menu: %w", err)
	}

	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		c.logger.Error("Failed to set menu in cache",
			zap.String("key", key),
			zap.Error(err))
		return fmt.Errorf("failed to set menu in cache: %w", err)
	}

	c.logger.Debug("Cached menu in L2",
		zap.String("key", key),
		zap.Duration("ttl", ttl))
	return nil
}

// Ping checks connectivity to Redis for health probing
func (c *RedisMenuCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Invalidate removes a menu payload from cache
func (c *RedisMenuCache) Invalidate(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete menu from cache: %w", err)
	}
	c.logger.Debug("Deleted menu from L2 cache", zap.String("key", key))
	return nil
}

// Close releases the Redis client if this cache owns it
func (c *RedisMenuCache) Close() error {
	if c.ownsClient {
		return c.client.Close()
	}
	return nil
}
