package menu

import (
	"context"
	"time"
)

// Cache stores normalized menu payloads as opaque JSON. A nil payload from
// Get means a miss; tiers never serve an expired entry.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte, ttl time.Duration) error
	Invalidate(ctx context.Context, key string) error
	Close() error
}

// CacheStats reports hit and miss counters across cache tiers.
type CacheStats struct {
	L1Hits   int64 `json:"l1_hits"`
	L1Misses int64 `json:"l1_misses"`
	L2Hits   int64 `json:"l2_hits"`
	L2Misses int64 `json:"l2_misses"`
	L3Hits   int64 `json:"l3_hits"`
	L3Misses int64 `json:"l3_misses"`
}

// CacheKey builds the cache key for a tenant's menu. Menus differ per user
// because the upstream embeds the caller's identity, so the key includes a
// user discriminator; anonymous callers share one entry per tenant.
func CacheKey(tenantSlug, userKey string) string {
	if userKey == "" {
		userKey = "anonymous"
	}
	return "menu:" + tenantSlug + ":" + userKey
}
