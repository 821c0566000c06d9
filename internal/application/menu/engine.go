// Package menu assembles the navigation tree served to the console: upstream
// fetch with bounded retry, tiered caching, permission filtering and the
// hardcoded fallback that keeps the sidebar alive when everything else fails.
package menu

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kaely/console/internal/domain/menu"
	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/infrastructure/upstream"
)

// Source names where a served menu came from
type Source string

const (
	SourceFetch   Source = "fetch"
	SourceCache   Source = "cache"
	SourceDefault Source = "default"
)

// Result is a served menu with its provenance
type Result struct {
	Items  []menu.Node `json:"items"`
	Source Source      `json:"source"`
}

// SessionMerger receives the user payload embedded in menu responses.
// Implemented by the session service.
type SessionMerger interface {
	MergeFromMenu(ctx context.Context, sess *session.Session, menuUser *menu.User)
}

// Engine serves menus. A valid cached tree is returned synchronously while a
// background refresh runs; fetch failures fall back to cache, then to the
// default menu. GetMenu never fails.
type Engine struct {
	cache    menu.Cache
	clients  *upstream.ClientSet
	sessions SessionMerger
	logger   *zap.Logger

	ttl        time.Duration
	retries    int
	retryWait  time.Duration
	refreshing sync.Map // map[string]struct{}, in-flight background refreshes
}

// EngineOption is a functional option for configuring the engine
type EngineOption func(*Engine)

// WithTTL sets the cache lifetime for fetched menus
func WithTTL(ttl time.Duration) EngineOption {
	return func(e *Engine) {
		e.ttl = ttl
	}
}

// WithRetries sets the fetch attempt count and the fixed delay between attempts
func WithRetries(attempts int, wait time.Duration) EngineOption {
	return func(e *Engine) {
		e.retries = attempts
		e.retryWait = wait
	}
}

// WithLogger sets the logger for the engine
func WithLogger(logger *zap.Logger) EngineOption {
	return func(e *Engine) {
		e.logger = logger
	}
}

// NewEngine creates a menu engine
func NewEngine(cache menu.Cache, clients *upstream.ClientSet, sessions SessionMerger, opts ...EngineOption) *Engine {
	engine := &Engine{
		cache:     cache,
		clients:   clients,
		sessions:  sessions,
		logger:    zap.NewNop(),
		ttl:       30 * time.Minute,
		retries:   2,
		retryWait: time.Second,
	}

	for _, opt := range opts {
		opt(engine)
	}

	return engine
}

// GetMenu returns the navigation tree for a session. Order of preference:
// cached tree (with background refresh), fresh fetch, default menu. The
// permission filter runs at serve time so a shared cache entry still renders
// per-user.
func (e *Engine) GetMenu(ctx context.Context, sess *session.Session) *Result {
	// All reads below run on a detached copy: the canonical session keeps
	// changing under background refreshes and sibling requests.
	snap := sess.Snapshot()
	key := e.cacheKey(snap)

	if items, ok := e.fromCache(ctx, key); ok {
		if snap.Token != "" {
			e.refreshInBackground(key, sess)
		}
		return e.serve(items, snap, SourceCache)
	}

	if snap.Token == "" {
		return e.serve(menu.DefaultTree(), snap, SourceDefault)
	}

	items, err := e.fetchAndStore(ctx, key, sess)
	if err != nil {
		// A concurrent refresh may have filled the cache while the fetch
		// was failing, so the tiers get one more look before the fallback.
		if items, ok := e.fromCache(ctx, key); ok {
			return e.serve(items, snap, SourceCache)
		}
		e.logger.Warn("Menu fetch failed, serving default menu",
			zap.String("tenant", snap.TenantSlug),
			zap.Error(err))
		return e.serve(menu.DefaultTree(), snap, SourceDefault)
	}
	// Refetch the snapshot: the fetch merged the embedded user payload into
	// the session, and the filter should see the refined permissions.
	return e.serve(items, sess.Snapshot(), SourceFetch)
}

// Invalidate drops the cached menu for a session, forcing the next GetMenu
// to refetch. Used on login and logout, when the visible tree changes.
func (e *Engine) Invalidate(ctx context.Context, sess *session.Session) {
	if err := e.cache.Invalidate(ctx, e.cacheKey(sess.Snapshot())); err != nil {
		e.logger.Warn("Failed to invalidate menu cache",
			zap.String("tenant", sess.TenantSlug),
			zap.Error(err))
	}
}

// cacheKey and serve take session snapshots, never the shared struct.
func (e *Engine) cacheKey(snap *session.Session) string {
	userKey := ""
	if snap.User != nil {
		userKey = snap.User.ID
	}
	return menu.CacheKey(snap.TenantSlug, userKey)
}

func (e *Engine) serve(items []menu.Node, snap *session.Session, source Source) *Result {
	var user *menu.User
	if snap != nil && snap.User != nil {
		user = &menu.User{
			Name:        snap.User.Name,
			Email:       snap.User.Email,
			Roles:       snap.User.Roles,
			Permissions: snap.User.Permissions,
		}
	}
	return &Result{
		Items:  menu.FilterByPermissions(items, user),
		Source: source,
	}
}

func (e *Engine) fromCache(ctx context.Context, key string) ([]menu.Node, bool) {
	payload, err := e.cache.Get(ctx, key)
	if err != nil {
		e.logger.Warn("Menu cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if payload == nil {
		return nil, false
	}

	var items []menu.Node
	if err := json.Unmarshal(payload, &items); err != nil {
		e.logger.Warn("Corrupt menu cache entry, discarding",
			zap.String("key", key),
			zap.Error(err))
		_ = e.cache.Invalidate(ctx, key)
		return nil, false
	}
	return items, true
}

// fetchAndStore fetches the raw menu with bounded retry, merges the embedded
// user into the session, normalizes the tree and writes it to the cache
// tiers. Cache write failures are logged, never surfaced.
func (e *Engine) fetchAndStore(ctx context.Context, key string, sess *session.Session) ([]menu.Node, error) {
	response, err := e.fetchWithRetry(ctx, sess.Snapshot())
	if err != nil {
		return nil, err
	}

	e.sessions.MergeFromMenu(ctx, sess, response.User)

	items := menu.Normalize(response.Data)

	payload, err := json.Marshal(items)
	if err != nil {
		e.logger.Warn("Failed to marshal menu for caching", zap.Error(err))
		return items, nil
	}
	if err := e.cache.Set(ctx, key, payload, e.ttl); err != nil {
		e.logger.Warn("Failed to write menu cache",
			zap.String("key", key),
			zap.Error(err))
	}

	return items, nil
}

func (e *Engine) fetchWithRetry(ctx context.Context, snap *session.Session) (*menu.Response, error) {
	client := e.clients.For(snap.TenantSlug)

	var lastErr error
	for attempt := 1; attempt <= e.retries; attempt++ {
		response, err := client.FetchMenu(ctx, snap.Token)
		if err == nil {
			return response, nil
		}
		lastErr = err

		e.logger.Debug("Menu fetch attempt failed",
			zap.String("tenant", snap.TenantSlug),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if attempt < e.retries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(e.retryWait):
			}
		}
	}
	return nil, lastErr
}

// refreshInBackground refetches a cached menu so the cache converges on the
// upstream without blocking the caller. One refresh per key at a time;
// last writer wins on the cache.
func (e *Engine) refreshInBackground(key string, sess *session.Session) {
	if _, loaded := e.refreshing.LoadOrStore(key, struct{}{}); loaded {
		return
	}

	go func() {
		defer e.refreshing.Delete(key)

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if _, err := e.fetchAndStore(ctx, key, sess); err != nil {
			e.logger.Debug("Background menu refresh failed",
				zap.String("key", key),
				zap.Error(err))
		}
	}()
}
