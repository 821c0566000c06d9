package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appmenu "github.com/kaely/console/internal/application/menu"
	appsession "github.com/kaely/console/internal/application/session"
	"github.com/kaely/console/internal/domain/menu"
	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/infrastructure/cache"
)

type fixedStats struct {
	stats menu.CacheStats
}

func (s fixedStats) GetCacheStats() menu.CacheStats { return s.stats }

func menuUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/menu", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"data": [
				{"id": 1, "title": "Dashboard", "route": "/", "icon": "home", "visible": true, "order": 1}
			],
			"user": {"id": 7, "name": "Ana", "roles": ["admin"], "permissions": ["rates.view"]}
		}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func newMenuRouter(t *testing.T, upstreamURL string, sess *session.Session, stats StatsProvider) *gin.Engine {
	t.Helper()
	clients := newClientSet(t, upstreamURL)
	sessions := appsession.NewService(newMemRepo(), clients, zap.NewNop())
	store := cache.NewInMemoryMenuCache()
	t.Cleanup(func() { _ = store.Close() })
	engine := appmenu.NewEngine(store, clients, sessions)
	h := NewMenuHandler(engine, stats)

	router := gin.New()
	router.Use(withSession(sess))
	router.GET("/menu", h.GetMenu)
	router.GET("/menu/debug", h.GetMenuDebug)
	router.POST("/menu/invalidate", h.InvalidateMenu)
	return router
}

func TestMenuHandler_AuthenticatedFetch(t *testing.T) {
	srv := menuUpstream(t)
	router := newMenuRouter(t, srv.URL, authenticatedSession(), nil)

	w := doJSON(t, router, http.MethodGet, "/menu", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fetch", data["source"])
	items, ok := data["items"].([]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, items)
}

func TestMenuHandler_AnonymousGetsDefault(t *testing.T) {
	srv := menuUpstream(t)
	router := newMenuRouter(t, srv.URL, freshSession(), nil)

	w := doJSON(t, router, http.MethodGet, "/menu", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "default", data["source"])
}

func TestMenuHandler_DebugIncludesStats(t *testing.T) {
	srv := menuUpstream(t)
	stats := fixedStats{stats: menu.CacheStats{L1Hits: 3, L2Misses: 1}}
	router := newMenuRouter(t, srv.URL, authenticatedSession(), stats)

	w := doJSON(t, router, http.MethodGet, "/menu/debug", nil)

	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	cacheStats, ok := data["cache_stats"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, float64(3), cacheStats["l1_hits"])
}

func TestMenuHandler_Invalidate(t *testing.T) {
	srv := menuUpstream(t)
	sess := authenticatedSession()
	router := newMenuRouter(t, srv.URL, sess, nil)

	w := doJSON(t, router, http.MethodGet, "/menu", nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/menu/invalidate", nil)
	require.Equal(t, http.StatusOK, w.Code)

	// Next read refetches rather than serving the dropped entry.
	w = doJSON(t, router, http.MethodGet, "/menu", nil)
	resp := decodeResponse(t, w)
	data, ok := resp.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "fetch", data["source"])
}
