package router

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	appmenu "github.com/kaely/console/internal/application/menu"
	appsession "github.com/kaely/console/internal/application/session"
	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/domain/shared"
	"github.com/kaely/console/internal/domain/tenant"
	"github.com/kaely/console/internal/infrastructure/cache"
	"github.com/kaely/console/internal/infrastructure/upstream"
	"github.com/kaely/console/internal/interfaces/http/handler"
	"github.com/kaely/console/internal/interfaces/http/middleware"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
	os.Exit(m.Run())
}

type memRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Session
}

func newMemRepo() *memRepo {
	return &memRepo{sessions: make(map[uuid.UUID]*session.Session)}
}

func (r *memRepo) FindByID(_ context.Context, id uuid.UUID) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return sess.Snapshot(), nil
}

func (r *memRepo) Save(_ context.Context, sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess.Snapshot()
	return nil
}

func (r *memRepo) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id)
	return nil
}

func (r *memRepo) DeleteStale(_ context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

// newGateway wires the full stack the way main does: handlers, router and
// the tenant rewriter in front.
func newGateway(t *testing.T, upstreamURL string) http.Handler {
	t.Helper()

	registry := tenant.NewRegistry([]tenant.Config{
		{Slug: "ixtapa", Name: "Ixtapa", APIBaseURL: upstreamURL, PrimaryColor: "#3B82F6"},
		{Slug: "manzanillo", Name: "Manzanillo", APIBaseURL: upstreamURL, PrimaryColor: "#10B981"},
	}, "ixtapa")

	clients := upstream.NewClientSet(registry, 5*time.Second)
	sessions := appsession.NewService(newMemRepo(), clients, zap.NewNop())
	store := cache.NewInMemoryMenuCache()
	t.Cleanup(func() { _ = store.Close() })
	engine := appmenu.NewEngine(store, clients, sessions)

	handlers := Handlers{
		Auth:       handler.NewAuthHandler(sessions, engine, zap.NewNop()),
		Menu:       handler.NewMenuHandler(engine, nil),
		Tenant:     handler.NewTenantHandler(registry),
		Module:     handler.NewModuleHandler(clients),
		Role:       handler.NewRoleHandler(clients),
		Permission: handler.NewPermissionHandler(clients),
		RateRule:   handler.NewRateRuleHandler(clients, zap.NewNop()),
		Health:     handler.NewHealthHandler(nil, nil, "test"),
	}

	g := New(Config{}, handlers, sessions)
	return middleware.NewTenantRewriter(registry, g, zap.NewNop())
}

func serve(gateway http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	gateway.ServeHTTP(w, req)
	return w
}

func TestGateway_UnprefixedPathGetsDefaultTenant(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/tenant", nil)
	w := serve(gateway, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Slug      string `json:"slug"`
			IsDefault bool   `json:"is_default"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "ixtapa", resp.Data.Slug)
	assert.True(t, resp.Data.IsDefault)
}

func TestGateway_SubdomainSelectsTenant(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://manzanillo.console.example.com/api/tenant", nil)
	w := serve(gateway, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Slug string `json:"slug"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "manzanillo", resp.Data.Slug)
}

func TestGateway_MintsSessionCookie(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/auth/session", nil)
	w := serve(gateway, req)

	require.Equal(t, http.StatusOK, w.Code)
	var sessionCookie *http.Cookie
	for _, c := range w.Result().Cookies() {
		if c.Name == middleware.SessionCookieName {
			sessionCookie = c
		}
	}
	require.NotNil(t, sessionCookie)
	_, err := uuid.Parse(sessionCookie.Value)
	assert.NoError(t, err)

	var resp struct {
		Data struct {
			State string `json:"state"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, string(session.StateUnauthenticated), resp.Data.State)
}

func TestGateway_DashboardRedirectsAnonymousBrowser(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/manzanillo/dashboard/roles", nil)
	req.Header.Set("Accept", "text/html")
	w := serve(gateway, req)

	require.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/manzanillo/login", w.Header().Get("Location"))
}

func TestGateway_AdminAPIWithoutSessionIsJSON401(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/auth/roles", nil)
	req.Header.Set("Accept", "application/json")
	w := serve(gateway, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
}

func TestGateway_AnonymousMenuServesDefault(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/api/auth/menu", nil)
	w := serve(gateway, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Data struct {
			Source string        `json:"source"`
			Items  []interface{} `json:"items"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "default", resp.Data.Source)
	assert.NotEmpty(t, resp.Data.Items)
}

func TestGateway_HealthBypassesTenantTree(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/health", nil)
	w := serve(gateway, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status"`)
	// No session cookie on infrastructure endpoints.
	assert.Empty(t, w.Result().Cookies())
}

func TestGateway_LoginPageIsOpen(t *testing.T) {
	gateway := newGateway(t, "http://127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "http://localhost/ixtapa/login", nil)
	req.Header.Set("Accept", "text/html")
	w := serve(gateway, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
}

func TestGateway_LoginFlow(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"success": true,
			"message": "Welcome",
			"data": {
				"user": {"id": 7, "name": "Ana", "email": "ana@example.com", "is_active": true},
				"token": "token-7",
				"token_type": "Bearer"
			}
		}`))
	})
	mux.HandleFunc("/api/auth/roles", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer token-7" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"data":[{"id":"r1","name":"Admin"}]}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	gateway := newGateway(t, srv.URL)

	// Log in and capture the session cookie.
	loginReq := httptest.NewRequest(http.MethodPost, "http://localhost/api/auth/login",
		strings.NewReader(`{"email":"ana@example.com","password":"hunter22"}`))
	loginReq.Header.Set("Content-Type", "application/json")
	loginW := serve(gateway, loginReq)
	require.Equal(t, http.StatusOK, loginW.Code, loginW.Body.String())

	cookies := loginW.Result().Cookies()
	require.NotEmpty(t, cookies)

	// The authenticated session now opens the admin API.
	rolesReq := httptest.NewRequest(http.MethodGet, "http://localhost/api/auth/roles", nil)
	rolesReq.Header.Set("Accept", "application/json")
	for _, c := range cookies {
		rolesReq.AddCookie(c)
	}
	rolesW := serve(gateway, rolesReq)
	require.Equal(t, http.StatusOK, rolesW.Code, rolesW.Body.String())
	assert.Contains(t, rolesW.Body.String(), "Admin")
}

