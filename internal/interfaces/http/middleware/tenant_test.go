package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaely/console/internal/domain/tenant"
	"github.com/kaely/console/internal/infrastructure/logger"
)

func testRegistry() *tenant.Registry {
	return tenant.NewRegistry([]tenant.Config{
		{Slug: "ixtapa", Name: "Ixtapa"},
		{Slug: "manzanillo", Name: "Manzanillo"},
		{Slug: "huatulco", Name: "Huatulco", DirectDomains: []string{"huatulco.com"}},
	}, "ixtapa")
}

// capture records what the wrapped handler observed
type capture struct {
	path     string
	resolved tenant.Resolved
	hasInfo  bool
	slugInCtx string
}

func newRewriter(reg *tenant.Registry) (*TenantRewriter, *capture) {
	cap := &capture{}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cap.path = r.URL.Path
		cap.resolved, cap.hasInfo = TenantFromContext(r.Context())
		cap.slugInCtx = logger.GetTenantSlug(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	return NewTenantRewriter(reg, next, zap.NewNop()), cap
}

func TestTenantRewriter_PathSegmentResolution(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	req := httptest.NewRequest("GET", "http://console.example.com/manzanillo/dashboard", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	// already prefixed, no double rewrite
	assert.Equal(t, "/manzanillo/dashboard", cap.path)
	require.True(t, cap.hasInfo)
	assert.Equal(t, "manzanillo", cap.resolved.Slug)
	assert.False(t, cap.resolved.DirectDomain)
	assert.Equal(t, "manzanillo", cap.slugInCtx)
}

func TestTenantRewriter_DefaultTenantPrefixing(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	req := httptest.NewRequest("GET", "http://console.example.com/dashboard", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	assert.Equal(t, "/ixtapa/dashboard", cap.path)
	assert.Equal(t, "ixtapa", cap.resolved.Slug)
}

func TestTenantRewriter_SubdomainResolution(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	req := httptest.NewRequest("GET", "http://manzanillo.example.com/dashboard", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	assert.Equal(t, "/manzanillo/dashboard", cap.path)
	assert.Equal(t, "manzanillo", cap.resolved.Slug)
}

func TestTenantRewriter_DirectDomain(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	req := httptest.NewRequest("GET", "http://huatulco.com/dashboard", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	assert.Equal(t, "/huatulco/dashboard", cap.path)
	assert.Equal(t, "huatulco", cap.resolved.Slug)
	assert.True(t, cap.resolved.DirectDomain)
}

func TestTenantRewriter_LocalhostUsesPathThenDefault(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	req := httptest.NewRequest("GET", "http://localhost:3000/huatulco/login", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	assert.Equal(t, "/huatulco/login", cap.path)
	assert.Equal(t, "huatulco", cap.resolved.Slug)

	req = httptest.NewRequest("GET", "http://localhost:3000/login", nil)
	w = httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	assert.Equal(t, "/ixtapa/login", cap.path)
	assert.Equal(t, "ixtapa", cap.resolved.Slug)
}

func TestTenantRewriter_RewriteIsIdempotent(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	// A second pass over an already rewritten path must not stack prefixes.
	req := httptest.NewRequest("GET", "http://console.example.com/ixtapa/api/auth/menu", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)
	require.Equal(t, "/ixtapa/api/auth/menu", cap.path)

	req = httptest.NewRequest("GET", "http://console.example.com"+cap.path, nil)
	w = httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)
	assert.Equal(t, "/ixtapa/api/auth/menu", cap.path)
}

func TestTenantRewriter_BarePrefixNotDoubled(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	req := httptest.NewRequest("GET", "http://console.example.com/manzanillo", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	assert.Equal(t, "/manzanillo", cap.path)
}

func TestTenantRewriter_RootPath(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	req := httptest.NewRequest("GET", "http://console.example.com/", nil)
	w := httptest.NewRecorder()
	rewriter.ServeHTTP(w, req)

	assert.Equal(t, "/ixtapa/", cap.path)
}

func TestTenantRewriter_SkipsInfrastructurePaths(t *testing.T) {
	rewriter, cap := newRewriter(testRegistry())

	for _, path := range []string{"/health", "/metrics", "/static/app.css", "/favicon.ico"} {
		req := httptest.NewRequest("GET", "http://console.example.com"+path, nil)
		w := httptest.NewRecorder()
		rewriter.ServeHTTP(w, req)

		assert.Equal(t, path, cap.path)
		assert.False(t, cap.hasInfo, "skipped path %s should carry no tenant info", path)
	}
}

func TestTenantFromContext_Missing(t *testing.T) {
	req := httptest.NewRequest("GET", "http://example.com/", nil)
	_, ok := TenantFromContext(req.Context())
	assert.False(t, ok)
}
