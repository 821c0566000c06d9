package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kaely/console/internal/domain/tenant"
	"github.com/kaely/console/internal/infrastructure/logger"
)

type resolvedKey struct{}

// TenantFromContext retrieves the resolution outcome stashed by the rewriter
func TenantFromContext(ctx context.Context) (tenant.Resolved, bool) {
	resolved, ok := ctx.Value(resolvedKey{}).(tenant.Resolved)
	return resolved, ok
}

// rewriteSkipPrefixes are paths served outside the tenant tree. They are
// never prefixed and resolution is not attempted for them.
var rewriteSkipPrefixes = []string{
	"/health",
	"/metrics",
	"/static/",
	"/assets/",
	"/favicon.ico",
}

// TenantRewriter resolves the active tenant for every request and rewrites
// the path to the canonical /{slug}/... form before the router sees it. The
// rewrite is internal only: the URL the browser shows never changes. It wraps
// the engine as a plain http.Handler because the rewrite must happen before
// gin matches routes.
type TenantRewriter struct {
	registry *tenant.Registry
	next     http.Handler
	logger   *zap.Logger
}

// NewTenantRewriter creates the rewrite wrapper around the router
func NewTenantRewriter(registry *tenant.Registry, next http.Handler, log *zap.Logger) *TenantRewriter {
	if log == nil {
		log = zap.NewNop()
	}
	return &TenantRewriter{
		registry: registry,
		next:     next,
		logger:   log,
	}
}

func (t *TenantRewriter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path

	for _, prefix := range rewriteSkipPrefixes {
		if strings.HasPrefix(path, prefix) {
			t.next.ServeHTTP(w, r)
			return
		}
	}

	resolved := t.registry.Resolve(r.Host, path)

	// Idempotent: a path already carrying the resolved slug is not
	// prefixed again.
	prefix := "/" + resolved.Slug
	if path != prefix && !strings.HasPrefix(path, prefix+"/") {
		r.URL.Path = prefix + path
		if r.URL.RawPath != "" {
			r.URL.RawPath = prefix + r.URL.RawPath
		}
	}

	ctx := context.WithValue(r.Context(), resolvedKey{}, resolved)
	ctx, _ = logger.WithTenant(ctx, t.logger, resolved.Slug)

	t.next.ServeHTTP(w, r.WithContext(ctx))
}
