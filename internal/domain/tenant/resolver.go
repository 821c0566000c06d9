package tenant

import "strings"

// Resolved is the outcome of tenant resolution for one request.
// DirectDomain is true only when the tenant owns the request hostname
// outright, in which case URLs must not expose the tenant path segment.
type Resolved struct {
	Slug         string
	DirectDomain bool
}

// Resolve determines the active tenant for a request, in strict precedence
// order:
//
//  1. hostname (port ignored) exactly matches a registered direct domain
//  2. the hostname's first label matches a registered slug (skipped for
//     localhost and 127.0.0.1, whose first label is meaningless)
//  3. the first non-empty path segment matches a registered slug
//  4. the default tenant
//
// The first matching rule wins; resolution is total and never errors.
func (r *Registry) Resolve(hostname, path string) Resolved {
	if c, ok := r.directDomainOwner(hostname); ok {
		return Resolved{Slug: c.Slug, DirectDomain: true}
	}

	host := stripPort(hostname)
	if !isLoopbackHost(host) {
		if label, _, _ := strings.Cut(host, "."); r.Has(label) {
			// Subdomain match. DirectDomain stays false: purely
			// subdomain-based tenants keep the path prefix.
			return Resolved{Slug: label}
		}
	}

	if seg := firstPathSegment(path); seg != "" && r.Has(seg) {
		return Resolved{Slug: seg}
	}

	return Resolved{Slug: r.defaultSlug}
}

// isLoopbackHost reports whether host is a local development host whose
// first label must never be treated as a tenant slug.
func isLoopbackHost(host string) bool {
	return host == "localhost" || host == "127.0.0.1"
}

func firstPathSegment(path string) string {
	for _, seg := range strings.Split(path, "/") {
		if seg != "" {
			return seg
		}
	}
	return ""
}
