// Package tenant holds the static tenant registry and the request-time
// tenant resolution rules for the multi-property console.
package tenant

import "strings"

// Config describes one hotel property sharing the console codebase.
// Configs are defined at startup and never mutated afterwards.
type Config struct {
	Slug          string   `json:"slug" mapstructure:"slug"`
	Name          string   `json:"name" mapstructure:"name"`
	APIBaseURL    string   `json:"api_base_url" mapstructure:"api_base_url"`
	DirectDomains []string `json:"direct_domains" mapstructure:"direct_domains"`
	PrimaryColor  string   `json:"primary_color" mapstructure:"primary_color"`
	Features      []string `json:"features" mapstructure:"features"`
}

// HasFeature reports whether the property has the named feature enabled.
func (c Config) HasFeature(name string) bool {
	for _, f := range c.Features {
		if f == name {
			return true
		}
	}
	return false
}

// Registry is an immutable slug-keyed lookup over the configured tenants.
type Registry struct {
	configs     map[string]Config
	order       []string
	defaultSlug string
}

// NewRegistry builds a registry from the given configs. The default slug must
// name one of the configs; unknown lookups resolve to it.
func NewRegistry(configs []Config, defaultSlug string) *Registry {
	r := &Registry{
		configs:     make(map[string]Config, len(configs)),
		defaultSlug: defaultSlug,
	}
	for _, c := range configs {
		if _, exists := r.configs[c.Slug]; exists {
			continue
		}
		r.configs[c.Slug] = c
		r.order = append(r.order, c.Slug)
	}
	if _, ok := r.configs[defaultSlug]; !ok && len(r.order) > 0 {
		r.defaultSlug = r.order[0]
	}
	return r
}

// DefaultRegistry returns the built-in registry for the three Kaely Suite
// properties. Deployments can override it from configuration.
func DefaultRegistry() *Registry {
	return NewRegistry(DefaultConfigs(), "ixtapa")
}

// DefaultConfigs returns the built-in property definitions.
func DefaultConfigs() []Config {
	return []Config{
		{
			Slug:         "ixtapa",
			Name:         "Kaely Suite Hotel Ixtapa",
			APIBaseURL:   "https://apiixtapa.kaelytechnology.com",
			PrimaryColor: "#3B82F6",
			Features:     []string{"users", "roles", "permissions", "bookings"},
		},
		{
			Slug:         "manzanillo",
			Name:         "Kaely Suite Hotel Manzanillo",
			APIBaseURL:   "https://apimazanillo.kaelytechnology.com", // upstream host really is spelled with a single 'n'
			PrimaryColor: "#10B981",
			Features:     []string{"users", "roles", "permissions", "bookings", "analytics"},
		},
		{
			Slug:          "huatulco",
			Name:          "Kaely Suite Hotel Huatulco",
			APIBaseURL:    "https://apihuatulco.kaelytechnology.com",
			DirectDomains: []string{"huatulco.com"},
			PrimaryColor:  "#F59E0B",
			Features:      []string{"users", "roles", "permissions", "bookings", "reports"},
		},
	}
}

// Get returns the config for slug and whether it is registered.
func (r *Registry) Get(slug string) (Config, bool) {
	c, ok := r.configs[slug]
	return c, ok
}

// GetOrDefault returns the config for slug, falling back to the default
// tenant when the slug is unknown. Unknown tenants are never an error.
func (r *Registry) GetOrDefault(slug string) Config {
	if c, ok := r.configs[slug]; ok {
		return c
	}
	return r.configs[r.defaultSlug]
}

// Has reports whether slug names a registered tenant.
func (r *Registry) Has(slug string) bool {
	_, ok := r.configs[slug]
	return ok
}

// DefaultSlug returns the fallback tenant slug.
func (r *Registry) DefaultSlug() string {
	return r.defaultSlug
}

// Slugs returns all registered slugs in registration order.
func (r *Registry) Slugs() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// directDomainOwner returns the tenant owning host as a direct domain.
// The comparison ignores an optional port suffix.
func (r *Registry) directDomainOwner(host string) (Config, bool) {
	host = stripPort(host)
	for _, slug := range r.order {
		c := r.configs[slug]
		for _, d := range c.DirectDomains {
			if strings.EqualFold(host, stripPort(d)) {
				return c, true
			}
		}
	}
	return Config{}, false
}

func stripPort(host string) string {
	if idx := strings.IndexByte(host, ':'); idx != -1 {
		return host[:idx]
	}
	return host
}
