package dto

// TenantInfoResponse represents the branding payload the console shell reads
// to theme itself per property
type TenantInfoResponse struct {
	Slug       string `json:"slug"`
	Name       string `json:"name"`
	ThemeColor string `json:"theme_color"`
	IsDefault  bool   `json:"is_default"`
}

// MenuResponse represents the served navigation tree with its provenance
type MenuResponse struct {
	Items  interface{} `json:"items"`
	Source string      `json:"source"`
}

// MenuDebugResponse adds cache tier counters to the menu payload for the
// diagnostics endpoint
type MenuDebugResponse struct {
	MenuResponse
	CacheStats interface{} `json:"cache_stats,omitempty"`
}
