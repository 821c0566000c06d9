package menu

import (
	"sort"
	"strings"
)

// DashboardRoot is the path prefix all internal menu routes are scoped to.
const DashboardRoot = "/dashboard"

// Normalize transforms a raw upstream tree into its canonical form:
//
//   - each node's route is resolved preferring Route over the legacy Href
//     over a "#" placeholder; absolute routes outside the dashboard are
//     prefixed with DashboardRoot, relative ones become dashboard children
//   - icon tokens are translated to the internal vocabulary (home fallback)
//   - visibility defaults to true; invisible nodes are dropped
//   - siblings are stable-sorted by Order (missing ordinal sorts as 0)
//
// Children are normalized before their parent level is filtered and sorted.
// The input is not mutated.
func Normalize(nodes []Node) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		m := n.Clone()
		m.Route = normalizeRoute(pickRoute(n))
		m.Href = m.Route
		m.Icon = TranslateIcon(n.Icon)
		visible := n.IsVisible()
		m.Visible = &visible
		m.Children = Normalize(n.Children)
		if !visible {
			continue
		}
		out = append(out, m)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Order < out[j].Order
	})
	return out
}

// pickRoute selects the raw route, preferring the explicit route field over
// the legacy href over a placeholder.
func pickRoute(n Node) string {
	if n.Route != "" {
		return n.Route
	}
	if n.Href != "" {
		return n.Href
	}
	return "#"
}

// normalizeRoute rewrites a raw route to an absolute dashboard-scoped path.
// Placeholders and external URLs are kept as-is.
func normalizeRoute(route string) string {
	switch {
	case route == "#", strings.HasPrefix(route, "http"):
		return route
	case strings.HasPrefix(route, "/"):
		if route == "/" || route == DashboardRoot || strings.HasPrefix(route, DashboardRoot+"/") {
			return route
		}
		return DashboardRoot + route
	default:
		return DashboardRoot + "/" + route
	}
}
