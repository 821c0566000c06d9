package menu

// DefaultTree returns the hardcoded fallback navigation used when no menu
// could be fetched and no cached copy exists.
func DefaultTree() []Node {
	visible := true
	return []Node{
		{ID: "dashboard", Name: "Dashboard", Route: "/dashboard", Href: "/dashboard", Icon: "home", Order: 1, Visible: &visible},
		{ID: "users", Name: "Users", Route: "/dashboard/users", Href: "/dashboard/users", Icon: "users", Order: 2, Visible: &visible},
		{ID: "roles", Name: "Roles", Route: "/dashboard/roles", Href: "/dashboard/roles", Icon: "roles", Order: 3, Visible: &visible},
		{ID: "permissions", Name: "Permissions", Route: "/dashboard/permissions", Href: "/dashboard/permissions", Icon: "permissions", Order: 4, Visible: &visible},
	}
}
