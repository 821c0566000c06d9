package menu

// FilterByPermissions prunes the tree to nodes the user's permission set
// satisfies. It is a pure function: the input tree is not mutated and no
// node is ever invented.
//
// A node is retained when any of the following holds:
//
//   - it declares no required permissions
//   - the user is absent (visibility for unauthenticated viewers is the
//     auth guard's concern, not the menu's)
//   - the user's permission set is empty (same permissive default)
//   - the user holds at least one of the required permissions (OR semantics)
//
// Children are filtered independently and recursively. A parent whose
// children were all pruned is kept: the menu is navigation convenience,
// not a security boundary.
func FilterByPermissions(nodes []Node, user *User) []Node {
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !hasPermission(n, user) {
			continue
		}
		m := n.Clone()
		m.Children = FilterByPermissions(n.Children, user)
		out = append(out, m)
	}
	return out
}

func hasPermission(n Node, user *User) bool {
	if len(n.Permissions) == 0 {
		return true
	}
	if user == nil || len(user.Permissions) == 0 {
		return true
	}
	held := make(map[string]struct{}, len(user.Permissions))
	for _, p := range user.Permissions {
		held[p] = struct{}{}
	}
	for _, required := range n.Permissions {
		if _, ok := held[required]; ok {
			return true
		}
	}
	return false
}
