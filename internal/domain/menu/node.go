// Package menu models the permission-scoped navigation tree served to the
// console sidebar, together with its normalization and filtering transforms.
package menu

import "encoding/json"

// Node is one entry in the navigation tree. A node exclusively owns its
// Children slice. Visibility of a node is evaluated independently of its
// parent: children inherit no permissions.
type Node struct {
	ID          string   `json:"id,omitempty"`
	Name        string   `json:"name"`
	Route       string   `json:"route,omitempty"`
	Href        string   `json:"href,omitempty"` // legacy field, superseded by Route
	Icon        string   `json:"icon,omitempty"`
	Order       int      `json:"order,omitempty"`
	Visible     *bool    `json:"is_visible,omitempty"`
	Permissions []string `json:"permissions,omitempty"`
	Children    []Node   `json:"children,omitempty"`
}

// IsVisible reports node visibility; unspecified defaults to visible.
func (n Node) IsVisible() bool {
	return n.Visible == nil || *n.Visible
}

// Clone returns a deep copy of the node and its subtree.
func (n Node) Clone() Node {
	out := n
	if n.Visible != nil {
		v := *n.Visible
		out.Visible = &v
	}
	if n.Permissions != nil {
		out.Permissions = append([]string(nil), n.Permissions...)
	}
	if n.Children != nil {
		out.Children = make([]Node, len(n.Children))
		for i, c := range n.Children {
			out.Children[i] = c.Clone()
		}
	}
	return out
}

// UnmarshalJSON accepts both string and numeric IDs, which the upstream menu
// endpoint emits interchangeably.
func (n *Node) UnmarshalJSON(data []byte) error {
	type alias Node
	aux := struct {
		ID json.RawMessage `json:"id,omitempty"`
		*alias
	}{alias: (*alias)(n)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if len(aux.ID) > 0 {
		var s string
		if err := json.Unmarshal(aux.ID, &s); err == nil {
			n.ID = s
		} else {
			var num json.Number
			if err := json.Unmarshal(aux.ID, &num); err != nil {
				return err
			}
			n.ID = num.String()
		}
	}
	return nil
}

// User is the identity payload embedded in the menu endpoint response. The
// upstream may refine roles and permissions here after login.
type User struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Response is the upstream menu endpoint payload.
type Response struct {
	Data []Node `json:"data"`
	User *User  `json:"user,omitempty"`
}
