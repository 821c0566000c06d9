package upstream

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
)

// Access-control resources are proxied as opaque JSON: the console adds the
// tenant routing and the bearer token, the upstream owns the schemas.

// ListModules returns the module tree, optionally scoped to one parent
func (c *Client) ListModules(ctx context.Context, token, parentID string) (json.RawMessage, error) {
	path := "/api/auth/modules"
	if parentID != "" {
		path += "?parent_id=" + url.QueryEscape(parentID)
	}
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateModule creates a module
func (c *Client) CreateModule(ctx context.Context, token string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/modules", token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateModule updates a module
func (c *Client) UpdateModule(ctx context.Context, token, id string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/modules/"+url.PathEscape(id), token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteModule deletes a module
func (c *Client) DeleteModule(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/auth/modules/"+url.PathEscape(id), token, nil, nil)
}

// GetModulePermissions returns the permissions assigned to a module
func (c *Client) GetModulePermissions(ctx context.Context, token, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/modules/"+url.PathEscape(id)+"/permissions", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateModulePermissions replaces the permissions assigned to a module
func (c *Client) UpdateModulePermissions(ctx context.Context, token, id string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/modules/"+url.PathEscape(id)+"/permissions", token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRoles returns all roles
func (c *Client) ListRoles(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/roles", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRole creates a role
func (c *Client) CreateRole(ctx context.Context, token string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/roles", token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRole updates a role
func (c *Client) UpdateRole(ctx context.Context, token, id string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPut, "/api/auth/roles/"+url.PathEscape(id), token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRole deletes a role
func (c *Client) DeleteRole(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/auth/roles/"+url.PathEscape(id), token, nil, nil)
}

// GetRolePermissions returns the permissions granted to a role
func (c *Client) GetRolePermissions(ctx context.Context, token, id string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/roles/"+url.PathEscape(id)+"/permissions", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRolePermissions replaces the permissions granted to a role
func (c *Client) UpdateRolePermissions(ctx context.Context, token, id string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/roles/"+url.PathEscape(id)+"/permissions", token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListRoleCategories returns the role grouping catalog shown in the role
// create and edit dialogs
func (c *Client) ListRoleCategories(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/roles/categories", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPermissions returns the permission catalog
func (c *Client) ListPermissions(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/permissions", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
