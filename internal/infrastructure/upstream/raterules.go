package upstream

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
)

// Room-rate-rule endpoints live under the upstream's PMS module.

// ListRateRules returns rate rules matching the query (pagination, filters)
func (c *Client) ListRateRules(ctx context.Context, token string, query url.Values) (json.RawMessage, error) {
	path := "/api/pms/room-rate-rules"
	if encoded := query.Encode(); encoded != "" {
		path += "?" + encoded
	}
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, path, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CreateRateRule creates a rate rule
func (c *Client) CreateRateRule(ctx context.Context, token string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPost, "/api/pms/room-rate-rules", token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// UpdateRateRule updates a rate rule
func (c *Client) UpdateRateRule(ctx context.Context, token, id string, payload json.RawMessage) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodPut, "/api/pms/room-rate-rules/"+url.PathEscape(id), token, payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// DeleteRateRule deletes a rate rule
func (c *Client) DeleteRateRule(ctx context.Context, token, id string) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/pms/room-rate-rules/"+url.PathEscape(id), token, nil, nil)
}

// ListRateRuleClasses returns the available rate rule classes
func (c *Client) ListRateRuleClasses(ctx context.Context, token string) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.doJSON(ctx, http.MethodGet, "/api/pms/room-rate-rules/classes", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ImportRateRules forwards a multipart bulk-import body untouched
func (c *Client) ImportRateRules(ctx context.Context, token, contentType string, body io.Reader) (json.RawMessage, error) {
	resp, err := c.doRaw(ctx, http.MethodPost, "/api/pms/room-rate-rules/import", token, contentType, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, newUpstreamStatusError(resp.StatusCode, data)
	}
	return data, nil
}

// ExportRateRules streams the export file. The caller owns the response
// body and must close it.
func (c *Client) ExportRateRules(ctx context.Context, token string) (*http.Response, error) {
	return c.doRaw(ctx, http.MethodGet, "/api/pms/room-rate-rules/export", token, "", nil)
}
