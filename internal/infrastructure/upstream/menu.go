package upstream

import (
	"context"
	"net/http"

	"github.com/kaely/console/internal/domain/menu"
)

// FetchMenu retrieves the raw navigation tree for the token's user. The
// response embeds the caller's identity with roles and permissions, which
// the session service merges back into the session.
func (c *Client) FetchMenu(ctx context.Context, token string) (*menu.Response, error) {
	var response menu.Response
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/menu", token, nil, &response); err != nil {
		return nil, err
	}
	return &response, nil
}
