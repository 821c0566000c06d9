package upstream

import (
	"context"
	"net/http"
	"strconv"

	"github.com/kaely/console/internal/domain/session"
)

// loginEnvelope is the upstream's response shape for login, register and
// refresh. The embedded user omits roles and permissions; those arrive later
// via the menu endpoint.
type loginEnvelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    struct {
		User struct {
			ID       int64  `json:"id"`
			Name     string `json:"name"`
			Email    string `json:"email"`
			IsActive bool   `json:"is_active"`
		} `json:"user"`
		Token     string `json:"token"`
		TokenType string `json:"token_type"`
	} `json:"data"`
}

// AuthResult is the outcome of a credential exchange with the upstream
type AuthResult struct {
	User    *session.User
	Token   string
	Message string
}

// RegisterRequest carries a new-account registration payload
type RegisterRequest struct {
	Name            string `json:"name"`
	Email           string `json:"email"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (e *loginEnvelope) toResult() *AuthResult {
	return &AuthResult{
		User: &session.User{
			ID:    strconv.FormatInt(e.Data.User.ID, 10),
			Name:  e.Data.User.Name,
			Email: e.Data.User.Email,
			// Roles and permissions are refined from the menu payload
			Roles:       []string{"admin"},
			Permissions: []string{},
		},
		Token:   e.Data.Token,
		Message: e.Message,
	}
}

// Login exchanges credentials for a token
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	body := map[string]string{"email": email, "password": password}

	var envelope loginEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", body, &envelope); err != nil {
		return nil, err
	}
	return envelope.toResult(), nil
}

// Register creates an account and returns its first token
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	var envelope loginEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/register", "", req, &envelope); err != nil {
		return nil, err
	}
	return envelope.toResult(), nil
}

// Logout tells the upstream to drop the token. Best effort: callers treat
// failures as non-fatal.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

// Refresh rotates the token
func (c *Client) Refresh(ctx context.Context, token string) (*AuthResult, error) {
	var envelope loginEnvelope
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/refresh", token, nil, &envelope); err != nil {
		return nil, err
	}
	return envelope.toResult(), nil
}

// Me fetches the authenticated user's profile
func (c *Client) Me(ctx context.Context, token string) (*session.User, error) {
	var user session.User
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/me", token, nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}
