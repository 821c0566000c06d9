package upstream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kaely/console/internal/domain/shared"
	"github.com/kaely/console/internal/domain/tenant"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// UnauthorizedHook is invoked when the upstream answers 401. It fires at
// most once per response; the request is never retried.
type UnauthorizedHook func(ctx context.Context)

// Client talks to one tenant's upstream API. The base URL is fixed at
// construction; callers pass the bearer token per request because tokens
// belong to sessions, not tenants.
type Client struct {
	tenantSlug     string
	baseURL        string
	httpClient     *http.Client
	logger         *zap.Logger
	onUnauthorized UnauthorizedHook
}

// ClientOption is a functional option for configuring the client
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// WithLogger sets the logger for the client
func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUnauthorizedHook registers the hook invoked on upstream 401 responses
func WithUnauthorizedHook(hook UnauthorizedHook) ClientOption {
	return func(c *Client) {
		c.onUnauthorized = hook
	}
}

// NewClient creates a client bound to one tenant's API base URL
func NewClient(cfg tenant.Config, timeout time.Duration, opts ...ClientOption) *Client {
	client := &Client{
		tenantSlug: cfg.Slug,
		baseURL:    cfg.APIBaseURL,
		httpClient: &http.Client{Timeout: timeout},
		logger:     zap.NewNop(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// TenantSlug returns the slug of the tenant this client serves
func (c *Client) TenantSlug() string {
	return c.tenantSlug
}

// BaseURL returns the upstream base URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// apiError is the upstream's error body shape
type apiError struct {
	Message string `json:"message"`
}

// doJSON performs a JSON round-trip against the upstream. An empty token
// sends no Authorization header; the request itself still goes out. A 401
// fires the unauthorized hook and surfaces as a domain error.
func (c *Client) doJSON(ctx context.Context, method, path, token string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("upstream: failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("upstream: failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("Upstream request failed",
			zap.String("tenant", c.tenantSlug),
			zap.String("method", method),
			zap.String("path", path),
			zap.Error(err))
		return fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("upstream: failed to read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return shared.NewDomainError("UNAUTHORIZED", errorMessage(data, "Authentication required"))
	}

	if resp.StatusCode >= 400 {
		c.logger.Warn("Upstream error response",
			zap.String("tenant", c.tenantSlug),
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return shared.NewDomainError("UPSTREAM_ERROR",
			errorMessage(data, fmt.Sprintf("Upstream returned HTTP %d", resp.StatusCode)))
	}

	if out != nil && len(data) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("upstream: failed to unmarshal response: %w", err)
		}
	}
	return nil
}

// doRaw forwards a request as-is and hands the response back to the caller,
// who owns the body. Used for multipart import and export streaming.
func (c *Client) doRaw(ctx context.Context, method, path, token, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("upstream: failed to create request: %w", err)
	}

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrUpstream, err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		if c.onUnauthorized != nil {
			c.onUnauthorized(ctx)
		}
		return nil, shared.NewDomainError("UNAUTHORIZED", "Authentication required")
	}

	return resp, nil
}

// newUpstreamStatusError converts a non-401 error response into a domain error
func newUpstreamStatusError(status int, data []byte) error {
	return shared.NewDomainError("UPSTREAM_ERROR",
		errorMessage(data, fmt.Sprintf("Upstream returned HTTP %d", status)))
}

// errorMessage extracts the upstream's message field, falling back when the
// body carries none
func errorMessage(data []byte, fallback string) string {
	var apiErr apiError
	if err := json.Unmarshal(data, &apiErr); err == nil && apiErr.Message != "" {
		return apiErr.Message
	}
	return fallback
}

// ClientSet holds one client per registered tenant, built once at startup.
type ClientSet struct {
	clients     map[string]*Client
	defaultSlug string
}

// NewClientSet builds a client for every tenant in the registry
func NewClientSet(registry *tenant.Registry, timeout time.Duration, opts ...ClientOption) *ClientSet {
	set := &ClientSet{
		clients:     make(map[string]*Client),
		defaultSlug: registry.DefaultSlug(),
	}
	for _, slug := range registry.Slugs() {
		cfg, _ := registry.Get(slug)
		set.clients[slug] = NewClient(cfg, timeout, opts...)
	}
	return set
}

// For returns the client for a tenant slug, falling back to the default
// tenant's client for unknown slugs so callers never receive nil.
func (s *ClientSet) For(slug string) *Client {
	if client, ok := s.clients[slug]; ok {
		return client
	}
	return s.clients[s.defaultSlug]
}
