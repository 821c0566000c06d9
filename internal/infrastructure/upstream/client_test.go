package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaely/console/internal/domain/shared"
	"github.com/kaely/console/internal/domain/tenant"
)

func testClient(t *testing.T, handler http.HandlerFunc, opts ...ClientOption) (*Client, *httptest.Server) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	cfg := tenant.Config{Slug: "ixtapa", APIBaseURL: server.URL}
	return NewClient(cfg, 10*time.Second, opts...), server
}

func TestClient_Login(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"message": "Welcome back",
			"data": {
				"user": {"id": 7, "name": "Ana", "email": "ana@example.com", "is_active": true},
				"token": "tok123",
				"token_type": "Bearer"
			}
		}`))
	})

	result, err := client.Login(context.Background(), "ana@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "tok123", result.Token)
	assert.Equal(t, "Welcome back", result.Message)
	require.NotNil(t, result.User)
	assert.Equal(t, "7", result.User.ID)
	assert.Equal(t, "Ana", result.User.Name)
}

func TestClient_BearerInjection(t *testing.T) {
	var gotAuth string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"id":"1","name":"Ana","email":"a@b.c","roles":[],"permissions":[]}`))
	})

	_, err := client.Me(context.Background(), "tok123")

	require.NoError(t, err)
	assert.Equal(t, "Bearer tok123", gotAuth)
}

func TestClient_MissingTokenStillSends(t *testing.T) {
	var sawRequest bool
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		sawRequest = true
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`[]`))
	})

	_, err := client.ListPermissions(context.Background(), "")

	require.NoError(t, err)
	assert.True(t, sawRequest)
}

func TestClient_UnauthorizedHookFiresOnce(t *testing.T) {
	var hookCalls int
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	}, WithUnauthorizedHook(func(ctx context.Context) {
		hookCalls++
	}))

	_, err := client.Me(context.Background(), "stale")

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UNAUTHORIZED", domainErr.Code)
	assert.Equal(t, "Token expired", domainErr.Message)
	assert.Equal(t, 1, hookCalls)
}

func TestClient_UpstreamErrorSurfacesMessage(t *testing.T) {
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"message":"Rate rule dates overlap"}`))
	})

	_, err := client.CreateRateRule(context.Background(), "tok", []byte(`{}`))

	require.Error(t, err)
	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, "UPSTREAM_ERROR", domainErr.Code)
	assert.Equal(t, "Rate rule dates overlap", domainErr.Message)
}

func TestClient_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(server.Close)

	cfg := tenant.Config{Slug: "ixtapa", APIBaseURL: server.URL}
	client := NewClient(cfg, 20*time.Millisecond)

	_, err := client.Me(context.Background(), "tok")

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrUpstream)
}

func TestClient_ListRateRulesQuery(t *testing.T) {
	var gotQuery string
	client, _ := testClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Write([]byte(`{"data":[]}`))
	})

	query := url.Values{}
	query.Set("page", "2")
	query.Set("class", "seasonal")

	_, err := client.ListRateRules(context.Background(), "tok", query)

	require.NoError(t, err)
	assert.Equal(t, "class=seasonal&page=2", gotQuery)
}

func TestClientSet_For(t *testing.T) {
	registry := tenant.DefaultRegistry()
	set := NewClientSet(registry, 10*time.Second)

	assert.Equal(t, "manzanillo", set.For("manzanillo").TenantSlug())
	// Unknown slugs fall back to the default tenant's client
	assert.Equal(t, "ixtapa", set.For("nope").TenantSlug())
}
