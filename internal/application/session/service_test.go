package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaely/console/internal/domain/menu"
	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/domain/shared"
	"github.com/kaely/console/internal/domain/tenant"
	"github.com/kaely/console/internal/infrastructure/upstream"
)

// fakeRepo is an in-memory session.Repository
type fakeRepo struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*session.Session
	saves    int
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{sessions: map[uuid.UUID]*session.Session{}}
}

func (r *fakeRepo) FindByID(ctx context.Context, id uuid.UUID) (*session.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if !ok {
		return nil, shared.ErrSessionNotFound
	}
	return sess.Snapshot(), nil
}

func (r *fakeRepo) Save(ctx context.Context, sess *session.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sess.ID] = sess.Snapshot()
	r.saves++
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return shared.ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

func (r *fakeRepo) DeleteStale(ctx context.Context, cutoff time.Time) (int64, error) {
	return 0, nil
}

func newTestService(t *testing.T, handler http.HandlerFunc) (*Service, *fakeRepo) {
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	registry := tenant.NewRegistry([]tenant.Config{
		{Slug: "ixtapa", Name: "Ixtapa", APIBaseURL: server.URL},
	}, "ixtapa")
	clients := upstream.NewClientSet(registry, 5*time.Second)

	repo := newFakeRepo()
	return NewService(repo, clients, zap.NewNop()), repo
}

func signedTestToken(t *testing.T, expires time.Time) string {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "7",
		"exp": expires.Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func loginHandler(t *testing.T, token string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/auth/login", "/api/auth/register", "/api/auth/refresh":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{
				"success": true,
				"message": "Welcome",
				"data": {
					"user": {"id": 7, "name": "Ana", "email": "ana@example.com", "is_active": true},
					"token": "` + token + `",
					"token_type": "Bearer"
				}
			}`))
		case "/api/auth/logout":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func TestService_GetOrCreate(t *testing.T) {
	svc, repo := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()
	id := uuid.New()

	// Unknown ID yields a fresh uninitialized session
	sess, err := svc.GetOrCreate(ctx, id, "ixtapa")
	require.NoError(t, err)
	assert.Equal(t, session.StateUninitialized, sess.State())
	assert.Equal(t, "ixtapa", sess.TenantSlug)

	// A persisted session is rehydrated, token included
	persisted := &session.Session{
		ID:            uuid.New(),
		TenantSlug:    "ixtapa",
		Token:         "tok123",
		Authenticated: true,
		Initialized:   true,
	}
	require.NoError(t, repo.Save(ctx, persisted))

	sess, err = svc.GetOrCreate(ctx, persisted.ID, "ixtapa")
	require.NoError(t, err)
	assert.Equal(t, "tok123", sess.Token)
	assert.Equal(t, session.StateAuthenticated, sess.State())
}

func TestService_InitializeIsIdempotent(t *testing.T) {
	svc, repo := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	sess, err := svc.GetOrCreate(ctx, uuid.New(), "ixtapa")
	require.NoError(t, err)

	require.NoError(t, svc.Initialize(ctx, sess))
	assert.True(t, sess.Initialized)
	assert.Equal(t, session.StateUnauthenticated, sess.State())
	savesAfterFirst := repo.saves

	// Second call does nothing
	require.NoError(t, svc.Initialize(ctx, sess))
	assert.Equal(t, savesAfterFirst, repo.saves)
}

func TestService_InitializeRehydratesToken(t *testing.T) {
	svc, repo := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	persisted := &session.Session{
		ID:         uuid.New(),
		TenantSlug: "ixtapa",
		Token:      "tok123",
	}
	require.NoError(t, repo.Save(ctx, persisted))

	sess, err := svc.GetOrCreate(ctx, persisted.ID, "ixtapa")
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(ctx, sess))

	// No network call happened; the persisted token authenticates the session
	assert.Equal(t, session.StateAuthenticated, sess.State())
}

func TestService_Login(t *testing.T) {
	expires := time.Now().Add(time.Hour).Truncate(time.Second)
	token := signedTestToken(t, expires)
	svc, repo := newTestService(t, loginHandler(t, token))
	ctx := context.Background()

	sess, err := svc.GetOrCreate(ctx, uuid.New(), "ixtapa")
	require.NoError(t, err)

	message, err := svc.Login(ctx, sess, "ana@example.com", "secret")

	require.NoError(t, err)
	assert.Equal(t, "Welcome", message)
	assert.Equal(t, session.StateAuthenticated, sess.State())
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, expires.Unix(), sess.TokenExpires.Unix())
	require.NotNil(t, sess.User)
	assert.Equal(t, "7", sess.User.ID)

	// Session was persisted
	stored, err := repo.FindByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, token, stored.Token)
}

func TestService_LoginFailureSurfacesServerMessage(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid email or password"}`))
	})
	ctx := context.Background()

	sess, err := svc.GetOrCreate(ctx, uuid.New(), "ixtapa")
	require.NoError(t, err)

	_, err = svc.Login(ctx, sess, "ana@example.com", "wrong")

	require.Error(t, err)
	assert.Equal(t, "Invalid email or password", err.Error())
	assert.NotEqual(t, session.StateAuthenticated, sess.State())
}

func TestService_Logout(t *testing.T) {
	var upstreamLogout sync.WaitGroup
	upstreamLogout.Add(1)
	var once sync.Once

	svc, repo := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/auth/logout" {
			assert.Equal(t, "Bearer tok123", r.Header.Get("Authorization"))
			once.Do(upstreamLogout.Done)
		}
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()

	persisted := &session.Session{
		ID:            uuid.New(),
		TenantSlug:    "ixtapa",
		Token:         "tok123",
		User:          &session.User{ID: "7"},
		Authenticated: true,
		Initialized:   true,
	}
	require.NoError(t, repo.Save(ctx, persisted))
	sess, err := svc.GetOrCreate(ctx, persisted.ID, "ixtapa")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, sess))

	assert.Equal(t, session.StateUnauthenticated, sess.State())
	assert.Empty(t, sess.Token)
	assert.Nil(t, sess.User)
	// The session record survives so the browser keeps its cookie
	assert.True(t, sess.Initialized)

	// The upstream logout fired in the background
	upstreamLogout.Wait()
}

func TestService_FetchUserFailureForcesLogout(t *testing.T) {
	svc, repo := newTestService(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Token expired"}`))
	})
	ctx := context.Background()

	persisted := &session.Session{
		ID:            uuid.New(),
		TenantSlug:    "ixtapa",
		Token:         "stale",
		User:          &session.User{ID: "7"},
		Authenticated: true,
		Initialized:   true,
	}
	require.NoError(t, repo.Save(ctx, persisted))
	sess, err := svc.GetOrCreate(ctx, persisted.ID, "ixtapa")
	require.NoError(t, err)

	_, err = svc.FetchUser(ctx, sess)

	require.Error(t, err)
	assert.Equal(t, session.StateUnauthenticated, sess.State())
	assert.Empty(t, sess.Token)
}

func TestService_Refresh(t *testing.T) {
	token := signedTestToken(t, time.Now().Add(2*time.Hour))
	svc, _ := newTestService(t, loginHandler(t, token))
	ctx := context.Background()

	sess, err := svc.GetOrCreate(ctx, uuid.New(), "ixtapa")
	require.NoError(t, err)
	sess.Authenticate("old-token", time.Time{}, &session.User{ID: "7"})

	require.NoError(t, svc.Refresh(ctx, sess))
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, session.StateAuthenticated, sess.State())
}

func TestService_MergeFromMenu(t *testing.T) {
	svc, repo := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	sess, err := svc.GetOrCreate(ctx, uuid.New(), "ixtapa")
	require.NoError(t, err)
	sess.Authenticate("tok", time.Time{}, &session.User{ID: "7", Roles: []string{"admin"}})

	svc.MergeFromMenu(ctx, sess, &menu.User{
		ID:          7,
		Name:        "Ana",
		Email:       "ana@example.com",
		Roles:       []string{"manager"},
		Permissions: []string{"users.read"},
	})

	assert.Equal(t, []string{"manager"}, sess.User.Roles)
	assert.Equal(t, []string{"users.read"}, sess.User.Permissions)
	assert.Equal(t, session.StateAuthenticated, sess.State())

	stored, err := repo.FindByID(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"manager"}, stored.User.Roles)
}

func TestService_MergeFromMenuWithoutUserIsNoOp(t *testing.T) {
	svc, _ := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	sess, err := svc.GetOrCreate(ctx, uuid.New(), "ixtapa")
	require.NoError(t, err)

	svc.MergeFromMenu(ctx, sess, &menu.User{ID: 7, Name: "Ana"})

	assert.Nil(t, sess.User)
}

func TestService_Invalidate(t *testing.T) {
	svc, repo := newTestService(t, func(w http.ResponseWriter, r *http.Request) {})
	ctx := context.Background()

	persisted := &session.Session{
		ID:            uuid.New(),
		TenantSlug:    "ixtapa",
		Token:         "tok123",
		Authenticated: true,
		Initialized:   true,
	}
	require.NoError(t, repo.Save(ctx, persisted))

	svc.Invalidate(ctx, persisted.ID)

	stored, err := repo.FindByID(ctx, persisted.ID)
	require.NoError(t, err)
	assert.False(t, stored.Authenticated)
	assert.Empty(t, stored.Token)
}
