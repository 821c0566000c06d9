// Package session implements the server-held auth session lifecycle: login,
// logout, token rehydration and the lazy invalidation driven by upstream 401s.
package session

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaely/console/internal/domain/menu"
	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/domain/shared"
	"github.com/kaely/console/internal/infrastructure/upstream"
)

// logoutTimeout bounds the fire-and-forget upstream logout call
const logoutTimeout = 5 * time.Second

// Service manages browser sessions. Reads go through an in-memory cache in
// front of the durable repository; writes go to both.
type Service struct {
	repo    session.Repository
	clients *upstream.ClientSet
	logger  *zap.Logger

	cache sync.Map // map[uuid.UUID]*session.Session
}

// NewService creates a new session service
func NewService(
	repo session.Repository,
	clients *upstream.ClientSet,
	logger *zap.Logger,
) *Service {
	return &Service{
		repo:    repo,
		clients: clients,
		logger:  logger,
	}
}

// GetOrCreate loads the session for a cookie ID, creating a fresh
// uninitialized session when none exists yet.
func (s *Service) GetOrCreate(ctx context.Context, id uuid.UUID, tenantSlug string) (*session.Session, error) {
	if cached, ok := s.cache.Load(id); ok {
		return cached.(*session.Session), nil
	}

	sess, err := s.repo.FindByID(ctx, id)
	if err == nil {
		s.cache.Store(id, sess)
		return sess, nil
	}
	if err != shared.ErrSessionNotFound {
		return nil, err
	}

	sess = &session.Session{
		ID:         id,
		TenantSlug: tenantSlug,
		UpdatedAt:  time.Now(),
	}
	s.cache.Store(id, sess)
	return sess, nil
}

// Initialize marks the session ready for auth decisions. Idempotent: the
// first call rehydrates nothing over the network because the persisted token
// was already loaded with the session; validity is confirmed lazily when the
// first upstream call answers 401.
func (s *Service) Initialize(ctx context.Context, sess *session.Session) error {
	if !sess.MarkInitialized() {
		return nil
	}
	return s.persist(ctx, sess)
}

// Login exchanges credentials with the tenant's upstream and stores the
// resulting token and user on the session. The upstream's message is passed
// through for both outcomes.
func (s *Service) Login(ctx context.Context, sess *session.Session, email, password string) (string, error) {
	client := s.clients.For(sess.TenantSlug)

	result, err := client.Login(ctx, email, password)
	if err != nil {
		s.logger.Info("Login rejected",
			zap.String("tenant", sess.TenantSlug),
			zap.String("email", email),
			zap.Error(err))
		return "", err
	}

	sess.Authenticate(result.Token, tokenExpiry(result.Token), result.User)
	if err := s.persist(ctx, sess); err != nil {
		return "", err
	}

	s.logger.Info("Login succeeded",
		zap.String("tenant", sess.TenantSlug),
		zap.String("session_id", sess.ID.String()),
		zap.String("user_id", result.User.ID))
	return result.Message, nil
}

// Register creates an upstream account and authenticates the session with
// the returned token.
func (s *Service) Register(ctx context.Context, sess *session.Session, req upstream.RegisterRequest) (string, error) {
	client := s.clients.For(sess.TenantSlug)

	result, err := client.Register(ctx, req)
	if err != nil {
		return "", err
	}

	sess.Authenticate(result.Token, tokenExpiry(result.Token), result.User)
	if err := s.persist(ctx, sess); err != nil {
		return "", err
	}
	return result.Message, nil
}

// Logout clears the session's auth state. The upstream logout call is best
// effort and runs in the background; its failure never blocks the user.
func (s *Service) Logout(ctx context.Context, sess *session.Session) error {
	token := sess.Snapshot().Token
	tenantSlug := sess.TenantSlug

	sess.Clear()
	if err := s.persist(ctx, sess); err != nil {
		return err
	}

	if token != "" {
		client := s.clients.For(tenantSlug)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), logoutTimeout)
			defer cancel()
			if err := client.Logout(ctx, token); err != nil {
				s.logger.Debug("Upstream logout failed",
					zap.String("tenant", tenantSlug),
					zap.Error(err))
			}
		}()
	}

	s.logger.Info("Logged out",
		zap.String("tenant", tenantSlug),
		zap.String("session_id", sess.ID.String()))
	return nil
}

// FetchUser refreshes the session's user from the upstream profile endpoint.
// A failure means the token no longer stands, so the session is logged out.
func (s *Service) FetchUser(ctx context.Context, sess *session.Session) (*session.User, error) {
	client := s.clients.For(sess.TenantSlug)

	user, err := client.Me(ctx, sess.Snapshot().Token)
	if err != nil {
		s.logger.Info("Profile fetch failed, clearing session",
			zap.String("tenant", sess.TenantSlug),
			zap.Error(err))
		if logoutErr := s.Logout(ctx, sess); logoutErr != nil {
			s.logger.Warn("Failed to clear session after profile fetch failure",
				zap.Error(logoutErr))
		}
		return nil, err
	}

	sess.SetUser(user)
	if err := s.persist(ctx, sess); err != nil {
		return nil, err
	}
	return user, nil
}

// Refresh rotates the session's token. Failure clears the session, matching
// the upstream's view that the old token is spent.
func (s *Service) Refresh(ctx context.Context, sess *session.Session) error {
	client := s.clients.For(sess.TenantSlug)

	result, err := client.Refresh(ctx, sess.Snapshot().Token)
	if err != nil {
		if logoutErr := s.Logout(ctx, sess); logoutErr != nil {
			s.logger.Warn("Failed to clear session after refresh failure",
				zap.Error(logoutErr))
		}
		return err
	}

	sess.Authenticate(result.Token, tokenExpiry(result.Token), result.User)
	return s.persist(ctx, sess)
}

// MergeFromMenu refines the session user's identity from the menu payload.
// Auth state never changes here; a session without a user stays without one.
func (s *Service) MergeFromMenu(ctx context.Context, sess *session.Session, menuUser *menu.User) {
	if menuUser == nil {
		return
	}

	sess.MergeUser(
		formatMenuUserID(menuUser.ID),
		menuUser.Name,
		menuUser.Email,
		menuUser.Roles,
		menuUser.Permissions,
	)

	if err := s.persist(ctx, sess); err != nil {
		s.logger.Warn("Failed to persist menu user merge",
			zap.String("session_id", sess.ID.String()),
			zap.Error(err))
	}
}

// Invalidate drops a session's auth state in response to an upstream 401.
// The next request sees an unauthenticated session and the guard redirects.
func (s *Service) Invalidate(ctx context.Context, id uuid.UUID) {
	cached, ok := s.cache.Load(id)
	if !ok {
		sess, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return
		}
		cached = sess
	}

	sess := cached.(*session.Session)
	sess.Clear()
	if err := s.persist(ctx, sess); err != nil {
		s.logger.Warn("Failed to persist session invalidation",
			zap.String("session_id", id.String()),
			zap.Error(err))
	}

	s.logger.Info("Session invalidated by upstream 401",
		zap.String("session_id", id.String()))
}

// Delete removes the session entirely, cookie record included
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	s.cache.Delete(id)
	if err := s.repo.Delete(ctx, id); err != nil && err != shared.ErrSessionNotFound {
		return err
	}
	return nil
}

func (s *Service) persist(ctx context.Context, sess *session.Session) error {
	s.cache.Store(sess.ID, sess)
	// The repository gets a detached copy so the row it writes cannot be
	// mutated mid-save by another request on the same cookie.
	return s.repo.Save(ctx, sess.Snapshot())
}

// tokenExpiry reads the expiry claim without verifying the signature. The
// value is bookkeeping only; the upstream remains the authority on token
// validity.
func tokenExpiry(tokenStr string) time.Time {
	parser := jwt.NewParser()
	token, _, err := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if err != nil {
		return time.Time{}
	}
	exp, err := token.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func formatMenuUserID(id int64) string {
	return strconv.FormatInt(id, 10)
}
