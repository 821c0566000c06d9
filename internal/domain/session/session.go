// Package session models the server-held auth session for one browser.
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is the session lifecycle state.
type State string

const (
	// StateUninitialized means the session exists but Initialize has not run.
	StateUninitialized State = "uninitialized"
	// StateInitializing means token rehydration is in progress.
	StateInitializing State = "initializing"
	// StateAuthenticated means a token is held; validity is confirmed lazily
	// by the first upstream 401, not eagerly.
	StateAuthenticated State = "authenticated"
	// StateUnauthenticated means no token is held.
	StateUnauthenticated State = "unauthenticated"
)

// User is the authenticated identity held by a session. Roles and
// permissions may be refined after login from the menu endpoint's embedded
// user payload.
type User struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Email       string   `json:"email"`
	Roles       []string `json:"roles"`
	Permissions []string `json:"permissions"`
}

// Session is the mutable per-browser auth state. Invariant: Authenticated
// is true iff Token is non-empty and the login or rehydration that set it
// succeeded.
//
// One Session pointer is shared by every concurrent request carrying the
// same cookie, and the menu engine's background refresh mutates it too.
// All writes go through the methods below, which hold the session's lock;
// anything reading fields while the session may still change must work off
// a Snapshot instead of the shared struct.
type Session struct {
	mu sync.RWMutex

	ID            uuid.UUID
	TenantSlug    string
	User          *User
	Token         string
	TokenExpires  time.Time // informational, parsed from the token's claims
	Authenticated bool
	Initialized   bool
	UpdatedAt     time.Time
}

// State derives the lifecycle state from the two readiness flags.
func (s *Session) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch {
	case !s.Initialized:
		return StateUninitialized
	case s.Authenticated:
		return StateAuthenticated
	default:
		return StateUnauthenticated
	}
}

// Snapshot returns a detached copy that shares no memory with the original,
// safe to read while the session keeps changing underneath. ID and
// TenantSlug never change after creation, so they are always safe to read
// from either.
func (s *Session) Snapshot() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cp := &Session{
		ID:            s.ID,
		TenantSlug:    s.TenantSlug,
		Token:         s.Token,
		TokenExpires:  s.TokenExpires,
		Authenticated: s.Authenticated,
		Initialized:   s.Initialized,
		UpdatedAt:     s.UpdatedAt,
	}
	if s.User != nil {
		user := User{
			ID:          s.User.ID,
			Name:        s.User.Name,
			Email:       s.User.Email,
			Roles:       append([]string(nil), s.User.Roles...),
			Permissions: append([]string(nil), s.User.Permissions...),
		}
		cp.User = &user
	}
	return cp
}

// Authenticate records a successful login or rehydration.
func (s *Session) Authenticate(token string, expires time.Time, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = token
	s.TokenExpires = expires
	s.User = user
	s.Authenticated = true
	s.Initialized = true
	s.UpdatedAt = time.Now()
}

// MarkInitialized flips the session into an initialized state, deriving
// Authenticated from the presence of a persisted token. Returns false when
// the session was already initialized.
func (s *Session) MarkInitialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Initialized {
		return false
	}
	s.Initialized = true
	s.Authenticated = s.Token != ""
	s.UpdatedAt = time.Now()
	return true
}

// SetUser replaces the session's user without touching auth state.
func (s *Session) SetUser(user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.User = user
	s.UpdatedAt = time.Now()
}

// Clear drops all auth state, returning the session to Unauthenticated.
// The session record itself survives so the browser keeps its cookie.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Token = ""
	s.TokenExpires = time.Time{}
	s.User = nil
	s.Authenticated = false
	s.UpdatedAt = time.Now()
}

// MergeUser refines identity fields from the menu endpoint without touching
// the authentication state. A merge on a session with no user is a no-op:
// the menu payload refines an identity, it never establishes one.
func (s *Session) MergeUser(id, name, email string, roles, permissions []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.User == nil {
		return
	}
	s.User = &User{
		ID:          id,
		Name:        name,
		Email:       email,
		Roles:       roles,
		Permissions: permissions,
	}
	s.UpdatedAt = time.Now()
}
