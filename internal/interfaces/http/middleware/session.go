package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	appsession "github.com/kaely/console/internal/application/session"
	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/infrastructure/logger"
)

// SessionCookieName identifies the server-side session in the browser
const SessionCookieName = "kaely_session"

// sessionContextKey is the gin context key holding the loaded session
const sessionContextKey = "console_session"

// SessionConfig controls the session cookie attributes
type SessionConfig struct {
	CookieName   string // empty means SessionCookieName
	CookieDomain string
	CookieSecure bool
	CookieMaxAge int // seconds, 0 means session cookie
}

func (cfg SessionConfig) cookieName() string {
	if cfg.CookieName == "" {
		return SessionCookieName
	}
	return cfg.CookieName
}

// SessionFromGin retrieves the session loaded by the Session middleware
func SessionFromGin(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionContextKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// SetSession stashes a session in the gin context. The Session middleware
// calls it on every request; handler tests use it to mount a session without
// the full middleware chain.
func SetSession(c *gin.Context, sess *session.Session) {
	c.Set(sessionContextKey, sess)
}

// Session loads (or creates) the server-side session for the request cookie
// and runs lazy initialization. The session is stashed in the gin context and
// its ID is carried on the request context for log correlation. Load failures
// are absorbed: downstream guards treat a missing session as unauthenticated.
func Session(svc *appsession.Service, cfg SessionConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		resolved, _ := TenantFromContext(c.Request.Context())

		id, fresh := sessionID(c, cfg.cookieName())
		if fresh {
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(cfg.cookieName(), id.String(), cfg.CookieMaxAge, "/", cfg.CookieDomain, cfg.CookieSecure, true)
		}

		ctx := c.Request.Context()
		sess, err := svc.GetOrCreate(ctx, id, resolved.Slug)
		if err != nil {
			logger.FromContext(ctx).Warn("Session load failed",
				zap.String("session_id", id.String()),
				zap.Error(err))
			c.Next()
			return
		}

		if err := svc.Initialize(ctx, sess); err != nil {
			logger.FromContext(ctx).Warn("Session initialization failed",
				zap.String("session_id", id.String()),
				zap.Error(err))
		}

		SetSession(c, sess)
		ctx, _ = logger.WithSessionID(ctx, logger.FromContext(ctx), id.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// sessionID returns the session UUID from the request cookie, minting a new
// one when the cookie is absent or unparseable. fresh reports whether the
// cookie must be (re)set.
func sessionID(c *gin.Context, name string) (uuid.UUID, bool) {
	raw, err := c.Cookie(name)
	if err == nil {
		if id, parseErr := uuid.Parse(raw); parseErr == nil {
			return id, false
		}
	}
	return uuid.New(), true
}
