package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/interfaces/http/dto"
)

// AuthGuard protects dashboard routes. It decides only after both readiness
// gates are passed: the session middleware loaded a session and Initialize
// ran on it. Unauthenticated browsers are redirected to the tenant login
// page with 303 See Other so the failed URL never enters history as a
// cacheable redirect; API callers get a 401 JSON envelope instead.
func AuthGuard() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := SessionFromGin(c)
		if !ok || sess.State() == session.StateUninitialized {
			reject(c, sess)
			return
		}

		if sess.State() != session.StateAuthenticated {
			reject(c, sess)
			return
		}

		c.Next()
	}
}

func reject(c *gin.Context, sess *session.Session) {
	if wantsJSON(c) {
		requestID := c.GetString("request_id")
		c.AbortWithStatusJSON(http.StatusUnauthorized,
			dto.NewErrorResponseWithRequestID(dto.ErrCodeUnauthorized, "Authentication required", requestID))
		return
	}

	slug := c.Param("tenant")
	if slug == "" {
		if resolved, ok := TenantFromContext(c.Request.Context()); ok {
			slug = resolved.Slug
		} else if sess != nil {
			slug = sess.TenantSlug
		}
	}

	c.Redirect(http.StatusSeeOther, "/"+slug+"/login")
	c.Abort()
}

// wantsJSON reports whether the caller expects a machine-readable error:
// either an explicit JSON accept header or an API path.
func wantsJSON(c *gin.Context) bool {
	if strings.Contains(c.GetHeader("Accept"), "application/json") {
		return true
	}
	return strings.Contains(c.Request.URL.Path, "/api/")
}
