package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	appmenu "github.com/kaely/console/internal/application/menu"
	appsession "github.com/kaely/console/internal/application/session"
	"github.com/kaely/console/internal/domain/session"
	"github.com/kaely/console/internal/infrastructure/upstream"
	"github.com/kaely/console/internal/interfaces/http/dto"
	"github.com/kaely/console/internal/interfaces/http/middleware"
)

// AuthHandler fronts the upstream auth endpoints with session-cookie
// semantics. The browser never sees the upstream token; it lives on the
// server-side session only.
type AuthHandler struct {
	BaseHandler
	sessions *appsession.Service
	menus    *appmenu.Engine
	logger   *zap.Logger
}

func NewAuthHandler(sessions *appsession.Service, menus *appmenu.Engine, logger *zap.Logger) *AuthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthHandler{sessions: sessions, menus: menus, logger: logger}
}

// Login exchanges credentials for an authenticated session.
func (h *AuthHandler) Login(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.InternalError(c, "Session unavailable")
		return
	}

	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	message, err := h.sessions.Login(c.Request.Context(), sess, req.Email, req.Password)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	// A fresh login means any cached menu for this user is suspect.
	h.menus.Invalidate(c.Request.Context(), sess)

	h.Success(c, dto.LoginResponse{
		Message: message,
		User:    toUserResponse(sess.Snapshot().User),
	})
}

// Register creates an upstream account and signs the session in.
func (h *AuthHandler) Register(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.InternalError(c, "Session unavailable")
		return
	}

	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	message, err := h.sessions.Register(c.Request.Context(), sess, upstream.RegisterRequest{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, dto.LoginResponse{
		Message: message,
		User:    toUserResponse(sess.Snapshot().User),
	})
}

// Logout clears the session's auth state. The cookie survives so the
// browser keeps the same session record.
func (h *AuthHandler) Logout(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.Success(c, gin.H{"message": "Logged out"})
		return
	}

	h.menus.Invalidate(c.Request.Context(), sess)
	if err := h.sessions.Logout(c.Request.Context(), sess); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Logged out"})
}

// Refresh rotates the session's upstream token.
func (h *AuthHandler) Refresh(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok || sess.Snapshot().Token == "" {
		h.Unauthorized(c, "No active session")
		return
	}

	if err := h.sessions.Refresh(c.Request.Context(), sess); err != nil {
		h.HandleError(c, err)
		return
	}
	snap := sess.Snapshot()
	h.Success(c, dto.SessionResponse{
		State:         string(snap.State()),
		Authenticated: snap.Authenticated,
		User:          toUserResponse(snap.User),
	})
}

// Me returns the session's user, refreshed from the upstream profile
// endpoint when a token is held.
func (h *AuthHandler) Me(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok || sess.Snapshot().Token == "" {
		h.Unauthorized(c, "No active session")
		return
	}

	user, err := h.sessions.FetchUser(c.Request.Context(), sess)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, toUserResponse(user))
}

// Session reports the session's lifecycle state without touching the
// upstream. The console polls this on load to decide what to render.
func (h *AuthHandler) Session(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.Success(c, dto.SessionResponse{
			State:         string(session.StateUninitialized),
			Authenticated: false,
		})
		return
	}
	snap := sess.Snapshot()
	h.Success(c, dto.SessionResponse{
		State:         string(snap.State()),
		Authenticated: snap.Authenticated,
		User:          toUserResponse(snap.User),
	})
}

func toUserResponse(user *session.User) *dto.UserResponse {
	if user == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:          user.ID,
		Name:        user.Name,
		Email:       user.Email,
		Roles:       user.Roles,
		Permissions: user.Permissions,
	}
}
