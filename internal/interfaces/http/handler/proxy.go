package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kaely/console/internal/domain/session"
)

const maxProxyBody = 1 << 20

// requireToken fetches the session and rejects the request when it holds
// no upstream token. Routes behind the auth guard normally never hit the
// rejection path, but handlers are also mounted in tests without it.
// The returned session is a detached snapshot: passthrough handlers only
// read from it, and the shared session may be cleared by a concurrent 401
// mid-request.
func (h *BaseHandler) requireToken(c *gin.Context) (*session.Session, bool) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.Unauthorized(c, "Authentication required")
		return nil, false
	}
	snap := sess.Snapshot()
	if snap.Token == "" {
		h.Unauthorized(c, "Authentication required")
		return nil, false
	}
	return snap, true
}

// readBody slurps the request body for forwarding. The console sends small
// JSON documents; anything larger is a client error.
func readBody(c *gin.Context) (json.RawMessage, error) {
	return io.ReadAll(io.LimitReader(c.Request.Body, maxProxyBody))
}

// writeRawJSON forwards an upstream JSON payload untouched. The upstream
// already envelopes its responses, so re-wrapping would double-nest them.
func writeRawJSON(c *gin.Context, payload json.RawMessage) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", payload)
}
