package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaely/console/internal/infrastructure/upstream"
)

// PermissionHandler proxies the read-only permission catalog.
type PermissionHandler struct {
	BaseHandler
	clients *upstream.ClientSet
}

func NewPermissionHandler(clients *upstream.ClientSet) *PermissionHandler {
	return &PermissionHandler{clients: clients}
}

func (h *PermissionHandler) ListPermissions(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.ListPermissions(c.Request.Context(), sess.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}
