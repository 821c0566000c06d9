package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaely/console/internal/infrastructure/upstream"
)

// ModuleHandler proxies navigation-module administration to the tenant's
// upstream. Payloads pass through untouched in both directions; the
// upstream owns validation and authorization for these resources.
type ModuleHandler struct {
	BaseHandler
	clients *upstream.ClientSet
}

func NewModuleHandler(clients *upstream.ClientSet) *ModuleHandler {
	return &ModuleHandler{clients: clients}
}

// ListModules returns the module tree, optionally scoped to a parent.
func (h *ModuleHandler) ListModules(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.ListModules(c.Request.Context(), sess.Token, c.Query("parent_id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *ModuleHandler) CreateModule(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	body, err := readBody(c)
	if err != nil {
		h.BadRequest(c, "Unreadable request body")
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.CreateModule(c.Request.Context(), sess.Token, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *ModuleHandler) UpdateModule(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	body, err := readBody(c)
	if err != nil {
		h.BadRequest(c, "Unreadable request body")
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.UpdateModule(c.Request.Context(), sess.Token, c.Param("id"), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *ModuleHandler) DeleteModule(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	if err := client.DeleteModule(c.Request.Context(), sess.Token, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Module deleted"})
}

// GetModulePermissions returns the permission matrix for one module.
func (h *ModuleHandler) GetModulePermissions(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.GetModulePermissions(c.Request.Context(), sess.Token, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

// UpdateModulePermissions replaces a module's permission matrix. The
// upstream expects a PUT for modules, unlike the role variant.
func (h *ModuleHandler) UpdateModulePermissions(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	body, err := readBody(c)
	if err != nil {
		h.BadRequest(c, "Unreadable request body")
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.UpdateModulePermissions(c.Request.Context(), sess.Token, c.Param("id"), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}
