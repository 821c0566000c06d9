package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaely/console/internal/infrastructure/upstream"
)

// RoleHandler proxies role administration to the tenant's upstream.
type RoleHandler struct {
	BaseHandler
	clients *upstream.ClientSet
}

func NewRoleHandler(clients *upstream.ClientSet) *RoleHandler {
	return &RoleHandler{clients: clients}
}

func (h *RoleHandler) ListRoles(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.ListRoles(c.Request.Context(), sess.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *RoleHandler) CreateRole(c *gin.Context) {
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
	payload, err := client.CreateRole(c.Request.Context(), sess.Token, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *RoleHandler) UpdateRole(c *gin.Context) {
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
	payload, err := client.UpdateRole(c.Request.Context(), sess.Token, c.Param("id"), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *RoleHandler) DeleteRole(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	if err := client.DeleteRole(c.Request.Context(), sess.Token, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Role deleted"})
}

// ListRoleCategories returns the grouping catalog for the role dialogs.
func (h *RoleHandler) ListRoleCategories(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.ListRoleCategories(c.Request.Context(), sess.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *RoleHandler) GetRolePermissions(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.GetRolePermissions(c.Request.Context(), sess.Token, c.Param("id"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

// UpdateRolePermissions replaces a role's permission assignments. The
// upstream takes a POST here where the module variant takes a PUT.
func (h *RoleHandler) UpdateRolePermissions(c *gin.Context) {
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
	payload, err := client.UpdateRolePermissions(c.Request.Context(), sess.Token, c.Param("id"), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}
