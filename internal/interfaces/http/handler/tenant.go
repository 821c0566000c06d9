package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kaely/console/internal/domain/tenant"
	"github.com/kaely/console/internal/interfaces/http/dto"
)

// TenantHandler serves tenant branding for the console shell.
type TenantHandler struct {
	BaseHandler
	registry *tenant.Registry
}

func NewTenantHandler(registry *tenant.Registry) *TenantHandler {
	return &TenantHandler{registry: registry}
}

// GetTenant returns the resolved tenant's branding. Resolution is total,
// so an unknown slug in the path falls back to the default property.
func (h *TenantHandler) GetTenant(c *gin.Context) {
	slug := c.Param("tenant")
	if resolved, ok := h.resolvedTenant(c); ok {
		slug = resolved.Slug
	}

	cfg := h.registry.GetOrDefault(slug)
	h.Success(c, dto.TenantInfoResponse{
		Slug:       cfg.Slug,
		Name:       cfg.Name,
		ThemeColor: cfg.PrimaryColor,
		IsDefault:  cfg.Slug == h.registry.DefaultSlug(),
	})
}

// ListTenants returns branding for every registered property.
func (h *TenantHandler) ListTenants(c *gin.Context) {
	slugs := h.registry.Slugs()
	out := make([]dto.TenantInfoResponse, 0, len(slugs))
	for _, slug := range slugs {
		cfg := h.registry.GetOrDefault(slug)
		out = append(out, dto.TenantInfoResponse{
			Slug:       cfg.Slug,
			Name:       cfg.Name,
			ThemeColor: cfg.PrimaryColor,
			IsDefault:  cfg.Slug == h.registry.DefaultSlug(),
		})
	}
	h.Success(c, out)
}
