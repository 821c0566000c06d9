package handler

import (
	"github.com/gin-gonic/gin"

	appmenu "github.com/kaely/console/internal/application/menu"
	"github.com/kaely/console/internal/domain/menu"
	"github.com/kaely/console/internal/interfaces/http/dto"
)

// StatsProvider exposes cache tier counters for the menu diagnostics
// endpoint. The tiered cache implements it; simpler caches may not.
type StatsProvider interface {
	GetCacheStats() menu.CacheStats
}

// MenuHandler serves the navigation tree. It never fails: the engine
// degrades to the default menu when the upstream or cache cannot serve.
type MenuHandler struct {
	BaseHandler
	engine *appmenu.Engine
	stats  StatsProvider
}

func NewMenuHandler(engine *appmenu.Engine, stats StatsProvider) *MenuHandler {
	return &MenuHandler{engine: engine, stats: stats}
}

// GetMenu returns the menu for the session's tenant and user.
func (h *MenuHandler) GetMenu(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.InternalError(c, "Session unavailable")
		return
	}

	result := h.engine.GetMenu(c.Request.Context(), sess)
	h.Success(c, dto.MenuResponse{
		Items:  result.Items,
		Source: string(result.Source),
	})
}

// GetMenuDebug returns the menu plus cache tier counters.
func (h *MenuHandler) GetMenuDebug(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.InternalError(c, "Session unavailable")
		return
	}

	result := h.engine.GetMenu(c.Request.Context(), sess)
	resp := dto.MenuDebugResponse{
		MenuResponse: dto.MenuResponse{
			Items:  result.Items,
			Source: string(result.Source),
		},
	}
	if h.stats != nil {
		resp.CacheStats = h.stats.GetCacheStats()
	}
	h.Success(c, resp)
}

// InvalidateMenu drops the cached menu for the session's user so the next
// request refetches from the upstream.
func (h *MenuHandler) InvalidateMenu(c *gin.Context) {
	sess, ok := h.sessionFrom(c)
	if !ok {
		h.InternalError(c, "Session unavailable")
		return
	}

	h.engine.Invalidate(c.Request.Context(), sess)
	h.Success(c, gin.H{"message": "Menu cache invalidated"})
}
