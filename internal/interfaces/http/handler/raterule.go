package handler

import (
	"io"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"go.uber.org/zap"

	"github.com/kaely/console/internal/infrastructure/upstream"
	"github.com/kaely/console/internal/interfaces/http/dto"
	"github.com/kaely/console/internal/interfaces/http/middleware"
)

// RateRuleHandler proxies room-rate-rule administration, the console's
// heaviest admin surface. List queries, bulk import uploads and the CSV
// export stream all pass through to the tenant's upstream.
type RateRuleHandler struct {
	BaseHandler
	clients *upstream.ClientSet
	logger  *zap.Logger
}

func NewRateRuleHandler(clients *upstream.ClientSet, logger *zap.Logger) *RateRuleHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RateRuleHandler{clients: clients, logger: logger}
}

// ListRateRules forwards the list query verbatim so upstream pagination,
// search and filter parameters keep working without gateway knowledge.
func (h *RateRuleHandler) ListRateRules(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	var filters dto.RateRuleListRequest
	if err := c.ShouldBindQuery(&filters); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.ListRateRules(c.Request.Context(), sess.Token, c.Request.URL.Query())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *RateRuleHandler) CreateRateRule(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	body, err := readBody(c)
	if err != nil {
		h.BadRequest(c, "Unreadable request body")
		return
	}

	// Validate shape and money fields before the bytes leave the gateway;
	// the upstream receives the original body, not a re-serialization.
	var req dto.RateRuleRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.CreateRateRule(c.Request.Context(), sess.Token, body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *RateRuleHandler) UpdateRateRule(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	body, err := readBody(c)
	if err != nil {
		h.BadRequest(c, "Unreadable request body")
		return
	}

	var req dto.RateRuleRequest
	if err := binding.JSON.BindBody(body, &req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.UpdateRateRule(c.Request.Context(), sess.Token, c.Param("id"), body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

func (h *RateRuleHandler) DeleteRateRule(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	if err := client.DeleteRateRule(c.Request.Context(), sess.Token, c.Param("id")); err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, gin.H{"message": "Rate rule deleted"})
}

// ListRateRuleClasses returns the rate classes referenced by rules.
func (h *RateRuleHandler) ListRateRuleClasses(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.ListRateRuleClasses(c.Request.Context(), sess.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

// ImportRateRules streams a multipart upload to the upstream without
// buffering the file in memory. The multipart boundary lives in the
// Content-Type header, so it must be forwarded as received.
func (h *RateRuleHandler) ImportRateRules(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	payload, err := client.ImportRateRules(c.Request.Context(), sess.Token,
		c.GetHeader("Content-Type"), c.Request.Body)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	writeRawJSON(c, payload)
}

// ExportRateRules streams the upstream's export straight to the browser,
// preserving the content type and filename the upstream chose.
func (h *RateRuleHandler) ExportRateRules(c *gin.Context) {
	sess, ok := h.requireToken(c)
	if !ok {
		return
	}

	client := h.clients.For(sess.TenantSlug)
	resp, err := client.ExportRateRules(c.Request.Context(), sess.Token)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer resp.Body.Close()

	c.Status(resp.StatusCode)
	for _, header := range []string{"Content-Type", "Content-Disposition", "Content-Length"} {
		if v := resp.Header.Get(header); v != "" {
			c.Header(header, v)
		}
	}
	if _, err := io.Copy(c.Writer, resp.Body); err != nil {
		h.logger.Warn("Export stream interrupted",
			zap.String("tenant", sess.TenantSlug),
			zap.Error(err))
	}
}
