package handler

import (
	"net/http"

	"invoicing/internal/middleware"
	"invoicing/internal/model"
	"invoicing/internal/service"
	"invoicing/pkg/pagination"
	"invoicing/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	auditService service.AuditService
	requireAuth  gin.HandlerFunc
}

func NewAuditHandler(auditService service.AuditService, requireAuth gin.HandlerFunc) *AuditHandler {
	return &AuditHandler{auditService: auditService, requireAuth: requireAuth}
}

func (h *AuditHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/audit-logs")
	group.Use(h.requireAuth, middleware.RequireRole(model.RoleDirector))
	{
		group.GET("", h.GetAuditLogs)
	}
}

// GetAuditLogs returns the invoice audit trail, newest first
// @Summary      Get audit logs
// @Description  Lists who created, updated or deleted which invoice. Directors only.
// @Tags         audit
// @Security     BearerAuth
// @Produce      json
// @Param        action     query     string  false  "Only this action, e.g. CREATE_INVOICE"
// @Param        entity_id  query     string  false  "Only entries about this invoice or account"
// @Param        page       query     int     false  "Page number (default 1)"
// @Param        limit      query     int     false  "Number of items per page (default 20)"
// @Success      200        {object}  response.Response{data=response.Page}
// @Failure      403        {object}  response.Response
// @Router       /api/audit-logs [get]
func (h *AuditHandler) GetAuditLogs(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	logs, total, err := h.auditService.GetAuditLogs(c.Request.Context(), sess, service.AuditQuery{
		Action:   c.Query("action"),
		EntityID: c.Query("entity_id"),
		Page:     p.Page,
		Limit:    p.Limit,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, logs, total, p.Page, p.Limit))
}
