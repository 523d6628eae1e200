package handler

import (
	"net/http"

	"invoicing/internal/billing"
	"invoicing/internal/middleware"
	"invoicing/internal/model"
	"invoicing/internal/service"
	"invoicing/pkg/response"

	"github.com/gin-gonic/gin"
)

type DashboardHandler struct {
	dashboardService service.DashboardService
	requireAuth      gin.HandlerFunc
}

func NewDashboardHandler(dashboardService service.DashboardService, requireAuth gin.HandlerFunc) *DashboardHandler {
	return &DashboardHandler{
		dashboardService: dashboardService,
		requireAuth:      requireAuth,
	}
}

func (h *DashboardHandler) RegisterRoutes(router *gin.RouterGroup) {
	dashboard := router.Group("/api/dashboard", h.requireAuth)
	{
		dashboard.GET("", h.GetDashboard)
		dashboard.GET("/performance", middleware.RequireRole(model.RoleDirector), h.GetPerformance)
	}
}

// GetDashboard renders the dashboard for the signed-in role
// @Summary      Get dashboard
// @Description  Agents get their own stats and invoices. Directors get stats across all agents, an optional agent filter and the performance table.
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        window    query     string  false  "today or all (default all)"
// @Param        agent_id  query     string  false  "Agent id or 'all' (directors only)"
// @Param        scope     query     string  false  "Performance table scope for directors: agents or all"
// @Success      200       {object}  response.Response{data=service.DashboardResponse}
// @Failure      400       {object}  response.Response
// @Failure      401       {object}  response.Response
// @Router       /api/dashboard [get]
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	agentID, ok := agentFilter(c)
	if !ok {
		return
	}

	res, err := h.dashboardService.Dashboard(c.Request.Context(), sess, service.DashboardQuery{
		Window:  billing.ParseWindow(c.Query("window")),
		AgentID: agentID,
		Scope:   c.Query("scope"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}

// GetPerformance returns the per-agent performance table
// @Summary      Agent performance
// @Tags         dashboard
// @Security     BearerAuth
// @Produce      json
// @Param        scope  query     string  false  "agents or all (default from configuration)"
// @Success      200    {object}  response.Response{data=[]service.PerformanceResponse}
// @Failure      400    {object}  response.Response
// @Failure      403    {object}  response.Response
// @Router       /api/dashboard/performance [get]
func (h *DashboardHandler) GetPerformance(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}

	rows, err := h.dashboardService.Performance(c.Request.Context(), sess, c.Query("scope"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, rows))
}
