package handler

import (
	"net/http"

	"invoicing/internal/service"
	"invoicing/pkg/response"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService service.SessionService
	requireAuth    gin.HandlerFunc
}

func NewSessionHandler(sessionService service.SessionService, requireAuth gin.HandlerFunc) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		requireAuth:    requireAuth,
	}
}

func (h *SessionHandler) RegisterRoutes(router *gin.RouterGroup) {
	group := router.Group("/api/session", h.requireAuth)
	{
		group.GET("", h.GetSession)
		group.PUT("/screen", h.Navigate)
	}
}

// GetSession returns the signed-in session and its current screen
// @Summary      Current session
// @Tags         session
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.SessionResponse}
// @Failure      401  {object}  response.Response
// @Router       /api/session [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.sessionService.Current(sess)))
}

// Navigate moves the session to another screen
// @Summary      Change screen
// @Description  Moves between dashboard, create, view and all-invoices. The view screen needs an invoice_id the session may read.
// @Tags         session
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.NavigateRequest  true  "Target screen"
// @Success      200      {object}  response.Response{data=service.SessionResponse}
// @Failure      400      {object}  response.Response
// @Failure      409      {object}  response.Response
// @Router       /api/session/screen [put]
func (h *SessionHandler) Navigate(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	var req service.NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	res, err := h.sessionService.Navigate(c.Request.Context(), sess, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, res))
}
