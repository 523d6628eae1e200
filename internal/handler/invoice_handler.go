package handler

import (
	"net/http"

	"invoicing/internal/billing"
	"invoicing/internal/middleware"
	"invoicing/internal/model"
	"invoicing/internal/service"
	"invoicing/pkg/pagination"
	"invoicing/pkg/response"

	"github.com/gin-gonic/gin"
)

type InvoiceHandler struct {
	invoiceService service.InvoiceService
	requireAuth    gin.HandlerFunc
}

func NewInvoiceHandler(invoiceService service.InvoiceService, requireAuth gin.HandlerFunc) *InvoiceHandler {
	return &InvoiceHandler{
		invoiceService: invoiceService,
		requireAuth:    requireAuth,
	}
}

func (h *InvoiceHandler) RegisterRoutes(router *gin.RouterGroup) {
	invoices := router.Group("/api/invoices", h.requireAuth)
	{
		invoices.GET("", h.ListInvoices)
		invoices.POST("", middleware.RequireRole(model.RoleAgent), h.CreateInvoice)
		invoices.GET("/:id", h.GetInvoice)
		invoices.GET("/:id/pdf", h.DownloadInvoice)
		invoices.PATCH("/:id", h.UpdateInvoice)
		invoices.PUT("/:id/status", h.UpdateStatus)
		invoices.DELETE("/:id", middleware.RequireRole(model.RoleAgent), h.DeleteInvoice)
	}

	router.GET("/api/catalog", h.requireAuth, h.ListCatalog)
	router.GET("/api/agents", h.requireAuth, middleware.RequireRole(model.RoleDirector), h.ListAgents)
}

// CreateInvoice creates an invoice for the signed-in agent
// @Summary      Create invoice
// @Description  Validates the client and items, computes totals and tax, assigns an invoice number and stores the invoice
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateInvoiceRequest  true  "Create Invoice Payload"
// @Success      201      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Router       /api/invoices [post]
func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	var req service.CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.CreateInvoice(c.Request.Context(), sess, req)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, response.Success(http.StatusCreated, invoice))
}

// ListInvoices returns invoices visible to the session, newest first
// @Summary      List invoices
// @Description  Agents see their own invoices; directors see every agent's and may filter by agent
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        window    query     string  false  "today or all (default all)"
// @Param        agent_id  query     string  false  "Agent id or 'all' (directors only)"
// @Param        page      query     int     false  "Page number (default 1)"
// @Param        limit     query     int     false  "Number of items per page (default 20)"
// @Success      200       {object}  response.Response{data=response.Page}
// @Failure      401       {object}  response.Response
// @Router       /api/invoices [get]
func (h *InvoiceHandler) ListInvoices(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	agentID, ok := agentFilter(c)
	if !ok {
		return
	}
	p := pagination.Parse(c)

	invoices, err := h.invoiceService.ListInvoices(c.Request.Context(), sess, service.InvoiceFilter{
		Window:  billing.ParseWindow(c.Query("window")),
		AgentID: agentID,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, response.Paginated(http.StatusOK, pagination.Slice(invoices, p), int64(len(invoices)), p.Page, p.Limit))
}

// GetInvoice returns one invoice
// @Summary      Get invoice
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response{data=service.InvoiceResponse}
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	invoice, err := h.invoiceService.GetInvoice(c.Request.Context(), sess, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DownloadInvoice streams the invoice as a PDF
// @Summary      Download invoice PDF
// @Tags         invoices
// @Security     BearerAuth
// @Produce      application/pdf
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {file}    file
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadInvoice(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	doc, name, err := h.invoiceService.Document(c.Request.Context(), sess, id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", doc)
}

// UpdateInvoice applies a partial update
// @Summary      Update invoice
// @Description  Updates status, due date, notes or items. Replacing items recomputes subtotal, tax and total.
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                        true  "Invoice ID"
// @Param        payload  body      service.UpdateInvoiceRequest  true  "Fields to update"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/{id} [patch]
func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req service.UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.UpdateInvoice(c.Request.Context(), sess, id, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// UpdateStatus moves an invoice to any of draft, sent, paid, overdue
// @Summary      Update invoice status
// @Tags         invoices
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        id       path      string                       true  "Invoice ID"
// @Param        payload  body      service.UpdateStatusRequest  true  "New status"
// @Success      200      {object}  response.Response{data=service.InvoiceResponse}
// @Failure      400      {object}  response.Response
// @Failure      403      {object}  response.Response
// @Failure      404      {object}  response.Response
// @Router       /api/invoices/{id}/status [put]
func (h *InvoiceHandler) UpdateStatus(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}
	var req service.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request payload: "+err.Error())
		return
	}

	invoice, err := h.invoiceService.UpdateStatus(c.Request.Context(), sess, id, req.Status)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, invoice))
}

// DeleteInvoice removes an invoice owned by the signed-in agent
// @Summary      Delete invoice
// @Description  Only the owning agent may delete. Directors receive 403.
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Invoice ID"
// @Success      200  {object}  response.Response
// @Failure      403  {object}  response.Response
// @Failure      404  {object}  response.Response
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) DeleteInvoice(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	id, ok := paramID(c)
	if !ok {
		return
	}

	if err := h.invoiceService.DeleteInvoice(c.Request.Context(), sess, id); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, gin.H{"message": "Invoice deleted"}))
}

// ListCatalog returns the travel services an invoice line can bill and the tax rate
// @Summary      Service catalog
// @Tags         invoices
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=service.CatalogResponse}
// @Router       /api/catalog [get]
func (h *InvoiceHandler) ListCatalog(c *gin.Context) {
	c.JSON(http.StatusOK, response.Success(http.StatusOK, h.invoiceService.Catalog()))
}

// ListAgents returns every account for the director's agent filter
// @Summary      List agents
// @Tags         agents
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]service.AgentResponse}
// @Failure      403  {object}  response.Response
// @Router       /api/agents [get]
func (h *InvoiceHandler) ListAgents(c *gin.Context) {
	sess, ok := mustSession(c)
	if !ok {
		return
	}
	agents, err := h.invoiceService.ListAgents(c.Request.Context(), sess)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(http.StatusOK, agents))
}
