package service

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"

	"invoicing/internal/billing"
	"invoicing/internal/export"
	applog "invoicing/internal/log"
	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/internal/session"
	"invoicing/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	dateLayout      = "2006-01-02"
	timestampLayout = "2006-01-02T15:04:05Z07:00"
	defaultDueDays  = 30
)

// --- DTOs ---

type ClientInput struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ItemInput struct {
	Description string          `json:"description"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price" swaggertype:"string" example:"125.00"`
}

type CreateInvoiceRequest struct {
	Client  ClientInput `json:"client"`
	Items   []ItemInput `json:"items"`
	Status  string      `json:"status" example:"draft"` // draft or sent, defaults to draft
	DueDate string      `json:"due_date" example:"2026-04-30"`
	Notes   string      `json:"notes"`
}

// UpdateInvoiceRequest is a partial update. Nil fields are left unchanged;
// a non-nil Items replaces every line and recomputes the totals.
type UpdateInvoiceRequest struct {
	Status  *string     `json:"status"`
	DueDate *string     `json:"due_date"`
	Notes   *string     `json:"notes"`
	Items   []ItemInput `json:"items"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required" example:"paid"`
}

type InvoiceFilter struct {
	Window  billing.Window
	AgentID string // director only; "all" or empty for every agent
}

type ClientResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type ItemResponse struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

type InvoiceResponse struct {
	ID            string         `json:"id"`
	InvoiceNumber string         `json:"invoice_number"`
	AgentID       string         `json:"agent_id"`
	AgentName     string         `json:"agent_name"`
	Client        ClientResponse `json:"client"`
	Items         []ItemResponse `json:"items"`
	Subtotal      string         `json:"subtotal"`
	Tax           string         `json:"tax"`
	Total         string         `json:"total"`
	Status        string         `json:"status"`
	DueDate       string         `json:"due_date"`
	Notes         string         `json:"notes"`
	CreatedAt     string         `json:"created_at"`
	UpdatedAt     string         `json:"updated_at"`
}

// CatalogResponse lists what an invoice line may bill and the tax rate applied.
type CatalogResponse struct {
	Services []string `json:"services"`
	TaxRate  string   `json:"tax_rate" example:"0.10"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, sess *session.Session, req CreateInvoiceRequest) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, sess *session.Session, filter InvoiceFilter) ([]InvoiceResponse, error)
	GetInvoice(ctx context.Context, sess *session.Session, id uuid.UUID) (InvoiceResponse, error)
	// Document renders the invoice as a PDF and returns it with its file name.
	Document(ctx context.Context, sess *session.Session, id uuid.UUID) ([]byte, string, error)
	UpdateInvoice(ctx context.Context, sess *session.Session, id uuid.UUID, req UpdateInvoiceRequest) (InvoiceResponse, error)
	UpdateStatus(ctx context.Context, sess *session.Session, id uuid.UUID, status string) (InvoiceResponse, error)
	DeleteInvoice(ctx context.Context, sess *session.Session, id uuid.UUID) error
	ListAgents(ctx context.Context, sess *session.Session) ([]AgentResponse, error)
	Catalog() CatalogResponse
}

type invoiceService struct {
	repos    repository.Set
	numbers  *billing.NumberGenerator
	taxRate  decimal.Decimal
	notifier Notifier
	now      func() time.Time
	logger   *applog.Logger
}

// NewInvoiceService wires the invoice workflow. A nil notifier disables
// realtime events; a nil clock uses time.Now.
func NewInvoiceService(
	repos repository.Set,
	numbers *billing.NumberGenerator,
	taxRate decimal.Decimal,
	notifier Notifier,
	clock func() time.Time,
	logger *applog.Logger,
) InvoiceService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if clock == nil {
		clock = time.Now
	}
	return &invoiceService{
		repos:    repos,
		numbers:  numbers,
		taxRate:  taxRate,
		notifier: notifier,
		now:      clock,
		logger:   logger.WithComponent(applog.ComponentInvoice),
	}
}

// --- Helpers ---

func toInvoiceResponse(inv *model.Invoice) InvoiceResponse {
	res := InvoiceResponse{
		ID:            inv.ID.String(),
		InvoiceNumber: inv.InvoiceNumber,
		AgentID:       inv.AgentID.String(),
		Items:         make([]ItemResponse, 0, len(inv.Items)),
		Subtotal:      inv.Subtotal.StringFixed(billing.CurrencyPlaces),
		Tax:           inv.Tax.StringFixed(billing.CurrencyPlaces),
		Total:         inv.Total.StringFixed(billing.CurrencyPlaces),
		Status:        string(inv.Status),
		Notes:         inv.Notes,
		CreatedAt:     inv.CreatedAt.Format(timestampLayout),
		UpdatedAt:     inv.UpdatedAt.Format(timestampLayout),
	}
	if !inv.DueDate.IsZero() {
		res.DueDate = inv.DueDate.Format(dateLayout)
	}
	if inv.Agent != nil {
		res.AgentName = inv.Agent.Name
	}
	if inv.Client != nil {
		res.Client = ClientResponse{
			ID:      inv.Client.ID.String(),
			Name:    inv.Client.Name,
			Email:   inv.Client.Email,
			Phone:   inv.Client.Phone,
			Address: inv.Client.Address,
		}
	}
	for _, it := range inv.Items {
		res.Items = append(res.Items, ItemResponse{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.StringFixed(billing.CurrencyPlaces),
			Total:       it.Total.StringFixed(billing.CurrencyPlaces),
		})
	}
	return res
}

func toItemDrafts(items []ItemInput) []billing.ItemDraft {
	drafts := make([]billing.ItemDraft, 0, len(items))
	for _, it := range items {
		drafts = append(drafts, billing.ItemDraft{
			Description: strings.TrimSpace(it.Description),
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
		})
	}
	return drafts
}

// priceItems computes the totals for validated drafts and returns the rows to store.
func (s *invoiceService) priceItems(drafts []billing.ItemDraft) ([]model.InvoiceItem, billing.Totals, error) {
	totals, err := billing.Compute(billing.Lines(drafts), s.taxRate)
	if err != nil {
		return nil, billing.Totals{}, err
	}
	items := make([]model.InvoiceItem, 0, len(drafts))
	for i, d := range drafts {
		items = append(items, model.InvoiceItem{
			Position:    i,
			Description: d.Description,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
			Total:       totals.ItemTotals[i],
		})
	}
	return items, totals, nil
}

func parseDueDate(value string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(dateLayout, strings.TrimSpace(value), loc)
	if err != nil {
		return time.Time{}, inputError("due_date", "must be a date formatted YYYY-MM-DD")
	}
	return d, nil
}

func parseStatus(value string) (model.InvoiceStatus, error) {
	st := model.InvoiceStatus(strings.ToLower(strings.TrimSpace(value)))
	if !st.Valid() {
		return "", inputError("status", fmt.Sprintf("%q is not one of draft, sent, paid, overdue", value))
	}
	return st, nil
}

// scopeOf is the agent filter for repository listings: the agent's own id,
// or nil for directors.
func scopeOf(sess *session.Session) *uuid.UUID {
	if sess.IsDirector() {
		return nil
	}
	id := sess.AgentID
	return &id
}

// canAccess reports whether sess may read or modify inv.
func canAccess(sess *session.Session, inv *model.Invoice) bool {
	return sess.IsDirector() || inv.AgentID == sess.AgentID
}

func (s *invoiceService) audit(ctx context.Context, sess *session.Session, action string, entityID uuid.UUID, details map[string]interface{}) error {
	payload, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode audit details: %w", err)
	}
	agentID := sess.AgentID
	entry := model.AuditLog{
		AgentID:  &agentID,
		Action:   action,
		EntityID: entityID.String(),
		Details:  string(payload),
	}
	if err := s.repos.Audit.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write audit log: %w", err)
	}
	return nil
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, sess *session.Session, req CreateInvoiceRequest) (InvoiceResponse, error) {
	if sess.IsDirector() {
		return InvoiceResponse{}, fmt.Errorf("%w: directors cannot create invoices", ErrForbidden)
	}

	status := model.StatusDraft
	if req.Status != "" {
		st, err := parseStatus(req.Status)
		if err != nil {
			return InvoiceResponse{}, err
		}
		if !st.Creatable() {
			return InvoiceResponse{}, inputError("status", "new invoices must be draft or sent")
		}
		status = st
	}

	draft := billing.Draft{
		Client: billing.ClientDraft{
			Name:    strings.TrimSpace(req.Client.Name),
			Email:   strings.ToLower(strings.TrimSpace(req.Client.Email)),
			Phone:   strings.TrimSpace(req.Client.Phone),
			Address: strings.TrimSpace(req.Client.Address),
		},
		Items: toItemDrafts(req.Items),
	}
	if err := billing.ValidateDraft(draft); err != nil {
		return InvoiceResponse{}, err
	}

	items, totals, err := s.priceItems(draft.Items)
	if err != nil {
		return InvoiceResponse{}, err
	}

	now := s.now()
	dueDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()).AddDate(0, 0, defaultDueDays)
	if req.DueDate != "" {
		if dueDate, err = parseDueDate(req.DueDate, now.Location()); err != nil {
			return InvoiceResponse{}, err
		}
	}

	invoice := model.Invoice{
		InvoiceNumber: s.numbers.Generate(),
		AgentID:       sess.AgentID,
		Items:         items,
		Subtotal:      totals.Subtotal,
		Tax:           totals.Tax,
		Total:         totals.Total,
		Status:        status,
		DueDate:       dueDate,
		Notes:         strings.TrimSpace(req.Notes),
		CreatedAt:     now,
	}

	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		client, err := s.repos.Clients.GetOrCreate(txCtx, &model.Client{
			Name:    draft.Client.Name,
			Email:   draft.Client.Email,
			Phone:   draft.Client.Phone,
			Address: draft.Client.Address,
		})
		if err != nil {
			return fmt.Errorf("failed to resolve client: %w", err)
		}
		invoice.ClientID = client.ID

		if err := s.repos.Invoices.Create(txCtx, &invoice); err != nil {
			return fmt.Errorf("failed to create invoice: %w", err)
		}

		return s.audit(txCtx, sess, model.ActionCreateInvoice, invoice.ID, map[string]interface{}{
			"invoice_number": invoice.InvoiceNumber,
			"client_email":   draft.Client.Email,
			"total":          invoice.Total.StringFixed(billing.CurrencyPlaces),
			"status":         invoice.Status,
		})
	})
	if err != nil {
		return InvoiceResponse{}, err
	}

	reloaded, err := s.repos.Invoices.FindByID(ctx, invoice.ID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}
	res := toInvoiceResponse(reloaded)

	s.logger.InfoContext(ctx, "invoice created", applog.NewFields().
		WithOperation(applog.OpCreate).
		WithAgent(sess.AgentID.String(), string(sess.Role)).
		WithInvoice(res.ID, res.InvoiceNumber, res.Total).
		ToSlice()...)
	s.notifier.Publish(websocket.EventInvoiceCreated, reloaded.AgentID, res)

	return res, nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, sess *session.Session, filter InvoiceFilter) ([]InvoiceResponse, error) {
	invoices, err := s.repos.Invoices.List(ctx, scopeOf(sess))
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	if sess.IsDirector() {
		invoices = billing.FilterByAgent(invoices, filter.AgentID)
	}
	invoices = billing.SortByCreatedDesc(billing.FilterByWindow(invoices, filter.Window, s.now()))

	res := make([]InvoiceResponse, 0, len(invoices))
	for i := range invoices {
		res = append(res, toInvoiceResponse(&invoices[i]))
	}
	return res, nil
}

// load returns the stored invoice with its relations when sess may access it.
func (s *invoiceService) load(ctx context.Context, sess *session.Session, id uuid.UUID) (*model.Invoice, error) {
	inv, err := s.repos.Invoices.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("invoice %s: %w", id, err)
	}
	if !canAccess(sess, inv) {
		return nil, fmt.Errorf("%w: invoice belongs to another agent", ErrForbidden)
	}
	return inv, nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, sess *session.Session, id uuid.UUID) (InvoiceResponse, error) {
	inv, err := s.load(ctx, sess, id)
	if err != nil {
		return InvoiceResponse{}, err
	}
	return toInvoiceResponse(inv), nil
}

func (s *invoiceService) Document(ctx context.Context, sess *session.Session, id uuid.UUID) ([]byte, string, error) {
	inv, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, "", err
	}
	doc, err := export.RenderPDF(inv)
	if err != nil {
		return nil, "", err
	}
	s.logger.InfoContext(ctx, "invoice exported", applog.NewFields().
		WithOperation(applog.OpRender).
		WithAgent(sess.AgentID.String(), string(sess.Role)).
		WithInvoice(inv.ID.String(), inv.InvoiceNumber, inv.Total.StringFixed(billing.CurrencyPlaces)).
		ToSlice()...)
	return doc, export.FileName(inv), nil
}

func (s *invoiceService) UpdateInvoice(ctx context.Context, sess *session.Session, id uuid.UUID, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	inv, err := s.load(ctx, sess, id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	changed := map[string]interface{}{}
	if req.Status != nil {
		st, err := parseStatus(*req.Status)
		if err != nil {
			return InvoiceResponse{}, err
		}
		inv.Status = st
		changed["status"] = st
	}
	if req.DueDate != nil {
		d, err := parseDueDate(*req.DueDate, s.now().Location())
		if err != nil {
			return InvoiceResponse{}, err
		}
		inv.DueDate = d
		changed["due_date"] = d.Format(dateLayout)
	}
	if req.Notes != nil {
		inv.Notes = strings.TrimSpace(*req.Notes)
		changed["notes"] = inv.Notes
	}
	replaceItems := req.Items != nil
	if replaceItems {
		drafts := toItemDrafts(req.Items)
		if err := billing.ValidateItems(drafts); err != nil {
			return InvoiceResponse{}, err
		}
		items, totals, err := s.priceItems(drafts)
		if err != nil {
			return InvoiceResponse{}, err
		}
		for i := range items {
			items[i].InvoiceID = inv.ID
		}
		inv.Items = items
		inv.Subtotal, inv.Tax, inv.Total = totals.Subtotal, totals.Tax, totals.Total
		changed["items"] = len(items)
		changed["total"] = totals.Total.StringFixed(billing.CurrencyPlaces)
	}
	if len(changed) == 0 {
		return InvoiceResponse{}, inputError("body", "no fields to update")
	}

	if err := s.save(ctx, sess, inv, replaceItems, model.ActionUpdateInvoice, changed); err != nil {
		return InvoiceResponse{}, err
	}
	return s.reloadAndPublish(ctx, sess, inv.ID, applog.OpUpdate)
}

func (s *invoiceService) UpdateStatus(ctx context.Context, sess *session.Session, id uuid.UUID, status string) (InvoiceResponse, error) {
	st, err := parseStatus(status)
	if err != nil {
		return InvoiceResponse{}, err
	}
	inv, err := s.load(ctx, sess, id)
	if err != nil {
		return InvoiceResponse{}, err
	}

	previous := inv.Status
	inv.Status = st
	if err := s.save(ctx, sess, inv, false, model.ActionUpdateInvoiceStatus, map[string]interface{}{
		"from": previous,
		"to":   st,
	}); err != nil {
		return InvoiceResponse{}, err
	}
	return s.reloadAndPublish(ctx, sess, inv.ID, applog.OpUpdate)
}

func (s *invoiceService) save(ctx context.Context, sess *session.Session, inv *model.Invoice, replaceItems bool, action string, details map[string]interface{}) error {
	return s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Invoices.Update(txCtx, inv, replaceItems); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		details["invoice_number"] = inv.InvoiceNumber
		return s.audit(txCtx, sess, action, inv.ID, details)
	})
}

func (s *invoiceService) reloadAndPublish(ctx context.Context, sess *session.Session, id uuid.UUID, op string) (InvoiceResponse, error) {
	reloaded, err := s.repos.Invoices.FindByID(ctx, id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}
	res := toInvoiceResponse(reloaded)

	s.logger.InfoContext(ctx, "invoice updated", applog.NewFields().
		WithOperation(op).
		WithAgent(sess.AgentID.String(), string(sess.Role)).
		WithInvoice(res.ID, res.InvoiceNumber, res.Total).
		ToSlice()...)
	s.notifier.Publish(websocket.EventInvoiceUpdated, reloaded.AgentID, res)
	return res, nil
}

// DeleteInvoice removes an invoice. Only the owning agent may delete; the
// director role is read-and-update only.
func (s *invoiceService) DeleteInvoice(ctx context.Context, sess *session.Session, id uuid.UUID) error {
	if sess.IsDirector() {
		return fmt.Errorf("%w: directors cannot delete invoices", ErrForbidden)
	}
	inv, err := s.load(ctx, sess, id)
	if err != nil {
		return err
	}

	err = s.repos.Tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.repos.Invoices.Delete(txCtx, id); err != nil {
			return fmt.Errorf("failed to delete invoice: %w", err)
		}
		return s.audit(txCtx, sess, model.ActionDeleteInvoice, id, map[string]interface{}{
			"invoice_number": inv.InvoiceNumber,
			"total":          inv.Total.StringFixed(billing.CurrencyPlaces),
		})
	})
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "invoice deleted", applog.NewFields().
		WithOperation(applog.OpDelete).
		WithAgent(sess.AgentID.String(), string(sess.Role)).
		WithInvoice(id.String(), inv.InvoiceNumber, inv.Total.StringFixed(billing.CurrencyPlaces)).
		ToSlice()...)
	s.notifier.Publish(websocket.EventInvoiceDeleted, inv.AgentID, map[string]string{
		"id":             id.String(),
		"invoice_number": inv.InvoiceNumber,
	})
	return nil
}

// ListAgents returns every account for the director's agent filter.
func (s *invoiceService) ListAgents(ctx context.Context, sess *session.Session) ([]AgentResponse, error) {
	if !sess.IsDirector() {
		return nil, fmt.Errorf("%w: director only", ErrForbidden)
	}
	agents, err := s.repos.Agents.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	res := make([]AgentResponse, 0, len(agents))
	for i := range agents {
		res = append(res, toAgentResponse(&agents[i]))
	}
	return res, nil
}

func (s *invoiceService) Catalog() CatalogResponse {
	return CatalogResponse{
		Services: slices.Clone(billing.TravelServices),
		TaxRate:  s.taxRate.String(),
	}
}
