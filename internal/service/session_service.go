package service

import (
	"context"
	"errors"
	"fmt"

	applog "invoicing/internal/log"
	"invoicing/internal/repository"
	"invoicing/internal/session"

	"github.com/google/uuid"
)

type NavigateRequest struct {
	Screen    string `json:"screen" binding:"required" example:"view"`
	InvoiceID string `json:"invoice_id"`
}

type SessionResponse struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Screen    string `json:"screen"`
	InvoiceID string `json:"invoice_id,omitempty"`
	ExpiresAt string `json:"expires_at"`
}

func toSessionResponse(s *session.Session) SessionResponse {
	res := SessionResponse{
		ID:        s.ID.String(),
		AgentID:   s.AgentID.String(),
		Name:      s.Name,
		Role:      string(s.Role),
		Screen:    string(s.Screen),
		ExpiresAt: s.ExpiresAt.Format(timestampLayout),
	}
	if s.InvoiceID != nil {
		res.InvoiceID = s.InvoiceID.String()
	}
	return res
}

// SessionService exposes the signed-in session and moves it between screens.
type SessionService interface {
	Current(sess *session.Session) SessionResponse
	Navigate(ctx context.Context, sess *session.Session, req NavigateRequest) (*SessionResponse, error)
}

type sessionService struct {
	store    session.Store
	invoices repository.InvoiceRepository
	logger   *applog.Logger
}

func NewSessionService(store session.Store, invoices repository.InvoiceRepository, logger *applog.Logger) SessionService {
	return &sessionService{
		store:    store,
		invoices: invoices,
		logger:   logger.WithComponent(applog.ComponentSession),
	}
}

func (s *sessionService) Current(sess *session.Session) SessionResponse {
	return toSessionResponse(sess)
}

// Navigate applies one screen transition. Entering the view screen requires an
// invoice the session is allowed to read.
func (s *sessionService) Navigate(ctx context.Context, sess *session.Session, req NavigateRequest) (*SessionResponse, error) {
	var invoiceID *uuid.UUID
	if req.InvoiceID != "" {
		id, err := uuid.Parse(req.InvoiceID)
		if err != nil {
			return nil, inputError("invoice_id", "must be a UUID")
		}
		invoiceID = &id
	}

	if session.Screen(req.Screen) == session.ScreenView && invoiceID != nil {
		inv, err := s.invoices.FindByID(ctx, *invoiceID)
		if err != nil {
			return nil, fmt.Errorf("invoice %s: %w", *invoiceID, err)
		}
		if !canAccess(sess, inv) {
			return nil, fmt.Errorf("%w: invoice belongs to another agent", ErrForbidden)
		}
	}

	next := *sess
	if err := next.Navigate(session.Screen(req.Screen), invoiceID); err != nil {
		return nil, err
	}
	if err := s.store.Save(ctx, &next); err != nil {
		if errors.Is(err, session.ErrNotFound) {
			return nil, fmt.Errorf("%w: session ended", ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to save session: %w", err)
	}

	s.logger.DebugContext(ctx, "session navigated",
		applog.FieldSessionID, next.ID.String(),
		applog.FieldScreen, string(next.Screen))

	*sess = next
	res := toSessionResponse(sess)
	return &res, nil
}
