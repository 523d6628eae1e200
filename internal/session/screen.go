package session

import (
	"errors"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// Screen is the UI screen the session is on.
type Screen string

const (
	ScreenDashboard   Screen = "dashboard"
	ScreenCreate      Screen = "create"
	ScreenView        Screen = "view"
	ScreenAllInvoices Screen = "all-invoices"
)

var ErrInvalidTransition = errors.New("invalid screen transition")

var transitions = map[Screen][]Screen{
	ScreenDashboard:   {ScreenCreate, ScreenView, ScreenAllInvoices},
	ScreenCreate:      {ScreenDashboard},
	ScreenView:        {ScreenDashboard, ScreenAllInvoices},
	ScreenAllInvoices: {ScreenDashboard, ScreenView},
}

func (s Screen) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// CanMove reports whether to is reachable from s in one step.
func (s Screen) CanMove(to Screen) bool {
	return slices.Contains(transitions[s], to)
}

// Navigate moves the session to screen. Entering view requires an invoice;
// every other screen clears it. Directors cannot enter create.
func (s *Session) Navigate(to Screen, invoiceID *uuid.UUID) error {
	if !to.Valid() {
		return fmt.Errorf("%w: unknown screen %q", ErrInvalidTransition, to)
	}
	if !s.Screen.CanMove(to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s.Screen, to)
	}
	if to == ScreenCreate && s.IsDirector() {
		return fmt.Errorf("%w: directors cannot create invoices", ErrInvalidTransition)
	}
	if to == ScreenView {
		if invoiceID == nil || *invoiceID == uuid.Nil {
			return fmt.Errorf("%w: view requires an invoice", ErrInvalidTransition)
		}
		id := *invoiceID
		s.InvoiceID = &id
	} else {
		s.InvoiceID = nil
	}
	s.Screen = to
	return nil
}
