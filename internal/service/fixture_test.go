package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"invoicing/internal/billing"
	applog "invoicing/internal/log"
	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/internal/repository/memory"
	"invoicing/internal/session"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type published struct {
	eventType string
	owner     uuid.UUID
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []published
}

func (n *recordingNotifier) Publish(eventType string, owner uuid.UUID, _ any) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, published{eventType: eventType, owner: owner})
}

type fixture struct {
	now      time.Time
	repos    repository.Set
	store    *memory.Store
	sessions session.Store
	notifier *recordingNotifier
	invoices InvoiceService
}

func newFixture(t *testing.T, taxRate decimal.Decimal) *fixture {
	t.Helper()
	f := &fixture{now: time.Date(2026, 3, 9, 10, 0, 0, 0, time.UTC), notifier: &recordingNotifier{}}
	clock := func() time.Time { return f.now }

	// Invoice numbers are time based; tick a separate clock so every
	// generated number in a test is distinct.
	var tick int
	numbers := billing.NewNumberGenerator(func() time.Time {
		tick++
		return f.now.Add(time.Duration(tick) * time.Millisecond)
	})

	f.repos, f.store = memory.NewSet(clock)
	f.sessions = session.NewMemoryStore(clock)
	f.invoices = NewInvoiceService(f.repos, numbers, taxRate, f.notifier, clock, applog.Discard())
	return f
}

// signIn stores an account directly and returns a live session for it.
func (f *fixture) signIn(t *testing.T, name string, role model.Role) *session.Session {
	t.Helper()
	agent := &model.Agent{Name: name, Email: name + "@agency.test", Department: "Sales", Role: role}
	if err := f.repos.Agents.Create(context.Background(), agent); err != nil {
		t.Fatalf("create agent %s: %v", name, err)
	}
	sess := session.New(agent, f.now, time.Hour)
	if err := f.sessions.Create(context.Background(), sess); err != nil {
		t.Fatalf("save session: %v", err)
	}
	return sess
}

func item(desc string, qty int, price string) ItemInput {
	return ItemInput{Description: desc, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func (f *fixture) create(t *testing.T, sess *session.Session, email string, items ...ItemInput) InvoiceResponse {
	t.Helper()
	res, err := f.invoices.CreateInvoice(context.Background(), sess, CreateInvoiceRequest{
		Client: ClientInput{Name: "Client " + email, Email: email},
		Items:  items,
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	return res
}

func mustParse(t *testing.T, id string) uuid.UUID {
	t.Helper()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("bad uuid %q: %v", id, err)
	}
	return parsed
}
