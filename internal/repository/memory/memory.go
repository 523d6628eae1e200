// Package memory is an in-process backend for the repository interfaces. It
// backs DATA_BACKEND=memory and the service tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/pkg/pagination"

	"github.com/google/uuid"
)

// Store holds every table behind one lock so cross-table reads are consistent.
type Store struct {
	mu       sync.RWMutex
	invoices map[uuid.UUID]model.Invoice
	agents   map[uuid.UUID]model.Agent
	clients  map[uuid.UUID]model.Client
	audit    []model.AuditLog
	now      func() time.Time
}

// New returns an empty store using clock for timestamps, or time.Now when nil.
func New(clock func() time.Time) *Store {
	if clock == nil {
		clock = time.Now
	}
	return &Store{
		invoices: make(map[uuid.UUID]model.Invoice),
		agents:   make(map[uuid.UUID]model.Agent),
		clients:  make(map[uuid.UUID]model.Client),
		now:      clock,
	}
}

// NewSet returns a repository.Set backed by a fresh Store.
func NewSet(clock func() time.Time) (repository.Set, *Store) {
	s := New(clock)
	return repository.Set{
		Invoices: invoiceRepo{s},
		Agents:   agentRepo{s},
		Clients:  clientRepo{s},
		Audit:    auditRepo{s},
		Tx:       txManager{},
	}, s
}

type txManager struct{}

// RunInTx runs fn directly; each repository call is atomic on its own.
func (txManager) RunInTx(ctx context.Context, fn func(txCtx context.Context) error) error {
	return fn(ctx)
}

// --- invoices ---

type invoiceRepo struct{ s *Store }

func cloneInvoice(inv model.Invoice) model.Invoice {
	inv.Items = slices.Clone(inv.Items)
	return inv
}

// hydrate attaches agent and client rows. Caller holds s.mu.
func (s *Store) hydrate(inv model.Invoice) model.Invoice {
	inv = cloneInvoice(inv)
	if a, ok := s.agents[inv.AgentID]; ok {
		inv.Agent = &a
	}
	if c, ok := s.clients[inv.ClientID]; ok {
		inv.Client = &c
	}
	return inv
}

func (r invoiceRepo) List(ctx context.Context, agentID *uuid.UUID) ([]model.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Invoice, 0, len(r.s.invoices))
	for _, inv := range r.s.invoices {
		if agentID != nil && inv.AgentID != *agentID {
			continue
		}
		out = append(out, r.s.hydrate(inv))
	}
	slices.SortFunc(out, func(a, b model.Invoice) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return strings.Compare(a.InvoiceNumber, b.InvoiceNumber)
	})
	return out, nil
}

func (r invoiceRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	inv, ok := r.s.invoices[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := r.s.hydrate(inv)
	return &out, nil
}

func (r invoiceRepo) Create(ctx context.Context, invoice *model.Invoice) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, existing := range r.s.invoices {
		if existing.InvoiceNumber == invoice.InvoiceNumber {
			return fmt.Errorf("duplicate invoice number %s", invoice.InvoiceNumber)
		}
	}
	if invoice.ID == uuid.Nil {
		invoice.ID = uuid.New()
	}
	now := r.s.now()
	if invoice.CreatedAt.IsZero() {
		invoice.CreatedAt = now
	}
	invoice.UpdatedAt = now
	for i := range invoice.Items {
		if invoice.Items[i].ID == uuid.Nil {
			invoice.Items[i].ID = uuid.New()
		}
		invoice.Items[i].InvoiceID = invoice.ID
	}
	stored := cloneInvoice(*invoice)
	stored.Agent, stored.Client = nil, nil
	r.s.invoices[invoice.ID] = stored
	return nil
}

func (r invoiceRepo) Update(ctx context.Context, invoice *model.Invoice, replaceItems bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.invoices[invoice.ID]
	if !ok {
		return repository.ErrNotFound
	}
	invoice.UpdatedAt = r.s.now()
	stored := cloneInvoice(*invoice)
	stored.Agent, stored.Client = nil, nil
	if replaceItems {
		for i := range stored.Items {
			if stored.Items[i].ID == uuid.Nil {
				stored.Items[i].ID = uuid.New()
			}
			stored.Items[i].InvoiceID = invoice.ID
		}
	} else {
		stored.Items = current.Items
	}
	r.s.invoices[invoice.ID] = stored
	return nil
}

func (r invoiceRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, ok := r.s.invoices[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.invoices, id)
	return nil
}

// --- agents ---

type agentRepo struct{ s *Store }

func (r agentRepo) Create(ctx context.Context, agent *model.Agent) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, a := range r.s.agents {
		if strings.EqualFold(a.Email, agent.Email) {
			return fmt.Errorf("duplicate agent email %s", agent.Email)
		}
	}
	if agent.ID == uuid.Nil {
		agent.ID = uuid.New()
	}
	now := r.s.now()
	agent.CreatedAt, agent.UpdatedAt = now, now
	r.s.agents[agent.ID] = *agent
	return nil
}

func (r agentRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	a, ok := r.s.agents[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &a, nil
}

func (r agentRepo) FindByEmail(ctx context.Context, email string) (*model.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, a := range r.s.agents {
		if strings.EqualFold(a.Email, email) {
			return &a, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r agentRepo) List(ctx context.Context) ([]model.Agent, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := make([]model.Agent, 0, len(r.s.agents))
	for _, a := range r.s.agents {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b model.Agent) int { return strings.Compare(a.Name, b.Name) })
	return out, nil
}

// --- clients ---

type clientRepo struct{ s *Store }

func (r clientRepo) GetOrCreate(ctx context.Context, client *model.Client) (*model.Client, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, c := range r.s.clients {
		if c.Email == client.Email {
			return &c, nil
		}
	}
	created := *client
	if created.ID == uuid.Nil {
		created.ID = uuid.New()
	}
	created.CreatedAt = r.s.now()
	r.s.clients[created.ID] = created
	return &created, nil
}

// --- audit ---

type auditRepo struct{ s *Store }

func (r auditRepo) Log(ctx context.Context, entry *model.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.s.now()
	}
	r.s.audit = append(r.s.audit, *entry)
	return nil
}

func (r auditRepo) List(ctx context.Context, filter repository.AuditFilter, page pagination.Params) ([]model.AuditLog, int64, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	// newest first
	logs := make([]model.AuditLog, 0, len(r.s.audit))
	for i := len(r.s.audit) - 1; i >= 0; i-- {
		l := r.s.audit[i]
		if filter.Action != "" && l.Action != filter.Action {
			continue
		}
		if filter.EntityID != "" && l.EntityID != filter.EntityID {
			continue
		}
		if l.AgentID != nil {
			if a, ok := r.s.agents[*l.AgentID]; ok {
				l.Agent = &a
			}
		}
		logs = append(logs, l)
	}
	return pagination.Slice(logs, page), int64(len(logs)), nil
}
