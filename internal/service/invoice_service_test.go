package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"invoicing/internal/billing"
	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/internal/session"
	"invoicing/internal/websocket"
	"invoicing/pkg/pagination"

	"github.com/shopspring/decimal"
)

func TestCreateInvoice(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)

	res, err := f.invoices.CreateInvoice(context.Background(), ana, CreateInvoiceRequest{
		Client: ClientInput{Name: " Maria Lopez ", Email: "Maria@Example.com", Phone: "555-0100"},
		Items: []ItemInput{
			item("Flight Booking", 2, "100"),
			item("Hotel Reservation", 1, "50"),
		},
		Notes: "window seat",
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}

	if res.Subtotal != "250.00" || res.Tax != "25.00" || res.Total != "275.00" {
		t.Fatalf("totals = %s/%s/%s, want 250.00/25.00/275.00", res.Subtotal, res.Tax, res.Total)
	}
	if !strings.HasPrefix(res.InvoiceNumber, "INV-20260309-") {
		t.Fatalf("invoice number = %s", res.InvoiceNumber)
	}
	if res.Status != "draft" || res.DueDate != "2026-04-08" {
		t.Fatalf("status/due = %s/%s, want draft/2026-04-08", res.Status, res.DueDate)
	}
	if res.Client.Email != "maria@example.com" || res.Client.Name != "Maria Lopez" {
		t.Fatalf("client not normalized: %+v", res.Client)
	}
	if res.AgentName != "ana" || len(res.Items) != 2 || res.Items[0].Total != "200.00" {
		t.Fatalf("unexpected invoice: %+v", res)
	}

	logs, total, _ := f.repos.Audit.List(context.Background(), repository.AuditFilter{}, pagination.New(1, 10))
	if total != 1 || logs[0].Action != model.ActionCreateInvoice || logs[0].EntityID != res.ID {
		t.Fatalf("audit trail = %+v", logs)
	}
	if len(f.notifier.events) != 1 || f.notifier.events[0].eventType != websocket.EventInvoiceCreated || f.notifier.events[0].owner != ana.AgentID {
		t.Fatalf("events = %+v", f.notifier.events)
	}
}

func TestCreateInvoiceRejections(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)
	client := ClientInput{Name: "Maria", Email: "maria@example.com"}

	tests := []struct {
		name    string
		req     CreateInvoiceRequest
		wantErr error
	}{
		{"no items", CreateInvoiceRequest{Client: client}, billing.ErrInvalidInput},
		{"missing client email", CreateInvoiceRequest{Client: ClientInput{Name: "Maria"}, Items: []ItemInput{item("Car Rental", 1, "10")}}, billing.ErrInvalidInput},
		{"unknown service", CreateInvoiceRequest{Client: client, Items: []ItemInput{item("Space Trip", 1, "10")}}, billing.ErrInvalidInput},
		{"zero quantity", CreateInvoiceRequest{Client: client, Items: []ItemInput{item("Car Rental", 0, "10")}}, billing.ErrInvalidInput},
		{"negative price", CreateInvoiceRequest{Client: client, Items: []ItemInput{item("Car Rental", 1, "-1")}}, billing.ErrInvalidInput},
		{"created as paid", CreateInvoiceRequest{Client: client, Items: []ItemInput{item("Car Rental", 1, "10")}, Status: "paid"}, billing.ErrInvalidInput},
		{"bad due date", CreateInvoiceRequest{Client: client, Items: []ItemInput{item("Car Rental", 1, "10")}, DueDate: "09/03/2026"}, billing.ErrInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.invoices.CreateInvoice(context.Background(), ana, tt.req); !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}

	t.Run("director", func(t *testing.T) {
		req := CreateInvoiceRequest{Client: client, Items: []ItemInput{item("Car Rental", 1, "10")}}
		if _, err := f.invoices.CreateInvoice(context.Background(), boss, req); !errors.Is(err, ErrForbidden) {
			t.Fatalf("error = %v, want ErrForbidden", err)
		}
	})

	if list, _ := f.repos.Invoices.List(context.Background(), nil); len(list) != 0 {
		t.Fatalf("rejected submissions were stored: %d", len(list))
	}
}

func TestCreateInvoiceSentWithDueDate(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)

	res, err := f.invoices.CreateInvoice(context.Background(), ana, CreateInvoiceRequest{
		Client:  ClientInput{Name: "Maria", Email: "maria@example.com"},
		Items:   []ItemInput{item("Visa Processing", 1, "10.05")},
		Status:  "Sent",
		DueDate: "2026-05-01",
	})
	if err != nil {
		t.Fatalf("CreateInvoice: %v", err)
	}
	if res.Status != "sent" || res.DueDate != "2026-05-01" || res.Tax != "1.01" || res.Total != "11.06" {
		t.Fatalf("unexpected invoice: %+v", res)
	}
}

func TestClientsAreSharedByEmail(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)

	first := f.create(t, ana, "maria@example.com", item("Car Rental", 1, "10"))
	second := f.create(t, ana, "MARIA@example.com", item("Tour Package", 1, "20"))

	if first.Client.ID != second.Client.ID {
		t.Fatalf("client duplicated: %s vs %s", first.Client.ID, second.Client.ID)
	}
	if first.InvoiceNumber == second.InvoiceNumber {
		t.Fatalf("duplicate invoice numbers %s", first.InvoiceNumber)
	}
}

func TestListInvoicesScope(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	ana := f.signIn(t, "ana", model.RoleAgent)
	ben := f.signIn(t, "ben", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)
	ctx := context.Background()

	f.now = f.now.Add(-24 * time.Hour)
	yesterday := f.create(t, ana, "a@example.com", item("Car Rental", 1, "10"))
	f.now = f.now.Add(24 * time.Hour)
	today := f.create(t, ana, "b@example.com", item("Car Rental", 1, "20"))
	bens := f.create(t, ben, "c@example.com", item("Car Rental", 1, "30"))

	own, err := f.invoices.ListInvoices(ctx, ana, InvoiceFilter{Window: billing.WindowAll, AgentID: ben.AgentID.String()})
	if err != nil {
		t.Fatalf("ListInvoices: %v", err)
	}
	if len(own) != 2 || own[0].ID != today.ID || own[1].ID != yesterday.ID {
		t.Fatalf("agent listing = %+v", own)
	}

	all, _ := f.invoices.ListInvoices(ctx, boss, InvoiceFilter{Window: billing.WindowAll, AgentID: billing.AllAgents})
	if len(all) != 3 {
		t.Fatalf("director listing has %d invoices, want 3", len(all))
	}

	onlyBen, _ := f.invoices.ListInvoices(ctx, boss, InvoiceFilter{AgentID: ben.AgentID.String()})
	if len(onlyBen) != 1 || onlyBen[0].ID != bens.ID {
		t.Fatalf("director agent filter = %+v", onlyBen)
	}

	todays, _ := f.invoices.ListInvoices(ctx, ana, InvoiceFilter{Window: billing.WindowToday})
	if len(todays) != 1 || todays[0].ID != today.ID {
		t.Fatalf("today window = %+v", todays)
	}
}

func TestUpdateInvoice(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)
	ben := f.signIn(t, "ben", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)
	ctx := context.Background()

	created := f.create(t, ana, "maria@example.com", item("Car Rental", 1, "10"))
	id := mustParse(t, created.ID)

	notes := "updated"
	updated, err := f.invoices.UpdateInvoice(ctx, ana, id, UpdateInvoiceRequest{
		Notes: &notes,
		Items: []ItemInput{item("Cruise Booking", 2, "500"), item("Travel Insurance", 1, "40")},
	})
	if err != nil {
		t.Fatalf("UpdateInvoice: %v", err)
	}
	if updated.Subtotal != "1040.00" || updated.Tax != "104.00" || updated.Total != "1144.00" || len(updated.Items) != 2 {
		t.Fatalf("totals not recomputed: %+v", updated)
	}
	if updated.Notes != "updated" || updated.InvoiceNumber != created.InvoiceNumber || updated.Status != "draft" {
		t.Fatalf("unexpected update: %+v", updated)
	}

	due := "2026-06-30"
	dueOnly, err := f.invoices.UpdateInvoice(ctx, ana, id, UpdateInvoiceRequest{DueDate: &due})
	if err != nil || dueOnly.DueDate != due || dueOnly.Total != "1144.00" || len(dueOnly.Items) != 2 {
		t.Fatalf("partial update = %+v, %v", dueOnly, err)
	}

	if _, err := f.invoices.UpdateInvoice(ctx, ana, id, UpdateInvoiceRequest{}); !errors.Is(err, billing.ErrInvalidInput) {
		t.Fatalf("empty update error = %v", err)
	}
	if _, err := f.invoices.UpdateInvoice(ctx, ana, id, UpdateInvoiceRequest{Items: []ItemInput{}}); !errors.Is(err, billing.ErrInvalidInput) {
		t.Fatalf("empty items error = %v", err)
	}
	if _, err := f.invoices.UpdateInvoice(ctx, ben, id, UpdateInvoiceRequest{Notes: &notes}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other agent error = %v", err)
	}

	paid, err := f.invoices.UpdateStatus(ctx, boss, id, "paid")
	if err != nil || paid.Status != "paid" {
		t.Fatalf("director status update = %+v, %v", paid, err)
	}
	back, err := f.invoices.UpdateStatus(ctx, ana, id, "draft")
	if err != nil || back.Status != "draft" {
		t.Fatalf("status should move freely: %+v, %v", back, err)
	}
	if _, err := f.invoices.UpdateStatus(ctx, ana, id, "cancelled"); !errors.Is(err, billing.ErrInvalidInput) {
		t.Fatalf("invalid status error = %v", err)
	}

	var updates int
	for _, ev := range f.notifier.events {
		if ev.eventType == websocket.EventInvoiceUpdated {
			updates++
		}
	}
	if updates != 4 {
		t.Fatalf("published %d update events, want 4", updates)
	}
}

func TestDeleteInvoice(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)
	ben := f.signIn(t, "ben", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)
	ctx := context.Background()

	id := mustParse(t, f.create(t, ana, "maria@example.com", item("Car Rental", 1, "10")).ID)

	if err := f.invoices.DeleteInvoice(ctx, boss, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("director delete error = %v", err)
	}
	if err := f.invoices.DeleteInvoice(ctx, ben, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other agent delete error = %v", err)
	}
	if err := f.invoices.DeleteInvoice(ctx, ana, id); err != nil {
		t.Fatalf("DeleteInvoice: %v", err)
	}
	if _, err := f.invoices.GetInvoice(ctx, ana, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("deleted invoice still readable: %v", err)
	}
	if err := f.invoices.DeleteInvoice(ctx, ana, id); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second delete error = %v", err)
	}

	logs, _, _ := f.repos.Audit.List(ctx, repository.AuditFilter{}, pagination.New(1, 1))
	if logs[0].Action != model.ActionDeleteInvoice {
		t.Fatalf("last audit action = %s", logs[0].Action)
	}
}

func TestListAgents(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)

	if _, err := f.invoices.ListAgents(context.Background(), ana); !errors.Is(err, ErrForbidden) {
		t.Fatalf("agent error = %v", err)
	}
	agents, err := f.invoices.ListAgents(context.Background(), boss)
	if err != nil || len(agents) != 2 || agents[0].Name != "ana" || agents[1].Role != "director" {
		t.Fatalf("agents = %+v, %v", agents, err)
	}
}

func TestDocument(t *testing.T) {
	f := newFixture(t, billing.DefaultTaxRate)
	ana := f.signIn(t, "ana", model.RoleAgent)
	ben := f.signIn(t, "ben", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)
	ctx := context.Background()

	created := f.create(t, ana, "maria@example.com", item("Tour Package", 1, "300"))
	id := mustParse(t, created.ID)

	for _, sess := range []*session.Session{ana, boss} {
		doc, name, err := f.invoices.Document(ctx, sess, id)
		if err != nil {
			t.Fatalf("Document: %v", err)
		}
		if !strings.HasPrefix(string(doc), "%PDF-") || name != created.InvoiceNumber+".pdf" {
			t.Fatalf("unexpected document %q (%d bytes)", name, len(doc))
		}
	}
	if _, _, err := f.invoices.Document(ctx, ben, id); !errors.Is(err, ErrForbidden) {
		t.Fatalf("other agent error = %v", err)
	}
}
