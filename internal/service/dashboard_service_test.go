package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"invoicing/internal/billing"
	applog "invoicing/internal/log"
	"invoicing/internal/model"

	"github.com/shopspring/decimal"
)

func TestDashboardViews(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	ana := f.signIn(t, "ana", model.RoleAgent)
	ben := f.signIn(t, "ben", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)
	ctx := context.Background()

	paid := f.create(t, ana, "a@example.com", item("Flight Booking", 1, "100"))
	if _, err := f.invoices.UpdateStatus(ctx, ana, mustParse(t, paid.ID), "sent"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.invoices.UpdateStatus(ctx, ana, mustParse(t, paid.ID), "paid"); err != nil {
		t.Fatal(err)
	}
	sent := f.create(t, ana, "b@example.com", item("Hotel Reservation", 1, "50"))
	if _, err := f.invoices.UpdateStatus(ctx, ana, mustParse(t, sent.ID), "sent"); err != nil {
		t.Fatal(err)
	}
	f.now = f.now.Add(-48 * time.Hour)
	f.create(t, ben, "c@example.com", item("Car Rental", 1, "30"))
	f.now = f.now.Add(48 * time.Hour)

	svc := NewDashboardService(f.repos, false, func() time.Time { return f.now }, applog.Discard())

	t.Run("agent", func(t *testing.T) {
		res, err := svc.Dashboard(ctx, ana, DashboardQuery{Window: billing.WindowAll, AgentID: ben.AgentID.String()})
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if res.Role != "agent" || res.Agent == nil || res.Agent.Name != "ana" || res.Agents != nil {
			t.Fatalf("wrong view variant: %+v", res)
		}
		want := StatsResponse{TotalInvoices: 2, TotalRevenue: "100.00", PendingInvoices: 1, PaidInvoices: 1}
		if res.Stats != want {
			t.Fatalf("stats = %+v, want %+v", res.Stats, want)
		}
		if res.Today.Invoices != 2 || res.Today.Amount != "150.00" || len(res.Invoices) != 2 {
			t.Fatalf("today/list = %+v / %d", res.Today, len(res.Invoices))
		}
	})

	t.Run("director", func(t *testing.T) {
		res, err := svc.Dashboard(ctx, boss, DashboardQuery{Window: billing.WindowToday})
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if res.Role != "director" || res.Agent != nil {
			t.Fatalf("wrong view variant: %+v", res)
		}
		if res.Stats.TotalInvoices != 3 || res.Today.Invoices != 2 || len(res.Invoices) != 2 || res.Window != "today" {
			t.Fatalf("director summary = %+v", res)
		}
		if len(res.Agents) != 2 {
			t.Fatalf("performance rows = %d, want 2 (directors excluded)", len(res.Agents))
		}
		a := res.Agents[0]
		if a.Name != "ana" || a.TotalInvoices != 2 || a.TotalRevenue != "100.00" || a.SuccessRate != 50 || a.TodayInvoices != 2 {
			t.Fatalf("ana performance = %+v", a)
		}
		b := res.Agents[1]
		if b.TotalInvoices != 1 || b.TodayInvoices != 0 || b.SuccessRate != 0 || b.TotalRevenue != "0.00" {
			t.Fatalf("ben performance = %+v", b)
		}
	})

	t.Run("director filtered by agent", func(t *testing.T) {
		res, err := svc.Dashboard(ctx, boss, DashboardQuery{AgentID: ben.AgentID.String()})
		if err != nil {
			t.Fatalf("Dashboard: %v", err)
		}
		if len(res.Invoices) != 1 || res.Invoices[0].AgentID != ben.AgentID.String() || len(res.Agents) != 2 || res.Window != "all" {
			t.Fatalf("filtered dashboard = %+v", res)
		}
		if res.Stats.TotalInvoices != 3 || res.Stats.TotalRevenue != "100.00" || res.Today.Invoices != 2 {
			t.Fatalf("agent filter narrowed agency stats: %+v / %+v", res.Stats, res.Today)
		}
	})
}

func TestPerformanceScope(t *testing.T) {
	f := newFixture(t, decimal.Zero)
	ana := f.signIn(t, "ana", model.RoleAgent)
	boss := f.signIn(t, "boss", model.RoleDirector)
	ctx := context.Background()

	svc := NewDashboardService(f.repos, false, func() time.Time { return f.now }, applog.Discard())

	rows, err := svc.Performance(ctx, boss, ScopeAgents)
	if err != nil || len(rows) != 1 || rows[0].Name != "ana" {
		t.Fatalf("agents scope = %+v, %v", rows, err)
	}
	rows, err = svc.Performance(ctx, boss, ScopeAll)
	if err != nil || len(rows) != 2 {
		t.Fatalf("all scope = %+v, %v", rows, err)
	}
	if rows[0].TotalRevenue != "0.00" || rows[0].SuccessRate != 0 {
		t.Fatalf("empty rollup = %+v", rows[0])
	}

	withDirectors := NewDashboardService(f.repos, true, nil, applog.Discard())
	if rows, _ := withDirectors.Performance(ctx, boss, ""); len(rows) != 2 {
		t.Fatalf("configured default ignored: %d rows", len(rows))
	}

	if _, err := svc.Performance(ctx, boss, "everyone"); !errors.Is(err, billing.ErrInvalidInput) {
		t.Fatalf("bad scope error = %v", err)
	}
	if _, err := svc.Performance(ctx, ana, ScopeAll); !errors.Is(err, ErrForbidden) {
		t.Fatalf("agent error = %v", err)
	}

	res, err := svc.Dashboard(ctx, boss, DashboardQuery{Scope: ScopeAll})
	if err != nil || len(res.Agents) != 2 {
		t.Fatalf("dashboard with all scope = %+v, %v", res, err)
	}
	if _, err := svc.Dashboard(ctx, boss, DashboardQuery{Scope: "everyone"}); !errors.Is(err, billing.ErrInvalidInput) {
		t.Fatalf("dashboard bad scope error = %v", err)
	}
}
