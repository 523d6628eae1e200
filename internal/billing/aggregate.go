package billing

import (
	"math"
	"slices"
	"time"

	"invoicing/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Window selects the time range of a dashboard listing.
type Window string

const (
	WindowToday Window = "today"
	WindowAll   Window = "all"
)

// ParseWindow maps a query value to a Window; anything unknown is WindowAll.
func ParseWindow(s string) Window {
	if Window(s) == WindowToday {
		return WindowToday
	}
	return WindowAll
}

// AllAgents is the agent filter value that disables agent filtering.
const AllAgents = "all"

// FilterByWindow keeps the invoices created on now's local calendar day when w
// is WindowToday. Invoices without a creation time are dropped. Any other
// window returns the input unchanged.
func FilterByWindow(invoices []model.Invoice, w Window, now time.Time) []model.Invoice {
	if w != WindowToday {
		return invoices
	}
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	end := start.AddDate(0, 0, 1)

	out := make([]model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.CreatedAt.IsZero() {
			continue
		}
		if !inv.CreatedAt.Before(start) && inv.CreatedAt.Before(end) {
			out = append(out, inv)
		}
	}
	return out
}

// FilterByAgent keeps the invoices owned by agentID. AllAgents and the empty
// string return the input unchanged. The id is compared as a UUID, so case and
// brace forms match; an id that does not parse matches nothing.
func FilterByAgent(invoices []model.Invoice, agentID string) []model.Invoice {
	if agentID == AllAgents || agentID == "" {
		return invoices
	}
	id, err := uuid.Parse(agentID)
	if err != nil {
		return []model.Invoice{}
	}
	out := make([]model.Invoice, 0, len(invoices))
	for _, inv := range invoices {
		if inv.AgentID == id {
			out = append(out, inv)
		}
	}
	return out
}

// SortByCreatedDesc returns a copy ordered newest first. Equal timestamps keep
// their input order.
func SortByCreatedDesc(invoices []model.Invoice) []model.Invoice {
	out := slices.Clone(invoices)
	slices.SortStableFunc(out, func(a, b model.Invoice) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return out
}

// DashboardStats counts invoices by status and sums paid revenue.
func DashboardStats(invoices []model.Invoice) model.DashboardStats {
	stats := model.DashboardStats{TotalRevenue: decimal.Zero}
	for _, inv := range invoices {
		stats.TotalInvoices++
		switch inv.Status {
		case model.StatusPaid:
			stats.PaidInvoices++
			stats.TotalRevenue = stats.TotalRevenue.Add(inv.Total)
		case model.StatusSent:
			stats.PendingInvoices++
		}
	}
	return stats
}

// TodaySummary counts the given invoices and sums their totals regardless of status.
func TodaySummary(todays []model.Invoice) model.TodaySummary {
	sum := model.TodaySummary{Amount: decimal.Zero}
	for _, inv := range todays {
		sum.Invoices++
		sum.Amount = sum.Amount.Add(inv.Total)
	}
	return sum
}

// AgentPerformance builds one rollup per agent, in the order of agents.
func AgentPerformance(agents []model.Agent, invoices, todays []model.Invoice) []model.AgentPerformance {
	type tally struct {
		total, today, paid int
		revenue            decimal.Decimal
	}
	byAgent := make(map[string]*tally, len(agents))
	get := func(id string) *tally {
		t, ok := byAgent[id]
		if !ok {
			t = &tally{revenue: decimal.Zero}
			byAgent[id] = t
		}
		return t
	}
	for _, inv := range invoices {
		t := get(inv.AgentID.String())
		t.total++
		if inv.Status == model.StatusPaid {
			t.paid++
			t.revenue = t.revenue.Add(inv.Total)
		}
	}
	for _, inv := range todays {
		get(inv.AgentID.String()).today++
	}

	out := make([]model.AgentPerformance, 0, len(agents))
	for _, a := range agents {
		t := get(a.ID.String())
		out = append(out, model.AgentPerformance{
			AgentID:       a.ID,
			Name:          a.Name,
			Email:         a.Email,
			Department:    a.Department,
			Role:          a.Role,
			TotalInvoices: t.total,
			TodayInvoices: t.today,
			TotalRevenue:  t.revenue,
			SuccessRate:   successRate(t.paid, t.total),
		})
	}
	return out
}

func successRate(paid, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(paid) / float64(total)))
}

// AgentsForView drops directors unless includeDirectors is set.
func AgentsForView(agents []model.Agent, includeDirectors bool) []model.Agent {
	if includeDirectors {
		return agents
	}
	out := make([]model.Agent, 0, len(agents))
	for _, a := range agents {
		if !a.IsDirector() {
			out = append(out, a)
		}
	}
	return out
}
