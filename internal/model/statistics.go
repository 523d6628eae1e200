package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DashboardStats is derived from an invoice collection and never stored.
type DashboardStats struct {
	TotalInvoices   int             `json:"total_invoices"`
	TotalRevenue    decimal.Decimal `json:"total_revenue"` // Sum of paid invoice totals
	PendingInvoices int             `json:"pending_invoices"`
	PaidInvoices    int             `json:"paid_invoices"`
}

// TodaySummary is the count and billed amount of the current day's invoices.
type TodaySummary struct {
	Invoices int             `json:"invoices"`
	Amount   decimal.Decimal `json:"amount"`
}

// AgentPerformance is the per-agent rollup shown to directors.
type AgentPerformance struct {
	AgentID       uuid.UUID       `json:"agent_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Department    string          `json:"department"`
	Role          Role            `json:"role"`
	TotalInvoices int             `json:"total_invoices"`
	TodayInvoices int             `json:"today_invoices"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	SuccessRate   int             `json:"success_rate"` // Percent of invoices paid, 0 when none
}
