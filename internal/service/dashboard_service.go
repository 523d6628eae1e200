package service

import (
	"context"
	"fmt"
	"time"

	"invoicing/internal/billing"
	applog "invoicing/internal/log"
	"invoicing/internal/model"
	"invoicing/internal/repository"
	"invoicing/internal/session"

	"golang.org/x/sync/errgroup"
)

const (
	ScopeAgents = "agents"
	ScopeAll    = "all"
)

type DashboardQuery struct {
	Window  billing.Window
	AgentID string // director only
	Scope   string // director only; see Performance
}

type StatsResponse struct {
	TotalInvoices   int    `json:"total_invoices"`
	TotalRevenue    string `json:"total_revenue"`
	PendingInvoices int    `json:"pending_invoices"`
	PaidInvoices    int    `json:"paid_invoices"`
}

type TodayResponse struct {
	Invoices int    `json:"invoices"`
	Amount   string `json:"amount"`
}

type PerformanceResponse struct {
	AgentID       string `json:"agent_id"`
	Name          string `json:"name"`
	Email         string `json:"email"`
	Department    string `json:"department"`
	Role          string `json:"role"`
	TotalInvoices int    `json:"total_invoices"`
	TodayInvoices int    `json:"today_invoices"`
	TotalRevenue  string `json:"total_revenue"`
	SuccessRate   int    `json:"success_rate"`
}

// DashboardResponse is the payload of one dashboard render. Agents carries
// the performance table and is only set for directors; Agent is the
// signed-in agent's profile and is only set for agents.
type DashboardResponse struct {
	Role     string                `json:"role"`
	Window   string                `json:"window"`
	Stats    StatsResponse         `json:"stats"`
	Today    TodayResponse         `json:"today"`
	Invoices []InvoiceResponse     `json:"invoices"`
	Agents   []PerformanceResponse `json:"agents,omitempty"`
	Agent    *AgentResponse        `json:"agent,omitempty"`
}

type DashboardService interface {
	Dashboard(ctx context.Context, sess *session.Session, q DashboardQuery) (*DashboardResponse, error)
	// Performance returns the per-agent rollup. scope is "agents", "all" or
	// empty for the configured default.
	Performance(ctx context.Context, sess *session.Session, scope string) ([]PerformanceResponse, error)
}

type dashboardService struct {
	repos            repository.Set
	includeDirectors bool
	now              func() time.Time
	logger           *applog.Logger
}

func NewDashboardService(repos repository.Set, includeDirectors bool, clock func() time.Time, logger *applog.Logger) DashboardService {
	if clock == nil {
		clock = time.Now
	}
	return &dashboardService{
		repos:            repos,
		includeDirectors: includeDirectors,
		now:              clock,
		logger:           logger.WithComponent(applog.ComponentDashboard),
	}
}

// view is the role-specific half of a dashboard. Exactly one implementation
// exists per role and viewFor picks it from the session.
type view interface {
	render(ctx context.Context, q DashboardQuery, now time.Time) (*DashboardResponse, error)
}

type agentView struct {
	svc  *dashboardService
	sess *session.Session
}

type directorView struct {
	svc  *dashboardService
	sess *session.Session
}

func (s *dashboardService) viewFor(sess *session.Session) (view, error) {
	switch sess.Role {
	case model.RoleAgent:
		return agentView{svc: s, sess: sess}, nil
	case model.RoleDirector:
		return directorView{svc: s, sess: sess}, nil
	default:
		return nil, fmt.Errorf("%w: unknown role %q", ErrForbidden, sess.Role)
	}
}

func (s *dashboardService) Dashboard(ctx context.Context, sess *session.Session, q DashboardQuery) (*DashboardResponse, error) {
	v, err := s.viewFor(sess)
	if err != nil {
		return nil, err
	}
	res, err := v.render(ctx, q, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.DebugContext(ctx, "dashboard rendered",
		applog.FieldAgentID, sess.AgentID.String(),
		applog.FieldRole, res.Role,
		"window", res.Window,
		"invoices", len(res.Invoices))
	return res, nil
}

// summarize fills the role-independent part of a dashboard. Stats and the
// today card cover scoped; the invoice list covers listed, which a director's
// agent filter may narrow further.
func summarize(role model.Role, q DashboardQuery, scoped, listed []model.Invoice, now time.Time) *DashboardResponse {
	stats := billing.DashboardStats(scoped)
	today := billing.TodaySummary(billing.FilterByWindow(scoped, billing.WindowToday, now))
	listed = billing.SortByCreatedDesc(billing.FilterByWindow(listed, q.Window, now))

	window := q.Window
	if window == "" {
		window = billing.WindowAll
	}
	res := &DashboardResponse{
		Role:   string(role),
		Window: string(window),
		Stats: StatsResponse{
			TotalInvoices:   stats.TotalInvoices,
			TotalRevenue:    stats.TotalRevenue.StringFixed(billing.CurrencyPlaces),
			PendingInvoices: stats.PendingInvoices,
			PaidInvoices:    stats.PaidInvoices,
		},
		Today: TodayResponse{
			Invoices: today.Invoices,
			Amount:   today.Amount.StringFixed(billing.CurrencyPlaces),
		},
		Invoices: make([]InvoiceResponse, 0, len(listed)),
	}
	for i := range listed {
		res.Invoices = append(res.Invoices, toInvoiceResponse(&listed[i]))
	}
	return res
}

func (v agentView) render(ctx context.Context, q DashboardQuery, now time.Time) (*DashboardResponse, error) {
	agent, err := v.svc.repos.Agents.FindByID(ctx, v.sess.AgentID)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", v.sess.AgentID, err)
	}
	invoices, err := v.svc.repos.Invoices.List(ctx, scopeOf(v.sess))
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}

	res := summarize(model.RoleAgent, q, invoices, invoices, now)
	profile := toAgentResponse(agent)
	res.Agent = &profile
	return res, nil
}

func (v directorView) render(ctx context.Context, q DashboardQuery, now time.Time) (*DashboardResponse, error) {
	include, err := v.svc.includeFor(q.Scope)
	if err != nil {
		return nil, err
	}
	invoices, agents, err := v.svc.load(ctx)
	if err != nil {
		return nil, err
	}

	// The agent filter narrows only the list; stats and today stay agency-wide.
	res := summarize(model.RoleDirector, q, invoices, billing.FilterByAgent(invoices, q.AgentID), now)
	res.Agents = performance(agents, invoices, include, now)
	return res, nil
}

// includeFor resolves a performance scope to whether directors are listed.
func (s *dashboardService) includeFor(scope string) (bool, error) {
	switch scope {
	case "":
		return s.includeDirectors, nil
	case ScopeAgents:
		return false, nil
	case ScopeAll:
		return true, nil
	default:
		return false, inputError("scope", fmt.Sprintf("%q is not one of agents, all", scope))
	}
}

// load fetches every invoice and agent concurrently.
func (s *dashboardService) load(ctx context.Context) ([]model.Invoice, []model.Agent, error) {
	var (
		invoices []model.Invoice
		agents   []model.Agent
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if invoices, err = s.repos.Invoices.List(gctx, nil); err != nil {
			return fmt.Errorf("failed to list invoices: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if agents, err = s.repos.Agents.List(gctx); err != nil {
			return fmt.Errorf("failed to list agents: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return invoices, agents, nil
}

func performance(agents []model.Agent, invoices []model.Invoice, includeDirectors bool, now time.Time) []PerformanceResponse {
	todays := billing.FilterByWindow(invoices, billing.WindowToday, now)
	rows := billing.AgentPerformance(billing.AgentsForView(agents, includeDirectors), invoices, todays)

	res := make([]PerformanceResponse, 0, len(rows))
	for _, r := range rows {
		res = append(res, PerformanceResponse{
			AgentID:       r.AgentID.String(),
			Name:          r.Name,
			Email:         r.Email,
			Department:    r.Department,
			Role:          string(r.Role),
			TotalInvoices: r.TotalInvoices,
			TodayInvoices: r.TodayInvoices,
			TotalRevenue:  r.TotalRevenue.StringFixed(billing.CurrencyPlaces),
			SuccessRate:   r.SuccessRate,
		})
	}
	return res
}

func (s *dashboardService) Performance(ctx context.Context, sess *session.Session, scope string) ([]PerformanceResponse, error) {
	if !sess.IsDirector() {
		return nil, fmt.Errorf("%w: director only", ErrForbidden)
	}

	include, err := s.includeFor(scope)
	if err != nil {
		return nil, err
	}
	invoices, agents, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	return performance(agents, invoices, include, s.now()), nil
}
