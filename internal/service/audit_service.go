package service

import (
	"context"
	"fmt"
	"strings"

	"invoicing/internal/repository"
	"invoicing/internal/session"
	"invoicing/pkg/pagination"
)

type AuditLogResponse struct {
	ID        string `json:"id"`
	AgentID   string `json:"agent_id"`
	AgentName string `json:"agent_name"`
	Action    string `json:"action"`
	EntityID  string `json:"entity_id"`
	Details   string `json:"details"`
	CreatedAt string `json:"created_at"`
}

// AuditQuery selects audit entries. Action and EntityID are optional exact matches.
type AuditQuery struct {
	Action   string
	EntityID string
	Page     int
	Limit    int
}

type AuditService interface {
	GetAuditLogs(ctx context.Context, sess *session.Session, q AuditQuery) ([]AuditLogResponse, int64, error)
}

type auditService struct {
	repo repository.AuditRepository
}

// NewAuditService creates a new AuditService instance
func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

// GetAuditLogs returns one page of the audit trail, newest first. Directors only.
func (s *auditService) GetAuditLogs(ctx context.Context, sess *session.Session, q AuditQuery) ([]AuditLogResponse, int64, error) {
	if !sess.IsDirector() {
		return nil, 0, fmt.Errorf("%w: director only", ErrForbidden)
	}

	filter := repository.AuditFilter{
		Action:   strings.ToUpper(strings.TrimSpace(q.Action)),
		EntityID: strings.TrimSpace(q.EntityID),
	}
	logs, total, err := s.repo.List(ctx, filter, pagination.New(q.Page, q.Limit))
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit logs: %w", err)
	}

	res := make([]AuditLogResponse, 0, len(logs))
	for _, l := range logs {
		name := "System"
		agentID := ""
		if l.Agent != nil {
			name = l.Agent.Name
		}
		if l.AgentID != nil {
			agentID = l.AgentID.String()
		}
		res = append(res, AuditLogResponse{
			ID:        l.ID.String(),
			AgentID:   agentID,
			AgentName: name,
			Action:    l.Action,
			EntityID:  l.EntityID,
			Details:   l.Details,
			CreatedAt: l.CreatedAt.Format(timestampLayout),
		})
	}
	return res, total, nil
}
