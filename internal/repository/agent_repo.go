package repository

import (
	"context"

	"invoicing/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AgentRepository defines the interface for data access of Agent entities
type AgentRepository interface {
	Create(ctx context.Context, agent *model.Agent) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error)
	FindByEmail(ctx context.Context, email string) (*model.Agent, error)
	List(ctx context.Context) ([]model.Agent, error)
}

type agentRepository struct {
	db *gorm.DB
}

// NewAgentRepository returns a new instance of AgentRepository
func NewAgentRepository(db *gorm.DB) AgentRepository {
	return &agentRepository{db: db}
}

func (r *agentRepository) Create(ctx context.Context, agent *model.Agent) error {
	return GetDB(ctx, r.db).Create(agent).Error
}

func (r *agentRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Agent, error) {
	var agent model.Agent
	if err := GetDB(ctx, r.db).First(&agent, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &agent, nil
}

func (r *agentRepository) FindByEmail(ctx context.Context, email string) (*model.Agent, error) {
	var agent model.Agent
	if err := GetDB(ctx, r.db).First(&agent, "email = ?", email).Error; err != nil {
		return nil, translate(err)
	}
	return &agent, nil
}

func (r *agentRepository) List(ctx context.Context) ([]model.Agent, error) {
	var agents []model.Agent
	if err := GetDB(ctx, r.db).Order("name asc").Find(&agents).Error; err != nil {
		return nil, err
	}
	return agents, nil
}
