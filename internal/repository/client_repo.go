package repository

import (
	"context"

	"invoicing/internal/model"

	"gorm.io/gorm"
)

type ClientRepository interface {
	// GetOrCreate returns the stored client with client.Email, creating it from
	// client when none exists. Existing rows are not modified.
	GetOrCreate(ctx context.Context, client *model.Client) (*model.Client, error)
}

type clientRepository struct {
	db *gorm.DB
}

func NewClientRepository(db *gorm.DB) ClientRepository {
	return &clientRepository{db: db}
}

func (r *clientRepository) GetOrCreate(ctx context.Context, client *model.Client) (*model.Client, error) {
	found := *client
	if err := GetDB(ctx, r.db).
		Where("email = ?", client.Email).
		FirstOrCreate(&found).Error; err != nil {
		return nil, err
	}
	return &found, nil
}
