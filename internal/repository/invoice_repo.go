package repository

import (
	"context"

	"invoicing/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type InvoiceRepository interface {
	// List returns invoices newest first. A nil agentID lists every agent's invoices.
	List(ctx context.Context, agentID *uuid.UUID) ([]model.Invoice, error)
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	Create(ctx context.Context, invoice *model.Invoice) error
	// Update saves the invoice columns. When replaceItems is set the stored
	// lines are replaced by invoice.Items.
	Update(ctx context.Context, invoice *model.Invoice, replaceItems bool) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func withRelations(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position asc") }).
		Preload("Client").
		Preload("Agent")
}

func (r *invoiceRepository) List(ctx context.Context, agentID *uuid.UUID) ([]model.Invoice, error) {
	var invoices []model.Invoice
	query := withRelations(GetDB(ctx, r.db))
	if agentID != nil {
		query = query.Where("agent_id = ?", *agentID)
	}
	if err := query.Order("created_at desc").Find(&invoices).Error; err != nil {
		return nil, err
	}
	return invoices, nil
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := withRelations(GetDB(ctx, r.db)).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, translate(err)
	}
	return &invoice, nil
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Omit("Agent", "Client").Create(invoice).Error
}

func (r *invoiceRepository) Update(ctx context.Context, invoice *model.Invoice, replaceItems bool) error {
	db := GetDB(ctx, r.db)
	res := db.Omit(clause.Associations).Save(invoice)
	if res.Error != nil {
		return res.Error
	}
	if !replaceItems {
		return nil
	}
	if err := db.Where("invoice_id = ?", invoice.ID).Delete(&model.InvoiceItem{}).Error; err != nil {
		return err
	}
	if len(invoice.Items) == 0 {
		return nil
	}
	return db.Create(&invoice.Items).Error
}

func (r *invoiceRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Invoice{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
