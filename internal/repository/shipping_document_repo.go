package repository

import (
	"context"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ShippingDocumentRepository interface {
	CreateTx(tx *gorm.DB, doc *model.ShippingDocument) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ShippingDocument, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.ShippingDocument, error)
}

type shippingDocumentRepo struct{ db *gorm.DB }

func NewShippingDocumentRepository(db *gorm.DB) ShippingDocumentRepository {
	return &shippingDocumentRepo{db: db}
}

func (r *shippingDocumentRepo) CreateTx(tx *gorm.DB, doc *model.ShippingDocument) error {
	return tx.Create(doc).Error
}

func (r *shippingDocumentRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.ShippingDocument, error) {
	var doc model.ShippingDocument
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (r *shippingDocumentRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.ShippingDocument{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *shippingDocumentRepo) ListByOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.ShippingDocument, error) {
	var docs []model.ShippingDocument
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Order("created_at ASC").
		Find(&docs).Error
	return docs, err
}
