package repository

import (
	"context"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FulfillmentHistoryRepository is the idempotency guard for shipment
// events. The insert races against the unique (order line, shipping
// document) index; losing the race means the event was already applied.
type FulfillmentHistoryRepository interface {
	// InsertIgnoreDuplicateTx attempts the insert and reports whether a
	// row was actually written. false = duplicate event, skip the apply.
	InsertIgnoreDuplicateTx(tx *gorm.DB, record *model.FulfillmentHistory) (bool, error)
	ListByOrderLine(ctx context.Context, tenantID, orderLineID uuid.UUID) ([]model.FulfillmentHistory, error)
}

type fulfillmentHistoryRepo struct{ db *gorm.DB }

func NewFulfillmentHistoryRepository(db *gorm.DB) FulfillmentHistoryRepository {
	return &fulfillmentHistoryRepo{db: db}
}

func (r *fulfillmentHistoryRepo) InsertIgnoreDuplicateTx(tx *gorm.DB, record *model.FulfillmentHistory) (bool, error) {
	result := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "order_line_id"}, {Name: "shipping_document_id"}},
		DoNothing: true,
	}).Create(record)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *fulfillmentHistoryRepo) ListByOrderLine(ctx context.Context, tenantID, orderLineID uuid.UUID) ([]model.FulfillmentHistory, error) {
	var records []model.FulfillmentHistory
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND order_line_id = ?", tenantID, orderLineID).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}
