package repository

import (
	"context"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PickingSlipRepository interface {
	CreateTx(tx *gorm.DB, slip *model.PickingSlip) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PickingSlip, error)
	// HasActiveForOrder is the duplicate-event check: an active
	// (non-cancelled) slip means the order was already processed.
	HasActiveForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error)
	CountForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error)
	// PendingPromisedForLineTx sums the quantity already promised to an
	// order line by items of active slips, so backorder re-allocation does
	// not allocate the same need twice.
	PendingPromisedForLineTx(tx *gorm.DB, lineID uuid.UUID) (int, error)
	FindItemByLineAndDocTx(tx *gorm.DB, lineID, shippingDocumentID uuid.UUID) (*model.PickingSlipItem, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error
	UpdateItemPickedTx(tx *gorm.DB, itemID uuid.UUID, qtyPicked int) error
	CancelActiveForOrderTx(tx *gorm.DB, orderID uuid.UUID) error
	ListActiveForOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.PickingSlip, error)
}

type pickingSlipRepo struct{ db *gorm.DB }

func NewPickingSlipRepository(db *gorm.DB) PickingSlipRepository { return &pickingSlipRepo{db: db} }

func (r *pickingSlipRepo) CreateTx(tx *gorm.DB, slip *model.PickingSlip) error {
	return tx.Create(slip).Error
}

func (r *pickingSlipRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.PickingSlip, error) {
	var slip model.PickingSlip
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&slip).Error
	if err != nil {
		return nil, err
	}
	return &slip, nil
}

func (r *pickingSlipRepo) HasActiveForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PickingSlip{}).
		Where("tenant_id = ? AND order_id = ? AND status <> ?", tenantID, orderID, model.PickingSlipCancelled).
		Count(&count).Error
	return count > 0, err
}

func (r *pickingSlipRepo) CountForOrder(ctx context.Context, tenantID, orderID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PickingSlip{}).
		Where("tenant_id = ? AND order_id = ?", tenantID, orderID).
		Count(&count).Error
	return count, err
}

func (r *pickingSlipRepo) PendingPromisedForLineTx(tx *gorm.DB, lineID uuid.UUID) (int, error) {
	var pending int
	err := tx.Model(&model.PickingSlipItem{}).
		Select("COALESCE(SUM(picking_slip_items.quantity - picking_slip_items.quantity_picked), 0)").
		Joins("JOIN picking_slips ON picking_slips.id = picking_slip_items.picking_slip_id").
		Where("picking_slip_items.order_line_id = ? AND picking_slips.status <> ?", lineID, model.PickingSlipCancelled).
		Scan(&pending).Error
	return pending, err
}

func (r *pickingSlipRepo) FindItemByLineAndDocTx(tx *gorm.DB, lineID, shippingDocumentID uuid.UUID) (*model.PickingSlipItem, error) {
	var item model.PickingSlipItem
	err := tx.
		Joins("JOIN picking_slips ON picking_slips.id = picking_slip_items.picking_slip_id").
		Where("picking_slip_items.order_line_id = ? AND picking_slips.shipping_document_id = ?", lineID, shippingDocumentID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *pickingSlipRepo) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status string) error {
	return tx.Model(&model.PickingSlip{}).Where("id = ?", id).
		Update("status", status).Error
}

func (r *pickingSlipRepo) UpdateItemPickedTx(tx *gorm.DB, itemID uuid.UUID, qtyPicked int) error {
	return tx.Model(&model.PickingSlipItem{}).Where("id = ?", itemID).
		Update("quantity_picked", qtyPicked).Error
}

func (r *pickingSlipRepo) CancelActiveForOrderTx(tx *gorm.DB, orderID uuid.UUID) error {
	return tx.Model(&model.PickingSlip{}).
		Where("order_id = ? AND status <> ?", orderID, model.PickingSlipCancelled).
		Update("status", model.PickingSlipCancelled).Error
}

func (r *pickingSlipRepo) ListActiveForOrder(ctx context.Context, tenantID, orderID uuid.UUID) ([]model.PickingSlip, error) {
	var slips []model.PickingSlip
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND order_id = ? AND status <> ?", tenantID, orderID, model.PickingSlipCancelled).
		Order("wave ASC").
		Find(&slips).Error
	return slips, err
}
