package repository

import (
	"context"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository is the catalog lookup collaborator. Upstream modules refer
// to items sometimes by part number and sometimes by UUID; every reference
// is normalized through this interface once, at the boundary.
type ItemRepository interface {
	Create(ctx context.Context, item *model.Item) error
	FindByUUID(ctx context.Context, tenantID, id uuid.UUID) (*model.Item, error)
	FindByPartNumber(ctx context.Context, tenantID uuid.UUID, partNumber string) (*model.Item, error)
	GetByPartNumbers(ctx context.Context, tenantID uuid.UUID, partNumbers []string) ([]model.Item, error)
	// Resolve accepts either a UUID string or a part number.
	Resolve(ctx context.Context, tenantID uuid.UUID, ref string) (*model.Item, error)
}

type itemRepo struct{ db *gorm.DB }

func NewItemRepository(db *gorm.DB) ItemRepository { return &itemRepo{db: db} }

func (r *itemRepo) Create(ctx context.Context, item *model.Item) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *itemRepo) FindByUUID(ctx context.Context, tenantID, id uuid.UUID) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindByPartNumber(ctx context.Context, tenantID uuid.UUID, partNumber string) (*model.Item, error) {
	var item model.Item
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND part_number = ? AND active = true", tenantID, partNumber).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) GetByPartNumbers(ctx context.Context, tenantID uuid.UUID, partNumbers []string) ([]model.Item, error) {
	var items []model.Item
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND part_number IN ?", tenantID, partNumbers).
		Find(&items).Error
	return items, err
}

func (r *itemRepo) Resolve(ctx context.Context, tenantID uuid.UUID, ref string) (*model.Item, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return r.FindByUUID(ctx, tenantID, id)
	}
	return r.FindByPartNumber(ctx, tenantID, ref)
}
