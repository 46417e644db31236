package repository

import (
	"context"
	"errors"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const generalLocationCode = "GENERAL"

type LocationRepository interface {
	Create(ctx context.Context, loc *model.Location) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Location, error)
	// ListCandidates returns the active locations of a warehouse in the
	// allocator's priority order: PICKING zones first, the GENERAL bucket
	// last, everything else in between; ties broken by creation time.
	ListCandidates(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]model.Location, error)
	// EnsureGeneralLocation returns the tenant's GENERAL bucket for the
	// warehouse, creating it on first use.
	EnsureGeneralLocation(ctx context.Context, tenantID, warehouseID uuid.UUID) (*model.Location, error)
}

type locationRepo struct{ db *gorm.DB }

func NewLocationRepository(db *gorm.DB) LocationRepository { return &locationRepo{db: db} }

func (r *locationRepo) Create(ctx context.Context, loc *model.Location) error {
	return r.db.WithContext(ctx).Create(loc).Error
}

func (r *locationRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&loc).Error
	if err != nil {
		return nil, err
	}
	return &loc, nil
}

func (r *locationRepo) ListCandidates(ctx context.Context, tenantID, warehouseID uuid.UUID) ([]model.Location, error) {
	var locations []model.Location
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND active = true", tenantID, warehouseID).
		Order(`CASE type WHEN 'PICKING' THEN 0 WHEN 'GENERAL' THEN 2 ELSE 1 END, created_at ASC`).
		Find(&locations).Error
	return locations, err
}

func (r *locationRepo) EnsureGeneralLocation(ctx context.Context, tenantID, warehouseID uuid.UUID) (*model.Location, error) {
	var loc model.Location
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND warehouse_id = ? AND type = ?", tenantID, warehouseID, model.LocationTypeGeneral).
		First(&loc).Error
	if err == nil {
		return &loc, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	loc = model.Location{
		TenantID:    tenantID,
		WarehouseID: warehouseID,
		Code:        generalLocationCode,
		Type:        model.LocationTypeGeneral,
		Active:      true,
	}
	if err := r.db.WithContext(ctx).Create(&loc).Error; err != nil {
		return nil, err
	}
	return &loc, nil
}
