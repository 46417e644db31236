package repository

import (
	"context"
	"errors"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockKey identifies one StockLevel row. The location is the finest
// granularity; the warehouse is carried so lazily created rows can
// denormalize it.
type StockKey struct {
	TenantID    uuid.UUID
	ItemID      uuid.UUID
	WarehouseID uuid.UUID
	LocationID  uuid.UUID
}

// StockLevelFilter narrows List queries.
type StockLevelFilter struct {
	ItemID      *uuid.UUID
	WarehouseID *uuid.UUID
	LocationID  *uuid.UUID
	Page        int
	Limit       int
}

// StockLevelRepository owns the StockLevel rows. All mutations run through
// the …Tx variants so the caller's transaction holds the row lock for the
// duration of the aggregate update plus its movement-log insert.
type StockLevelRepository interface {
	// FindForUpdateTx loads the row under FOR UPDATE; ErrRecordNotFound if absent.
	FindForUpdateTx(tx *gorm.DB, key StockKey) (*model.StockLevel, error)
	// FindOrCreateForUpdateTx loads the row under FOR UPDATE, lazily
	// creating a zero row on first receipt or reservation attempt.
	FindOrCreateForUpdateTx(tx *gorm.DB, key StockKey) (*model.StockLevel, error)
	SaveQuantitiesTx(tx *gorm.DB, level *model.StockLevel) error

	ListByItemWarehouse(ctx context.Context, tenantID, itemID, warehouseID uuid.UUID) ([]model.StockLevel, error)
	List(ctx context.Context, tenantID uuid.UUID, filter StockLevelFilter) ([]model.StockLevel, int64, error)

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type stockLevelRepo struct{ db *gorm.DB }

func NewStockLevelRepository(db *gorm.DB) StockLevelRepository { return &stockLevelRepo{db: db} }

func (r *stockLevelRepo) FindForUpdateTx(tx *gorm.DB, key StockKey) (*model.StockLevel, error) {
	var level model.StockLevel
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND item_id = ? AND location_id = ?", key.TenantID, key.ItemID, key.LocationID).
		First(&level).Error
	if err != nil {
		return nil, err
	}
	return &level, nil
}

func (r *stockLevelRepo) FindOrCreateForUpdateTx(tx *gorm.DB, key StockKey) (*model.StockLevel, error) {
	level, err := r.FindForUpdateTx(tx, key)
	if err == nil {
		return level, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	fresh := model.StockLevel{
		TenantID:    key.TenantID,
		ItemID:      key.ItemID,
		WarehouseID: key.WarehouseID,
		LocationID:  key.LocationID,
	}
	// A concurrent insert may win the race on the unique index; DoNothing
	// plus re-read under lock keeps both callers on the same row.
	if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&fresh).Error; err != nil {
		return nil, err
	}
	return r.FindForUpdateTx(tx, key)
}

func (r *stockLevelRepo) SaveQuantitiesTx(tx *gorm.DB, level *model.StockLevel) error {
	return tx.Model(&model.StockLevel{}).Where("id = ?", level.ID).Updates(map[string]interface{}{
		"quantity_on_hand":       level.QuantityOnHand,
		"quantity_reserved":      level.QuantityReserved,
		"quantity_soft_reserved": level.QuantitySoftReserved,
	}).Error
}

func (r *stockLevelRepo) ListByItemWarehouse(ctx context.Context, tenantID, itemID, warehouseID uuid.UUID) ([]model.StockLevel, error) {
	var levels []model.StockLevel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND item_id = ? AND warehouse_id = ?", tenantID, itemID, warehouseID).
		Find(&levels).Error
	return levels, err
}

func (r *stockLevelRepo) List(ctx context.Context, tenantID uuid.UUID, filter StockLevelFilter) ([]model.StockLevel, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockLevel{}).
		Where("tenant_id = ?", tenantID).
		Preload("Item").Preload("Location")
	if filter.ItemID != nil {
		q = q.Where("item_id = ?", *filter.ItemID)
	}
	if filter.WarehouseID != nil {
		q = q.Where("warehouse_id = ?", *filter.WarehouseID)
	}
	if filter.LocationID != nil {
		q = q.Where("location_id = ?", *filter.LocationID)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	limit := filter.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}
	offset := (page - 1) * limit

	var levels []model.StockLevel
	err := q.Order("updated_at DESC").Offset(offset).Limit(limit).Find(&levels).Error
	return levels, total, err
}

func (r *stockLevelRepo) DB() *gorm.DB { return r.db }
