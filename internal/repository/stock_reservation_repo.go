package repository

import (
	"context"
	"time"

	"stockcore/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var activeReservationStates = []model.ReservationState{
	model.ReservationSoftReserved,
	model.ReservationHardReserved,
	model.ReservationPicking,
}

type StockReservationRepository interface {
	CreateTx(tx *gorm.DB, res *model.StockReservation) error
	SaveTx(tx *gorm.DB, res *model.StockReservation) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error)
	FindForUpdateTx(tx *gorm.DB, tenantID, id uuid.UUID) (*model.StockReservation, error)
	// ListActiveByReference returns non-terminal reservations created on
	// behalf of a referencing document (order).
	ListActiveByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]model.StockReservation, error)
	// ListExpired returns SOFT_RESERVED rows whose TTL elapsed before now.
	ListExpired(ctx context.Context, now time.Time, limit int) ([]model.StockReservation, error)
	List(ctx context.Context, tenantID uuid.UUID, state model.ReservationState, page, limit int) ([]model.StockReservation, int64, error)
}

type stockReservationRepo struct{ db *gorm.DB }

func NewStockReservationRepository(db *gorm.DB) StockReservationRepository {
	return &stockReservationRepo{db: db}
}

func (r *stockReservationRepo) CreateTx(tx *gorm.DB, res *model.StockReservation) error {
	return tx.Create(res).Error
}

func (r *stockReservationRepo) SaveTx(tx *gorm.DB, res *model.StockReservation) error {
	return tx.Model(&model.StockReservation{}).Where("id = ?", res.ID).Updates(map[string]interface{}{
		"state":      res.State,
		"expires_at": res.ExpiresAt,
	}).Error
}

func (r *stockReservationRepo) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*model.StockReservation, error) {
	var res model.StockReservation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *stockReservationRepo) FindForUpdateTx(tx *gorm.DB, tenantID, id uuid.UUID) (*model.StockReservation, error) {
	var res model.StockReservation
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *stockReservationRepo) ListActiveByReference(ctx context.Context, tenantID, referenceID uuid.UUID) ([]model.StockReservation, error) {
	var reservations []model.StockReservation
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND reference_id = ? AND state IN ?", tenantID, referenceID, activeReservationStates).
		Order("created_at ASC").
		Find(&reservations).Error
	return reservations, err
}

func (r *stockReservationRepo) ListExpired(ctx context.Context, now time.Time, limit int) ([]model.StockReservation, error) {
	var reservations []model.StockReservation
	err := r.db.WithContext(ctx).
		Where("state = ? AND expires_at IS NOT NULL AND expires_at < ?", model.ReservationSoftReserved, now).
		Order("expires_at ASC").
		Limit(limit).
		Find(&reservations).Error
	return reservations, err
}

func (r *stockReservationRepo) List(ctx context.Context, tenantID uuid.UUID, state model.ReservationState, page, limit int) ([]model.StockReservation, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.StockReservation{}).
		Where("tenant_id = ?", tenantID).
		Preload("Item").Preload("Location")
	if state != "" {
		q = q.Where("state = ?", state)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 100
	}

	var reservations []model.StockReservation
	err := q.Order("created_at DESC").Offset((page - 1) * limit).Limit(limit).Find(&reservations).Error
	return reservations, total, err
}
