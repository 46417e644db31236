package service

import (
	"context"
	"fmt"
	"time"

	"stockcore/internal/model"
	"stockcore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const expireSweepBatchSize = 200

// EventPublisher decouples the core services from the queue layer. The
// worker dispatcher implements it; a nil publisher disables notifications
// (unit test mode), mirroring how nil repos disable transactions.
type EventPublisher interface {
	NotifyReservationExpired(ctx context.Context, res *model.StockReservation) error
	NotifyBackorder(ctx context.Context, tenantID, orderID uuid.UUID, reason string) error
}

// CreateSoftParams describes a new soft reservation: a time-bounded hold
// of Quantity units at one location on behalf of ReferenceID.
type CreateSoftParams struct {
	TenantID    uuid.UUID
	ItemID      uuid.UUID
	WarehouseID uuid.UUID
	LocationID  uuid.UUID
	ReferenceID uuid.UUID
	Quantity    int
	TTL         time.Duration
}

// ReservationService owns the StockReservation state machine:
//
//	SOFT_RESERVED → HARD_RESERVED → PICKING → FULFILLED
//	     ↓︎ (expiry/release)     ↓︎ (release)
//	 EXPIRED/RELEASED         RELEASED
//
// Ledger counters are kept in lockstep inside the same transaction as
// every transition.
type ReservationService interface {
	CreateSoft(ctx context.Context, p CreateSoftParams) (*model.StockReservation, error)
	CreateSoftTx(tx *gorm.DB, p CreateSoftParams) (*model.StockReservation, error)
	PromoteToHard(ctx context.Context, tenantID, reservationID uuid.UUID) error
	PromoteToHardTx(tx *gorm.DB, tenantID, reservationID uuid.UUID) error
	MarkAsPicking(ctx context.Context, tenantID, reservationID uuid.UUID) error
	MarkFulfilledTx(tx *gorm.DB, tenantID, reservationID uuid.UUID) error
	Release(ctx context.Context, tenantID, reservationID uuid.UUID) error
	ReleaseTx(tx *gorm.DB, tenantID, reservationID uuid.UUID) error
	IsExpired(res *model.StockReservation) bool
	// ExpireStale is the periodic sweep: it releases the stock behind
	// stale soft reservations, marks them EXPIRED and notifies the order
	// layer. Returns the number of reservations expired.
	ExpireStale(ctx context.Context) (int, error)
}

type reservationService struct {
	reservations repository.StockReservationRepository
	ledger       StockLedgerService
	publisher    EventPublisher
}

func NewReservationService(
	reservations repository.StockReservationRepository,
	ledger StockLedgerService,
	publisher EventPublisher,
) ReservationService {
	return &reservationService{reservations: reservations, ledger: ledger, publisher: publisher}
}

func (s *reservationService) CreateSoft(ctx context.Context, p CreateSoftParams) (*model.StockReservation, error) {
	var res *model.StockReservation
	err := runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
		var err error
		res, err = s.CreateSoftTx(tx, p)
		return err
	})
	return res, err
}

func (s *reservationService) CreateSoftTx(tx *gorm.DB, p CreateSoftParams) (*model.StockReservation, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("create reservation: %w: %d", ErrInvalidQuantity, p.Quantity)
	}
	key := repository.StockKey{
		TenantID:    p.TenantID,
		ItemID:      p.ItemID,
		WarehouseID: p.WarehouseID,
		LocationID:  p.LocationID,
	}
	if err := s.ledger.ReserveSoftTx(tx, key, p.Quantity); err != nil {
		return nil, err
	}

	expires := time.Now().Add(p.TTL)
	res := &model.StockReservation{
		TenantID:    p.TenantID,
		ItemID:      p.ItemID,
		WarehouseID: p.WarehouseID,
		LocationID:  p.LocationID,
		ReferenceID: p.ReferenceID,
		Quantity:    p.Quantity,
		State:       model.ReservationSoftReserved,
		ExpiresAt:   &expires,
	}
	if err := s.reservations.CreateTx(tx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *reservationService) PromoteToHard(ctx context.Context, tenantID, reservationID uuid.UUID) error {
	return runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
		return s.PromoteToHardTx(tx, tenantID, reservationID)
	})
}

func (s *reservationService) PromoteToHardTx(tx *gorm.DB, tenantID, reservationID uuid.UUID) error {
	res, err := s.reservations.FindForUpdateTx(tx, tenantID, reservationID)
	if err != nil {
		return err
	}
	if res.State != model.ReservationSoftReserved {
		return fmt.Errorf("promote reservation %s from %s: %w", res.ID, res.State, ErrInvalidStateTransition)
	}
	if res.ExpiredAt(time.Now()) {
		return fmt.Errorf("promote reservation %s: already expired: %w", res.ID, ErrInvalidStateTransition)
	}
	if err := s.ledger.PromoteToHardTx(tx, s.key(res), res.Quantity); err != nil {
		return err
	}
	res.State = model.ReservationHardReserved
	res.ExpiresAt = nil
	return s.reservations.SaveTx(tx, res)
}

func (s *reservationService) MarkAsPicking(ctx context.Context, tenantID, reservationID uuid.UUID) error {
	return runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
		res, err := s.reservations.FindForUpdateTx(tx, tenantID, reservationID)
		if err != nil {
			return err
		}
		if res.State != model.ReservationHardReserved {
			return fmt.Errorf("mark picking reservation %s from %s: %w", res.ID, res.State, ErrInvalidStateTransition)
		}
		res.State = model.ReservationPicking
		return s.reservations.SaveTx(tx, res)
	})
}

// MarkFulfilledTx closes a reservation whose quantity has shipped. The
// ledger side (on-hand and counters) is settled by ShipReservedTx in the
// same transaction.
func (s *reservationService) MarkFulfilledTx(tx *gorm.DB, tenantID, reservationID uuid.UUID) error {
	res, err := s.reservations.FindForUpdateTx(tx, tenantID, reservationID)
	if err != nil {
		return err
	}
	if res.State.Terminal() {
		return fmt.Errorf("fulfill reservation %s from %s: %w", res.ID, res.State, ErrInvalidStateTransition)
	}
	res.State = model.ReservationFulfilled
	res.ExpiresAt = nil
	return s.reservations.SaveTx(tx, res)
}

func (s *reservationService) Release(ctx context.Context, tenantID, reservationID uuid.UUID) error {
	return runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
		return s.ReleaseTx(tx, tenantID, reservationID)
	})
}

func (s *reservationService) ReleaseTx(tx *gorm.DB, tenantID, reservationID uuid.UUID) error {
	res, err := s.reservations.FindForUpdateTx(tx, tenantID, reservationID)
	if err != nil {
		return err
	}
	switch res.State {
	case model.ReservationFulfilled:
		return fmt.Errorf("release reservation %s: already fulfilled: %w", res.ID, ErrInvalidStateTransition)
	case model.ReservationReleased, model.ReservationExpired:
		// Double release is a no-op.
		return nil
	case model.ReservationSoftReserved:
		if err := s.ledger.ReleaseSoftTx(tx, s.key(res), res.Quantity); err != nil {
			return err
		}
	default: // HARD_RESERVED, PICKING
		if err := s.ledger.ReleaseHardTx(tx, s.key(res), res.Quantity); err != nil {
			return err
		}
	}
	res.State = model.ReservationReleased
	res.ExpiresAt = nil
	return s.reservations.SaveTx(tx, res)
}

func (s *reservationService) IsExpired(res *model.StockReservation) bool {
	return res.ExpiredAt(time.Now())
}

func (s *reservationService) ExpireStale(ctx context.Context) (int, error) {
	stale, err := s.reservations.ListExpired(ctx, time.Now(), expireSweepBatchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		res := &stale[i]
		// Each reservation expires in its own transaction so one failure
		// does not roll back the rest of the batch.
		txErr := runTx(ctx, s.ledger.DB(), func(tx *gorm.DB) error {
			locked, err := s.reservations.FindForUpdateTx(tx, res.TenantID, res.ID)
			if err != nil {
				return err
			}
			// Re-check under lock: a promote may have won the race.
			if !locked.ExpiredAt(time.Now()) {
				return nil
			}
			if err := s.ledger.ReleaseSoftTx(tx, s.key(locked), locked.Quantity); err != nil {
				return err
			}
			locked.State = model.ReservationExpired
			locked.ExpiresAt = nil
			if err := s.reservations.SaveTx(tx, locked); err != nil {
				return err
			}
			*res = *locked
			return nil
		})
		if txErr != nil {
			log.Error().Err(txErr).Str("reservation_id", res.ID.String()).Msg("expiry sweep: failed to expire reservation")
			continue
		}
		if res.State != model.ReservationExpired {
			continue
		}
		expired++

		if s.publisher != nil {
			if err := s.publisher.NotifyReservationExpired(ctx, res); err != nil {
				log.Warn().Err(err).Str("reservation_id", res.ID.String()).Msg("expiry sweep: failed to notify order layer")
			}
		}
	}
	return expired, nil
}

func (s *reservationService) key(res *model.StockReservation) repository.StockKey {
	return repository.StockKey{
		TenantID:    res.TenantID,
		ItemID:      res.ItemID,
		WarehouseID: res.WarehouseID,
		LocationID:  res.LocationID,
	}
}
