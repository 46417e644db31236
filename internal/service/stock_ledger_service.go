package service

import (
	"context"
	"errors"
	"fmt"

	"stockcore/internal/model"
	"stockcore/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MovementParams carries everything a physical stock mutation needs.
// UnitCost is an optional audit snapshot; callers that have the item
// loaded pass it through, everyone else leaves it zero.
type MovementParams struct {
	Key         repository.StockKey
	Quantity    int
	UnitCost    decimal.Decimal
	ActorID     *uuid.UUID
	ReferenceID *uuid.UUID
	Reason      string
}

// TransferParams moves stock between two locations of the same tenant.
type TransferParams struct {
	TenantID       uuid.UUID
	ItemID         uuid.UUID
	WarehouseID    uuid.UUID
	FromLocationID uuid.UUID
	ToLocationID   uuid.UUID
	Quantity       int
	ActorID        *uuid.UUID
	ReferenceID    *uuid.UUID
}

// AdjustParams sets on-hand to an absolute value (cycle count correction).
type AdjustParams struct {
	Key       repository.StockKey
	NewOnHand int
	ActorID   *uuid.UUID
	Reason    string
}

// StockLedgerService owns the StockLevel quantity invariants. Every
// operation runs on a single row under a row lock; physical changes write
// a StockMovement in the same transaction, reservation-counter changes do
// not. The …Tx variants let callers compose a ledger mutation with their
// own aggregate updates inside one transaction.
type StockLedgerService interface {
	Receive(ctx context.Context, p MovementParams) (*model.StockMovement, error)
	ReceiveTx(tx *gorm.DB, p MovementParams) (*model.StockMovement, error)
	Issue(ctx context.Context, p MovementParams) (*model.StockMovement, error)
	Transfer(ctx context.Context, p TransferParams) ([]model.StockMovement, error)
	Adjust(ctx context.Context, p AdjustParams) (*model.StockMovement, error)

	ReserveSoft(ctx context.Context, key repository.StockKey, qty int) error
	ReserveSoftTx(tx *gorm.DB, key repository.StockKey, qty int) error
	PromoteToHardTx(tx *gorm.DB, key repository.StockKey, qty int) error
	ReleaseSoftTx(tx *gorm.DB, key repository.StockKey, qty int) error
	ReleaseHardTx(tx *gorm.DB, key repository.StockKey, qty int) error
	ShipReservedTx(tx *gorm.DB, p MovementParams) (*model.StockMovement, error)

	DB() *gorm.DB
}

type stockLedgerService struct {
	levels    repository.StockLevelRepository
	movements repository.StockMovementRepository
}

func NewStockLedgerService(
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
) StockLedgerService {
	return &stockLedgerService{levels: levels, movements: movements}
}

func (s *stockLedgerService) DB() *gorm.DB { return s.levels.DB() }

// ── Physical quantity operations ─────────────────────────────────────────────

func (s *stockLedgerService) Receive(ctx context.Context, p MovementParams) (*model.StockMovement, error) {
	var mov *model.StockMovement
	err := runTx(ctx, s.levels.DB(), func(tx *gorm.DB) error {
		var err error
		mov, err = s.ReceiveTx(tx, p)
		return err
	})
	return mov, err
}

func (s *stockLedgerService) ReceiveTx(tx *gorm.DB, p MovementParams) (*model.StockMovement, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("receive: %w: %d", ErrInvalidQuantity, p.Quantity)
	}
	level, err := s.levels.FindOrCreateForUpdateTx(tx, p.Key)
	if err != nil {
		return nil, err
	}
	before := level.QuantityOnHand
	level.QuantityOnHand += p.Quantity
	if err := s.levels.SaveQuantitiesTx(tx, level); err != nil {
		return nil, err
	}
	return s.recordMovement(tx, level, model.MovementReceipt, p.Quantity, before, p, nil)
}

func (s *stockLedgerService) Issue(ctx context.Context, p MovementParams) (*model.StockMovement, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("issue: %w: %d", ErrInvalidQuantity, p.Quantity)
	}
	var mov *model.StockMovement
	err := runTx(ctx, s.levels.DB(), func(tx *gorm.DB) error {
		level, err := s.findForUpdate(tx, p.Key)
		if err != nil {
			return err
		}
		if p.Quantity > level.Available() {
			return fmt.Errorf("issue %d from location %s: %w (available %d)",
				p.Quantity, p.Key.LocationID, ErrInsufficientStock, level.Available())
		}
		before := level.QuantityOnHand
		level.QuantityOnHand -= p.Quantity
		if err := s.levels.SaveQuantitiesTx(tx, level); err != nil {
			return err
		}
		mov, err = s.recordMovement(tx, level, model.MovementIssue, -p.Quantity, before, p, nil)
		return err
	})
	return mov, err
}

// Transfer issues stock at the source location and receives it at the
// destination in one transaction; both movements are tagged with the
// counterpart location.
func (s *stockLedgerService) Transfer(ctx context.Context, p TransferParams) ([]model.StockMovement, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("transfer: %w: %d", ErrInvalidQuantity, p.Quantity)
	}
	if p.FromLocationID == p.ToLocationID {
		return nil, fmt.Errorf("transfer: %w: source and destination are the same location", ErrInvalidQuantity)
	}

	fromKey := repository.StockKey{TenantID: p.TenantID, ItemID: p.ItemID, WarehouseID: p.WarehouseID, LocationID: p.FromLocationID}
	toKey := repository.StockKey{TenantID: p.TenantID, ItemID: p.ItemID, WarehouseID: p.WarehouseID, LocationID: p.ToLocationID}

	var movements []model.StockMovement
	err := runTx(ctx, s.levels.DB(), func(tx *gorm.DB) error {
		from, err := s.findForUpdate(tx, fromKey)
		if err != nil {
			return err
		}
		if p.Quantity > from.Available() {
			return fmt.Errorf("transfer %d from location %s: %w (available %d)",
				p.Quantity, p.FromLocationID, ErrInsufficientStock, from.Available())
		}

		fromBefore := from.QuantityOnHand
		from.QuantityOnHand -= p.Quantity
		if err := s.levels.SaveQuantitiesTx(tx, from); err != nil {
			return err
		}
		base := MovementParams{ActorID: p.ActorID, ReferenceID: p.ReferenceID}
		out, err := s.recordMovement(tx, from, model.MovementTransferOut, -p.Quantity, fromBefore, base, &p.ToLocationID)
		if err != nil {
			return err
		}

		to, err := s.levels.FindOrCreateForUpdateTx(tx, toKey)
		if err != nil {
			return err
		}
		toBefore := to.QuantityOnHand
		to.QuantityOnHand += p.Quantity
		if err := s.levels.SaveQuantitiesTx(tx, to); err != nil {
			return err
		}
		in, err := s.recordMovement(tx, to, model.MovementTransferIn, p.Quantity, toBefore, base, &p.FromLocationID)
		if err != nil {
			return err
		}

		movements = []model.StockMovement{*out, *in}
		return nil
	})
	return movements, err
}

// Adjust sets on-hand to an absolute value. A no-op adjustment is an
// error, to force explicit intent during cycle counts.
func (s *stockLedgerService) Adjust(ctx context.Context, p AdjustParams) (*model.StockMovement, error) {
	if p.NewOnHand < 0 {
		return nil, fmt.Errorf("adjust: %w: new on-hand %d is negative", ErrInvalidQuantity, p.NewOnHand)
	}
	var mov *model.StockMovement
	err := runTx(ctx, s.levels.DB(), func(tx *gorm.DB) error {
		level, err := s.levels.FindOrCreateForUpdateTx(tx, p.Key)
		if err != nil {
			return err
		}
		if p.NewOnHand == level.QuantityOnHand {
			return fmt.Errorf("adjust: %w: on-hand already %d", ErrInvalidQuantity, p.NewOnHand)
		}
		if p.NewOnHand < level.QuantityReserved+level.QuantitySoftReserved {
			return fmt.Errorf("adjust to %d: %w (%d units reserved)",
				p.NewOnHand, ErrInsufficientStock, level.QuantityReserved+level.QuantitySoftReserved)
		}
		before := level.QuantityOnHand
		delta := p.NewOnHand - before
		level.QuantityOnHand = p.NewOnHand
		if err := s.levels.SaveQuantitiesTx(tx, level); err != nil {
			return err
		}
		mov, err = s.recordMovement(tx, level, model.MovementAdjustment, delta, before,
			MovementParams{ActorID: p.ActorID, Reason: p.Reason}, nil)
		return err
	})
	return mov, err
}

// ── Reservation counters (no movement records) ───────────────────────────────

func (s *stockLedgerService) ReserveSoft(ctx context.Context, key repository.StockKey, qty int) error {
	return runTx(ctx, s.levels.DB(), func(tx *gorm.DB) error {
		return s.ReserveSoftTx(tx, key, qty)
	})
}

func (s *stockLedgerService) ReserveSoftTx(tx *gorm.DB, key repository.StockKey, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("reserve soft: %w: %d", ErrInvalidQuantity, qty)
	}
	level, err := s.levels.FindOrCreateForUpdateTx(tx, key)
	if err != nil {
		return err
	}
	if qty > level.Available() {
		return fmt.Errorf("reserve %d at location %s: %w (available %d)",
			qty, key.LocationID, ErrInsufficientStock, level.Available())
	}
	level.QuantitySoftReserved += qty
	return s.levels.SaveQuantitiesTx(tx, level)
}

// PromoteToHardTx moves quantity from the soft to the hard counter. The
// soft side is clamped at zero so partial releases applied elsewhere never
// cause an underflow failure; the overall invariant is still enforced.
func (s *stockLedgerService) PromoteToHardTx(tx *gorm.DB, key repository.StockKey, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("promote to hard: %w: %d", ErrInvalidQuantity, qty)
	}
	level, err := s.findForUpdate(tx, key)
	if err != nil {
		return err
	}
	level.QuantitySoftReserved -= qty
	if level.QuantitySoftReserved < 0 {
		level.QuantitySoftReserved = 0
	}
	level.QuantityReserved += qty
	if level.Available() < 0 {
		return fmt.Errorf("promote %d at location %s: %w", qty, key.LocationID, ErrInsufficientStock)
	}
	return s.levels.SaveQuantitiesTx(tx, level)
}

func (s *stockLedgerService) ReleaseSoftTx(tx *gorm.DB, key repository.StockKey, qty int) error {
	return s.releaseCounter(tx, key, qty, false)
}

func (s *stockLedgerService) ReleaseHardTx(tx *gorm.DB, key repository.StockKey, qty int) error {
	return s.releaseCounter(tx, key, qty, true)
}

// releaseCounter decrements a reservation counter clamped at zero, making
// a double release a safe no-op.
func (s *stockLedgerService) releaseCounter(tx *gorm.DB, key repository.StockKey, qty int, hard bool) error {
	if qty <= 0 {
		return fmt.Errorf("release: %w: %d", ErrInvalidQuantity, qty)
	}
	level, err := s.findForUpdate(tx, key)
	if err != nil {
		return err
	}
	if hard {
		level.QuantityReserved -= qty
		if level.QuantityReserved < 0 {
			level.QuantityReserved = 0
		}
	} else {
		level.QuantitySoftReserved -= qty
		if level.QuantitySoftReserved < 0 {
			level.QuantitySoftReserved = 0
		}
	}
	return s.levels.SaveQuantitiesTx(tx, level)
}

// ShipReservedTx physically removes shipped quantity, consuming the hard
// counter first and the soft counter for any remainder.
func (s *stockLedgerService) ShipReservedTx(tx *gorm.DB, p MovementParams) (*model.StockMovement, error) {
	if p.Quantity <= 0 {
		return nil, fmt.Errorf("ship: %w: %d", ErrInvalidQuantity, p.Quantity)
	}
	level, err := s.findForUpdate(tx, p.Key)
	if err != nil {
		return nil, err
	}
	if p.Quantity > level.QuantityOnHand {
		return nil, fmt.Errorf("ship %d from location %s: %w (on hand %d)",
			p.Quantity, p.Key.LocationID, ErrInsufficientStock, level.QuantityOnHand)
	}

	fromHard := p.Quantity
	if fromHard > level.QuantityReserved {
		fromHard = level.QuantityReserved
	}
	level.QuantityReserved -= fromHard

	fromSoft := p.Quantity - fromHard
	if fromSoft > level.QuantitySoftReserved {
		fromSoft = level.QuantitySoftReserved
	}
	level.QuantitySoftReserved -= fromSoft

	before := level.QuantityOnHand
	level.QuantityOnHand -= p.Quantity
	if err := s.levels.SaveQuantitiesTx(tx, level); err != nil {
		return nil, err
	}
	return s.recordMovement(tx, level, model.MovementShip, -p.Quantity, before, p, nil)
}

// ── helpers ──────────────────────────────────────────────────────────────────

// findForUpdate wraps not-found as a consistency error: operations that do
// not lazily create expect the row to exist already.
func (s *stockLedgerService) findForUpdate(tx *gorm.DB, key repository.StockKey) (*model.StockLevel, error) {
	level, err := s.levels.FindForUpdateTx(tx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("stock level (item %s, location %s): %w",
				key.ItemID, key.LocationID, ErrDataConsistency)
		}
		return nil, err
	}
	return level, nil
}

func (s *stockLedgerService) recordMovement(
	tx *gorm.DB,
	level *model.StockLevel,
	movType string,
	delta, before int,
	p MovementParams,
	counterpart *uuid.UUID,
) (*model.StockMovement, error) {
	mov := &model.StockMovement{
		TenantID:              level.TenantID,
		ItemID:                level.ItemID,
		WarehouseID:           level.WarehouseID,
		LocationID:            level.LocationID,
		Type:                  movType,
		Quantity:              delta,
		OnHandBefore:          before,
		OnHandAfter:           level.QuantityOnHand,
		UnitCost:              p.UnitCost,
		ActorID:               p.ActorID,
		ReferenceID:           p.ReferenceID,
		CounterpartLocationID: counterpart,
		Reason:                p.Reason,
	}
	if err := s.movements.CreateTx(tx, mov); err != nil {
		return nil, err
	}
	return mov, nil
}
