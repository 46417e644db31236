package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Movement types. Only operations that change physical on-hand quantity
// emit a movement; pure reservation-counter changes do not.
const (
	MovementReceipt     = "RECEIPT"
	MovementIssue       = "ISSUE"
	MovementShip        = "SHIP"
	MovementTransferIn  = "TRANSFER_IN"
	MovementTransferOut = "TRANSFER_OUT"
	MovementAdjustment  = "ADJUSTMENT"
)

// StockMovement is the append-only audit record written alongside every
// physical stock change, inside the same transaction.
type StockMovement struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID     uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID       uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID  uuid.UUID `gorm:"type:uuid;not null"`
	LocationID   uuid.UUID `gorm:"type:uuid;not null;index"`
	Type         string    `gorm:"not null"`
	Quantity     int       `gorm:"not null"` // signed: positive = in, negative = out
	OnHandBefore int       `gorm:"not null"`
	OnHandAfter  int       `gorm:"not null"`
	// UnitCost snapshots the item cost at movement time for audit valuation.
	UnitCost              decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	ActorID               *uuid.UUID      `gorm:"type:uuid"`
	ReferenceID           *uuid.UUID      `gorm:"type:uuid;index"` // order / shipping document / transfer
	CounterpartLocationID *uuid.UUID      `gorm:"type:uuid"`       // set on transfers
	Reason                string
	CreatedAt             time.Time

	Item     *Item     `gorm:"foreignKey:ItemID"`
	Location *Location `gorm:"foreignKey:LocationID"`
}
