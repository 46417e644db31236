package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	PickingSlipOpen       = "open"
	PickingSlipInProgress = "in_progress"
	PickingSlipCompleted  = "completed"
	PickingSlipCancelled  = "cancelled"
)

// PickingSlip is the committed allocation plan for one order in one wave:
// the initial reservation pass is wave 1, each backorder supplement after a
// receipt increments it. The existence of an active (non-cancelled) slip is
// the idempotency check that makes a duplicate OrderConfirmed a no-op.
type PickingSlip struct {
	ID                 uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID           uuid.UUID  `gorm:"type:uuid;not null;index"`
	OrderID            uuid.UUID  `gorm:"type:uuid;not null;index"`
	WarehouseID        uuid.UUID  `gorm:"type:uuid;not null"`
	ShippingDocumentID *uuid.UUID `gorm:"type:uuid;index"`
	Wave               int        `gorm:"not null;default:1"`
	Status             string     `gorm:"not null;default:'open';index"`
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Items []PickingSlipItem `gorm:"foreignKey:PickingSlipID"`
}

// PickingSlipItem is one allocation step of the plan: which order line is
// satisfied from which location, and by how much. ReservationID ties the
// step back to the hold it committed.
type PickingSlipItem struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	PickingSlipID  uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderLineID    uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID         uuid.UUID `gorm:"type:uuid;not null"`
	LocationID     uuid.UUID `gorm:"type:uuid;not null"`
	ReservationID  uuid.UUID `gorm:"type:uuid;not null"`
	Quantity       int       `gorm:"not null"`
	QuantityPicked int       `gorm:"not null;default:0"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
