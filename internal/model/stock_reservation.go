package model

import (
	"time"

	"github.com/google/uuid"
)

// Reservation states. EXPIRED is the sweep's flavor of RELEASED: stock has
// been returned to the pool either way, but the distinction matters for
// reporting and for the order layer's re-attempt logic.
type ReservationState string

const (
	ReservationSoftReserved ReservationState = "SOFT_RESERVED"
	ReservationHardReserved ReservationState = "HARD_RESERVED"
	ReservationPicking      ReservationState = "PICKING"
	ReservationReleased     ReservationState = "RELEASED"
	ReservationExpired      ReservationState = "EXPIRED"
	ReservationFulfilled    ReservationState = "FULFILLED"
)

// Terminal reports whether no further transition is allowed from s.
func (s ReservationState) Terminal() bool {
	switch s {
	case ReservationReleased, ReservationExpired, ReservationFulfilled:
		return true
	}
	return false
}

// StockReservation is one allocation unit: a hold of Quantity units of an
// item at one location, on behalf of a referencing document (usually an
// order). Quantity is immutable after creation — a reservation is never
// re-sized, only cancelled and recreated.
//
// ExpiresAt is present only while the state is SOFT_RESERVED; promotion to
// HARD_RESERVED clears it.
type StockReservation struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	ItemID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	WarehouseID uuid.UUID        `gorm:"type:uuid;not null"`
	LocationID  uuid.UUID        `gorm:"type:uuid;not null"`
	ReferenceID uuid.UUID        `gorm:"type:uuid;not null;index"` // originating order or document
	Quantity    int              `gorm:"not null"`
	State       ReservationState `gorm:"not null;default:'SOFT_RESERVED';index"`
	ExpiresAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Item     *Item     `gorm:"foreignKey:ItemID"`
	Location *Location `gorm:"foreignKey:LocationID"`
}

// ExpiredAt reports whether the reservation is a stale soft hold at the
// given instant. Only SOFT_RESERVED rows can expire.
func (r *StockReservation) ExpiredAt(now time.Time) bool {
	return r.State == ReservationSoftReserved && r.ExpiresAt != nil && now.After(*r.ExpiresAt)
}
