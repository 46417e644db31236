package model

import (
	"time"

	"github.com/google/uuid"
)

const (
	ShippingDraft      = "draft"
	ShippingPicking    = "picking"
	ShippingDispatched = "dispatched"
	ShippingDelivered  = "delivered"
	ShippingCancelled  = "cancelled"
)

// ShippingDocument is the outbound document created per fulfillment wave.
// Once it reaches dispatched/delivered the order can no longer be
// cancelled through this core.
type ShippingDocument struct {
	ID             uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID       uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderID        uuid.UUID `gorm:"type:uuid;not null;index"`
	WarehouseID    uuid.UUID `gorm:"type:uuid;not null"`
	DocumentNumber string    `gorm:"not null"`
	Status         string    `gorm:"not null;default:'draft';index"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
