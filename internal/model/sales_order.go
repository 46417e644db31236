package model

import (
	"time"

	"github.com/google/uuid"
)

// Order stock statuses as seen by this core. The order aggregate itself
// lives upstream; we persist the decoupled snapshot delivered with the
// OrderConfirmed event plus the fulfillment-side status.
const (
	OrderStatusConfirmed = "confirmed"
	OrderStatusReserved  = "reserved"
	OrderStatusBackorder = "backorder"
	OrderStatusCancelled = "cancelled"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
)

type SalesOrder struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderNumber string    `gorm:"not null;index"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null"`
	StockStatus string    `gorm:"not null;default:'confirmed';index"`
	// CreatedAt is the FIFO fairness key for backorder re-allocation.
	CreatedAt time.Time `gorm:"index"`
	UpdatedAt time.Time

	Lines []SalesOrderLine `gorm:"foreignKey:OrderID"`
}

type SalesOrderLine struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	ItemID  uuid.UUID `gorm:"type:uuid;not null;index"`
	// PartNumber and Name are snapshot copies so the core never needs live
	// access to the catalog aggregate after ingestion.
	PartNumber      string `gorm:"not null"`
	Name            string `gorm:"not null"`
	Quantity        int    `gorm:"not null"`
	QuantityShipped int    `gorm:"not null;default:0"`
	CreatedAt       time.Time

	Item *Item `gorm:"foreignKey:ItemID"`
}

// Outstanding is the quantity still owed to the customer on this line.
func (l *SalesOrderLine) Outstanding() int {
	return l.Quantity - l.QuantityShipped
}
