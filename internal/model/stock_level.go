package model

import (
	"time"

	"github.com/google/uuid"
)

// StockLevel is the aggregate root for physical inventory: one row per
// (tenant, item, location). The warehouse is denormalized for query speed.
//
// Invariant: QuantityOnHand − QuantityReserved − QuantitySoftReserved ≥ 0
// after every mutation. Rows are created lazily on first receipt or
// reservation attempt and never hard-deleted; quantities may fall to zero.
type StockLevel struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_tenant_item_loc,priority:1"`
	ItemID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_tenant_item_loc,priority:2;index"`
	WarehouseID uuid.UUID `gorm:"type:uuid;not null;index"`
	LocationID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_stock_levels_tenant_item_loc,priority:3"`

	QuantityOnHand       int `gorm:"not null;default:0"`
	QuantityReserved     int `gorm:"not null;default:0"` // hard reservations
	QuantitySoftReserved int `gorm:"not null;default:0"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Item     *Item     `gorm:"foreignKey:ItemID"`
	Location *Location `gorm:"foreignKey:LocationID"`
}

// Available is the quantity that can still be newly reserved.
func (s *StockLevel) Available() int {
	return s.QuantityOnHand - s.QuantityReserved - s.QuantitySoftReserved
}
