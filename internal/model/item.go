package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item is the catalog identity every stock row refers to. Cross-module
// references arrive either as a part number or as a UUID; both resolve to
// this single row, and the core only ever stores the UUID.
type Item struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_items_tenant_part,priority:1"`
	PartNumber string    `gorm:"not null;uniqueIndex:idx_items_tenant_part,priority:2"`
	Name       string    `gorm:"index;not null"`
	UOM        string    `gorm:"not null;default:'unit'"`
	// UnitCost is carried for movement valuation in audit reports only;
	// no costing logic runs in this service.
	UnitCost  decimal.Decimal `gorm:"type:decimal(12,4);not null;default:0"`
	Active    bool            `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
