package model

import (
	"time"

	"github.com/google/uuid"
)

// LocationType classifies a storage location for allocation purposes.
// PICKING zones are consumed first, the GENERAL bucket last; DAMAGED,
// RETURN and INBOUND locations never participate in allocation.
type LocationType string

const (
	LocationTypePicking LocationType = "PICKING"
	LocationTypeGeneral LocationType = "GENERAL"
	LocationTypeBulk    LocationType = "BULK"
	LocationTypeDamaged LocationType = "DAMAGED"
	LocationTypeReturn  LocationType = "RETURN"
	LocationTypeInbound LocationType = "INBOUND"
)

// Allocatable reports whether stock in this location type may be planned
// for picking.
func (t LocationType) Allocatable() bool {
	switch t {
	case LocationTypeDamaged, LocationTypeReturn, LocationTypeInbound:
		return false
	}
	return true
}

type Warehouse struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_warehouses_tenant_code,priority:1"`
	Code      string    `gorm:"not null;uniqueIndex:idx_warehouses_tenant_code,priority:2"`
	Name      string    `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Location is the finest granularity stock is tracked at. CreatedAt doubles
// as the FIFO tie-breaker during allocation.
type Location struct {
	ID          uuid.UUID    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID    uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_locations_tenant_wh_code,priority:1"`
	WarehouseID uuid.UUID    `gorm:"type:uuid;not null;uniqueIndex:idx_locations_tenant_wh_code,priority:2;index"`
	Code        string       `gorm:"not null;uniqueIndex:idx_locations_tenant_wh_code,priority:3"`
	Type        LocationType `gorm:"not null;default:'BULK'"`
	Active      bool         `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Warehouse *Warehouse `gorm:"foreignKey:WarehouseID"`
}
