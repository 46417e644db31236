package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ReceiveStockRequest books a putaway into a location. Item accepts a UUID
// or a part number.
type ReceiveStockRequest struct {
	Item        string `json:"item"         validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	// LocationID empty = the warehouse's default GENERAL location.
	LocationID  *string          `json:"location_id"  validate:"omitempty,uuid"`
	Quantity    int              `json:"quantity"     validate:"required,min=1"`
	UnitCost    *decimal.Decimal `json:"unit_cost"    validate:"omitempty"`
	ReferenceID *string          `json:"reference_id" validate:"omitempty,uuid"`
	Reason      string           `json:"reason"       validate:"omitempty,max=255"`
}

type TransferStockRequest struct {
	Item           string  `json:"item"             validate:"required"`
	WarehouseID    string  `json:"warehouse_id"     validate:"required,uuid"`
	FromLocationID string  `json:"from_location_id" validate:"required,uuid"`
	ToLocationID   string  `json:"to_location_id"   validate:"required,uuid"`
	Quantity       int     `json:"quantity"         validate:"required,min=1"`
	ReferenceID    *string `json:"reference_id"     validate:"omitempty,uuid"`
}

// AdjustStockRequest sets the absolute counted quantity after a cycle count.
type AdjustStockRequest struct {
	Item        string `json:"item"         validate:"required"`
	WarehouseID string `json:"warehouse_id" validate:"required,uuid"`
	LocationID  string `json:"location_id"  validate:"required,uuid"`
	NewQuantity int    `json:"new_quantity" validate:"min=0"`
	Reason      string `json:"reason"       validate:"required,min=5"`
}

// ─── Filter / List ──────────────────────────────────────────────────────────

// StockLevelFilter is bound from query string of GET /v1/stock/levels.
type StockLevelFilter struct {
	Item        string `form:"item"`
	WarehouseID string `form:"warehouse_id" validate:"omitempty,uuid"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type StockMovementFilter struct {
	Item        string `form:"item"`
	WarehouseID string `form:"warehouse_id" validate:"omitempty,uuid"`
	Type        string `form:"type"         validate:"omitempty,oneof=RECEIPT ISSUE SHIP TRANSFER_IN TRANSFER_OUT ADJUSTMENT"`
	Page        int    `form:"page,default=1"   validate:"min=1"`
	Limit       int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type StockLevelResponse struct {
	ID           string `json:"id"`
	ItemID       string `json:"item_id"`
	PartNumber   string `json:"part_number,omitempty"`
	WarehouseID  string `json:"warehouse_id"`
	LocationID   string `json:"location_id"`
	LocationCode string `json:"location_code,omitempty"`
	OnHand       int    `json:"on_hand"`
	Reserved     int    `json:"reserved"`
	SoftReserved int    `json:"soft_reserved"`
	Available    int    `json:"available"`
}

type StockLevelListResponse struct {
	Data  []StockLevelResponse `json:"data"`
	Total int64                `json:"total"`
	Page  int                  `json:"page"`
	Limit int                  `json:"limit"`
}

type StockMovementResponse struct {
	ID           string           `json:"id"`
	Type         string           `json:"type"`
	ItemID       string           `json:"item_id"`
	WarehouseID  string           `json:"warehouse_id"`
	LocationID   string           `json:"location_id"`
	Quantity     int              `json:"quantity"`
	OnHandBefore int              `json:"on_hand_before"`
	OnHandAfter  int              `json:"on_hand_after"`
	UnitCost     *decimal.Decimal `json:"unit_cost,omitempty"`
	ReferenceID  *string          `json:"reference_id,omitempty"`
	Reason       string           `json:"reason,omitempty"`
	CreatedAt    string           `json:"created_at"`
}

type StockMovementListResponse struct {
	Data  []StockMovementResponse `json:"data"`
	Total int64                   `json:"total"`
	Page  int                     `json:"page"`
	Limit int                     `json:"limit"`
}
