package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type OrderLineRequest struct {
	Item     string `json:"item"     validate:"required"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// CreateOrderRequest registers a confirmed sales order. Reservation and
// picking slip creation happen asynchronously via the worker pool.
type CreateOrderRequest struct {
	OrderNumber string             `json:"order_number" validate:"required,min=1,max=64"`
	WarehouseID string             `json:"warehouse_id" validate:"required,uuid"`
	Lines       []OrderLineRequest `json:"lines"        validate:"required,min=1,dive"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type OrderLineResponse struct {
	ID              string `json:"id"`
	ItemID          string `json:"item_id"`
	Quantity        int    `json:"quantity"`
	QuantityShipped int    `json:"quantity_shipped"`
}

type OrderResponse struct {
	ID          string              `json:"id"`
	OrderNumber string              `json:"order_number"`
	WarehouseID string              `json:"warehouse_id"`
	StockStatus string              `json:"stock_status"`
	Lines       []OrderLineResponse `json:"lines"`
	CreatedAt   string              `json:"created_at"`
}

type PickingSlipItemResponse struct {
	ID             string `json:"id"`
	OrderLineID    string `json:"order_line_id"`
	ItemID         string `json:"item_id"`
	LocationID     string `json:"location_id"`
	ReservationID  string `json:"reservation_id"`
	Quantity       int    `json:"quantity"`
	QuantityPicked int    `json:"quantity_picked"`
}

type PickingSlipResponse struct {
	ID                 string                    `json:"id"`
	OrderID            string                    `json:"order_id"`
	ShippingDocumentID *string                   `json:"shipping_document_id,omitempty"`
	Wave               int                       `json:"wave"`
	Status             string                    `json:"status"`
	Items              []PickingSlipItemResponse `json:"items"`
	CreatedAt          string                    `json:"created_at"`
}
