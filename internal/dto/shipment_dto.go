package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

// ConfirmShipmentRequest records a carrier pickup for one order line.
// Replays of the same (order_line_id, shipping_document_id) pair are
// absorbed downstream.
type ConfirmShipmentRequest struct {
	OrderLineID        string `json:"order_line_id"        validate:"required,uuid"`
	ShippingDocumentID string `json:"shipping_document_id" validate:"required,uuid"`
	Quantity           int    `json:"quantity"             validate:"required,min=1"`
}

// RecordPickRequest reports the picked quantity for one slip item.
type RecordPickRequest struct {
	Quantity int `json:"quantity" validate:"min=0"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ShippingDocumentResponse struct {
	ID             string `json:"id"`
	OrderID        string `json:"order_id"`
	DocumentNumber string `json:"document_number"`
	Status         string `json:"status"`
	CreatedAt      string `json:"created_at"`
}
