package model

import (
	"time"

	"github.com/google/uuid"
)

// FulfillmentHistory is the deduplication ledger for shipment events.
// The unique constraint on (order line, shipping document) is the
// idempotency mechanism: a replayed event that would insert a duplicate
// pair is ignored instead of double-incrementing the line's shipped
// quantity.
type FulfillmentHistory struct {
	ID                 uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	TenantID           uuid.UUID `gorm:"type:uuid;not null;index"`
	OrderLineID        uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fulfillment_line_doc,priority:1"`
	ShippingDocumentID uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_fulfillment_line_doc,priority:2"`
	QuantityShipped    int       `gorm:"not null"`
	CreatedAt          time.Time
}

// TableName overrides GORM's default pluralization (fulfillment_histories).
func (FulfillmentHistory) TableName() string { return "fulfillment_history" }
