package worker

// fulfillment_worker.go
// Processes order confirmation jobs from QueueOrderConfirmed.
// Builds the allocation plan, reserves stock and opens the picking slip.
// Duplicate deliveries are absorbed by the active-slip check downstream.

import (
	"context"
	"encoding/json"
	"fmt"

	"stockcore/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OrderConfirmedPayload is the job envelope sent to QueueOrderConfirmed.
type OrderConfirmedPayload struct {
	TenantID string `json:"tenant_id"`
	OrderID  string `json:"order_id"`
}

// FulfillmentWorker turns confirmed orders into reservations and picking
// slips.
type FulfillmentWorker struct {
	fulfillment service.FulfillmentService
}

func NewFulfillmentWorker(fulfillment service.FulfillmentService) *FulfillmentWorker {
	return &FulfillmentWorker{fulfillment: fulfillment}
}

func (w *FulfillmentWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload OrderConfirmedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("fulfillment_worker: invalid payload")
		return nil // malformed jobs are not retryable
	}
	tenantID, err := uuid.Parse(payload.TenantID)
	if err != nil {
		log.Error().Str("tenant_id", payload.TenantID).Msg("fulfillment_worker: invalid tenant_id")
		return nil
	}
	orderID, err := uuid.Parse(payload.OrderID)
	if err != nil {
		log.Error().Str("order_id", payload.OrderID).Msg("fulfillment_worker: invalid order_id")
		return nil
	}

	if err := w.fulfillment.ReserveForOrder(ctx, tenantID, orderID); err != nil {
		return fmt.Errorf("reserve for order %s: %w", orderID, err)
	}
	log.Info().Str("order_id", payload.OrderID).Msg("fulfillment_worker: order processed")
	return nil
}
