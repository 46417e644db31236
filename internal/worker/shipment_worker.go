package worker

// shipment_worker.go
// Processes carrier confirmation jobs from QueueShipmentConfirmed.
// Applies the shipment to the ledger; replays are absorbed by the
// fulfillment history unique constraint.

import (
	"context"
	"encoding/json"
	"fmt"

	"stockcore/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ShipmentConfirmedPayload is the job envelope sent to QueueShipmentConfirmed.
type ShipmentConfirmedPayload struct {
	TenantID           string `json:"tenant_id"`
	OrderLineID        string `json:"order_line_id"`
	ShippingDocumentID string `json:"shipping_document_id"`
	Quantity           int    `json:"quantity"`
	ActorID            string `json:"actor_id,omitempty"`
}

// ShipmentWorker applies confirmed shipments to stock.
type ShipmentWorker struct {
	shipment service.ShipmentService
}

func NewShipmentWorker(shipment service.ShipmentService) *ShipmentWorker {
	return &ShipmentWorker{shipment: shipment}
}

func (w *ShipmentWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload ShipmentConfirmedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("shipment_worker: invalid payload")
		return nil
	}
	ids, err := parseIDs(payload.TenantID, payload.OrderLineID, payload.ShippingDocumentID)
	if err != nil {
		log.Error().Err(err).Msg("shipment_worker: invalid payload ids")
		return nil
	}
	var actorID *uuid.UUID
	if payload.ActorID != "" {
		if id, err := uuid.Parse(payload.ActorID); err == nil {
			actorID = &id
		}
	}

	if err := w.shipment.ConfirmShipment(ctx, service.ConfirmShipmentParams{
		TenantID:           ids[0],
		OrderLineID:        ids[1],
		ShippingDocumentID: ids[2],
		Quantity:           payload.Quantity,
		ActorID:            actorID,
	}); err != nil {
		return fmt.Errorf("confirm shipment for line %s: %w", payload.OrderLineID, err)
	}
	log.Info().
		Str("order_line_id", payload.OrderLineID).
		Str("shipping_document_id", payload.ShippingDocumentID).
		Msg("shipment_worker: shipment applied")
	return nil
}
