package worker

// stock_received_worker.go
// Processes putaway jobs from QueueStockReceived.
// Redistributes the received quantity over waiting backorders, oldest
// order first.

import (
	"context"
	"encoding/json"
	"fmt"

	"stockcore/internal/service"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// StockReceivedPayload is the job envelope sent to QueueStockReceived.
type StockReceivedPayload struct {
	TenantID    string `json:"tenant_id"`
	ItemID      string `json:"item_id"`
	WarehouseID string `json:"warehouse_id"`
	LocationID  string `json:"location_id"`
	Quantity    int    `json:"quantity"`
}

// StockReceivedWorker feeds fresh receipts to the backorder reallocator.
type StockReceivedWorker struct {
	backorder service.BackorderService
}

func NewStockReceivedWorker(backorder service.BackorderService) *StockReceivedWorker {
	return &StockReceivedWorker{backorder: backorder}
}

func (w *StockReceivedWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload StockReceivedPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		log.Error().Err(err).Msg("stock_received_worker: invalid payload")
		return nil
	}
	ids, err := parseIDs(payload.TenantID, payload.ItemID, payload.WarehouseID, payload.LocationID)
	if err != nil {
		log.Error().Err(err).Msg("stock_received_worker: invalid payload ids")
		return nil
	}
	if payload.Quantity <= 0 {
		log.Warn().Int("quantity", payload.Quantity).Msg("stock_received_worker: non-positive quantity, skipping")
		return nil
	}

	allocated, err := w.backorder.HandleStockReceived(ctx, ids[0], ids[1], ids[2], ids[3], payload.Quantity)
	if err != nil {
		return fmt.Errorf("reallocate item %s: %w", payload.ItemID, err)
	}
	log.Info().
		Str("item_id", payload.ItemID).
		Int("received", payload.Quantity).
		Int("allocated", allocated).
		Msg("stock_received_worker: receipt processed")
	return nil
}

func parseIDs(raw ...string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, len(raw))
	for i, r := range raw {
		id, err := uuid.Parse(r)
		if err != nil {
			return nil, fmt.Errorf("parse %q: %w", r, err)
		}
		ids[i] = id
	}
	return ids, nil
}
