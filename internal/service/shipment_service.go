package service

import (
	"context"
	"fmt"

	"stockcore/internal/model"
	"stockcore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ConfirmShipmentParams identifies exactly one shipment of one order line.
// The (OrderLineID, ShippingDocumentID) pair is the idempotency key.
type ConfirmShipmentParams struct {
	TenantID           uuid.UUID
	OrderLineID        uuid.UUID
	ShippingDocumentID uuid.UUID
	Quantity           int
	ActorID            *uuid.UUID
}

// ShipmentService applies confirmed shipments to the ledger. Shipments
// arrive as events from the carrier integration and may be delivered more
// than once.
type ShipmentService interface {
	ConfirmShipment(ctx context.Context, p ConfirmShipmentParams) error
	MarkDelivered(ctx context.Context, tenantID, shippingDocumentID uuid.UUID) error
}

type shipmentService struct {
	orders       repository.SalesOrderRepository
	slips        repository.PickingSlipRepository
	shippingDocs repository.ShippingDocumentRepository
	reservations repository.StockReservationRepository
	history      repository.FulfillmentHistoryRepository
	reservation  ReservationService
	ledger       StockLedgerService
}

func NewShipmentService(
	orders repository.SalesOrderRepository,
	slips repository.PickingSlipRepository,
	shippingDocs repository.ShippingDocumentRepository,
	reservations repository.StockReservationRepository,
	history repository.FulfillmentHistoryRepository,
	reservation ReservationService,
	ledger StockLedgerService,
) ShipmentService {
	return &shipmentService{
		orders:       orders,
		slips:        slips,
		shippingDocs: shippingDocs,
		reservations: reservations,
		history:      history,
		reservation:  reservation,
		ledger:       ledger,
	}
}

// ConfirmShipment decrements on-hand at the picked location, consumes the
// reservation and advances the order line, all in one transaction guarded
// by the fulfillment history insert. A replayed event hits the unique
// constraint, skips every side effect and commits nothing new.
func (s *shipmentService) ConfirmShipment(ctx context.Context, p ConfirmShipmentParams) error {
	if p.Quantity <= 0 {
		return fmt.Errorf("confirm shipment: %w: %d", ErrInvalidQuantity, p.Quantity)
	}

	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		inserted, err := s.history.InsertIgnoreDuplicateTx(tx, &model.FulfillmentHistory{
			TenantID:           p.TenantID,
			OrderLineID:        p.OrderLineID,
			ShippingDocumentID: p.ShippingDocumentID,
			QuantityShipped:    p.Quantity,
		})
		if err != nil {
			return err
		}
		if !inserted {
			log.Info().
				Str("order_line_id", p.OrderLineID.String()).
				Str("shipping_document_id", p.ShippingDocumentID.String()).
				Msg("shipment: duplicate confirmation absorbed")
			return nil
		}

		slipItem, err := s.slips.FindItemByLineAndDocTx(tx, p.OrderLineID, p.ShippingDocumentID)
		if err != nil {
			return fmt.Errorf("no picking slip item for line %s on document %s: %w", p.OrderLineID, p.ShippingDocumentID, ErrDataConsistency)
		}
		res, err := s.reservations.FindForUpdateTx(tx, p.TenantID, slipItem.ReservationID)
		if err != nil {
			return fmt.Errorf("reservation %s for slip item %s: %w", slipItem.ReservationID, slipItem.ID, ErrDataConsistency)
		}
		if res.State.Terminal() {
			return fmt.Errorf("ship against reservation %s in %s: %w", res.ID, res.State, ErrInvalidStateTransition)
		}
		// The carrier event's quantity is untrusted input. More than the
		// slip item planned would eat into other orders' holds at this
		// location.
		if p.Quantity > slipItem.Quantity {
			return fmt.Errorf("ship %d against slip item %s planned for %d: %w",
				p.Quantity, slipItem.ID, slipItem.Quantity, ErrInvalidQuantity)
		}

		key := repository.StockKey{
			TenantID:    p.TenantID,
			ItemID:      res.ItemID,
			WarehouseID: res.WarehouseID,
			LocationID:  res.LocationID,
		}
		if _, err := s.ledger.ShipReservedTx(tx, MovementParams{
			Key:         key,
			Quantity:    p.Quantity,
			ActorID:     p.ActorID,
			ReferenceID: &p.ShippingDocumentID,
			Reason:      "shipment confirmed",
		}); err != nil {
			return err
		}

		// A short shipment fulfils the reservation anyway; the un-shipped
		// remainder must go back to the free pool now or it stays held
		// behind a terminal reservation.
		if remainder := res.Quantity - p.Quantity; remainder > 0 {
			log.Warn().
				Str("reservation_id", res.ID.String()).
				Int("reserved", res.Quantity).
				Int("shipped", p.Quantity).
				Msg("shipment: short shipment, releasing remainder")
			if err := s.ledger.ReleaseHardTx(tx, key, remainder); err != nil {
				return err
			}
		}

		if err := s.reservation.MarkFulfilledTx(tx, p.TenantID, res.ID); err != nil {
			return err
		}
		if err := s.orders.IncrementShippedTx(tx, p.OrderLineID, p.Quantity); err != nil {
			return err
		}
		if err := s.shippingDocs.UpdateStatusTx(tx, p.ShippingDocumentID, model.ShippingDispatched); err != nil {
			return err
		}

		return s.advanceOrderTx(tx, p.TenantID, p.OrderLineID)
	})
}

// advanceOrderTx marks the order shipped once no line has outstanding
// quantity left.
func (s *shipmentService) advanceOrderTx(tx *gorm.DB, tenantID, lineID uuid.UUID) error {
	line, err := s.orders.FindLineTx(tx, lineID)
	if err != nil {
		return err
	}
	lines, err := s.orders.LinesTx(tx, line.OrderID)
	if err != nil {
		return err
	}
	for i := range lines {
		if lines[i].Outstanding() > 0 {
			return nil
		}
	}
	return s.orders.UpdateStockStatusTx(tx, line.OrderID, model.OrderStatusShipped)
}

func (s *shipmentService) MarkDelivered(ctx context.Context, tenantID, shippingDocumentID uuid.UUID) error {
	doc, err := s.shippingDocs.FindByID(ctx, tenantID, shippingDocumentID)
	if err != nil {
		return err
	}
	if doc.Status != model.ShippingDispatched {
		return fmt.Errorf("deliver document %s in %s: %w", shippingDocumentID, doc.Status, ErrInvalidStateTransition)
	}
	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if err := s.shippingDocs.UpdateStatusTx(tx, shippingDocumentID, model.ShippingDelivered); err != nil {
			return err
		}
		order, err := s.orders.FindForUpdateTx(tx, tenantID, doc.OrderID)
		if err != nil {
			return err
		}
		if order.StockStatus == model.OrderStatusShipped {
			return s.orders.UpdateStockStatusTx(tx, order.ID, model.OrderStatusDelivered)
		}
		return nil
	})
}
