package service

import (
	"context"
	"fmt"
	"time"

	"stockcore/internal/model"
	"stockcore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// BackorderService redistributes newly received stock across orders that
// were left short. Orders are served strictly by confirmation time, each
// in its own transaction, so one poisoned order cannot starve the rest.
type BackorderService interface {
	// HandleStockReceived allocates up to quantity units of the item, just
	// put away at the given location, to the oldest backorders first.
	// Returns the number of units actually allocated.
	HandleStockReceived(ctx context.Context, tenantID, itemID, warehouseID, locationID uuid.UUID, quantity int) (int, error)
}

type backorderService struct {
	orders       repository.SalesOrderRepository
	slips        repository.PickingSlipRepository
	shippingDocs repository.ShippingDocumentRepository
	reservation  ReservationService
	publisher    EventPublisher
	softTTL      time.Duration
}

func NewBackorderService(
	orders repository.SalesOrderRepository,
	slips repository.PickingSlipRepository,
	shippingDocs repository.ShippingDocumentRepository,
	reservation ReservationService,
	publisher EventPublisher,
	softTTL time.Duration,
) BackorderService {
	return &backorderService{
		orders:       orders,
		slips:        slips,
		shippingDocs: shippingDocs,
		reservation:  reservation,
		publisher:    publisher,
		softTTL:      softTTL,
	}
}

func (s *backorderService) HandleStockReceived(ctx context.Context, tenantID, itemID, warehouseID, locationID uuid.UUID, quantity int) (int, error) {
	if quantity <= 0 {
		return 0, fmt.Errorf("stock received: %w: %d", ErrInvalidQuantity, quantity)
	}

	backorders, err := s.orders.ListBackordersForItem(ctx, tenantID, itemID)
	if err != nil {
		return 0, err
	}
	if len(backorders) == 0 {
		return 0, nil
	}

	remaining := quantity
	allocated := 0
	for i := range backorders {
		if remaining == 0 {
			break
		}
		got, err := s.reallocateOrder(ctx, tenantID, backorders[i].ID, itemID, warehouseID, locationID, remaining)
		if err != nil {
			// Keep walking: fairness to later orders must not hinge on one
			// order committing cleanly.
			log.Error().Err(err).
				Str("order_id", backorders[i].ID.String()).
				Str("item_id", itemID.String()).
				Msg("backorder: reallocation failed for order, continuing")
			continue
		}
		remaining -= got
		allocated += got
	}

	log.Info().
		Str("item_id", itemID.String()).
		Int("received", quantity).
		Int("allocated", allocated).
		Int("orders_considered", len(backorders)).
		Msg("backorder: reallocation pass done")
	return allocated, nil
}

// reallocateOrder serves one backorder inside its own transaction. The
// order row is locked first so concurrent passes over the same order
// serialize, and promised-but-unpicked slip quantity is subtracted from
// the outstanding before allocating, so a line is never over-promised.
func (s *backorderService) reallocateOrder(ctx context.Context, tenantID, orderID, itemID, warehouseID, locationID uuid.UUID, budget int) (int, error) {
	waves, err := s.slips.CountForOrder(ctx, tenantID, orderID)
	if err != nil {
		return 0, err
	}

	allocated := 0
	err = runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		order, err := s.orders.FindForUpdateTx(tx, tenantID, orderID)
		if err != nil {
			return err
		}
		if order.StockStatus != model.OrderStatusBackorder {
			return nil
		}
		lines, err := s.orders.LinesTx(tx, orderID)
		if err != nil {
			return err
		}

		type grant struct {
			lineID uuid.UUID
			qty    int
		}
		var grants []grant
		stillShort := false
		for i := range lines {
			line := &lines[i]
			if line.ItemID != itemID {
				if s.lineShortTx(tx, line) {
					stillShort = true
				}
				continue
			}
			pending, err := s.slips.PendingPromisedForLineTx(tx, line.ID)
			if err != nil {
				return err
			}
			needed := line.Outstanding() - pending
			if needed <= 0 {
				continue
			}
			take := needed
			if take > budget-allocated {
				take = budget - allocated
			}
			if take <= 0 {
				stillShort = true
				continue
			}
			grants = append(grants, grant{lineID: line.ID, qty: take})
			allocated += take
			if take < needed {
				stillShort = true
			}
		}
		if len(grants) == 0 {
			return nil
		}

		doc := &model.ShippingDocument{
			TenantID:       tenantID,
			OrderID:        orderID,
			WarehouseID:    warehouseID,
			DocumentNumber: fmt.Sprintf("SHP-%s-%d", order.OrderNumber, waves+1),
			Status:         model.ShippingDraft,
		}
		if err := s.shippingDocs.CreateTx(tx, doc); err != nil {
			return err
		}
		slip := &model.PickingSlip{
			TenantID:           tenantID,
			OrderID:            orderID,
			WarehouseID:        warehouseID,
			ShippingDocumentID: &doc.ID,
			Wave:               int(waves) + 1,
			Status:             model.PickingSlipOpen,
		}
		for _, g := range grants {
			res, err := s.reservation.CreateSoftTx(tx, CreateSoftParams{
				TenantID:    tenantID,
				ItemID:      itemID,
				WarehouseID: warehouseID,
				LocationID:  locationID,
				ReferenceID: orderID,
				Quantity:    g.qty,
				TTL:         s.softTTL,
			})
			if err != nil {
				// On InsufficientStock the receipt raced away underneath us;
				// the whole order tx rolls back and a later receipt retries.
				return err
			}
			slip.Items = append(slip.Items, model.PickingSlipItem{
				OrderLineID:   g.lineID,
				ItemID:        itemID,
				LocationID:    locationID,
				ReservationID: res.ID,
				Quantity:      g.qty,
			})
		}
		if err := s.slips.CreateTx(tx, slip); err != nil {
			return err
		}
		for _, it := range slip.Items {
			if err := s.reservation.PromoteToHardTx(tx, tenantID, it.ReservationID); err != nil {
				return err
			}
		}

		if !stillShort {
			return s.orders.UpdateStockStatusTx(tx, orderID, model.OrderStatusReserved)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return allocated, nil
}

// lineShortTx reports whether an order line still has outstanding quantity
// not yet promised on an active picking slip.
func (s *backorderService) lineShortTx(tx *gorm.DB, line *model.SalesOrderLine) bool {
	pending, err := s.slips.PendingPromisedForLineTx(tx, line.ID)
	if err != nil {
		return true
	}
	return line.Outstanding()-pending > 0
}
