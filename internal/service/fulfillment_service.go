package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stockcore/internal/model"
	"stockcore/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// ReservationRequest is one item of the produced reservation interface:
// the order layer refers to items by part number or UUID, quantity in
// units.
type ReservationRequest struct {
	ItemRef  string
	Quantity int
}

// FulfillmentService coordinates order confirmation → allocation plan →
// reservation → shipping documents. State machine per order:
// confirmed → (reservation attempt) → reserved | backorder.
type FulfillmentService interface {
	// ReserveForOrder processes a confirmed order. Safe under duplicate
	// event delivery: an active picking slip for the order makes the call
	// a no-op.
	ReserveForOrder(ctx context.Context, tenantID, orderID uuid.UUID) error
	// CancelOrder releases every still-active reservation of the order and
	// cancels its documents. Rejected once the shipment has dispatched.
	CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID) error

	StartPicking(ctx context.Context, tenantID, slipID uuid.UUID) error
	RecordPick(ctx context.Context, tenantID, slipID, slipItemID uuid.UUID, qtyPicked int) error

	// Produced interface consumed by the order layer.
	ReserveItems(ctx context.Context, tenantID, orderID, warehouseID uuid.UUID, items []ReservationRequest) ([]model.StockReservation, error)
	ReleaseReservation(ctx context.Context, tenantID, orderID uuid.UUID) error
}

type fulfillmentService struct {
	orders       repository.SalesOrderRepository
	items        repository.ItemRepository
	locations    repository.LocationRepository
	levels       repository.StockLevelRepository
	slips        repository.PickingSlipRepository
	shippingDocs repository.ShippingDocumentRepository
	reservations repository.StockReservationRepository
	reservation  ReservationService
	allocator    *PickingAllocator
	publisher    EventPublisher
	softTTL      time.Duration
}

func NewFulfillmentService(
	orders repository.SalesOrderRepository,
	items repository.ItemRepository,
	locations repository.LocationRepository,
	levels repository.StockLevelRepository,
	slips repository.PickingSlipRepository,
	shippingDocs repository.ShippingDocumentRepository,
	reservations repository.StockReservationRepository,
	reservation ReservationService,
	allocator *PickingAllocator,
	publisher EventPublisher,
	softTTL time.Duration,
) FulfillmentService {
	return &fulfillmentService{
		orders:       orders,
		items:        items,
		locations:    locations,
		levels:       levels,
		slips:        slips,
		shippingDocs: shippingDocs,
		reservations: reservations,
		reservation:  reservation,
		allocator:    allocator,
		publisher:    publisher,
		softTTL:      softTTL,
	}
}

// allocatedStep is a successfully soft-reserved allocation step, pending
// commitment into a picking slip.
type allocatedStep struct {
	lineID        uuid.UUID
	itemID        uuid.UUID
	locationID    uuid.UUID
	reservationID uuid.UUID
	quantity      int
}

func (s *fulfillmentService) ReserveForOrder(ctx context.Context, tenantID, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.StockStatus == model.OrderStatusCancelled {
		log.Warn().Str("order_id", orderID.String()).Msg("fulfillment: order cancelled, skipping reservation")
		return nil
	}

	// Idempotency: a duplicate OrderConfirmed must not reserve twice.
	active, err := s.slips.HasActiveForOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	if active {
		log.Info().Str("order_id", orderID.String()).Msg("fulfillment: active picking slip exists, duplicate event ignored")
		return nil
	}

	waves, err := s.slips.CountForOrder(ctx, tenantID, orderID)
	if err != nil {
		return err
	}

	// Phase 1: plan and soft-reserve each line. An InsufficientStock on a
	// step is a race lost against a concurrent order — skip the step and
	// keep going; the shortfall flags the order backorder at the end.
	fullyAllocated := true
	var steps []allocatedStep
	for i := range order.Lines {
		line := &order.Lines[i]
		needed := line.Outstanding()
		if needed <= 0 {
			continue
		}
		lineSteps, lineFull, err := s.allocateLine(ctx, tenantID, order.WarehouseID, orderID, line, needed)
		if err != nil {
			return err
		}
		steps = append(steps, lineSteps...)
		if !lineFull {
			fullyAllocated = false
		}
	}

	// Phase 2: commit the plan — one picking slip, one shipping document,
	// reservations promoted to hard — and flag the order.
	status := model.OrderStatusReserved
	if !fullyAllocated {
		status = model.OrderStatusBackorder
	}
	if err := s.commitWave(ctx, tenantID, order, int(waves)+1, steps, status); err != nil {
		return err
	}

	if status == model.OrderStatusBackorder && s.publisher != nil {
		if err := s.publisher.NotifyBackorder(ctx, tenantID, orderID, "order could not be fully allocated"); err != nil {
			log.Warn().Err(err).Str("order_id", orderID.String()).Msg("fulfillment: backorder notification failed")
		}
	}
	return nil
}

// allocateLine builds the allocation plan for one order line and
// soft-reserves every plannable step.
func (s *fulfillmentService) allocateLine(
	ctx context.Context,
	tenantID, warehouseID, orderID uuid.UUID,
	line *model.SalesOrderLine,
	needed int,
) ([]allocatedStep, bool, error) {
	item, err := s.items.FindByUUID(ctx, tenantID, line.ItemID)
	if err != nil {
		return nil, false, fmt.Errorf("resolve item %s for line %s: %w", line.ItemID, line.ID, err)
	}

	locations, err := s.locations.ListCandidates(ctx, tenantID, warehouseID)
	if err != nil {
		return nil, false, err
	}
	levels, err := s.levels.ListByItemWarehouse(ctx, tenantID, item.ID, warehouseID)
	if err != nil {
		return nil, false, err
	}
	onHand := make(map[uuid.UUID]int, len(levels))
	for _, lvl := range levels {
		onHand[lvl.LocationID] = lvl.QuantityOnHand
	}

	plan := s.allocator.BuildPlan(locations, onHand, needed)

	var steps []allocatedStep
	full := true
	for _, step := range plan {
		if step.LocationID == nil {
			full = false
			continue
		}
		res, err := s.reservation.CreateSoft(ctx, CreateSoftParams{
			TenantID:    tenantID,
			ItemID:      item.ID,
			WarehouseID: warehouseID,
			LocationID:  *step.LocationID,
			ReferenceID: orderID,
			Quantity:    step.Quantity,
			TTL:         s.softTTL,
		})
		if err != nil {
			if errors.Is(err, ErrInsufficientStock) {
				log.Warn().
					Str("order_id", orderID.String()).
					Str("location_id", step.LocationID.String()).
					Int("quantity", step.Quantity).
					Msg("fulfillment: allocation step lost race, skipping")
				full = false
				continue
			}
			return nil, false, err
		}
		steps = append(steps, allocatedStep{
			lineID:        line.ID,
			itemID:        item.ID,
			locationID:    *step.LocationID,
			reservationID: res.ID,
			quantity:      step.Quantity,
		})
	}
	return steps, full, nil
}

// commitWave writes the picking slip, shipping document and order status
// in one transaction, promoting the wave's reservations to hard — picking
// slip creation is the commitment point per the reservation lifecycle.
func (s *fulfillmentService) commitWave(
	ctx context.Context,
	tenantID uuid.UUID,
	order *model.SalesOrder,
	wave int,
	steps []allocatedStep,
	status string,
) error {
	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		doc := &model.ShippingDocument{
			TenantID:       tenantID,
			OrderID:        order.ID,
			WarehouseID:    order.WarehouseID,
			DocumentNumber: fmt.Sprintf("SHP-%s-%d", order.OrderNumber, wave),
			Status:         model.ShippingDraft,
		}
		if err := s.shippingDocs.CreateTx(tx, doc); err != nil {
			return err
		}

		slip := &model.PickingSlip{
			TenantID:           tenantID,
			OrderID:            order.ID,
			WarehouseID:        order.WarehouseID,
			ShippingDocumentID: &doc.ID,
			Wave:               wave,
			Status:             model.PickingSlipOpen,
		}
		for _, st := range steps {
			slip.Items = append(slip.Items, model.PickingSlipItem{
				OrderLineID:   st.lineID,
				ItemID:        st.itemID,
				LocationID:    st.locationID,
				ReservationID: st.reservationID,
				Quantity:      st.quantity,
			})
		}
		if err := s.slips.CreateTx(tx, slip); err != nil {
			return err
		}

		for _, st := range steps {
			if err := s.reservation.PromoteToHardTx(tx, tenantID, st.reservationID); err != nil {
				return err
			}
		}

		return s.orders.UpdateStockStatusTx(tx, order.ID, status)
	})
}

func (s *fulfillmentService) CancelOrder(ctx context.Context, tenantID, orderID uuid.UUID) error {
	order, err := s.orders.FindByID(ctx, tenantID, orderID)
	if err != nil {
		return fmt.Errorf("order %s not found: %w", orderID, err)
	}
	if order.StockStatus == model.OrderStatusShipped || order.StockStatus == model.OrderStatusDelivered {
		return fmt.Errorf("cancel order %s: %w", orderID, ErrShipmentAlreadyDispatched)
	}

	active, err := s.reservations.ListActiveByReference(ctx, tenantID, orderID)
	if err != nil {
		return err
	}

	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		for i := range active {
			if err := s.reservation.ReleaseTx(tx, tenantID, active[i].ID); err != nil {
				return err
			}
		}
		if err := s.slips.CancelActiveForOrderTx(tx, orderID); err != nil {
			return err
		}
		docs, err := s.shippingDocs.ListByOrder(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		for _, doc := range docs {
			if doc.Status == model.ShippingDraft || doc.Status == model.ShippingPicking {
				if err := s.shippingDocs.UpdateStatusTx(tx, doc.ID, model.ShippingCancelled); err != nil {
					return err
				}
			}
		}
		return s.orders.UpdateStockStatusTx(tx, orderID, model.OrderStatusCancelled)
	})
}

func (s *fulfillmentService) StartPicking(ctx context.Context, tenantID, slipID uuid.UUID) error {
	slip, err := s.slips.FindByID(ctx, tenantID, slipID)
	if err != nil {
		return err
	}
	if slip.Status != model.PickingSlipOpen {
		return fmt.Errorf("start picking slip %s from %s: %w", slipID, slip.Status, ErrInvalidStateTransition)
	}
	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		for _, item := range slip.Items {
			res, err := s.reservations.FindForUpdateTx(tx, tenantID, item.ReservationID)
			if err != nil {
				return fmt.Errorf("reservation %s for slip item %s: %w", item.ReservationID, item.ID, ErrDataConsistency)
			}
			if res.State != model.ReservationHardReserved {
				return fmt.Errorf("slip item %s reservation in %s: %w", item.ID, res.State, ErrInvalidStateTransition)
			}
			res.State = model.ReservationPicking
			if err := s.reservations.SaveTx(tx, res); err != nil {
				return err
			}
		}
		if slip.ShippingDocumentID != nil {
			if err := s.shippingDocs.UpdateStatusTx(tx, *slip.ShippingDocumentID, model.ShippingPicking); err != nil {
				return err
			}
		}
		return s.slips.UpdateStatusTx(tx, slipID, model.PickingSlipInProgress)
	})
}

func (s *fulfillmentService) RecordPick(ctx context.Context, tenantID, slipID, slipItemID uuid.UUID, qtyPicked int) error {
	if qtyPicked < 0 {
		return fmt.Errorf("record pick: %w: %d", ErrInvalidQuantity, qtyPicked)
	}
	slip, err := s.slips.FindByID(ctx, tenantID, slipID)
	if err != nil {
		return err
	}
	if slip.Status != model.PickingSlipInProgress {
		return fmt.Errorf("record pick on slip %s in %s: %w", slipID, slip.Status, ErrInvalidStateTransition)
	}

	var target *model.PickingSlipItem
	allPicked := true
	for i := range slip.Items {
		if slip.Items[i].ID == slipItemID {
			target = &slip.Items[i]
			continue
		}
		if slip.Items[i].QuantityPicked < slip.Items[i].Quantity {
			allPicked = false
		}
	}
	if target == nil {
		return fmt.Errorf("slip item %s not on slip %s: %w", slipItemID, slipID, ErrDataConsistency)
	}
	if qtyPicked > target.Quantity {
		return fmt.Errorf("record pick: %w: %d exceeds planned %d", ErrInvalidQuantity, qtyPicked, target.Quantity)
	}
	if qtyPicked < target.Quantity {
		allPicked = false
	}

	return runTx(ctx, s.orders.DB(), func(tx *gorm.DB) error {
		if err := s.slips.UpdateItemPickedTx(tx, slipItemID, qtyPicked); err != nil {
			return err
		}
		if allPicked {
			return s.slips.UpdateStatusTx(tx, slipID, model.PickingSlipCompleted)
		}
		return nil
	})
}

// ── Produced reservation interface (order layer) ─────────────────────────────

// ReserveItems places draft-time soft holds with TTL for an order that has
// not been confirmed yet. No documents are created; the holds either get
// promoted when the order confirms or lapse via the expiry sweep.
func (s *fulfillmentService) ReserveItems(ctx context.Context, tenantID, orderID, warehouseID uuid.UUID, items []ReservationRequest) ([]model.StockReservation, error) {
	var created []model.StockReservation
	for _, req := range items {
		if req.Quantity <= 0 {
			return created, fmt.Errorf("reserve items: %w: %d", ErrInvalidQuantity, req.Quantity)
		}
		item, err := s.items.Resolve(ctx, tenantID, req.ItemRef)
		if err != nil {
			return created, fmt.Errorf("resolve item %q: %w", req.ItemRef, err)
		}

		locations, err := s.locations.ListCandidates(ctx, tenantID, warehouseID)
		if err != nil {
			return created, err
		}
		levels, err := s.levels.ListByItemWarehouse(ctx, tenantID, item.ID, warehouseID)
		if err != nil {
			return created, err
		}
		onHand := make(map[uuid.UUID]int, len(levels))
		for _, lvl := range levels {
			onHand[lvl.LocationID] = lvl.QuantityOnHand
		}

		for _, step := range s.allocator.BuildPlan(locations, onHand, req.Quantity) {
			if step.LocationID == nil {
				continue
			}
			res, err := s.reservation.CreateSoft(ctx, CreateSoftParams{
				TenantID:    tenantID,
				ItemID:      item.ID,
				WarehouseID: warehouseID,
				LocationID:  *step.LocationID,
				ReferenceID: orderID,
				Quantity:    step.Quantity,
				TTL:         s.softTTL,
			})
			if err != nil {
				if errors.Is(err, ErrInsufficientStock) {
					continue
				}
				return created, err
			}
			created = append(created, *res)
		}
	}
	return created, nil
}

// ReleaseReservation returns every active hold of the order to the pool.
func (s *fulfillmentService) ReleaseReservation(ctx context.Context, tenantID, orderID uuid.UUID) error {
	active, err := s.reservations.ListActiveByReference(ctx, tenantID, orderID)
	if err != nil {
		return err
	}
	for i := range active {
		if err := s.reservation.Release(ctx, tenantID, active[i].ID); err != nil {
			return err
		}
	}
	return nil
}
