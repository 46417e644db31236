package handler

import (
	"errors"
	"net/http"
	"time"

	"stockcore/internal/apierror"
	"stockcore/internal/dto"
	"stockcore/internal/middleware"
	"stockcore/internal/model"
	"stockcore/internal/repository"
	"stockcore/internal/service"
	"stockcore/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// OrderHandler ingests confirmed orders and exposes their fulfillment
// state. Reservation itself happens asynchronously in the worker pool.
type OrderHandler struct {
	orders      repository.SalesOrderRepository
	items       repository.ItemRepository
	slips       repository.PickingSlipRepository
	fulfillment service.FulfillmentService
	dispatcher  *worker.Dispatcher
}

func NewOrderHandler(
	orders repository.SalesOrderRepository,
	items repository.ItemRepository,
	slips repository.PickingSlipRepository,
	fulfillment service.FulfillmentService,
	dispatcher *worker.Dispatcher,
) *OrderHandler {
	return &OrderHandler{
		orders:      orders,
		items:       items,
		slips:       slips,
		fulfillment: fulfillment,
		dispatcher:  dispatcher,
	}
}

// Create registers the order snapshot and enqueues the reservation job.
func (h *OrderHandler) Create(c *gin.Context) {
	var req dto.CreateOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID := middleware.TenantID(c)
	ctx := c.Request.Context()

	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid warehouse_id"))
		return
	}

	order := &model.SalesOrder{
		TenantID:    tenantID,
		OrderNumber: req.OrderNumber,
		WarehouseID: warehouseID,
		StockStatus: model.OrderStatusConfirmed,
	}
	for _, line := range req.Lines {
		item, err := h.items.Resolve(ctx, tenantID, line.Item)
		if err != nil {
			c.JSON(http.StatusNotFound, apierror.New("item not found: "+line.Item))
			return
		}
		order.Lines = append(order.Lines, model.SalesOrderLine{
			ItemID:     item.ID,
			PartNumber: item.PartNumber,
			Name:       item.Name,
			Quantity:   line.Quantity,
		})
	}

	if err := h.orders.Create(ctx, order); err != nil {
		c.Error(err)
		return
	}

	if err := h.dispatcher.EnqueueOrderConfirmed(ctx, worker.OrderConfirmedPayload{
		TenantID: tenantID.String(),
		OrderID:  order.ID.String(),
	}); err != nil {
		// The order row exists; the expiry-less confirmed state is visible
		// and the job can be replayed manually from the DLQ runbook.
		log.Error().Err(err).Str("order_id", order.ID.String()).Msg("orders: failed to enqueue reservation job")
	}

	c.JSON(http.StatusCreated, orderResponse(order))
}

func (h *OrderHandler) Get(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.FindByID(c.Request.Context(), middleware.TenantID(c), orderID)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("order not found"))
		return
	}
	c.JSON(http.StatusOK, orderResponse(order))
}

// Cancel releases the order's reservations unless it already dispatched.
func (h *OrderHandler) Cancel(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	err := h.fulfillment.CancelOrder(c.Request.Context(), middleware.TenantID(c), orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrShipmentAlreadyDispatched):
			c.JSON(http.StatusConflict, apierror.New("order already dispatched, cancellation rejected"))
		default:
			c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, gin.H{"cancelled": true})
}

func (h *OrderHandler) ListPickingSlips(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	slips, err := h.slips.ListActiveForOrder(c.Request.Context(), middleware.TenantID(c), orderID)
	if err != nil {
		c.Error(err)
		return
	}
	resp := make([]dto.PickingSlipResponse, 0, len(slips))
	for i := range slips {
		resp = append(resp, slipResponse(&slips[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// StartPicking moves an open slip and its reservations into PICKING.
func (h *OrderHandler) StartPicking(c *gin.Context) {
	slipID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	err := h.fulfillment.StartPicking(c.Request.Context(), middleware.TenantID(c), slipID)
	if err != nil {
		writeFulfillmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": model.PickingSlipInProgress})
}

// RecordPick reports the picked quantity for one slip item.
func (h *OrderHandler) RecordPick(c *gin.Context) {
	slipID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	itemID, ok := pathUUID(c, "item_id")
	if !ok {
		return
	}
	var req dto.RecordPickRequest
	if !bindAndValidate(c, &req) {
		return
	}
	err := h.fulfillment.RecordPick(c.Request.Context(), middleware.TenantID(c), slipID, itemID, req.Quantity)
	if err != nil {
		writeFulfillmentError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"recorded": true})
}

func writeFulfillmentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidStateTransition):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	case errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrDataConsistency):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	default:
		c.Error(err)
	}
}

func orderResponse(o *model.SalesOrder) dto.OrderResponse {
	resp := dto.OrderResponse{
		ID:          o.ID.String(),
		OrderNumber: o.OrderNumber,
		WarehouseID: o.WarehouseID.String(),
		StockStatus: o.StockStatus,
		CreatedAt:   o.CreatedAt.Format(time.RFC3339),
	}
	for i := range o.Lines {
		l := &o.Lines[i]
		resp.Lines = append(resp.Lines, dto.OrderLineResponse{
			ID:              l.ID.String(),
			ItemID:          l.ItemID.String(),
			Quantity:        l.Quantity,
			QuantityShipped: l.QuantityShipped,
		})
	}
	return resp
}

func slipResponse(s *model.PickingSlip) dto.PickingSlipResponse {
	resp := dto.PickingSlipResponse{
		ID:        s.ID.String(),
		OrderID:   s.OrderID.String(),
		Wave:      s.Wave,
		Status:    s.Status,
		CreatedAt: s.CreatedAt.Format(time.RFC3339),
	}
	if s.ShippingDocumentID != nil {
		docID := s.ShippingDocumentID.String()
		resp.ShippingDocumentID = &docID
	}
	for i := range s.Items {
		it := &s.Items[i]
		resp.Items = append(resp.Items, dto.PickingSlipItemResponse{
			ID:             it.ID.String(),
			OrderLineID:    it.OrderLineID.String(),
			ItemID:         it.ItemID.String(),
			LocationID:     it.LocationID.String(),
			ReservationID:  it.ReservationID.String(),
			Quantity:       it.Quantity,
			QuantityPicked: it.QuantityPicked,
		})
	}
	return resp
}
