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
	"gorm.io/gorm"
)

// StockHandler exposes the physical ledger: receipts, transfers,
// adjustments and the read side (levels, movement history).
type StockHandler struct {
	ledger     service.StockLedgerService
	items      repository.ItemRepository
	locations  repository.LocationRepository
	levels     repository.StockLevelRepository
	movements  repository.StockMovementRepository
	dispatcher *worker.Dispatcher
}

func NewStockHandler(
	ledger service.StockLedgerService,
	items repository.ItemRepository,
	locations repository.LocationRepository,
	levels repository.StockLevelRepository,
	movements repository.StockMovementRepository,
	dispatcher *worker.Dispatcher,
) *StockHandler {
	return &StockHandler{
		ledger:     ledger,
		items:      items,
		locations:  locations,
		levels:     levels,
		movements:  movements,
		dispatcher: dispatcher,
	}
}

// Receive books a putaway and enqueues the backorder reallocation pass.
func (h *StockHandler) Receive(c *gin.Context) {
	var req dto.ReceiveStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID := middleware.TenantID(c)
	ctx := c.Request.Context()

	item, err := h.items.Resolve(ctx, tenantID, req.Item)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("item not found"))
		return
	}
	warehouseID, err := uuid.Parse(req.WarehouseID)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("invalid warehouse_id"))
		return
	}

	var locationID uuid.UUID
	if req.LocationID != nil {
		locationID, err = uuid.Parse(*req.LocationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, apierror.New("invalid location_id"))
			return
		}
	} else {
		loc, err := h.locations.EnsureGeneralLocation(ctx, tenantID, warehouseID)
		if err != nil {
			c.Error(err)
			return
		}
		locationID = loc.ID
	}

	params := service.MovementParams{
		Key: repository.StockKey{
			TenantID:    tenantID,
			ItemID:      item.ID,
			WarehouseID: warehouseID,
			LocationID:  locationID,
		},
		Quantity: req.Quantity,
		UnitCost: item.UnitCost,
		Reason:   req.Reason,
	}
	if req.UnitCost != nil {
		params.UnitCost = *req.UnitCost
	}
	if req.ReferenceID != nil {
		if refID, err := uuid.Parse(*req.ReferenceID); err == nil {
			params.ReferenceID = &refID
		}
	}

	mov, err := h.ledger.Receive(ctx, params)
	if err != nil {
		writeStockError(c, err)
		return
	}

	// Newly arrived quantity may satisfy waiting backorders.
	if err := h.dispatcher.EnqueueStockReceived(ctx, worker.StockReceivedPayload{
		TenantID:    tenantID.String(),
		ItemID:      item.ID.String(),
		WarehouseID: warehouseID.String(),
		LocationID:  locationID.String(),
		Quantity:    req.Quantity,
	}); err != nil {
		log.Warn().Err(err).Str("item_id", item.ID.String()).Msg("stock: failed to enqueue reallocation job")
	}

	c.JSON(http.StatusCreated, movementResponse(mov))
}

func (h *StockHandler) Transfer(c *gin.Context) {
	var req dto.TransferStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID := middleware.TenantID(c)
	ctx := c.Request.Context()

	item, err := h.items.Resolve(ctx, tenantID, req.Item)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("item not found"))
		return
	}
	warehouseID, _ := uuid.Parse(req.WarehouseID)
	fromID, _ := uuid.Parse(req.FromLocationID)
	toID, _ := uuid.Parse(req.ToLocationID)
	if fromID == toID {
		c.JSON(http.StatusBadRequest, apierror.New("from_location_id and to_location_id must differ"))
		return
	}

	params := service.TransferParams{
		TenantID:       tenantID,
		ItemID:         item.ID,
		WarehouseID:    warehouseID,
		FromLocationID: fromID,
		ToLocationID:   toID,
		Quantity:       req.Quantity,
	}
	if req.ReferenceID != nil {
		if refID, err := uuid.Parse(*req.ReferenceID); err == nil {
			params.ReferenceID = &refID
		}
	}

	movs, err := h.ledger.Transfer(ctx, params)
	if err != nil {
		writeStockError(c, err)
		return
	}
	resp := make([]dto.StockMovementResponse, 0, len(movs))
	for i := range movs {
		resp = append(resp, movementResponse(&movs[i]))
	}
	c.JSON(http.StatusCreated, resp)
}

func (h *StockHandler) Adjust(c *gin.Context) {
	var req dto.AdjustStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID := middleware.TenantID(c)
	ctx := c.Request.Context()

	item, err := h.items.Resolve(ctx, tenantID, req.Item)
	if err != nil {
		c.JSON(http.StatusNotFound, apierror.New("item not found"))
		return
	}
	warehouseID, _ := uuid.Parse(req.WarehouseID)
	locationID, _ := uuid.Parse(req.LocationID)

	mov, err := h.ledger.Adjust(ctx, service.AdjustParams{
		Key: repository.StockKey{
			TenantID:    tenantID,
			ItemID:      item.ID,
			WarehouseID: warehouseID,
			LocationID:  locationID,
		},
		NewOnHand: req.NewQuantity,
		Reason:    req.Reason,
	})
	if err != nil {
		writeStockError(c, err)
		return
	}
	if mov == nil {
		// Counted quantity matched the ledger; nothing was written.
		c.JSON(http.StatusOK, gin.H{"changed": false})
		return
	}
	c.JSON(http.StatusCreated, movementResponse(mov))
}

func (h *StockHandler) ListLevels(c *gin.Context) {
	var filter dto.StockLevelFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	tenantID := middleware.TenantID(c)
	ctx := c.Request.Context()

	repoFilter := repository.StockLevelFilter{Page: filter.Page, Limit: filter.Limit}
	if filter.Item != "" {
		item, err := h.items.Resolve(ctx, tenantID, filter.Item)
		if err != nil {
			c.JSON(http.StatusNotFound, apierror.New("item not found"))
			return
		}
		repoFilter.ItemID = &item.ID
	}
	if filter.WarehouseID != "" {
		if id, err := uuid.Parse(filter.WarehouseID); err == nil {
			repoFilter.WarehouseID = &id
		}
	}

	levels, total, err := h.levels.List(ctx, tenantID, repoFilter)
	if err != nil {
		c.Error(err)
		return
	}

	resp := dto.StockLevelListResponse{
		Data:  make([]dto.StockLevelResponse, 0, len(levels)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range levels {
		resp.Data = append(resp.Data, levelResponse(&levels[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func (h *StockHandler) ListMovements(c *gin.Context) {
	var filter dto.StockMovementFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	tenantID := middleware.TenantID(c)
	ctx := c.Request.Context()

	repoFilter := repository.StockMovementFilter{
		Type:  filter.Type,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	if filter.Item != "" {
		item, err := h.items.Resolve(ctx, tenantID, filter.Item)
		if err != nil {
			c.JSON(http.StatusNotFound, apierror.New("item not found"))
			return
		}
		repoFilter.ItemID = &item.ID
	}

	movements, total, err := h.movements.List(ctx, tenantID, repoFilter)
	if err != nil {
		c.Error(err)
		return
	}

	resp := dto.StockMovementListResponse{
		Data:  make([]dto.StockMovementResponse, 0, len(movements)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range movements {
		resp.Data = append(resp.Data, movementResponse(&movements[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// writeStockError maps ledger sentinel errors to HTTP statuses.
func writeStockError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInsufficientStock):
		c.JSON(http.StatusConflict, apierror.New("insufficient available stock"))
	case errors.Is(err, service.ErrInvalidQuantity):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.Is(err, service.ErrDataConsistency), errors.Is(err, gorm.ErrRecordNotFound):
		c.JSON(http.StatusNotFound, apierror.New("stock record not found"))
	default:
		c.Error(err)
	}
}

func movementResponse(m *model.StockMovement) dto.StockMovementResponse {
	resp := dto.StockMovementResponse{
		ID:           m.ID.String(),
		Type:         m.Type,
		ItemID:       m.ItemID.String(),
		WarehouseID:  m.WarehouseID.String(),
		LocationID:   m.LocationID.String(),
		Quantity:     m.Quantity,
		OnHandBefore: m.OnHandBefore,
		OnHandAfter:  m.OnHandAfter,
		Reason:       m.Reason,
		CreatedAt:    m.CreatedAt.Format(time.RFC3339),
	}
	if !m.UnitCost.IsZero() {
		cost := m.UnitCost
		resp.UnitCost = &cost
	}
	if m.ReferenceID != nil {
		ref := m.ReferenceID.String()
		resp.ReferenceID = &ref
	}
	return resp
}

func levelResponse(l *model.StockLevel) dto.StockLevelResponse {
	resp := dto.StockLevelResponse{
		ID:           l.ID.String(),
		ItemID:       l.ItemID.String(),
		WarehouseID:  l.WarehouseID.String(),
		LocationID:   l.LocationID.String(),
		OnHand:       l.QuantityOnHand,
		Reserved:     l.QuantityReserved,
		SoftReserved: l.QuantitySoftReserved,
		Available:    l.Available(),
	}
	if l.Item != nil {
		resp.PartNumber = l.Item.PartNumber
	}
	if l.Location != nil {
		resp.LocationCode = l.Location.Code
	}
	return resp
}
