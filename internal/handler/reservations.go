package handler

import (
	"net/http"
	"time"

	"stockcore/internal/dto"
	"stockcore/internal/middleware"
	"stockcore/internal/model"
	"stockcore/internal/repository"

	"github.com/gin-gonic/gin"
)

// ReservationHandler is the read side of the reservation book.
type ReservationHandler struct {
	reservations repository.StockReservationRepository
}

func NewReservationHandler(reservations repository.StockReservationRepository) *ReservationHandler {
	return &ReservationHandler{reservations: reservations}
}

func (h *ReservationHandler) List(c *gin.Context) {
	var filter dto.ReservationFilter
	if !bindQueryAndValidate(c, &filter) {
		return
	}
	tenantID := middleware.TenantID(c)

	reservations, total, err := h.reservations.List(
		c.Request.Context(), tenantID, model.ReservationState(filter.State), filter.Page, filter.Limit)
	if err != nil {
		c.Error(err)
		return
	}

	resp := dto.ReservationListResponse{
		Data:  make([]dto.ReservationResponse, 0, len(reservations)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range reservations {
		resp.Data = append(resp.Data, reservationResponse(&reservations[i]))
	}
	c.JSON(http.StatusOK, resp)
}

// ListForOrder returns every still-active hold referencing one order.
func (h *ReservationHandler) ListForOrder(c *gin.Context) {
	orderID, ok := pathUUID(c, "id")
	if !ok {
		return
	}
	active, err := h.reservations.ListActiveByReference(c.Request.Context(), middleware.TenantID(c), orderID)
	if err != nil {
		c.Error(err)
		return
	}
	resp := make([]dto.ReservationResponse, 0, len(active))
	for i := range active {
		resp = append(resp, reservationResponse(&active[i]))
	}
	c.JSON(http.StatusOK, resp)
}

func reservationResponse(r *model.StockReservation) dto.ReservationResponse {
	resp := dto.ReservationResponse{
		ID:          r.ID.String(),
		ItemID:      r.ItemID.String(),
		WarehouseID: r.WarehouseID.String(),
		LocationID:  r.LocationID.String(),
		ReferenceID: r.ReferenceID.String(),
		Quantity:    r.Quantity,
		State:       string(r.State),
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
	}
	if r.ExpiresAt != nil {
		exp := r.ExpiresAt.Format(time.RFC3339)
		resp.ExpiresAt = &exp
	}
	return resp
}
