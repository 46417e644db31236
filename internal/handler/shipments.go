package handler

import (
	"net/http"

	"stockcore/internal/dto"
	"stockcore/internal/middleware"
	"stockcore/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

// ShipmentHandler accepts carrier confirmation events. Processing is
// asynchronous; the endpoint only validates and enqueues.
type ShipmentHandler struct {
	dispatcher *worker.Dispatcher
}

func NewShipmentHandler(dispatcher *worker.Dispatcher) *ShipmentHandler {
	return &ShipmentHandler{dispatcher: dispatcher}
}

func (h *ShipmentHandler) Confirm(c *gin.Context) {
	var req dto.ConfirmShipmentRequest
	if !bindAndValidate(c, &req) {
		return
	}
	tenantID := middleware.TenantID(c)

	if err := h.dispatcher.EnqueueShipmentConfirmed(c.Request.Context(), worker.ShipmentConfirmedPayload{
		TenantID:           tenantID.String(),
		OrderLineID:        req.OrderLineID,
		ShippingDocumentID: req.ShippingDocumentID,
		Quantity:           req.Quantity,
	}); err != nil {
		c.Error(err)
		return
	}

	log.Info().
		Str("order_line_id", req.OrderLineID).
		Str("shipping_document_id", req.ShippingDocumentID).
		Msg("shipments: confirmation accepted")
	c.JSON(http.StatusAccepted, gin.H{"accepted": true})
}
