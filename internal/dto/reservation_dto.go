package dto

// ─── Filter / List ──────────────────────────────────────────────────────────

// ReservationFilter is bound from query string of GET /v1/reservations.
type ReservationFilter struct {
	State string `form:"state" validate:"omitempty,oneof=SOFT_RESERVED HARD_RESERVED PICKING RELEASED EXPIRED FULFILLED"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ReservationResponse struct {
	ID          string  `json:"id"`
	ItemID      string  `json:"item_id"`
	WarehouseID string  `json:"warehouse_id"`
	LocationID  string  `json:"location_id"`
	ReferenceID string  `json:"reference_id"`
	Quantity    int     `json:"quantity"`
	State       string  `json:"state"`
	ExpiresAt   *string `json:"expires_at,omitempty"`
	CreatedAt   string  `json:"created_at"`
}

type ReservationListResponse struct {
	Data  []ReservationResponse `json:"data"`
	Total int64                 `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
}
