package service

import "errors"

// Domain error taxonomy. Callers branch on these with errors.Is; the HTTP
// layer maps them to status codes without ever exposing internals.
var (
	// ErrInsufficientStock is recoverable: allocation callers treat it as
	// "this step could not be allocated" and continue with the rest of the
	// plan, flagging the order backorder instead of failing the operation.
	ErrInsufficientStock = errors.New("insufficient stock available")

	// ErrInvalidStateTransition is a business rule violation, fatal to the
	// calling operation.
	ErrInvalidStateTransition = errors.New("invalid reservation state transition")

	// ErrDataConsistency indicates an upstream invariant was already
	// broken (e.g. a reservation pointing at a missing stock row). The
	// transaction rolls back and the case is logged for investigation.
	ErrDataConsistency = errors.New("data consistency violation")

	// ErrShipmentAlreadyDispatched rejects cancellation of an order whose
	// shipment has left the building. Surfaced as a business error, never
	// auto-reversed.
	ErrShipmentAlreadyDispatched = errors.New("shipment already dispatched")

	// ErrInvalidQuantity rejects non-positive quantities and no-op
	// adjustments.
	ErrInvalidQuantity = errors.New("invalid quantity")
)
