package position

import "tradercore/internal/models"

// OrderNotFilledError is returned when an order submitted to open or close
// a position comes back NEW, CANCELED, or REJECTED.
type OrderNotFilledError struct {
	Status models.OrderStatus
}

func (e OrderNotFilledError) Error() string {
	return "position: order not filled, status " + string(e.Status)
}

// TrailingRefusedError is returned when activating a trailing stop would
// require a non-positive initial distance.
type TrailingRefusedError struct {
	Reason string
}

func (e TrailingRefusedError) Error() string {
	return "position: trailing stop refused: " + e.Reason
}

// NotFoundError is returned for operations on an unknown positionId.
type NotFoundError struct {
	PositionID string
}

func (e NotFoundError) Error() string {
	return "position: " + e.PositionID + " not found"
}

// AlreadyClosingError guards against re-entrant close_position calls for
// the same position.
type AlreadyClosingError struct {
	PositionID string
}

func (e AlreadyClosingError) Error() string {
	return "position: " + e.PositionID + " is already closing"
}
