package orderbookv1

import "errors"

var (
	ErrUnknownOrderType = errors.New("unknown order type")
	ErrUnknownSide      = errors.New("unknown order side")
	ErrInvalidVolume    = errors.New("volume must be positive")
	ErrMissingTarget    = errors.New("cancel requires a target order ID")
)

// OrderType represents the type of order.
type OrderType string

const (
	// OrderTypeMarket represents a market order.
	OrderTypeMarket OrderType = "market"
	// OrderTypeLimit represents a limit order.
	OrderTypeLimit OrderType = "limit"
	// OrderTypeStop represents a stop order.
	OrderTypeStop OrderType = "stop"
	// OrderTypeCancel represents a cancel request.
	OrderTypeCancel OrderType = "cancel"
)

// Side represents which side of the book an order belongs to.
type Side string

const (
	// SideBuy is the buy (bid) side.
	SideBuy Side = "buy"
	// SideSell is the sell (ask) side.
	SideSell Side = "sell"
)

// Opposite returns the side an incoming order matches against.
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// OrderEvent is a single inbound order event. Cancel events carry the order
// to remove in TargetID; the other fields are ignored for cancels.
type OrderEvent struct {
	Type     OrderType `json:"type"`
	Side     Side      `json:"side"`
	Volume   int64     `json:"volume"`
	Price    float64   `json:"price"`
	TargetID int64     `json:"targetID"`
}

// Validate checks the event before any book mutation happens. A failed
// validation guarantees the book was not touched.
func (e OrderEvent) Validate() error {
	switch e.Type {
	case OrderTypeMarket, OrderTypeLimit, OrderTypeStop:
		if e.Side != SideBuy && e.Side != SideSell {
			return ErrUnknownSide
		}
		if e.Volume <= 0 {
			return ErrInvalidVolume
		}
		return nil
	case OrderTypeCancel:
		if e.TargetID <= 0 {
			return ErrMissingTarget
		}
		return nil
	default:
		return ErrUnknownOrderType
	}
}

// BookEntry is a resting order as exposed by snapshots and accessors.
type BookEntry struct {
	OrderID int64   `json:"orderID"`
	Volume  int64   `json:"volume"`
	Price   float64 `json:"price"`
}

// StopEntry is a pending stop order as exposed by snapshots and accessors.
type StopEntry struct {
	OrderID   int64   `json:"orderID"`
	Volume    int64   `json:"volume"`
	Threshold float64 `json:"threshold"`
}
