package orderreaderv1

import (
	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
)

// OrderEventPayload is the wire form of an order event on the order topic.
// Cancels carry the order to remove in target_id instead of overloading the
// volume field.
type OrderEventPayload struct {
	Type     string  `json:"type"`
	Side     string  `json:"side"`
	Volume   int64   `json:"volume"`
	Price    float64 `json:"price"`
	TargetID int64   `json:"target_id,omitempty"`
	Offset   int64   `json:"offset,omitempty"`
}

// ToEvent converts the payload into the core event shape. Token validation
// is left to the book, which rejects unknown types and sides before mutating.
func (p *OrderEventPayload) ToEvent() orderbookv1.OrderEvent {
	return orderbookv1.OrderEvent{
		Type:     orderbookv1.OrderType(p.Type),
		Side:     orderbookv1.Side(p.Side),
		Volume:   p.Volume,
		Price:    p.Price,
		TargetID: p.TargetID,
	}
}
