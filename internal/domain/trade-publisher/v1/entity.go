package tradepublisherv1

import (
	"encoding/json"
	"time"

	"github.com/oklog/ulid/v2"

	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
)

// TradeEventPayload is the wire form of an executed trade on the trade topic.
type TradeEventPayload struct {
	EventID      string    `json:"eventID"`
	TakerOrderID int64     `json:"takerOrderID"`
	MakerOrderID int64     `json:"makerOrderID"`
	TakerSide    string    `json:"takerSide"`
	Volume       int64     `json:"volume"`
	Price        float64   `json:"price"`
	Timestamp    time.Time `json:"timestamp"`
}

// CreateFromTrade creates a trade event from a ledger trade.
func CreateFromTrade(trade orderbookv1.Trade, takerSide orderbookv1.Side) *TradeEventPayload {
	return &TradeEventPayload{
		EventID:      ulid.Make().String(),
		TakerOrderID: trade.TakerID,
		MakerOrderID: trade.MakerID,
		TakerSide:    string(takerSide),
		Volume:       trade.Volume,
		Price:        trade.Price,
		Timestamp:    time.Now().UTC(),
	}
}

// ToBytes converts the trade event to a byte array.
func ToBytes(event *TradeEventPayload) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return data
}

// FromBytes converts a byte array to a trade event.
func FromBytes(data []byte) *TradeEventPayload {
	var event TradeEventPayload
	if err := json.Unmarshal(data, &event); err != nil {
		return nil
	}
	return &event
}
