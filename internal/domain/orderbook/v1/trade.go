package orderbookv1

import "fmt"

// Trade is an immutable record of a single execution. The taker is the
// incoming (or activated) order, the maker the resting order it hit; the
// price is always the maker's resting price.
type Trade struct {
	TakerID int64   `json:"takerID"`
	MakerID int64   `json:"makerID"`
	Volume  int64   `json:"volume"`
	Price   float64 `json:"price"`
}

// String renders the trade in ledger form with a fixed 2-decimal price.
func (t Trade) String() string {
	return fmt.Sprintf("match %d %d %d %.2f", t.TakerID, t.MakerID, t.Volume, t.Price)
}
