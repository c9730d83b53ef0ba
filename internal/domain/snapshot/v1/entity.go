package snapshotv1

// Snapshot represents the engine state at a specific point in the order stream.
type Snapshot struct {
	OrderOffset  int64        `json:"orderOffset"`
	NextOrderID  int64        `json:"nextOrderID"`
	BookSnapshot BookSnapshot `json:"bookSnapshot"`
}

// BookSnapshot captures all four resting pools and the ledger position.
type BookSnapshot struct {
	Bids       []BookEntry `json:"bids"`
	Asks       []BookEntry `json:"asks"`
	StopBids   []StopEntry `json:"stopBids"`
	StopAsks   []StopEntry `json:"stopAsks"`
	TradeCount int64       `json:"tradeCount"`
}

// BookEntry is one resting live order in a snapshot.
type BookEntry struct {
	OrderID int64   `json:"orderID"`
	Volume  int64   `json:"volume"`
	Price   float64 `json:"price"`
}

// StopEntry is one pending stop order in a snapshot.
type StopEntry struct {
	OrderID   int64   `json:"orderID"`
	Volume    int64   `json:"volume"`
	Threshold float64 `json:"threshold"`
}
