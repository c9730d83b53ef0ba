package orderbookv1

import snapshotv1 "github.com/sigmatrade/matching-engine/internal/domain/snapshot/v1"

// Book defines the interface for the single-instrument matching core.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=orderbookv1_mock
type Book interface {
	// Submit runs one order event to completion, including any stop cascade
	// it triggers, and returns the trades it produced in execution order.
	Submit(event OrderEvent) ([]Trade, error)

	Bids() []BookEntry
	Asks() []BookEntry
	StopBids() []StopEntry
	StopAsks() []StopEntry
	BidTotalVolume() int64
	AskTotalVolume() int64

	// Trades returns a copy of the full trade ledger.
	Trades() []Trade

	CreateSnapshot() *snapshotv1.Snapshot
	Restore(snapshot *snapshotv1.Snapshot) error
}
