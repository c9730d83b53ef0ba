package journalv1

import (
	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
)

// Journal defines the interface for the append-only trade journal.
//
//go:generate mockgen -source interface.go -destination=mock/interface_mock.go -package=journalv1_mock
type Journal interface {
	// Append writes the trade at the given ledger sequence number.
	Append(seq int64, trade orderbookv1.Trade) error
	// Replay calls fn for every journaled trade in sequence order and stops
	// on the first error.
	Replay(fn func(seq int64, trade orderbookv1.Trade) error) error
	// Len returns the number of journaled trades.
	Len() (int64, error)
	Close() error
}
