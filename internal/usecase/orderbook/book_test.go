package orderbook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/sigmatrade/matching-engine/internal/domain/snapshot/v1"
)

// Helper to submit an event and fail the test on structural errors
func mustSubmit(t *testing.T, b *Book, event orderbookv1.OrderEvent) []orderbookv1.Trade {
	t.Helper()
	trades, err := b.Submit(event)
	require.NoError(t, err)
	return trades
}

func limitOrder(side orderbookv1.Side, volume int64, price float64) orderbookv1.OrderEvent {
	return orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeLimit, Side: side, Volume: volume, Price: price}
}

func marketOrder(side orderbookv1.Side, volume int64) orderbookv1.OrderEvent {
	return orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeMarket, Side: side, Volume: volume}
}

func stopOrder(side orderbookv1.Side, volume int64, threshold float64) orderbookv1.OrderEvent {
	return orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeStop, Side: side, Volume: volume, Price: threshold}
}

func cancelOrder(targetID int64) orderbookv1.OrderEvent {
	return orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeCancel, TargetID: targetID}
}

// Test 1: Basic constructor
func TestNewBook(t *testing.T) {
	b := NewBook()

	assert.NotNil(t, b)
	assert.Empty(t, b.Bids())
	assert.Empty(t, b.Asks())
	assert.Empty(t, b.StopBids())
	assert.Empty(t, b.StopAsks())
	assert.Empty(t, b.Trades())
}

// Test 2: Limit buy on an empty book rests without trading
func TestBook_LimitBuyRestsOnEmptyBook(t *testing.T) {
	b := NewBook()

	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0))

	assert.Empty(t, trades)
	require.Len(t, b.Bids(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 1, Volume: 10, Price: 5.0}, b.Bids()[0])
	assert.Equal(t, int64(10), b.BidTotalVolume())
}

// Test 3: Matching limit sell executes a partial fill at the maker's price
func TestBook_LimitSellPartialFill(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0))
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 4, 5.0))

	require.Len(t, trades, 1)
	assert.Equal(t, orderbookv1.Trade{TakerID: 2, MakerID: 1, Volume: 4, Price: 5.0}, trades[0])

	require.Len(t, b.Bids(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 1, Volume: 6, Price: 5.0}, b.Bids()[0])
	assert.Empty(t, b.Asks())
}

// Test 4: Market sell drains the book and drops its remainder
func TestBook_MarketSellRemainderDropped(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0))
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 4, 5.0))
	trades := mustSubmit(t, b, marketOrder(orderbookv1.SideSell, 10))

	require.Len(t, trades, 1)
	assert.Equal(t, orderbookv1.Trade{TakerID: 3, MakerID: 1, Volume: 6, Price: 5.0}, trades[0])

	assert.Empty(t, b.Bids())
	assert.Empty(t, b.Asks())
	assert.Equal(t, int64(0), b.BidTotalVolume())
}

// Test 5: Market order against an empty book is dropped entirely
func TestBook_MarketOrderEmptyBook(t *testing.T) {
	b := NewBook()

	trades := mustSubmit(t, b, marketOrder(orderbookv1.SideBuy, 7))

	assert.Empty(t, trades)
	assert.Empty(t, b.Bids())
	assert.Empty(t, b.Asks())
}

// Test 6: Best price wins across levels
func TestBook_PricePriority(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 10.2)) // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 10.0)) // ID 2, best ask
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 10.1)) // ID 3

	trades := mustSubmit(t, b, marketOrder(orderbookv1.SideBuy, 12))

	require.Len(t, trades, 3)
	assert.Equal(t, int64(2), trades[0].MakerID)
	assert.Equal(t, 10.0, trades[0].Price)
	assert.Equal(t, int64(3), trades[1].MakerID)
	assert.Equal(t, 10.1, trades[1].Price)
	assert.Equal(t, int64(1), trades[2].MakerID)
	assert.Equal(t, 10.2, trades[2].Price)

	// 2 units left on the worst ask
	require.Len(t, b.Asks(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 1, Volume: 3, Price: 10.2}, b.Asks()[0])
}

// Test 7: Equal prices match oldest first
func TestBook_TimePriorityWithinLevel(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 9.5)) // ID 1, oldest
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 9.5)) // ID 2
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 9.5)) // ID 3

	trades := mustSubmit(t, b, marketOrder(orderbookv1.SideSell, 8))

	require.Len(t, trades, 2)
	assert.Equal(t, int64(1), trades[0].MakerID)
	assert.Equal(t, int64(5), trades[0].Volume)
	assert.Equal(t, int64(2), trades[1].MakerID)
	assert.Equal(t, int64(3), trades[1].Volume)

	bids := b.Bids()
	require.Len(t, bids, 2)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 2, Volume: 2, Price: 9.5}, bids[0])
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 3, Volume: 5, Price: 9.5}, bids[1])
}

// Test 8: Limit price protection stops the cross and rests the remainder
func TestBook_LimitPriceProtection(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 10.0)) // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 11.0)) // ID 2

	// Buy limit 10.5 crosses the 10.0 ask but not the 11.0 ask
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 8, 10.5))

	require.Len(t, trades, 1)
	assert.Equal(t, orderbookv1.Trade{TakerID: 3, MakerID: 1, Volume: 5, Price: 10.0}, trades[0])

	require.Len(t, b.Bids(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 3, Volume: 3, Price: 10.5}, b.Bids()[0])
	require.Len(t, b.Asks(), 1)
	assert.Equal(t, int64(2), b.Asks()[0].OrderID)
}

// Test 9: Price 0 on a limit order means "no limit" and crosses anything
func TestBook_ZeroPriceLimitCrossesAnyPrice(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 10.0))
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 11.0))

	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 12, 0))

	require.Len(t, trades, 2)
	assert.Equal(t, 10.0, trades[0].Price)
	assert.Equal(t, 11.0, trades[1].Price)

	// Unlike a market order the remainder rests, at price 0
	require.Len(t, b.Bids(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 3, Volume: 2, Price: 0}, b.Bids()[0])
}

// Test 10: Mirror crossing for incoming sells
func TestBook_IncomingSellPriceProtection(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 10.0)) // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 9.0))  // ID 2

	// Sell limit 9.5 crosses the 10.0 bid but not the 9.0 bid
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 8, 9.5))

	require.Len(t, trades, 1)
	assert.Equal(t, orderbookv1.Trade{TakerID: 3, MakerID: 1, Volume: 5, Price: 10.0}, trades[0])

	require.Len(t, b.Asks(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 3, Volume: 3, Price: 9.5}, b.Asks()[0])
}

// Test 11: Stop order pends without matching
func TestBook_StopOrderPends(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0))
	trades := mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 5, 5.0))

	assert.Empty(t, trades)
	require.Len(t, b.StopAsks(), 1)
	assert.Equal(t, orderbookv1.StopEntry{OrderID: 2, Volume: 5, Threshold: 5.0}, b.StopAsks()[0])
	// Live pools untouched
	require.Len(t, b.Bids(), 1)
}

// Test 12: A trade at or below the threshold activates a pending stop-sell
func TestBook_StopSellActivation(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 5, 5.0))  // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 4.5)) // ID 2
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 3, 4.0))  // ID 3

	// Sell taker trades at 4.5: print is on the sell side, fires the stop
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 2, 4.5)) // ID 4

	require.Len(t, trades, 2)
	assert.Equal(t, orderbookv1.Trade{TakerID: 4, MakerID: 2, Volume: 2, Price: 4.5}, trades[0])
	// Activated stop sweeps the best remaining bid as a marketable sell
	assert.Equal(t, orderbookv1.Trade{TakerID: 1, MakerID: 2, Volume: 5, Price: 4.5}, trades[1])

	assert.Empty(t, b.StopAsks())
	bids := b.Bids()
	require.Len(t, bids, 2)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 2, Volume: 3, Price: 4.5}, bids[0])
}

// Test 13: Stop remainder re-pends when the opposite side empties
func TestBook_StopRemainderRePends(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 10, 5.0)) // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 4, 5.0))  // ID 2

	// Trade at 5.0 fires the stop; only 4 units of bids exist
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 1, 5.0)) // ID 3

	require.Len(t, trades, 2)
	assert.Equal(t, orderbookv1.Trade{TakerID: 3, MakerID: 2, Volume: 1, Price: 5.0}, trades[0])
	assert.Equal(t, orderbookv1.Trade{TakerID: 1, MakerID: 2, Volume: 3, Price: 5.0}, trades[1])

	// 7 unfilled units re-pend at the original threshold
	require.Len(t, b.StopAsks(), 1)
	assert.Equal(t, orderbookv1.StopEntry{OrderID: 1, Volume: 7, Threshold: 5.0}, b.StopAsks()[0])
	assert.Empty(t, b.Bids())
}

// Test 14: Cascading activations resolve fully and terminate
func TestBook_StopCascadeChain(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 2, 5.0)) // ID 1
	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 2, 4.0)) // ID 2
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 3, 4.0)) // ID 3
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 9, 4.8)) // ID 4

	// Sell taker prints 4.8: fires stop 1 (4.8 <= 5.0). Stop 1 trades at
	// 4.8 against bid 4, printing 4.8 again; stop 2 (4.8 > 4.0) stays. The
	// book then still holds bids, so the chain stops there.
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 1, 4.5)) // ID 5

	require.Len(t, trades, 2)
	assert.Equal(t, orderbookv1.Trade{TakerID: 5, MakerID: 4, Volume: 1, Price: 4.8}, trades[0])
	assert.Equal(t, orderbookv1.Trade{TakerID: 1, MakerID: 4, Volume: 2, Price: 4.8}, trades[1])

	require.Len(t, b.StopAsks(), 1)
	assert.Equal(t, int64(2), b.StopAsks()[0].OrderID)

	bids := b.Bids()
	require.Len(t, bids, 2)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 4, Volume: 6, Price: 4.8}, bids[0])
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 3, Volume: 3, Price: 4.0}, bids[1])
}

// Test 15: A cascade print can fire a second stop once the first resolves
func TestBook_CascadeFiresMultipleStops(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 2, 5.0)) // ID 1
	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 2, 4.5)) // ID 2
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 4.5)) // ID 3

	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 1, 4.5)) // ID 4

	// Taker trade fires stop 1; stop 1's trade at 4.5 fires stop 2.
	require.Len(t, trades, 3)
	assert.Equal(t, int64(4), trades[0].TakerID)
	assert.Equal(t, int64(1), trades[1].TakerID)
	assert.Equal(t, int64(2), trades[2].TakerID)

	assert.Empty(t, b.StopAsks())
	require.Len(t, b.Bids(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 3, Volume: 5, Price: 4.5}, b.Bids()[0])
}

// Test 16: Buy-side stops fire on buy-taker prints
func TestBook_StopBuyActivation(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, stopOrder(orderbookv1.SideBuy, 4, 6.0))    // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 10, 5.5)) // ID 2

	// Buy taker trades at 5.5; default policy fires stop-buys at or below
	// their threshold, so 5.5 <= 6.0 activates ID 1
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 2, 5.5)) // ID 3

	require.Len(t, trades, 2)
	assert.Equal(t, orderbookv1.Trade{TakerID: 3, MakerID: 2, Volume: 2, Price: 5.5}, trades[0])
	assert.Equal(t, orderbookv1.Trade{TakerID: 1, MakerID: 2, Volume: 4, Price: 5.5}, trades[1])

	assert.Empty(t, b.StopBids())
	require.Len(t, b.Asks(), 1)
	assert.Equal(t, orderbookv1.BookEntry{OrderID: 2, Volume: 4, Price: 5.5}, b.Asks()[0])
}

// Test 17: Conventional policy changes the stop-buy direction only
func TestBook_ConventionalTriggerPolicy(t *testing.T) {
	b := NewBookWithPolicy(orderbookv1.ConventionalTriggerPolicy())

	mustSubmit(t, b, stopOrder(orderbookv1.SideBuy, 4, 6.0))   // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 2, 5.5)) // ID 2

	// Trade at 5.5 is below the 6.0 threshold: conventional stop-buys wait
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 2, 5.5)) // ID 3
	require.Len(t, b.StopBids(), 1)

	// Trade at 6.5 is at-or-above: now it fires
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 10, 6.5))         // ID 4
	trades := mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 1, 6.5)) // ID 5

	require.Len(t, trades, 2)
	assert.Equal(t, orderbookv1.Trade{TakerID: 5, MakerID: 4, Volume: 1, Price: 6.5}, trades[0])
	assert.Equal(t, orderbookv1.Trade{TakerID: 1, MakerID: 4, Volume: 4, Price: 6.5}, trades[1])
	assert.Empty(t, b.StopBids())
}

// Test 18: Cancel removes a resting order
func TestBook_CancelRestingOrder(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0)) // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 5.0))  // ID 2

	trades := mustSubmit(t, b, cancelOrder(1))

	assert.Empty(t, trades)
	bids := b.Bids()
	require.Len(t, bids, 1)
	assert.Equal(t, int64(2), bids[0].OrderID)
}

// Test 19: Cancel removes pending stops from both pools by target ID
func TestBook_CancelPendingStop(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, stopOrder(orderbookv1.SideBuy, 5, 6.0))  // ID 1
	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 5, 4.0)) // ID 2

	mustSubmit(t, b, cancelOrder(2))

	require.Len(t, b.StopBids(), 1)
	assert.Empty(t, b.StopAsks())

	mustSubmit(t, b, cancelOrder(1))
	assert.Empty(t, b.StopBids())
}

// Test 20: Cancel of an unknown ID is a silent no-op, and cancelling twice
// equals cancelling once
func TestBook_CancelIdempotent(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0)) // ID 1

	_, err := b.Submit(cancelOrder(999))
	assert.NoError(t, err)
	require.Len(t, b.Bids(), 1)

	mustSubmit(t, b, cancelOrder(1))
	mustSubmit(t, b, cancelOrder(1))
	assert.Empty(t, b.Bids())
}

// Test 21: Validation rejects malformed events before any mutation
func TestBook_ValidationErrors(t *testing.T) {
	testCases := []struct {
		name  string
		event orderbookv1.OrderEvent
		err   error
	}{
		{
			name:  "unknown type",
			event: orderbookv1.OrderEvent{Type: "iceberg", Side: orderbookv1.SideBuy, Volume: 1},
			err:   orderbookv1.ErrUnknownOrderType,
		},
		{
			name:  "unknown side",
			event: orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeLimit, Side: "hold", Volume: 1},
			err:   orderbookv1.ErrUnknownSide,
		},
		{
			name:  "zero volume",
			event: orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeLimit, Side: orderbookv1.SideBuy, Volume: 0, Price: 5},
			err:   orderbookv1.ErrInvalidVolume,
		},
		{
			name:  "negative volume",
			event: orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeMarket, Side: orderbookv1.SideSell, Volume: -3},
			err:   orderbookv1.ErrInvalidVolume,
		},
		{
			name:  "cancel without target",
			event: orderbookv1.OrderEvent{Type: orderbookv1.OrderTypeCancel},
			err:   orderbookv1.ErrMissingTarget,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			b := NewBook()
			mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0))

			trades, err := b.Submit(tc.event)
			assert.ErrorIs(t, err, tc.err)
			assert.Empty(t, trades)

			// Book untouched, ID counter not advanced
			trades = mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 1, 5.0))
			require.Len(t, trades, 1)
			assert.Equal(t, int64(2), trades[0].TakerID)
		})
	}
}

// Test 22: Volume is conserved across a mixed sequence
func TestBook_VolumeConservation(t *testing.T) {
	b := NewBook()

	events := []orderbookv1.OrderEvent{
		limitOrder(orderbookv1.SideBuy, 10, 5.0),
		limitOrder(orderbookv1.SideSell, 4, 5.0),
		limitOrder(orderbookv1.SideBuy, 7, 4.8),
		marketOrder(orderbookv1.SideSell, 6),
		limitOrder(orderbookv1.SideSell, 20, 4.8),
	}

	var submittedBuy, submittedSell int64
	for _, ev := range events {
		if ev.Side == orderbookv1.SideBuy {
			submittedBuy += ev.Volume
		} else {
			submittedSell += ev.Volume
		}
		mustSubmit(t, b, ev)
	}

	var traded int64
	for _, tr := range b.Trades() {
		require.Positive(t, tr.Volume)
		traded += tr.Volume
	}

	assert.LessOrEqual(t, traded, submittedBuy)
	assert.LessOrEqual(t, traded, submittedSell)
	assert.Equal(t, submittedBuy-traded, b.BidTotalVolume())
	assert.Equal(t, submittedSell-traded, b.AskTotalVolume())
}

// Test 23: No pool ever holds a zero or negative volume entry
func TestBook_NoZeroVolumeEntries(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 5.0))
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 5, 5.0)) // exact fill both sides
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 3, 5.5))
	mustSubmit(t, b, marketOrder(orderbookv1.SideBuy, 3)) // exact fill of the ask

	assert.Empty(t, b.Bids())
	assert.Empty(t, b.Asks())

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 4, 5.0))
	mustSubmit(t, b, marketOrder(orderbookv1.SideSell, 2))
	for _, e := range b.Bids() {
		assert.Positive(t, e.Volume)
	}
}

// Test 24: Trade ledger is append-only and survives as a copy
func TestBook_TradesReturnsCopy(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0))
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 4, 5.0))

	trades := b.Trades()
	require.Len(t, trades, 1)
	trades[0].Volume = 999

	assert.Equal(t, int64(4), b.Trades()[0].Volume)
}

// Test 25: Ledger rendering uses fixed 2-decimal prices
func TestTrade_String(t *testing.T) {
	tr := orderbookv1.Trade{TakerID: 4, MakerID: 2, Volume: 7, Price: 10.5}
	assert.Equal(t, "match 4 2 7 10.50", tr.String())
}

// Test 26: Snapshot and restore round-trip preserves state and priority
func TestBook_SnapshotRestore(t *testing.T) {
	b := NewBook()

	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 10, 5.0))  // ID 1
	mustSubmit(t, b, limitOrder(orderbookv1.SideBuy, 5, 5.0))   // ID 2, same level
	mustSubmit(t, b, limitOrder(orderbookv1.SideSell, 8, 6.0))  // ID 3
	mustSubmit(t, b, stopOrder(orderbookv1.SideSell, 4, 4.5))   // ID 4

	snapshot := b.CreateSnapshot()
	assert.Equal(t, int64(5), snapshot.NextOrderID)

	restored := NewBook()
	require.NoError(t, restored.Restore(snapshot))

	assert.Equal(t, b.Bids(), restored.Bids())
	assert.Equal(t, b.Asks(), restored.Asks())
	assert.Equal(t, b.StopAsks(), restored.StopAsks())

	// Time priority inside the 5.0 level survives: ID 1 matches first
	trades := mustSubmit(t, restored, marketOrder(orderbookv1.SideSell, 3)) // gets ID 5
	require.Len(t, trades, 1)
	assert.Equal(t, orderbookv1.Trade{TakerID: 5, MakerID: 1, Volume: 3, Price: 5.0}, trades[0])
}

// Test 27: Restore rejects nil and corrupt snapshots
func TestBook_RestoreInvalid(t *testing.T) {
	b := NewBook()
	assert.Error(t, b.Restore(nil))

	snapshot := NewBook().CreateSnapshot()
	snapshot.BookSnapshot.Bids = []snapshotv1.BookEntry{{OrderID: 1, Volume: 0, Price: 5.0}}
	assert.ErrorIs(t, b.Restore(snapshot), orderbookv1.ErrInvalidVolume)

	// A zero-volume pending stop is just as corrupt as a zero-volume live
	// order; it must not slip in and get silently consumed on activation.
	snapshot = NewBook().CreateSnapshot()
	snapshot.BookSnapshot.StopAsks = []snapshotv1.StopEntry{{OrderID: 2, Volume: 0, Threshold: 4.5}}
	assert.ErrorIs(t, b.Restore(snapshot), orderbookv1.ErrInvalidVolume)

	snapshot = NewBook().CreateSnapshot()
	snapshot.BookSnapshot.StopBids = []snapshotv1.StopEntry{{OrderID: 3, Volume: -1, Threshold: 4.5}}
	assert.ErrorIs(t, b.Restore(snapshot), orderbookv1.ErrInvalidVolume)
}

// Benchmark the crossing hot path: alternating makers and sweeping takers
func BenchmarkBook_CrossAndSweep(b *testing.B) {
	book := NewBook()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = book.Submit(limitOrder(orderbookv1.SideSell, 10, 10.0+float64(i%50)/100))
		if i%10 == 9 {
			_, _ = book.Submit(marketOrder(orderbookv1.SideBuy, 100))
		}
	}
}
