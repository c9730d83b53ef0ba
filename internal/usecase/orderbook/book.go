package orderbook

import (
	"fmt"
	"sync"

	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/sigmatrade/matching-engine/internal/domain/snapshot/v1"
)

// Book is the single-instrument matching core: two live pools, two pending
// stop pools and the append-only trade ledger. A Book is one atomic unit; a
// submitted event runs to completion, including the stop cascade it
// triggers, under a single lock.
type Book struct {
	mu       sync.RWMutex
	bids     *liveSide
	asks     *liveSide
	stopBids *stopPool
	stopAsks *stopPool
	trades   []orderbookv1.Trade
	nextID   int64
	policy   orderbookv1.TriggerPolicy
}

// NewBook creates an empty book with the default stop trigger policy.
func NewBook() *Book {
	return NewBookWithPolicy(orderbookv1.DefaultTriggerPolicy())
}

// NewBookWithPolicy creates an empty book with a custom stop trigger policy.
func NewBookWithPolicy(policy orderbookv1.TriggerPolicy) *Book {
	return &Book{
		bids:     newLiveSide(true),
		asks:     newLiveSide(false),
		stopBids: newStopPool(),
		stopAsks: newStopPool(),
		nextID:   1,
		policy:   policy,
	}
}

// crossMode selects what happens to the unfilled remainder of a taker.
type crossMode int

const (
	crossLimit  crossMode = iota // remainder rests on its own side
	crossMarket                  // remainder is dropped
	crossStop                    // remainder re-pends at its threshold
)

// activeOrder is a taker being crossed against the opposing side.
type activeOrder struct {
	id        int64
	side      orderbookv1.Side
	volume    int64
	price     float64
	threshold float64 // stop threshold, used only in crossStop mode
}

// print is one executed trade as seen by the cascade: its price and the
// taker side, which selects the pending pool to check.
type print struct {
	price float64
	side  orderbookv1.Side
}

// cascadeRun is the worklist state for a single submit. fired guards
// against reactivating an order within the same submit, which also bounds
// the cascade.
type cascadeRun struct {
	queue []print
	fired map[int64]struct{}
}

// Submit runs one order event to completion and returns the trades it
// produced, in execution order. Validation happens before any mutation: an
// error means the book is untouched.
func (b *Book) Submit(event orderbookv1.OrderEvent) ([]orderbookv1.Trade, error) {
	if err := event.Validate(); err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch event.Type {
	case orderbookv1.OrderTypeMarket:
		return b.match(event, crossMarket), nil
	case orderbookv1.OrderTypeLimit:
		return b.match(event, crossLimit), nil
	case orderbookv1.OrderTypeStop:
		id := b.assignID()
		b.stopPoolFor(event.Side).insert(id, event.Volume, event.Price)
		return nil, nil
	case orderbookv1.OrderTypeCancel:
		b.cancelLocked(event.TargetID)
		return nil, nil
	default:
		// Unreachable after Validate; kept so a new type cannot slip through.
		return nil, orderbookv1.ErrUnknownOrderType
	}
}

// match crosses a new taker and drains the stop cascade after every trade.
func (b *Book) match(event orderbookv1.OrderEvent, mode crossMode) []orderbookv1.Trade {
	taker := &activeOrder{
		id:     b.assignID(),
		side:   event.Side,
		volume: event.Volume,
		price:  event.Price,
	}
	run := &cascadeRun{fired: make(map[int64]struct{})}

	start := len(b.trades)
	b.cross(taker, mode, run, true)

	executed := make([]orderbookv1.Trade, len(b.trades)-start)
	copy(executed, b.trades[start:])
	return executed
}

// cross pairs the taker against the best opposing order until it is filled,
// the opposing side is exhausted, or its limit price no longer crosses.
// Only the top-level taker drains the cascade; activated stops enqueue their
// prints and leave draining to the loop that activated them.
func (b *Book) cross(o *activeOrder, mode crossMode, run *cascadeRun, drain bool) {
	own := b.liveSideFor(o.side)
	opp := b.liveSideFor(o.side.Opposite())

	for o.volume > 0 {
		best, ok := opp.best()
		if !ok {
			switch mode {
			case crossLimit:
				own.insert(o.id, o.volume, o.price)
			case crossStop:
				// Stop orders do not vanish: the remainder goes back to
				// pending at its original threshold.
				b.stopPoolFor(o.side).insert(o.id, o.volume, o.threshold)
			}
			return
		}

		// Limit price protection. Price 0 means "no limit" and crosses
		// against anything.
		if mode == crossLimit && o.price != 0 && !crosses(o.side, o.price, best.price) {
			own.insert(o.id, o.volume, o.price)
			return
		}

		volume := min(o.volume, best.volume)
		price := best.price
		o.volume -= volume
		opp.reduce(best.id, volume)

		b.trades = append(b.trades, orderbookv1.Trade{
			TakerID: o.id,
			MakerID: best.id,
			Volume:  volume,
			Price:   price,
		})

		run.queue = append(run.queue, print{price: price, side: o.side})
		if drain {
			b.drainCascade(run)
		}
	}
}

// drainCascade processes the worklist of trade prints to exhaustion. Each
// print fires every pending stop it triggers, oldest first; activated stops
// sweep the opposing side as marketable orders and their trades feed the
// worklist in turn.
func (b *Book) drainCascade(run *cascadeRun) {
	for len(run.queue) > 0 {
		p := run.queue[0]
		run.queue = run.queue[1:]

		pool := b.stopPoolFor(p.side)
		rule := b.policy.RuleFor(p.side)
		for {
			st, ok := pool.firstTriggered(p.price, rule, run.fired)
			if !ok {
				break
			}
			run.fired[st.id] = struct{}{}
			pool.remove(st.id)

			activated := &activeOrder{
				id:        st.id,
				side:      p.side,
				volume:    st.volume,
				threshold: st.threshold,
			}
			b.cross(activated, crossStop, run, false)
		}
	}
}

// cancelLocked removes the target from every pool it could rest in.
// Unknown IDs are a no-op: the order may have filled or been cancelled
// already.
func (b *Book) cancelLocked(targetID int64) {
	b.bids.remove(targetID)
	b.asks.remove(targetID)
	b.stopBids.remove(targetID)
	b.stopAsks.remove(targetID)
}

func (b *Book) assignID() int64 {
	id := b.nextID
	b.nextID++
	return id
}

func (b *Book) liveSideFor(side orderbookv1.Side) *liveSide {
	if side == orderbookv1.SideBuy {
		return b.bids
	}
	return b.asks
}

func (b *Book) stopPoolFor(side orderbookv1.Side) *stopPool {
	if side == orderbookv1.SideBuy {
		return b.stopBids
	}
	return b.stopAsks
}

// crosses reports whether a taker limit price crosses the best opposing price.
func crosses(side orderbookv1.Side, limit, best float64) bool {
	if side == orderbookv1.SideBuy {
		return limit >= best
	}
	return limit <= best
}

// Bids returns the live buy pool in matching priority order.
func (b *Book) Bids() []orderbookv1.BookEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.entries()
}

// Asks returns the live sell pool in matching priority order.
func (b *Book) Asks() []orderbookv1.BookEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.entries()
}

// StopBids returns the pending stop-buy pool in ascending ID order.
func (b *Book) StopBids() []orderbookv1.StopEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stopBids.stopEntries()
}

// StopAsks returns the pending stop-sell pool in ascending ID order.
func (b *Book) StopAsks() []orderbookv1.StopEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.stopAsks.stopEntries()
}

// BidTotalVolume returns total resting buy volume.
func (b *Book) BidTotalVolume() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.bids.totalVolume()
}

// AskTotalVolume returns total resting sell volume.
func (b *Book) AskTotalVolume() int64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.asks.totalVolume()
}

// Trades returns a copy of the full trade ledger.
func (b *Book) Trades() []orderbookv1.Trade {
	b.mu.RLock()
	defer b.mu.RUnlock()
	trades := make([]orderbookv1.Trade, len(b.trades))
	copy(trades, b.trades)
	return trades
}

// CreateSnapshot captures all four pools and the ID counter. OrderOffset is
// filled in by the engine.
func (b *Book) CreateSnapshot() *snapshotv1.Snapshot {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return &snapshotv1.Snapshot{
		NextOrderID: b.nextID,
		BookSnapshot: snapshotv1.BookSnapshot{
			Bids:       snapshotEntries(b.bids.entries()),
			Asks:       snapshotEntries(b.asks.entries()),
			StopBids:   snapshotStops(b.stopBids.stopEntries()),
			StopAsks:   snapshotStops(b.stopAsks.stopEntries()),
			TradeCount: int64(len(b.trades)),
		},
	}
}

func snapshotEntries(entries []orderbookv1.BookEntry) []snapshotv1.BookEntry {
	out := make([]snapshotv1.BookEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, snapshotv1.BookEntry{OrderID: e.OrderID, Volume: e.Volume, Price: e.Price})
	}
	return out
}

func snapshotStops(entries []orderbookv1.StopEntry) []snapshotv1.StopEntry {
	out := make([]snapshotv1.StopEntry, 0, len(entries))
	for _, e := range entries {
		out = append(out, snapshotv1.StopEntry{OrderID: e.OrderID, Volume: e.Volume, Threshold: e.Threshold})
	}
	return out
}

// Restore replaces the book state with the snapshot's. Live entries are
// reinserted in ascending ID order so price-time priority survives the
// round trip.
func (b *Book) Restore(snapshot *snapshotv1.Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("snapshot cannot be nil")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.bids = newLiveSide(true)
	b.asks = newLiveSide(false)
	b.stopBids = newStopPool()
	b.stopAsks = newStopPool()
	b.trades = nil

	for _, e := range sortedByID(snapshot.BookSnapshot.Bids) {
		if e.Volume <= 0 {
			return fmt.Errorf("restore order %d: %w", e.OrderID, orderbookv1.ErrInvalidVolume)
		}
		b.bids.insert(e.OrderID, e.Volume, e.Price)
	}
	for _, e := range sortedByID(snapshot.BookSnapshot.Asks) {
		if e.Volume <= 0 {
			return fmt.Errorf("restore order %d: %w", e.OrderID, orderbookv1.ErrInvalidVolume)
		}
		b.asks.insert(e.OrderID, e.Volume, e.Price)
	}
	for _, e := range snapshot.BookSnapshot.StopBids {
		if e.Volume <= 0 {
			return fmt.Errorf("restore order %d: %w", e.OrderID, orderbookv1.ErrInvalidVolume)
		}
		b.stopBids.insert(e.OrderID, e.Volume, e.Threshold)
	}
	for _, e := range snapshot.BookSnapshot.StopAsks {
		if e.Volume <= 0 {
			return fmt.Errorf("restore order %d: %w", e.OrderID, orderbookv1.ErrInvalidVolume)
		}
		b.stopAsks.insert(e.OrderID, e.Volume, e.Threshold)
	}

	b.nextID = snapshot.NextOrderID
	if b.nextID < 1 {
		b.nextID = 1
	}
	return nil
}
