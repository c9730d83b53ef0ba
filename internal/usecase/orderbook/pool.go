package orderbook

import (
	"sort"

	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
	snapshotv1 "github.com/sigmatrade/matching-engine/internal/domain/snapshot/v1"
)

// entry is a resting order on a live side.
type entry struct {
	id     int64
	volume int64
	price  float64
}

// level is a single price level: a FIFO queue of resting orders. Order IDs
// are assigned monotonically and entries are enqueued at arrival (restore
// reinserts in ID order), so the queue head is always the oldest order.
type level struct {
	price float64
	queue []*entry
}

// liveSide is one live pool: price levels plus an ID index for cancels.
type liveSide struct {
	bid    bool
	levels map[float64]*level
	index  map[int64]*entry
}

func newLiveSide(bid bool) *liveSide {
	return &liveSide{
		bid:    bid,
		levels: make(map[float64]*level),
		index:  make(map[int64]*entry),
	}
}

func (s *liveSide) isEmpty() bool {
	return len(s.index) == 0
}

func (s *liveSide) insert(id, volume int64, price float64) {
	lvl, ok := s.levels[price]
	if !ok {
		lvl = &level{price: price}
		s.levels[price] = lvl
	}
	e := &entry{id: id, volume: volume, price: price}
	lvl.queue = append(lvl.queue, e)
	s.index[id] = e
}

// best returns the top-priority resting order: highest price for bids,
// lowest for asks, oldest first within a level.
func (s *liveSide) best() (*entry, bool) {
	var bestLevel *level
	for _, lvl := range s.levels {
		if bestLevel == nil {
			bestLevel = lvl
			continue
		}
		if s.bid && lvl.price > bestLevel.price {
			bestLevel = lvl
		}
		if !s.bid && lvl.price < bestLevel.price {
			bestLevel = lvl
		}
	}
	if bestLevel == nil {
		return nil, false
	}
	return bestLevel.queue[0], true
}

// reduce decrements a resting order's volume and removes it once drained.
func (s *liveSide) reduce(id, volume int64) {
	e, ok := s.index[id]
	if !ok {
		return
	}
	e.volume -= volume
	if e.volume <= 0 {
		s.remove(id)
	}
}

// remove is idempotent: removing an unknown ID is a no-op.
func (s *liveSide) remove(id int64) bool {
	e, ok := s.index[id]
	if !ok {
		return false
	}
	delete(s.index, id)

	lvl := s.levels[e.price]
	for i, queued := range lvl.queue {
		if queued.id == id {
			lvl.queue = append(lvl.queue[:i], lvl.queue[i+1:]...)
			break
		}
	}
	if len(lvl.queue) == 0 {
		delete(s.levels, e.price)
	}
	return true
}

func (s *liveSide) totalVolume() int64 {
	var total int64
	for _, e := range s.index {
		total += e.volume
	}
	return total
}

// entries returns the side in matching priority order: best price first,
// oldest first within a price.
func (s *liveSide) entries() []orderbookv1.BookEntry {
	var out []orderbookv1.BookEntry
	for _, lvl := range s.levels {
		for _, e := range lvl.queue {
			out = append(out, orderbookv1.BookEntry{OrderID: e.id, Volume: e.volume, Price: e.price})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			if s.bid {
				return out[i].Price > out[j].Price
			}
			return out[i].Price < out[j].Price
		}
		return out[i].OrderID < out[j].OrderID
	})
	return out
}

// sortedByID orders snapshot entries by ascending ID so reinsertion
// reproduces arrival order inside each price level.
func sortedByID(entries []snapshotv1.BookEntry) []snapshotv1.BookEntry {
	out := make([]snapshotv1.BookEntry, len(entries))
	copy(out, entries)
	sort.Slice(out, func(i, j int) bool { return out[i].OrderID < out[j].OrderID })
	return out
}

// stopEntry is a pending stop order.
type stopEntry struct {
	id        int64
	volume    int64
	threshold float64
}

// stopPool holds pending stop orders sorted by ascending ID, so threshold
// scans deterministically pick the oldest triggered order first.
type stopPool struct {
	entries []*stopEntry
	index   map[int64]*stopEntry
}

func newStopPool() *stopPool {
	return &stopPool{index: make(map[int64]*stopEntry)}
}

func (p *stopPool) insert(id, volume int64, threshold float64) {
	e := &stopEntry{id: id, volume: volume, threshold: threshold}
	i := sort.Search(len(p.entries), func(i int) bool { return p.entries[i].id >= id })
	p.entries = append(p.entries, nil)
	copy(p.entries[i+1:], p.entries[i:])
	p.entries[i] = e
	p.index[id] = e
}

// firstTriggered returns the oldest pending order whose threshold fires on
// the given trade price, skipping orders already activated this submit.
func (p *stopPool) firstTriggered(price float64, rule orderbookv1.TriggerRule, skip map[int64]struct{}) (*stopEntry, bool) {
	for _, e := range p.entries {
		if _, fired := skip[e.id]; fired {
			continue
		}
		if rule.Fires(price, e.threshold) {
			return e, true
		}
	}
	return nil, false
}

// remove is idempotent: removing an unknown ID is a no-op.
func (p *stopPool) remove(id int64) bool {
	if _, ok := p.index[id]; !ok {
		return false
	}
	delete(p.index, id)
	for i, e := range p.entries {
		if e.id == id {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			break
		}
	}
	return true
}

func (p *stopPool) stopEntries() []orderbookv1.StopEntry {
	out := make([]orderbookv1.StopEntry, 0, len(p.entries))
	for _, e := range p.entries {
		out = append(out, orderbookv1.StopEntry{OrderID: e.id, Volume: e.volume, Threshold: e.threshold})
	}
	return out
}
