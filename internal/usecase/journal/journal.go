package journal

import (
	"encoding/binary"
	"encoding/json"

	"github.com/cockroachdb/pebble"

	orderbookv1 "github.com/sigmatrade/matching-engine/internal/domain/orderbook/v1"
	"github.com/sigmatrade/matching-engine/pkg/errors"
)

var keyPrefix = []byte("t:")

// PebbleJournal is an append-only trade journal backed by a local Pebble
// store. Keys are the ledger sequence number in big-endian form, so
// iteration order is sequence order.
type PebbleJournal struct {
	db *pebble.DB
}

// NewPebbleJournal opens (or creates) the journal at path.
func NewPebbleJournal(path string) (*PebbleJournal, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, errors.NewTracer("journal_open_error").Wrap(err)
	}
	return &PebbleJournal{db: db}, nil
}

func tradeKey(seq int64) []byte {
	key := make([]byte, len(keyPrefix)+8)
	copy(key, keyPrefix)
	binary.BigEndian.PutUint64(key[len(keyPrefix):], uint64(seq))
	return key
}

// Append writes the trade at the given ledger sequence number.
func (j *PebbleJournal) Append(seq int64, trade orderbookv1.Trade) error {
	val, err := json.Marshal(trade)
	if err != nil {
		return errors.NewTracer("journal_marshal_error").Wrap(err)
	}
	if err := j.db.Set(tradeKey(seq), val, pebble.Sync); err != nil {
		return errors.NewTracer("journal_append_error").Wrap(err)
	}
	return nil
}

// Replay calls fn for every journaled trade in sequence order.
func (j *PebbleJournal) Replay(fn func(seq int64, trade orderbookv1.Trade) error) error {
	iter, err := j.db.NewIter(&pebble.IterOptions{
		LowerBound: tradeKey(0),
		UpperBound: tradeKey(int64(^uint64(0) >> 1)),
	})
	if err != nil {
		return errors.NewTracer("journal_iter_error").Wrap(err)
	}
	defer iter.Close()

	for iter.First(); iter.Valid(); iter.Next() {
		seq := int64(binary.BigEndian.Uint64(iter.Key()[len(keyPrefix):]))
		var trade orderbookv1.Trade
		if err := json.Unmarshal(iter.Value(), &trade); err != nil {
			return errors.NewTracer("journal_unmarshal_error").Wrap(err)
		}
		if err := fn(seq, trade); err != nil {
			return err
		}
	}
	return iter.Error()
}

// Len returns the number of journaled trades.
func (j *PebbleJournal) Len() (int64, error) {
	var count int64
	err := j.Replay(func(int64, orderbookv1.Trade) error {
		count++
		return nil
	})
	return count, err
}

// Close closes the underlying store.
func (j *PebbleJournal) Close() error {
	return j.db.Close()
}
