package snapshot

import (
	"context"
	"encoding/json"
	"fmt"

	snapshotv1 "github.com/sigmatrade/matching-engine/internal/domain/snapshot/v1"
	"github.com/sigmatrade/matching-engine/pkg/errors"
	"github.com/sigmatrade/matching-engine/pkg/logger"
	"github.com/sigmatrade/matching-engine/pkg/redis"
)

// Store persists engine snapshots in Redis under the instrument key.
type Store struct {
	instrument  string
	logger      *logger.Logger
	redisclient redis.Client
}

// NewSnapshotStore creates a new snapshot store for the given instrument.
func NewSnapshotStore(redisclient redis.Client, instrument string, log *logger.Logger) *Store {
	return &Store{
		instrument:  instrument,
		redisclient: redisclient,
		logger:      log,
	}
}

// Store serializes the snapshot and writes it to Redis.
func (s *Store) Store(ctx context.Context, snapshot *snapshotv1.Snapshot) error {
	s.logger.InfoContext(ctx, fmt.Sprintf("Storing snapshot for instrument %s", s.instrument), logger.Field{
		Key:   "instrument",
		Value: s.instrument,
	})

	buf, err := json.Marshal(snapshot)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "instrument",
			Value: s.instrument,
		})
		return errors.NewTracer("snapshot_marshal_error").Wrap(err)
	}

	if err := s.redisclient.Set(ctx, s.instrument, buf, 0); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "instrument",
			Value: s.instrument,
		})
		return errors.NewTracer("snapshot_store_error").Wrap(err)
	}

	s.logger.InfoContext(ctx, fmt.Sprintf("Snapshot stored for instrument %s", s.instrument), logger.Field{
		Key:   "instrument",
		Value: s.instrument,
	}, logger.Field{
		Key:   "action",
		Value: "store snapshot",
	})
	return nil
}

// LoadStore loads the latest snapshot from Redis. A missing snapshot is not
// an error; it returns nil for a fresh start.
func (s *Store) LoadStore(ctx context.Context) (*snapshotv1.Snapshot, error) {
	s.logger.InfoContext(ctx, fmt.Sprintf("Loading snapshot for instrument %s", s.instrument), logger.Field{
		Key:   "instrument",
		Value: s.instrument,
	}, logger.Field{
		Key:   "action",
		Value: "load snapshot",
	})

	data, err := s.redisclient.Get(ctx, s.instrument)
	if err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "instrument",
			Value: s.instrument,
		})
		return nil, errors.NewTracer("snapshot_load_error").Wrap(err)
	}

	if data == "" {
		s.logger.WarnContext(ctx, fmt.Sprintf("No snapshot found for instrument %s", s.instrument), logger.Field{
			Key:   "instrument",
			Value: s.instrument,
		})
		return nil, nil
	}

	var snapshot snapshotv1.Snapshot
	if err := json.Unmarshal([]byte(data), &snapshot); err != nil {
		s.logger.ErrorContext(ctx, err, logger.Field{
			Key:   "instrument",
			Value: s.instrument,
		}, logger.Field{
			Key:   "action",
			Value: "unmarshal snapshot",
		})
		return nil, errors.NewTracer("snapshot_unmarshal_error").Wrap(err)
	}

	return &snapshot, nil
}
