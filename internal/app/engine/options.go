package engine

import "time"

// Options holds tunables for the engine background loops.
type Options struct {
	// SnapshotInterval is how often the snapshot manager wakes up.
	SnapshotInterval time.Duration
	// SnapshotOffsetDelta is the minimum number of processed order events
	// between two stored snapshots.
	SnapshotOffsetDelta int64
}

// DefaultEngineOptions returns the default engine options.
func DefaultEngineOptions() *Options {
	return &Options{
		SnapshotInterval:    30 * time.Second,
		SnapshotOffsetDelta: 1000,
	}
}
