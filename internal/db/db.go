package db

import (
	"context"
	"time"
)

// Store is the main database facade combining all sub-interfaces.
type Store interface {
	Pinger
	KVStore
	Close()
	WaitForReady(ctx context.Context, timeout time.Duration) error
}

// Pinger checks database connectivity.
type Pinger interface {
	Ping(ctx context.Context) error
}

// KVStore provides key-value operations for quota counters and series.
//
// A nonexistent key is reported as ErrKeyNotFound by Get; any other error is
// a transport or server failure. Callers must never treat a failure as an
// absent key.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	// IncrBy atomically increments a key and returns the new value.
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	// IncrByCapped atomically increments a key only if the resulting value
	// would not exceed ceiling. Returns whether the increment was applied
	// and the key's current value (post-increment when applied).
	IncrByCapped(ctx context.Context, key string, val, ceiling int64) (bool, int64, error)
	// CompareAndSwap sets key to newVal only if its current value equals
	// expectedOld. An empty expectedOld matches an absent key.
	CompareAndSwap(ctx context.Context, key, expectedOld, newVal string) (bool, error)
	Del(ctx context.Context, key string) error
}
