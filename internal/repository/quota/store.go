// Package quota persists per-pool quota state as namespaced string keys.
package quota

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/db"
	domquota "github.com/kailas-cloud/tokengate/internal/domain/quota"
)

// store is the consumer interface for quota persistence (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	IncrBy(ctx context.Context, key string, val int64) (int64, error)
	IncrByCapped(ctx context.Context, key string, val, ceiling int64) (bool, int64, error)
	CompareAndSwap(ctx context.Context, key, expectedOld, newVal string) (bool, error)
	Del(ctx context.Context, key string) error
}

// Store reads and writes one pool's quota records. Pools never share a
// namespace, so two Stores with different namespaces are fully isolated.
type Store struct {
	store  store
	ns     string
	logger *zap.Logger
}

// New creates a quota store bound to a pool namespace
// (e.g. "tokengate:flash:").
func New(s store, namespace string, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{store: s, ns: namespace, logger: logger}
}

func (s *Store) key(name string) string { return s.ns + name }

// GetCounter returns a counter value and whether the key exists.
// A store failure is returned as an error, never as an absent key.
func (s *Store) GetCounter(ctx context.Context, name string) (int64, bool, error) {
	data, err := s.store.Get(ctx, s.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("quota GET %s: %w", name, err)
	}

	val, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("quota GET %s parse %q: %w", name, data, err)
	}
	return val, true, nil
}

// SetCounter overwrites a counter value.
func (s *Store) SetCounter(ctx context.Context, name string, val int64) error {
	if err := s.store.Set(ctx, s.key(name), []byte(strconv.FormatInt(val, 10))); err != nil {
		return fmt.Errorf("quota SET %s: %w", name, err)
	}
	return nil
}

// IncrCounter atomically increments a counter and returns the new value.
func (s *Store) IncrCounter(ctx context.Context, name string, delta int64) (int64, error) {
	n, err := s.store.IncrBy(ctx, s.key(name), delta)
	if err != nil {
		return 0, fmt.Errorf("quota INCRBY %s: %w", name, err)
	}
	return n, nil
}

// IncrCounterCapped increments a counter only if the result stays at or
// below ceiling. Reports whether the increment applied and the counter's
// current value.
func (s *Store) IncrCounterCapped(ctx context.Context, name string, delta, ceiling int64) (bool, int64, error) {
	applied, n, err := s.store.IncrByCapped(ctx, s.key(name), delta, ceiling)
	if err != nil {
		return false, 0, fmt.Errorf("quota capped INCRBY %s: %w", name, err)
	}
	return applied, n, nil
}

// GetString returns a string record and whether the key exists.
func (s *Store) GetString(ctx context.Context, name string) (string, bool, error) {
	data, err := s.store.Get(ctx, s.key(name))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("quota GET %s: %w", name, err)
	}
	return string(data), true, nil
}

// SetString overwrites a string record.
func (s *Store) SetString(ctx context.Context, name, val string) error {
	if err := s.store.Set(ctx, s.key(name), []byte(val)); err != nil {
		return fmt.Errorf("quota SET %s: %w", name, err)
	}
	return nil
}

// SwapString atomically replaces a string record only when its current
// value equals expectedOld ("" matches an absent key).
func (s *Store) SwapString(ctx context.Context, name, expectedOld, newVal string) (bool, error) {
	applied, err := s.store.CompareAndSwap(ctx, s.key(name), expectedOld, newVal)
	if err != nil {
		return false, fmt.Errorf("quota CAS %s: %w", name, err)
	}
	return applied, nil
}

// Delete removes a record.
func (s *Store) Delete(ctx context.Context, name string) error {
	if err := s.store.Del(ctx, s.key(name)); err != nil {
		return fmt.Errorf("quota DEL %s: %w", name, err)
	}
	return nil
}

// History loads today's history series. Corrupt JSON is logged, the field
// is dropped and an empty series returned — corruption never propagates.
func (s *Store) History(ctx context.Context) ([]domquota.HistoryPoint, error) {
	data, err := s.store.Get(ctx, s.key(domquota.KeyTokenHistory))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []domquota.HistoryPoint{}, nil
		}
		return nil, fmt.Errorf("quota GET %s: %w", domquota.KeyTokenHistory, err)
	}

	var points []domquota.HistoryPoint
	if err := json.Unmarshal(data, &points); err != nil {
		s.logger.Warn("corrupt token history, resetting to empty",
			zap.String("namespace", s.ns),
			zap.Error(err),
		)
		s.discard(ctx, domquota.KeyTokenHistory)
		return []domquota.HistoryPoint{}, nil
	}
	return points, nil
}

// SaveHistory stores today's history series.
func (s *Store) SaveHistory(ctx context.Context, points []domquota.HistoryPoint) error {
	data, err := json.Marshal(points)
	if err != nil {
		return fmt.Errorf("quota marshal history: %w", err)
	}
	if err := s.store.Set(ctx, s.key(domquota.KeyTokenHistory), data); err != nil {
		return fmt.Errorf("quota SET %s: %w", domquota.KeyTokenHistory, err)
	}
	return nil
}

// Archive loads the rolling archive of closed days. Corrupt JSON is
// handled the same way as in History.
func (s *Store) Archive(ctx context.Context) ([]domquota.ArchiveEntry, error) {
	data, err := s.store.Get(ctx, s.key(domquota.KeyTokenArchive))
	if err != nil {
		if errors.Is(err, db.ErrKeyNotFound) {
			return []domquota.ArchiveEntry{}, nil
		}
		return nil, fmt.Errorf("quota GET %s: %w", domquota.KeyTokenArchive, err)
	}

	var entries []domquota.ArchiveEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		s.logger.Warn("corrupt token archive, resetting to empty",
			zap.String("namespace", s.ns),
			zap.Error(err),
		)
		s.discard(ctx, domquota.KeyTokenArchive)
		return []domquota.ArchiveEntry{}, nil
	}
	return entries, nil
}

// SaveArchive stores the rolling archive.
func (s *Store) SaveArchive(ctx context.Context, entries []domquota.ArchiveEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("quota marshal archive: %w", err)
	}
	if err := s.store.Set(ctx, s.key(domquota.KeyTokenArchive), data); err != nil {
		return fmt.Errorf("quota SET %s: %w", domquota.KeyTokenArchive, err)
	}
	return nil
}

// discard best-effort deletes a corrupt field.
func (s *Store) discard(ctx context.Context, name string) {
	if err := s.store.Del(ctx, s.key(name)); err != nil {
		s.logger.Warn("failed to delete corrupt field",
			zap.String("key", name),
			zap.Error(err),
		)
	}
}
