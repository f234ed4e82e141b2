package tracker

import (
	"context"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
)

// Repository is the persistence contract for one pool's quota state.
type Repository interface {
	GetCounter(ctx context.Context, name string) (int64, bool, error)
	SetCounter(ctx context.Context, name string, val int64) error
	IncrCounter(ctx context.Context, name string, delta int64) (int64, error)
	IncrCounterCapped(ctx context.Context, name string, delta, ceiling int64) (bool, int64, error)
	GetString(ctx context.Context, name string) (string, bool, error)
	SetString(ctx context.Context, name, val string) error
	SwapString(ctx context.Context, name, expectedOld, newVal string) (bool, error)
	Delete(ctx context.Context, name string) error
	History(ctx context.Context) ([]quota.HistoryPoint, error)
	SaveHistory(ctx context.Context, points []quota.HistoryPoint) error
	Archive(ctx context.Context) ([]quota.ArchiveEntry, error)
	SaveArchive(ctx context.Context, entries []quota.ArchiveEntry) error
}
