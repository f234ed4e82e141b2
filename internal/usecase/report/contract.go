package report

import (
	"context"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
)

// Repository is the read-only slice of a pool's quota state the reporting
// surface projects from.
type Repository interface {
	GetCounter(ctx context.Context, name string) (int64, bool, error)
	History(ctx context.Context) ([]quota.HistoryPoint, error)
}
