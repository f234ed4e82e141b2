package tracker

import (
	"context"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
)

// recordHistory appends a snapshot of the running total to today's series,
// keeping at most quota.HistoryCap points. Series failures never affect an
// already-made admission decision; they are logged and dropped.
func (t *Tracker) recordHistory(ctx context.Context, cumulativeTokens int64) {
	points, err := t.repo.History(ctx)
	if err != nil {
		t.logger.Warn("failed to load token history",
			zap.String("pool", t.pool), zap.Error(err))
		return
	}

	points = quota.AppendHistory(points, quota.NewHistoryPoint(t.now(), cumulativeTokens))

	if err := t.repo.SaveHistory(ctx, points); err != nil {
		t.logger.Warn("failed to save token history",
			zap.String("pool", t.pool), zap.Error(err))
	}
}
