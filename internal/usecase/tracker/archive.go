package tracker

import (
	"context"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
)

// archiveDay appends a closed day's summary to the rolling archive,
// keeping at most quota.ArchiveCap entries, oldest dropped first. A day
// with no recorded history (or an unknown closing date) produces no entry.
func (t *Tracker) archiveDay(ctx context.Context, closingDate string, history []quota.HistoryPoint, totalTokens int64) error {
	if closingDate == "" || len(history) == 0 {
		return nil
	}

	entries, err := t.repo.Archive(ctx)
	if err != nil {
		return err
	}

	entries = quota.AppendArchive(entries, quota.ArchiveEntry{
		Date:        closingDate,
		TotalTokens: totalTokens,
		HourlyData:  history,
		ArchivedAt:  t.now().UTC().Format(quota.TimestampLayout),
	})

	return t.repo.SaveArchive(ctx, entries)
}
