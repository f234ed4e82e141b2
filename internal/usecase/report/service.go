// Package report projects stored quota state into the dashboard figures.
// Projections are pure reads: they never trigger a rollover and never
// mutate the pool.
package report

import (
	"context"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
)

// Service builds usage reports for one pool.
type Service struct {
	repo Repository
}

// New creates a reporting service over a pool's quota state.
func New(repo Repository) *Service {
	return &Service{repo: repo}
}

// Stats returns the stat-card totals. Absent counters read as zero.
func (s *Service) Stats(ctx context.Context) (quota.Stats, error) {
	var stats quota.Stats
	for _, c := range []struct {
		name string
		dst  *int64
	}{
		{quota.KeyTokenUsage, &stats.DailyTotal},
		{quota.KeyMonthlyTokens, &stats.MonthlyTotal},
		{quota.KeyPeakDayTokens, &stats.PeakDay},
		{quota.KeyLifetimeTokens, &stats.LifetimeTotal},
	} {
		val, _, err := s.repo.GetCounter(ctx, c.name)
		if err != nil {
			return quota.Stats{}, err
		}
		*c.dst = val
	}
	return stats, nil
}

// GraphStats returns the graph-sidebar figures: today's input/output
// split, the peak usage hour and the day-over-day change.
func (s *Service) GraphStats(ctx context.Context) (quota.GraphStats, error) {
	input, _, err := s.repo.GetCounter(ctx, quota.KeyInputTokens)
	if err != nil {
		return quota.GraphStats{}, err
	}
	output, _, err := s.repo.GetCounter(ctx, quota.KeyOutputTokens)
	if err != nil {
		return quota.GraphStats{}, err
	}
	today, _, err := s.repo.GetCounter(ctx, quota.KeyTokenUsage)
	if err != nil {
		return quota.GraphStats{}, err
	}
	yesterday, _, err := s.repo.GetCounter(ctx, quota.KeyYesterdayTotal)
	if err != nil {
		return quota.GraphStats{}, err
	}
	history, err := s.repo.History(ctx)
	if err != nil {
		return quota.GraphStats{}, err
	}

	return quota.GraphStats{
		InputTokens:  input,
		OutputTokens: output,
		PeakHours:    quota.PeakHours(history),
		DailyChange:  quota.DailyChange(today, yesterday),
	}, nil
}

// TokenUsage returns today's usage series for charting, oldest first.
func (s *Service) TokenUsage(ctx context.Context) ([]quota.HistoryPoint, error) {
	return s.repo.History(ctx)
}
