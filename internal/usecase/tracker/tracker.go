// Package tracker implements per-pool token admission control: the daily
// cap, the once-per-day rollover and the bounded usage series.
package tracker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
	"github.com/kailas-cloud/tokengate/internal/metrics"
)

// Tracker enforces one pool's daily token quota against shared persistent
// state. It holds no in-memory counters: every decision is made against the
// store, so concurrent trackers on the same namespace stay consistent.
type Tracker struct {
	repo           Repository
	pool           string
	effectiveLimit int64
	now            func() time.Time
	logger         *zap.Logger
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the tracker's clock (test hook).
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// New creates a tracker for a pool. providerLimit is the provider's raw
// per-day ceiling; the effective limit subtracts quota.SafetyBuffer so the
// day's final response has room.
func New(repo Repository, pool string, providerLimit int64, logger *zap.Logger, opts ...Option) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		repo:           repo,
		pool:           pool,
		effectiveLimit: providerLimit - quota.SafetyBuffer,
		now:            time.Now,
		logger:         logger,
	}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Pool returns the pool name.
func (t *Tracker) Pool() string { return t.pool }

// EffectiveLimit returns the enforced daily ceiling.
func (t *Tracker) EffectiveLimit() int64 { return t.effectiveLimit }

// Admit decides whether a prospective call of the given estimated input
// size may proceed. On success the estimate is immediately reserved into
// the daily total (and input_tokens); the actual response size is added
// later by RecordResponse. A denied admission mutates nothing and is never
// rolled back. A store failure denies the call (fail closed) and is
// returned to the caller.
//
// The limit check and the increment are a single atomic store operation,
// so concurrent admissions can never jointly exceed the effective limit.
func (t *Tracker) Admit(ctx context.Context, tokens int64) (bool, error) {
	if err := t.checkAndRoll(ctx); err != nil {
		metrics.StoreFailuresTotal.WithLabelValues(t.pool).Inc()
		return false, err
	}

	applied, newTotal, err := t.repo.IncrCounterCapped(ctx, quota.KeyTokenUsage, tokens, t.effectiveLimit)
	if err != nil {
		metrics.StoreFailuresTotal.WithLabelValues(t.pool).Inc()
		return false, err
	}
	if !applied {
		metrics.AdmissionsTotal.WithLabelValues(t.pool, "denied").Inc()
		return false, nil
	}

	metrics.AdmissionsTotal.WithLabelValues(t.pool, "allowed").Inc()
	metrics.TokensTotal.WithLabelValues(t.pool, "input").Add(float64(tokens))

	// The admission stands once the reservation applied; accounting
	// failures past this point are logged, not surfaced.
	if _, err := t.repo.IncrCounter(ctx, quota.KeyInputTokens, tokens); err != nil {
		t.logger.Warn("failed to count input tokens",
			zap.String("pool", t.pool), zap.Error(err))
	}
	t.recordHistory(ctx, newTotal)
	return true, nil
}

// RecordResponse adds a completed response's token count to the daily
// total. There is no rejection path: the call was already admitted.
func (t *Tracker) RecordResponse(ctx context.Context, tokens int64) error {
	newTotal, err := t.repo.IncrCounter(ctx, quota.KeyTokenUsage, tokens)
	if err != nil {
		metrics.StoreFailuresTotal.WithLabelValues(t.pool).Inc()
		return err
	}

	metrics.TokensTotal.WithLabelValues(t.pool, "output").Add(float64(tokens))

	if _, err := t.repo.IncrCounter(ctx, quota.KeyOutputTokens, tokens); err != nil {
		t.logger.Warn("failed to count output tokens",
			zap.String("pool", t.pool), zap.Error(err))
	}
	t.recordHistory(ctx, newTotal)
	return nil
}

// CurrentUsage returns today's running total (0 when unset), rolling the
// day over first if a boundary was crossed.
func (t *Tracker) CurrentUsage(ctx context.Context) (int64, error) {
	if err := t.checkAndRoll(ctx); err != nil {
		return 0, err
	}
	val, _, err := t.repo.GetCounter(ctx, quota.KeyTokenUsage)
	if err != nil {
		return 0, err
	}
	return val, nil
}

// History returns today's usage series, oldest first.
func (t *Tracker) History(ctx context.Context) ([]quota.HistoryPoint, error) {
	return t.repo.History(ctx)
}

// HistoryCount returns the number of points in today's series.
func (t *Tracker) HistoryCount(ctx context.Context) (int, error) {
	points, err := t.repo.History(ctx)
	if err != nil {
		return 0, err
	}
	return len(points), nil
}

// Archive returns the rolling log of closed days, oldest first.
func (t *Tracker) Archive(ctx context.Context) ([]quota.ArchiveEntry, error) {
	return t.repo.Archive(ctx)
}
