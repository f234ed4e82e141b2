package tracker

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/kailas-cloud/tokengate/internal/domain/quota"
	"github.com/kailas-cloud/tokengate/internal/metrics"
)

// checkAndRoll closes out the stored day when a UTC day boundary has been
// crossed. The transition on the date key is a compare-and-swap, so exactly
// one caller per pool performs the rollup; everyone else observes the new
// day already current and proceeds.
//
// The winner resets the live counters first and applies the aggregates
// after. The claim can only succeed once per boundary, so a crash mid-way
// loses at most that day's aggregate update — it can never double-apply or
// leave the new day dirty, and a re-run is a no-op.
func (t *Tracker) checkAndRoll(ctx context.Context) error {
	now := t.now().UTC()
	todayKey := quota.DayKey(now)
	monthKey := quota.MonthKey(now)

	storedDate, _, err := t.repo.GetString(ctx, quota.KeyDate)
	if err != nil {
		return err
	}
	if storedDate == todayKey {
		return nil
	}

	// Snapshot the closing day before claiming the transition.
	closingTotal, totalPresent, err := t.repo.GetCounter(ctx, quota.KeyTokenUsage)
	if err != nil {
		return err
	}
	closingHistory, err := t.repo.History(ctx)
	if err != nil {
		return err
	}

	won, err := t.repo.SwapString(ctx, quota.KeyDate, storedDate, todayKey)
	if err != nil {
		return err
	}
	if !won {
		// A concurrent caller claimed the boundary; the new day's state
		// is (or is becoming) current.
		return nil
	}

	var errs []error
	fail := func(err error) {
		t.logger.Warn("rollover step failed",
			zap.String("pool", t.pool),
			zap.String("closing_date", storedDate),
			zap.Error(err),
		)
		errs = append(errs, err)
	}

	// Fresh day first: zero the live counters and drop the series.
	if err := t.repo.SetCounter(ctx, quota.KeyTokenUsage, 0); err != nil {
		fail(err)
	}
	if err := t.repo.SetCounter(ctx, quota.KeyInputTokens, 0); err != nil {
		fail(err)
	}
	if err := t.repo.SetCounter(ctx, quota.KeyOutputTokens, 0); err != nil {
		fail(err)
	}
	if err := t.repo.Delete(ctx, quota.KeyTokenHistory); err != nil {
		fail(err)
	}

	// First-ever run: nothing to roll up.
	if totalPresent {
		if err := t.rollAggregates(ctx, monthKey, closingTotal); err != nil {
			fail(err)
		}
		if err := t.repo.SetCounter(ctx, quota.KeyYesterdayTotal, closingTotal); err != nil {
			fail(err)
		}
	}
	if err := t.archiveDay(ctx, storedDate, closingHistory, closingTotal); err != nil {
		fail(err)
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	metrics.RolloversTotal.WithLabelValues(t.pool).Inc()
	t.logger.Info("daily rollover complete",
		zap.String("pool", t.pool),
		zap.String("closing_date", storedDate),
		zap.String("new_date", todayKey),
		zap.Int64("closing_total", closingTotal),
	)
	return nil
}

// rollAggregates folds a closed day's total into the lifetime, monthly and
// peak-day records.
func (t *Tracker) rollAggregates(ctx context.Context, monthKey string, closingTotal int64) error {
	// INCRBY initializes an absent key to the delta, which is exactly the
	// "add or initialize" the lifetime counter needs.
	if _, err := t.repo.IncrCounter(ctx, quota.KeyLifetimeTokens, closingTotal); err != nil {
		return err
	}

	storedMonth, monthPresent, err := t.repo.GetString(ctx, quota.KeyCurrentMonth)
	if err != nil {
		return err
	}
	if monthPresent && storedMonth == monthKey {
		if _, err := t.repo.IncrCounter(ctx, quota.KeyMonthlyTokens, closingTotal); err != nil {
			return err
		}
	} else {
		// New month starts fresh from the closing day's total.
		if err := t.repo.SetCounter(ctx, quota.KeyMonthlyTokens, closingTotal); err != nil {
			return err
		}
		if err := t.repo.SetString(ctx, quota.KeyCurrentMonth, monthKey); err != nil {
			return err
		}
	}

	peak, peakPresent, err := t.repo.GetCounter(ctx, quota.KeyPeakDayTokens)
	if err != nil {
		return err
	}
	// Strict exceedance only — ties keep the existing record.
	if !peakPresent || closingTotal > peak {
		if err := t.repo.SetCounter(ctx, quota.KeyPeakDayTokens, closingTotal); err != nil {
			return err
		}
	}
	return nil
}
