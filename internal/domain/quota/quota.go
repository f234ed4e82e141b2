// Package quota holds the token-quota data model shared by the tracker,
// the persistence layer and the reporting surface.
package quota

import (
	"math"
	"time"
)

// SafetyBuffer is subtracted from the provider's daily ceiling so the last
// admitted call of the day still has room for its response.
const SafetyBuffer = 50_000

// Capacity limits for the bounded series.
const (
	HistoryCap = 100
	ArchiveCap = 30
)

// Key names within a pool namespace.
const (
	KeyDate           = "date"
	KeyCurrentMonth   = "current_month"
	KeyTokenUsage     = "token_usage"
	KeyInputTokens    = "input_tokens"
	KeyOutputTokens   = "output_tokens"
	KeyTokenHistory   = "token_history"
	KeyTokenArchive   = "token_archive"
	KeyYesterdayTotal = "yesterday_total"
	KeyLifetimeTokens = "lifetime_tokens"
	KeyMonthlyTokens  = "monthly_tokens"
	KeyPeakDayTokens  = "peak_day_tokens"
)

// Time layouts for persisted values.
const (
	dayLayout       = "06:01:02"
	monthLayout     = "06:01"
	TimestampLayout = "2006-01-02 15:04:05"
)

// DayKey returns the daily key (YY:MM:DD) for t in UTC.
func DayKey(t time.Time) string {
	return t.UTC().Format(dayLayout)
}

// MonthKey returns the monthly key (YY:MM) for t in UTC.
func MonthKey(t time.Time) string {
	return t.UTC().Format(monthLayout)
}

// HistoryPoint is a snapshot of cumulative daily usage at a moment in time.
type HistoryPoint struct {
	Hour      float64 `json:"hour"` // fractional hour in [0, 24)
	Tokens    int64   `json:"tokens"`
	Timestamp string  `json:"timestamp"`
}

// NewHistoryPoint builds a point for the given instant and cumulative total.
// The fractional hour is rounded to two decimal places.
func NewHistoryPoint(now time.Time, cumulativeTokens int64) HistoryPoint {
	now = now.UTC()
	hour := float64(now.Hour()) + float64(now.Minute())/60
	return HistoryPoint{
		Hour:      math.Round(hour*100) / 100,
		Tokens:    cumulativeTokens,
		Timestamp: now.Format(TimestampLayout),
	}
}

// ArchiveEntry is the closed-out summary of a single day.
type ArchiveEntry struct {
	Date        string         `json:"date"`
	TotalTokens int64          `json:"total_tokens"`
	HourlyData  []HistoryPoint `json:"hourly_data"`
	ArchivedAt  string         `json:"archived_at"`
}

// AppendHistory appends p and drops the oldest points beyond HistoryCap.
func AppendHistory(points []HistoryPoint, p HistoryPoint) []HistoryPoint {
	points = append(points, p)
	if len(points) > HistoryCap {
		points = points[len(points)-HistoryCap:]
	}
	return points
}

// AppendArchive appends e and drops the oldest entries beyond ArchiveCap.
func AppendArchive(entries []ArchiveEntry, e ArchiveEntry) []ArchiveEntry {
	entries = append(entries, e)
	if len(entries) > ArchiveCap {
		entries = entries[len(entries)-ArchiveCap:]
	}
	return entries
}
