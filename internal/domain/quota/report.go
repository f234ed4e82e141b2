package quota

import (
	"fmt"
	"math"
)

// Stats are the counter totals shown on the dashboard stat cards.
type Stats struct {
	DailyTotal    int64
	MonthlyTotal  int64
	PeakDay       int64
	LifetimeTotal int64
}

// GraphStats are the derived figures for the graph sidebar.
type GraphStats struct {
	InputTokens  int64
	OutputTokens int64
	PeakHours    string
	DailyChange  string
}

// PeakHours returns the HH:MM of the history point with the highest token
// total, or "N/A" when the history is empty.
func PeakHours(points []HistoryPoint) string {
	if len(points) == 0 {
		return "N/A"
	}
	peak := points[0]
	for _, p := range points[1:] {
		if p.Tokens > peak.Tokens {
			peak = p
		}
	}
	hour := int(peak.Hour)
	minute := int(math.Round((peak.Hour - float64(hour)) * 60))
	if minute == 60 {
		hour, minute = hour+1, 0
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// DailyChange formats the day-over-day delta with an explicit sign and one
// decimal place. Returns the literal "0%" when yesterday is absent or zero.
func DailyChange(today, yesterday int64) string {
	if yesterday <= 0 {
		return "0%"
	}
	change := float64(today-yesterday) / float64(yesterday) * 100
	return fmt.Sprintf("%+.1f%%", change)
}
