// Package report turns per-day totals into complete date series and renders
// them as charts.
package report

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/money"
)

// DayLayout is the key format for calendar days.
const DayLayout = "2006-01-02"

// MaxDays is the longest window a series may cover, about ten years.
const MaxDays = 3650

// DayKey returns the calendar day of t as "YYYY-MM-DD".
func DayKey(t time.Time) string {
	return t.Format(DayLayout)
}

// WindowStart returns midnight of the first day of a window of days calendar
// days ending on end's day.
func WindowStart(end time.Time, days int) time.Time {
	y, m, d := end.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, end.Location()).AddDate(0, 0, -(days - 1))
}

// FillDays lays totals, keyed by DayKey, over the window ending on end's
// day. The result always has days entries, oldest first; days missing from
// totals get 0.00. Windows outside 1..MaxDays yield nil.
func FillDays(end time.Time, days int, totals map[string]decimal.Decimal) ([]time.Time, []decimal.Decimal) {
	if days < 1 || days > MaxDays {
		return nil, nil
	}
	start := WindowStart(end, days)
	dates := make([]time.Time, 0, days)
	amounts := make([]decimal.Decimal, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, i)
		amount, ok := totals[DayKey(day)]
		if !ok {
			amount = money.Zero
		}
		dates = append(dates, day)
		amounts = append(amounts, money.Normalize(amount))
	}
	return dates, amounts
}

// Total sums a series.
func Total(amounts []decimal.Decimal) decimal.Decimal {
	return money.Sum(amounts)
}
