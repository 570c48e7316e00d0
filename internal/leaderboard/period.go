package leaderboard

import (
	"errors"
	"time"
)

var ErrInvalidPeriod = errors.New("invalid leaderboard period")

// weeklyAnchor is the start of the very first weekly leaderboard. Every later
// weekly window is a whole number of 7-day steps after it.
var weeklyAnchor = time.Date(2025, time.August, 17, 0, 0, 0, 0, time.UTC)

// ResolveWindow computes the date window for a period at the given instant.
// Windows are always computed fresh from now, so a monthly window rolls over
// automatically at the month boundary and never leaks across it from a cache.
func ResolveWindow(period Period, now time.Time) (Window, error) {
	now = now.UTC()

	switch period {
	case PeriodMonthly:
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		// day 0 of the next month is the last day of this one
		end := time.Date(now.Year(), now.Month()+1, 0, 23, 59, 59, 0, time.UTC)
		return Window{Start: start, End: end}, nil

	case PeriodWeekly:
		start := weeklyAnchor
		end := start.AddDate(0, 0, 7).Add(-time.Second)
		for now.After(end) {
			start = start.AddDate(0, 0, 7)
			end = start.AddDate(0, 0, 7).Add(-time.Second)
		}
		return Window{Start: start, End: end}, nil
	}

	return Window{}, ErrInvalidPeriod
}
