package guard

import (
	"errors"
	"time"
)

var (
	ErrPeriodNotClosed = errors.New("period_not_closed")
	ErrInvalidPeriod   = errors.New("invalid_period")
)

// PreviousMonth returns the UTC calendar month before now. end is the last
// microsecond of the month so inclusive range queries keep database
// precision.
func PreviousMonth(now time.Time) (start, end time.Time) {
	now = now.UTC()
	current := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	start = current.AddDate(0, -1, 0)
	end = current.Add(-time.Microsecond)
	return start, end
}

// EnsurePeriodClosed reports ErrPeriodNotClosed until grace has passed since
// the period ended.
func EnsurePeriodClosed(end, now time.Time, grace time.Duration) error {
	if end.IsZero() {
		return ErrInvalidPeriod
	}
	if now.Before(end.Add(grace)) {
		return ErrPeriodNotClosed
	}
	return nil
}

// PeriodKey is the yyyy-mm label of the month starting at start.
func PeriodKey(start time.Time) string {
	return start.UTC().Format("2006-01")
}
