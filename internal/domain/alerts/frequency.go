package alerts

import (
	"fmt"
	"time"
)

// Frequency is how often a subscriber expects job-alert emails.
// The raw database value is preserved so that unrecognized frequencies can be
// reported instead of being silently coerced.
type Frequency string

const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
)

var ErrUnknownFrequency = fmt.Errorf("unknown frequency")

// Known reports whether f is one of the recognized frequency values.
func (f Frequency) Known() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly:
		return true
	}
	return false
}

// NextEmailDate computes the next eligible send date relative to referenceDate.
// DAILY adds one day, WEEKLY seven days, MONTHLY one calendar month with the
// day-of-month clamped to the shorter month (Jan 31 + 1 month = Feb 28/29).
func (f Frequency) NextEmailDate(referenceDate time.Time) (time.Time, error) {
	switch f {
	case FrequencyDaily:
		return referenceDate.AddDate(0, 0, 1), nil
	case FrequencyWeekly:
		return referenceDate.AddDate(0, 0, 7), nil
	case FrequencyMonthly:
		return addOneMonthClamped(referenceDate), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownFrequency, string(f))
	}
}

// addOneMonthClamped avoids time.AddDate's normalization (Jan 31 + 1 month
// would roll over into March) by clamping the day to the target month's length.
func addOneMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, t.Location())
	if lastDay := firstOfNext.AddDate(0, 1, -1).Day(); day > lastDay {
		day = lastDay
	}
	return time.Date(firstOfNext.Year(), firstOfNext.Month(), day, 0, 0, 0, 0, t.Location())
}
