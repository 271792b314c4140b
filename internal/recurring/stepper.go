// Package recurring expands recurring rules into dated occurrences and
// classifies each occurrence against the recorded transaction history.
//
// Everything in this package is pure: rules, transactions and skip markers are
// handed in already loaded, and "today" is a parameter.
package recurring

import (
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"
)

// Advance moves date forward by interval units of freq. Months and years are
// added on the calendar and clamp to the last valid day of the target month.
//
// The boolean is false when there is no next date: ONE_TIME rules, unknown
// frequencies and non-positive intervals.
func Advance(date dateutils.Date, freq models.Frequency, interval int) (dateutils.Date, bool) {
	if interval < 1 {
		return date, false
	}
	switch freq {
	case models.FrequencyDaily:
		return date.AddDays(interval), true
	case models.FrequencyWeekly:
		return date.AddDays(7 * interval), true
	case models.FrequencyMonthly:
		return date.AddMonths(interval), true
	case models.FrequencyYearly:
		return date.AddYears(interval), true
	default:
		return date, false
	}
}
