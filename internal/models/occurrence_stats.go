package models

import (
	"fjacquet/recurring-ledger/internal/logging"
)

// OccurrenceStats counts occurrences per status for one expansion.
type OccurrenceStats struct {
	Total    int
	ByStatus map[OccurrenceStatus]int
}

// NewOccurrenceStats tallies the given occurrences.
func NewOccurrenceStats(occurrences []RecurringOccurrence) OccurrenceStats {
	stats := OccurrenceStats{ByStatus: make(map[OccurrenceStatus]int, len(AllStatuses))}
	for _, occ := range occurrences {
		stats.Total++
		stats.ByStatus[occ.Status]++
	}
	return stats
}

// Pending returns the number of overdue and due occurrences.
func (s OccurrenceStats) Pending() int {
	return s.ByStatus[StatusOverdue] + s.ByStatus[StatusDue]
}

// LogSummary logs the counts at debug level.
func (s OccurrenceStats) LogSummary(logger logging.Logger, userID string) {
	if logger == nil {
		return
	}

	logger.Debug("Occurrence summary",
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldCount, Value: s.Total},
		logging.Field{Key: "paid", Value: s.ByStatus[StatusPaid]},
		logging.Field{Key: "skipped", Value: s.ByStatus[StatusSkipped]},
		logging.Field{Key: "overdue", Value: s.ByStatus[StatusOverdue]},
		logging.Field{Key: "due", Value: s.ByStatus[StatusDue]},
		logging.Field{Key: "upcoming", Value: s.ByStatus[StatusUpcoming]},
	)
}
