package report

import (
	"fjacquet/recurring-ledger/internal/models"
)

// StatusSummary aggregates the occurrences sharing one status.
type StatusSummary struct {
	Status models.OccurrenceStatus `json:"status" yaml:"status"`
	Count  int                     `json:"count" yaml:"count"`
	// Totals holds one amount per currency, ordered by currency code.
	Totals []models.Money `json:"totals" yaml:"totals"`
}

// Summary counts occurrences per status. Amounts in different currencies
// are kept apart.
type Summary struct {
	Total    int             `json:"total" yaml:"total"`
	Statuses []StatusSummary `json:"statuses" yaml:"statuses"`
}

// Summarize aggregates occurrences. Every status appears, in classification
// order, even when its count is zero.
func Summarize(occs []models.RecurringOccurrence) Summary {
	counts := make(map[models.OccurrenceStatus]int, len(models.AllStatuses))
	totals := make(map[models.OccurrenceStatus]models.Totals, len(models.AllStatuses))
	for _, o := range occs {
		counts[o.Status]++
		if totals[o.Status] == nil {
			totals[o.Status] = models.Totals{}
		}
		totals[o.Status].Add(o.Amount, o.Currency)
	}

	s := Summary{Total: len(occs), Statuses: make([]StatusSummary, 0, len(models.AllStatuses))}
	for _, status := range models.AllStatuses {
		s.Statuses = append(s.Statuses, StatusSummary{
			Status: status,
			Count:  counts[status],
			Totals: totals[status].Sorted(),
		})
	}
	return s
}

// Count returns the number of occurrences with status.
func (s Summary) Count(status models.OccurrenceStatus) int {
	for _, st := range s.Statuses {
		if st.Status == status {
			return st.Count
		}
	}
	return 0
}

// Totals returns the per-currency totals of status.
func (s Summary) Totals(status models.OccurrenceStatus) []models.Money {
	for _, st := range s.Statuses {
		if st.Status == status {
			return st.Totals
		}
	}
	return nil
}
