package recurring

import (
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"
)

// Classification is the outcome for one candidate date.
type Classification struct {
	Status models.OccurrenceStatus
	// Transaction is set only for StatusPaid.
	Transaction *models.Transaction
}

// Classifier assigns a status to candidate dates relative to a fixed today.
type Classifier struct {
	Matcher Matcher
	Today   dateutils.Date
}

// Classify evaluates, in order: a matching transaction (PAID), a skip marker
// (SKIPPED), then the position of candidate relative to today (OVERDUE, DUE,
// UPCOMING).
func (c Classifier) Classify(candidate dateutils.Date, txs []models.Transaction, skips []models.SkippedOccurrence) Classification {
	if tx := c.Matcher.FindMatch(candidate, txs); tx != nil {
		return Classification{Status: models.StatusPaid, Transaction: tx}
	}
	if IsSkipped(candidate, skips) {
		return Classification{Status: models.StatusSkipped}
	}
	switch cmp := candidate.Compare(c.Today); {
	case cmp < 0:
		return Classification{Status: models.StatusOverdue}
	case cmp == 0:
		return Classification{Status: models.StatusDue}
	default:
		return Classification{Status: models.StatusUpcoming}
	}
}
