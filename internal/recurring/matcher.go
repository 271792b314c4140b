package recurring

import (
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"
)

// DefaultToleranceDays is how far a transaction may drift from its scheduled
// date and still count as paying it.
const DefaultToleranceDays = 3

// Matcher pairs scheduled dates with recorded transactions.
type Matcher struct {
	ToleranceDays int
}

// NewMatcher returns a Matcher with the given tolerance. Negative values fall
// back to DefaultToleranceDays.
func NewMatcher(toleranceDays int) Matcher {
	if toleranceDays < 0 {
		toleranceDays = DefaultToleranceDays
	}
	return Matcher{ToleranceDays: toleranceDays}
}

// FindMatch returns the first transaction in txs whose date lies within the
// tolerance window around candidate, bounds included. It returns nil when
// nothing matches.
//
// A transaction is not consumed by a match: two candidates close to each
// other may both claim it.
func (m Matcher) FindMatch(candidate dateutils.Date, txs []models.Transaction) *models.Transaction {
	for i := range txs {
		if m.Matches(candidate, txs[i].Date) {
			return &txs[i]
		}
	}
	return nil
}

// Matches reports whether a transaction dated on is close enough to candidate.
func (m Matcher) Matches(candidate, on dateutils.Date) bool {
	diff := candidate.DaysUntil(on)
	if diff < 0 {
		diff = -diff
	}
	return diff <= m.ToleranceDays
}
