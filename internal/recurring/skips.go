package recurring

import (
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"
)

// IsSkipped reports whether one of the markers sits on the same calendar day
// as candidate.
func IsSkipped(candidate dateutils.Date, skips []models.SkippedOccurrence) bool {
	for _, s := range skips {
		if s.Date.Equal(candidate) {
			return true
		}
	}
	return false
}
