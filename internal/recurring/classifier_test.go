package recurring

import (
	"testing"

	"fjacquet/recurring-ledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifier_Classify(t *testing.T) {
	c := Classifier{Matcher: NewMatcher(3), Today: d("2024-03-15")}
	txs := []models.Transaction{tx("t1", "2024-01-02")}
	skips := []models.SkippedOccurrence{{RuleID: "rule-1", Date: d("2024-02-01")}}

	tests := []struct {
		name      string
		candidate string
		want      models.OccurrenceStatus
	}{
		{"matched transaction", "2024-01-01", models.StatusPaid},
		{"skip marker", "2024-02-01", models.StatusSkipped},
		{"past and unresolved", "2024-03-01", models.StatusOverdue},
		{"today", "2024-03-15", models.StatusDue},
		{"tomorrow", "2024-03-16", models.StatusUpcoming},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := c.Classify(d(tc.candidate), txs, skips)
			assert.Equal(t, tc.want, got.Status)
			if tc.want == models.StatusPaid {
				require.NotNil(t, got.Transaction)
				assert.Equal(t, "t1", got.Transaction.ID)
			} else {
				assert.Nil(t, got.Transaction)
			}
		})
	}
}

func TestClassifier_PaidWinsOverSkip(t *testing.T) {
	c := Classifier{Matcher: NewMatcher(3), Today: d("2024-03-15")}
	txs := []models.Transaction{tx("t1", "2024-02-02")}
	skips := []models.SkippedOccurrence{{RuleID: "rule-1", Date: d("2024-02-01")}}

	got := c.Classify(d("2024-02-01"), txs, skips)
	assert.Equal(t, models.StatusPaid, got.Status)
}
