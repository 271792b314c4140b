package occurrences_test

import (
	"encoding/json"
	"strings"
	"testing"

	"fjacquet/recurring-ledger/cmd/clitest"
	"fjacquet/recurring-ledger/cmd/occurrences"
	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/report"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decode(t *testing.T, out string) []models.RecurringOccurrence {
	t.Helper()
	var occs []models.RecurringOccurrence
	require.NoError(t, json.Unmarshal([]byte(out), &occs), out)
	return occs
}

func TestOccurrencesCommand_Flags(t *testing.T) {
	assert.Equal(t, "occurrences", occurrences.Cmd.Use)
	for _, name := range []string{"from", "to", "summary", "status"} {
		assert.NotNil(t, occurrences.Cmd.Flags().Lookup(name), name)
	}
	assert.Equal(t, "s", occurrences.Cmd.Flags().Lookup("summary").Shorthand)
}

func TestOccurrences_DefaultWindow(t *testing.T) {
	env := clitest.Setup(t, occurrences.Cmd)
	cat := env.Category(t, "alice")
	env.MonthlyRule(t, "alice", cat, "1200", "2024-01-01")

	out, err := env.Run("occurrences", "-u", "alice", "-f", "json")
	require.NoError(t, err)

	occs := decode(t, out)
	require.Len(t, occs, 6)
	want := []string{"2024-01-01", "2024-02-01", "2024-03-01", "2024-04-01", "2024-05-01", "2024-06-01"}
	for i, o := range occs {
		assert.Equal(t, want[i], o.Date.String())
	}
	assert.Equal(t, models.StatusOverdue, occs[2].Status)
	assert.Equal(t, models.StatusUpcoming, occs[3].Status)
	assert.Equal(t, "Housing", occs[0].CategoryName)
}

func TestOccurrences_Range(t *testing.T) {
	env := clitest.Setup(t, occurrences.Cmd)
	cat := env.Category(t, "alice")
	env.MonthlyRule(t, "alice", cat, "1200", "2024-01-01")

	// Overdue occurrences before the range are still reported.
	out, err := env.Run("occurrences", "-u", "alice", "-f", "json", "--from", "2024-04-01", "--to", "31.05.2024")
	require.NoError(t, err)
	assert.Len(t, decode(t, out), 5)

	_, err = env.Run("occurrences", "-u", "alice", "--from", "2024-05-01", "--to", "2024-04-01")
	assert.True(t, apperrors.IsValidation(err))

	_, err = env.Run("occurrences", "-u", "alice", "--from", "yesterday")
	assert.True(t, apperrors.IsValidation(err))
}

func TestOccurrences_StatusFilter(t *testing.T) {
	env := clitest.Setup(t, occurrences.Cmd)
	cat := env.Category(t, "alice")
	env.MonthlyRule(t, "alice", cat, "1200", "2024-01-01")

	out, err := env.Run("occurrences", "-u", "alice", "-f", "json", "--status", "overdue")
	require.NoError(t, err)
	occs := decode(t, out)
	require.Len(t, occs, 3)
	for _, o := range occs {
		assert.Equal(t, models.StatusOverdue, o.Status)
	}

	_, err = env.Run("occurrences", "-u", "alice", "--status", "late")
	assert.True(t, apperrors.IsValidation(err))
}

func TestOccurrences_Summary(t *testing.T) {
	env := clitest.Setup(t, occurrences.Cmd)
	cat := env.Category(t, "alice")
	env.MonthlyRule(t, "alice", cat, "1200", "2024-01-01")

	out, err := env.Run("occurrences", "-u", "alice", "-f", "json", "--summary")
	require.NoError(t, err)

	var s report.Summary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	assert.Equal(t, 6, s.Total)
	assert.Equal(t, 3, s.Count(models.StatusOverdue))
	assert.Equal(t, 3, s.Count(models.StatusUpcoming))
	totals := s.Totals(models.StatusOverdue)
	require.Len(t, totals, 1)
	assert.Equal(t, "3600.00 USD", totals[0].String())
}

func TestOccurrences_CSV(t *testing.T) {
	env := clitest.Setup(t, occurrences.Cmd)
	cat := env.Category(t, "alice")
	env.MonthlyRule(t, "alice", cat, "1200", "2024-01-01")

	out, err := env.Run("occurrences", "-u", "alice", "-f", "csv")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 7)
	assert.True(t, strings.HasPrefix(lines[0], "Date,Status,RuleID"))
}
