package service

import (
	"context"
	"testing"

	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOccurrencesBetween_MonthlyScenario(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))
	paid := f.record(t, rule.ID, "2024-01-02")

	occs, err := f.svc.OccurrencesBetween(f.ctx, user, d("2023-12-01"), d("2024-04-01"))
	require.NoError(t, err)
	require.Len(t, occs, 4)

	assert.Equal(t, models.StatusPaid, occs[0].Status)
	assert.Equal(t, paid.ID, occs[0].TransactionID)
	assert.Equal(t, models.StatusOverdue, occs[1].Status)
	assert.Equal(t, models.StatusOverdue, occs[2].Status)
	assert.Equal(t, models.StatusUpcoming, occs[3].Status)
	assert.Equal(t, "2024-04-01", occs[3].Date.String())

	assert.Equal(t, "Housing", occs[0].CategoryName)
	assert.Equal(t, "Landlord", occs[0].MerchantName)
	assert.Equal(t, "Recurring MONTHLY", occs[0].Description)
	assert.Equal(t, "USD", occs[0].Currency)
}

func TestOccurrences_DefaultWindowSurfacesOldOverdue(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	f.createRule(t, f.fields("2022-01-01"))

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)

	require.Len(t, occs, 30)
	assert.Equal(t, "2022-01-01", occs[0].Date.String(), "overdue items older than the look-back are kept")
	assert.Equal(t, models.StatusOverdue, occs[0].Status)
	assert.Equal(t, "2024-06-01", occs[len(occs)-1].Date.String())
	assert.Equal(t, models.StatusUpcoming, occs[len(occs)-1].Status)
}

func TestOccurrences_InvalidRange(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	_, err := f.svc.OccurrencesBetween(f.ctx, user, d("2024-05-01"), d("2024-04-01"))
	assert.Error(t, err)
}

func TestOccurrences_EmptyForUnknownUser(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	f.createRule(t, f.fields("2024-01-01"))

	occs, err := f.svc.Occurrences(f.ctx, "bob")
	require.NoError(t, err)
	assert.NotNil(t, occs)
	assert.Empty(t, occs)
}

type countingStore struct {
	*memory.Store
	txCalls, skipCalls int
}

func (c *countingStore) ListTransactionsByRuleIDs(ctx context.Context, ids []string) ([]models.Transaction, error) {
	c.txCalls++
	return c.Store.ListTransactionsByRuleIDs(ctx, ids)
}

func (c *countingStore) ListSkipsByRuleIDs(ctx context.Context, ids []string) ([]models.SkippedOccurrence, error) {
	c.skipCalls++
	return c.Store.ListSkipsByRuleIDs(ctx, ids)
}

func TestExpand_FetchesHistoryOnce(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	for _, start := range []string{"2024-01-01", "2024-01-10", "2024-02-01"} {
		f.createRule(t, f.fields(start))
	}

	counting := &countingStore{Store: f.store}
	svc := New(counting, f.clock, f.logger, DefaultOptions())

	occs, err := svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	assert.NotEmpty(t, occs)
	assert.Equal(t, 1, counting.txCalls)
	assert.Equal(t, 1, counting.skipCalls)
}

func TestExpand_StoreFailureFailsWholeRequest(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	f.createRule(t, f.fields("2024-01-01"))
	f.store.SetFaults(memory.Faults{ListSkips: assert.AnError})

	occs, err := f.svc.Occurrences(f.ctx, user)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Nil(t, occs)
}

func TestListRules_NextOccurrenceAndOrder(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	old := f.createRule(t, f.fields("2023-01-01"))
	current := f.createRule(t, f.fields("2024-01-20"))
	require.NoError(t, f.svc.DeleteRule(f.ctx, user, old.ID))

	inactiveFields := f.fields("2023-06-01")
	inactive := false
	inactiveFields.IsActive = &inactive
	paused := f.createRule(t, inactiveFields)

	views, err := f.svc.ListRules(f.ctx, user)
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, current.ID, views[0].ID)
	require.NotNil(t, views[0].NextOccurrence)
	assert.Equal(t, "2024-03-20", views[0].NextOccurrence.String())

	assert.Equal(t, paused.ID, views[1].ID)
	assert.Nil(t, views[1].NextOccurrence)
}
