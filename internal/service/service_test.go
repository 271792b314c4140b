package service

import (
	"context"
	"testing"

	"fjacquet/recurring-ledger/internal/clock"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

const user = "alice"

type fixture struct {
	ctx      context.Context
	svc      *Service
	store    *memory.Store
	clock    *clock.Fixed
	logger   *logging.MockLogger
	category models.Category
	merchant models.Merchant
}

func newFixture(t *testing.T, today string, opts ...func(*Options)) *fixture {
	t.Helper()
	options := DefaultOptions()
	for _, o := range opts {
		o(&options)
	}

	f := &fixture{
		ctx:    context.Background(),
		store:  memory.NewStore(),
		clock:  clock.NewFixedDate(today),
		logger: logging.NewMockLogger(),
	}
	f.svc = New(f.store, f.clock, f.logger, options)

	cat, err := f.svc.CreateCategory(f.ctx, user, "Housing", models.TypeExpense)
	require.NoError(t, err)
	f.category = *cat
	m, err := f.svc.CreateMerchant(f.ctx, user, "Landlord")
	require.NoError(t, err)
	f.merchant = *m
	return f
}

func d(s string) dateutils.Date { return dateutils.MustParse(s) }

func (f *fixture) fields(start string) models.RuleFields {
	return models.RuleFields{
		Frequency:  models.FrequencyMonthly,
		Interval:   1,
		Amount:     decimal.NewFromInt(100),
		Currency:   "usd",
		Type:       models.TypeExpense,
		StartDate:  d(start),
		CategoryID: f.category.ID,
		MerchantID: f.merchant.ID,
	}
}

func (f *fixture) createRule(t *testing.T, fields models.RuleFields) models.RecurringRule {
	t.Helper()
	rule, err := f.svc.CreateRule(f.ctx, user, fields)
	require.NoError(t, err)
	return *rule
}

func (f *fixture) record(t *testing.T, ruleID, date string) models.Transaction {
	t.Helper()
	tx := models.Transaction{
		UserID:          user,
		Amount:          decimal.NewFromInt(100),
		Currency:        "USD",
		Date:            d(date),
		Type:            models.TypeExpense,
		CategoryID:      f.category.ID,
		RecurringRuleID: ruleID,
	}
	require.NoError(t, f.store.CreateTransaction(f.ctx, &tx))
	return tx
}

// statuses maps "ruleID date" to status, failing on duplicates.
func statuses(t *testing.T, occs []models.RecurringOccurrence) map[string]models.OccurrenceStatus {
	t.Helper()
	out := make(map[string]models.OccurrenceStatus, len(occs))
	for _, o := range occs {
		key := o.RuleID + " " + o.Date.String()
		_, dup := out[key]
		require.False(t, dup, "duplicate occurrence %s", key)
		out[key] = o.Status
	}
	return out
}
