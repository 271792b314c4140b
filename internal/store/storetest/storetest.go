// Package storetest holds the behavior every store.Store implementation must
// share. Implementations call Run from their own tests.
package storetest

import (
	"context"
	"errors"
	"testing"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Factory returns a fresh, empty store for one test case.
type Factory func(t *testing.T) store.Store

// Run executes the shared contract against stores built by open.
func Run(t *testing.T, open Factory) {
	t.Run("RuleLifecycle", func(t *testing.T) { testRuleLifecycle(t, open(t)) })
	t.Run("RulesAreScopedToUser", func(t *testing.T) { testRuleOwnership(t, open(t)) })
	t.Run("TransactionsByRule", func(t *testing.T) { testTransactions(t, open(t)) })
	t.Run("SkipUpsertAndDelete", func(t *testing.T) { testSkips(t, open(t)) })
	t.Run("DeleteRuleKeepsTransactions", func(t *testing.T) { testDeleteRule(t, open(t)) })
	t.Run("WithTxRollsBack", func(t *testing.T) { testWithTxRollback(t, open(t)) })
	t.Run("WithTxCommits", func(t *testing.T) { testWithTxCommit(t, open(t)) })
}

// Seed creates a category and a merchant for user and returns them.
func Seed(t *testing.T, s store.Store, userID string) (models.Category, models.Merchant) {
	t.Helper()
	ctx := context.Background()
	cat := models.Category{UserID: userID, Name: "Housing", Type: models.TypeExpense}
	require.NoError(t, s.CreateCategory(ctx, &cat))
	merchant := models.Merchant{UserID: userID, Name: "Landlord"}
	require.NoError(t, s.CreateMerchant(ctx, &merchant))
	return cat, merchant
}

// NewRule returns an active monthly rule for the given owner and category.
func NewRule(userID, categoryID, start string) models.RecurringRule {
	return models.RecurringRule{
		UserID:     userID,
		Frequency:  models.FrequencyMonthly,
		Interval:   1,
		Amount:     decimal.RequireFromString("1200.50"),
		Currency:   "USD",
		Spread:     decimal.RequireFromString("1.5"),
		Type:       models.TypeExpense,
		StartDate:  dateutils.MustParse(start),
		CategoryID: categoryID,
		IsActive:   true,
	}
}

func testRuleLifecycle(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat, merchant := Seed(t, s, "alice")

	rule := NewRule("alice", cat.ID, "2024-01-31")
	rule.MerchantID = merchant.ID
	rule.Description = "Rent"
	limit := 12
	rule.MaxOccurrences = &limit
	require.NoError(t, s.CreateRule(ctx, &rule))
	require.NotEmpty(t, rule.ID)
	assert.Equal(t, "Housing", rule.CategoryName)
	assert.Equal(t, "Landlord", rule.MerchantName)

	got, err := s.GetRule(ctx, "alice", rule.ID)
	require.NoError(t, err)
	assert.Equal(t, rule.StartDate, got.StartDate)
	assert.Nil(t, got.EndDate)
	require.NotNil(t, got.MaxOccurrences)
	assert.Equal(t, 12, *got.MaxOccurrences)
	assert.True(t, got.Amount.Equal(decimal.RequireFromString("1200.50")))
	assert.True(t, got.Spread.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, models.FrequencyMonthly, got.Frequency)
	assert.Equal(t, "Rent", got.Description)
	assert.True(t, got.IsActive)

	got.Amount = decimal.NewFromInt(1300)
	got.MerchantID = ""
	end := dateutils.MustParse("2024-12-31")
	got.EndDate = &end
	require.NoError(t, s.UpdateRule(ctx, got))
	assert.Empty(t, got.MerchantName)

	updated, err := s.GetRule(ctx, "alice", rule.ID)
	require.NoError(t, err)
	assert.True(t, updated.Amount.Equal(decimal.NewFromInt(1300)))
	require.NotNil(t, updated.EndDate)
	assert.Equal(t, end, *updated.EndDate)
	assert.Empty(t, updated.MerchantID)

	require.NoError(t, s.DeactivateRule(ctx, "alice", rule.ID, dateutils.MustParse("2024-06-15")))
	active, err := s.ListActiveRules(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListRules(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)
	assert.Equal(t, "2024-06-15", all[0].EndDate.String())
}

func testRuleOwnership(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat, _ := Seed(t, s, "alice")
	Seed(t, s, "bob")

	later := NewRule("alice", cat.ID, "2024-03-01")
	earlier := NewRule("alice", cat.ID, "2024-01-01")
	require.NoError(t, s.CreateRule(ctx, &later))
	require.NoError(t, s.CreateRule(ctx, &earlier))

	rules, err := s.ListActiveRules(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, earlier.ID, rules[0].ID, "ordered by start date")

	bobs, err := s.ListActiveRules(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, bobs)

	_, err = s.GetRule(ctx, "bob", later.ID)
	assert.True(t, apperrors.IsNotFound(err))
	assert.True(t, apperrors.IsNotFound(s.DeleteRule(ctx, "bob", later.ID)))
	assert.True(t, apperrors.IsNotFound(s.DeactivateRule(ctx, "bob", later.ID, dateutils.MustParse("2024-01-01"))))

	stolen := later
	stolen.UserID = "bob"
	assert.True(t, apperrors.IsNotFound(s.UpdateRule(ctx, &stolen)))

	_, err = s.GetCategory(ctx, "bob", cat.ID)
	assert.True(t, apperrors.IsNotFound(err))
	_, err = s.GetRule(ctx, "alice", "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func testTransactions(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat, _ := Seed(t, s, "alice")
	r1 := NewRule("alice", cat.ID, "2024-01-01")
	r2 := NewRule("alice", cat.ID, "2024-01-01")
	require.NoError(t, s.CreateRule(ctx, &r1))
	require.NoError(t, s.CreateRule(ctx, &r2))

	for _, tx := range []models.Transaction{
		{UserID: "alice", Amount: decimal.NewFromInt(10), Currency: "USD", Date: dateutils.MustParse("2024-02-01"), Type: models.TypeExpense, CategoryID: cat.ID, RecurringRuleID: r1.ID},
		{UserID: "alice", Amount: decimal.NewFromInt(20), Currency: "USD", Date: dateutils.MustParse("2024-01-01"), Type: models.TypeExpense, CategoryID: cat.ID, RecurringRuleID: r2.ID},
		{UserID: "alice", Amount: decimal.NewFromInt(30), Currency: "USD", Date: dateutils.MustParse("2024-01-15"), Type: models.TypeExpense, CategoryID: cat.ID},
	} {
		tx := tx
		require.NoError(t, s.CreateTransaction(ctx, &tx))
		require.NotEmpty(t, tx.ID)
	}

	txs, err := s.ListTransactionsByRuleIDs(ctx, []string{r1.ID, r2.ID})
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, "2024-01-01", txs[0].Date.String())
	assert.Equal(t, r2.ID, txs[0].RecurringRuleID)
	assert.True(t, txs[0].Amount.Equal(decimal.NewFromInt(20)))

	txs, err = s.ListTransactionsByRuleIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func testSkips(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat, _ := Seed(t, s, "alice")
	rule := NewRule("alice", cat.ID, "2024-01-01")
	require.NoError(t, s.CreateRule(ctx, &rule))

	date := dateutils.MustParse("2024-02-01")
	first, err := s.UpsertSkip(ctx, rule.ID, date)
	require.NoError(t, err)
	second, err := s.UpsertSkip(ctx, rule.ID, date)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	skips, err := s.ListSkipsByRuleIDs(ctx, []string{rule.ID})
	require.NoError(t, err)
	require.Len(t, skips, 1)
	assert.Equal(t, date, skips[0].Date)

	require.NoError(t, s.DeleteSkip(ctx, rule.ID, date))
	require.NoError(t, s.DeleteSkip(ctx, rule.ID, date))
	skips, err = s.ListSkipsByRuleIDs(ctx, []string{rule.ID})
	require.NoError(t, err)
	assert.Empty(t, skips)
}

func testDeleteRule(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat, _ := Seed(t, s, "alice")
	rule := NewRule("alice", cat.ID, "2024-01-01")
	require.NoError(t, s.CreateRule(ctx, &rule))

	tx := models.Transaction{UserID: "alice", Amount: decimal.NewFromInt(10), Currency: "USD",
		Date: dateutils.MustParse("2024-01-01"), Type: models.TypeExpense, CategoryID: cat.ID, RecurringRuleID: rule.ID}
	require.NoError(t, s.CreateTransaction(ctx, &tx))
	_, err := s.UpsertSkip(ctx, rule.ID, dateutils.MustParse("2024-02-01"))
	require.NoError(t, err)

	require.NoError(t, s.DeleteRule(ctx, "alice", rule.ID))

	_, err = s.GetRule(ctx, "alice", rule.ID)
	assert.True(t, apperrors.IsNotFound(err))
	txs, err := s.ListTransactionsByRuleIDs(ctx, []string{rule.ID})
	require.NoError(t, err)
	assert.Len(t, txs, 1, "transactions outlive their rule")
	skips, err := s.ListSkipsByRuleIDs(ctx, []string{rule.ID})
	require.NoError(t, err)
	assert.Empty(t, skips)
}

func testWithTxRollback(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat, _ := Seed(t, s, "alice")
	rule := NewRule("alice", cat.ID, "2024-01-01")
	require.NoError(t, s.CreateRule(ctx, &rule))

	boom := errors.New("boom")
	err := s.WithTx(ctx, func(tx store.Store) error {
		if err := tx.DeactivateRule(ctx, "alice", rule.ID, dateutils.MustParse("2024-03-01")); err != nil {
			return err
		}
		fork := NewRule("alice", cat.ID, "2024-03-01")
		if err := tx.CreateRule(ctx, &fork); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	rules, err := s.ListRules(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].IsActive)
	assert.Nil(t, rules[0].EndDate)
}

func testWithTxCommit(t *testing.T, s store.Store) {
	ctx := context.Background()
	cat, _ := Seed(t, s, "alice")

	var created models.RecurringRule
	err := s.WithTx(ctx, func(tx store.Store) error {
		created = NewRule("alice", cat.ID, "2024-01-01")
		return tx.CreateRule(ctx, &created)
	})
	require.NoError(t, err)

	got, err := s.GetRule(ctx, "alice", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Housing", got.CategoryName)
}
