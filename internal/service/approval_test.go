package service

import (
	"testing"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprove_Defaults(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	tx, err := f.svc.Approve(f.ctx, user, ApproveRequest{RuleID: rule.ID, Date: d("2024-02-01")})
	require.NoError(t, err)

	assert.NotEmpty(t, tx.ID)
	assert.Equal(t, user, tx.UserID)
	assert.Equal(t, "2024-02-01", tx.Date.String())
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(100)))
	assert.Equal(t, "USD", tx.Currency)
	assert.Equal(t, models.TypeExpense, tx.Type)
	assert.Equal(t, f.category.ID, tx.CategoryID)
	assert.Equal(t, f.merchant.ID, tx.MerchantID)
	assert.Equal(t, "Recurring: MONTHLY", tx.Description)
	assert.Equal(t, rule.ID, tx.RecurringRuleID)

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	got := statuses(t, occs)
	assert.Equal(t, models.StatusPaid, got[rule.ID+" 2024-02-01"])
	assert.Equal(t, models.StatusOverdue, got[rule.ID+" 2024-01-01"])
}

func TestApprove_Overrides(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	fields := f.fields("2024-01-01")
	fields.Description = "Rent"
	rule := f.createRule(t, fields)

	amount := decimal.RequireFromString("98.40")
	note := "Rent, partial refund"
	tx, err := f.svc.Approve(f.ctx, user, ApproveRequest{RuleID: rule.ID, Date: d("2024-03-01"), Amount: &amount, Description: &note})
	require.NoError(t, err)
	assert.True(t, tx.Amount.Equal(amount))
	assert.Equal(t, note, tx.Description)

	blank := "   "
	tx, err = f.svc.Approve(f.ctx, user, ApproveRequest{RuleID: rule.ID, Date: d("2024-02-01"), Description: &blank})
	require.NoError(t, err)
	assert.Equal(t, "Rent", tx.Description)
}

func TestApprove_Rejections(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))
	negative := decimal.NewFromInt(-5)

	_, err := f.svc.Approve(f.ctx, user, ApproveRequest{RuleID: rule.ID, Date: d("2024-01-01"), Amount: &negative})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Approve(f.ctx, user, ApproveRequest{RuleID: rule.ID})
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.Approve(f.ctx, "bob", ApproveRequest{RuleID: rule.ID, Date: d("2024-01-01")})
	assert.True(t, apperrors.IsNotFound(err))

	assert.Empty(t, f.store.Transactions())
}

func TestApprove_DuplicatesAllowedByDefault(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	req := ApproveRequest{RuleID: rule.ID, Date: d("2024-01-01")}
	_, err := f.svc.Approve(f.ctx, user, req)
	require.NoError(t, err)
	_, err = f.svc.Approve(f.ctx, user, req)
	require.NoError(t, err)
	assert.Len(t, f.store.Transactions(), 2)
}

func TestApprove_RejectDuplicates(t *testing.T) {
	f := newFixture(t, "2024-03-15", func(o *Options) { o.RejectDuplicateApproval = true })
	rule := f.createRule(t, f.fields("2024-01-01"))
	existing := f.record(t, rule.ID, "2024-01-02")

	_, err := f.svc.Approve(f.ctx, user, ApproveRequest{RuleID: rule.ID, Date: d("2024-01-01")})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
	var conflict *apperrors.ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, existing.ID, conflict.TransactionID)

	_, err = f.svc.Approve(f.ctx, user, ApproveRequest{RuleID: rule.ID, Date: d("2024-02-01")})
	assert.NoError(t, err)
}

func TestApproveAll(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))
	require.NoError(t, f.svc.Discard(f.ctx, user, rule.ID, d("2024-02-01"), ""))

	created, err := f.svc.ApproveAll(f.ctx, user)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "2024-01-01", created[0].Date.String())
	assert.Equal(t, "2024-03-01", created[1].Date.String())

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	for _, o := range occs {
		assert.False(t, o.Status.IsPending(), "%s still %s", o.Date, o.Status)
	}

	again, err := f.svc.ApproveAll(f.ctx, user)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.Len(t, f.store.Transactions(), 2)
}

func TestDiscard_SkipIsIdempotent(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	for i := 0; i < 2; i++ {
		require.NoError(t, f.svc.Discard(f.ctx, user, rule.ID, d("2024-02-01"), ""))
	}

	skips, err := f.store.ListSkipsByRuleIDs(f.ctx, []string{rule.ID})
	require.NoError(t, err)
	assert.Len(t, skips, 1)

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	got := statuses(t, occs)
	assert.Equal(t, models.StatusSkipped, got[rule.ID+" 2024-02-01"])
	assert.Empty(t, f.store.Transactions())
}

func TestDiscard_ZeroTransactionIsIdempotent(t *testing.T) {
	f := newFixture(t, "2024-03-15", func(o *Options) { o.DiscardMode = DiscardZeroTransaction })
	rule := f.createRule(t, f.fields("2024-01-01"))

	for i := 0; i < 2; i++ {
		require.NoError(t, f.svc.Discard(f.ctx, user, rule.ID, d("2024-02-01"), ""))
	}

	txs := f.store.Transactions()
	require.Len(t, txs, 1)
	assert.True(t, txs[0].Amount.IsZero())
	assert.Equal(t, "SKIPPED: Recurring MONTHLY", txs[0].Description)
	assert.Equal(t, rule.ID, txs[0].RecurringRuleID)

	skips, err := f.store.ListSkipsByRuleIDs(f.ctx, []string{rule.ID})
	require.NoError(t, err)
	assert.Empty(t, skips)

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPaid, statuses(t, occs)[rule.ID+" 2024-02-01"])
}

func TestDiscard_Rejections(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	assert.True(t, apperrors.IsValidation(f.svc.Discard(f.ctx, user, rule.ID, dateutils.Date{}, "")))
	assert.True(t, apperrors.IsNotFound(f.svc.Discard(f.ctx, "bob", rule.ID, d("2024-02-01"), "")))
	assert.True(t, apperrors.IsNotFound(f.svc.Discard(f.ctx, user, "missing", d("2024-02-01"), "")))
}

func TestUnskip(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))
	require.NoError(t, f.svc.Discard(f.ctx, user, rule.ID, d("2024-02-01"), ""))

	require.NoError(t, f.svc.Unskip(f.ctx, user, rule.ID, d("2024-02-01")))
	require.NoError(t, f.svc.Unskip(f.ctx, user, rule.ID, d("2024-02-01")))

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	assert.Equal(t, models.StatusOverdue, statuses(t, occs)[rule.ID+" 2024-02-01"])

	assert.True(t, apperrors.IsNotFound(f.svc.Unskip(f.ctx, "bob", rule.ID, d("2024-02-01"))))
}
