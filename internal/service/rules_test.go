package service

import (
	"errors"
	"testing"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store/memory"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateRule(t *testing.T) {
	f := newFixture(t, "2024-03-15")

	rule := f.createRule(t, f.fields("2024-01-01"))
	assert.NotEmpty(t, rule.ID)
	assert.Equal(t, user, rule.UserID)
	assert.Equal(t, "USD", rule.Currency)
	assert.True(t, rule.IsActive)
	assert.Equal(t, "Housing", rule.CategoryName)
	assert.True(t, f.logger.HasEntry("INFO", "Created recurring rule"))
}

func TestCreateRule_Rejections(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	bobCategory, err := f.svc.CreateCategory(f.ctx, "bob", "Bob's", models.TypeExpense)
	require.NoError(t, err)
	bobMerchant, err := f.svc.CreateMerchant(f.ctx, "bob", "Bob's shop")
	require.NoError(t, err)

	tests := []struct {
		name   string
		user   string
		mutate func(*models.RuleFields)
		check  func(error) bool
	}{
		{"non-positive amount", user, func(r *models.RuleFields) { r.Amount = decimal.Zero }, apperrors.IsValidation},
		{"zero interval", user, func(r *models.RuleFields) { r.Interval = 0 }, apperrors.IsValidation},
		{"foreign category", user, func(r *models.RuleFields) { r.CategoryID = bobCategory.ID }, apperrors.IsOwnership},
		{"unknown category", user, func(r *models.RuleFields) { r.CategoryID = "nope" }, apperrors.IsOwnership},
		{"foreign merchant", user, func(r *models.RuleFields) { r.MerchantID = bobMerchant.ID }, apperrors.IsOwnership},
		{"missing user", "", func(r *models.RuleFields) {}, apperrors.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields := f.fields("2024-01-01")
			tt.mutate(&fields)
			_, err := f.svc.CreateRule(f.ctx, tt.user, fields)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error type: %v", err)
		})
	}
}

func TestCreateRule_MerchantRequirement(t *testing.T) {
	optional := newFixture(t, "2024-03-15")
	fields := optional.fields("2024-01-01")
	fields.MerchantID = ""
	_, err := optional.svc.CreateRule(optional.ctx, user, fields)
	assert.NoError(t, err)

	required := newFixture(t, "2024-03-15", func(o *Options) { o.RequireMerchant = true })
	fields = required.fields("2024-01-01")
	fields.MerchantID = ""
	_, err = required.svc.CreateRule(required.ctx, user, fields)
	assert.True(t, apperrors.IsValidation(err))
}

func TestApplyUpdate_AllRewritesHistory(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	fields := rule.Fields()
	fields.Amount = decimal.NewFromInt(150)
	res, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, fields, models.UpdateAll)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateAll, res.Mode)
	assert.Equal(t, rule.ID, res.Rule.ID)
	assert.Nil(t, res.Previous)

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, occs)
	for _, o := range occs {
		assert.Equal(t, rule.ID, o.RuleID)
		assert.True(t, o.Amount.Equal(decimal.NewFromInt(150)), "occurrence %s", o.Date)
	}
}

func TestApplyUpdate_AllKeepsActiveFlagWhenOmitted(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	paused := rule.Fields()
	inactive := false
	paused.IsActive = &inactive
	_, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, paused, models.UpdateAll)
	require.NoError(t, err)

	cosmetic := paused
	cosmetic.IsActive = nil
	cosmetic.Description = "Flat rent"
	res, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, cosmetic, models.UpdateAll)
	require.NoError(t, err)
	assert.False(t, res.Rule.IsActive)
	assert.Equal(t, "Flat rent", res.Rule.Description)

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	assert.Empty(t, occs)
}

func TestApplyUpdate_AllKeepsForkedRuleFrozen(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	changed := rule.Fields()
	changed.Amount = decimal.NewFromInt(200)
	forked, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, changed, models.UpdateFuture)
	require.NoError(t, err)

	cosmetic := forked.Previous.Fields()
	cosmetic.IsActive = nil
	cosmetic.EndDate = nil
	cosmetic.Description = "Old rent"
	res, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, cosmetic, models.UpdateAll)
	require.NoError(t, err)
	assert.False(t, res.Rule.IsActive)

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, occs)
	for _, o := range occs {
		assert.Equal(t, forked.Rule.ID, o.RuleID, "occurrence %s", o.Date)
	}
}

func TestApplyUpdate_FutureForks(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	fields := rule.Fields()
	fields.Amount = decimal.NewFromInt(200)
	res, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, fields, models.UpdateFuture)
	require.NoError(t, err)

	assert.Equal(t, models.UpdateFuture, res.Mode)
	require.NotNil(t, res.Previous)
	assert.Equal(t, rule.ID, res.Previous.ID)
	assert.False(t, res.Previous.IsActive)
	require.NotNil(t, res.Previous.EndDate)
	assert.Equal(t, "2024-03-15", res.Previous.EndDate.String())
	assert.True(t, res.Previous.Amount.Equal(decimal.NewFromInt(100)))

	assert.NotEqual(t, rule.ID, res.Rule.ID)
	assert.Equal(t, rule.ID, res.Rule.SupersedesRuleID)
	assert.Equal(t, "2024-03-15", res.Rule.StartDate.String())
	assert.True(t, res.Rule.IsActive)
	assert.True(t, res.Rule.Amount.Equal(decimal.NewFromInt(200)))

	from, to := f.svc.Window()

	// The frozen rule contributes nothing, and even reactivated it stops at its end date.
	old, err := f.svc.Expand(f.ctx, []models.RecurringRule{*res.Previous}, from, to)
	require.NoError(t, err)
	assert.Empty(t, old)
	reactivated := *res.Previous
	reactivated.IsActive = true
	old, err = f.svc.Expand(f.ctx, []models.RecurringRule{reactivated}, from, to)
	require.NoError(t, err)
	require.NotEmpty(t, old)
	for _, o := range old {
		assert.False(t, o.Date.After(*res.Previous.EndDate))
	}

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	require.NotEmpty(t, occs)
	for _, o := range occs {
		assert.Equal(t, res.Rule.ID, o.RuleID)
		assert.False(t, o.Date.Before(f.svc.Today()), "successor occurrence %s predates the update", o.Date)
	}
	assert.Equal(t, models.StatusDue, occs[0].Status)
}

func TestApplyUpdate_FutureKeepsLaterStartDate(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-06-01"))

	fields := rule.Fields()
	fields.Interval = 2
	res, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, fields, models.UpdateFuture)
	require.NoError(t, err)
	assert.Equal(t, "2024-06-01", res.Rule.StartDate.String())
}

func TestApplyUpdate_FutureRejectsEndBeforeFork(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	fields := rule.Fields()
	end := d("2024-02-01")
	fields.EndDate = &end
	_, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, fields, models.UpdateFuture)
	assert.True(t, apperrors.IsValidation(err))

	got, err := f.store.GetRule(f.ctx, user, rule.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestApplyUpdate_FutureIsAtomic(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	boom := errors.New("insert failed")
	f.store.SetFaults(memory.Faults{CreateRule: boom})

	fields := rule.Fields()
	fields.Amount = decimal.NewFromInt(200)
	_, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, fields, models.UpdateFuture)
	require.ErrorIs(t, err, boom)

	rules, err := f.store.ListRules(f.ctx, user)
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].IsActive)
	assert.Nil(t, rules[0].EndDate)
	assert.True(t, f.logger.HasEntry("WARN", "Future-only update rolled back"))
}

func TestApplyUpdate_AutoMode(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))

	cosmetic := rule.Fields()
	cosmetic.Description = "Rent"
	cosmetic.Notes = "paid by transfer"
	res, err := f.svc.ApplyUpdate(f.ctx, user, rule.ID, cosmetic, models.UpdateAuto)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateAll, res.Mode)
	assert.Equal(t, rule.ID, res.Rule.ID)

	sensitive := res.Rule.Fields()
	sensitive.Frequency = models.FrequencyWeekly
	res, err = f.svc.ApplyUpdate(f.ctx, user, rule.ID, sensitive, models.UpdateAuto)
	require.NoError(t, err)
	assert.Equal(t, models.UpdateFuture, res.Mode)
	assert.Equal(t, "Rent", res.Rule.Description)
}

func TestApplyUpdate_Rejections(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))
	bobCategory, err := f.svc.CreateCategory(f.ctx, "bob", "Bob's", models.TypeExpense)
	require.NoError(t, err)

	_, err = f.svc.ApplyUpdate(f.ctx, user, rule.ID, rule.Fields(), models.UpdateMode("SOMETIMES"))
	assert.True(t, apperrors.IsValidation(err))

	_, err = f.svc.ApplyUpdate(f.ctx, "bob", rule.ID, rule.Fields(), models.UpdateAll)
	assert.True(t, apperrors.IsNotFound(err))

	moved := rule.Fields()
	moved.CategoryID = bobCategory.ID
	_, err = f.svc.ApplyUpdate(f.ctx, user, rule.ID, moved, models.UpdateAll)
	assert.True(t, apperrors.IsOwnership(err))
}

func TestIsSensitiveChange(t *testing.T) {
	base := models.RuleFields{
		Frequency: models.FrequencyMonthly,
		Interval:  1,
		Amount:    decimal.RequireFromString("100.00"),
		Currency:  "USD",
		StartDate: d("2024-01-01"),
	}

	tests := []struct {
		name      string
		mutate    func(*models.RuleFields)
		sensitive bool
	}{
		{"unchanged", func(f *models.RuleFields) {}, false},
		{"same amount other scale", func(f *models.RuleFields) { f.Amount = decimal.NewFromInt(100) }, false},
		{"currency case", func(f *models.RuleFields) { f.Currency = "usd" }, false},
		{"description", func(f *models.RuleFields) { f.Description = "Rent" }, false},
		{"category", func(f *models.RuleFields) { f.CategoryID = "other" }, false},
		{"amount", func(f *models.RuleFields) { f.Amount = decimal.NewFromInt(101) }, true},
		{"currency", func(f *models.RuleFields) { f.Currency = "EUR" }, true},
		{"frequency", func(f *models.RuleFields) { f.Frequency = models.FrequencyYearly }, true},
		{"interval", func(f *models.RuleFields) { f.Interval = 3 }, true},
		{"start date", func(f *models.RuleFields) { f.StartDate = d("2024-01-02") }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := base
			tt.mutate(&next)
			assert.Equal(t, tt.sensitive, IsSensitiveChange(base, next))
		})
	}
}

func TestDeleteRule_KeepsTransactions(t *testing.T) {
	f := newFixture(t, "2024-03-15")
	rule := f.createRule(t, f.fields("2024-01-01"))
	f.record(t, rule.ID, "2024-01-01")

	require.NoError(t, f.svc.DeleteRule(f.ctx, user, rule.ID))

	occs, err := f.svc.Occurrences(f.ctx, user)
	require.NoError(t, err)
	assert.Empty(t, occs)
	assert.Len(t, f.store.Transactions(), 1)

	assert.True(t, apperrors.IsNotFound(f.svc.DeleteRule(f.ctx, user, rule.ID)))
}

func TestCatalogValidation(t *testing.T) {
	f := newFixture(t, "2024-03-15")

	_, err := f.svc.CreateCategory(f.ctx, user, "  ", models.TypeExpense)
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.CreateCategory(f.ctx, user, "Gifts", models.TransactionType("GIFT"))
	assert.True(t, apperrors.IsValidation(err))
	_, err = f.svc.CreateMerchant(f.ctx, user, "")
	assert.True(t, apperrors.IsValidation(err))

	c, err := f.svc.CreateCategory(f.ctx, user, "Salary", "")
	require.NoError(t, err)
	assert.Equal(t, models.TypeExpense, c.Type)
}
