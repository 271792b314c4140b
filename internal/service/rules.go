package service

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/store"
	"fjacquet/recurring-ledger/internal/validation"
)

// UpdateResult describes what an update did.
type UpdateResult struct {
	// Mode is the mode actually applied; AUTO resolves to ALL or FUTURE.
	Mode models.UpdateMode `json:"mode"`
	// Rule is the rule now carrying the new fields. For FUTURE it is the
	// newly forked rule.
	Rule models.RecurringRule `json:"rule"`
	// Previous is the frozen original rule, set only for FUTURE.
	Previous *models.RecurringRule `json:"previous,omitempty"`
}

// IsSensitiveChange reports whether next changes the shape of the occurrence
// timeline of prev: amount, currency, frequency, interval or start date.
func IsSensitiveChange(prev, next models.RuleFields) bool {
	return !prev.Amount.Equal(next.Amount) ||
		!strings.EqualFold(prev.Currency, next.Currency) ||
		prev.Frequency != next.Frequency ||
		prev.Interval != next.Interval ||
		!prev.StartDate.Equal(next.StartDate)
}

// CreateRule validates fields and persists a new rule for userID.
func (s *Service) CreateRule(ctx context.Context, userID string, fields models.RuleFields) (*models.RecurringRule, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if err := validation.ValidateRuleFields(&fields, s.validationOptions()); err != nil {
		return nil, err
	}
	if err := checkCategory(ctx, s.store, userID, fields.CategoryID); err != nil {
		return nil, err
	}
	if err := checkMerchant(ctx, s.store, userID, fields.MerchantID); err != nil {
		return nil, err
	}

	rule := models.RecurringRule{UserID: userID}
	fields.ApplyTo(&rule)
	if err := s.store.CreateRule(ctx, &rule); err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}

	s.logger.Info("Created recurring rule",
		logging.Field{Key: logging.FieldRuleID, Value: rule.ID},
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldFrequency, Value: string(rule.Frequency)})
	return &rule, nil
}

// ApplyUpdate replaces the editable fields of a rule.
//
// UpdateAll rewrites the rule in place and keeps its active flag when
// fields.IsActive is nil. UpdateFuture deactivates the rule with today as its
// end date and creates a new rule from the fields; both writes commit together.
// The new rule starts at the later of today and fields.StartDate, so a start
// date already in the future is kept instead of being reset to today.
// UpdateAuto picks UpdateFuture for sensitive changes.
func (s *Service) ApplyUpdate(ctx context.Context, userID, ruleID string, fields models.RuleFields, mode models.UpdateMode) (*UpdateResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	parsed, ok := models.ParseUpdateMode(string(mode))
	if !ok {
		return nil, &apperrors.ValidationError{Field: "updateMode", Value: string(mode), Reason: "must be ALL, FUTURE or AUTO"}
	}
	mode = parsed
	if err := validation.ValidateRuleFields(&fields, s.validationOptions()); err != nil {
		return nil, err
	}

	existing, err := s.store.GetRule(ctx, userID, ruleID)
	if err != nil {
		return nil, err
	}
	if fields.CategoryID != existing.CategoryID {
		if err := checkCategory(ctx, s.store, userID, fields.CategoryID); err != nil {
			return nil, err
		}
	}
	if fields.MerchantID != existing.MerchantID {
		if err := checkMerchant(ctx, s.store, userID, fields.MerchantID); err != nil {
			return nil, err
		}
	}

	if mode == models.UpdateAuto {
		mode = models.UpdateAll
		if IsSensitiveChange(existing.Fields(), fields) {
			mode = models.UpdateFuture
		}
	}

	log := s.logger.WithFields(
		logging.Field{Key: logging.FieldRuleID, Value: ruleID},
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldMode, Value: string(mode)})

	if mode == models.UpdateAll {
		if fields.IsActive == nil {
			active := existing.IsActive
			fields.IsActive = &active
		}
		updated := *existing
		fields.ApplyTo(&updated)
		if err := s.store.UpdateRule(ctx, &updated); err != nil {
			return nil, fmt.Errorf("updating rule: %w", err)
		}
		log.Info("Updated recurring rule in place")
		return &UpdateResult{Mode: mode, Rule: updated}, nil
	}

	result, err := s.fork(ctx, existing, fields)
	if err != nil {
		log.WithError(err).Warn("Future-only update rolled back")
		return nil, err
	}
	log.Info("Forked recurring rule", logging.Field{Key: logging.FieldNewRuleID, Value: result.Rule.ID})
	return result, nil
}

// fork freezes existing at today and starts a successor carrying fields.
func (s *Service) fork(ctx context.Context, existing *models.RecurringRule, fields models.RuleFields) (*UpdateResult, error) {
	today := s.Today()

	successor := models.RecurringRule{UserID: existing.UserID, SupersedesRuleID: existing.ID}
	fields.ApplyTo(&successor)
	if successor.StartDate.Before(today) {
		successor.StartDate = today
	}
	successor.IsActive = true
	if successor.EndDate != nil && successor.EndDate.Before(successor.StartDate) {
		return nil, &apperrors.ValidationError{
			Field:  "endDate",
			Value:  successor.EndDate.String(),
			Reason: "must not be before the update date " + successor.StartDate.String(),
		}
	}

	var previous *models.RecurringRule
	err := s.store.WithTx(ctx, func(tx store.Store) error {
		if err := tx.DeactivateRule(ctx, existing.UserID, existing.ID, today); err != nil {
			return fmt.Errorf("deactivating rule: %w", err)
		}
		if err := tx.CreateRule(ctx, &successor); err != nil {
			return fmt.Errorf("creating successor rule: %w", err)
		}
		frozen, err := tx.GetRule(ctx, existing.UserID, existing.ID)
		if err != nil {
			return err
		}
		previous = frozen
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &UpdateResult{Mode: models.UpdateFuture, Rule: successor, Previous: previous}, nil
}

// DeleteRule removes a rule. Its transactions are kept.
func (s *Service) DeleteRule(ctx context.Context, userID, ruleID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if err := s.store.DeleteRule(ctx, userID, ruleID); err != nil {
		return err
	}
	s.logger.Info("Deleted recurring rule",
		logging.Field{Key: logging.FieldRuleID, Value: ruleID},
		logging.Field{Key: logging.FieldUserID, Value: userID})
	return nil
}

// CreateCategory adds a category owned by userID.
func (s *Service) CreateCategory(ctx context.Context, userID, name string, txType models.TransactionType) (*models.Category, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Reason: "is required"}
	}
	if txType == "" {
		txType = models.TypeExpense
	}
	if !txType.IsValid() {
		return nil, &apperrors.ValidationError{Field: "type", Value: string(txType), Reason: "must be EXPENSE or INCOME"}
	}

	c := models.Category{UserID: userID, Name: name, Type: txType}
	if err := s.store.CreateCategory(ctx, &c); err != nil {
		return nil, fmt.Errorf("creating category: %w", err)
	}
	s.logger.Info("Created category",
		logging.Field{Key: logging.FieldCategoryID, Value: c.ID},
		logging.Field{Key: logging.FieldUserID, Value: userID})
	return &c, nil
}

// CreateMerchant adds a merchant owned by userID.
func (s *Service) CreateMerchant(ctx context.Context, userID, name string) (*models.Merchant, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &apperrors.ValidationError{Field: "name", Reason: "is required"}
	}

	m := models.Merchant{UserID: userID, Name: name}
	if err := s.store.CreateMerchant(ctx, &m); err != nil {
		return nil, fmt.Errorf("creating merchant: %w", err)
	}
	s.logger.Info("Created merchant",
		logging.Field{Key: logging.FieldMerchantID, Value: m.ID},
		logging.Field{Key: logging.FieldUserID, Value: userID})
	return &m, nil
}

func invalidRange(from, to dateutils.Date) error {
	return &apperrors.ValidationError{Field: "range", Value: from.String() + ".." + to.String(), Reason: "end is before start"}
}
