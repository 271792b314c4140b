package service

import (
	"context"
	"fmt"
	"strings"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/recurring"
	"fjacquet/recurring-ledger/internal/store"
	"fjacquet/recurring-ledger/internal/validation"

	"github.com/shopspring/decimal"
)

// SkippedPrefix starts the description of zero-amount discard transactions.
const SkippedPrefix = "SKIPPED: "

// ApproveRequest identifies the occurrence to materialize. Nil overrides
// fall back to the rule's values.
type ApproveRequest struct {
	RuleID      string
	Date        dateutils.Date
	Amount      *decimal.Decimal
	Description *string
}

// ApprovedDescription is the description given to a materialized occurrence
// when the caller supplies none.
func ApprovedDescription(rule models.RecurringRule) string {
	if rule.Description != "" {
		return rule.Description
	}
	return "Recurring: " + string(rule.Frequency)
}

// Approve turns one occurrence into a real transaction linked to its rule.
func (s *Service) Approve(ctx context.Context, userID string, req ApproveRequest) (*models.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if req.Date.IsZero() {
		return nil, &apperrors.ValidationError{Field: "date", Reason: "is required"}
	}
	if req.Amount != nil {
		if err := validation.ValidateAmount(*req.Amount); err != nil {
			return nil, err
		}
	}

	rule, err := s.store.GetRule(ctx, userID, req.RuleID)
	if err != nil {
		return nil, err
	}
	tx, err := s.approve(ctx, s.store, *rule, req, s.opts.RejectDuplicateApproval)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approved recurring occurrence",
		logging.Field{Key: logging.FieldRuleID, Value: rule.ID},
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldDate, Value: req.Date.String()},
		logging.Field{Key: logging.FieldTransactionID, Value: tx.ID})
	return tx, nil
}

func (s *Service) approve(ctx context.Context, st store.Store, rule models.RecurringRule, req ApproveRequest, rejectDuplicate bool) (*models.Transaction, error) {
	if rejectDuplicate {
		txs, err := st.ListTransactionsByRuleIDs(ctx, []string{rule.ID})
		if err != nil {
			return nil, fmt.Errorf("loading transactions: %w", err)
		}
		if match := recurring.NewMatcher(s.opts.ToleranceDays).FindMatch(req.Date, txs); match != nil {
			return nil, &apperrors.ConflictError{RuleID: rule.ID, Date: req.Date.String(), TransactionID: match.ID}
		}
	}

	tx := models.Transaction{
		UserID:          rule.UserID,
		Amount:          rule.Amount,
		Currency:        rule.Currency,
		Date:            req.Date,
		Type:            rule.Type,
		CategoryID:      rule.CategoryID,
		MerchantID:      rule.MerchantID,
		Description:     ApprovedDescription(rule),
		RecurringRuleID: rule.ID,
	}
	if req.Amount != nil {
		tx.Amount = *req.Amount
	}
	if req.Description != nil && strings.TrimSpace(*req.Description) != "" {
		tx.Description = *req.Description
	}

	if err := st.CreateTransaction(ctx, &tx); err != nil {
		return nil, fmt.Errorf("creating transaction: %w", err)
	}
	return &tx, nil
}

// ApproveAll materializes every OVERDUE and DUE occurrence of the default
// window in date order. Either all of them are recorded or none.
func (s *Service) ApproveAll(ctx context.Context, userID string) ([]models.Transaction, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	from, to := s.Window()
	today := s.Today()

	created := []models.Transaction{}
	err := s.store.WithTx(ctx, func(st store.Store) error {
		rules, err := st.ListActiveRules(ctx, userID)
		if err != nil {
			return fmt.Errorf("loading rules: %w", err)
		}
		byID := make(map[string]models.RecurringRule, len(rules))
		for _, r := range rules {
			byID[r.ID] = r
		}

		occs, err := s.expand(ctx, st, rules, from, to, today)
		if err != nil {
			return err
		}
		for _, occ := range occs {
			if !occ.Status.IsPending() {
				continue
			}
			// Pending occurrences have no matching transaction by definition.
			tx, err := s.approve(ctx, st, byID[occ.RuleID], ApproveRequest{RuleID: occ.RuleID, Date: occ.Date}, false)
			if err != nil {
				return err
			}
			created = append(created, *tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Approved pending occurrences",
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldCount, Value: len(created)})
	return created, nil
}

// Discard records that an occurrence will not happen. In skip mode a marker
// is upserted, so repeating the call changes nothing. In zero_transaction mode
// a zero-amount transaction described "SKIPPED: <description>" is recorded
// unless one already exists on that date.
func (s *Service) Discard(ctx context.Context, userID, ruleID string, date dateutils.Date, description string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if date.IsZero() {
		return &apperrors.ValidationError{Field: "date", Reason: "is required"}
	}
	rule, err := s.store.GetRule(ctx, userID, ruleID)
	if err != nil {
		return err
	}

	log := s.logger.WithFields(
		logging.Field{Key: logging.FieldRuleID, Value: ruleID},
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldDate, Value: date.String()})

	if s.opts.DiscardMode == DiscardZeroTransaction {
		created, err := s.discardWithTransaction(ctx, *rule, date, description)
		if err != nil {
			return err
		}
		if created {
			log.Info("Discarded occurrence with zero transaction")
		}
		return nil
	}

	if _, err := s.store.UpsertSkip(ctx, ruleID, date); err != nil {
		return fmt.Errorf("recording skip: %w", err)
	}
	log.Info("Skipped occurrence")
	return nil
}

func (s *Service) discardWithTransaction(ctx context.Context, rule models.RecurringRule, date dateutils.Date, description string) (bool, error) {
	txs, err := s.store.ListTransactionsByRuleIDs(ctx, []string{rule.ID})
	if err != nil {
		return false, fmt.Errorf("loading transactions: %w", err)
	}
	for _, tx := range txs {
		if tx.Date.Equal(date) && tx.Amount.IsZero() && strings.HasPrefix(tx.Description, SkippedPrefix) {
			return false, nil
		}
	}

	if strings.TrimSpace(description) == "" {
		description = recurring.DefaultOccurrenceDescription(rule)
	}
	tx := models.Transaction{
		UserID:          rule.UserID,
		Amount:          decimal.Zero,
		Currency:        rule.Currency,
		Date:            date,
		Type:            rule.Type,
		CategoryID:      rule.CategoryID,
		MerchantID:      rule.MerchantID,
		Description:     SkippedPrefix + description,
		RecurringRuleID: rule.ID,
	}
	if err := s.store.CreateTransaction(ctx, &tx); err != nil {
		return false, fmt.Errorf("creating transaction: %w", err)
	}
	return true, nil
}

// Unskip removes the skip marker of an occurrence, if any.
func (s *Service) Unskip(ctx context.Context, userID, ruleID string, date dateutils.Date) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.store.GetRule(ctx, userID, ruleID); err != nil {
		return err
	}
	if err := s.store.DeleteSkip(ctx, ruleID, date); err != nil {
		return fmt.Errorf("removing skip: %w", err)
	}
	s.logger.Info("Unskipped occurrence",
		logging.Field{Key: logging.FieldRuleID, Value: ruleID},
		logging.Field{Key: logging.FieldUserID, Value: userID},
		logging.Field{Key: logging.FieldDate, Value: date.String()})
	return nil
}
