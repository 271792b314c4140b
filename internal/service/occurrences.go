package service

import (
	"context"
	"fmt"
	"time"

	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
	"fjacquet/recurring-ledger/internal/recurring"
	"fjacquet/recurring-ledger/internal/store"
)

// RuleView is a rule together with its next scheduled date.
type RuleView struct {
	models.RecurringRule `yaml:",inline"`
	NextOccurrence       *dateutils.Date `json:"nextOccurrence" yaml:"next_occurrence,omitempty"`
}

// Expand derives the occurrences of rules between rangeStart and rangeEnd.
// Transactions and skip markers of all rules are fetched in one call each.
func (s *Service) Expand(ctx context.Context, rules []models.RecurringRule, rangeStart, rangeEnd dateutils.Date) ([]models.RecurringOccurrence, error) {
	return s.expand(ctx, s.store, rules, rangeStart, rangeEnd, s.Today())
}

func (s *Service) expand(ctx context.Context, st store.Store, rules []models.RecurringRule, rangeStart, rangeEnd, today dateutils.Date) ([]models.RecurringOccurrence, error) {
	if len(rules) == 0 {
		return []models.RecurringOccurrence{}, nil
	}
	started := time.Now()

	ids := make([]string, len(rules))
	for i, r := range rules {
		ids[i] = r.ID
	}
	txs, err := st.ListTransactionsByRuleIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading transactions: %w", err)
	}
	skips, err := st.ListSkipsByRuleIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("loading skips: %w", err)
	}

	occs := s.expander.Expand(rules, recurring.NewHistory(txs, skips), rangeStart, rangeEnd, today)
	if occs == nil {
		occs = []models.RecurringOccurrence{}
	}

	s.logger.Debug("Expanded recurring rules",
		logging.Field{Key: logging.FieldCount, Value: len(occs)},
		logging.Field{Key: logging.FieldRangeStart, Value: rangeStart.String()},
		logging.Field{Key: logging.FieldRangeEnd, Value: rangeEnd.String()},
		logging.Field{Key: logging.FieldDuration, Value: time.Since(started).Milliseconds()})
	return occs, nil
}

// Occurrences returns the user's occurrences over the default window.
func (s *Service) Occurrences(ctx context.Context, userID string) ([]models.RecurringOccurrence, error) {
	from, to := s.Window()
	return s.OccurrencesBetween(ctx, userID, from, to)
}

// OccurrencesBetween returns the user's occurrences between from and to.
func (s *Service) OccurrencesBetween(ctx context.Context, userID string, from, to dateutils.Date) ([]models.RecurringOccurrence, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	if to.Before(from) {
		return nil, invalidRange(from, to)
	}
	rules, err := s.store.ListActiveRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}
	occs, err := s.Expand(ctx, rules, from, to)
	if err != nil {
		return nil, err
	}

	models.NewOccurrenceStats(occs).LogSummary(s.logger, userID)
	return occs, nil
}

// ListRules returns every rule of the user, active first, with the next
// scheduled date inside the look-ahead window.
func (s *Service) ListRules(ctx context.Context, userID string) ([]RuleView, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	rules, err := s.store.ListRules(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("loading rules: %w", err)
	}

	today := s.Today()
	_, until := s.Window()
	views := make([]RuleView, 0, len(rules))
	for _, active := range []bool{true, false} {
		for _, r := range rules {
			if r.IsActive != active {
				continue
			}
			views = append(views, RuleView{RecurringRule: r, NextOccurrence: s.expander.NextOccurrence(r, today, until)})
		}
	}
	return views, nil
}
