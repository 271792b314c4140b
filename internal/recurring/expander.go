package recurring

import (
	"fmt"
	"sort"

	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/logging"
	"fjacquet/recurring-ledger/internal/models"
)

// History is the recorded activity of a set of rules, indexed by rule id.
type History struct {
	Transactions map[string][]models.Transaction
	Skips        map[string][]models.SkippedOccurrence
}

// NewHistory groups transactions and skip markers by rule. Transactions
// without a rule reference are dropped. Input order is preserved within each
// rule, which decides the first match.
func NewHistory(txs []models.Transaction, skips []models.SkippedOccurrence) History {
	h := History{
		Transactions: make(map[string][]models.Transaction),
		Skips:        make(map[string][]models.SkippedOccurrence),
	}
	for _, tx := range txs {
		if tx.RecurringRuleID == "" {
			continue
		}
		h.Transactions[tx.RecurringRuleID] = append(h.Transactions[tx.RecurringRuleID], tx)
	}
	for _, s := range skips {
		h.Skips[s.RuleID] = append(h.Skips[s.RuleID], s)
	}
	return h
}

// Expander turns rules into a sorted occurrence timeline.
type Expander struct {
	matcher Matcher
	logger  logging.Logger
}

// NewExpander creates an Expander. A nil logger discards output.
func NewExpander(toleranceDays int, logger logging.Logger) *Expander {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Expander{matcher: NewMatcher(toleranceDays), logger: logger}
}

// Expand generates the occurrences of every active rule up to rangeEnd.
//
// Occurrences before rangeStart minus one day are dropped unless they still
// need attention (OVERDUE, DUE) or were explicitly skipped. The result is
// sorted by date, then rule id, and holds at most one entry per rule and date.
func (e *Expander) Expand(rules []models.RecurringRule, history History, rangeStart, rangeEnd, today dateutils.Date) []models.RecurringOccurrence {
	classifier := Classifier{Matcher: e.matcher, Today: today}
	windowStart := rangeStart.AddDays(-1)

	var out []models.RecurringOccurrence
	seen := make(map[string]struct{})

	for _, rule := range rules {
		if !rule.IsActive {
			continue
		}
		if !rule.Frequency.IsValid() {
			e.logger.Warn("Skipping rule with unknown frequency",
				logging.Field{Key: logging.FieldRuleID, Value: rule.ID},
				logging.Field{Key: logging.FieldFrequency, Value: string(rule.Frequency)})
			continue
		}

		txs := history.Transactions[rule.ID]
		skips := history.Skips[rule.ID]

		e.walk(rule, rangeEnd, func(date dateutils.Date) {
			c := classifier.Classify(date, txs, skips)
			if date.Before(windowStart) && !c.Status.IsPending() && c.Status != models.StatusSkipped {
				return
			}
			key := fmt.Sprintf("%s|%s", rule.ID, date)
			if _, dup := seen[key]; dup {
				return
			}
			seen[key] = struct{}{}
			out = append(out, newOccurrence(rule, date, c))
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if cmp := out[i].Date.Compare(out[j].Date); cmp != 0 {
			return cmp < 0
		}
		return out[i].RuleID < out[j].RuleID
	})
	return out
}

// NextOccurrence returns the first scheduled date of rule on or after from and
// no later than until, ignoring payment state. It returns nil when the rule
// has no such date.
func (e *Expander) NextOccurrence(rule models.RecurringRule, from, until dateutils.Date) *dateutils.Date {
	if !rule.IsActive || !rule.Frequency.IsValid() {
		return nil
	}
	var next *dateutils.Date
	e.walk(rule, until, func(date dateutils.Date) {
		if next == nil && !date.Before(from) {
			d := date
			next = &d
		}
	})
	return next
}

// walk calls visit for each scheduled date of rule from its start date up to
// the earlier of its end date and rangeEnd, honoring the occurrence cap.
func (e *Expander) walk(rule models.RecurringRule, rangeEnd dateutils.Date, visit func(dateutils.Date)) {
	end := rangeEnd
	if rule.EndDate != nil {
		end = dateutils.Min(*rule.EndDate, rangeEnd)
	}

	current := rule.StartDate
	for count := 0; !current.After(end); count++ {
		if rule.MaxOccurrences != nil && count >= *rule.MaxOccurrences {
			return
		}
		visit(current)

		next, ok := Advance(current, rule.Frequency, rule.Interval)
		if !ok {
			if rule.Frequency != models.FrequencyOneTime {
				e.logger.Warn("Stopping expansion, rule cannot be stepped",
					logging.Field{Key: logging.FieldRuleID, Value: rule.ID},
					logging.Field{Key: logging.FieldFrequency, Value: string(rule.Frequency)},
					logging.Field{Key: logging.FieldInterval, Value: rule.Interval})
			}
			return
		}
		current = next
	}
}

func newOccurrence(rule models.RecurringRule, date dateutils.Date, c Classification) models.RecurringOccurrence {
	occ := models.RecurringOccurrence{
		Date:         date,
		Status:       c.Status,
		RuleID:       rule.ID,
		Type:         rule.Type,
		Amount:       rule.Amount,
		Currency:     rule.Currency,
		Spread:       rule.Spread,
		Description:  DefaultOccurrenceDescription(rule),
		MerchantID:   rule.MerchantID,
		MerchantName: rule.MerchantName,
		CategoryName: rule.CategoryName,
	}
	if c.Transaction != nil {
		occ.TransactionID = c.Transaction.ID
	}
	return occ
}

// DefaultOccurrenceDescription is the rule description, or "Recurring <FREQUENCY>"
// when the rule has none.
func DefaultOccurrenceDescription(rule models.RecurringRule) string {
	if rule.Description != "" {
		return rule.Description
	}
	return "Recurring " + string(rule.Frequency)
}
