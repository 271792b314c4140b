// Package store defines the persistence contracts the service depends on.
// Implementations live in the sqlite and memory subpackages.
package store

import (
	"context"

	"fjacquet/recurring-ledger/internal/dateutils"
	"fjacquet/recurring-ledger/internal/models"
)

// RuleStore persists recurring rules. Reads resolve CategoryName and
// MerchantName. Rules owned by another user are reported as not found.
type RuleStore interface {
	// ListActiveRules returns the user's active rules ordered by start date, then id.
	ListActiveRules(ctx context.Context, userID string) ([]models.RecurringRule, error)
	// ListRules returns all of the user's rules, active or not.
	ListRules(ctx context.Context, userID string) ([]models.RecurringRule, error)
	GetRule(ctx context.Context, userID, ruleID string) (*models.RecurringRule, error)
	// CreateRule assigns ID and timestamps when they are empty.
	CreateRule(ctx context.Context, rule *models.RecurringRule) error
	UpdateRule(ctx context.Context, rule *models.RecurringRule) error
	// DeactivateRule clears the active flag and sets the end date.
	DeactivateRule(ctx context.Context, userID, ruleID string, endDate dateutils.Date) error
	// DeleteRule removes the rule and its skip markers. Transactions that
	// reference it are kept.
	DeleteRule(ctx context.Context, userID, ruleID string) error
}

// TransactionStore persists real transactions.
type TransactionStore interface {
	// ListTransactionsByRuleIDs returns every transaction referencing one of
	// the rules, ordered by date, then id.
	ListTransactionsByRuleIDs(ctx context.Context, ruleIDs []string) ([]models.Transaction, error)
	CreateTransaction(ctx context.Context, tx *models.Transaction) error
}

// SkipStore persists skip markers, unique per rule and date.
type SkipStore interface {
	ListSkipsByRuleIDs(ctx context.Context, ruleIDs []string) ([]models.SkippedOccurrence, error)
	// UpsertSkip returns the existing marker when one is already recorded.
	UpsertSkip(ctx context.Context, ruleID string, date dateutils.Date) (*models.SkippedOccurrence, error)
	// DeleteSkip is a no-op when no marker exists.
	DeleteSkip(ctx context.Context, ruleID string, date dateutils.Date) error
}

// CatalogStore persists the categories and merchants rules point at.
type CatalogStore interface {
	GetCategory(ctx context.Context, userID, id string) (*models.Category, error)
	CreateCategory(ctx context.Context, c *models.Category) error
	GetMerchant(ctx context.Context, userID, id string) (*models.Merchant, error)
	CreateMerchant(ctx context.Context, m *models.Merchant) error
}

// Store groups every contract and adds atomic units of work.
type Store interface {
	RuleStore
	TransactionStore
	SkipStore
	CatalogStore

	// WithTx runs fn against a store whose writes commit together. Any error
	// returned by fn rolls them all back.
	WithTx(ctx context.Context, fn func(Store) error) error
	Close() error
}
