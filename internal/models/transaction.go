package models

import (
	"time"

	"fjacquet/recurring-ledger/internal/dateutils"

	"github.com/shopspring/decimal"
)

// Transaction is a record of money actually moved.
type Transaction struct {
	ID          string          `json:"id" yaml:"id" csv:"ID"`
	UserID      string          `json:"userId" yaml:"user_id" csv:"-"`
	Amount      decimal.Decimal `json:"amount" yaml:"amount" csv:"Amount"`
	Currency    string          `json:"currency" yaml:"currency" csv:"Currency"`
	Date        dateutils.Date  `json:"date" yaml:"date" csv:"Date"`
	Type        TransactionType `json:"type" yaml:"type" csv:"Type"`
	CategoryID  string          `json:"categoryId" yaml:"category_id" csv:"CategoryID"`
	MerchantID  string          `json:"merchantId,omitempty" yaml:"merchant_id,omitempty" csv:"MerchantID"`
	Description string          `json:"description" yaml:"description" csv:"Description"`
	// RecurringRuleID is a non-owning back-reference. It may dangle after
	// the rule is deleted.
	RecurringRuleID string    `json:"recurringRuleId,omitempty" yaml:"recurring_rule_id,omitempty" csv:"RecurringRuleID"`
	CreatedAt       time.Time `json:"createdAt" yaml:"created_at" csv:"-"`
}

// SkippedOccurrence marks a (rule, date) pair as deliberately not materialized.
type SkippedOccurrence struct {
	ID        string         `json:"id" yaml:"id"`
	RuleID    string         `json:"ruleId" yaml:"rule_id"`
	Date      dateutils.Date `json:"date" yaml:"date"`
	CreatedAt time.Time      `json:"createdAt" yaml:"created_at"`
}

// Category groups transactions and rules. Owned by one user.
type Category struct {
	ID     string          `json:"id" yaml:"id"`
	UserID string          `json:"userId" yaml:"user_id"`
	Name   string          `json:"name" yaml:"name"`
	Type   TransactionType `json:"type" yaml:"type"`
}

// Merchant is the counterparty of a transaction. Owned by one user.
type Merchant struct {
	ID     string `json:"id" yaml:"id"`
	UserID string `json:"userId" yaml:"user_id"`
	Name   string `json:"name" yaml:"name"`
}
