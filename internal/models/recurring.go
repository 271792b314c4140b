// Package models provides the data structures used throughout the application.
package models

import (
	"strings"
	"time"

	"fjacquet/recurring-ledger/internal/dateutils"

	"github.com/shopspring/decimal"
)

// Frequency is the unit a recurring rule steps by.
type Frequency string

// Supported frequencies. OneTime rules produce exactly one occurrence.
const (
	FrequencyDaily   Frequency = "DAILY"
	FrequencyWeekly  Frequency = "WEEKLY"
	FrequencyMonthly Frequency = "MONTHLY"
	FrequencyYearly  Frequency = "YEARLY"
	FrequencyOneTime Frequency = "ONE_TIME"
)

// IsValid reports whether f is one of the supported frequencies.
func (f Frequency) IsValid() bool {
	switch f {
	case FrequencyDaily, FrequencyWeekly, FrequencyMonthly, FrequencyYearly, FrequencyOneTime:
		return true
	}
	return false
}

// TransactionType distinguishes money going out from money coming in.
type TransactionType string

// Transaction types
const (
	TypeExpense TransactionType = "EXPENSE"
	TypeIncome  TransactionType = "INCOME"
)

// IsValid reports whether t is a known transaction type.
func (t TransactionType) IsValid() bool {
	return t == TypeExpense || t == TypeIncome
}

// RecurringRule is a template for a repeating cash-flow event.
type RecurringRule struct {
	ID        string          `json:"id" yaml:"id"`
	UserID    string          `json:"userId" yaml:"user_id"`
	Frequency Frequency       `json:"frequency" yaml:"frequency"`
	Interval  int             `json:"interval" yaml:"interval"`
	Amount    decimal.Decimal `json:"amount" yaml:"amount"`
	Currency  string          `json:"currency" yaml:"currency"`
	// Spread is a conversion margin in percent, carried through untouched.
	Spread    decimal.Decimal `json:"spread" yaml:"spread"`
	Type      TransactionType `json:"type" yaml:"type"`
	StartDate dateutils.Date  `json:"startDate" yaml:"start_date"`
	EndDate   *dateutils.Date `json:"endDate" yaml:"end_date,omitempty"`
	// MaxOccurrences caps the number of dates generated from StartDate.
	MaxOccurrences *int `json:"occurrences,omitempty" yaml:"occurrences,omitempty"`

	CategoryID  string `json:"categoryId" yaml:"category_id"`
	MerchantID  string `json:"merchantId,omitempty" yaml:"merchant_id,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Notes       string `json:"notes,omitempty" yaml:"notes,omitempty"`
	IsActive    bool   `json:"isActive" yaml:"is_active"`

	// SupersedesRuleID points at the rule this one was forked from by a
	// future-only update.
	SupersedesRuleID string `json:"supersedesRuleId,omitempty" yaml:"supersedes_rule_id,omitempty"`

	// Resolved by the store on reads.
	CategoryName string `json:"categoryName" yaml:"category_name"`
	MerchantName string `json:"merchantName,omitempty" yaml:"merchant_name,omitempty"`

	CreatedAt time.Time `json:"createdAt" yaml:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" yaml:"updated_at"`
}

// Fields returns the user-editable part of the rule.
func (r RecurringRule) Fields() RuleFields {
	active := r.IsActive
	return RuleFields{
		Frequency:      r.Frequency,
		Interval:       r.Interval,
		Amount:         r.Amount,
		Currency:       r.Currency,
		Spread:         r.Spread,
		Type:           r.Type,
		StartDate:      r.StartDate,
		EndDate:        r.EndDate,
		MaxOccurrences: r.MaxOccurrences,
		CategoryID:     r.CategoryID,
		MerchantID:     r.MerchantID,
		Description:    r.Description,
		Notes:          r.Notes,
		IsActive:       &active,
	}
}

// RuleFields is the set of fields a caller may supply when creating or
// updating a rule.
type RuleFields struct {
	Frequency      Frequency
	Interval       int
	Amount         decimal.Decimal
	Currency       string
	Spread         decimal.Decimal
	Type           TransactionType
	StartDate      dateutils.Date
	EndDate        *dateutils.Date
	MaxOccurrences *int
	CategoryID     string
	MerchantID     string
	Description    string
	Notes          string
	// IsActive defaults to true when nil on create; an in-place update keeps
	// the current value.
	IsActive *bool
}

// ApplyTo overwrites the editable fields of r.
func (f RuleFields) ApplyTo(r *RecurringRule) {
	r.Frequency = f.Frequency
	r.Interval = f.Interval
	r.Amount = f.Amount
	r.Currency = strings.ToUpper(f.Currency)
	r.Spread = f.Spread
	r.Type = f.Type
	r.StartDate = f.StartDate
	r.EndDate = f.EndDate
	r.MaxOccurrences = f.MaxOccurrences
	r.CategoryID = f.CategoryID
	r.MerchantID = f.MerchantID
	r.Description = f.Description
	r.Notes = f.Notes
	r.IsActive = f.IsActive == nil || *f.IsActive
}

// UpdateMode selects how an update reaches already-generated occurrences.
type UpdateMode string

// Update modes
const (
	// UpdateAll rewrites the rule in place; past and future occurrences change.
	UpdateAll UpdateMode = "ALL"
	// UpdateFuture freezes the rule at today and forks a new one from today.
	UpdateFuture UpdateMode = "FUTURE"
	// UpdateAuto picks Future for sensitive changes and All otherwise.
	UpdateAuto UpdateMode = "AUTO"
)

// ParseUpdateMode accepts the mode names case-insensitively. An empty string
// means UpdateAll.
func ParseUpdateMode(s string) (UpdateMode, bool) {
	switch UpdateMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", UpdateAll:
		return UpdateAll, true
	case UpdateFuture:
		return UpdateFuture, true
	case UpdateAuto:
		return UpdateAuto, true
	}
	return "", false
}

// OccurrenceStatus is the lifecycle state of a derived occurrence.
type OccurrenceStatus string

// Occurrence statuses
const (
	StatusPaid     OccurrenceStatus = "PAID"
	StatusSkipped  OccurrenceStatus = "SKIPPED"
	StatusOverdue  OccurrenceStatus = "OVERDUE"
	StatusDue      OccurrenceStatus = "DUE"
	StatusUpcoming OccurrenceStatus = "UPCOMING"
)

// AllStatuses lists the statuses in classification order.
var AllStatuses = []OccurrenceStatus{StatusPaid, StatusSkipped, StatusOverdue, StatusDue, StatusUpcoming}

// IsPending reports whether the occurrence still waits for the user to act.
func (s OccurrenceStatus) IsPending() bool {
	return s == StatusOverdue || s == StatusDue
}

// RecurringOccurrence is one expected event of a rule on a calendar day.
// It is derived on every read and never stored.
type RecurringOccurrence struct {
	Date          dateutils.Date   `json:"date" yaml:"date" csv:"Date"`
	Status        OccurrenceStatus `json:"status" yaml:"status" csv:"Status"`
	RuleID        string           `json:"ruleId" yaml:"rule_id" csv:"RuleID"`
	Type          TransactionType  `json:"type" yaml:"type" csv:"Type"`
	Amount        decimal.Decimal  `json:"amount" yaml:"amount" csv:"Amount"`
	Currency      string           `json:"currency" yaml:"currency" csv:"Currency"`
	Spread        decimal.Decimal  `json:"spread" yaml:"spread" csv:"Spread"`
	Description   string           `json:"description" yaml:"description" csv:"Description"`
	MerchantID    string           `json:"merchantId,omitempty" yaml:"merchant_id,omitempty" csv:"MerchantID"`
	MerchantName  string           `json:"merchantName,omitempty" yaml:"merchant_name,omitempty" csv:"Merchant"`
	CategoryName  string           `json:"categoryName" yaml:"category_name" csv:"Category"`
	TransactionID string           `json:"transactionId,omitempty" yaml:"transaction_id,omitempty" csv:"TransactionID"`
}
