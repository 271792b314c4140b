// Package validation checks user input at the boundary. Everything past it
// (service, expander) trusts the values it receives.
package validation

import (
	"fmt"
	"strconv"
	"strings"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/currencyutils"
	"fjacquet/recurring-ledger/internal/models"

	"github.com/shopspring/decimal"
)

// Options holds the deployment-wide validation switches.
type Options struct {
	// RequireMerchant makes merchantId mandatory on rules.
	RequireMerchant bool
}

// ParseFrequency accepts a frequency name case-insensitively.
func ParseFrequency(s string) (models.Frequency, error) {
	f := models.Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.IsValid() {
		return "", fmt.Errorf("%w: %s", apperrors.ErrUnknownFrequency, s)
	}
	return f, nil
}

// ParseTransactionType accepts EXPENSE or INCOME case-insensitively.
func ParseTransactionType(s string) (models.TransactionType, error) {
	t := models.TransactionType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", invalid("type", s, "must be EXPENSE or INCOME")
	}
	return t, nil
}

// ValidateRuleFields checks a rule before it is created or updated and
// normalizes the currency code in place. The first violation is returned as
// an *apperrors.ValidationError.
func ValidateRuleFields(f *models.RuleFields, opts Options) error {
	if !f.Frequency.IsValid() {
		return invalid("frequency", string(f.Frequency), "must be one of DAILY, WEEKLY, MONTHLY, YEARLY, ONE_TIME")
	}
	if f.Interval < 1 {
		return invalid("interval", strconv.Itoa(f.Interval), "must be a positive integer")
	}
	if err := ValidateAmount(f.Amount); err != nil {
		return err
	}
	currency, err := currencyutils.NormalizeCurrency(f.Currency)
	if err != nil {
		return invalid("currency", f.Currency, "must be a 3-letter code")
	}
	f.Currency = currency
	if currencyutils.IsNegative(f.Spread) {
		return invalid("spread", f.Spread.String(), "must not be negative")
	}
	if !f.Type.IsValid() {
		return invalid("type", string(f.Type), "must be EXPENSE or INCOME")
	}
	if f.StartDate.IsZero() {
		return invalid("startDate", "", "is required")
	}
	if f.EndDate != nil && f.EndDate.Before(f.StartDate) {
		return invalid("endDate", f.EndDate.String(), "must not be before startDate "+f.StartDate.String())
	}
	if f.MaxOccurrences != nil && *f.MaxOccurrences < 1 {
		return invalid("occurrences", strconv.Itoa(*f.MaxOccurrences), "must be a positive integer")
	}
	if strings.TrimSpace(f.CategoryID) == "" {
		return invalid("categoryId", "", "is required")
	}
	if opts.RequireMerchant && strings.TrimSpace(f.MerchantID) == "" {
		return invalid("merchantId", "", "is required")
	}
	return nil
}

// ValidateAmount rejects zero and negative amounts.
func ValidateAmount(amount decimal.Decimal) error {
	if !currencyutils.IsPositive(amount) {
		return invalid("amount", amount.String(), "must be greater than zero")
	}
	return nil
}

// IsValidOutputFormat checks if the given report format is supported.
func IsValidOutputFormat(format string) error {
	switch format {
	case "table", "json", "yaml", "csv":
		return nil
	default:
		return invalid("format", format, "supported formats are 'table', 'json', 'yaml', 'csv'")
	}
}

func invalid(field, value, reason string) error {
	return &apperrors.ValidationError{Field: field, Value: value, Reason: reason}
}
