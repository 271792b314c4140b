// Package common contains shared functionality for command handlers
package common

import (
	"context"
	"strings"
	"time"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/currencyutils"
	"fjacquet/recurring-ledger/internal/dateutils"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

// CommandTimeout bounds the store work of a single CLI invocation.
const CommandTimeout = 30 * time.Second

// Context returns the command context bounded by CommandTimeout.
func Context(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, CommandTimeout)
}

// ParseDate reads a date flag or argument in ISO or DD.MM.YYYY form.
func ParseDate(field, value string) (dateutils.Date, error) {
	d, err := dateutils.ParseFlexible(value)
	if err != nil {
		return dateutils.Date{}, &apperrors.ValidationError{Field: field, Value: value, Reason: "expected YYYY-MM-DD or DD.MM.YYYY"}
	}
	return d, nil
}

// OptionalDate is ParseDate for flags that may be left empty.
func OptionalDate(field, value string) (*dateutils.Date, error) {
	if strings.TrimSpace(value) == "" {
		return nil, nil
	}
	d, err := ParseDate(field, value)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

// ParseAmount reads an amount typed by the user, accepting grouping
// separators and currency noise such as "CHF 1'200.50".
func ParseAmount(field, value string) (decimal.Decimal, error) {
	amount, err := currencyutils.ParseAmount(value)
	if err != nil {
		return decimal.Zero, &apperrors.ValidationError{Field: field, Value: value, Reason: "not a number"}
	}
	return amount, nil
}

// Changed reports whether the named local or persistent flag was set.
func Changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}
