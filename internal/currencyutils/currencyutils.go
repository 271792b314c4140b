// Package currencyutils parses and formats amounts typed by users on the
// command line and rendered in reports.
package currencyutils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// Anything that is not a digit, a separator or a sign: symbols, codes, spaces.
	noiseRe    = regexp.MustCompile(`[^0-9.,'\-+]`)
	currencyRe = regexp.MustCompile(`^[A-Z]{3}$`)
)

// ParseAmount parses a user-supplied amount into a decimal value.
// It handles formats like "1,234.56", "1.234,56", "1'234.56", "CHF 12.50" and "€12,50".
func ParseAmount(amountStr string) (decimal.Decimal, error) {
	standardized := StandardizeAmount(amountStr)
	if standardized == "" {
		return decimal.Zero, fmt.Errorf("empty amount")
	}

	amount, err := decimal.NewFromString(standardized)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}
	return amount, nil
}

// StandardizeAmount converts the accepted amount formats into one that
// decimal.NewFromString understands.
func StandardizeAmount(amountStr string) string {
	s := noiseRe.ReplaceAllString(amountStr, "")
	s = strings.ReplaceAll(s, "'", "")

	hasComma := strings.Contains(s, ",")
	hasDot := strings.Contains(s, ".")
	switch {
	case hasComma && hasDot:
		if strings.LastIndex(s, ".") < strings.LastIndex(s, ",") {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case hasComma:
		parts := strings.Split(s, ",")
		if len(parts) == 2 && len(parts[1]) <= 2 {
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case strings.Count(s, ".") > 1 && isThousandsGrouping(s, "."):
		// 1.234.567
		s = strings.ReplaceAll(s, ".", "")
	}
	return s
}

func isThousandsGrouping(s, sep string) bool {
	parts := strings.Split(strings.TrimLeft(s, "+-"), sep)
	for i, p := range parts {
		if i > 0 && len(p) != 3 {
			return false
		}
	}
	return true
}

// NormalizeCurrency upper-cases a currency code and checks it has three letters.
func NormalizeCurrency(code string) (string, error) {
	c := strings.ToUpper(strings.TrimSpace(code))
	if !currencyRe.MatchString(c) {
		return "", fmt.Errorf("currency must be a 3-letter code, got '%s'", code)
	}
	return c, nil
}

// FormatAmount formats an amount with two decimal places and the currency
// symbol or code. Returns strings like "CHF 1234.56" or "€1234.56".
func FormatAmount(amount decimal.Decimal, currency string) string {
	formatted := amount.StringFixed(2)

	switch strings.ToUpper(currency) {
	case "":
		return formatted
	case "EUR":
		return "€" + formatted
	case "USD":
		return "$" + formatted
	case "GBP":
		return "£" + formatted
	case "JPY":
		return "¥" + formatted
	default:
		return strings.ToUpper(currency) + " " + formatted
	}
}

// IsPositive checks if an amount is strictly greater than zero.
func IsPositive(amount decimal.Decimal) bool {
	return amount.GreaterThan(decimal.Zero)
}

// IsNegative checks if an amount is below zero.
func IsNegative(amount decimal.Decimal) bool {
	return amount.LessThan(decimal.Zero)
}
