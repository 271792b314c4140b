package currencyutils

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestParseAmount(t *testing.T) {
	tests := []struct {
		name      string
		amountStr string
		expected  decimal.Decimal
		hasError  bool
	}{
		{"Simple decimal", "123.45", decimal.RequireFromString("123.45"), false},
		{"Negative decimal", "-123.45", decimal.RequireFromString("-123.45"), false},
		{"Integer", "100", decimal.NewFromInt(100), false},
		{"With comma decimal separator", "123,45", decimal.RequireFromString("123.45"), false},
		{"With thousand separator (comma)", "1,234.56", decimal.RequireFromString("1234.56"), false},
		{"With thousand separator (apostrophe)", "1'234.56", decimal.RequireFromString("1234.56"), false},
		{"European format", "1.234,56", decimal.RequireFromString("1234.56"), false},
		{"With currency symbol (EUR)", "€123.45", decimal.RequireFromString("123.45"), false},
		{"With currency symbol (USD)", "$123.45", decimal.RequireFromString("123.45"), false},
		{"With currency code", "CHF 123.45", decimal.RequireFromString("123.45"), false},
		{"With spaces", "  123.45  ", decimal.RequireFromString("123.45"), false},
		{"Empty string", "", decimal.Zero, true},
		{"Malformed decimal", "123.45.6", decimal.Zero, true},
		{"Non-numeric", "abc", decimal.Zero, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			result, err := ParseAmount(tc.amountStr)

			if tc.hasError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.True(t, tc.expected.Equal(result), "Expected %s but got %s", tc.expected.String(), result.String())
			}
		})
	}
}

func TestStandardizeAmount(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"Simple decimal", "123.45", "123.45"},
		{"Negative decimal", "-123.45", "-123.45"},
		{"With comma decimal separator", "123,45", "123.45"},
		{"With thousand separator (comma)", "1,234.56", "1234.56"},
		{"Multiple separators", "1,234,567.89", "1234567.89"},
		{"Comma as thousands separator", "1,234", "1234"},
		{"European multiple separators", "1.234.567,89", "1234567.89"},
		{"Dots as thousands separator", "1.234.567", "1234567"},
		{"Euro symbol and European format", "€1.234,56", "1234.56"},
		{"Currency code", "CHF 1'234.50", "1234.50"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, StandardizeAmount(tc.input))
		})
	}
}

func TestNormalizeCurrency(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		hasError bool
	}{
		{"usd", "USD", false},
		{" Chf ", "CHF", false},
		{"EURO", "", true},
		{"E1R", "", true},
		{"", "", true},
	}

	for _, tc := range tests {
		t.Run(tc.input, func(t *testing.T) {
			got, err := NormalizeCurrency(tc.input)
			if tc.hasError {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestFormatAmount(t *testing.T) {
	tests := []struct {
		name     string
		amount   decimal.Decimal
		currency string
		expected string
	}{
		{"EUR currency", decimal.RequireFromString("1234.56"), "EUR", "€1234.56"},
		{"USD currency", decimal.RequireFromString("1234.56"), "USD", "$1234.56"},
		{"GBP currency", decimal.RequireFromString("1234.56"), "GBP", "£1234.56"},
		{"CHF currency", decimal.RequireFromString("1234.56"), "CHF", "CHF 1234.56"},
		{"Lowercase code", decimal.RequireFromString("1234.56"), "cad", "CAD 1234.56"},
		{"Empty currency", decimal.RequireFromString("1234.56"), "", "1234.56"},
		{"Zero amount", decimal.Zero, "USD", "$0.00"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, FormatAmount(tc.amount, tc.currency))
		})
	}
}

func TestSign(t *testing.T) {
	assert.True(t, IsPositive(decimal.RequireFromString("0.01")))
	assert.False(t, IsPositive(decimal.Zero))
	assert.True(t, IsNegative(decimal.RequireFromString("-0.01")))
	assert.False(t, IsNegative(decimal.Zero))
}
