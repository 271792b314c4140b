package common

import (
	"testing"

	"fjacquet/recurring-ledger/internal/apperrors"
	"fjacquet/recurring-ledger/internal/dateutils"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
		wantErr  bool
	}{
		{"iso", "2024-03-15", "2024-03-15", false},
		{"european", "15.03.2024", "2024-03-15", false},
		{"slashes", "15/03/2024", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate("date", tt.input)
			if tt.wantErr {
				assert.True(t, apperrors.IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got.String())
		})
	}
}

func TestOptionalDate(t *testing.T) {
	d, err := OptionalDate("end", "  ")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = OptionalDate("end", "31.12.2024")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, dateutils.MustParse("2024-12-31"), *d)

	_, err = OptionalDate("end", "soon")
	assert.True(t, apperrors.IsValidation(err))
}

func TestParseAmount(t *testing.T) {
	amount, err := ParseAmount("amount", "CHF 1'200.50")
	require.NoError(t, err)
	assert.Equal(t, "1200.5", amount.String())

	_, err = ParseAmount("amount", "")
	assert.True(t, apperrors.IsValidation(err))
}

func TestChanged(t *testing.T) {
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().String("amount", "", "")
	require.NoError(t, cmd.Flags().Parse([]string{"--amount", "5"}))

	assert.True(t, Changed(cmd, "amount"))
	assert.False(t, Changed(cmd, "missing"))
}

func TestContext_WithoutCommandContext(t *testing.T) {
	ctx, cancel := Context(&cobra.Command{})
	defer cancel()
	_, ok := ctx.Deadline()
	assert.True(t, ok)
}
