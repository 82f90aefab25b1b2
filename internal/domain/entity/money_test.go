package entity

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

func TestParseAmount(t *testing.T) {
	t.Run("Valid amounts", func(t *testing.T) {
		testCases := []struct {
			input    string
			expected string
		}{
			{"100.00", "100.00"},
			{"0.01", "0.01"},
			{"1", "1.00"},
			{"1.5", "1.50"},
			{" 1234567.89 ", "1234567.89"},
			{"0", "0.00"},
		}

		for _, tc := range testCases {
			t.Run(tc.input, func(t *testing.T) {
				amount, err := ParseAmount(tc.input)
				require.NoError(t, err)
				assert.Equal(t, tc.expected, FormatAmount(amount))
			})
		}
	})

	t.Run("Invalid amounts", func(t *testing.T) {
		testCases := []struct {
			input       string
			description string
		}{
			{"", "Empty string"},
			{"   ", "Whitespace only"},
			{"-1.00", "Negative amount"},
			{"1.234", "Too many decimal places"},
			{"abc", "Non-numeric"},
			{"1,000.00", "Comma as thousands separator"},
			{"$100", "Currency symbol"},
		}

		for _, tc := range testCases {
			t.Run(tc.description, func(t *testing.T) {
				_, err := ParseAmount(tc.input)
				assert.ErrorIs(t, err, errs.ErrInvalidAmount)
			})
		}
	})
}

func TestPercentOf(t *testing.T) {
	assert.Equal(t, "20.00", FormatAmount(PercentOf(decimal.NewFromInt(1000), decimal.NewFromInt(2))))
	assert.Equal(t, "0.33", FormatAmount(PercentOf(decimal.NewFromInt(11), decimal.NewFromInt(3))))
	assert.Equal(t, "150.00", FormatAmount(PercentOf(decimal.NewFromInt(1000), decimal.NewFromInt(15))))
}

func TestSplitEvenly(t *testing.T) {
	testCases := []struct {
		name     string
		total    string
		parts    int
		expected []string
	}{
		{"Exact split", "100.00", 2, []string{"50.00", "50.00"}},
		{"Remainder to first shares", "100.00", 3, []string{"33.34", "33.33", "33.33"}},
		{"Two leftover cents", "0.05", 3, []string{"0.02", "0.02", "0.01"}},
		{"Single share", "12.34", 1, []string{"12.34"}},
		{"Fewer cents than shares", "0.02", 4, []string{"0.01", "0.01", "0.00", "0.00"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			total := decimal.RequireFromString(tc.total)
			shares := SplitEvenly(total, tc.parts)
			require.Len(t, shares, tc.parts)

			sum := decimal.Zero
			for i, share := range shares {
				assert.Equal(t, tc.expected[i], FormatAmount(share))
				sum = sum.Add(share)
			}
			assert.True(t, sum.Equal(total), "shares must sum to the total")
		})
	}

	t.Run("Non-positive parts", func(t *testing.T) {
		assert.Nil(t, SplitEvenly(decimal.NewFromInt(10), 0))
	})
}

func TestMinAmount(t *testing.T) {
	a := decimal.NewFromInt(30)
	b := decimal.NewFromInt(20)
	assert.True(t, MinAmount(a, b).Equal(b))
	assert.True(t, MinAmount(b, a).Equal(b))
}
