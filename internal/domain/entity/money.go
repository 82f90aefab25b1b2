package entity

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

// MaxDecimalPlaces defines the maximum number of decimal places allowed for money amounts
const MaxDecimalPlaces = 2

var hundred = decimal.NewFromInt(100)

// ParseAmount validates a textual amount and returns it as a decimal.
// Negative values and more than two decimal places are rejected.
func ParseAmount(amount string) (decimal.Decimal, error) {
	amount = strings.TrimSpace(amount)
	if len(amount) == 0 {
		return decimal.Zero, fmt.Errorf("%w: empty value", errs.ErrInvalidAmount)
	}

	value, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s", errs.ErrInvalidAmount, amount)
	}
	if value.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: amount cannot be negative", errs.ErrInvalidAmount)
	}
	if !value.Equal(value.Truncate(MaxDecimalPlaces)) {
		return decimal.Zero, fmt.Errorf("%w: maximum %d decimal places allowed", errs.ErrInvalidAmount, MaxDecimalPlaces)
	}

	return value, nil
}

// RoundMoney rounds half away from zero to whole cents
func RoundMoney(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(MaxDecimalPlaces)
}

// FormatAmount renders an amount with exactly two decimal places.
// Example: 10.1 becomes "10.10", 10 becomes "10.00".
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(MaxDecimalPlaces)
}

// PercentOf returns pct percent of amount rounded to cents
func PercentOf(amount, pct decimal.Decimal) decimal.Decimal {
	return RoundMoney(amount.Mul(pct).Div(hundred))
}

// SplitEvenly divides total into parts shares using largest-remainder allocation in cents.
// The shares always sum to total rounded to cents; leftover cents go to the first shares.
func SplitEvenly(total decimal.Decimal, parts int) []decimal.Decimal {
	if parts <= 0 {
		return nil
	}

	cents := RoundMoney(total).Shift(MaxDecimalPlaces).IntPart()
	base := cents / int64(parts)
	remainder := cents % int64(parts)

	shares := make([]decimal.Decimal, parts)
	for i := range shares {
		share := base
		if int64(i) < remainder {
			share++
		}
		shares[i] = decimal.New(share, -MaxDecimalPlaces)
	}
	return shares
}

// MinAmount returns the smaller of a and b
func MinAmount(a, b decimal.Decimal) decimal.Decimal {
	if a.LessThan(b) {
		return a
	}
	return b
}
