package payment

import (
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// requireExternal accepts only methods that move money off the platform
func requireExternal(method entity.PaymentMethod) error {
	if !method.IsExternal() {
		return errs.NewValidationError("method", "unsupported payment method "+string(method), nil)
	}
	return nil
}

// checkRange validates min <= amount <= max
func checkRange(field string, amount, minAmount, maxAmount decimal.Decimal) error {
	if !amount.IsPositive() {
		return errs.NewValidationError(field, "amount must be greater than zero", errs.ErrInvalidAmount)
	}
	if amount.LessThan(minAmount) {
		return errs.NewValidationError(field, "minimum amount is "+entity.FormatAmount(minAmount), errs.ErrInvalidAmount)
	}
	if amount.GreaterThan(maxAmount) {
		return errs.NewValidationError(field, "maximum amount is "+entity.FormatAmount(maxAmount), errs.ErrLimitExceeded)
	}
	return nil
}

func total(aggregates []persistence.TransactionAggregate) decimal.Decimal {
	sum := decimal.Zero
	for _, agg := range aggregates {
		sum = sum.Add(agg.Total)
	}
	return sum
}

func describe(given, fallback string) string {
	if given != "" {
		return given
	}
	return fallback
}
