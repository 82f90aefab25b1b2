package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/investment"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/payment"
)

// PaymentLimits parses the configured amounts and timezone
func (c LedgerConfig) PaymentLimits() (payment.Limits, error) {
	limits := payment.DefaultLimits()

	fields := []struct {
		key   string
		raw   string
		value *decimal.Decimal
	}{
		{"ledger.minDeposit", c.MinDeposit, &limits.MinDeposit},
		{"ledger.maxDeposit", c.MaxDeposit, &limits.MaxDeposit},
		{"ledger.minWithdrawal", c.MinWithdrawal, &limits.MinWithdrawal},
		{"ledger.maxWithdrawal", c.MaxWithdrawal, &limits.MaxWithdrawal},
		{"ledger.dailyWithdrawalCap", c.DailyWithdrawalCap, &limits.DailyWithdrawalCap},
		{"ledger.withdrawalChargePercent", c.WithdrawalChargePercent, &limits.WithdrawalChargePercent},
	}
	for _, f := range fields {
		if f.raw == "" {
			continue
		}
		parsed, err := decimal.NewFromString(f.raw)
		if err != nil {
			return payment.Limits{}, fmt.Errorf("invalid %s %q: %w", f.key, f.raw, err)
		}
		if parsed.IsNegative() {
			return payment.Limits{}, fmt.Errorf("invalid %s %q: must not be negative", f.key, f.raw)
		}
		*f.value = parsed
	}

	if limits.MinDeposit.GreaterThan(limits.MaxDeposit) {
		return payment.Limits{}, fmt.Errorf("ledger.minDeposit exceeds ledger.maxDeposit")
	}
	if limits.MinWithdrawal.GreaterThan(limits.MaxWithdrawal) {
		return payment.Limits{}, fmt.Errorf("ledger.minWithdrawal exceeds ledger.maxWithdrawal")
	}

	if c.Timezone != "" {
		loc, err := time.LoadLocation(c.Timezone)
		if err != nil {
			return payment.Limits{}, fmt.Errorf("invalid ledger.timezone %q: %w", c.Timezone, err)
		}
		limits.Location = loc
	}

	return limits, nil
}

// GuardConfig returns the cross-process lock timings
func (c LockConfig) GuardConfig() ledger.GuardConfig {
	return ledger.GuardConfig{
		LockTTL:       c.TTL,
		LockWait:      c.Wait,
		RetryInterval: c.RetryInterval,
	}
}

// InvestmentConfig returns the accrual pass tuning
func (c AccrualConfig) InvestmentConfig() investment.AccrualConfig {
	return investment.AccrualConfig{
		Concurrency: c.Concurrency,
		ScanLimit:   c.ScanLimit,
	}
}
