package payment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Limits bound deposits and withdrawals
type Limits struct {
	MinDeposit              decimal.Decimal
	MaxDeposit              decimal.Decimal
	MinWithdrawal           decimal.Decimal
	MaxWithdrawal           decimal.Decimal
	DailyWithdrawalCap      decimal.Decimal
	WithdrawalChargePercent decimal.Decimal
	// Location decides where the daily cap's day starts
	Location *time.Location
}

// DefaultLimits returns the production limits
func DefaultLimits() Limits {
	return Limits{
		MinDeposit:              decimal.NewFromInt(100),
		MaxDeposit:              decimal.NewFromInt(50000),
		MinWithdrawal:           decimal.NewFromInt(500),
		MaxWithdrawal:           decimal.NewFromInt(50000),
		DailyWithdrawalCap:      decimal.NewFromInt(100000),
		WithdrawalChargePercent: decimal.NewFromInt(2),
		Location:                time.UTC,
	}
}

// startOfDay returns local midnight of now's day
func (l Limits) startOfDay(now time.Time) time.Time {
	loc := l.Location
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
}
