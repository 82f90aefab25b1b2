package entity

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

func decimalPtr(v string) *decimal.Decimal {
	d := decimal.RequireFromString(v)
	return &d
}

func TestNewPackage(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Profit amount derives daily profit and percentage", func(t *testing.T) {
		pkg, err := NewPackage(PackageParams{
			Name:         "Silver 5",
			Price:        decimal.NewFromInt(1000),
			ProfitAmount: decimalPtr("150"),
			DurationDays: 5,
			Category:     CategorySilver,
		}, now)

		require.NoError(t, err)
		assert.Equal(t, "30.00", FormatAmount(pkg.DailyProfit))
		assert.Equal(t, "1150.00", FormatAmount(pkg.TotalReturn))
		assert.Equal(t, "15.00", FormatAmount(pkg.ProfitPercentage))
		assert.True(t, pkg.IsActive)
		assert.Equal(t, DefaultMinPurchase, pkg.MinPurchase)
		assert.Equal(t, DefaultMaxPurchase, pkg.MaxPurchase)
	})

	t.Run("Profit percentage derives profit amount", func(t *testing.T) {
		pkg, err := NewPackage(PackageParams{
			Name:             "Gold 30",
			Price:            decimal.NewFromInt(5000),
			ProfitPercentage: decimalPtr("12"),
			DurationDays:     30,
			Category:         CategoryGold,
			MinPurchase:      2,
			MaxPurchase:      4,
		}, now)

		require.NoError(t, err)
		assert.Equal(t, "600.00", FormatAmount(pkg.ProfitAmount))
		assert.Equal(t, "20.00", FormatAmount(pkg.DailyProfit))
		assert.Equal(t, 2, pkg.MinPurchase)
		assert.Equal(t, 4, pkg.MaxPurchase)
	})

	t.Run("Daily profit times duration stays close to profit amount", func(t *testing.T) {
		pkg, err := NewPackage(PackageParams{
			Name:         "Starter 3",
			Price:        decimal.NewFromInt(500),
			ProfitAmount: decimalPtr("100"),
			DurationDays: 3,
			Category:     CategoryStarter,
		}, now)

		require.NoError(t, err)
		assert.Equal(t, "33.33", FormatAmount(pkg.DailyProfit))
		drift := pkg.DailyProfit.Mul(decimal.NewFromInt(3)).Sub(pkg.ProfitAmount).Abs()
		assert.True(t, drift.LessThan(decimal.NewFromFloat(0.03)))
	})

	t.Run("Invalid definitions", func(t *testing.T) {
		valid := func() PackageParams {
			return PackageParams{
				Name:         "P",
				Price:        decimal.NewFromInt(100),
				ProfitAmount: decimalPtr("10"),
				DurationDays: 10,
				Category:     CategoryBasic,
			}
		}

		testCases := []struct {
			name   string
			mutate func(p *PackageParams)
		}{
			{"Missing name", func(p *PackageParams) { p.Name = "" }},
			{"Zero price", func(p *PackageParams) { p.Price = decimal.Zero }},
			{"Zero duration", func(p *PackageParams) { p.DurationDays = 0 }},
			{"Unknown category", func(p *PackageParams) { p.Category = "bronze" }},
			{"No profit figure", func(p *PackageParams) { p.ProfitAmount = nil }},
			{"Negative profit", func(p *PackageParams) { p.ProfitAmount = decimalPtr("-1") }},
			{"Commission above 100", func(p *PackageParams) { p.ReferralCommission = decimal.NewFromInt(101) }},
			{"Min above max", func(p *PackageParams) { p.MinPurchase = 5; p.MaxPurchase = 2 }},
			{"Daily profit rounds to zero", func(p *PackageParams) { p.ProfitAmount = decimalPtr("0.04") }},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				params := valid()
				tc.mutate(&params)
				pkg, err := NewPackage(params, now)
				assert.Nil(t, pkg)
				assert.True(t, errs.IsValidationError(err), "got %v", err)
			})
		}
	})
}

func TestNewPackageAllowsZeroProfit(t *testing.T) {
	pkg, err := NewPackage(PackageParams{
		Name:         "Capital only",
		Price:        decimal.NewFromInt(100),
		ProfitAmount: decimalPtr("0"),
		DurationDays: 10,
		Category:     CategoryBasic,
	}, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))

	require.NoError(t, err)
	assert.True(t, pkg.DailyProfit.IsZero())
}

func TestPackageApplyKeepsCounters(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pkg, err := NewPackage(PackageParams{
		Name:         "Silver 5",
		Price:        decimal.NewFromInt(1000),
		ProfitAmount: decimalPtr("150"),
		DurationDays: 5,
		Category:     CategorySilver,
	}, now)
	require.NoError(t, err)
	pkg.RecordSale(3, decimal.NewFromInt(3000), now)

	inactive := false
	require.NoError(t, pkg.Apply(PackageParams{
		Name:         "Silver 10",
		Price:        decimal.NewFromInt(1000),
		ProfitAmount: decimalPtr("200"),
		DurationDays: 10,
		Category:     CategorySilver,
		IsActive:     &inactive,
	}, now.Add(time.Hour)))

	assert.Equal(t, "20.00", FormatAmount(pkg.DailyProfit))
	assert.Equal(t, int64(3), pkg.TotalSales)
	assert.Equal(t, "3000.00", FormatAmount(pkg.TotalRevenue))
	assert.False(t, pkg.IsActive)
}

func TestPackageCheckPurchasable(t *testing.T) {
	pkg := &Package{Name: "P", IsActive: true, MinPurchase: 1, MaxPurchase: 3, Price: decimal.NewFromInt(1000)}

	assert.NoError(t, pkg.CheckPurchasable(1))
	assert.NoError(t, pkg.CheckPurchasable(3))
	assert.ErrorIs(t, pkg.CheckPurchasable(0), errs.ErrQuantityOutOfRange)
	assert.ErrorIs(t, pkg.CheckPurchasable(4), errs.ErrQuantityOutOfRange)
	assert.Equal(t, "3000.00", FormatAmount(pkg.Cost(3)))

	pkg.IsActive = false
	assert.ErrorIs(t, pkg.CheckPurchasable(1), errs.ErrPackageInactive)
}
