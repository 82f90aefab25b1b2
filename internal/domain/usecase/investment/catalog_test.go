package investment

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

func TestCatalogService(t *testing.T) {
	ctx := context.Background()

	t.Run("Create update and hide", func(t *testing.T) {
		f := newFixture(t)
		pkg := f.seedPackage(t, "Silver 5", 1000, 150, 5, 5)
		assert.Equal(t, "30.00", entity.FormatAmount(pkg.DailyProfit))

		profit := decimal.NewFromInt(300)
		updated, err := f.catalog.UpdatePackage(ctx, pkg.ID, entity.PackageParams{
			Name:         "Silver 10",
			Price:        decimal.NewFromInt(1000),
			ProfitAmount: &profit,
			DurationDays: 10,
			Category:     entity.CategorySilver,
		})
		require.NoError(t, err)
		assert.Equal(t, "Silver 10", updated.Name)
		assert.Equal(t, "30.00", entity.FormatAmount(updated.DailyProfit))
		assert.Equal(t, 10, updated.DurationDays)

		hidden, err := f.catalog.SetPackageActive(ctx, pkg.ID, false)
		require.NoError(t, err)
		assert.False(t, hidden.IsActive)

		active, err := f.catalog.ListPackages(ctx, persistence.PackageFilter{ActiveOnly: true})
		require.NoError(t, err)
		assert.Empty(t, active)

		all, err := f.catalog.ListPackages(ctx, persistence.PackageFilter{})
		require.NoError(t, err)
		assert.Len(t, all, 1)
	})

	t.Run("Rejects invalid and duplicate packages", func(t *testing.T) {
		f := newFixture(t)
		f.seedPackage(t, "Silver 5", 1000, 150, 5, 0)

		profit := decimal.NewFromInt(10)
		_, err := f.catalog.CreatePackage(ctx, entity.PackageParams{
			Name:         "silver 5",
			Price:        decimal.NewFromInt(500),
			ProfitAmount: &profit,
			DurationDays: 5,
			Category:     entity.CategoryBasic,
		})
		assert.ErrorIs(t, err, errs.ErrDuplicatePackage)

		_, err = f.catalog.CreatePackage(ctx, entity.PackageParams{Name: "Broken", Category: entity.CategoryBasic})
		assert.True(t, errs.IsValidationError(err))

		_, err = f.catalog.UpdatePackage(ctx, uuid.New(), entity.PackageParams{})
		assert.ErrorIs(t, err, errs.ErrPackageNotFound)
	})

	t.Run("Existing holdings keep their terms after an edit", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.seedUser(t, 1000, nil)
		pkg := f.seedPackage(t, "Silver 5", 1000, 150, 5, 0)
		h := f.buy(t, buyer.ID, pkg.ID, 1).Holdings[0]

		profit := decimal.NewFromInt(500)
		_, err := f.catalog.UpdatePackage(ctx, pkg.ID, entity.PackageParams{
			Name:         "Silver 5",
			Price:        decimal.NewFromInt(1000),
			ProfitAmount: &profit,
			DurationDays: 20,
			Category:     entity.CategorySilver,
		})
		require.NoError(t, err)

		stored := f.holding(t, h.ID)
		assert.Equal(t, "150.00", entity.FormatAmount(stored.ExpectedProfit))
		assert.Equal(t, "30.00", entity.FormatAmount(stored.DailyProfit))
		assert.Equal(t, 5, stored.TotalDays())
	})

	t.Run("Delete is refused while holdings accrue", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.seedUser(t, 1000, nil)
		pkg := f.seedPackage(t, "Silver 5", 1000, 150, 5, 0)
		unused := f.seedPackage(t, "Gold 30", 5000, 900, 30, 0)
		h := f.buy(t, buyer.ID, pkg.ID, 1).Holdings[0]

		err := f.catalog.DeletePackage(ctx, pkg.ID)
		assert.ErrorIs(t, err, errs.ErrPackageInUse)

		_, err = f.svc.CancelHolding(ctx, usecase.CancelHoldingRequest{HoldingID: h.ID})
		require.NoError(t, err)
		require.NoError(t, f.catalog.DeletePackage(ctx, pkg.ID))

		require.NoError(t, f.catalog.DeletePackage(ctx, unused.ID))
		_, err = f.catalog.GetPackage(ctx, unused.ID)
		assert.ErrorIs(t, err, errs.ErrPackageNotFound)

		assert.ErrorIs(t, f.catalog.DeletePackage(ctx, uuid.New()), errs.ErrPackageNotFound)
	})

	t.Run("Stats rank top sellers", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.seedUser(t, 20000, nil)
		silver := f.seedPackage(t, "Silver 5", 1000, 150, 5, 0)
		gold := f.seedPackage(t, "Gold 30", 5000, 900, 30, 0)
		f.seedPackage(t, "Unsold", 100, 10, 5, 0)

		f.buy(t, buyer.ID, silver.ID, 3)
		f.buy(t, buyer.ID, gold.ID, 1)
		f.buy(t, buyer.ID, gold.ID, 1)
		f.buy(t, buyer.ID, silver.ID, 1)

		stats, err := f.catalog.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, 3, stats.TotalPackages)
		assert.Equal(t, 3, stats.ActivePackages)
		assert.Equal(t, int64(6), stats.TotalSales)
		assert.Equal(t, "14000.00", entity.FormatAmount(stats.TotalRevenue))
		require.Len(t, stats.TopSellers, 2)
		assert.Equal(t, silver.ID, stats.TopSellers[0].ID)
		assert.Equal(t, gold.ID, stats.TopSellers[1].ID)
	})
}
