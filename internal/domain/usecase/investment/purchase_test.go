package investment

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
)

func TestPurchasePackage(t *testing.T) {
	ctx := context.Background()

	t.Run("Two units with referral commission", func(t *testing.T) {
		f := newFixture(t)
		referrer := f.seedUser(t, 0, nil)
		buyer := f.seedUser(t, 10000, &referrer.ID)
		pkg := f.seedPackage(t, "Silver 5", 1000, 150, 5, 5)

		result := f.buy(t, buyer.ID, pkg.ID, 2)

		assert.Equal(t, entity.TypeInvestment, result.Funding.Type)
		assert.Equal(t, entity.StatusCompleted, result.Funding.Status)
		assert.Equal(t, "2000.00", entity.FormatAmount(result.Funding.Amount))
		require.Len(t, result.Holdings, 2)

		storedBuyer := f.user(t, buyer.ID)
		assert.Equal(t, "8000.00", entity.FormatAmount(storedBuyer.Balance))
		assert.Equal(t, "2000.00", entity.FormatAmount(storedBuyer.TotalInvestment))

		require.NotNil(t, result.Commission)
		assert.Equal(t, "100.00", entity.FormatAmount(result.Commission.Amount))
		assert.Equal(t, referrer.ID, result.Commission.UserID)
		assert.Equal(t, &buyer.ID, result.Commission.Metadata.ReferredUserID)
		assert.Equal(t, &pkg.ID, result.Commission.Metadata.PackageID)

		storedReferrer := f.user(t, referrer.ID)
		assert.Equal(t, "100.00", entity.FormatAmount(storedReferrer.Balance))
		assert.Equal(t, "100.00", entity.FormatAmount(storedReferrer.TotalProfit))

		for _, h := range result.Holdings {
			stored := f.holding(t, h.ID)
			assert.Equal(t, entity.HoldingActive, stored.Status)
			assert.Equal(t, result.Funding.ID, stored.TransactionID)
			assert.Equal(t, f.clock.Now().AddDate(0, 0, 5), stored.EndDate)
			require.NotNil(t, stored.Commission)
			assert.Equal(t, "50.00", entity.FormatAmount(stored.Commission.Amount))
			assert.Equal(t, referrer.ID, stored.Commission.PaidTo)
			assertProfitInvariant(t, stored)
		}

		storedPkg, err := f.catalog.GetPackage(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2), storedPkg.TotalSales)
		assert.Equal(t, "2000.00", entity.FormatAmount(storedPkg.TotalRevenue))

		f.assertBalanceMatchesHistory(t, buyer.ID)
		f.assertBalanceMatchesHistory(t, referrer.ID)
		assert.Equal(t, 1, f.notifier.count(notification.KindPurchaseCompleted))
		assert.Equal(t, 1, f.notifier.count(notification.KindCommissionCredited))
	})

	t.Run("No commission without an active referrer", func(t *testing.T) {
		f := newFixture(t)
		referrer := f.seedUser(t, 0, nil)
		referrer.Deactivate(f.clock.Now())
		require.NoError(t, f.uow.GetUserRepository(ctx).Update(ctx, referrer))

		buyer := f.seedUser(t, 5000, &referrer.ID)
		orphan := f.seedUser(t, 5000, nil)
		pkg := f.seedPackage(t, "Basic", 1000, 100, 10, 5)

		assert.Nil(t, f.buy(t, buyer.ID, pkg.ID, 1).Commission)
		assert.Nil(t, f.buy(t, orphan.ID, pkg.ID, 1).Commission)
		assert.True(t, f.user(t, referrer.ID).Balance.IsZero())
	})

	t.Run("Refusals leave no trace", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.seedUser(t, 1500, nil)
		noPin := f.seedUser(t, 5000, nil)
		noPin.PinHash = ""
		require.NoError(t, f.uow.GetUserRepository(ctx).Update(ctx, noPin))
		inactive := f.seedUser(t, 5000, nil)
		inactive.Deactivate(f.clock.Now())
		require.NoError(t, f.uow.GetUserRepository(ctx).Update(ctx, inactive))

		pkg := f.seedPackage(t, "Silver 5", 1000, 150, 5, 0)
		hidden := f.seedPackage(t, "Hidden", 1000, 150, 5, 0)
		_, err := f.catalog.SetPackageActive(ctx, hidden.ID, false)
		require.NoError(t, err)

		testCases := []struct {
			name    string
			req     usecase.PurchaseRequest
			wantErr error
		}{
			{"Unknown user", usecase.PurchaseRequest{UserID: uuid.New(), PackageID: pkg.ID, Quantity: 1, Pin: testPin}, errs.ErrUserNotFound},
			{"Inactive user", usecase.PurchaseRequest{UserID: inactive.ID, PackageID: pkg.ID, Quantity: 1, Pin: testPin}, errs.ErrUserInactive},
			{"Unknown package", usecase.PurchaseRequest{UserID: buyer.ID, PackageID: uuid.New(), Quantity: 1, Pin: testPin}, errs.ErrPackageNotFound},
			{"Inactive package", usecase.PurchaseRequest{UserID: buyer.ID, PackageID: hidden.ID, Quantity: 1, Pin: testPin}, errs.ErrPackageInactive},
			{"Quantity above max", usecase.PurchaseRequest{UserID: buyer.ID, PackageID: pkg.ID, Quantity: 11, Pin: testPin}, errs.ErrQuantityOutOfRange},
			{"Zero quantity", usecase.PurchaseRequest{UserID: buyer.ID, PackageID: pkg.ID, Quantity: 0, Pin: testPin}, errs.ErrQuantityOutOfRange},
			{"PIN not set", usecase.PurchaseRequest{UserID: noPin.ID, PackageID: pkg.ID, Quantity: 1, Pin: testPin}, errs.ErrPinNotSet},
			{"Wrong PIN", usecase.PurchaseRequest{UserID: buyer.ID, PackageID: pkg.ID, Quantity: 1, Pin: "0000"}, errs.ErrInvalidPin},
			{"Insufficient balance", usecase.PurchaseRequest{UserID: buyer.ID, PackageID: pkg.ID, Quantity: 2, Pin: testPin}, errs.ErrInsufficientBalance},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				result, err := f.svc.PurchasePackage(ctx, tc.req)
				assert.Nil(t, result)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}

		assert.Equal(t, "1500.00", entity.FormatAmount(f.user(t, buyer.ID).Balance))
		_, total, err := f.svc.ListHoldings(ctx, persistence.HoldingFilter{})
		require.NoError(t, err)
		assert.Zero(t, total)

		storedPkg, err := f.catalog.GetPackage(ctx, pkg.ID)
		require.NoError(t, err)
		assert.Zero(t, storedPkg.TotalSales)
	})

	t.Run("Funds held by a pending withdrawal cannot be spent", func(t *testing.T) {
		f := newFixture(t)
		buyer := f.seedUser(t, 1000, nil)
		pkg := f.seedPackage(t, "Silver 5", 1000, 150, 5, 0)

		withdrawal, err := f.ledger.Create(ctx, entity.NewTransactionParams{
			UserID:         buyer.ID,
			Type:           entity.TypeWithdrawal,
			Amount:         decimal.NewFromInt(1000),
			PaymentMethod:  entity.MethodNagad,
			PaymentDetails: entity.MobileDetails("", "", "01812345678"),
		})
		require.NoError(t, err)

		result, err := f.svc.PurchasePackage(ctx, usecase.PurchaseRequest{
			UserID:    buyer.ID,
			PackageID: pkg.ID,
			Quantity:  1,
			Pin:       testPin,
		})
		assert.Nil(t, result)
		assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
		assert.Equal(t, "1000.00", entity.FormatAmount(f.user(t, buyer.ID).Balance))

		// the accepted withdrawal can still be paid out
		_, err = f.ledger.Transition(ctx, ledger.TransitionRequest{TransactionID: withdrawal.ID, To: entity.StatusCompleted})
		require.NoError(t, err)
		assert.True(t, f.user(t, buyer.ID).Balance.IsZero())
		f.assertBalanceMatchesHistory(t, buyer.ID)
	})
}

func TestCommissionCalculator_Compute(t *testing.T) {
	calc := &CommissionCalculator{}

	testCases := []struct {
		name     string
		amount   string
		pct      int64
		quantity int
		total    string
		shares   []string
	}{
		{"Even split", "2000", 5, 2, "100.00", []string{"50.00", "50.00"}},
		{"Leftover cents go first", "1000", 1, 3, "10.00", []string{"3.34", "3.33", "3.33"}},
		{"Rounded total", "333.33", 10, 3, "33.33", []string{"11.11", "11.11", "11.11"}},
		{"Single unit", "999.99", 7, 1, "70.00", []string{"70.00"}},
		{"No commission", "1000", 0, 2, "0.00", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			pkg := &entity.Package{ReferralCommission: decimal.NewFromInt(tc.pct)}
			total, shares := calc.Compute(decimal.RequireFromString(tc.amount), pkg, tc.quantity)

			assert.Equal(t, tc.total, entity.FormatAmount(total))
			got := make([]string, 0, len(shares))
			sum := decimal.Zero
			for _, share := range shares {
				got = append(got, entity.FormatAmount(share))
				sum = sum.Add(share)
			}
			if tc.shares == nil {
				assert.Empty(t, shares)
				return
			}
			assert.Equal(t, tc.shares, got)
			assert.True(t, sum.Equal(total), "shares sum to %s, want %s", sum, total)
		})
	}
}

func TestCancelHolding(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	buyer := f.seedUser(t, 1000, nil)
	pkg := f.seedPackage(t, "Silver 5", 1000, 150, 5, 0)
	h := f.buy(t, buyer.ID, pkg.ID, 1).Holdings[0]

	cancelled, err := f.svc.CancelHolding(ctx, usecase.CancelHoldingRequest{HoldingID: h.ID, ActorID: uuid.New(), Reason: "fraud review"})
	require.NoError(t, err)
	assert.Equal(t, entity.HoldingCancelled, cancelled.Status)
	assert.Equal(t, "fraud review", cancelled.Notes)

	_, err = f.svc.CancelHolding(ctx, usecase.CancelHoldingRequest{HoldingID: h.ID})
	assert.True(t, errs.IsInvalidTransitionError(err))

	_, err = f.svc.CancelHolding(ctx, usecase.CancelHoldingRequest{HoldingID: uuid.New()})
	assert.ErrorIs(t, err, errs.ErrHoldingNotFound)

	// nothing refunded and nothing accrues afterwards
	f.clock.Advance(48 * time.Hour)
	report, err := f.svc.AccrueDailyProfit(ctx)
	require.NoError(t, err)
	assert.Zero(t, report.Credits)
	assert.True(t, f.user(t, buyer.ID).Balance.IsZero())
}
