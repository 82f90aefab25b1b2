package entity

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

func newTestPackage(price, profit int64, days int) *Package {
	pkg := &Package{
		ID:           uuid.New(),
		Name:         "Test",
		Price:        decimal.NewFromInt(price),
		ProfitAmount: decimal.NewFromInt(profit),
		DurationDays: days,
		IsActive:     true,
	}
	pkg.Recalculate()
	return pkg
}

func assertProfitInvariant(t *testing.T, h *Holding) {
	t.Helper()
	assert.True(t, h.ProfitPaid.Add(h.ProfitPending).Equal(h.ExpectedProfit),
		"paid %s + pending %s != expected %s", h.ProfitPaid, h.ProfitPending, h.ExpectedProfit)
}

func TestNewHolding(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pkg := newTestPackage(1000, 150, 5)

	h := NewHolding(uuid.New(), pkg, uuid.New(), start)

	assert.Equal(t, HoldingActive, h.Status)
	assert.Equal(t, "1000.00", FormatAmount(h.PurchaseAmount))
	assert.Equal(t, "30.00", FormatAmount(h.DailyProfit))
	assert.Equal(t, "150.00", FormatAmount(h.ProfitPending))
	assert.Equal(t, start.AddDate(0, 0, 5), h.EndDate)
	assert.Equal(t, start.AddDate(0, 0, 1), h.NextProfitDate)
	assert.Equal(t, 5, h.TotalDays())
	assert.Equal(t, 5, h.DaysRemaining(start))
	assertProfitInvariant(t, h)

	pkg.DurationDays = 30
	assert.Equal(t, start.AddDate(0, 0, 5), h.EndDate, "end date is fixed at creation")
}

func TestHoldingAccrualSchedule(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h := NewHolding(uuid.New(), newTestPackage(1000, 150, 5), uuid.New(), start)

	assert.False(t, h.IsDue(start))

	for n := 1; n <= 5; n++ {
		now := start.AddDate(0, 0, n)
		require.True(t, h.IsDue(now), "day %d", n)
		require.NoError(t, h.ApplyProfit(h.NextCredit(), now))
		assertProfitInvariant(t, h)
		assert.Equal(t, now, *h.LastProfitDate)
		assert.False(t, h.IsDue(now))
	}

	assert.Equal(t, HoldingCompleted, h.Status)
	assert.True(t, h.ProfitPending.IsZero())
	assert.Equal(t, "150.00", FormatAmount(h.ProfitPaid))
}

func TestHoldingLastCreditIsCappedByPending(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pkg := newTestPackage(300, 200, 3)
	require.Equal(t, "66.67", FormatAmount(pkg.DailyProfit))
	h := NewHolding(uuid.New(), pkg, uuid.New(), start)

	credits := []string{}
	for n := 1; h.Status == HoldingActive; n++ {
		now := start.AddDate(0, 0, n)
		credit := h.NextCredit()
		credits = append(credits, FormatAmount(credit))
		require.NoError(t, h.ApplyProfit(credit, now))
		assertProfitInvariant(t, h)
	}

	assert.Equal(t, []string{"66.67", "66.67", "66.66"}, credits)
	assert.Equal(t, HoldingCompleted, h.Status)
}

func TestHoldingRemainderIsPaidOnTheLastDay(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	pkg := newTestPackage(500, 100, 3)
	require.Equal(t, "33.33", FormatAmount(pkg.DailyProfit))
	h := NewHolding(uuid.New(), pkg, uuid.New(), start)

	credits := []string{}
	for n := 1; h.Status == HoldingActive; n++ {
		now := start.AddDate(0, 0, n)
		require.False(t, now.After(h.EndDate), "credit on day %d is past the end date", n)
		credit := h.NextCredit()
		credits = append(credits, FormatAmount(credit))
		require.NoError(t, h.ApplyProfit(credit, now))
		assertProfitInvariant(t, h)
	}

	assert.Equal(t, []string{"33.33", "33.33", "33.34"}, credits)
	assert.Equal(t, h.EndDate, *h.LastProfitDate)
}

func TestHoldingMaturesOnlyAfterEndDate(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h := NewHolding(uuid.New(), newTestPackage(100, 10, 5), uuid.New(), start)

	// a single oversized credit pays everything before the end date
	require.NoError(t, h.ApplyProfit(decimal.NewFromInt(10), start.AddDate(0, 0, 1)))
	assert.Equal(t, HoldingActive, h.Status)
	assert.False(t, h.IsDue(start.AddDate(0, 0, 2)))

	assert.Error(t, h.Complete(start.AddDate(0, 0, 4)))
	require.NoError(t, h.Complete(start.AddDate(0, 0, 5)))
	assert.Equal(t, HoldingCompleted, h.Status)
}

func TestHoldingApplyProfitRejectsOverpayment(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h := NewHolding(uuid.New(), newTestPackage(1000, 150, 5), uuid.New(), start)

	err := h.ApplyProfit(decimal.NewFromInt(151), start.AddDate(0, 0, 1))
	assert.True(t, errs.IsValidationError(err))
	assertProfitInvariant(t, h)
	assert.True(t, h.ProfitPaid.IsZero())
}

func TestHoldingCancel(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h := NewHolding(uuid.New(), newTestPackage(1000, 150, 5), uuid.New(), start)

	require.NoError(t, h.Cancel("requested by user", start.Add(time.Hour)))
	assert.Equal(t, HoldingCancelled, h.Status)
	assert.Equal(t, "requested by user", h.Notes)
	assert.Equal(t, "150.00", FormatAmount(h.ProfitPending), "pending profit is not refunded")
	assert.False(t, h.IsDue(start.AddDate(0, 0, 2)))

	err := h.Cancel("again", start.Add(2*time.Hour))
	assert.True(t, errs.IsInvalidTransitionError(err))

	err = h.ApplyProfit(decimal.NewFromInt(30), start.AddDate(0, 0, 1))
	assert.True(t, errs.IsInvalidTransitionError(err))
}

func TestHoldingDaysRemaining(t *testing.T) {
	start := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	h := NewHolding(uuid.New(), newTestPackage(1000, 150, 5), uuid.New(), start)

	assert.Equal(t, 4, h.DaysRemaining(start.Add(25*time.Hour)))
	assert.Equal(t, 1, h.DaysRemaining(start.AddDate(0, 0, 5).Add(-time.Minute)))
	assert.Equal(t, 0, h.DaysRemaining(start.AddDate(0, 0, 6)))
}
