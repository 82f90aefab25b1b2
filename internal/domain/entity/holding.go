package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

// HoldingStatus is the lifecycle state of a purchased package unit
type HoldingStatus string

// Holding statuses
const (
	HoldingPending   HoldingStatus = "pending"
	HoldingActive    HoldingStatus = "active"
	HoldingCompleted HoldingStatus = "completed"
	HoldingCancelled HoldingStatus = "cancelled"
)

const day = 24 * time.Hour

// CommissionRecord notes the referral commission share paid for a holding
type CommissionRecord struct {
	Amount decimal.Decimal
	PaidTo uuid.UUID
	PaidAt time.Time
}

// Holding is one unit of a purchased package with its own accrual schedule.
// ProfitPaid + ProfitPending always equals ExpectedProfit.
type Holding struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	PackageID      uuid.UUID
	PackageName    string
	PurchaseAmount decimal.Decimal
	ExpectedProfit decimal.Decimal
	DailyProfit    decimal.Decimal
	StartDate      time.Time
	EndDate        time.Time
	Status         HoldingStatus
	ProfitPaid     decimal.Decimal
	ProfitPending  decimal.Decimal
	LastProfitDate *time.Time
	NextProfitDate time.Time
	TransactionID  uuid.UUID
	AutoRenew      bool
	Commission     *CommissionRecord
	Notes          string
	Version        int64
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewHolding creates an active holding for one unit of pkg funded by txnID.
// The end date is fixed here and does not follow later package edits.
func NewHolding(userID uuid.UUID, pkg *Package, txnID uuid.UUID, now time.Time) *Holding {
	return &Holding{
		ID:             uuid.New(),
		UserID:         userID,
		PackageID:      pkg.ID,
		PackageName:    pkg.Name,
		PurchaseAmount: pkg.Price,
		ExpectedProfit: pkg.ProfitAmount,
		DailyProfit:    pkg.DailyProfit,
		StartDate:      now,
		EndDate:        now.AddDate(0, 0, pkg.DurationDays),
		Status:         HoldingActive,
		ProfitPaid:     decimal.Zero,
		ProfitPending:  pkg.ProfitAmount,
		NextProfitDate: now.AddDate(0, 0, 1),
		TransactionID:  txnID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsDue reports whether a profit credit is owed at now
func (h *Holding) IsDue(now time.Time) bool {
	return h.Status == HoldingActive && h.ProfitPending.IsPositive() && !h.NextProfitDate.After(now)
}

// NextCredit returns the amount of the next profit credit. The credit dated
// on or after the end date pays out whatever is still pending.
func (h *Holding) NextCredit() decimal.Decimal {
	if !h.NextProfitDate.Before(h.EndDate) {
		return h.ProfitPending
	}
	return MinAmount(h.DailyProfit, h.ProfitPending)
}

// ApplyProfit books a profit credit for the scheduled date and advances the schedule by a day
func (h *Holding) ApplyProfit(amount decimal.Decimal, now time.Time) error {
	if h.Status != HoldingActive {
		return errs.NewInvalidTransitionError("holding", h.ID.String(), string(h.Status), "profit")
	}
	if !amount.IsPositive() || amount.GreaterThan(h.ProfitPending) {
		return errs.NewValidationError("amount", "profit credit must be positive and within the pending profit", errs.ErrInvalidAmount)
	}

	profitDate := h.NextProfitDate
	h.ProfitPending = h.ProfitPending.Sub(amount)
	h.ProfitPaid = h.ProfitPaid.Add(amount)
	h.LastProfitDate = &profitDate
	h.NextProfitDate = profitDate.AddDate(0, 0, 1)
	h.UpdatedAt = now

	if h.CanMature(now) {
		h.Status = HoldingCompleted
	}
	return nil
}

// CanMature reports whether the holding has paid out and reached its end date
func (h *Holding) CanMature(now time.Time) bool {
	return h.Status == HoldingActive && h.ProfitPending.IsZero() && !now.Before(h.EndDate)
}

// Complete moves a fully paid, matured holding to completed
func (h *Holding) Complete(now time.Time) error {
	if !h.CanMature(now) {
		return errs.NewInvalidTransitionError("holding", h.ID.String(), string(h.Status), string(HoldingCompleted))
	}
	h.Status = HoldingCompleted
	h.UpdatedAt = now
	return nil
}

// Cancel stops accrual. Principal and pending profit are not refunded.
func (h *Holding) Cancel(reason string, now time.Time) error {
	if h.Status != HoldingActive {
		return errs.NewInvalidTransitionError("holding", h.ID.String(), string(h.Status), string(HoldingCancelled))
	}
	h.Status = HoldingCancelled
	if reason != "" {
		h.Notes = reason
	}
	h.UpdatedAt = now
	return nil
}

// RecordCommission stamps the commission share paid on this holding
func (h *Holding) RecordCommission(amount decimal.Decimal, paidTo uuid.UUID, now time.Time) {
	h.Commission = &CommissionRecord{Amount: amount, PaidTo: paidTo, PaidAt: now}
	h.UpdatedAt = now
}

// TotalDays is the length of the holding's term in days
func (h *Holding) TotalDays() int {
	return int(h.EndDate.Sub(h.StartDate) / day)
}

// DaysRemaining is the number of whole or partial days until the end date, never negative
func (h *Holding) DaysRemaining(now time.Time) int {
	if !now.Before(h.EndDate) {
		return 0
	}
	remaining := h.EndDate.Sub(now)
	days := int(remaining / day)
	if remaining%day != 0 {
		days++
	}
	return days
}
