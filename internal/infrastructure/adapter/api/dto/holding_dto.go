package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

// PurchaseRequest is the body of POST /users/:userId/purchases
type PurchaseRequest struct {
	PackageID uuid.UUID `json:"packageId" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
	Pin       string    `json:"pin" binding:"required,numeric,min=4,max=6"`
}

// CancelHoldingRequest is the body of an admin holding cancellation
type CancelHoldingRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// HoldingQuery binds holding listing filters
type HoldingQuery struct {
	PageQuery
	Status    string `form:"status" binding:"omitempty,oneof=pending active completed cancelled"`
	PackageID string `form:"packageId" binding:"omitempty,uuid"`
}

// HoldingResponse is the API view of a holding
type HoldingResponse struct {
	ID             uuid.UUID            `json:"id"`
	UserID         uuid.UUID            `json:"userId"`
	PackageID      uuid.UUID            `json:"packageId"`
	PackageName    string               `json:"packageName"`
	PurchaseAmount string               `json:"purchaseAmount"`
	ExpectedProfit string               `json:"expectedProfit"`
	DailyProfit    string               `json:"dailyProfit"`
	ProfitPaid     string               `json:"profitPaid"`
	ProfitPending  string               `json:"profitPending"`
	Status         entity.HoldingStatus `json:"status"`
	StartDate      time.Time            `json:"startDate"`
	EndDate        time.Time            `json:"endDate"`
	LastProfitDate *time.Time           `json:"lastProfitDate,omitempty"`
	NextProfitDate time.Time            `json:"nextProfitDate"`
	TotalDays      int                  `json:"totalDays"`
	DaysRemaining  int                  `json:"daysRemaining"`
	TransactionID  uuid.UUID            `json:"transactionId"`
	Notes          string               `json:"notes,omitempty"`
}

// NewHoldingResponse maps a holding; days remaining are counted from now
func NewHoldingResponse(h *entity.Holding, now time.Time) HoldingResponse {
	return HoldingResponse{
		ID:             h.ID,
		UserID:         h.UserID,
		PackageID:      h.PackageID,
		PackageName:    h.PackageName,
		PurchaseAmount: entity.FormatAmount(h.PurchaseAmount),
		ExpectedProfit: entity.FormatAmount(h.ExpectedProfit),
		DailyProfit:    entity.FormatAmount(h.DailyProfit),
		ProfitPaid:     entity.FormatAmount(h.ProfitPaid),
		ProfitPending:  entity.FormatAmount(h.ProfitPending),
		Status:         h.Status,
		StartDate:      h.StartDate,
		EndDate:        h.EndDate,
		LastProfitDate: h.LastProfitDate,
		NextProfitDate: h.NextProfitDate,
		TotalDays:      h.TotalDays(),
		DaysRemaining:  h.DaysRemaining(now),
		TransactionID:  h.TransactionID,
		Notes:          h.Notes,
	}
}

// NewHoldingResponses maps a slice of holdings
func NewHoldingResponses(holdings []*entity.Holding, now time.Time) []HoldingResponse {
	out := make([]HoldingResponse, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, NewHoldingResponse(h, now))
	}
	return out
}

// PurchaseResponse is the outcome of a purchase
type PurchaseResponse struct {
	Funding    TransactionResponse  `json:"funding"`
	Holdings   []HoldingResponse    `json:"holdings"`
	Commission *TransactionResponse `json:"commission,omitempty"`
}

// NewPurchaseResponse maps a purchase result
func NewPurchaseResponse(r *usecase.PurchaseResult, now time.Time) PurchaseResponse {
	resp := PurchaseResponse{
		Funding:  NewTransactionResponse(r.Funding),
		Holdings: NewHoldingResponses(r.Holdings, now),
	}
	if r.Commission != nil {
		c := NewTransactionResponse(r.Commission)
		resp.Commission = &c
	}
	return resp
}

// AccrualFailureResponse names a holding a pass could not credit
type AccrualFailureResponse struct {
	HoldingID uuid.UUID `json:"holdingId"`
	Error     string    `json:"error"`
}

// AccrualReportResponse summarizes an accrual pass
type AccrualReportResponse struct {
	StartedAt       time.Time                `json:"startedAt"`
	FinishedAt      time.Time                `json:"finishedAt"`
	HoldingsScanned int                      `json:"holdingsScanned"`
	Credits         int                      `json:"credits"`
	Resumed         int                      `json:"resumed"`
	Matured         int                      `json:"matured"`
	TotalCredited   string                   `json:"totalCredited"`
	Failures        []AccrualFailureResponse `json:"failures"`
}

// NewAccrualReportResponse maps an accrual report
func NewAccrualReportResponse(r *usecase.AccrualReport) AccrualReportResponse {
	failures := make([]AccrualFailureResponse, 0, len(r.Failures))
	for _, f := range r.Failures {
		failures = append(failures, AccrualFailureResponse{HoldingID: f.HoldingID, Error: f.Error})
	}
	return AccrualReportResponse{
		StartedAt:       r.StartedAt,
		FinishedAt:      r.FinishedAt,
		HoldingsScanned: r.HoldingsScanned,
		Credits:         r.Credits,
		Resumed:         r.Resumed,
		Matured:         r.Matured,
		TotalCredited:   entity.FormatAmount(r.TotalCredited),
		Failures:        failures,
	}
}
