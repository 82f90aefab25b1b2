package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

// RegisterUserRequest is the body of POST /users
type RegisterUserRequest struct {
	FullName     string `json:"fullName" binding:"required,max=100"`
	Phone        string `json:"phone" binding:"required,numeric,min=11,max=14"`
	Email        string `json:"email" binding:"omitempty,email"`
	Role         string `json:"role" binding:"omitempty,oneof=user agent admin superadmin"`
	ReferralCode string `json:"referralCode" binding:"omitempty,max=16"`
	Pin          string `json:"pin" binding:"omitempty,numeric,min=4,max=6"`
}

// SetPinRequest is the body of PUT /users/:userId/pin
type SetPinRequest struct {
	Pin string `json:"pin" binding:"required,numeric,min=4,max=6"`
}

// SetActiveRequest toggles an account or a package
type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// UserQuery binds the admin user listing filters
type UserQuery struct {
	PageQuery
	Role   string `form:"role" binding:"omitempty,oneof=user agent admin superadmin"`
	Active *bool  `form:"active"`
	Search string `form:"search" binding:"max=100"`
}

// UserResponse is the API view of an account; the PIN hash never leaves the service
type UserResponse struct {
	ID              uuid.UUID   `json:"id"`
	FullName        string      `json:"fullName"`
	Phone           string      `json:"phone"`
	Email           string      `json:"email,omitempty"`
	AccountNumber   string      `json:"accountNumber"`
	ReferralCode    string      `json:"referralCode"`
	ReferrerID      *uuid.UUID  `json:"referrerId,omitempty"`
	Role            entity.Role `json:"role"`
	Balance         string      `json:"balance"`
	TotalDeposit    string      `json:"totalDeposit"`
	TotalWithdraw   string      `json:"totalWithdraw"`
	TotalInvestment string      `json:"totalInvestment"`
	TotalProfit     string      `json:"totalProfit"`
	HasPin          bool        `json:"hasPin"`
	IsActive        bool        `json:"isActive"`
	CreatedAt       time.Time   `json:"createdAt"`
}

// NewUserResponse maps a user entity
func NewUserResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Email:           u.Email,
		AccountNumber:   u.AccountNumber,
		ReferralCode:    u.ReferralCode,
		ReferrerID:      u.ReferrerID,
		Role:            u.Role,
		Balance:         entity.FormatAmount(u.Balance),
		TotalDeposit:    entity.FormatAmount(u.TotalDeposit),
		TotalWithdraw:   entity.FormatAmount(u.TotalWithdraw),
		TotalInvestment: entity.FormatAmount(u.TotalInvestment),
		TotalProfit:     entity.FormatAmount(u.TotalProfit),
		HasPin:          u.HasPin(),
		IsActive:        u.IsActive,
		CreatedAt:       u.CreatedAt,
	}
}

// SummaryResponse is a user's balance and lifetime totals
type SummaryResponse struct {
	UserID          uuid.UUID `json:"userId"`
	Balance         string    `json:"balance"`
	TotalDeposit    string    `json:"totalDeposit"`
	TotalWithdraw   string    `json:"totalWithdraw"`
	TotalInvestment string    `json:"totalInvestment"`
	TotalProfit     string    `json:"totalProfit"`
	ActiveHoldings  int64     `json:"activeHoldings"`
	PendingProfit   string    `json:"pendingProfit"`
}

// NewSummaryResponse maps a financial summary
func NewSummaryResponse(s *usecase.FinancialSummary) SummaryResponse {
	return SummaryResponse{
		UserID:          s.UserID,
		Balance:         entity.FormatAmount(s.Balance),
		TotalDeposit:    entity.FormatAmount(s.TotalDeposit),
		TotalWithdraw:   entity.FormatAmount(s.TotalWithdraw),
		TotalInvestment: entity.FormatAmount(s.TotalInvestment),
		TotalProfit:     entity.FormatAmount(s.TotalProfit),
		ActiveHoldings:  s.ActiveHoldings,
		PendingProfit:   entity.FormatAmount(s.PendingProfit),
	}
}

// ReconciliationResponse compares stored and recomputed balances
type ReconciliationResponse struct {
	UserID   uuid.UUID `json:"userId"`
	Stored   string    `json:"stored"`
	Computed string    `json:"computed"`
	Balanced bool      `json:"balanced"`
}

// NewReconciliationResponse maps a reconciliation result
func NewReconciliationResponse(r *usecase.Reconciliation) ReconciliationResponse {
	return ReconciliationResponse{
		UserID:   r.UserID,
		Stored:   entity.FormatAmount(r.Stored),
		Computed: entity.FormatAmount(r.Computed),
		Balanced: r.Balanced,
	}
}
