package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// RegisterUserRequest creates an account, optionally under a referrer
type RegisterUserRequest struct {
	FullName     string
	Phone        string
	Email        string
	Role         entity.Role
	ReferralCode string
	Pin          string
}

// FinancialSummary is a user's balance and lifetime totals
type FinancialSummary struct {
	UserID          uuid.UUID
	Balance         decimal.Decimal
	TotalDeposit    decimal.Decimal
	TotalWithdraw   decimal.Decimal
	TotalInvestment decimal.Decimal
	TotalProfit     decimal.Decimal
	ActiveHoldings  int64
	PendingProfit   decimal.Decimal
}

// Reconciliation compares a stored balance with the balance implied by history
type Reconciliation struct {
	UserID   uuid.UUID
	Stored   decimal.Decimal
	Computed decimal.Decimal
	Balanced bool
}

// UserUseCase defines account operations
type UserUseCase interface {
	RegisterUser(ctx context.Context, req RegisterUserRequest) (*entity.User, error)
	GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error)
	ListUsers(ctx context.Context, filter persistence.UserFilter) ([]*entity.User, int64, error)
	GetFinancialSummary(ctx context.Context, id uuid.UUID) (*FinancialSummary, error)
	SetPin(ctx context.Context, id uuid.UUID, pin string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) (*entity.User, error)
	ReconcileBalance(ctx context.Context, id uuid.UUID) (*Reconciliation, error)
}
