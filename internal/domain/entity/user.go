package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

// Role is a user's permission level
type Role string

// Roles
const (
	RoleUser       Role = "user"
	RoleAgent      Role = "agent"
	RoleAdmin      Role = "admin"
	RoleSuperAdmin Role = "superadmin"
)

// IsValid reports whether r is a known role
func (r Role) IsValid() bool {
	switch r {
	case RoleUser, RoleAgent, RoleAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// IsStaff reports whether r may process deposits and withdrawals
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// User represents an account holder and their financial summary
type User struct {
	ID              uuid.UUID
	FullName        string
	Phone           string
	Email           string
	AccountNumber   string
	ReferralCode    string
	ReferrerID      *uuid.UUID // weak reference, the referrer may be deactivated
	Role            Role
	Balance         decimal.Decimal
	TotalDeposit    decimal.Decimal
	TotalWithdraw   decimal.Decimal
	TotalInvestment decimal.Decimal
	TotalProfit     decimal.Decimal
	PinHash         string
	IsActive        bool
	Version         int64
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// NewUserParams holds registration data
type NewUserParams struct {
	FullName   string `validate:"required,max=100"`
	Phone      string `validate:"required,numeric,min=11,max=14"`
	Email      string `validate:"omitempty,email"`
	Role       Role
	ReferrerID *uuid.UUID
}

// NewUser creates an active user with a zero balance
func NewUser(p NewUserParams, now time.Time) (*User, error) {
	if err := validate.Struct(p); err != nil {
		return nil, errs.NewValidationError("user", err.Error(), nil)
	}

	role := p.Role
	if role == "" {
		role = RoleUser
	}
	if !role.IsValid() {
		return nil, errs.NewValidationError("role", "unknown role "+string(role), nil)
	}

	return &User{
		ID:            uuid.New(),
		FullName:      p.FullName,
		Phone:         p.Phone,
		Email:         p.Email,
		AccountNumber: GenerateAccountNumber(now),
		ReferralCode:  GenerateReferralCode(),
		ReferrerID:    p.ReferrerID,
		Role:          role,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// CanAfford checks if the balance covers amount
func (u *User) CanAfford(amount decimal.Decimal) bool {
	return u.Balance.GreaterThanOrEqual(amount)
}

// HasPin reports whether a transaction PIN has been set
func (u *User) HasPin() bool {
	return u.PinHash != ""
}

// ApplyTransaction applies the balance effect of a completed transaction.
// Refunds carry no automatic balance effect; compensation is an explicit credit.
func (u *User) ApplyTransaction(txn *Transaction, now time.Time) error {
	amount := txn.Amount

	switch txn.Type {
	case TypeDeposit:
		u.Balance = u.Balance.Add(amount)
		u.TotalDeposit = u.TotalDeposit.Add(amount)
	case TypeWithdrawal:
		if !u.CanAfford(amount) {
			return errs.NewValidationError("amount", "balance "+FormatAmount(u.Balance)+" does not cover "+FormatAmount(amount), errs.ErrInsufficientBalance)
		}
		u.Balance = u.Balance.Sub(amount)
		u.TotalWithdraw = u.TotalWithdraw.Add(amount)
	case TypeInvestment:
		if !u.CanAfford(amount) {
			return errs.NewValidationError("amount", "balance "+FormatAmount(u.Balance)+" does not cover "+FormatAmount(amount), errs.ErrInsufficientBalance)
		}
		u.Balance = u.Balance.Sub(amount)
		u.TotalInvestment = u.TotalInvestment.Add(amount)
	case TypeProfit, TypeCommission, TypeBonus:
		u.Balance = u.Balance.Add(amount)
		u.TotalProfit = u.TotalProfit.Add(amount)
	case TypeRefund:
		return nil
	default:
		return errs.NewValidationError("type", "unknown transaction type "+string(txn.Type), nil)
	}

	u.UpdatedAt = now
	return nil
}

// Deactivate soft-deletes the user; balances and history are kept
func (u *User) Deactivate(now time.Time) {
	u.IsActive = false
	u.UpdatedAt = now
}

// Activate re-enables a deactivated user
func (u *User) Activate(now time.Time) {
	u.IsActive = true
	u.UpdatedAt = now
}

// SetPinHash replaces the stored transaction PIN hash
func (u *User) SetPinHash(hash string, now time.Time) {
	u.PinHash = hash
	u.UpdatedAt = now
}
