package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

// DepositRequest is a user's claim to have sent money through an external channel
type DepositRequest struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Method         entity.PaymentMethod
	PaymentDetails entity.PaymentDetails
	Description    string
}

// VerifyDepositRequest confirms a pending deposit
type VerifyDepositRequest struct {
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Notes         string
	// GatewayTransactionID identifies the confirmed payment; a repeated
	// verification carrying the same id is answered as a no-op success
	GatewayTransactionID string
}

// WithdrawalRequest asks for money to be paid out to an external destination
type WithdrawalRequest struct {
	UserID         uuid.UUID
	Amount         decimal.Decimal
	Method         entity.PaymentMethod
	PaymentDetails entity.PaymentDetails
	Description    string
}

// ProcessWithdrawalRequest completes a pending withdrawal
type ProcessWithdrawalRequest struct {
	TransactionID  uuid.UUID
	AdminID        uuid.UUID
	Notes          string
	IdempotencyKey string
}

// RejectRequest refuses a pending deposit or withdrawal
type RejectRequest struct {
	TransactionID uuid.UUID
	AdminID       uuid.UUID
	Reason        string
}

// PaymentUseCase defines the deposit and withdrawal flows
type PaymentUseCase interface {
	// CreateDeposit records a pending deposit
	CreateDeposit(ctx context.Context, req DepositRequest) (*entity.Transaction, error)

	// VerifyDeposit completes a pending deposit and credits the balance
	VerifyDeposit(ctx context.Context, req VerifyDepositRequest) (*entity.Transaction, error)

	// RejectDeposit refuses a pending deposit
	RejectDeposit(ctx context.Context, req RejectRequest) (*entity.Transaction, error)

	// CreateWithdrawal records a pending withdrawal after limit checks; the balance is untouched
	CreateWithdrawal(ctx context.Context, req WithdrawalRequest) (*entity.Transaction, error)

	// MarkWithdrawalProcessing flags a pending withdrawal as handed to a payment gateway
	MarkWithdrawalProcessing(ctx context.Context, txnID, adminID uuid.UUID) (*entity.Transaction, error)

	// ProcessWithdrawal completes a withdrawal and debits the balance
	ProcessWithdrawal(ctx context.Context, req ProcessWithdrawalRequest) (*entity.Transaction, error)

	// RejectWithdrawal refuses a pending withdrawal without any balance effect
	RejectWithdrawal(ctx context.Context, req RejectRequest) (*entity.Transaction, error)

	// CancelTransaction cancels the caller's own pending deposit or withdrawal
	CancelTransaction(ctx context.Context, txnID, userID uuid.UUID) (*entity.Transaction, error)
}
