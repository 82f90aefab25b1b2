package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

// TransactionType classifies a money movement
type TransactionType string

// Transaction types
const (
	TypeDeposit    TransactionType = "deposit"
	TypeWithdrawal TransactionType = "withdrawal"
	TypeInvestment TransactionType = "investment"
	TypeProfit     TransactionType = "profit"
	TypeCommission TransactionType = "commission"
	TypeRefund     TransactionType = "refund"
	TypeBonus      TransactionType = "bonus"
)

// IsValid reports whether t is a known transaction type
func (t TransactionType) IsValid() bool {
	switch t {
	case TypeDeposit, TypeWithdrawal, TypeInvestment, TypeProfit, TypeCommission, TypeRefund, TypeBonus:
		return true
	}
	return false
}

// IsCredit returns true if a completed transaction of this type increases the balance
func (t TransactionType) IsCredit() bool {
	switch t {
	case TypeDeposit, TypeProfit, TypeCommission, TypeBonus:
		return true
	}
	return false
}

// IsDebit returns true if a completed transaction of this type decreases the balance
func (t TransactionType) IsDebit() bool {
	return t == TypeWithdrawal || t == TypeInvestment
}

// IsSystemGenerated reports whether records of this type are created already completed
func (t TransactionType) IsSystemGenerated() bool {
	return t == TypeProfit || t == TypeCommission || t == TypeBonus
}

// TransactionStatus defines possible status values for a transaction
type TransactionStatus string

// TransactionStatus constants
const (
	StatusPending    TransactionStatus = "pending"
	StatusProcessing TransactionStatus = "processing"
	StatusCompleted  TransactionStatus = "completed"
	StatusFailed     TransactionStatus = "failed"
	StatusCancelled  TransactionStatus = "cancelled"
	StatusRejected   TransactionStatus = "rejected"
)

var transactionTransitions = map[TransactionStatus][]TransactionStatus{
	StatusPending:    {StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusRejected},
	StatusProcessing: {StatusCompleted, StatusFailed, StatusRejected},
}

// IsValid reports whether s is a known status
func (s TransactionStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed, StatusCancelled, StatusRejected:
		return true
	}
	return false
}

// IsTerminal reports whether no further transition is allowed from s
func (s TransactionStatus) IsTerminal() bool {
	_, ok := transactionTransitions[s]
	return !ok
}

// CanTransitionTo reports whether the state machine allows s -> next
func (s TransactionStatus) CanTransitionTo(next TransactionStatus) bool {
	for _, allowed := range transactionTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// PaymentMethod is the channel a transaction moves money through
type PaymentMethod string

// Payment methods
const (
	MethodBkash      PaymentMethod = "bkash"
	MethodNagad      PaymentMethod = "nagad"
	MethodRocket     PaymentMethod = "rocket"
	MethodBank       PaymentMethod = "bank"
	MethodCreditCard PaymentMethod = "credit_card"
	MethodWallet     PaymentMethod = "wallet"
	MethodSystem     PaymentMethod = "system"
)

// Channel returns the payment details variant expected for the method, or "" if unknown
func (m PaymentMethod) Channel() PaymentChannel {
	switch m {
	case MethodBkash, MethodNagad, MethodRocket:
		return ChannelMobile
	case MethodBank:
		return ChannelBank
	case MethodCreditCard:
		return ChannelCard
	case MethodWallet, MethodSystem:
		return ChannelNone
	}
	return ""
}

// IsExternal reports whether the method moves money outside the platform
func (m PaymentMethod) IsExternal() bool {
	switch m.Channel() {
	case ChannelMobile, ChannelBank, ChannelCard:
		return true
	}
	return false
}

// TransactionMetadata links a transaction to the records it concerns
type TransactionMetadata struct {
	PackageID         *uuid.UUID `json:"packageId,omitempty"`
	HoldingID         *uuid.UUID `json:"holdingId,omitempty"`
	ProfitDate        *time.Time `json:"profitDate,omitempty"`
	Quantity          int        `json:"quantity,omitempty"`
	ReferredUserID    *uuid.UUID `json:"referredUserId,omitempty"`
	WithdrawRequestID string     `json:"withdrawRequestId,omitempty"`
}

// Transaction represents a money movement. Amount and type never change after creation.
type Transaction struct {
	ID               uuid.UUID
	UserID           uuid.UUID
	Type             TransactionType
	Amount           decimal.Decimal
	Charge           decimal.Decimal
	NetAmount        decimal.Decimal
	Status           TransactionStatus
	PaymentMethod    PaymentMethod
	PaymentDetails   PaymentDetails
	Metadata         TransactionMetadata
	Description      string
	Reference        string
	ProcessedBy      *uuid.UUID
	ProcessedAt      *time.Time
	Notes            string
	BalanceAppliedAt *time.Time // set once by the balance mutator
	CompletionKey    string     // idempotency key of the request that completed it
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewTransactionParams holds the immutable intent of a transaction
type NewTransactionParams struct {
	UserID         uuid.UUID
	Type           TransactionType
	Amount         decimal.Decimal
	Charge         decimal.Decimal
	PaymentMethod  PaymentMethod
	PaymentDetails PaymentDetails
	Metadata       TransactionMetadata
	Description    string
}

// NewTransaction validates params and returns a pending transaction without a reference
func NewTransaction(p NewTransactionParams, now time.Time) (*Transaction, error) {
	if p.UserID == uuid.Nil {
		return nil, errs.NewValidationError("userId", "user id is required", nil)
	}
	if !p.Type.IsValid() {
		return nil, errs.NewValidationError("type", "unknown transaction type "+string(p.Type), nil)
	}
	if !p.Amount.IsPositive() {
		return nil, errs.NewValidationError("amount", "amount must be greater than zero", errs.ErrInvalidAmount)
	}
	if !p.Amount.Equal(RoundMoney(p.Amount)) {
		return nil, errs.NewValidationError("amount", "amount has more than two decimal places", errs.ErrInvalidAmount)
	}
	if p.Charge.IsNegative() {
		return nil, errs.NewValidationError("charge", "charge cannot be negative", errs.ErrInvalidAmount)
	}
	if err := p.PaymentDetails.Validate(p.PaymentMethod); err != nil {
		return nil, err
	}

	txn := &Transaction{
		ID:             uuid.New(),
		UserID:         p.UserID,
		Type:           p.Type,
		Amount:         p.Amount,
		Charge:         p.Charge,
		Status:         StatusPending,
		PaymentMethod:  p.PaymentMethod,
		PaymentDetails: p.PaymentDetails,
		Metadata:       p.Metadata,
		Description:    p.Description,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if p.Type == TypeWithdrawal {
		txn.NetAmount = p.Amount.Sub(p.Charge)
		if !txn.NetAmount.IsPositive() {
			return nil, errs.NewValidationError("netAmount", "charge leaves nothing to pay out", errs.ErrInvalidAmount)
		}
	} else {
		txn.NetAmount = p.Amount
	}

	return txn, nil
}

// TransitionTo moves the transaction to next, recording the actor and notes.
// It does not touch balances; see the ledger service for completion.
func (t *Transaction) TransitionTo(next TransactionStatus, actor *uuid.UUID, notes string, now time.Time) error {
	if !next.IsValid() || !t.Status.CanTransitionTo(next) {
		return errs.NewInvalidTransitionError("transaction", t.ID.String(), string(t.Status), string(next))
	}

	t.Status = next
	if actor != nil {
		t.ProcessedBy = actor
	}
	if notes != "" {
		t.Notes = notes
	}
	if next.IsTerminal() || next == StatusProcessing {
		t.ProcessedAt = &now
	}
	t.UpdatedAt = now
	return nil
}

// IsBalanceApplied reports whether the balance mutator already ran for this transaction
func (t *Transaction) IsBalanceApplied() bool {
	return t.BalanceAppliedAt != nil
}

// MarkBalanceApplied records that the balance effect happened
func (t *Transaction) MarkBalanceApplied(now time.Time) {
	t.BalanceAppliedAt = &now
}
