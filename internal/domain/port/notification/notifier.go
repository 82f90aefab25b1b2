package notification

import (
	"context"

	"github.com/google/uuid"
)

// Kind names the event a notification reports
type Kind string

// Notification kinds
const (
	KindDepositVerified     Kind = "deposit_verified"
	KindDepositRejected     Kind = "deposit_rejected"
	KindWithdrawalProcessed Kind = "withdrawal_processed"
	KindWithdrawalRejected  Kind = "withdrawal_rejected"
	KindProfitCredited      Kind = "profit_credited"
	KindCommissionCredited  Kind = "commission_credited"
	KindPurchaseCompleted   Kind = "purchase_completed"
)

// Notification is a channel agnostic message for one user
type Notification struct {
	UserID  uuid.UUID
	Kind    Kind
	Title   string
	Message string
}

// Notifier delivers notifications. Callers never wait on delivery for ledger correctness.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}
