package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

// PaymentRequest is the body of a deposit or withdrawal request
type PaymentRequest struct {
	Amount         string                `json:"amount" binding:"required"`
	Method         string                `json:"method" binding:"required,oneof=bkash nagad rocket bank credit_card"`
	PaymentDetails entity.PaymentDetails `json:"paymentDetails"`
	Description    string                `json:"description" binding:"max=500"`
}

// ReviewRequest is an admin decision on a pending transaction
type ReviewRequest struct {
	Notes                string `json:"notes" binding:"max=1000"`
	GatewayTransactionID string `json:"gatewayTransactionId" binding:"max=64"`
}

// RejectRequest carries the reason for a rejection
type RejectRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

// TransactionQuery binds transaction listing filters
type TransactionQuery struct {
	PageQuery
	Type   string     `form:"type" binding:"omitempty,oneof=deposit withdrawal investment profit commission refund bonus"`
	Status string     `form:"status" binding:"omitempty,oneof=pending processing completed failed cancelled rejected"`
	Method string     `form:"method"`
	From   *time.Time `form:"from" time_format:"2006-01-02"`
	To     *time.Time `form:"to" time_format:"2006-01-02"`
}

// TransactionResponse is the API view of a transaction
type TransactionResponse struct {
	ID             uuid.UUID                  `json:"id"`
	UserID         uuid.UUID                  `json:"userId"`
	Reference      string                     `json:"reference"`
	Type           entity.TransactionType     `json:"type"`
	Status         entity.TransactionStatus   `json:"status"`
	Amount         string                     `json:"amount"`
	Charge         string                     `json:"charge"`
	NetAmount      string                     `json:"netAmount"`
	PaymentMethod  entity.PaymentMethod       `json:"paymentMethod"`
	PaymentDetails entity.PaymentDetails      `json:"paymentDetails"`
	Metadata       entity.TransactionMetadata `json:"metadata"`
	Description    string                     `json:"description,omitempty"`
	Notes          string                     `json:"notes,omitempty"`
	ProcessedBy    *uuid.UUID                 `json:"processedBy,omitempty"`
	ProcessedAt    *time.Time                 `json:"processedAt,omitempty"`
	CreatedAt      time.Time                  `json:"createdAt"`
	UpdatedAt      time.Time                  `json:"updatedAt"`
}

// NewTransactionResponse maps a transaction entity
func NewTransactionResponse(t *entity.Transaction) TransactionResponse {
	return TransactionResponse{
		ID:             t.ID,
		UserID:         t.UserID,
		Reference:      t.Reference,
		Type:           t.Type,
		Status:         t.Status,
		Amount:         entity.FormatAmount(t.Amount),
		Charge:         entity.FormatAmount(t.Charge),
		NetAmount:      entity.FormatAmount(t.NetAmount),
		PaymentMethod:  t.PaymentMethod,
		PaymentDetails: t.PaymentDetails,
		Metadata:       t.Metadata,
		Description:    t.Description,
		Notes:          t.Notes,
		ProcessedBy:    t.ProcessedBy,
		ProcessedAt:    t.ProcessedAt,
		CreatedAt:      t.CreatedAt,
		UpdatedAt:      t.UpdatedAt,
	}
}

// NewTransactionResponses maps a slice of transactions
func NewTransactionResponses(txns []*entity.Transaction) []TransactionResponse {
	out := make([]TransactionResponse, 0, len(txns))
	for _, t := range txns {
		out = append(out, NewTransactionResponse(t))
	}
	return out
}
