package usecase

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// TransactionPage is one page of a transaction listing
type TransactionPage struct {
	Transactions []*entity.Transaction
	Total        int64
	Page         int
	Limit        int
}

// DashboardStats is the admin overview of the ledger
type DashboardStats struct {
	TotalUsers         int64
	ActiveUsers        int64
	TotalDeposits      decimal.Decimal
	TotalWithdrawals   decimal.Decimal
	TotalInvestments   decimal.Decimal
	TotalProfitPaid    decimal.Decimal
	PendingDeposits    int64
	PendingWithdrawals int64
	ActiveHoldings     int64
	CompletedByType    map[entity.TransactionType]decimal.Decimal
}

// LedgerQueryUseCase exposes read-only views of the transaction history
type LedgerQueryUseCase interface {
	GetTransaction(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)
	GetTransactionByReference(ctx context.Context, reference string) (*entity.Transaction, error)
	ListTransactions(ctx context.Context, filter persistence.TransactionFilter) (*TransactionPage, error)
	ListPending(ctx context.Context, txnType entity.TransactionType, limit int) ([]*entity.Transaction, error)
	Summarize(ctx context.Context, filter persistence.TransactionFilter) ([]persistence.TransactionAggregate, error)
	Dashboard(ctx context.Context) (*DashboardStats, error)
}
