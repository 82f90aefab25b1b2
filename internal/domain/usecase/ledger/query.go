package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

// Paging defaults
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// AvailableBalance is the user's balance less withdrawals still awaiting
// completion. Call it inside the unit of work that spends the funds.
func (s *Service) AvailableBalance(ctx context.Context, user *entity.User) (decimal.Decimal, error) {
	reserved, err := s.uow.GetTransactionRepository(ctx).Sum(ctx, persistence.TransactionFilter{
		UserID:   &user.ID,
		Types:    []entity.TransactionType{entity.TypeWithdrawal},
		Statuses: []entity.TransactionStatus{entity.StatusPending, entity.StatusProcessing},
	})
	if err != nil {
		return decimal.Zero, err
	}

	available := user.Balance
	for _, agg := range reserved {
		available = available.Sub(agg.Total)
	}
	return available, nil
}

// GetTransaction returns a transaction by id
func (s *Service) GetTransaction(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return s.uow.GetTransactionRepository(ctx).GetByID(ctx, id)
}

// GetTransactionByReference returns a transaction by reference code
func (s *Service) GetTransactionByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	return s.uow.GetTransactionRepository(ctx).GetByReference(ctx, reference)
}

// ListTransactions returns one page of matching transactions, newest first unless asked otherwise
func (s *Service) ListTransactions(ctx context.Context, filter persistence.TransactionFilter) (*usecase.TransactionPage, error) {
	filter.Page, filter.Limit = normalizePage(filter.Page, filter.Limit)

	txns, total, err := s.uow.GetTransactionRepository(ctx).List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &usecase.TransactionPage{
		Transactions: txns,
		Total:        total,
		Page:         filter.Page,
		Limit:        filter.Limit,
	}, nil
}

// ListPending returns the oldest pending transactions of txnType, the admin work queue
func (s *Service) ListPending(ctx context.Context, txnType entity.TransactionType, limit int) ([]*entity.Transaction, error) {
	_, limit = normalizePage(1, limit)
	filter := persistence.TransactionFilter{
		Statuses:    []entity.TransactionStatus{entity.StatusPending, entity.StatusProcessing},
		OldestFirst: true,
		Page:        1,
		Limit:       limit,
	}
	if txnType != "" {
		filter.Types = []entity.TransactionType{txnType}
	}

	txns, _, err := s.uow.GetTransactionRepository(ctx).List(ctx, filter)
	return txns, err
}

// Summarize aggregates matching transactions by type and status
func (s *Service) Summarize(ctx context.Context, filter persistence.TransactionFilter) ([]persistence.TransactionAggregate, error) {
	return s.uow.GetTransactionRepository(ctx).Sum(ctx, filter)
}

// Dashboard gathers the admin overview
func (s *Service) Dashboard(ctx context.Context) (*usecase.DashboardStats, error) {
	counts, err := s.uow.GetUserRepository(ctx).Count(ctx)
	if err != nil {
		return nil, err
	}

	aggregates, err := s.uow.GetTransactionRepository(ctx).Sum(ctx, persistence.TransactionFilter{})
	if err != nil {
		return nil, err
	}

	_, activeHoldings, err := s.uow.GetHoldingRepository(ctx).List(ctx, persistence.HoldingFilter{
		Statuses: []entity.HoldingStatus{entity.HoldingActive},
		Page:     1,
		Limit:    1,
	})
	if err != nil {
		return nil, err
	}

	stats := &usecase.DashboardStats{
		TotalUsers:      counts.Total,
		ActiveUsers:     counts.Active,
		ActiveHoldings:  activeHoldings,
		CompletedByType: make(map[entity.TransactionType]decimal.Decimal),
	}

	for _, agg := range aggregates {
		switch agg.Status {
		case entity.StatusCompleted:
			stats.CompletedByType[agg.Type] = stats.CompletedByType[agg.Type].Add(agg.Total)
		case entity.StatusPending, entity.StatusProcessing:
			switch agg.Type {
			case entity.TypeDeposit:
				stats.PendingDeposits += agg.Count
			case entity.TypeWithdrawal:
				stats.PendingWithdrawals += agg.Count
			}
		}
	}

	stats.TotalDeposits = stats.CompletedByType[entity.TypeDeposit]
	stats.TotalWithdrawals = stats.CompletedByType[entity.TypeWithdrawal]
	stats.TotalInvestments = stats.CompletedByType[entity.TypeInvestment]
	stats.TotalProfitPaid = stats.CompletedByType[entity.TypeProfit]

	return stats, nil
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}
