package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
)

// GetFinancialSummary returns the user's balance, lifetime totals and the
// profit still owed by their active holdings
func (u *UserUseCase) GetFinancialSummary(ctx context.Context, id uuid.UUID) (*usecase.FinancialSummary, error) {
	user, err := u.uow.GetUserRepository(ctx).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	summary := &usecase.FinancialSummary{
		UserID:          user.ID,
		Balance:         user.Balance,
		TotalDeposit:    user.TotalDeposit,
		TotalWithdraw:   user.TotalWithdraw,
		TotalInvestment: user.TotalInvestment,
		TotalProfit:     user.TotalProfit,
		PendingProfit:   decimal.Zero,
	}

	filter := persistence.HoldingFilter{
		UserID:   &user.ID,
		Statuses: []entity.HoldingStatus{entity.HoldingActive},
		Limit:    ledger.MaxPageSize,
	}
	for filter.Page = 1; ; filter.Page++ {
		holdings, total, err := u.uow.GetHoldingRepository(ctx).List(ctx, filter)
		if err != nil {
			return nil, err
		}
		summary.ActiveHoldings = total
		for _, h := range holdings {
			summary.PendingProfit = summary.PendingProfit.Add(h.ProfitPending)
		}
		if len(holdings) < filter.Limit || int64(filter.Page*filter.Limit) >= total {
			break
		}
	}

	return summary, nil
}
