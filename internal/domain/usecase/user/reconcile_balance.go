package user

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

// ReconcileBalance recomputes the balance from completed transactions and
// compares it with the stored one. A mismatch is reported, never repaired.
func (u *UserUseCase) ReconcileBalance(ctx context.Context, id uuid.UUID) (*usecase.Reconciliation, error) {
	user, err := u.uow.GetUserRepository(ctx).GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	sums, err := u.ledger.Summarize(ctx, persistence.TransactionFilter{
		UserID:   &user.ID,
		Statuses: []entity.TransactionStatus{entity.StatusCompleted},
	})
	if err != nil {
		return nil, err
	}

	computed := decimal.Zero
	for _, agg := range sums {
		switch {
		case agg.Type.IsCredit():
			computed = computed.Add(agg.Total)
		case agg.Type.IsDebit():
			computed = computed.Sub(agg.Total)
		}
	}

	result := &usecase.Reconciliation{
		UserID:   user.ID,
		Stored:   user.Balance,
		Computed: computed,
		Balanced: user.Balance.Equal(computed),
	}
	if !result.Balanced {
		u.logger.Error("Balance does not match transaction history", map[string]any{
			"user_id":  user.ID.String(),
			"stored":   entity.FormatAmount(user.Balance),
			"computed": entity.FormatAmount(computed),
		})
	}
	return result, nil
}
