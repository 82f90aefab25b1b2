package ledger

import (
	"context"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// BalanceMutator is the only writer of user balances and lifetime totals
type BalanceMutator struct {
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewBalanceMutator creates a new balance mutator
func NewBalanceMutator(timeProvider coreport.TimeProvider, logger coreport.Logger) *BalanceMutator {
	return &BalanceMutator{timeProvider: timeProvider, logger: logger}
}

// Apply books the effect of a just-completed transaction on its owner.
// It must run in the unit of work that persists the completed status.
func (m *BalanceMutator) Apply(ctx context.Context, users persistence.UserRepository, txn *entity.Transaction) (*entity.User, error) {
	if txn.Status != entity.StatusCompleted {
		return nil, errs.NewInvalidTransitionError("transaction", txn.ID.String(), string(txn.Status), "balance_applied")
	}
	if txn.IsBalanceApplied() {
		return nil, errs.NewIdempotencyViolationError(txn.ID.String())
	}

	user, err := users.GetByIDForUpdate(ctx, txn.UserID)
	if err != nil {
		return nil, err
	}

	now := m.timeProvider.Now()
	before := user.Balance
	if err := user.ApplyTransaction(txn, now); err != nil {
		return nil, err
	}
	if err := users.Update(ctx, user); err != nil {
		return nil, err
	}
	txn.MarkBalanceApplied(now)

	m.logger.Debug("Balance updated", map[string]any{
		"user_id":        user.ID.String(),
		"transaction_id": txn.ID.String(),
		"type":           string(txn.Type),
		"amount":         entity.FormatAmount(txn.Amount),
		"balance_before": entity.FormatAmount(before),
		"balance_after":  entity.FormatAmount(user.Balance),
	})
	return user, nil
}
