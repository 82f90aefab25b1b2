package uow

import (
	"context"
	"fmt"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// MaxAttempts bounds how often a unit of work that lost a race is replayed
const MaxAttempts = 3

// Run executes fn inside a unit of work and commits it.
// If ctx already carries a transaction, fn joins it and the outer caller owns commit.
// Work that fails with a retryable conflict is rolled back and replayed from scratch,
// so fn must reload everything it mutates.
func Run(ctx context.Context, unit persistence.UnitOfWork, logger coreport.Logger, fn func(ctx context.Context) error) error {
	if unit.InTransaction(ctx) {
		return fn(ctx)
	}

	var err error
	for attempt := 1; attempt <= MaxAttempts; attempt++ {
		err = runOnce(ctx, unit, fn)
		if err == nil || !errs.IsRetryable(err) {
			return err
		}
		if ctx.Err() != nil {
			return err
		}

		logger.Warn("Unit of work lost a race, retrying", map[string]any{
			"attempt": attempt,
			"error":   err.Error(),
		})
	}
	return err
}

func runOnce(ctx context.Context, unit persistence.UnitOfWork, fn func(ctx context.Context) error) (err error) {
	txCtx, err := unit.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin unit of work: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			_ = unit.Rollback(txCtx)
			panic(r)
		}
	}()

	if err = fn(txCtx); err != nil {
		if rbErr := unit.Rollback(txCtx); rbErr != nil {
			return fmt.Errorf("%w (rollback failed: %v)", err, rbErr)
		}
		return err
	}

	if err = unit.Commit(txCtx); err != nil {
		return fmt.Errorf("commit unit of work: %w", err)
	}
	return nil
}
