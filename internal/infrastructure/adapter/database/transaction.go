package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/repository"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "tx"

// UnitOfWork implements the unit of work pattern for database transactions
type UnitOfWork struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *repository.ErrorClassifier
}

// NewUnitOfWork creates a new UnitOfWork instance
func NewUnitOfWork(db *gorm.DB, logger coreport.Logger) persistence.UnitOfWork {
	return &UnitOfWork{
		db:              db,
		logger:          logger,
		errorClassifier: repository.NewErrorClassifier(),
	}
}

// Begin starts a SERIALIZABLE transaction and returns a context carrying it
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	tx := u.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		u.logger.Error("Failed to begin transaction", map[string]any{"error": tx.Error.Error()})
		return ctx, u.errorClassifier.Translate("begin transaction", tx.Error, nil, nil)
	}

	if err := tx.Exec("SET TRANSACTION ISOLATION LEVEL SERIALIZABLE").Error; err != nil {
		tx.Rollback()
		u.logger.Error("Failed to set transaction isolation level", map[string]any{"error": err.Error()})
		return ctx, fmt.Errorf("failed to set transaction isolation level: %w", err)
	}

	return context.WithValue(ctx, txKey, tx), nil
}

func txFromContext(ctx context.Context) (*gorm.DB, bool) {
	tx, ok := ctx.Value(txKey).(*gorm.DB)
	return tx, ok && tx != nil
}

// Commit commits the current transaction. Serialization failures at commit come back as ErrConcurrentUpdate.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return errors.New("no transaction found in context")
	}

	if err := tx.Commit().Error; err != nil {
		u.logger.Warn("Failed to commit transaction", map[string]any{"error": err.Error()})
		return u.errorClassifier.Translate("commit transaction", err, nil, nil)
	}
	return nil
}

// Rollback rolls back the current transaction. Rolling back a finished transaction is not an error.
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	tx, ok := txFromContext(ctx)
	if !ok {
		return errors.New("no transaction found in context")
	}

	err := tx.Rollback().Error
	if err == nil || errors.Is(err, gorm.ErrInvalidTransaction) {
		return nil
	}

	u.logger.Error("Failed to rollback transaction", map[string]any{
		"error": err.Error(),
	})
	return fmt.Errorf("%w: rollback: %s", errs.ErrDatabaseConnection, err.Error())
}

// InTransaction reports whether ctx carries an open transaction
func (u *UnitOfWork) InTransaction(ctx context.Context) bool {
	_, ok := txFromContext(ctx)
	return ok
}

// GetUserRepository returns a user repository in the current transaction
func (u *UnitOfWork) GetUserRepository(ctx context.Context) persistence.UserRepository {
	return repository.NewUserRepository(u.getDbFromContext(ctx), u.logger)
}

// GetTransactionRepository returns a transaction repository in the current transaction
func (u *UnitOfWork) GetTransactionRepository(ctx context.Context) persistence.TransactionRepository {
	return repository.NewTransactionRepository(u.getDbFromContext(ctx), u.logger)
}

// GetPackageRepository returns a package repository in the current transaction
func (u *UnitOfWork) GetPackageRepository(ctx context.Context) persistence.PackageRepository {
	return repository.NewPackageRepository(u.getDbFromContext(ctx), u.logger)
}

// GetHoldingRepository returns a holding repository in the current transaction
func (u *UnitOfWork) GetHoldingRepository(ctx context.Context) persistence.HoldingRepository {
	return repository.NewHoldingRepository(u.getDbFromContext(ctx), u.logger)
}

// getDbFromContext returns the transaction in ctx, or the pool bound to ctx
func (u *UnitOfWork) getDbFromContext(ctx context.Context) *gorm.DB {
	if tx, ok := txFromContext(ctx); ok {
		return tx
	}
	return u.db.WithContext(ctx)
}
