package persistence

import (
	"context"
)

// UnitOfWork defines an interface for coordinating transaction operations
// across multiple repositories to maintain data consistency
type UnitOfWork interface {
	// Begin starts a new transaction and returns a transactional context
	Begin(ctx context.Context) (context.Context, error)

	// Commit commits the transaction in the given context
	Commit(ctx context.Context) error

	// Rollback rolls back the transaction in the given context
	Rollback(ctx context.Context) error

	// InTransaction reports whether ctx already carries an open transaction
	InTransaction(ctx context.Context) bool

	// GetUserRepository returns a user repository bound to the current transaction
	GetUserRepository(ctx context.Context) UserRepository

	// GetTransactionRepository returns a transaction repository bound to the current transaction
	GetTransactionRepository(ctx context.Context) TransactionRepository

	// GetPackageRepository returns a package repository bound to the current transaction
	GetPackageRepository(ctx context.Context) PackageRepository

	// GetHoldingRepository returns a holding repository bound to the current transaction
	GetHoldingRepository(ctx context.Context) HoldingRepository
}
