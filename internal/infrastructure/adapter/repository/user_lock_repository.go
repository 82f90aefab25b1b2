package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/model"
)

// UserLockRepository implements a lease-based user lock on the user_locks table
type UserLockRepository struct {
	db           *gorm.DB
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewUserLockRepository creates a new UserLockRepository instance
func NewUserLockRepository(db *gorm.DB, timeProvider coreport.TimeProvider, logger coreport.Logger) *UserLockRepository {
	return &UserLockRepository{
		db:           db,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// AcquireLock takes the lease on userID, or steals it if the previous holder let it expire
func (r *UserLockRepository) AcquireLock(ctx context.Context, userID uuid.UUID, duration time.Duration) error {
	now := r.timeProvider.Now()
	expiresAt := now.Add(duration)

	// The conditional upsert touches no row while an unexpired lease exists
	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO user_locks (user_id, locked_at, expires_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE
		SET locked_at = EXCLUDED.locked_at,
		    expires_at = EXCLUDED.expires_at,
		    updated_at = EXCLUDED.updated_at
		WHERE user_locks.expires_at <= ?`,
		userID, now, expiresAt, now, now,
		now,
	)

	if err := result.Error; err != nil {
		if isContextError(err) {
			r.logger.Warn("Context ended acquiring lock", map[string]any{
				"user_id": userID,
				"error":   err.Error(),
			})
			return fmt.Errorf("lock acquisition: %w", err)
		}

		r.logger.Error("Database error acquiring lock", map[string]any{
			"user_id": userID,
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, err.Error())
	}

	if result.RowsAffected == 0 {
		r.logger.Debug("User is already locked", map[string]any{"user_id": userID})
		return errs.ErrUserLocked
	}

	r.logger.Debug("Lock acquired", map[string]any{
		"user_id":    userID,
		"expires_at": expiresAt,
	})
	return nil
}

func isContextError(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
}

// ReleaseLock drops the lease. A lease that already expired is not an error.
func (r *UserLockRepository) ReleaseLock(ctx context.Context, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&model.UserLock{})

	// the lease runs out on its own
	if result.Error != nil && isContextError(result.Error) {
		r.logger.Warn("Context ended releasing lock, lock will expire", map[string]any{
			"user_id": userID,
			"error":   result.Error.Error(),
		})
		return nil
	}

	if result.Error != nil {
		r.logger.Error("Failed to release lock", map[string]any{
			"user_id": userID,
			"error":   result.Error.Error(),
		})
		return fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected == 0 {
		r.logger.Debug("No lock found to release", map[string]any{"user_id": userID})
	}
	return nil
}

// CleanupExpiredLocks removes all expired leases and returns how many were removed
func (r *UserLockRepository) CleanupExpiredLocks(ctx context.Context) (int64, error) {
	now := r.timeProvider.Now()

	result := r.db.WithContext(ctx).Where("expires_at < ?", now).Delete(&model.UserLock{})
	if result.Error != nil {
		r.logger.Error("Failed to clean up expired locks", map[string]any{
			"error": result.Error.Error(),
		})
		return 0, fmt.Errorf("%w: %s", errs.ErrDatabaseConnection, result.Error.Error())
	}

	if result.RowsAffected > 0 {
		r.logger.Info("Expired locks removed", map[string]any{
			"count": result.RowsAffected,
		})
	}
	return result.RowsAffected, nil
}
