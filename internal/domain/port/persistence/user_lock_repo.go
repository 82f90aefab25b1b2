package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserLockRepository defines a lock on a user shared by every process of the service
type UserLockRepository interface {
	// AcquireLock attempts to acquire a lock on the user
	// The lock expires after the given duration
	//
	// Possible errors:
	// - ErrUserLocked: If user is already locked by another process
	// - ErrDatabaseConnection: If the backing store fails
	AcquireLock(ctx context.Context, userID uuid.UUID, duration time.Duration) error

	// ReleaseLock releases a previously acquired lock
	ReleaseLock(ctx context.Context, userID uuid.UUID) error
}
