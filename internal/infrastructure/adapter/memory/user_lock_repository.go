package memory

import (
	"context"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

// UserLockRepository keeps expiring user locks in the store
type UserLockRepository struct {
	store *Store
}

// NewUserLockRepository creates a lock repository over store
func NewUserLockRepository(store *Store) *UserLockRepository {
	return &UserLockRepository{store: store}
}

// AcquireLock takes the lock unless an unexpired one is held
func (r *UserLockRepository) AcquireLock(_ context.Context, userID uuid.UUID, duration time.Duration) error {
	r.store.lockMu.Lock()
	defer r.store.lockMu.Unlock()

	now := r.store.timeProvider.Now()
	if expiresAt, ok := r.store.locks[userID]; ok && expiresAt.After(now) {
		return errs.ErrUserLocked
	}
	r.store.locks[userID] = now.Add(duration)
	return nil
}

// ReleaseLock drops the lock
func (r *UserLockRepository) ReleaseLock(_ context.Context, userID uuid.UUID) error {
	r.store.lockMu.Lock()
	defer r.store.lockMu.Unlock()

	delete(r.store.locks, userID)
	return nil
}
