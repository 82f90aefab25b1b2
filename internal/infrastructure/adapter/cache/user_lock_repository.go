package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

const lockKeyPrefix = "ledger:user_lock:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// UserLockRepository implements persistence.UserLockRepository with SET NX PX.
// Each acquire stores a fresh token so a process never releases a lock that
// expired and was taken over by someone else.
type UserLockRepository struct {
	client *redis.Client
	logger coreport.Logger
	tokens sync.Map // uuid.UUID -> string
}

// NewUserLockRepository creates a redis backed user lock
func NewUserLockRepository(client *redis.Client, logger coreport.Logger) *UserLockRepository {
	return &UserLockRepository{client: client, logger: logger}
}

var _ persistence.UserLockRepository = (*UserLockRepository)(nil)

func lockKey(userID uuid.UUID) string {
	return lockKeyPrefix + userID.String()
}

// AcquireLock takes the user's lock for duration or fails with ErrUserLocked
func (r *UserLockRepository) AcquireLock(ctx context.Context, userID uuid.UUID, duration time.Duration) error {
	token := uuid.NewString()

	ok, err := r.client.SetNX(ctx, lockKey(userID), token, duration).Result()
	if err != nil {
		r.logger.Error("Failed to acquire redis user lock", map[string]any{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: acquire lock: %v", errs.ErrDatabaseConnection, err)
	}
	if !ok {
		return errs.ErrUserLocked
	}

	r.tokens.Store(userID, token)
	return nil
}

// ReleaseLock frees the user's lock if this process still owns it
func (r *UserLockRepository) ReleaseLock(ctx context.Context, userID uuid.UUID) error {
	value, ok := r.tokens.LoadAndDelete(userID)
	if !ok {
		return nil
	}

	released, err := releaseScript.Run(ctx, r.client, []string{lockKey(userID)}, value.(string)).Int()
	if err != nil {
		r.logger.Warn("Failed to release redis user lock", map[string]any{
			"user_id": userID.String(),
			"error":   err.Error(),
		})
		return fmt.Errorf("%w: release lock: %v", errs.ErrDatabaseConnection, err)
	}
	if released == 0 {
		r.logger.Warn("User lock expired before release", map[string]any{
			"user_id": userID.String(),
		})
	}
	return nil
}
