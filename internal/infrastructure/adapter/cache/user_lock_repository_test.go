package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
)

func setupRedis(t *testing.T) *UserLockRepository {
	t.Helper()

	addr := os.Getenv("BP_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("BP_TEST_REDIS_ADDR not set, skipping redis integration test")
	}

	client, err := NewClient(context.Background(), ClientConfig{Addr: addr, PoolSize: 4}, logger.NewNoopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return NewUserLockRepository(client, logger.NewNoopLogger())
}

func TestUserLockRepository_ExclusiveUntilReleased(t *testing.T) {
	locks := setupRedis(t)
	other := NewUserLockRepository(locks.client, logger.NewNoopLogger())
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, locks.AcquireLock(ctx, userID, time.Minute))
	assert.ErrorIs(t, other.AcquireLock(ctx, userID, time.Minute), errs.ErrUserLocked)

	// releasing a lock this instance never took leaves the holder's lock alone
	require.NoError(t, other.ReleaseLock(ctx, userID))
	assert.ErrorIs(t, other.AcquireLock(ctx, userID, time.Minute), errs.ErrUserLocked)

	require.NoError(t, locks.ReleaseLock(ctx, userID))
	require.NoError(t, other.AcquireLock(ctx, userID, time.Minute))
	require.NoError(t, other.ReleaseLock(ctx, userID))
}

func TestUserLockRepository_Expires(t *testing.T) {
	locks := setupRedis(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, locks.AcquireLock(ctx, userID, 50*time.Millisecond))

	assert.Eventually(t, func() bool {
		return locks.client.Exists(ctx, lockKey(userID)).Val() == 0
	}, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, locks.ReleaseLock(ctx, userID))
}
