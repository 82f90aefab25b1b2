package ledger

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// GuardConfig tunes the cross-process user lock
type GuardConfig struct {
	LockTTL       time.Duration
	LockWait      time.Duration
	RetryInterval time.Duration
}

// UserGuard linearizes work per user: in process through the serializer and,
// when a lock repository is configured, across processes through a shared lock.
type UserGuard struct {
	serializer   *UserSerializer
	locks        persistence.UserLockRepository
	cfg          GuardConfig
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewUserGuard creates a guard; locks may be nil for single-process deployments
func NewUserGuard(
	serializer *UserSerializer,
	locks persistence.UserLockRepository,
	cfg GuardConfig,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *UserGuard {
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Second
	}
	if cfg.LockWait <= 0 {
		cfg.LockWait = 5 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 25 * time.Millisecond
	}
	return &UserGuard{
		serializer:   serializer,
		locks:        locks,
		cfg:          cfg,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Run executes fn while holding userID's turn
func (g *UserGuard) Run(ctx context.Context, userID uuid.UUID, fn Task) error {
	return g.serializer.Do(ctx, userID, func(ctx context.Context) error {
		if g.locks == nil {
			return fn(ctx)
		}

		if err := g.acquire(ctx, userID); err != nil {
			return err
		}
		defer func() {
			if err := g.locks.ReleaseLock(context.WithoutCancel(ctx), userID); err != nil {
				g.logger.Error("Failed to release user lock", map[string]any{
					"user_id": userID.String(),
					"error":   err.Error(),
				})
			}
		}()

		return fn(ctx)
	})
}

func (g *UserGuard) acquire(ctx context.Context, userID uuid.UUID) error {
	deadline := g.timeProvider.Now().Add(g.cfg.LockWait)
	for {
		err := g.locks.AcquireLock(ctx, userID, g.cfg.LockTTL)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrUserLocked) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if !g.timeProvider.Now().Before(deadline) {
			g.logger.Warn("Timed out waiting for user lock", map[string]any{
				"user_id": userID.String(),
				"waited":  g.cfg.LockWait.String(),
			})
			return err
		}
		g.timeProvider.Sleep(coreport.Duration(g.cfg.RetryInterval))
	}
}

// Shutdown drains the in-process queues
func (g *UserGuard) Shutdown() {
	g.serializer.Shutdown()
}
