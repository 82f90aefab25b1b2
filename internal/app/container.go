package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/investment"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/payment"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/user"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/cache"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/database"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/memory"
	notifier "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/repository"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/security"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/config"
)

// Container holds the wired services shared by the binaries
type Container struct {
	Config       *config.Config
	Logger       coreport.Logger
	TimeProvider coreport.TimeProvider

	Ledger     *ledger.Service
	Guard      *ledger.UserGuard
	Payment    usecase.PaymentUseCase
	Investment *investment.Service
	Catalog    usecase.CatalogUseCase
	Users      usecase.UserUseCase

	// DB is nil when the memory store is configured
	DB *database.Manager
	// Locks is the table lock, set only for the postgres lock driver
	Locks *repository.UserLockRepository

	uow        persistence.UnitOfWork
	pins       coreport.PinHasher
	dispatcher *notifier.Dispatcher
	redis      *redis.Client
}

// Build connects the configured store, lock and notifier and wires the use cases
func Build(ctx context.Context, cfg *config.Config, logger coreport.Logger, timeProvider coreport.TimeProvider) (*Container, error) {
	c := &Container{
		Config:       cfg,
		Logger:       logger,
		TimeProvider: timeProvider,
	}

	limits, err := cfg.Ledger.PaymentLimits()
	if err != nil {
		return nil, err
	}

	uow, err := c.openStore(ctx)
	if err != nil {
		return nil, err
	}

	locks, err := c.openLocks(ctx)
	if err != nil {
		c.Close(ctx)
		return nil, err
	}

	c.dispatcher = notifier.NewDispatcher(c.deliveryNotifier(uow), notifier.DispatcherConfig{
		QueueSize:  cfg.Notification.QueueSize,
		RatePerSec: cfg.Notification.RatePerSec,
		Burst:      cfg.Notification.Burst,
	}, logger)

	c.uow = uow
	c.pins = security.NewBcryptPinHasher(bcrypt.DefaultCost)
	c.Ledger = ledger.NewService(uow, ledger.NewBalanceMutator(timeProvider, logger), timeProvider, logger)
	c.Guard = ledger.NewUserGuard(
		ledger.NewUserSerializer(logger, cfg.Ledger.SerializerQueueSize).WithIdleTimeout(cfg.Ledger.SerializerIdleTimeout),
		locks,
		cfg.Lock.GuardConfig(),
		timeProvider,
		logger,
	)
	c.Payment = payment.NewService(c.Ledger, c.Guard, uow, c.dispatcher, limits, timeProvider, logger)
	c.Investment = c.InvestmentAt(timeProvider)
	c.Catalog = investment.NewCatalogService(uow, timeProvider, logger)
	c.Users = user.NewUserUseCase(uow, c.Ledger, c.pins, timeProvider, logger)

	if c.DB == nil && cfg.Database.SeedCatalog {
		if err := c.seedMemoryCatalog(ctx); err != nil {
			c.Close(ctx)
			return nil, err
		}
	}

	return c, nil
}

// InvestmentAt returns an investment service reading the accrual day from
// clock. Locks and stored timestamps keep the container's clock.
func (c *Container) InvestmentAt(clock coreport.TimeProvider) *investment.Service {
	return investment.NewService(
		c.Ledger,
		c.Guard,
		investment.NewCommissionCalculator(c.Ledger, clock, c.Logger),
		c.uow,
		c.pins,
		c.dispatcher,
		c.Config.Accrual.InvestmentConfig(),
		clock,
		c.Logger,
	)
}

func (c *Container) openStore(ctx context.Context) (persistence.UnitOfWork, error) {
	if c.Config.Ledger.Store == config.StoreMemory {
		c.Logger.Warn("Using the in-memory store; data is lost on exit", nil)
		return memory.NewUnitOfWork(memory.NewStore(c.TimeProvider)), nil
	}

	c.DB = database.NewManager(database.CreateConfigFromViperConfig(c.Config), c.Logger, c.TimeProvider)
	if _, err := c.DB.Connect(ctx); err != nil {
		return nil, err
	}
	if err := c.DB.Migrate(ctx); err != nil {
		_ = c.DB.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return c.DB.CreateUnitOfWork(), nil
}

// openLocks returns nil when users are only serialized inside this process
func (c *Container) openLocks(ctx context.Context) (persistence.UserLockRepository, error) {
	switch c.Config.Lock.Driver {
	case config.LockPostgres:
		c.Locks = c.DB.CreateUserLockRepository()
		return c.Locks, nil
	case config.LockRedis:
		client, err := cache.NewClient(ctx, cache.ClientConfig{
			Addr:     c.Config.Redis.Addr,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
			PoolSize: c.Config.Redis.PoolSize,
		}, c.Logger)
		if err != nil {
			return nil, err
		}
		c.redis = client
		return cache.NewUserLockRepository(client, c.Logger), nil
	default:
		return nil, nil
	}
}

func (c *Container) deliveryNotifier(uow persistence.UnitOfWork) notification.Notifier {
	if c.Config.Notification.Driver == config.NotifyEmail {
		smtp := c.Config.Notification.SMTP
		return notifier.NewEmailNotifier(notifier.SMTPConfig{
			Host:     smtp.Host,
			Port:     smtp.Port,
			Username: smtp.Username,
			Password: smtp.Password,
			From:     smtp.From,
		}, uow, c.Logger)
	}
	return notifier.NewLogNotifier(c.Logger)
}

func (c *Container) seedMemoryCatalog(ctx context.Context) error {
	for _, params := range migration.DefaultCatalog() {
		if _, err := c.Catalog.CreatePackage(ctx, params); err != nil && !errors.Is(err, errs.ErrDuplicatePackage) {
			return fmt.Errorf("failed to seed package %q: %w", params.Name, err)
		}
	}
	c.Logger.Info("Seeded package catalog", map[string]any{"packages": len(migration.DefaultCatalog())})
	return nil
}

// Close drains pending notifications and releases connections. Safe on a
// partially built container.
func (c *Container) Close(ctx context.Context) {
	if c.Guard != nil {
		c.Guard.Shutdown()
	}
	if c.dispatcher != nil {
		if err := c.dispatcher.Close(ctx); err != nil {
			c.Logger.Warn("Notifications left undelivered at shutdown", map[string]any{"error": err.Error()})
		}
	}
	if c.redis != nil {
		if err := c.redis.Close(); err != nil {
			c.Logger.Warn("Failed to close redis client", map[string]any{"error": err.Error()})
		}
	}
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			c.Logger.Error("Failed to close database", map[string]any{"error": err.Error()})
		}
	}
}
