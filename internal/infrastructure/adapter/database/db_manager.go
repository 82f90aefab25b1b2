package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/repository"
)

// Manager owns the connection pool and hands out units of work
type Manager struct {
	config            *Config
	db                *gorm.DB
	logger            coreport.Logger
	errorClassifier   *repository.ErrorClassifier
	metrics           *MetricsCollector
	connectionMonitor *ConnectionPoolMonitor
	timeProvider      coreport.TimeProvider
}

// NewManager creates a new database manager
func NewManager(config *Config, logger coreport.Logger, timeProvider coreport.TimeProvider) *Manager {
	return &Manager{
		config:          config,
		logger:          logger,
		errorClassifier: repository.NewErrorClassifier(),
		metrics:         NewMetricsCollector(logger, timeProvider, config.SlowThreshold),
		timeProvider:    timeProvider,
	}
}

// Connect opens the pool, retrying transient failures, and starts pool monitoring
func (m *Manager) Connect(ctx context.Context) (*gorm.DB, error) {
	if err := m.config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	m.logger.Info("Connecting to database", map[string]any{
		"driver": m.config.Driver,
		"host":   m.config.Host,
		"port":   m.config.Port,
		"name":   m.config.Database,
	})

	retry := DefaultRetryConfig()
	retry.MaxRetries = max(m.config.RetryAttempts, 1)
	retry.RetryInterval = m.config.RetryDelay

	var gormDB *gorm.DB
	err := RetryOnTransientError(ctx, retry, func() error {
		db, err := gorm.Open(postgres.Open(m.config.DSN()), &gorm.Config{
			Logger:                 NewGormLogger(m.logger, m.timeProvider, m.config.LogLevel, m.config.SlowThreshold),
			NowFunc:                func() time.Time { return m.timeProvider.Now().UTC() },
			PrepareStmt:            true,
			SkipDefaultTransaction: true,
			TranslateError:         false,
		})
		if err != nil {
			return err
		}

		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		pingCtx, cancel := context.WithTimeout(ctx, m.config.QueryTimeout)
		defer cancel()
		if err := sqlDB.PingContext(pingCtx); err != nil {
			_ = sqlDB.Close()
			return err
		}

		gormDB = db
		return nil
	}, m.errorClassifier, m.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", retry.MaxRetries, err)
	}

	sqlDB, err := gormDB.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get database connection: %w", err)
	}
	sqlDB.SetMaxOpenConns(m.config.MaxOpenConns)
	sqlDB.SetMaxIdleConns(m.config.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(m.config.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(m.config.ConnMaxIdleTime)

	m.logger.Info("Successfully connected to database", map[string]any{
		"host":           m.config.Host,
		"name":           m.config.Database,
		"max_open_conns": m.config.MaxOpenConns,
		"max_idle_conns": m.config.MaxIdleConns,
		"query_timeout":  m.config.QueryTimeout.String(),
	})

	m.db = gormDB
	m.connectionMonitor = NewConnectionPoolMonitor(m, m.logger)
	if err := m.connectionMonitor.Start(30 * time.Second); err != nil {
		m.logger.Warn("Failed to start connection pool monitoring", map[string]any{"error": err.Error()})
	}

	return m.db, nil
}

// Migrate brings the schema up to date and seeds the catalog when configured to
func (m *Manager) Migrate(ctx context.Context) error {
	return migration.NewMigrationManager(m.db, m.logger, m.timeProvider, m.config.SeedCatalog).MigrateAll(ctx)
}

// DB returns the GORM database instance
func (m *Manager) DB() *gorm.DB {
	return m.db
}

// Ping checks the database is reachable and records how long the round trip took
func (m *Manager) Ping(ctx context.Context) (*QueryMetrics, error) {
	ctx, cancel := m.WithTimeout(ctx)
	defer cancel()

	return m.metrics.MeasureQuery(ctx, "ping", func() (int64, error) {
		sqlDB, err := m.db.DB()
		if err != nil {
			return 0, err
		}
		return 0, sqlDB.PingContext(ctx)
	})
}

// PoolStats returns the latest connection pool snapshot
func (m *Manager) PoolStats() ConnectionPoolMetrics {
	if m.connectionMonitor == nil {
		return ConnectionPoolMetrics{}
	}
	return m.connectionMonitor.GetMetrics()
}

// Close stops monitoring and closes the pool
func (m *Manager) Close() error {
	m.logger.Info("Closing database connection", nil)

	if m.connectionMonitor != nil {
		m.connectionMonitor.Stop()
	}
	if m.db == nil {
		return nil
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get database connection: %w", err)
	}
	return sqlDB.Close()
}

// WithTimeout returns a context bounded by the configured query timeout
func (m *Manager) WithTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, m.config.QueryTimeout)
}

// CreateUnitOfWork creates a new UnitOfWork on the pool
func (m *Manager) CreateUnitOfWork() persistence.UnitOfWork {
	return NewUnitOfWork(m.db, m.logger)
}

// CreateUserLockRepository returns the table-backed user lock
func (m *Manager) CreateUserLockRepository() *repository.UserLockRepository {
	return repository.NewUserLockRepository(m.db, m.timeProvider, m.logger)
}
