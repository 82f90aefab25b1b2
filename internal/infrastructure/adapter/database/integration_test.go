package database

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/database/migration"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/repository"
	timeprovider "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/time"
)

// setupTestDB connects to the database named by BP_TEST_DB_HOST and migrates a clean schema.
// Tests are skipped when the variable is unset.
func setupTestDB(t *testing.T) *Manager {
	t.Helper()

	host := os.Getenv("BP_TEST_DB_HOST")
	if host == "" {
		t.Skip("BP_TEST_DB_HOST not set, skipping postgres integration test")
	}
	port, err := strconv.Atoi(configEnvOrDefault("BP_TEST_DB_PORT", "5432"))
	require.NoError(t, err)

	config := &Config{
		Driver:          "postgres",
		Host:            host,
		Port:            port,
		Username:        configEnvOrDefault("BP_TEST_DB_USERNAME", "postgres"),
		Password:        configEnvOrDefault("BP_TEST_DB_PASSWORD", "postgres"),
		Database:        configEnvOrDefault("BP_TEST_DB_DATABASE", "investment_ledger_test"),
		SSLMode:         "disable",
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: 5 * time.Minute,
		QueryTimeout:    5 * time.Second,
		SlowThreshold:   time.Second,
		LogLevel:        "silent",
		RetryAttempts:   1,
		RetryDelay:      time.Second,
	}

	manager := NewManager(config, logger.NewNoopLogger(), timeprovider.NewRealTimeProvider())
	ctx := context.Background()

	_, err = manager.Connect(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = manager.Close() })

	require.NoError(t, dropAllTables(manager.DB()))
	require.NoError(t, manager.Migrate(ctx))

	return manager
}

func dropAllTables(db *gorm.DB) error {
	for _, table := range []string{"holdings", "transactions", "packages", "user_locks", "users", "migration_versions"} {
		if err := db.Exec("DROP TABLE IF EXISTS " + table + " CASCADE").Error; err != nil {
			return err
		}
	}
	return nil
}

func createUser(t *testing.T, m *Manager, phone string) *entity.User {
	t.Helper()

	user, err := entity.NewUser(entity.NewUserParams{FullName: "Test User", Phone: phone}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repository.NewUserRepository(m.DB(), m.logger).Create(context.Background(), user))
	return user
}

func TestManager_PingAndPoolStats(t *testing.T) {
	m := setupTestDB(t)

	metrics, err := m.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ping", metrics.Operation)
	assert.False(t, metrics.Failed)
	assert.Equal(t, 10, m.PoolStats().MaxOpenConnections)
}

func TestTransactionRepository_DuplicateReference(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, m, "01700000001")
	repo := repository.NewTransactionRepository(m.DB(), m.logger)

	newDeposit := func() *entity.Transaction {
		txn, err := entity.NewTransaction(entity.NewTransactionParams{
			UserID:         user.ID,
			Type:           entity.TypeDeposit,
			Amount:         decimal.NewFromInt(500),
			PaymentMethod:  entity.MethodBank,
			PaymentDetails: entity.BankDetails("City Bank", "123456789", "EXT-1"),
		}, time.Now().UTC())
		require.NoError(t, err)
		txn.Reference = "TXN-DUPLICATE-1"
		return txn
	}

	require.NoError(t, repo.Create(ctx, newDeposit()))
	err := repo.Create(ctx, newDeposit())
	assert.ErrorIs(t, err, errs.ErrDuplicateReference)

	found, err := repo.GetByReference(ctx, "TXN-DUPLICATE-1")
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(500).Equal(found.Amount))
}

func TestTransactionRepository_ProfitCreditUniquePerDay(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, m, "01700000002")
	repo := repository.NewTransactionRepository(m.DB(), m.logger)

	holdingID := entity.NewHolding(user.ID, mustPackage(t), user.ID, time.Now()).ID
	profitDate := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	credit := func(ref string) *entity.Transaction {
		txn, err := entity.NewTransaction(entity.NewTransactionParams{
			UserID:        user.ID,
			Type:          entity.TypeProfit,
			Amount:        decimal.RequireFromString("11.67"),
			PaymentMethod: entity.MethodSystem,
			Metadata: entity.TransactionMetadata{
				HoldingID:  &holdingID,
				ProfitDate: &profitDate,
			},
		}, time.Now().UTC())
		require.NoError(t, err)
		txn.Reference = ref
		return txn
	}

	require.NoError(t, repo.Create(ctx, credit("TXN-PROFIT-1")))
	err := repo.Create(ctx, credit("TXN-PROFIT-2"))
	assert.ErrorIs(t, err, errs.ErrConstraintViolation)

	existing, err := repo.FindProfitCredit(ctx, holdingID, profitDate)
	require.NoError(t, err)
	require.NotNil(t, existing)
	assert.Equal(t, "TXN-PROFIT-1", existing.Reference)
}

func TestUserRepository_UpdateRejectsStaleVersion(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, m, "01700000003")
	repo := repository.NewUserRepository(m.DB(), m.logger)

	first, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	stale, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)

	first.Balance = decimal.NewFromInt(100)
	require.NoError(t, repo.Update(ctx, first))

	stale.Balance = decimal.NewFromInt(50)
	err = repo.Update(ctx, stale)
	assert.True(t, errs.IsRetryable(err))

	current, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(100).Equal(current.Balance))
}

func TestUserLockRepository_AcquireRelease(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()
	user := createUser(t, m, "01700000004")
	locks := m.CreateUserLockRepository()

	require.NoError(t, locks.AcquireLock(ctx, user.ID, time.Minute))
	assert.ErrorIs(t, locks.AcquireLock(ctx, user.ID, time.Minute), errs.ErrUserLocked)

	require.NoError(t, locks.ReleaseLock(ctx, user.ID))
	require.NoError(t, locks.AcquireLock(ctx, user.ID, time.Minute))
}

func TestMigrate_SeedsCatalogOnce(t *testing.T) {
	m := setupTestDB(t)
	ctx := context.Background()
	m.config.SeedCatalog = true

	require.NoError(t, m.Migrate(ctx))
	require.NoError(t, m.Migrate(ctx))

	var count int64
	require.NoError(t, m.DB().Table("packages").Count(&count).Error)
	assert.Equal(t, int64(len(migration.DefaultCatalog())), count)
}

func mustPackage(t *testing.T) *entity.Package {
	t.Helper()
	pkg, err := entity.NewPackage(migration.DefaultCatalog()[0], time.Now())
	require.NoError(t, err)
	return pkg
}
