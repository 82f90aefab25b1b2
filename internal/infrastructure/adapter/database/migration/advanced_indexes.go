package migration

import (
	"context"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

// AdvancedIndexManager manages the PostgreSQL indexes the ledger relies on
type AdvancedIndexManager struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewAdvancedIndexManager creates a new advanced index manager
func NewAdvancedIndexManager(db *gorm.DB, logger coreport.Logger) *AdvancedIndexManager {
	return &AdvancedIndexManager{
		db:     db,
		logger: logger,
	}
}

type indexDefinition struct {
	name string
	ddl  string
}

var ledgerIndexes = []indexDefinition{
	{
		// one profit credit per holding and day; the accrual idempotency rests on it
		name: "idx_transactions_profit_credit_unique",
		ddl: `CREATE UNIQUE INDEX IF NOT EXISTS idx_transactions_profit_credit_unique
			ON transactions (holding_id, profit_date)
			WHERE type = 'profit'`,
	},
	{
		name: "idx_transactions_user_created",
		ddl: `CREATE INDEX IF NOT EXISTS idx_transactions_user_created
			ON transactions (user_id, created_at DESC)`,
	},
	{
		name: "idx_transactions_pending",
		ddl: `CREATE INDEX IF NOT EXISTS idx_transactions_pending
			ON transactions (type, created_at)
			WHERE status IN ('pending', 'processing')`,
	},
	{
		name: "idx_transactions_created_at_brin",
		ddl: `CREATE INDEX IF NOT EXISTS idx_transactions_created_at_brin
			ON transactions USING BRIN (created_at)
			WITH (pages_per_range = 32)`,
	},
	{
		name: "idx_packages_name_lower_unique",
		ddl: `CREATE UNIQUE INDEX IF NOT EXISTS idx_packages_name_lower_unique
			ON packages (lower(name))`,
	},
	{
		name: "idx_holdings_user_status",
		ddl: `CREATE INDEX IF NOT EXISTS idx_holdings_user_status
			ON holdings (user_id, status)`,
	},
	{
		name: "idx_holdings_due",
		ddl: `CREATE INDEX IF NOT EXISTS idx_holdings_due
			ON holdings (next_profit_date)
			WHERE status = 'active' AND profit_pending > 0`,
	},
	{
		name: "idx_holdings_matured",
		ddl: `CREATE INDEX IF NOT EXISTS idx_holdings_matured
			ON holdings (end_date)
			WHERE status = 'active' AND profit_pending = 0`,
	},
	{
		name: "idx_users_referral_code_upper",
		ddl: `CREATE INDEX IF NOT EXISTS idx_users_referral_code_upper
			ON users (upper(referral_code))`,
	},
}

// CreateIndexes creates the partial, functional and BRIN indexes GORM tags cannot express
func (m *AdvancedIndexManager) CreateIndexes(ctx context.Context) error {
	m.logger.Info("Creating advanced PostgreSQL indexes", map[string]any{
		"count": len(ledgerIndexes),
	})

	for _, idx := range ledgerIndexes {
		if err := m.db.WithContext(ctx).Exec(idx.ddl).Error; err != nil {
			m.logger.Error("Failed to create index", map[string]any{
				"index": idx.name,
				"error": err.Error(),
			})
			return err
		}
	}
	return nil
}

// ApplyPerformanceTweaks applies storage settings. Failures are logged and ignored.
func (m *AdvancedIndexManager) ApplyPerformanceTweaks(ctx context.Context) {
	tweaks := []string{
		// status updates are HOT-eligible with free space on the page
		`ALTER TABLE transactions SET (fillfactor = 90)`,
		`ALTER TABLE holdings SET (fillfactor = 85)`,
		`ALTER TABLE transactions ALTER COLUMN user_id SET STATISTICS 1000`,
	}

	for _, ddl := range tweaks {
		if err := m.db.WithContext(ctx).Exec(ddl).Error; err != nil {
			m.logger.Warn("Failed to apply performance tweak", map[string]any{
				"statement": ddl,
				"error":     err.Error(),
			})
		}
	}
}
