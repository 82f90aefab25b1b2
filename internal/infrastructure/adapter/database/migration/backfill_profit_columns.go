package migration

import (
	"context"

	"gorm.io/gorm"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

// BackfillProfitColumns copies holding id and profit date out of the metadata of
// existing profit credits so the partial unique index can cover them
type BackfillProfitColumns struct {
	db     *gorm.DB
	logger coreport.Logger
}

// NewBackfillProfitColumns creates a new migration instance
func NewBackfillProfitColumns(db *gorm.DB, logger coreport.Logger) *BackfillProfitColumns {
	return &BackfillProfitColumns{
		db:     db,
		logger: logger,
	}
}

// Run executes the migration
func (m *BackfillProfitColumns) Run(ctx context.Context) error {
	m.logger.Info("Backfilling profit credit columns on transactions", nil)

	present, err := m.columnsExist(ctx)
	if err != nil {
		return err
	}
	if !present {
		m.logger.Warn("Profit credit columns missing, skipping backfill", nil)
		return nil
	}

	result := m.db.WithContext(ctx).Exec(`
		UPDATE transactions
		SET holding_id = (metadata->>'holdingId')::uuid,
		    profit_date = (metadata->>'profitDate')::timestamptz
		WHERE type = 'profit'
		  AND holding_id IS NULL
		  AND metadata ? 'holdingId'
		  AND metadata ? 'profitDate'`)
	if result.Error != nil {
		m.logger.Error("Failed to backfill profit credit columns", map[string]any{"error": result.Error.Error()})
		return result.Error
	}

	m.logger.Info("Backfilled profit credit columns", map[string]any{
		"rows": result.RowsAffected,
	})
	return nil
}

func (m *BackfillProfitColumns) columnsExist(ctx context.Context) (bool, error) {
	var columns []struct {
		ColumnName string `gorm:"column:column_name"`
	}

	err := m.db.WithContext(ctx).Raw(`
		SELECT column_name
		FROM information_schema.columns
		WHERE table_name = 'transactions' AND column_name IN ('holding_id', 'profit_date')
	`).Scan(&columns).Error
	if err != nil {
		m.logger.Error("Failed to check columns existence", map[string]any{"error": err.Error()})
		return false, err
	}
	return len(columns) == 2, nil
}
