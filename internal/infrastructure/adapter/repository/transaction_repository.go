package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/model"
)

// TransactionRepository implements persistence.TransactionRepository using GORM
type TransactionRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewTransactionRepository creates a new TransactionRepository instance
func NewTransactionRepository(db *gorm.DB, logger coreport.Logger) *TransactionRepository {
	return &TransactionRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *TransactionRepository) handleDatabaseError(operation string, err error, id string) error {
	mapped := r.errorClassifier.Translate(operation, err,
		errs.NewNotFoundError("transaction", id, errs.ErrTransactionNotFound), nil)
	if !errs.IsNotFoundError(mapped) {
		r.logger.Error("Database error when "+operation, map[string]any{
			"transaction_id": id,
			"error":          err.Error(),
		})
	}
	return mapped
}

// Create saves a new transaction. A taken reference is reported with ON CONFLICT DO NOTHING
// instead of a failed statement, so the surrounding transaction stays usable for a retry.
func (r *TransactionRepository) Create(ctx context.Context, transaction *entity.Transaction) error {
	r.logger.Debug("Creating transaction", map[string]any{
		"transaction_id": transaction.ID,
		"user_id":        transaction.UserID,
		"type":           transaction.Type,
		"reference":      transaction.Reference,
	})

	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "reference"}}, DoNothing: true}).
		Create(transactionToModel(transaction))
	if result.Error != nil {
		return r.handleDatabaseError("creating transaction", result.Error, transaction.ID.String())
	}

	if result.RowsAffected == 0 {
		r.logger.Debug("Transaction reference already taken", map[string]any{
			"reference": transaction.Reference,
		})
		return errs.ErrDuplicateReference
	}
	return nil
}

func (r *TransactionRepository) first(ctx context.Context, operation, id string, lock bool, query string, args ...any) (*entity.Transaction, error) {
	db := r.db.WithContext(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.Transaction
	if err := db.Where(query, args...).First(&row).Error; err != nil {
		return nil, r.handleDatabaseError(operation, err, id)
	}
	return transactionToEntity(&row), nil
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.first(ctx, "getting transaction", id.String(), false, "id = ?", id)
}

// GetByIDForUpdate retrieves a transaction with a row lock held until the transaction ends
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.first(ctx, "locking transaction", id.String(), true, "id = ?", id)
}

// GetByReference retrieves a transaction by its reference code
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	return r.first(ctx, "getting transaction by reference", reference, false, "reference = ?", reference)
}

// UpdateStatus persists the status change if the stored status still equals from
func (r *TransactionRepository) UpdateStatus(ctx context.Context, transaction *entity.Transaction, from entity.TransactionStatus) error {
	result := r.db.WithContext(ctx).Model(&model.Transaction{}).
		Where("id = ? AND status = ?", transaction.ID, string(from)).
		Updates(map[string]any{
			"status":             string(transaction.Status),
			"processed_by":       transaction.ProcessedBy,
			"processed_at":       transaction.ProcessedAt,
			"notes":              transaction.Notes,
			"balance_applied_at": transaction.BalanceAppliedAt,
			"completion_key":     transaction.CompletionKey,
			"updated_at":         transaction.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating transaction status", result.Error, transaction.ID.String())
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, transaction.ID); err != nil {
			return err
		}
		r.logger.Warn("Transaction status changed concurrently", map[string]any{
			"transaction_id": transaction.ID,
			"expected":       from,
			"target":         transaction.Status,
		})
		return errs.NewConcurrencyError("update transaction status", nil)
	}
	return nil
}

// FindProfitCredit returns the profit credit for holdingID on profitDate, or nil
func (r *TransactionRepository) FindProfitCredit(ctx context.Context, holdingID uuid.UUID, profitDate time.Time) (*entity.Transaction, error) {
	var rows []model.Transaction
	err := r.db.WithContext(ctx).
		Where("type = ? AND holding_id = ? AND profit_date = ?", string(entity.TypeProfit), holdingID, profitDate).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, r.handleDatabaseError("finding profit credit", err, holdingID.String())
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return transactionToEntity(&rows[0]), nil
}

func (r *TransactionRepository) filtered(ctx context.Context, filter persistence.TransactionFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&model.Transaction{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, len(filter.Types))
		for i, t := range filter.Types {
			types[i] = string(t)
		}
		query = query.Where("type IN ?", types)
	}
	if len(filter.Statuses) > 0 {
		statuses := make([]string, len(filter.Statuses))
		for i, s := range filter.Statuses {
			statuses[i] = string(s)
		}
		query = query.Where("status IN ?", statuses)
	}
	if filter.PaymentMethod != "" {
		query = query.Where("payment_method = ?", string(filter.PaymentMethod))
	}
	if filter.From != nil {
		query = query.Where("created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("created_at < ?", *filter.To)
	}
	return query
}

// List returns a page of transactions and the total match count
func (r *TransactionRepository) List(ctx context.Context, filter persistence.TransactionFilter) ([]*entity.Transaction, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, r.handleDatabaseError("counting transactions", err, "")
	}

	order := "created_at DESC, id DESC"
	if filter.OldestFirst {
		order = "created_at ASC, id ASC"
	}

	offset, size := pageBounds(filter.Page, filter.Limit)
	var rows []model.Transaction
	if err := r.filtered(ctx, filter).Order(order).Offset(offset).Limit(size).Find(&rows).Error; err != nil {
		return nil, 0, r.handleDatabaseError("listing transactions", err, "")
	}
	return toEntities(rows, transactionToEntity), total, nil
}

type aggregateRow struct {
	Type   string
	Status string
	Count  int64
	Total  decimal.Decimal
}

// Sum aggregates matching transactions by type and status
func (r *TransactionRepository) Sum(ctx context.Context, filter persistence.TransactionFilter) ([]persistence.TransactionAggregate, error) {
	var rows []aggregateRow
	err := r.filtered(ctx, filter).
		Select("type, status, count(*) AS count, coalesce(sum(amount), 0) AS total").
		Group("type, status").
		Order("type, status").
		Scan(&rows).Error
	if err != nil {
		return nil, r.handleDatabaseError("summing transactions", err, "")
	}

	result := make([]persistence.TransactionAggregate, 0, len(rows))
	for _, row := range rows {
		result = append(result, persistence.TransactionAggregate{
			Type:   entity.TransactionType(row.Type),
			Status: entity.TransactionStatus(row.Status),
			Count:  row.Count,
			Total:  row.Total,
		})
	}
	return result, nil
}
