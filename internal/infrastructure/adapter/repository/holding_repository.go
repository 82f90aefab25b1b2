package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/model"
)

// HoldingRepository implements persistence.HoldingRepository using GORM
type HoldingRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewHoldingRepository creates a new HoldingRepository instance
func NewHoldingRepository(db *gorm.DB, logger coreport.Logger) *HoldingRepository {
	return &HoldingRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *HoldingRepository) handleDatabaseError(operation string, err error, id string) error {
	mapped := r.errorClassifier.Translate(operation, err,
		errs.NewNotFoundError("holding", id, errs.ErrHoldingNotFound), nil)
	if !errs.IsNotFoundError(mapped) {
		r.logger.Error("Database error when "+operation, map[string]any{
			"holding_id": id,
			"error":      err.Error(),
		})
	}
	return mapped
}

func statusStrings(statuses []entity.HoldingStatus) []string {
	result := make([]string, len(statuses))
	for i, s := range statuses {
		result[i] = string(s)
	}
	return result
}

// CreateBatch saves the holdings of one purchase in a single statement
func (r *HoldingRepository) CreateBatch(ctx context.Context, holdings []*entity.Holding) error {
	if len(holdings) == 0 {
		return nil
	}

	rows := make([]*model.Holding, 0, len(holdings))
	for _, h := range holdings {
		rows = append(rows, holdingToModel(h))
	}
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(rows).Error; err != nil {
		return r.handleDatabaseError("creating holdings", err, holdings[0].ID.String())
	}
	return nil
}

func (r *HoldingRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*entity.Holding, error) {
	db := r.db.WithContext(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.Holding
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, r.handleDatabaseError("getting holding", err, id.String())
	}
	return holdingToEntity(&row), nil
}

// GetByID retrieves a holding by ID
func (r *HoldingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Holding, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a holding with a row lock held until the transaction ends
func (r *HoldingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Holding, error) {
	return r.get(ctx, id, true)
}

// Update writes the holding if its stored version matches
func (r *HoldingRepository) Update(ctx context.Context, holding *entity.Holding) error {
	row := holdingToModel(holding)
	result := r.db.WithContext(ctx).Model(&model.Holding{}).
		Where("id = ? AND version = ?", holding.ID, holding.Version).
		Updates(map[string]any{
			"status":             row.Status,
			"profit_paid":        row.ProfitPaid,
			"profit_pending":     row.ProfitPending,
			"last_profit_date":   row.LastProfitDate,
			"next_profit_date":   row.NextProfitDate,
			"auto_renew":         row.AutoRenew,
			"commission_amount":  row.CommissionAmount,
			"commission_paid_to": row.CommissionPaidTo,
			"commission_paid_at": row.CommissionPaidAt,
			"notes":              row.Notes,
			"version":            gorm.Expr("version + 1"),
			"updated_at":         row.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating holding", result.Error, holding.ID.String())
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, holding.ID); err != nil {
			return err
		}
		return errs.NewConcurrencyError("update holding", nil)
	}

	holding.Version++
	return nil
}

// List returns a page of holdings, newest first
func (r *HoldingRepository) List(ctx context.Context, filter persistence.HoldingFilter) ([]*entity.Holding, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Holding{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.PackageID != nil {
		query = query.Where("package_id = ?", *filter.PackageID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", statusStrings(filter.Statuses))
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleDatabaseError("counting holdings", err, "")
	}

	offset, size := pageBounds(filter.Page, filter.Limit)
	var rows []model.Holding
	if err := query.Order("created_at DESC, id").Offset(offset).Limit(size).Find(&rows).Error; err != nil {
		return nil, 0, r.handleDatabaseError("listing holdings", err, "")
	}
	return toEntities(rows, holdingToEntity), total, nil
}

func (r *HoldingRepository) scan(ctx context.Context, operation string, limit int, order string, query string, args ...any) ([]*entity.Holding, error) {
	db := r.db.WithContext(ctx).Where(query, args...).Order(order)
	if limit > 0 {
		db = db.Limit(limit)
	}

	var rows []model.Holding
	if err := db.Find(&rows).Error; err != nil {
		return nil, r.handleDatabaseError(operation, err, "")
	}
	return toEntities(rows, holdingToEntity), nil
}

// FindDue returns holdings owed a profit credit at now, earliest first
func (r *HoldingRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.Holding, error) {
	return r.scan(ctx, "finding due holdings", limit, "next_profit_date ASC, id",
		"status = ? AND profit_pending > 0 AND next_profit_date <= ?", string(entity.HoldingActive), now)
}

// FindMatured returns fully paid holdings past their end date
func (r *HoldingRepository) FindMatured(ctx context.Context, now time.Time, limit int) ([]*entity.Holding, error) {
	return r.scan(ctx, "finding matured holdings", limit, "end_date ASC, id",
		"status = ? AND profit_pending = 0 AND end_date <= ?", string(entity.HoldingActive), now)
}

// CountByPackage counts holdings of packageID in the given statuses
func (r *HoldingRepository) CountByPackage(ctx context.Context, packageID uuid.UUID, statuses ...entity.HoldingStatus) (int64, error) {
	query := r.db.WithContext(ctx).Model(&model.Holding{}).Where("package_id = ?", packageID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statusStrings(statuses))
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, r.handleDatabaseError("counting package holdings", err, packageID.String())
	}
	return count, nil
}
