package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/model"
)

// UserRepository implements persistence.UserRepository using GORM
type UserRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewUserRepository creates a new UserRepository instance
func NewUserRepository(db *gorm.DB, logger coreport.Logger) *UserRepository {
	return &UserRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

// handleDatabaseError standardizes database error handling
func (r *UserRepository) handleDatabaseError(operation string, err error, id string) error {
	mapped := r.errorClassifier.Translate(operation, err,
		errs.NewNotFoundError("user", id, errs.ErrUserNotFound), errs.ErrDuplicateUser)

	if errs.IsNotFoundError(mapped) {
		r.logger.Debug("User not found", map[string]any{"user_id": id})
		return mapped
	}

	r.logger.Error("Database error when "+operation, map[string]any{
		"user_id": id,
		"error":   err.Error(),
	})
	return mapped
}

func (r *UserRepository) first(ctx context.Context, operation, id string, lock bool, query string, args ...any) (*entity.User, error) {
	db := r.db.WithContext(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.User
	if err := db.Where(query, args...).First(&row).Error; err != nil {
		return nil, r.handleDatabaseError(operation, err, id)
	}
	return userToEntity(&row), nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	r.logger.Debug("Creating new user", map[string]any{
		"user_id": user.ID,
		"phone":   user.Phone,
	})

	if err := r.db.WithContext(ctx).Create(userToModel(user)).Error; err != nil {
		return r.handleDatabaseError("creating user", err, user.ID.String())
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.first(ctx, "getting user", id.String(), false, "id = ?", id)
}

// GetByIDForUpdate retrieves a user with a row lock held until the transaction ends
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.first(ctx, "locking user", id.String(), true, "id = ?", id)
}

// GetByReferralCode resolves a referral code to its owner
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	return r.first(ctx, "resolving referral code", code, false, "upper(referral_code) = ?", strings.ToUpper(code))
}

// Update writes all mutable fields if the stored version matches
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	row := userToModel(user)
	result := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Updates(map[string]any{
			"full_name":        row.FullName,
			"email":            row.Email,
			"role":             row.Role,
			"balance":          row.Balance,
			"total_deposit":    row.TotalDeposit,
			"total_withdraw":   row.TotalWithdraw,
			"total_investment": row.TotalInvestment,
			"total_profit":     row.TotalProfit,
			"pin_hash":         row.PinHash,
			"is_active":        row.IsActive,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       row.UpdatedAt,
		})
	if result.Error != nil {
		return r.handleDatabaseError("updating user", result.Error, user.ID.String())
	}

	if result.RowsAffected == 0 {
		if _, err := r.GetByID(ctx, user.ID); err != nil {
			return err
		}
		r.logger.Warn("User changed since it was read", map[string]any{
			"user_id": user.ID,
			"version": user.Version,
		})
		return errs.NewConcurrencyError("update user", nil)
	}

	user.Version++
	return nil
}

// List returns a page of users, newest first
func (r *UserRepository) List(ctx context.Context, filter persistence.UserFilter) ([]*entity.User, int64, error) {
	query := r.db.WithContext(ctx).Model(&model.User{})
	if filter.Role != "" {
		query = query.Where("role = ?", string(filter.Role))
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		like := "%" + strings.ToLower(search) + "%"
		query = query.Where("lower(full_name) LIKE ? OR phone LIKE ? OR lower(email) LIKE ?", like, like, like)
	}

	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, r.handleDatabaseError("counting users", err, "")
	}

	offset, size := pageBounds(filter.Page, filter.Limit)
	var rows []model.User
	if err := query.Order("created_at DESC, id").Offset(offset).Limit(size).Find(&rows).Error; err != nil {
		return nil, 0, r.handleDatabaseError("listing users", err, "")
	}
	return toEntities(rows, userToEntity), total, nil
}

// Count returns the total and active user counts
func (r *UserRepository) Count(ctx context.Context) (persistence.UserCounts, error) {
	var counts persistence.UserCounts
	err := r.db.WithContext(ctx).Model(&model.User{}).
		Select("count(*) AS total, count(*) FILTER (WHERE is_active) AS active").
		Scan(&counts).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return counts, r.handleDatabaseError("counting users", err, "")
	}
	return counts, nil
}
