package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/model"
)

// PackageRepository implements persistence.PackageRepository using GORM
type PackageRepository struct {
	db              *gorm.DB
	logger          coreport.Logger
	errorClassifier *ErrorClassifier
}

// NewPackageRepository creates a new PackageRepository instance
func NewPackageRepository(db *gorm.DB, logger coreport.Logger) *PackageRepository {
	return &PackageRepository{
		db:              db,
		logger:          logger,
		errorClassifier: NewErrorClassifier(),
	}
}

func (r *PackageRepository) handleDatabaseError(operation string, err error, id string) error {
	mapped := r.errorClassifier.Translate(operation, err,
		errs.NewNotFoundError("package", id, errs.ErrPackageNotFound), errs.ErrDuplicatePackage)
	if !errs.IsNotFoundError(mapped) {
		r.logger.Error("Database error when "+operation, map[string]any{
			"package_id": id,
			"error":      err.Error(),
		})
	}
	return mapped
}

// Create saves a new package
func (r *PackageRepository) Create(ctx context.Context, pkg *entity.Package) error {
	if err := r.db.WithContext(ctx).Create(packageToModel(pkg)).Error; err != nil {
		return r.handleDatabaseError("creating package", err, pkg.ID.String())
	}
	return nil
}

// Update writes all editable fields and counters
func (r *PackageRepository) Update(ctx context.Context, pkg *entity.Package) error {
	row := packageToModel(pkg)
	result := r.db.WithContext(ctx).Model(&model.Package{}).
		Where("id = ?", pkg.ID).
		Select("*").
		Omit("id", "created_at").
		Updates(row)
	if result.Error != nil {
		return r.handleDatabaseError("updating package", result.Error, pkg.ID.String())
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFoundError("package", pkg.ID.String(), errs.ErrPackageNotFound)
	}
	return nil
}

func (r *PackageRepository) get(ctx context.Context, id uuid.UUID, lock bool) (*entity.Package, error) {
	db := r.db.WithContext(ctx)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var row model.Package
	if err := db.Where("id = ?", id).First(&row).Error; err != nil {
		return nil, r.handleDatabaseError("getting package", err, id.String())
	}
	return packageToEntity(&row), nil
}

// GetByID retrieves a package by ID
func (r *PackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Package, error) {
	return r.get(ctx, id, false)
}

// GetByIDForUpdate retrieves a package with a row lock held until the transaction ends
func (r *PackageRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Package, error) {
	return r.get(ctx, id, true)
}

// List returns the packages matching filter
func (r *PackageRepository) List(ctx context.Context, filter persistence.PackageFilter) ([]*entity.Package, error) {
	query := r.db.WithContext(ctx).Model(&model.Package{})
	if filter.ActiveOnly {
		query = query.Where("is_active = ?", true)
	}
	if filter.Category != "" {
		query = query.Where("category = ?", string(filter.Category))
	}

	switch filter.Sort {
	case persistence.SortByPopularity:
		query = query.Order("is_popular DESC").Order("total_sales DESC")
	case persistence.SortBySales:
		query = query.Order("total_sales DESC")
	}
	query = query.Order("price ASC").Order("created_at ASC")

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []model.Package
	if err := query.Find(&rows).Error; err != nil {
		return nil, r.handleDatabaseError("listing packages", err, "")
	}
	return toEntities(rows, packageToEntity), nil
}

// Delete removes a package definition
func (r *PackageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Package{})
	if result.Error != nil {
		return r.handleDatabaseError("deleting package", result.Error, id.String())
	}
	if result.RowsAffected == 0 {
		return errs.NewNotFoundError("package", id.String(), errs.ErrPackageNotFound)
	}

	r.logger.Info("Package deleted", map[string]any{"package_id": id})
	return nil
}
