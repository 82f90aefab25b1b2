package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// PackageRepository implements persistence.PackageRepository
type PackageRepository struct {
	store *Store
}

func (r *PackageRepository) nameTaken(pkg *entity.Package) bool {
	for _, existing := range r.store.packages {
		if existing.ID != pkg.ID && strings.EqualFold(existing.Name, pkg.Name) {
			return true
		}
	}
	return false
}

// Create saves a new package
func (r *PackageRepository) Create(ctx context.Context, pkg *entity.Package) error {
	return r.store.with(ctx, func() error {
		if _, ok := r.store.packages[pkg.ID]; ok || r.nameTaken(pkg) {
			return errs.ErrDuplicatePackage
		}
		r.store.packages[pkg.ID] = clonePtr(pkg)
		r.store.stamp(pkg.ID)
		return nil
	})
}

// Update writes all editable fields and counters
func (r *PackageRepository) Update(ctx context.Context, pkg *entity.Package) error {
	return r.store.with(ctx, func() error {
		if _, ok := r.store.packages[pkg.ID]; !ok {
			return errs.NewNotFoundError("package", pkg.ID.String(), errs.ErrPackageNotFound)
		}
		if r.nameTaken(pkg) {
			return errs.ErrDuplicatePackage
		}
		r.store.packages[pkg.ID] = clonePtr(pkg)
		return nil
	})
}

// GetByID retrieves a package by ID
func (r *PackageRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Package, error) {
	var pkg *entity.Package
	err := r.store.with(ctx, func() error {
		stored, ok := r.store.packages[id]
		if !ok {
			return errs.NewNotFoundError("package", id.String(), errs.ErrPackageNotFound)
		}
		pkg = clonePtr(stored)
		return nil
	})
	return pkg, err
}

// GetByIDForUpdate retrieves a package; the unit of work already excludes other writers
func (r *PackageRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Package, error) {
	return r.GetByID(ctx, id)
}

// List returns the packages matching filter
func (r *PackageRepository) List(ctx context.Context, filter persistence.PackageFilter) ([]*entity.Package, error) {
	var result []*entity.Package
	err := r.store.with(ctx, func() error {
		result = make([]*entity.Package, 0, len(r.store.packages))
		for _, pkg := range r.store.packages {
			if filter.ActiveOnly && !pkg.IsActive {
				continue
			}
			if filter.Category != "" && pkg.Category != filter.Category {
				continue
			}
			result = append(result, clonePtr(pkg))
		}

		slices.SortFunc(result, func(a, b *entity.Package) int {
			switch filter.Sort {
			case persistence.SortByPopularity:
				if a.IsPopular != b.IsPopular {
					if a.IsPopular {
						return -1
					}
					return 1
				}
				if c := b.TotalSales - a.TotalSales; c != 0 {
					return int(c)
				}
			case persistence.SortBySales:
				if c := b.TotalSales - a.TotalSales; c != 0 {
					return int(c)
				}
			}
			if c := a.Price.Cmp(b.Price); c != 0 {
				return c
			}
			return int(r.store.order[a.ID] - r.store.order[b.ID])
		})

		if filter.Limit > 0 && len(result) > filter.Limit {
			result = result[:filter.Limit]
		}
		return nil
	})
	return result, err
}

// Delete removes a package definition
func (r *PackageRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.store.with(ctx, func() error {
		if _, ok := r.store.packages[id]; !ok {
			return errs.NewNotFoundError("package", id.String(), errs.ErrPackageNotFound)
		}
		delete(r.store.packages, id)
		return nil
	})
}
