package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

// PackageSort orders catalog listings
type PackageSort string

// Catalog orderings
const (
	SortByPrice      PackageSort = "price"
	SortByPopularity PackageSort = "popularity"
	SortBySales      PackageSort = "sales"
)

// PackageFilter narrows catalog listings
type PackageFilter struct {
	Category   entity.PackageCategory
	ActiveOnly bool
	Sort       PackageSort
	Limit      int
}

// PackageRepository defines methods to interact with the package catalog
type PackageRepository interface {
	// Create saves a new package
	//
	// Possible errors:
	// - ErrDuplicatePackage: If the name is taken
	Create(ctx context.Context, pkg *entity.Package) error

	// Update writes all editable fields and counters
	//
	// Possible errors:
	// - ErrPackageNotFound: If package doesn't exist
	// - ErrDuplicatePackage: If the new name is taken
	Update(ctx context.Context, pkg *entity.Package) error

	// GetByID retrieves a package by ID
	//
	// Possible errors:
	// - ErrPackageNotFound: If package doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Package, error)

	// GetByIDForUpdate retrieves a package and locks it until the surrounding unit of work ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Package, error)

	// List returns the packages matching filter
	List(ctx context.Context, filter PackageFilter) ([]*entity.Package, error)

	// Delete removes a package definition
	Delete(ctx context.Context, id uuid.UUID) error
}
