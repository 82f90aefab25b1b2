package investment

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/uow"
)

const topSellerCount = 5

// CatalogService implements the usecase.CatalogUseCase interface
type CatalogService struct {
	uow          persistence.UnitOfWork
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(unitOfWork persistence.UnitOfWork, timeProvider coreport.TimeProvider, logger coreport.Logger) usecase.CatalogUseCase {
	return &CatalogService{
		uow:          unitOfWork,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// CreatePackage adds a package to the catalog
func (s *CatalogService) CreatePackage(ctx context.Context, params entity.PackageParams) (*entity.Package, error) {
	pkg, err := entity.NewPackage(params, s.timeProvider.Now())
	if err != nil {
		return nil, err
	}
	if err := s.uow.GetPackageRepository(ctx).Create(ctx, pkg); err != nil {
		return nil, err
	}

	s.logger.Info("Package created", map[string]any{
		"package_id":   pkg.ID.String(),
		"name":         pkg.Name,
		"price":        entity.FormatAmount(pkg.Price),
		"daily_profit": entity.FormatAmount(pkg.DailyProfit),
	})
	return pkg, nil
}

// UpdatePackage edits a package and recomputes its derived figures.
// Existing holdings keep the terms they were bought with.
func (s *CatalogService) UpdatePackage(ctx context.Context, id uuid.UUID, params entity.PackageParams) (*entity.Package, error) {
	return s.modify(ctx, id, func(pkg *entity.Package) error {
		return pkg.Apply(params, s.timeProvider.Now())
	})
}

// SetPackageActive shows or hides a package from purchase
func (s *CatalogService) SetPackageActive(ctx context.Context, id uuid.UUID, active bool) (*entity.Package, error) {
	return s.modify(ctx, id, func(pkg *entity.Package) error {
		pkg.IsActive = active
		pkg.UpdatedAt = s.timeProvider.Now()
		return nil
	})
}

func (s *CatalogService) modify(ctx context.Context, id uuid.UUID, change func(*entity.Package) error) (*entity.Package, error) {
	var pkg *entity.Package
	err := uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
		repo := s.uow.GetPackageRepository(ctx)
		current, err := repo.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := change(current); err != nil {
			return err
		}
		if err := repo.Update(ctx, current); err != nil {
			return err
		}
		pkg = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Package updated", map[string]any{
		"package_id": pkg.ID.String(),
		"is_active":  pkg.IsActive,
	})
	return pkg, nil
}

// GetPackage returns one package
func (s *CatalogService) GetPackage(ctx context.Context, id uuid.UUID) (*entity.Package, error) {
	return s.uow.GetPackageRepository(ctx).GetByID(ctx, id)
}

// ListPackages returns the packages matching filter
func (s *CatalogService) ListPackages(ctx context.Context, filter persistence.PackageFilter) ([]*entity.Package, error) {
	return s.uow.GetPackageRepository(ctx).List(ctx, filter)
}

// DeletePackage removes a package nobody is invested in
func (s *CatalogService) DeletePackage(ctx context.Context, id uuid.UUID) error {
	return uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
		if _, err := s.uow.GetPackageRepository(ctx).GetByIDForUpdate(ctx, id); err != nil {
			return err
		}

		active, err := s.uow.GetHoldingRepository(ctx).CountByPackage(ctx, id, entity.HoldingActive, entity.HoldingPending)
		if err != nil {
			return err
		}
		if active > 0 {
			return fmt.Errorf("%w: %d holdings still accruing", errs.ErrPackageInUse, active)
		}

		if err := s.uow.GetPackageRepository(ctx).Delete(ctx, id); err != nil {
			return err
		}
		s.logger.Info("Package deleted", map[string]any{"package_id": id.String()})
		return nil
	})
}

// Stats summarizes sales across the catalog
func (s *CatalogService) Stats(ctx context.Context) (*usecase.PackageStats, error) {
	packages, err := s.uow.GetPackageRepository(ctx).List(ctx, persistence.PackageFilter{Sort: persistence.SortBySales})
	if err != nil {
		return nil, err
	}

	stats := &usecase.PackageStats{
		TotalPackages: len(packages),
		TotalRevenue:  decimal.Zero,
	}
	for _, pkg := range packages {
		if pkg.IsActive {
			stats.ActivePackages++
		}
		stats.TotalSales += pkg.TotalSales
		stats.TotalRevenue = stats.TotalRevenue.Add(pkg.TotalRevenue)
	}

	sellers := slices.DeleteFunc(slices.Clone(packages), func(pkg *entity.Package) bool { return pkg.TotalSales == 0 })
	stats.TopSellers = sellers[:min(topSellerCount, len(sellers))]
	return stats, nil
}
