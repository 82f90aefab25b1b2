package migration

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/model"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/repository"
)

func amount(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

// DefaultCatalog is the package catalog a fresh installation starts with
func DefaultCatalog() []entity.PackageParams {
	return []entity.PackageParams{
		{
			Name:               "Starter Pack",
			Description:        "Short three day plan for first time investors",
			Price:              decimal.NewFromInt(299),
			ProfitAmount:       amount(35),
			DurationDays:       3,
			Category:           entity.CategoryStarter,
			IsPopular:          true,
			ReferralCommission: decimal.NewFromInt(5),
		},
		{
			Name:               "Gold Pack",
			Description:        "Ten day plan",
			Price:              decimal.NewFromInt(1199),
			ProfitAmount:       amount(300),
			DurationDays:       10,
			Category:           entity.CategoryGold,
			IsPopular:          true,
			ReferralCommission: decimal.NewFromInt(5),
		},
		{
			Name:               "VIP Pack",
			Description:        "Twenty five day plan",
			Price:              decimal.NewFromInt(4999),
			ProfitAmount:       amount(2000),
			DurationDays:       25,
			Category:           entity.CategoryVIP,
			IsPopular:          true,
			MaxPurchase:        5,
			ReferralCommission: decimal.NewFromInt(7),
			AgentCommission:    decimal.NewFromInt(2),
		},
		{
			Name:               "Premium Pack",
			Description:        "Thirty day plan",
			Price:              decimal.NewFromInt(10999),
			ProfitAmount:       amount(3000),
			DurationDays:       30,
			Category:           entity.CategoryPremium,
			IsPopular:          true,
			MaxPurchase:        3,
			ReferralCommission: decimal.NewFromInt(10),
			AgentCommission:    decimal.NewFromInt(3),
		},
	}
}

// CatalogSeeder fills an empty package catalog with DefaultCatalog
type CatalogSeeder struct {
	db           *gorm.DB
	logger       coreport.Logger
	timeProvider coreport.TimeProvider
}

// NewCatalogSeeder creates a new catalog seeder
func NewCatalogSeeder(db *gorm.DB, logger coreport.Logger, timeProvider coreport.TimeProvider) *CatalogSeeder {
	return &CatalogSeeder{db: db, logger: logger, timeProvider: timeProvider}
}

// Run inserts the default packages unless the catalog already has any
func (s *CatalogSeeder) Run(ctx context.Context) error {
	var existing int64
	if err := s.db.WithContext(ctx).Model(&model.Package{}).Count(&existing).Error; err != nil {
		return err
	}
	if existing > 0 {
		return nil
	}

	packages := repository.NewPackageRepository(s.db, s.logger)
	now := s.timeProvider.Now()
	for _, params := range DefaultCatalog() {
		pkg, err := entity.NewPackage(params, now)
		if err != nil {
			return err
		}
		if err := packages.Create(ctx, pkg); err != nil {
			return err
		}
	}

	s.logger.Info("Seeded default package catalog", map[string]any{
		"packages": len(DefaultCatalog()),
	})
	return nil
}
