package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// PurchaseRequest buys Quantity units of a package
type PurchaseRequest struct {
	UserID    uuid.UUID
	PackageID uuid.UUID
	Quantity  int
	Pin       string
}

// PurchaseResult is the outcome of a purchase
type PurchaseResult struct {
	Funding    *entity.Transaction
	Holdings   []*entity.Holding
	Commission *entity.Transaction
}

// AccrualFailure records a holding that could not be credited in a pass
type AccrualFailure struct {
	HoldingID uuid.UUID
	Error     string
}

// AccrualReport summarizes one accrual pass
type AccrualReport struct {
	StartedAt       time.Time
	FinishedAt      time.Time
	HoldingsScanned int
	Credits         int
	Resumed         int
	Matured         int
	TotalCredited   decimal.Decimal
	Failures        []AccrualFailure
}

// CancelHoldingRequest stops a holding's accrual
type CancelHoldingRequest struct {
	HoldingID uuid.UUID
	ActorID   uuid.UUID
	Reason    string
}

// InvestmentUseCase defines the holding lifecycle operations
type InvestmentUseCase interface {
	// PurchasePackage debits the buyer, creates holdings and pays referral commission
	PurchasePackage(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error)

	// AccrueDailyProfit credits every due holding; safe to re-run
	AccrueDailyProfit(ctx context.Context) (*AccrualReport, error)

	// CancelHolding stops accrual on an active holding without refund
	CancelHolding(ctx context.Context, req CancelHoldingRequest) (*entity.Holding, error)

	// GetHolding returns one holding
	GetHolding(ctx context.Context, id uuid.UUID) (*entity.Holding, error)

	// ListHoldings returns a page of holdings
	ListHoldings(ctx context.Context, filter persistence.HoldingFilter) ([]*entity.Holding, int64, error)
}

// PackageStats summarizes catalog performance
type PackageStats struct {
	TotalPackages  int
	ActivePackages int
	TotalSales     int64
	TotalRevenue   decimal.Decimal
	TopSellers     []*entity.Package
}

// CatalogUseCase defines package catalog management
type CatalogUseCase interface {
	CreatePackage(ctx context.Context, params entity.PackageParams) (*entity.Package, error)
	UpdatePackage(ctx context.Context, id uuid.UUID, params entity.PackageParams) (*entity.Package, error)
	SetPackageActive(ctx context.Context, id uuid.UUID, active bool) (*entity.Package, error)
	GetPackage(ctx context.Context, id uuid.UUID) (*entity.Package, error)
	ListPackages(ctx context.Context, filter persistence.PackageFilter) ([]*entity.Package, error)
	DeletePackage(ctx context.Context, id uuid.UUID) error
	Stats(ctx context.Context) (*PackageStats, error)
}
