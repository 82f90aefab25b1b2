package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

// PackageCategory groups packages by tier
type PackageCategory string

// Package categories
const (
	CategoryStarter  PackageCategory = "starter"
	CategoryBasic    PackageCategory = "basic"
	CategorySilver   PackageCategory = "silver"
	CategoryGold     PackageCategory = "gold"
	CategoryPlatinum PackageCategory = "platinum"
	CategoryDiamond  PackageCategory = "diamond"
	CategoryVIP      PackageCategory = "vip"
	CategoryPremium  PackageCategory = "premium"
)

// Purchase quantity defaults
const (
	DefaultMinPurchase = 1
	DefaultMaxPurchase = 10
)

// Package is an investment product definition
type Package struct {
	ID                 uuid.UUID
	Name               string
	Description        string
	Price              decimal.Decimal
	ProfitAmount       decimal.Decimal
	ProfitPercentage   decimal.Decimal
	DurationDays       int
	DailyProfit        decimal.Decimal
	TotalReturn        decimal.Decimal
	Category           PackageCategory
	IsPopular          bool
	IsActive           bool
	MinPurchase        int
	MaxPurchase        int
	ReferralCommission decimal.Decimal
	AgentCommission    decimal.Decimal
	TotalSales         int64
	TotalRevenue       decimal.Decimal
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// PackageParams carries admin input for creating or editing a package.
// Either ProfitAmount or ProfitPercentage must be set; the other is derived.
type PackageParams struct {
	Name               string           `validate:"required,max=100"`
	Description        string           `validate:"max=500"`
	Price              decimal.Decimal  `validate:"-"`
	ProfitAmount       *decimal.Decimal `validate:"-"`
	ProfitPercentage   *decimal.Decimal `validate:"-"`
	DurationDays       int              `validate:"min=1"`
	Category           PackageCategory  `validate:"required,oneof=starter basic silver gold platinum diamond vip premium"`
	IsPopular          bool
	IsActive           *bool
	MinPurchase        int             `validate:"omitempty,min=1"`
	MaxPurchase        int             `validate:"omitempty,min=1"`
	ReferralCommission decimal.Decimal `validate:"-"`
	AgentCommission    decimal.Decimal `validate:"-"`
}

// NewPackage creates an active package with derived profit figures
func NewPackage(p PackageParams, now time.Time) (*Package, error) {
	pkg := &Package{
		ID:           uuid.New(),
		IsActive:     true,
		MinPurchase:  DefaultMinPurchase,
		MaxPurchase:  DefaultMaxPurchase,
		TotalRevenue: decimal.Zero,
		CreatedAt:    now,
	}
	if err := pkg.Apply(p, now); err != nil {
		return nil, err
	}
	return pkg, nil
}

// Apply overwrites the editable fields and recomputes derived ones.
// Sales counters are never touched here.
func (p *Package) Apply(params PackageParams, now time.Time) error {
	if err := validate.Struct(params); err != nil {
		return errs.NewValidationError("package", err.Error(), nil)
	}
	if !params.Price.IsPositive() {
		return errs.NewValidationError("price", "price must be greater than zero", errs.ErrInvalidAmount)
	}
	if params.ProfitAmount == nil && params.ProfitPercentage == nil {
		return errs.NewValidationError("profitAmount", "profit amount or profit percentage is required", nil)
	}
	if err := validatePercentage("referralCommission", params.ReferralCommission); err != nil {
		return err
	}
	if err := validatePercentage("agentCommission", params.AgentCommission); err != nil {
		return err
	}

	p.Name = params.Name
	p.Description = params.Description
	p.Price = params.Price
	p.DurationDays = params.DurationDays
	p.Category = params.Category
	p.IsPopular = params.IsPopular
	p.ReferralCommission = params.ReferralCommission
	p.AgentCommission = params.AgentCommission
	if params.IsActive != nil {
		p.IsActive = *params.IsActive
	}
	if params.MinPurchase > 0 {
		p.MinPurchase = params.MinPurchase
	}
	if params.MaxPurchase > 0 {
		p.MaxPurchase = params.MaxPurchase
	}
	if p.MinPurchase > p.MaxPurchase {
		return errs.NewValidationError("maxPurchase", "max purchase must not be below min purchase", nil)
	}

	if params.ProfitAmount != nil {
		if params.ProfitAmount.IsNegative() {
			return errs.NewValidationError("profitAmount", "profit amount cannot be negative", errs.ErrInvalidAmount)
		}
		p.ProfitAmount = RoundMoney(*params.ProfitAmount)
		p.ProfitPercentage = p.ProfitAmount.Mul(hundred).Div(p.Price).Round(2)
	} else {
		if params.ProfitPercentage.IsNegative() {
			return errs.NewValidationError("profitPercentage", "profit percentage cannot be negative", nil)
		}
		p.ProfitPercentage = *params.ProfitPercentage
		p.ProfitAmount = PercentOf(p.Price, p.ProfitPercentage)
	}

	p.Recalculate()
	if p.ProfitAmount.IsPositive() && !p.DailyProfit.IsPositive() {
		return errs.NewValidationError("profitAmount", "profit amount must pay at least 0.01 per day", errs.ErrInvalidAmount)
	}
	p.UpdatedAt = now
	return nil
}

// Recalculate derives daily profit and total return from the current figures
func (p *Package) Recalculate() {
	if p.DurationDays > 0 {
		p.DailyProfit = RoundMoney(p.ProfitAmount.Div(decimal.NewFromInt(int64(p.DurationDays))))
	}
	p.TotalReturn = p.Price.Add(p.ProfitAmount)
}

// CheckPurchasable validates that quantity units of the package may be bought now
func (p *Package) CheckPurchasable(quantity int) error {
	if !p.IsActive {
		return errs.NewValidationError("packageId", "package "+p.Name+" is not available", errs.ErrPackageInactive)
	}
	if quantity < p.MinPurchase || quantity > p.MaxPurchase {
		return errs.NewValidationError("quantity", "quantity must be between min and max purchase", errs.ErrQuantityOutOfRange)
	}
	return nil
}

// Cost returns the price of quantity units
func (p *Package) Cost(quantity int) decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(quantity)))
}

// RecordSale increments the running sales counters
func (p *Package) RecordSale(quantity int, revenue decimal.Decimal, now time.Time) {
	p.TotalSales += int64(quantity)
	p.TotalRevenue = p.TotalRevenue.Add(revenue)
	p.UpdatedAt = now
}

func validatePercentage(field string, pct decimal.Decimal) error {
	if pct.IsNegative() || pct.GreaterThan(hundred) {
		return errs.NewValidationError(field, "percentage must be between 0 and 100", nil)
	}
	return nil
}
