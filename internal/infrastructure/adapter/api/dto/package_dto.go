package dto

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

// PackageRequest is the body of package create and update.
// Exactly one of profitAmount and profitPercentage is expected.
type PackageRequest struct {
	Name               string           `json:"name" binding:"required,max=100"`
	Description        string           `json:"description" binding:"max=500"`
	Price              decimal.Decimal  `json:"price"`
	ProfitAmount       *decimal.Decimal `json:"profitAmount"`
	ProfitPercentage   *decimal.Decimal `json:"profitPercentage"`
	DurationDays       int              `json:"durationDays" binding:"required,min=1"`
	Category           string           `json:"category" binding:"required"`
	IsPopular          bool             `json:"isPopular"`
	IsActive           *bool            `json:"isActive"`
	MinPurchase        int              `json:"minPurchase" binding:"omitempty,min=1"`
	MaxPurchase        int              `json:"maxPurchase" binding:"omitempty,min=1"`
	ReferralCommission decimal.Decimal  `json:"referralCommission"`
	AgentCommission    decimal.Decimal  `json:"agentCommission"`
}

// Params converts the request to domain input
func (r PackageRequest) Params() entity.PackageParams {
	return entity.PackageParams{
		Name:               r.Name,
		Description:        r.Description,
		Price:              r.Price,
		ProfitAmount:       r.ProfitAmount,
		ProfitPercentage:   r.ProfitPercentage,
		DurationDays:       r.DurationDays,
		Category:           entity.PackageCategory(r.Category),
		IsPopular:          r.IsPopular,
		IsActive:           r.IsActive,
		MinPurchase:        r.MinPurchase,
		MaxPurchase:        r.MaxPurchase,
		ReferralCommission: r.ReferralCommission,
		AgentCommission:    r.AgentCommission,
	}
}

// PackageQuery binds catalog listing filters
type PackageQuery struct {
	Category string `form:"category"`
	Sort     string `form:"sort" binding:"omitempty,oneof=price popularity sales"`
	Limit    int    `form:"limit" binding:"omitempty,min=1,max=100"`
	All      bool   `form:"all"`
}

// PackageResponse is the API view of a catalog entry
type PackageResponse struct {
	ID                 uuid.UUID              `json:"id"`
	Name               string                 `json:"name"`
	Description        string                 `json:"description,omitempty"`
	Price              string                 `json:"price"`
	ProfitAmount       string                 `json:"profitAmount"`
	ProfitPercentage   string                 `json:"profitPercentage"`
	DurationDays       int                    `json:"durationDays"`
	DailyProfit        string                 `json:"dailyProfit"`
	TotalReturn        string                 `json:"totalReturn"`
	Category           entity.PackageCategory `json:"category"`
	IsPopular          bool                   `json:"isPopular"`
	IsActive           bool                   `json:"isActive"`
	MinPurchase        int                    `json:"minPurchase"`
	MaxPurchase        int                    `json:"maxPurchase"`
	ReferralCommission string                 `json:"referralCommission"`
	AgentCommission    string                 `json:"agentCommission"`
	TotalSales         int64                  `json:"totalSales"`
	TotalRevenue       string                 `json:"totalRevenue"`
	CreatedAt          time.Time              `json:"createdAt"`
}

// NewPackageResponse maps a package entity
func NewPackageResponse(p *entity.Package) PackageResponse {
	return PackageResponse{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              entity.FormatAmount(p.Price),
		ProfitAmount:       entity.FormatAmount(p.ProfitAmount),
		ProfitPercentage:   p.ProfitPercentage.StringFixed(2),
		DurationDays:       p.DurationDays,
		DailyProfit:        entity.FormatAmount(p.DailyProfit),
		TotalReturn:        entity.FormatAmount(p.TotalReturn),
		Category:           p.Category,
		IsPopular:          p.IsPopular,
		IsActive:           p.IsActive,
		MinPurchase:        p.MinPurchase,
		MaxPurchase:        p.MaxPurchase,
		ReferralCommission: p.ReferralCommission.StringFixed(2),
		AgentCommission:    p.AgentCommission.StringFixed(2),
		TotalSales:         p.TotalSales,
		TotalRevenue:       entity.FormatAmount(p.TotalRevenue),
		CreatedAt:          p.CreatedAt,
	}
}

// NewPackageResponses maps a slice of packages
func NewPackageResponses(pkgs []*entity.Package) []PackageResponse {
	out := make([]PackageResponse, 0, len(pkgs))
	for _, p := range pkgs {
		out = append(out, NewPackageResponse(p))
	}
	return out
}

// PackageStatsResponse summarizes the catalog
type PackageStatsResponse struct {
	TotalPackages  int               `json:"totalPackages"`
	ActivePackages int               `json:"activePackages"`
	TotalSales     int64             `json:"totalSales"`
	TotalRevenue   string            `json:"totalRevenue"`
	TopSellers     []PackageResponse `json:"topSellers"`
}

// NewPackageStatsResponse maps catalog statistics
func NewPackageStatsResponse(s *usecase.PackageStats) PackageStatsResponse {
	return PackageStatsResponse{
		TotalPackages:  s.TotalPackages,
		ActivePackages: s.ActivePackages,
		TotalSales:     s.TotalSales,
		TotalRevenue:   entity.FormatAmount(s.TotalRevenue),
		TopSellers:     NewPackageResponses(s.TopSellers),
	}
}
