package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Package represents the database model for investment packages
type Package struct {
	ID                 uuid.UUID       `gorm:"type:uuid;primaryKey"`
	Name               string          `gorm:"not null;size:100"`
	Description        string          `gorm:"size:500"`
	Price              decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	ProfitAmount       decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	ProfitPercentage   decimal.Decimal `gorm:"type:numeric(7,2);not null"`
	DurationDays       int             `gorm:"not null"`
	DailyProfit        decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	TotalReturn        decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	Category           string          `gorm:"not null;size:20;index"`
	IsPopular          bool            `gorm:"not null;default:false"`
	IsActive           bool            `gorm:"not null;default:true"`
	MinPurchase        int             `gorm:"not null;default:1"`
	MaxPurchase        int             `gorm:"not null;default:10"`
	ReferralCommission decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	AgentCommission    decimal.Decimal `gorm:"type:numeric(5,2);not null;default:0"`
	TotalSales         int64           `gorm:"not null;default:0"`
	TotalRevenue       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	CreatedAt          time.Time       `gorm:"not null"`
	UpdatedAt          time.Time       `gorm:"not null"`
}

// TableName specifies the table name for Package
func (Package) TableName() string {
	return "packages"
}
