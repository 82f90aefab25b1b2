package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Holding represents the database model for purchased package units
type Holding struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID       `gorm:"type:uuid;not null;index"`
	PackageID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	PackageName      string          `gorm:"not null;size:100"`
	PurchaseAmount   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	ExpectedProfit   decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	DailyProfit      decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	StartDate        time.Time       `gorm:"not null"`
	EndDate          time.Time       `gorm:"not null"`
	Status           string          `gorm:"not null;size:20"`
	ProfitPaid       decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	ProfitPending    decimal.Decimal `gorm:"type:numeric(15,2);not null"`
	LastProfitDate   *time.Time
	NextProfitDate   time.Time        `gorm:"not null"`
	TransactionID    uuid.UUID        `gorm:"type:uuid;not null;index"`
	AutoRenew        bool             `gorm:"not null;default:false"`
	CommissionAmount *decimal.Decimal `gorm:"type:numeric(15,2)"`
	CommissionPaidTo *uuid.UUID       `gorm:"type:uuid"`
	CommissionPaidAt *time.Time
	Notes            string    `gorm:"type:text"`
	Version          int64     `gorm:"not null;default:0"`
	CreatedAt        time.Time `gorm:"not null"`
	UpdatedAt        time.Time `gorm:"not null"`

	Package Package `gorm:"foreignKey:PackageID;references:ID"`
}

// TableName specifies the table name for Holding
func (Holding) TableName() string {
	return "holdings"
}
