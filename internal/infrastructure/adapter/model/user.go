package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// User represents the database model for users
type User struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey"`
	FullName        string          `gorm:"not null;size:100"`
	Phone           string          `gorm:"not null;size:14;uniqueIndex"`
	Email           string          `gorm:"size:255;index"`
	AccountNumber   string          `gorm:"not null;size:20;uniqueIndex"`
	ReferralCode    string          `gorm:"not null;size:16;uniqueIndex"`
	ReferrerID      *uuid.UUID      `gorm:"type:uuid;index"`
	Role            string          `gorm:"not null;size:20;default:user"`
	Balance         decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	TotalDeposit    decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	TotalWithdraw   decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	TotalInvestment decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	TotalProfit     decimal.Decimal `gorm:"type:numeric(15,2);not null;default:0"`
	PinHash         string          `gorm:"size:100"`
	IsActive        bool            `gorm:"not null;default:true"`
	Version         int64           `gorm:"not null;default:0"`
	CreatedAt       time.Time       `gorm:"not null"`
	UpdatedAt       time.Time       `gorm:"not null"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
