package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

// Transaction represents the database model for transactions.
// HoldingID and ProfitDate are copied out of the metadata so the database can
// enforce one profit credit per holding and day.
type Transaction struct {
	ID               uuid.UUID                  `gorm:"type:uuid;primaryKey"`
	UserID           uuid.UUID                  `gorm:"type:uuid;not null;index"`
	Type             string                     `gorm:"not null;size:20"`
	Amount           decimal.Decimal            `gorm:"type:numeric(15,2);not null"`
	Charge           decimal.Decimal            `gorm:"type:numeric(15,2);not null;default:0"`
	NetAmount        decimal.Decimal            `gorm:"type:numeric(15,2);not null"`
	Status           string                     `gorm:"not null;size:20;index"`
	PaymentMethod    string                     `gorm:"not null;size:20"`
	PaymentDetails   entity.PaymentDetails      `gorm:"type:jsonb;serializer:json"`
	Metadata         entity.TransactionMetadata `gorm:"type:jsonb;serializer:json"`
	HoldingID        *uuid.UUID                 `gorm:"type:uuid"`
	ProfitDate       *time.Time
	Description      string     `gorm:"size:500"`
	Reference        string     `gorm:"not null;size:32;uniqueIndex"`
	ProcessedBy      *uuid.UUID `gorm:"type:uuid"`
	ProcessedAt      *time.Time
	Notes            string `gorm:"type:text"`
	BalanceAppliedAt *time.Time
	CompletionKey    string    `gorm:"size:128"`
	CreatedAt        time.Time `gorm:"not null;index"`
	UpdatedAt        time.Time `gorm:"not null"`

	User User `gorm:"foreignKey:UserID;references:ID"`
}

// TableName specifies the table name for Transaction
func (Transaction) TableName() string {
	return "transactions"
}
