package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

// TransactionFilter narrows transaction queries. Zero values mean "any".
type TransactionFilter struct {
	UserID        *uuid.UUID
	Types         []entity.TransactionType
	Statuses      []entity.TransactionStatus
	PaymentMethod entity.PaymentMethod
	From          *time.Time // inclusive, on created_at
	To            *time.Time // exclusive, on created_at
	OldestFirst   bool
	Page          int
	Limit         int
}

// TransactionAggregate is one group of a sum by type and status
type TransactionAggregate struct {
	Type   entity.TransactionType
	Status entity.TransactionStatus
	Count  int64
	Total  decimal.Decimal
}

// TransactionRepository defines methods to interact with transaction data
type TransactionRepository interface {
	// Create saves a new transaction
	//
	// Possible errors:
	// - ErrDuplicateReference: If the reference code is already taken; the unit of work stays usable
	// - ErrConstraintViolation: If a profit credit for the same holding and date exists
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, transaction *entity.Transaction) error

	// GetByID retrieves a transaction by ID
	//
	// Possible errors:
	// - ErrTransactionNotFound: If transaction with the given ID doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)

	// GetByIDForUpdate retrieves a transaction and locks it until the surrounding unit of work ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error)

	// GetByReference retrieves a transaction by its external reference code
	GetByReference(ctx context.Context, reference string) (*entity.Transaction, error)

	// UpdateStatus persists status, processing metadata and the balance marker,
	// but only if the stored status still equals from.
	//
	// Possible errors:
	// - ErrConcurrentUpdate: If the stored status is no longer from
	// - ErrTransactionNotFound: If transaction doesn't exist
	UpdateStatus(ctx context.Context, transaction *entity.Transaction, from entity.TransactionStatus) error

	// FindProfitCredit returns the profit credit booked for holdingID on profitDate, or nil if there is none
	FindProfitCredit(ctx context.Context, holdingID uuid.UUID, profitDate time.Time) (*entity.Transaction, error)

	// List returns a page of transactions and the total match count
	List(ctx context.Context, filter TransactionFilter) ([]*entity.Transaction, int64, error)

	// Sum aggregates matching transactions by type and status. Paging fields are ignored.
	Sum(ctx context.Context, filter TransactionFilter) ([]TransactionAggregate, error)
}
