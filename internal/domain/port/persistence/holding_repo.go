package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

// HoldingFilter narrows holding listings
type HoldingFilter struct {
	UserID    *uuid.UUID
	PackageID *uuid.UUID
	Statuses  []entity.HoldingStatus
	Page      int
	Limit     int
}

// HoldingRepository defines methods to interact with holdings
type HoldingRepository interface {
	// CreateBatch saves the holdings of one purchase
	CreateBatch(ctx context.Context, holdings []*entity.Holding) error

	// GetByID retrieves a holding by ID
	//
	// Possible errors:
	// - ErrHoldingNotFound: If holding doesn't exist
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Holding, error)

	// GetByIDForUpdate retrieves a holding and locks it until the surrounding unit of work ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Holding, error)

	// Update writes all mutable fields guarded by the version the holding was read with
	//
	// Possible errors:
	// - ErrHoldingNotFound: If holding doesn't exist
	// - ErrConcurrentUpdate: If the row changed since it was read
	Update(ctx context.Context, holding *entity.Holding) error

	// List returns a page of holdings and the total match count
	List(ctx context.Context, filter HoldingFilter) ([]*entity.Holding, int64, error)

	// FindDue returns active holdings with pending profit whose next profit date is not after now
	FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.Holding, error)

	// FindMatured returns active, fully paid holdings whose end date is not after now
	FindMatured(ctx context.Context, now time.Time, limit int) ([]*entity.Holding, error)

	// CountByPackage counts holdings of packageID in the given statuses
	CountByPackage(ctx context.Context, packageID uuid.UUID, statuses ...entity.HoldingStatus) (int64, error)
}
