package persistence

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
)

// UserFilter narrows user listings
type UserFilter struct {
	Role     entity.Role
	IsActive *bool
	Search   string
	Page     int
	Limit    int
}

// UserCounts summarizes the user base
type UserCounts struct {
	Total  int64
	Active int64
}

// UserRepository defines methods to interact with user data
type UserRepository interface {
	// Create creates a new user
	//
	// Possible errors:
	// - ErrDuplicateUser: If phone, account number or referral code is taken
	// - ErrDatabaseConnection: If database connection fails
	Create(ctx context.Context, user *entity.User) error

	// GetByID retrieves a user by ID
	//
	// Possible errors:
	// - ErrUserNotFound: If user with specified ID doesn't exist
	// - ErrDatabaseConnection: If database connection fails
	GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// GetByIDForUpdate retrieves a user and locks the row until the surrounding unit of work ends
	GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error)

	// GetByReferralCode resolves a referral code to its owner
	//
	// Possible errors:
	// - ErrUserNotFound: If no user owns the code
	GetByReferralCode(ctx context.Context, code string) (*entity.User, error)

	// Update writes all mutable fields guarded by the version the user was read with.
	// On success user.Version is incremented.
	//
	// Possible errors:
	// - ErrUserNotFound: If user doesn't exist
	// - ErrConcurrentUpdate: If the row changed since it was read
	// - ErrDatabaseConnection: If database connection fails
	Update(ctx context.Context, user *entity.User) error

	// List returns a page of users and the total match count
	List(ctx context.Context, filter UserFilter) ([]*entity.User, int64, error)

	// Count returns the total and active user counts
	Count(ctx context.Context) (UserCounts, error)
}
