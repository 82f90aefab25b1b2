package memory

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// UserRepository implements persistence.UserRepository
type UserRepository struct {
	store *Store
}

// Create saves a new user
func (r *UserRepository) Create(ctx context.Context, user *entity.User) error {
	return r.store.with(ctx, func() error {
		for _, existing := range r.store.users {
			if existing.ID == user.ID ||
				existing.Phone == user.Phone ||
				existing.AccountNumber == user.AccountNumber ||
				existing.ReferralCode == user.ReferralCode {
				return errs.ErrDuplicateUser
			}
		}
		r.store.users[user.ID] = clonePtr(user)
		r.store.stamp(user.ID)
		return nil
	})
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	var user *entity.User
	err := r.store.with(ctx, func() error {
		stored, ok := r.store.users[id]
		if !ok {
			return errs.NewNotFoundError("user", id.String(), errs.ErrUserNotFound)
		}
		user = clonePtr(stored)
		return nil
	})
	return user, err
}

// GetByIDForUpdate retrieves a user; the unit of work already excludes other writers
func (r *UserRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return r.GetByID(ctx, id)
}

// GetByReferralCode resolves a referral code to its owner
func (r *UserRepository) GetByReferralCode(ctx context.Context, code string) (*entity.User, error) {
	var user *entity.User
	err := r.store.with(ctx, func() error {
		for _, stored := range r.store.users {
			if strings.EqualFold(stored.ReferralCode, code) {
				user = clonePtr(stored)
				return nil
			}
		}
		return errs.NewNotFoundError("user", code, errs.ErrUserNotFound)
	})
	return user, err
}

// Update writes the user if its version is current
func (r *UserRepository) Update(ctx context.Context, user *entity.User) error {
	return r.store.with(ctx, func() error {
		stored, ok := r.store.users[user.ID]
		if !ok {
			return errs.NewNotFoundError("user", user.ID.String(), errs.ErrUserNotFound)
		}
		if stored.Version != user.Version {
			return errs.NewConcurrencyError("update user", nil)
		}
		user.Version++
		r.store.users[user.ID] = clonePtr(user)
		return nil
	})
}

// List returns a page of users, newest first
func (r *UserRepository) List(ctx context.Context, filter persistence.UserFilter) ([]*entity.User, int64, error) {
	var (
		page  []*entity.User
		total int64
	)
	err := r.store.with(ctx, func() error {
		matched := make([]*entity.User, 0)
		search := strings.ToLower(filter.Search)
		for _, u := range r.store.users {
			if filter.Role != "" && u.Role != filter.Role {
				continue
			}
			if filter.IsActive != nil && u.IsActive != *filter.IsActive {
				continue
			}
			if search != "" &&
				!strings.Contains(strings.ToLower(u.FullName), search) &&
				!strings.Contains(u.Phone, search) &&
				!strings.Contains(strings.ToLower(u.Email), search) {
				continue
			}
			matched = append(matched, clonePtr(u))
		}
		slices.SortFunc(matched, func(a, b *entity.User) int {
			return r.store.newestFirst(a.ID, b.ID, a.CreatedAt, b.CreatedAt)
		})
		total = int64(len(matched))
		page = paginate(matched, filter.Page, filter.Limit)
		return nil
	})
	return page, total, err
}

// Count returns the total and active user counts
func (r *UserRepository) Count(ctx context.Context) (persistence.UserCounts, error) {
	var counts persistence.UserCounts
	err := r.store.with(ctx, func() error {
		for _, u := range r.store.users {
			counts.Total++
			if u.IsActive {
				counts.Active++
			}
		}
		return nil
	})
	return counts, err
}

