package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// HoldingRepository implements persistence.HoldingRepository
type HoldingRepository struct {
	store *Store
}

// CreateBatch saves the holdings of one purchase
func (r *HoldingRepository) CreateBatch(ctx context.Context, holdings []*entity.Holding) error {
	return r.store.with(ctx, func() error {
		for _, h := range holdings {
			if _, ok := r.store.holdings[h.ID]; ok {
				return errs.ErrConstraintViolation
			}
		}
		for _, h := range holdings {
			r.store.holdings[h.ID] = clonePtr(h)
			r.store.stamp(h.ID)
		}
		return nil
	})
}

// GetByID retrieves a holding by ID
func (r *HoldingRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Holding, error) {
	var holding *entity.Holding
	err := r.store.with(ctx, func() error {
		stored, ok := r.store.holdings[id]
		if !ok {
			return errs.NewNotFoundError("holding", id.String(), errs.ErrHoldingNotFound)
		}
		holding = clonePtr(stored)
		return nil
	})
	return holding, err
}

// GetByIDForUpdate retrieves a holding; the unit of work already excludes other writers
func (r *HoldingRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Holding, error) {
	return r.GetByID(ctx, id)
}

// Update writes the holding if its version is current
func (r *HoldingRepository) Update(ctx context.Context, holding *entity.Holding) error {
	return r.store.with(ctx, func() error {
		stored, ok := r.store.holdings[holding.ID]
		if !ok {
			return errs.NewNotFoundError("holding", holding.ID.String(), errs.ErrHoldingNotFound)
		}
		if stored.Version != holding.Version {
			return errs.NewConcurrencyError("update holding", nil)
		}
		holding.Version++
		r.store.holdings[holding.ID] = clonePtr(holding)
		return nil
	})
}

// List returns a page of holdings, newest first
func (r *HoldingRepository) List(ctx context.Context, filter persistence.HoldingFilter) ([]*entity.Holding, int64, error) {
	var (
		page  []*entity.Holding
		total int64
	)
	err := r.store.with(ctx, func() error {
		matched := make([]*entity.Holding, 0)
		for _, h := range r.store.holdings {
			if filter.UserID != nil && h.UserID != *filter.UserID {
				continue
			}
			if filter.PackageID != nil && h.PackageID != *filter.PackageID {
				continue
			}
			if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, h.Status) {
				continue
			}
			matched = append(matched, clonePtr(h))
		}
		slices.SortFunc(matched, func(a, b *entity.Holding) int {
			return r.store.newestFirst(a.ID, b.ID, a.CreatedAt, b.CreatedAt)
		})
		total = int64(len(matched))
		page = paginate(matched, filter.Page, filter.Limit)
		return nil
	})
	return page, total, err
}

func (r *HoldingRepository) scan(ctx context.Context, limit int, keep func(*entity.Holding) bool, key func(*entity.Holding) time.Time) ([]*entity.Holding, error) {
	var result []*entity.Holding
	err := r.store.with(ctx, func() error {
		for _, h := range r.store.holdings {
			if keep(h) {
				result = append(result, clonePtr(h))
			}
		}
		slices.SortFunc(result, func(a, b *entity.Holding) int {
			if c := key(a).Compare(key(b)); c != 0 {
				return c
			}
			return int(r.store.order[a.ID] - r.store.order[b.ID])
		})
		if limit > 0 && len(result) > limit {
			result = result[:limit]
		}
		return nil
	})
	return result, err
}

// FindDue returns holdings owed a profit credit at now, earliest first
func (r *HoldingRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*entity.Holding, error) {
	return r.scan(ctx, limit,
		func(h *entity.Holding) bool { return h.IsDue(now) },
		func(h *entity.Holding) time.Time { return h.NextProfitDate })
}

// FindMatured returns fully paid holdings past their end date
func (r *HoldingRepository) FindMatured(ctx context.Context, now time.Time, limit int) ([]*entity.Holding, error) {
	return r.scan(ctx, limit,
		func(h *entity.Holding) bool { return h.CanMature(now) },
		func(h *entity.Holding) time.Time { return h.EndDate })
}

// CountByPackage counts holdings of packageID in the given statuses
func (r *HoldingRepository) CountByPackage(ctx context.Context, packageID uuid.UUID, statuses ...entity.HoldingStatus) (int64, error) {
	var count int64
	err := r.store.with(ctx, func() error {
		for _, h := range r.store.holdings {
			if h.PackageID != packageID {
				continue
			}
			if len(statuses) > 0 && !slices.Contains(statuses, h.Status) {
				continue
			}
			count++
		}
		return nil
	})
	return count, err
}
