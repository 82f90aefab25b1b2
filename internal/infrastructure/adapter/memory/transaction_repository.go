package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// TransactionRepository implements persistence.TransactionRepository
type TransactionRepository struct {
	store *Store
}

// Create saves a new transaction, enforcing unique references and one profit credit per holding per day
func (r *TransactionRepository) Create(ctx context.Context, txn *entity.Transaction) error {
	return r.store.with(ctx, func() error {
		for _, existing := range r.store.txns {
			if existing.Reference == txn.Reference {
				return errs.ErrDuplicateReference
			}
			if isSameProfitCredit(existing, txn) {
				return errs.ErrConstraintViolation
			}
		}
		r.store.txns[txn.ID] = clonePtr(txn)
		r.store.stamp(txn.ID)
		return nil
	})
}

func isSameProfitCredit(a, b *entity.Transaction) bool {
	if a.Type != entity.TypeProfit || b.Type != entity.TypeProfit {
		return false
	}
	if a.Metadata.HoldingID == nil || b.Metadata.HoldingID == nil || a.Metadata.ProfitDate == nil || b.Metadata.ProfitDate == nil {
		return false
	}
	return *a.Metadata.HoldingID == *b.Metadata.HoldingID && a.Metadata.ProfitDate.Equal(*b.Metadata.ProfitDate)
}

// GetByID retrieves a transaction by ID
func (r *TransactionRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	var txn *entity.Transaction
	err := r.store.with(ctx, func() error {
		stored, ok := r.store.txns[id]
		if !ok {
			return errs.NewNotFoundError("transaction", id.String(), errs.ErrTransactionNotFound)
		}
		txn = clonePtr(stored)
		return nil
	})
	return txn, err
}

// GetByIDForUpdate retrieves a transaction; the unit of work already excludes other writers
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, id uuid.UUID) (*entity.Transaction, error) {
	return r.GetByID(ctx, id)
}

// GetByReference retrieves a transaction by reference code
func (r *TransactionRepository) GetByReference(ctx context.Context, reference string) (*entity.Transaction, error) {
	var txn *entity.Transaction
	err := r.store.with(ctx, func() error {
		for _, stored := range r.store.txns {
			if stored.Reference == reference {
				txn = clonePtr(stored)
				return nil
			}
		}
		return errs.NewNotFoundError("transaction", reference, errs.ErrTransactionNotFound)
	})
	return txn, err
}

// UpdateStatus persists the status change if the stored status still equals from
func (r *TransactionRepository) UpdateStatus(ctx context.Context, txn *entity.Transaction, from entity.TransactionStatus) error {
	return r.store.with(ctx, func() error {
		stored, ok := r.store.txns[txn.ID]
		if !ok {
			return errs.NewNotFoundError("transaction", txn.ID.String(), errs.ErrTransactionNotFound)
		}
		if stored.Status != from {
			return errs.NewConcurrencyError("update transaction status", nil)
		}

		updated := clonePtr(stored)
		updated.Status = txn.Status
		updated.ProcessedBy = txn.ProcessedBy
		updated.ProcessedAt = txn.ProcessedAt
		updated.Notes = txn.Notes
		updated.BalanceAppliedAt = txn.BalanceAppliedAt
		updated.CompletionKey = txn.CompletionKey
		updated.UpdatedAt = txn.UpdatedAt
		r.store.txns[txn.ID] = updated
		return nil
	})
}

// FindProfitCredit returns the profit credit for holdingID on profitDate, or nil
func (r *TransactionRepository) FindProfitCredit(ctx context.Context, holdingID uuid.UUID, profitDate time.Time) (*entity.Transaction, error) {
	var found *entity.Transaction
	err := r.store.with(ctx, func() error {
		probe := &entity.Transaction{
			Type:     entity.TypeProfit,
			Metadata: entity.TransactionMetadata{HoldingID: &holdingID, ProfitDate: &profitDate},
		}
		for _, stored := range r.store.txns {
			if isSameProfitCredit(stored, probe) {
				found = clonePtr(stored)
				return nil
			}
		}
		return nil
	})
	return found, err
}

func (r *TransactionRepository) match(filter persistence.TransactionFilter) []*entity.Transaction {
	matched := make([]*entity.Transaction, 0)
	for _, txn := range r.store.txns {
		if filter.UserID != nil && txn.UserID != *filter.UserID {
			continue
		}
		if len(filter.Types) > 0 && !slices.Contains(filter.Types, txn.Type) {
			continue
		}
		if len(filter.Statuses) > 0 && !slices.Contains(filter.Statuses, txn.Status) {
			continue
		}
		if filter.PaymentMethod != "" && txn.PaymentMethod != filter.PaymentMethod {
			continue
		}
		if filter.From != nil && txn.CreatedAt.Before(*filter.From) {
			continue
		}
		if filter.To != nil && !txn.CreatedAt.Before(*filter.To) {
			continue
		}
		matched = append(matched, clonePtr(txn))
	}
	return matched
}

// List returns a page of transactions and the total match count
func (r *TransactionRepository) List(ctx context.Context, filter persistence.TransactionFilter) ([]*entity.Transaction, int64, error) {
	var (
		page  []*entity.Transaction
		total int64
	)
	err := r.store.with(ctx, func() error {
		matched := r.match(filter)
		slices.SortFunc(matched, func(a, b *entity.Transaction) int {
			c := r.store.newestFirst(a.ID, b.ID, a.CreatedAt, b.CreatedAt)
			if filter.OldestFirst {
				return -c
			}
			return c
		})
		total = int64(len(matched))
		page = paginate(matched, filter.Page, filter.Limit)
		return nil
	})
	return page, total, err
}

// Sum aggregates matching transactions by type and status
func (r *TransactionRepository) Sum(ctx context.Context, filter persistence.TransactionFilter) ([]persistence.TransactionAggregate, error) {
	type groupKey struct {
		t entity.TransactionType
		s entity.TransactionStatus
	}

	var result []persistence.TransactionAggregate
	err := r.store.with(ctx, func() error {
		groups := make(map[groupKey]*persistence.TransactionAggregate)
		for _, txn := range r.match(filter) {
			key := groupKey{txn.Type, txn.Status}
			agg, ok := groups[key]
			if !ok {
				agg = &persistence.TransactionAggregate{Type: txn.Type, Status: txn.Status, Total: decimal.Zero}
				groups[key] = agg
			}
			agg.Count++
			agg.Total = agg.Total.Add(txn.Amount)
		}
		for _, agg := range groups {
			result = append(result, *agg)
		}
		slices.SortFunc(result, func(a, b persistence.TransactionAggregate) int {
			if a.Type != b.Type {
				return cmp.Compare(string(a.Type), string(b.Type))
			}
			return cmp.Compare(string(a.Status), string(b.Status))
		})
		return nil
	})
	return result, err
}

