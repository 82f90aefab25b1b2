// Package memory is an in-process persistence adapter. A unit of work holds
// the store lock from Begin to Commit or Rollback, and a rollback restores the
// snapshot taken at Begin. It backs tests and the dev profile.
package memory

import (
	"context"
	"errors"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const txKey contextKey = "memory-tx"

var errNoTransaction = errors.New("no transaction found in context")

// Store holds all records
type Store struct {
	mu sync.Mutex

	users    map[uuid.UUID]*entity.User
	txns     map[uuid.UUID]*entity.Transaction
	packages map[uuid.UUID]*entity.Package
	holdings map[uuid.UUID]*entity.Holding

	// insertion order breaks created_at ties
	order map[uuid.UUID]int64
	seq   int64

	lockMu sync.Mutex
	locks  map[uuid.UUID]time.Time

	timeProvider coreport.TimeProvider
}

// NewStore creates an empty store
func NewStore(timeProvider coreport.TimeProvider) *Store {
	return &Store{
		users:        make(map[uuid.UUID]*entity.User),
		txns:         make(map[uuid.UUID]*entity.Transaction),
		packages:     make(map[uuid.UUID]*entity.Package),
		holdings:     make(map[uuid.UUID]*entity.Holding),
		order:        make(map[uuid.UUID]int64),
		locks:        make(map[uuid.UUID]time.Time),
		timeProvider: timeProvider,
	}
}

type snapshot struct {
	users    map[uuid.UUID]*entity.User
	txns     map[uuid.UUID]*entity.Transaction
	packages map[uuid.UUID]*entity.Package
	holdings map[uuid.UUID]*entity.Holding
	order    map[uuid.UUID]int64
	seq      int64
}

type txState struct {
	saved *snapshot
	done  bool
}

// Records are replaced, never mutated in place, so a shallow map copy is a snapshot
func (s *Store) snapshot() *snapshot {
	return &snapshot{
		users:    maps.Clone(s.users),
		txns:     maps.Clone(s.txns),
		packages: maps.Clone(s.packages),
		holdings: maps.Clone(s.holdings),
		order:    maps.Clone(s.order),
		seq:      s.seq,
	}
}

func (s *Store) restore(saved *snapshot) {
	s.users = saved.users
	s.txns = saved.txns
	s.packages = saved.packages
	s.holdings = saved.holdings
	s.order = saved.order
	s.seq = saved.seq
}

func (s *Store) stamp(id uuid.UUID) {
	s.seq++
	s.order[id] = s.seq
}

// newestFirst orders by created_at, then insertion, descending
func (s *Store) newestFirst(aID, bID uuid.UUID, aAt, bAt time.Time) int {
	if c := bAt.Compare(aAt); c != 0 {
		return c
	}
	return int(s.order[bID] - s.order[aID])
}

func activeTx(ctx context.Context) *txState {
	state, ok := ctx.Value(txKey).(*txState)
	if !ok || state == nil || state.done {
		return nil
	}
	return state
}

// with runs fn under the store lock unless ctx's unit of work already holds it
func (s *Store) with(ctx context.Context, fn func() error) error {
	if activeTx(ctx) == nil {
		s.mu.Lock()
		defer s.mu.Unlock()
	}
	return fn()
}

// UnitOfWork implements persistence.UnitOfWork over a Store
type UnitOfWork struct {
	store        *Store
	users        *UserRepository
	transactions *TransactionRepository
	packages     *PackageRepository
	holdings     *HoldingRepository
}

// NewUnitOfWork creates a unit of work over store
func NewUnitOfWork(store *Store) *UnitOfWork {
	return &UnitOfWork{
		store:        store,
		users:        &UserRepository{store: store},
		transactions: &TransactionRepository{store: store},
		packages:     &PackageRepository{store: store},
		holdings:     &HoldingRepository{store: store},
	}
}

// Begin takes the store lock and snapshots the data
func (u *UnitOfWork) Begin(ctx context.Context) (context.Context, error) {
	if activeTx(ctx) != nil {
		return ctx, errors.New("nested transactions are not supported")
	}
	u.store.mu.Lock()
	return context.WithValue(ctx, txKey, &txState{saved: u.store.snapshot()}), nil
}

// Commit keeps the changes and releases the store
func (u *UnitOfWork) Commit(ctx context.Context) error {
	state := activeTx(ctx)
	if state == nil {
		return errNoTransaction
	}
	state.done = true
	u.store.mu.Unlock()
	return nil
}

// Rollback restores the snapshot and releases the store
func (u *UnitOfWork) Rollback(ctx context.Context) error {
	state := activeTx(ctx)
	if state == nil {
		return nil
	}
	u.store.restore(state.saved)
	state.done = true
	u.store.mu.Unlock()
	return nil
}

// InTransaction reports whether ctx carries an open unit of work
func (u *UnitOfWork) InTransaction(ctx context.Context) bool {
	return activeTx(ctx) != nil
}

// GetUserRepository returns the user repository
func (u *UnitOfWork) GetUserRepository(context.Context) persistence.UserRepository {
	return u.users
}

// GetTransactionRepository returns the transaction repository
func (u *UnitOfWork) GetTransactionRepository(context.Context) persistence.TransactionRepository {
	return u.transactions
}

// GetPackageRepository returns the package repository
func (u *UnitOfWork) GetPackageRepository(context.Context) persistence.PackageRepository {
	return u.packages
}

// GetHoldingRepository returns the holding repository
func (u *UnitOfWork) GetHoldingRepository(context.Context) persistence.HoldingRepository {
	return u.holdings
}

func paginate[T any](items []T, page, limit int) []T {
	if limit <= 0 {
		return items
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(items) {
		return []T{}
	}
	end := min(start+limit, len(items))
	return items[start:end]
}

func clonePtr[T any](v *T) *T {
	c := *v
	return &c
}
