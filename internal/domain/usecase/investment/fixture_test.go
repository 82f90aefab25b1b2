package investment

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/memory"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/security"
	clock "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/time"
)

const testPin = "2468"

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func (m *mockNotifier) count(kind notification.Kind) int {
	n := 0
	for _, call := range m.Calls {
		if call.Arguments.Get(1).(notification.Notification).Kind == kind {
			n++
		}
	}
	return n
}

type fixture struct {
	svc      *Service
	catalog  usecase.CatalogUseCase
	ledger   *ledger.Service
	uow      *memory.UnitOfWork
	clock    *clock.ManualTimeProvider
	pins     coreport.PinHasher
	notifier *mockNotifier
	phones   int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tp := clock.NewManualTimeProvider(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	log := logger.NewNoopLogger()
	uow := memory.NewUnitOfWork(memory.NewStore(tp))
	guard := ledger.NewUserGuard(ledger.NewUserSerializer(log, 0), nil, ledger.GuardConfig{}, tp, log)
	t.Cleanup(guard.Shutdown)

	notifier := &mockNotifier{}
	notifier.On("Notify", mock.Anything, mock.Anything).Return(nil).Maybe()

	ledgerService := ledger.NewService(uow, ledger.NewBalanceMutator(tp, log), tp, log)
	pins := security.NewBcryptPinHasher(bcrypt.MinCost)
	return &fixture{
		svc: NewService(ledgerService, guard, NewCommissionCalculator(ledgerService, tp, log), uow, pins, notifier,
			AccrualConfig{Concurrency: 4}, tp, log),
		catalog:  NewCatalogService(uow, tp, log),
		ledger:   ledgerService,
		uow:      uow,
		clock:    tp,
		pins:     pins,
		notifier: notifier,
	}
}

func (f *fixture) seedUser(t *testing.T, balance int64, referrer *uuid.UUID) *entity.User {
	t.Helper()
	f.phones++
	user, err := entity.NewUser(entity.NewUserParams{
		FullName:   "Investor",
		Phone:      fmt.Sprintf("0171%07d", f.phones),
		ReferrerID: referrer,
	}, f.clock.Now())
	require.NoError(t, err)
	user.AccountNumber = fmt.Sprintf("SB%010d", f.phones)
	user.PinHash, err = f.pins.Hash(testPin)
	require.NoError(t, err)
	require.NoError(t, f.uow.GetUserRepository(context.Background()).Create(context.Background(), user))

	if balance > 0 {
		_, err = f.ledger.Record(context.Background(), entity.NewTransactionParams{
			UserID:        user.ID,
			Type:          entity.TypeDeposit,
			Amount:        decimal.NewFromInt(balance),
			PaymentMethod: entity.MethodWallet,
			Description:   "opening balance",
		}, "")
		require.NoError(t, err)
	}
	return f.user(t, user.ID)
}

func (f *fixture) seedPackage(t *testing.T, name string, price, profit int64, days int, referralPct int64) *entity.Package {
	t.Helper()
	profitAmount := decimal.NewFromInt(profit)
	pkg, err := f.catalog.CreatePackage(context.Background(), entity.PackageParams{
		Name:               name,
		Price:              decimal.NewFromInt(price),
		ProfitAmount:       &profitAmount,
		DurationDays:       days,
		Category:           entity.CategorySilver,
		ReferralCommission: decimal.NewFromInt(referralPct),
	})
	require.NoError(t, err)
	return pkg
}

func (f *fixture) user(t *testing.T, id uuid.UUID) *entity.User {
	t.Helper()
	user, err := f.uow.GetUserRepository(context.Background()).GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func (f *fixture) holding(t *testing.T, id uuid.UUID) *entity.Holding {
	t.Helper()
	h, err := f.svc.GetHolding(context.Background(), id)
	require.NoError(t, err)
	return h
}

func (f *fixture) buy(t *testing.T, userID, packageID uuid.UUID, quantity int) *usecase.PurchaseResult {
	t.Helper()
	result, err := f.svc.PurchasePackage(context.Background(), usecase.PurchaseRequest{
		UserID:    userID,
		PackageID: packageID,
		Quantity:  quantity,
		Pin:       testPin,
	})
	require.NoError(t, err)
	return result
}

// assertBalanceMatchesHistory checks the stored balance against completed transactions
func (f *fixture) assertBalanceMatchesHistory(t *testing.T, userID uuid.UUID) {
	t.Helper()
	sums, err := f.ledger.Summarize(context.Background(), persistence.TransactionFilter{
		UserID:   &userID,
		Statuses: []entity.TransactionStatus{entity.StatusCompleted},
	})
	require.NoError(t, err)

	computed := decimal.Zero
	for _, agg := range sums {
		switch {
		case agg.Type.IsCredit():
			computed = computed.Add(agg.Total)
		case agg.Type.IsDebit():
			computed = computed.Sub(agg.Total)
		}
	}
	stored := f.user(t, userID).Balance
	assert.True(t, stored.Equal(computed), "stored %s, history %s", stored, computed)
}

func assertProfitInvariant(t *testing.T, h *entity.Holding) {
	t.Helper()
	assert.True(t, h.ProfitPaid.Add(h.ProfitPending).Equal(h.ExpectedProfit),
		"paid %s + pending %s != expected %s", h.ProfitPaid, h.ProfitPending, h.ExpectedProfit)
}
