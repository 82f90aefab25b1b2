package user

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/memory"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/security"
	clock "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/time"
)

type fixture struct {
	users  usecase.UserUseCase
	ledger *ledger.Service
	uow    *memory.UnitOfWork
	clock  *clock.ManualTimeProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tp := clock.NewManualTimeProvider(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	log := logger.NewNoopLogger()
	uow := memory.NewUnitOfWork(memory.NewStore(tp))
	ledgerService := ledger.NewService(uow, ledger.NewBalanceMutator(tp, log), tp, log)
	return &fixture{
		users:  NewUserUseCase(uow, ledgerService, security.NewBcryptPinHasher(bcrypt.MinCost), tp, log),
		ledger: ledgerService,
		uow:    uow,
		clock:  tp,
	}
}

func (f *fixture) register(t *testing.T, phone, referralCode string) *entity.User {
	t.Helper()
	// distinct timestamps keep generated account numbers apart
	f.clock.Advance(time.Second)
	user, err := f.users.RegisterUser(context.Background(), usecase.RegisterUserRequest{
		FullName:     "Karim Ahmed",
		Phone:        phone,
		ReferralCode: referralCode,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) record(t *testing.T, userID uuid.UUID, txnType entity.TransactionType, amount int64) {
	t.Helper()
	_, err := f.ledger.Record(context.Background(), entity.NewTransactionParams{
		UserID:        userID,
		Type:          txnType,
		Amount:        decimal.NewFromInt(amount),
		PaymentMethod: entity.MethodWallet,
	}, "")
	require.NoError(t, err)
}

func TestRegisterUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Registration with referral code and PIN", func(t *testing.T) {
		f := newFixture(t)
		referrer := f.register(t, "01711111111", "")

		user, err := f.users.RegisterUser(ctx, usecase.RegisterUserRequest{
			FullName:     "  Nusrat Jahan ",
			Phone:        "01822222222",
			Email:        "nusrat@example.com",
			ReferralCode: " " + referrer.ReferralCode + " ",
			Pin:          "1234",
		})
		require.NoError(t, err)
		assert.Equal(t, "Nusrat Jahan", user.FullName)
		assert.Equal(t, &referrer.ID, user.ReferrerID)
		assert.Equal(t, entity.RoleUser, user.Role)
		assert.True(t, user.HasPin())
		assert.NotEqual(t, "1234", user.PinHash)
		assert.True(t, user.Balance.IsZero())

		stored, err := f.users.GetUser(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, user.AccountNumber, stored.AccountNumber)
	})

	t.Run("Rejected registrations", func(t *testing.T) {
		f := newFixture(t)
		f.register(t, "01711111111", "")
		inactive := f.register(t, "01733333333", "")
		_, err := f.users.SetActive(ctx, inactive.ID, false)
		require.NoError(t, err)

		testCases := []struct {
			name    string
			req     usecase.RegisterUserRequest
			wantErr error
		}{
			{"Unknown referral code", usecase.RegisterUserRequest{FullName: "A", Phone: "01800000001", ReferralCode: "NOPE1234"}, errs.ErrUserNotFound},
			{"Deactivated referrer", usecase.RegisterUserRequest{FullName: "A", Phone: "01800000002", ReferralCode: inactive.ReferralCode}, errs.ErrUserInactive},
			{"Weak PIN", usecase.RegisterUserRequest{FullName: "A", Phone: "01800000003", Pin: "12"}, errs.ErrValidation},
			{"Missing name", usecase.RegisterUserRequest{Phone: "01800000004"}, errs.ErrValidation},
			{"Phone already registered", usecase.RegisterUserRequest{FullName: "A", Phone: "01711111111"}, errs.ErrDuplicateUser},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				user, err := f.users.RegisterUser(ctx, tc.req)
				assert.Nil(t, user)
				assert.ErrorIs(t, err, tc.wantErr)
			})
		}

		_, total, err := f.users.ListUsers(ctx, persistence.UserFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
	})
}

func TestAccountSettings(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "01711111111", "")
	assert.False(t, user.HasPin())

	require.NoError(t, f.users.SetPin(ctx, user.ID, "975310"))
	stored, err := f.users.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.HasPin())
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PinHash), []byte("975310")))

	assert.True(t, errs.IsValidationError(f.users.SetPin(ctx, user.ID, "abcd")))
	assert.ErrorIs(t, f.users.SetPin(ctx, uuid.New(), "1234"), errs.ErrUserNotFound)

	deactivated, err := f.users.SetActive(ctx, user.ID, false)
	require.NoError(t, err)
	assert.False(t, deactivated.IsActive)

	active := false
	inactiveUsers, total, err := f.users.ListUsers(ctx, persistence.UserFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, user.ID, inactiveUsers[0].ID)

	reactivated, err := f.users.SetActive(ctx, user.ID, true)
	require.NoError(t, err)
	assert.True(t, reactivated.IsActive)
}

func TestGetFinancialSummary(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "01711111111", "")
	f.record(t, user.ID, entity.TypeDeposit, 5000)
	f.record(t, user.ID, entity.TypeBonus, 50)

	pkg := &entity.Package{
		ID:           uuid.New(),
		Name:         "Silver 5",
		Price:        decimal.NewFromInt(1000),
		ProfitAmount: decimal.NewFromInt(150),
		DurationDays: 5,
	}
	pkg.Recalculate()
	holdings := []*entity.Holding{
		entity.NewHolding(user.ID, pkg, uuid.New(), f.clock.Now()),
		entity.NewHolding(user.ID, pkg, uuid.New(), f.clock.Now()),
		entity.NewHolding(user.ID, pkg, uuid.New(), f.clock.Now()),
	}
	require.NoError(t, holdings[2].Cancel("", f.clock.Now()))
	require.NoError(t, f.uow.GetHoldingRepository(ctx).CreateBatch(ctx, holdings))

	summary, err := f.users.GetFinancialSummary(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "5050.00", entity.FormatAmount(summary.Balance))
	assert.Equal(t, "5000.00", entity.FormatAmount(summary.TotalDeposit))
	assert.Equal(t, "50.00", entity.FormatAmount(summary.TotalProfit))
	assert.Equal(t, int64(2), summary.ActiveHoldings)
	assert.Equal(t, "300.00", entity.FormatAmount(summary.PendingProfit))

	_, err = f.users.GetFinancialSummary(ctx, uuid.New())
	assert.ErrorIs(t, err, errs.ErrUserNotFound)
}

func TestReconcileBalance(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	user := f.register(t, "01711111111", "")
	f.record(t, user.ID, entity.TypeDeposit, 3000)
	f.record(t, user.ID, entity.TypeInvestment, 1000)
	f.record(t, user.ID, entity.TypeProfit, 30)

	result, err := f.users.ReconcileBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, result.Balanced)
	assert.Equal(t, "2030.00", entity.FormatAmount(result.Computed))

	// drift the stored balance behind the ledger's back
	stored, err := f.uow.GetUserRepository(ctx).GetByID(ctx, user.ID)
	require.NoError(t, err)
	stored.Balance = stored.Balance.Add(decimal.NewFromInt(1))
	require.NoError(t, f.uow.GetUserRepository(ctx).Update(ctx, stored))

	result, err = f.users.ReconcileBalance(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, result.Balanced)
	assert.Equal(t, "2031.00", entity.FormatAmount(result.Stored))
	assert.Equal(t, "2030.00", entity.FormatAmount(result.Computed))
}
