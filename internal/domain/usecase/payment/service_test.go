package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/memory"
	clock "github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/time"
)

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) Notify(ctx context.Context, n notification.Notification) error {
	args := m.Called(ctx, n)
	return args.Error(0)
}

func kind(k notification.Kind) any {
	return mock.MatchedBy(func(n notification.Notification) bool { return n.Kind == k })
}

type fixture struct {
	svc      usecase.PaymentUseCase
	uow      *memory.UnitOfWork
	clock    *clock.ManualTimeProvider
	notifier *mockNotifier
	admin    uuid.UUID
}

func newFixture(t *testing.T, limits Limits) *fixture {
	t.Helper()
	tp := clock.NewManualTimeProvider(time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC))
	log := logger.NewNoopLogger()
	uow := memory.NewUnitOfWork(memory.NewStore(tp))
	guard := ledger.NewUserGuard(ledger.NewUserSerializer(log, 0), nil, ledger.GuardConfig{}, tp, log)
	t.Cleanup(guard.Shutdown)

	notifier := &mockNotifier{}
	t.Cleanup(func() { notifier.AssertExpectations(t) })

	ledgerService := ledger.NewService(uow, ledger.NewBalanceMutator(tp, log), tp, log)
	return &fixture{
		svc:      NewService(ledgerService, guard, uow, notifier, limits, tp, log),
		uow:      uow,
		clock:    tp,
		notifier: notifier,
		admin:    uuid.New(),
	}
}

func (f *fixture) seedUser(t *testing.T, balance int64) *entity.User {
	t.Helper()
	user, err := entity.NewUser(entity.NewUserParams{FullName: "Payment User", Phone: "01700000000"}, f.clock.Now())
	require.NoError(t, err)
	user.Phone = fmt.Sprintf("018%08d", user.ID.ID()%100000000)
	user.Balance = decimal.NewFromInt(balance)
	require.NoError(t, f.uow.GetUserRepository(context.Background()).Create(context.Background(), user))
	return user
}

func (f *fixture) user(t *testing.T, id uuid.UUID) *entity.User {
	t.Helper()
	user, err := f.uow.GetUserRepository(context.Background()).GetByID(context.Background(), id)
	require.NoError(t, err)
	return user
}

func bkashDeposit(userID uuid.UUID, amount int64) usecase.DepositRequest {
	return usecase.DepositRequest{
		UserID:         userID,
		Amount:         decimal.NewFromInt(amount),
		Method:         entity.MethodBkash,
		PaymentDetails: entity.MobileDetails("BK9X", "01712345678", ""),
	}
}

func nagadWithdrawal(userID uuid.UUID, amount int64) usecase.WithdrawalRequest {
	return usecase.WithdrawalRequest{
		UserID:         userID,
		Amount:         decimal.NewFromInt(amount),
		Method:         entity.MethodNagad,
		PaymentDetails: entity.MobileDetails("", "", "01812345678"),
	}
}

func TestDepositFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Verified deposit credits the balance", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 10000)
		f.notifier.On("Notify", mock.Anything, kind(notification.KindDepositVerified)).Return(nil).Once()

		txn, err := f.svc.CreateDeposit(ctx, bkashDeposit(user.ID, 2000))
		require.NoError(t, err)
		assert.Equal(t, entity.StatusPending, txn.Status)
		assert.Equal(t, "10000.00", entity.FormatAmount(f.user(t, user.ID).Balance))

		done, err := f.svc.VerifyDeposit(ctx, usecase.VerifyDepositRequest{
			TransactionID:        txn.ID,
			AdminID:              f.admin,
			GatewayTransactionID: "BK9X",
		})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, done.Status)
		assert.Equal(t, &f.admin, done.ProcessedBy)

		stored := f.user(t, user.ID)
		assert.Equal(t, "12000.00", entity.FormatAmount(stored.Balance))
		assert.Equal(t, "2000.00", entity.FormatAmount(stored.TotalDeposit))
	})

	t.Run("Repeated verification", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 0)
		f.notifier.On("Notify", mock.Anything, kind(notification.KindDepositVerified)).Return(nil).Twice()

		txn, err := f.svc.CreateDeposit(ctx, bkashDeposit(user.ID, 500))
		require.NoError(t, err)

		req := usecase.VerifyDepositRequest{TransactionID: txn.ID, AdminID: f.admin, GatewayTransactionID: "G1"}
		_, err = f.svc.VerifyDeposit(ctx, req)
		require.NoError(t, err)
		_, err = f.svc.VerifyDeposit(ctx, req)
		require.NoError(t, err, "same gateway id is a no-op")

		req.GatewayTransactionID = ""
		_, err = f.svc.VerifyDeposit(ctx, req)
		assert.True(t, errs.IsIdempotencyViolation(err))

		assert.Equal(t, "500.00", entity.FormatAmount(f.user(t, user.ID).Balance))
	})

	t.Run("Rejected deposit", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 0)
		f.notifier.On("Notify", mock.Anything, kind(notification.KindDepositRejected)).Return(nil).Once()

		txn, err := f.svc.CreateDeposit(ctx, bkashDeposit(user.ID, 500))
		require.NoError(t, err)

		rejected, err := f.svc.RejectDeposit(ctx, usecase.RejectRequest{TransactionID: txn.ID, AdminID: f.admin, Reason: "not received"})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRejected, rejected.Status)

		_, err = f.svc.VerifyDeposit(ctx, usecase.VerifyDepositRequest{TransactionID: txn.ID, AdminID: f.admin})
		assert.True(t, errs.IsInvalidTransitionError(err))
		assert.True(t, f.user(t, user.ID).Balance.IsZero())
	})

	t.Run("Invalid deposits", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 0)

		testCases := []struct {
			name string
			req  usecase.DepositRequest
		}{
			{"Below minimum", bkashDeposit(user.ID, 99)},
			{"Above maximum", bkashDeposit(user.ID, 50001)},
			{"Wallet is internal", usecase.DepositRequest{UserID: user.ID, Amount: decimal.NewFromInt(500), Method: entity.MethodWallet}},
			{"Details for another channel", usecase.DepositRequest{
				UserID:         user.ID,
				Amount:         decimal.NewFromInt(500),
				Method:         entity.MethodBank,
				PaymentDetails: entity.MobileDetails("x", "", ""),
			}},
		}

		for _, tc := range testCases {
			t.Run(tc.name, func(t *testing.T) {
				_, err := f.svc.CreateDeposit(ctx, tc.req)
				assert.True(t, errs.IsValidationError(err), "got %v", err)
			})
		}

		_, err := f.svc.CreateDeposit(ctx, bkashDeposit(uuid.New(), 500))
		assert.ErrorIs(t, err, errs.ErrUserNotFound)
	})
}

func TestWithdrawalFlow(t *testing.T) {
	ctx := context.Background()

	t.Run("Boundaries", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 100000)

		txn, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 500))
		require.NoError(t, err)
		assert.Equal(t, "10.00", entity.FormatAmount(txn.Charge))
		assert.Equal(t, "490.00", entity.FormatAmount(txn.NetAmount))

		_, err = f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 499))
		assert.True(t, errs.IsValidationError(err))
		assert.ErrorIs(t, err, errs.ErrInvalidAmount)

		_, err = f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 50001))
		assert.ErrorIs(t, err, errs.ErrLimitExceeded)

		assert.Equal(t, "100000.00", entity.FormatAmount(f.user(t, user.ID).Balance), "requests do not debit")
	})

	t.Run("Daily cap counts from local midnight", func(t *testing.T) {
		limits := DefaultLimits()
		limits.Location = time.FixedZone("BDT", 6*60*60)
		f := newFixture(t, limits)
		// 23:30 local time
		f.clock.Set(time.Date(2025, 3, 1, 17, 30, 0, 0, time.UTC))
		user := f.seedUser(t, 300000)

		for range 2 {
			_, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 50000))
			require.NoError(t, err)
		}

		_, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 500))
		assert.ErrorIs(t, err, errs.ErrLimitExceeded)
		assert.True(t, errs.IsValidationError(err))

		// 00:30 local time, a new day
		f.clock.Advance(time.Hour)
		_, err = f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 500))
		assert.NoError(t, err)
	})

	t.Run("Pending withdrawals reserve funds", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 1000)

		_, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 600))
		require.NoError(t, err)

		_, err = f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 500))
		assert.ErrorIs(t, err, errs.ErrInsufficientBalance)
	})

	t.Run("Processing debits the balance once", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 5000)
		f.notifier.On("Notify", mock.Anything, kind(notification.KindWithdrawalProcessed)).Return(nil).Once()

		txn, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 1000))
		require.NoError(t, err)

		processing, err := f.svc.MarkWithdrawalProcessing(ctx, txn.ID, f.admin)
		require.NoError(t, err)
		assert.Equal(t, entity.StatusProcessing, processing.Status)

		done, err := f.svc.ProcessWithdrawal(ctx, usecase.ProcessWithdrawalRequest{TransactionID: txn.ID, AdminID: f.admin, Notes: "sent"})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusCompleted, done.Status)

		_, err = f.svc.ProcessWithdrawal(ctx, usecase.ProcessWithdrawalRequest{TransactionID: txn.ID, AdminID: f.admin})
		assert.True(t, errs.IsIdempotencyViolation(err))

		stored := f.user(t, user.ID)
		assert.Equal(t, "4000.00", entity.FormatAmount(stored.Balance))
		assert.Equal(t, "1000.00", entity.FormatAmount(stored.TotalWithdraw))
	})

	t.Run("Rejecting leaves the balance unchanged", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 5000)
		f.notifier.On("Notify", mock.Anything, mock.MatchedBy(func(n notification.Notification) bool {
			return n.Kind == notification.KindWithdrawalRejected && n.UserID == user.ID
		})).Return(nil).Once()

		txn, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 1000))
		require.NoError(t, err)

		rejected, err := f.svc.RejectWithdrawal(ctx, usecase.RejectRequest{TransactionID: txn.ID, AdminID: f.admin, Reason: "wrong number"})
		require.NoError(t, err)
		assert.Equal(t, entity.StatusRejected, rejected.Status)
		assert.Equal(t, "wrong number", rejected.Notes)

		stored := f.user(t, user.ID)
		assert.Equal(t, "5000.00", entity.FormatAmount(stored.Balance))
		assert.True(t, stored.TotalWithdraw.IsZero())

		// the reserved funds are free again
		_, err = f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 5000))
		assert.NoError(t, err)
	})

	t.Run("Only pending withdrawals can be rejected", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 5000)

		txn, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 1000))
		require.NoError(t, err)
		_, err = f.svc.MarkWithdrawalProcessing(ctx, txn.ID, f.admin)
		require.NoError(t, err)

		_, err = f.svc.RejectWithdrawal(ctx, usecase.RejectRequest{TransactionID: txn.ID, AdminID: f.admin})
		assert.True(t, errs.IsInvalidTransitionError(err))
	})

	t.Run("Inactive users cannot withdraw", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 5000)
		user.Deactivate(f.clock.Now())
		require.NoError(t, f.uow.GetUserRepository(ctx).Update(ctx, user))

		_, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 1000))
		assert.ErrorIs(t, err, errs.ErrUserInactive)
	})
}

func TestCancelTransaction(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultLimits())
	owner := f.seedUser(t, 5000)

	deposit, err := f.svc.CreateDeposit(ctx, bkashDeposit(owner.ID, 500))
	require.NoError(t, err)

	_, err = f.svc.CancelTransaction(ctx, deposit.ID, uuid.New())
	assert.ErrorIs(t, err, errs.ErrTransactionNotFound)

	cancelled, err := f.svc.CancelTransaction(ctx, deposit.ID, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCancelled, cancelled.Status)

	_, err = f.svc.CancelTransaction(ctx, deposit.ID, owner.ID)
	assert.True(t, errs.IsInvalidTransitionError(err))

	withdrawal, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(owner.ID, 1000))
	require.NoError(t, err)
	_, err = f.svc.MarkWithdrawalProcessing(ctx, withdrawal.ID, f.admin)
	require.NoError(t, err)

	_, err = f.svc.CancelTransaction(ctx, withdrawal.ID, owner.ID)
	assert.True(t, errs.IsInvalidTransitionError(err), "processing withdrawals are with the gateway")
}

func TestConcurrentRequestsForOneUser(t *testing.T) {
	ctx := context.Background()

	t.Run("Parallel withdrawal requests never oversubscribe the balance", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 1000)

		start := make(chan struct{})
		var accepted, refused atomic.Int32
		var wg sync.WaitGroup
		for range 10 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-start
				_, err := f.svc.CreateWithdrawal(ctx, nagadWithdrawal(user.ID, 500))
				switch {
				case err == nil:
					accepted.Add(1)
				case errors.Is(err, errs.ErrInsufficientBalance):
					refused.Add(1)
				default:
					t.Errorf("unexpected error: %v", err)
				}
			}()
		}
		close(start)
		wg.Wait()

		assert.Equal(t, int32(2), accepted.Load())
		assert.Equal(t, int32(8), refused.Load())
		assert.Equal(t, "1000.00", entity.FormatAmount(f.user(t, user.ID).Balance))
	})

	t.Run("Parallel verifications credit every deposit once", func(t *testing.T) {
		f := newFixture(t, DefaultLimits())
		user := f.seedUser(t, 0)
		f.notifier.On("Notify", mock.Anything, kind(notification.KindDepositVerified)).Return(nil).Times(10)

		deposits := make([]*entity.Transaction, 0, 10)
		for range 10 {
			txn, err := f.svc.CreateDeposit(ctx, bkashDeposit(user.ID, 1000))
			require.NoError(t, err)
			deposits = append(deposits, txn)
		}

		start := make(chan struct{})
		var wg sync.WaitGroup
		for i, txn := range deposits {
			// each deposit is verified twice; the second attempt must not credit again
			for attempt := range 2 {
				wg.Add(1)
				go func() {
					defer wg.Done()
					<-start
					_, err := f.svc.VerifyDeposit(ctx, usecase.VerifyDepositRequest{
						TransactionID:        txn.ID,
						AdminID:              f.admin,
						GatewayTransactionID: fmt.Sprintf("BK%d-%d", i, attempt),
					})
					if err != nil {
						assert.True(t, errs.IsIdempotencyViolation(err), "got %v", err)
					}
				}()
			}
		}
		close(start)
		wg.Wait()

		stored := f.user(t, user.ID)
		assert.Equal(t, "10000.00", entity.FormatAmount(stored.Balance))
		assert.Equal(t, "10000.00", entity.FormatAmount(stored.TotalDeposit))
	})
}
