package payment

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/uow"
)

// Service implements the usecase.PaymentUseCase interface
type Service struct {
	ledger       *ledger.Service
	guard        *ledger.UserGuard
	uow          persistence.UnitOfWork
	notifier     notification.Notifier
	limits       Limits
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new payment service
func NewService(
	ledgerService *ledger.Service,
	guard *ledger.UserGuard,
	unitOfWork persistence.UnitOfWork,
	notifier notification.Notifier,
	limits Limits,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) usecase.PaymentUseCase {
	return &Service{
		ledger:       ledgerService,
		guard:        guard,
		uow:          unitOfWork,
		notifier:     notifier,
		limits:       limits,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// CreateDeposit records a pending deposit the user claims to have sent
func (s *Service) CreateDeposit(ctx context.Context, req usecase.DepositRequest) (*entity.Transaction, error) {
	if err := requireExternal(req.Method); err != nil {
		return nil, err
	}
	if err := checkRange("amount", req.Amount, s.limits.MinDeposit, s.limits.MaxDeposit); err != nil {
		return nil, err
	}
	if _, err := s.activeUser(ctx, req.UserID); err != nil {
		return nil, err
	}

	return s.ledger.Create(ctx, entity.NewTransactionParams{
		UserID:         req.UserID,
		Type:           entity.TypeDeposit,
		Amount:         req.Amount,
		PaymentMethod:  req.Method,
		PaymentDetails: req.PaymentDetails,
		Description:    describe(req.Description, "Deposit via "+string(req.Method)),
	})
}

// VerifyDeposit completes a deposit and credits the balance.
// The gateway transaction id makes a repeated verification harmless.
func (s *Service) VerifyDeposit(ctx context.Context, req usecase.VerifyDepositRequest) (*entity.Transaction, error) {
	txn, err := s.transitionAs(ctx, req.TransactionID, ledger.TransitionRequest{
		TransactionID:  req.TransactionID,
		To:             entity.StatusCompleted,
		From:           []entity.TransactionStatus{entity.StatusPending, entity.StatusProcessing},
		Type:           entity.TypeDeposit,
		Actor:          &req.AdminID,
		Notes:          req.Notes,
		IdempotencyKey: req.GatewayTransactionID,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.Notification{
		UserID:  txn.UserID,
		Kind:    notification.KindDepositVerified,
		Title:   "Deposit verified",
		Message: fmt.Sprintf("Your deposit of %s (ref %s) has been credited.", entity.FormatAmount(txn.Amount), txn.Reference),
	})
	return txn, nil
}

// RejectDeposit refuses a pending deposit
func (s *Service) RejectDeposit(ctx context.Context, req usecase.RejectRequest) (*entity.Transaction, error) {
	txn, err := s.transitionAs(ctx, req.TransactionID, ledger.TransitionRequest{
		TransactionID: req.TransactionID,
		To:            entity.StatusRejected,
		From:          []entity.TransactionStatus{entity.StatusPending},
		Type:          entity.TypeDeposit,
		Actor:         &req.AdminID,
		Notes:         req.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.Notification{
		UserID:  txn.UserID,
		Kind:    notification.KindDepositRejected,
		Title:   "Deposit rejected",
		Message: fmt.Sprintf("Your deposit %s was rejected: %s", txn.Reference, req.Reason),
	})
	return txn, nil
}

// CreateWithdrawal records a pending withdrawal. The balance is only debited
// when the withdrawal completes, so pending requests reserve available funds.
func (s *Service) CreateWithdrawal(ctx context.Context, req usecase.WithdrawalRequest) (*entity.Transaction, error) {
	if err := requireExternal(req.Method); err != nil {
		return nil, err
	}
	if err := checkRange("amount", req.Amount, s.limits.MinWithdrawal, s.limits.MaxWithdrawal); err != nil {
		return nil, err
	}

	var txn *entity.Transaction
	err := s.guard.Run(ctx, req.UserID, func(ctx context.Context) error {
		return uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
			user, err := s.activeUser(ctx, req.UserID)
			if err != nil {
				return err
			}
			if err := s.checkFunds(ctx, user, req); err != nil {
				return err
			}

			txn, err = s.ledger.Create(ctx, entity.NewTransactionParams{
				UserID:         req.UserID,
				Type:           entity.TypeWithdrawal,
				Amount:         req.Amount,
				Charge:         entity.PercentOf(req.Amount, s.limits.WithdrawalChargePercent),
				PaymentMethod:  req.Method,
				PaymentDetails: req.PaymentDetails,
				Description:    describe(req.Description, "Withdrawal via "+string(req.Method)),
			})
			return err
		})
	})
	if err != nil {
		s.logger.Info("Withdrawal request refused", map[string]any{
			"user_id": req.UserID.String(),
			"amount":  entity.FormatAmount(req.Amount),
			"error":   err.Error(),
		})
		return nil, err
	}
	return txn, nil
}

// checkFunds enforces available funds and the daily cap
func (s *Service) checkFunds(ctx context.Context, user *entity.User, req usecase.WithdrawalRequest) error {
	available, err := s.ledger.AvailableBalance(ctx, user)
	if err != nil {
		return err
	}
	if req.Amount.GreaterThan(available) {
		return errs.NewValidationError("amount",
			fmt.Sprintf("available balance %s does not cover %s", entity.FormatAmount(available), entity.FormatAmount(req.Amount)),
			errs.ErrInsufficientBalance)
	}

	since := s.limits.startOfDay(s.timeProvider.Now())
	today, err := s.uow.GetTransactionRepository(ctx).Sum(ctx, persistence.TransactionFilter{
		UserID:   &user.ID,
		Types:    []entity.TransactionType{entity.TypeWithdrawal},
		Statuses: []entity.TransactionStatus{entity.StatusPending, entity.StatusProcessing, entity.StatusCompleted},
		From:     &since,
	})
	if err != nil {
		return err
	}
	if total(today).Add(req.Amount).GreaterThan(s.limits.DailyWithdrawalCap) {
		return errs.NewValidationError("amount",
			fmt.Sprintf("daily withdrawal limit of %s reached", entity.FormatAmount(s.limits.DailyWithdrawalCap)),
			errs.ErrLimitExceeded)
	}
	return nil
}

// MarkWithdrawalProcessing hands a pending withdrawal to the payment gateway
func (s *Service) MarkWithdrawalProcessing(ctx context.Context, txnID, adminID uuid.UUID) (*entity.Transaction, error) {
	return s.transitionAs(ctx, txnID, ledger.TransitionRequest{
		TransactionID: txnID,
		To:            entity.StatusProcessing,
		From:          []entity.TransactionStatus{entity.StatusPending},
		Type:          entity.TypeWithdrawal,
		Actor:         &adminID,
	})
}

// ProcessWithdrawal completes a withdrawal and debits the balance
func (s *Service) ProcessWithdrawal(ctx context.Context, req usecase.ProcessWithdrawalRequest) (*entity.Transaction, error) {
	txn, err := s.transitionAs(ctx, req.TransactionID, ledger.TransitionRequest{
		TransactionID:  req.TransactionID,
		To:             entity.StatusCompleted,
		From:           []entity.TransactionStatus{entity.StatusPending, entity.StatusProcessing},
		Type:           entity.TypeWithdrawal,
		Actor:          &req.AdminID,
		Notes:          req.Notes,
		IdempotencyKey: req.IdempotencyKey,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.Notification{
		UserID:  txn.UserID,
		Kind:    notification.KindWithdrawalProcessed,
		Title:   "Withdrawal sent",
		Message: fmt.Sprintf("%s has been sent to your %s account (ref %s).", entity.FormatAmount(txn.NetAmount), txn.PaymentMethod, txn.Reference),
	})
	return txn, nil
}

// RejectWithdrawal refuses a pending withdrawal. Nothing was debited, so nothing is refunded.
func (s *Service) RejectWithdrawal(ctx context.Context, req usecase.RejectRequest) (*entity.Transaction, error) {
	txn, err := s.transitionAs(ctx, req.TransactionID, ledger.TransitionRequest{
		TransactionID: req.TransactionID,
		To:            entity.StatusRejected,
		From:          []entity.TransactionStatus{entity.StatusPending},
		Type:          entity.TypeWithdrawal,
		Actor:         &req.AdminID,
		Notes:         req.Reason,
	})
	if err != nil {
		return nil, err
	}

	s.notify(ctx, notification.Notification{
		UserID:  txn.UserID,
		Kind:    notification.KindWithdrawalRejected,
		Title:   "Withdrawal rejected",
		Message: fmt.Sprintf("Your withdrawal %s was rejected: %s", txn.Reference, req.Reason),
	})
	return txn, nil
}

// CancelTransaction lets a user withdraw their own pending deposit or withdrawal
func (s *Service) CancelTransaction(ctx context.Context, txnID, userID uuid.UUID) (*entity.Transaction, error) {
	current, err := s.uow.GetTransactionRepository(ctx).GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}
	if current.UserID != userID {
		return nil, errs.NewNotFoundError("transaction", txnID.String(), errs.ErrTransactionNotFound)
	}
	if current.Type != entity.TypeDeposit && current.Type != entity.TypeWithdrawal {
		return nil, errs.NewValidationError("transactionId", "only deposits and withdrawals can be cancelled", nil)
	}

	var txn *entity.Transaction
	err = s.guard.Run(ctx, userID, func(ctx context.Context) error {
		var err error
		txn, err = s.ledger.Transition(ctx, ledger.TransitionRequest{
			TransactionID: txnID,
			To:            entity.StatusCancelled,
			From:          []entity.TransactionStatus{entity.StatusPending},
			OwnerID:       &userID,
			Actor:         &userID,
			Notes:         "cancelled by user",
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// transitionAs runs req in the owning user's turn
func (s *Service) transitionAs(ctx context.Context, txnID uuid.UUID, req ledger.TransitionRequest) (*entity.Transaction, error) {
	current, err := s.uow.GetTransactionRepository(ctx).GetByID(ctx, txnID)
	if err != nil {
		return nil, err
	}

	var txn *entity.Transaction
	err = s.guard.Run(ctx, current.UserID, func(ctx context.Context) error {
		var err error
		txn, err = s.ledger.Transition(ctx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *Service) activeUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	user, err := s.uow.GetUserRepository(ctx).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive {
		return nil, errs.NewValidationError("userId", "account is deactivated", errs.ErrUserInactive)
	}
	return user, nil
}

func (s *Service) notify(ctx context.Context, n notification.Notification) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.logger.Warn("Failed to queue notification", map[string]any{
			"user_id": n.UserID.String(),
			"kind":    string(n.Kind),
			"error":   err.Error(),
		})
	}
}
