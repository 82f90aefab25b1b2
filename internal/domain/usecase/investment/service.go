package investment

import (
	"context"
	"errors"
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

// AccrualConfig tunes the daily accrual pass
type AccrualConfig struct {
	// Concurrency bounds how many users are credited at once
	Concurrency int
	// ScanLimit caps the holdings picked up by one pass; zero means all
	ScanLimit int
}

// Service implements the usecase.InvestmentUseCase interface
type Service struct {
	ledger       *ledger.Service
	guard        *ledger.UserGuard
	commission   *CommissionCalculator
	uow          persistence.UnitOfWork
	pins         coreport.PinHasher
	notifier     notification.Notifier
	accrual      AccrualConfig
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewService creates a new investment service
func NewService(
	ledgerService *ledger.Service,
	guard *ledger.UserGuard,
	commission *CommissionCalculator,
	unitOfWork persistence.UnitOfWork,
	pins coreport.PinHasher,
	notifier notification.Notifier,
	accrual AccrualConfig,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	if accrual.Concurrency <= 0 {
		accrual.Concurrency = 4
	}
	return &Service{
		ledger:       ledgerService,
		guard:        guard,
		commission:   commission,
		uow:          unitOfWork,
		pins:         pins,
		notifier:     notifier,
		accrual:      accrual,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

var _ usecase.InvestmentUseCase = (*Service)(nil)

// PurchasePackage debits the buyer, opens one holding per unit and pays the
// referrer's commission, all in one unit of work in the buyer's turn.
func (s *Service) PurchasePackage(ctx context.Context, req usecase.PurchaseRequest) (*usecase.PurchaseResult, error) {
	var (
		result   *usecase.PurchaseResult
		pkg      *entity.Package
		referrer *entity.User
	)

	err := s.guard.Run(ctx, req.UserID, func(ctx context.Context) error {
		return uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
			var err error
			result, pkg, referrer, err = s.purchase(ctx, req)
			return err
		})
	})
	if err != nil {
		s.logger.Info("Purchase refused", map[string]any{
			"user_id":    req.UserID.String(),
			"package_id": req.PackageID.String(),
			"quantity":   req.Quantity,
			"error":      err.Error(),
		})
		return nil, err
	}

	s.notify(ctx, notification.Notification{
		UserID:  req.UserID,
		Kind:    notification.KindPurchaseCompleted,
		Title:   "Investment started",
		Message: fmt.Sprintf("You bought %d x %s for %s.", req.Quantity, pkg.Name, entity.FormatAmount(result.Funding.Amount)),
	})
	if result.Commission != nil {
		s.notify(ctx, notification.Notification{
			UserID:  referrer.ID,
			Kind:    notification.KindCommissionCredited,
			Title:   "Referral commission",
			Message: fmt.Sprintf("You earned %s commission on a %s purchase.", entity.FormatAmount(result.Commission.Amount), pkg.Name),
		})
	}
	return result, nil
}

func (s *Service) purchase(ctx context.Context, req usecase.PurchaseRequest) (*usecase.PurchaseResult, *entity.Package, *entity.User, error) {
	users := s.uow.GetUserRepository(ctx)
	packages := s.uow.GetPackageRepository(ctx)

	user, err := users.GetByID(ctx, req.UserID)
	if err != nil {
		return nil, nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, nil, errs.NewValidationError("userId", "account is deactivated", errs.ErrUserInactive)
	}

	pkg, err := packages.GetByIDForUpdate(ctx, req.PackageID)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := pkg.CheckPurchasable(req.Quantity); err != nil {
		return nil, nil, nil, err
	}

	if err := s.checkPin(user, req.Pin); err != nil {
		return nil, nil, nil, err
	}

	// pending withdrawals keep their funds reserved
	cost := pkg.Cost(req.Quantity)
	available, err := s.ledger.AvailableBalance(ctx, user)
	if err != nil {
		return nil, nil, nil, err
	}
	if cost.GreaterThan(available) {
		return nil, nil, nil, errs.NewValidationError("quantity",
			fmt.Sprintf("available balance %s does not cover %s", entity.FormatAmount(available), entity.FormatAmount(cost)),
			errs.ErrInsufficientBalance)
	}

	funding, err := s.ledger.Record(ctx, entity.NewTransactionParams{
		UserID:        user.ID,
		Type:          entity.TypeInvestment,
		Amount:        cost,
		PaymentMethod: entity.MethodWallet,
		Metadata: entity.TransactionMetadata{
			PackageID: &pkg.ID,
			Quantity:  req.Quantity,
		},
		Description: fmt.Sprintf("Purchase of %d x %s", req.Quantity, pkg.Name),
	}, "")
	if err != nil {
		return nil, nil, nil, err
	}

	now := s.timeProvider.Now()
	holdings := make([]*entity.Holding, 0, req.Quantity)
	for range req.Quantity {
		holdings = append(holdings, entity.NewHolding(user.ID, pkg, funding.ID, now))
	}

	pkg.RecordSale(req.Quantity, cost, now)
	if err := packages.Update(ctx, pkg); err != nil {
		return nil, nil, nil, err
	}

	result := &usecase.PurchaseResult{Funding: funding, Holdings: holdings}

	referrer, err := s.activeReferrer(ctx, user)
	if err != nil {
		return nil, nil, nil, err
	}
	if referrer != nil {
		total, shares := s.commission.Compute(cost, pkg, req.Quantity)
		if total.IsPositive() {
			result.Commission, err = s.commission.Pay(ctx, user, referrer, pkg, holdings, total, shares)
			if err != nil {
				return nil, nil, nil, err
			}
		}
	}

	if err := s.uow.GetHoldingRepository(ctx).CreateBatch(ctx, holdings); err != nil {
		return nil, nil, nil, err
	}

	s.logger.Info("Package purchased", map[string]any{
		"user_id":        user.ID.String(),
		"package_id":     pkg.ID.String(),
		"quantity":       req.Quantity,
		"amount":         entity.FormatAmount(cost),
		"transaction_id": funding.ID.String(),
	})
	return result, pkg, referrer, nil
}

func (s *Service) checkPin(user *entity.User, pin string) error {
	if !user.HasPin() {
		return errs.NewValidationError("pin", "set a transaction PIN first", errs.ErrPinNotSet)
	}
	if err := s.pins.Compare(user.PinHash, pin); err != nil {
		return errs.NewValidationError("pin", "PIN does not match", errs.ErrInvalidPin)
	}
	return nil
}

// activeReferrer returns the buyer's referrer if one exists and is active
func (s *Service) activeReferrer(ctx context.Context, user *entity.User) (*entity.User, error) {
	if user.ReferrerID == nil {
		return nil, nil
	}
	referrer, err := s.uow.GetUserRepository(ctx).GetByID(ctx, *user.ReferrerID)
	if errors.Is(err, errs.ErrUserNotFound) {
		s.logger.Warn("Referrer no longer exists", map[string]any{
			"user_id":     user.ID.String(),
			"referrer_id": user.ReferrerID.String(),
		})
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if !referrer.IsActive {
		return nil, nil
	}
	return referrer, nil
}

// CancelHolding stops accrual on an active holding. Nothing is refunded.
func (s *Service) CancelHolding(ctx context.Context, req usecase.CancelHoldingRequest) (*entity.Holding, error) {
	var holding *entity.Holding
	err := uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
		repo := s.uow.GetHoldingRepository(ctx)
		h, err := repo.GetByIDForUpdate(ctx, req.HoldingID)
		if err != nil {
			return err
		}
		if err := h.Cancel(req.Reason, s.timeProvider.Now()); err != nil {
			return err
		}
		if err := repo.Update(ctx, h); err != nil {
			return err
		}
		holding = h
		return nil
	})
	if err != nil {
		if errs.IsInvalidTransitionError(err) {
			s.logger.Warn("Holding cancellation refused", errs.LogFields(err))
		}
		return nil, err
	}

	s.logger.Info("Holding cancelled", map[string]any{
		"holding_id":     holding.ID.String(),
		"actor_id":       req.ActorID.String(),
		"reason":         req.Reason,
		"profit_pending": entity.FormatAmount(holding.ProfitPending),
	})
	return holding, nil
}

// GetHolding returns one holding
func (s *Service) GetHolding(ctx context.Context, id uuid.UUID) (*entity.Holding, error) {
	return s.uow.GetHoldingRepository(ctx).GetByID(ctx, id)
}

// ListHoldings returns a page of holdings
func (s *Service) ListHoldings(ctx context.Context, filter persistence.HoldingFilter) ([]*entity.Holding, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > ledger.MaxPageSize {
		filter.Limit = ledger.DefaultPageSize
	}
	return s.uow.GetHoldingRepository(ctx).List(ctx, filter)
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
