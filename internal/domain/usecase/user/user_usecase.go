package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/uow"
)

// UserUseCase implements the user business logic
type UserUseCase struct {
	uow          persistence.UnitOfWork
	ledger       *ledger.Service
	pins         coreport.PinHasher
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewUserUseCase creates a new user use case instance
func NewUserUseCase(
	unitOfWork persistence.UnitOfWork,
	ledgerService *ledger.Service,
	pins coreport.PinHasher,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) usecase.UserUseCase {
	return &UserUseCase{
		uow:          unitOfWork,
		ledger:       ledgerService,
		pins:         pins,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// GetUser returns one user
func (u *UserUseCase) GetUser(ctx context.Context, id uuid.UUID) (*entity.User, error) {
	return u.uow.GetUserRepository(ctx).GetByID(ctx, id)
}

// ListUsers returns a page of users and the total match count
func (u *UserUseCase) ListUsers(ctx context.Context, filter persistence.UserFilter) ([]*entity.User, int64, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit <= 0 || filter.Limit > ledger.MaxPageSize {
		filter.Limit = ledger.DefaultPageSize
	}
	return u.uow.GetUserRepository(ctx).List(ctx, filter)
}

// SetPin hashes and stores a new transaction PIN
func (u *UserUseCase) SetPin(ctx context.Context, id uuid.UUID, pin string) error {
	hash, err := u.pins.Hash(pin)
	if err != nil {
		return err
	}

	_, err = u.modify(ctx, id, func(user *entity.User) {
		user.SetPinHash(hash, u.timeProvider.Now())
	})
	if err != nil {
		return err
	}

	u.logger.Info("Transaction PIN updated", map[string]any{"user_id": id.String()})
	return nil
}

// SetActive activates or deactivates an account. Balances and history are kept.
func (u *UserUseCase) SetActive(ctx context.Context, id uuid.UUID, active bool) (*entity.User, error) {
	user, err := u.modify(ctx, id, func(user *entity.User) {
		if active {
			user.Activate(u.timeProvider.Now())
		} else {
			user.Deactivate(u.timeProvider.Now())
		}
	})
	if err != nil {
		return nil, err
	}

	u.logger.Info("User activation changed", map[string]any{
		"user_id":   id.String(),
		"is_active": active,
	})
	return user, nil
}

func (u *UserUseCase) modify(ctx context.Context, id uuid.UUID, change func(*entity.User)) (*entity.User, error) {
	var user *entity.User
	err := uow.Run(ctx, u.uow, u.logger, func(ctx context.Context) error {
		users := u.uow.GetUserRepository(ctx)
		current, err := users.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		change(current)
		if err := users.Update(ctx, current); err != nil {
			return err
		}
		user = current
		return nil
	})
	return user, err
}
