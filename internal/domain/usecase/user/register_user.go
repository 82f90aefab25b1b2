package user

import (
	"context"
	"errors"
	"strings"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

// maxCodeAttempts bounds how often generated account numbers and referral codes are redrawn
const maxCodeAttempts = 3

// RegisterUser creates an account. A referral code, if given, must belong to an active user.
func (u *UserUseCase) RegisterUser(ctx context.Context, req usecase.RegisterUserRequest) (*entity.User, error) {
	params := entity.NewUserParams{
		FullName: strings.TrimSpace(req.FullName),
		Phone:    strings.TrimSpace(req.Phone),
		Email:    strings.TrimSpace(req.Email),
		Role:     req.Role,
	}

	if code := strings.ToUpper(strings.TrimSpace(req.ReferralCode)); code != "" {
		referrer, err := u.uow.GetUserRepository(ctx).GetByReferralCode(ctx, code)
		if errors.Is(err, errs.ErrUserNotFound) {
			return nil, errs.NewValidationError("referralCode", "unknown referral code", err)
		}
		if err != nil {
			return nil, err
		}
		if !referrer.IsActive {
			return nil, errs.NewValidationError("referralCode", "referrer account is deactivated", errs.ErrUserInactive)
		}
		params.ReferrerID = &referrer.ID
	}

	var pinHash string
	if req.Pin != "" {
		var err error
		if pinHash, err = u.pins.Hash(req.Pin); err != nil {
			return nil, err
		}
	}

	var (
		user *entity.User
		err  error
	)
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		user, err = entity.NewUser(params, u.timeProvider.Now())
		if err != nil {
			return nil, err
		}
		user.PinHash = pinHash

		err = u.uow.GetUserRepository(ctx).Create(ctx, user)
		if !errors.Is(err, errs.ErrDuplicateUser) {
			break
		}
		u.logger.Debug("Generated account codes collided", map[string]any{
			"attempt": attempt,
			"phone":   params.Phone,
		})
	}
	if err != nil {
		u.logger.Error("Failed to create user", map[string]any{
			"phone": params.Phone,
			"error": err.Error(),
		})
		return nil, err
	}

	fields := map[string]any{
		"user_id":        user.ID.String(),
		"account_number": user.AccountNumber,
		"role":           string(user.Role),
	}
	if user.ReferrerID != nil {
		fields["referrer_id"] = user.ReferrerID.String()
	}
	u.logger.Info("User registered", fields)

	return user, nil
}
