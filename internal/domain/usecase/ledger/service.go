package ledger

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/uow"
)

// MaxReferenceAttempts bounds reference regeneration on collision
const MaxReferenceAttempts = 5

// TransitionRequest moves one transaction along its state machine
type TransitionRequest struct {
	TransactionID uuid.UUID
	To            entity.TransactionStatus
	// From restricts the statuses the transition may start from; empty means any the state machine allows
	From []entity.TransactionStatus
	// Type, when set, must match the stored transaction type
	Type entity.TransactionType
	// OwnerID, when set, must match the transaction's user
	OwnerID        *uuid.UUID
	Actor          *uuid.UUID
	Notes          string
	IdempotencyKey string
}

// Service is the transaction record store. It owns creation, the status
// state machine and, through the balance mutator, the single balance effect
// of every completed transaction.
type Service struct {
	uow          persistence.UnitOfWork
	mutator      *BalanceMutator
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
	newReference func(now time.Time) string
}

// NewService creates a new ledger service
func NewService(
	unitOfWork persistence.UnitOfWork,
	mutator *BalanceMutator,
	timeProvider coreport.TimeProvider,
	logger coreport.Logger,
) *Service {
	return &Service{
		uow:          unitOfWork,
		mutator:      mutator,
		timeProvider: timeProvider,
		logger:       logger,
		newReference: entity.GenerateReference,
	}
}

// WithReferenceGenerator replaces the reference code source
func (s *Service) WithReferenceGenerator(fn func(now time.Time) string) *Service {
	s.newReference = fn
	return s
}

// Create validates and stores a pending transaction with a fresh reference
func (s *Service) Create(ctx context.Context, params entity.NewTransactionParams) (*entity.Transaction, error) {
	txn, err := entity.NewTransaction(params, s.timeProvider.Now())
	if err != nil {
		return nil, err
	}

	err = uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
		return s.insert(ctx, txn)
	})
	if err != nil {
		s.logger.Error("Failed to create transaction", map[string]any{
			"user_id": params.UserID.String(),
			"type":    string(params.Type),
			"error":   err.Error(),
		})
		return nil, err
	}

	s.logger.Info("Transaction created", map[string]any{
		"transaction_id": txn.ID.String(),
		"reference":      txn.Reference,
		"user_id":        txn.UserID.String(),
		"type":           string(txn.Type),
		"amount":         entity.FormatAmount(txn.Amount),
	})
	return txn, nil
}

// Record creates a transaction and completes it in the same unit of work.
// Used for system-generated credits and for investment funding debits.
func (s *Service) Record(ctx context.Context, params entity.NewTransactionParams, notes string) (*entity.Transaction, error) {
	txn, err := entity.NewTransaction(params, s.timeProvider.Now())
	if err != nil {
		return nil, err
	}

	err = uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
		if err := s.insert(ctx, txn); err != nil {
			return err
		}
		return s.complete(ctx, txn, entity.StatusPending, nil, notes, "")
	})
	if err != nil {
		return nil, err
	}
	return txn, nil
}

// Transition applies req atomically. Completing a transaction applies its
// balance effect exactly once; completing it again fails with an idempotency
// violation unless the same idempotency key is presented, which returns the
// stored transaction unchanged.
func (s *Service) Transition(ctx context.Context, req TransitionRequest) (*entity.Transaction, error) {
	var result *entity.Transaction
	err := uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
		txn, err := s.uow.GetTransactionRepository(ctx).GetByIDForUpdate(ctx, req.TransactionID)
		if err != nil {
			return err
		}
		result, err = s.transition(ctx, txn, req)
		return err
	})
	if err != nil {
		s.logTransitionFailure(req, err)
		return nil, err
	}
	return result, nil
}

func (s *Service) transition(ctx context.Context, txn *entity.Transaction, req TransitionRequest) (*entity.Transaction, error) {
	if req.OwnerID != nil && txn.UserID != *req.OwnerID {
		return nil, errs.NewNotFoundError("transaction", txn.ID.String(), errs.ErrTransactionNotFound)
	}
	if req.Type != "" && txn.Type != req.Type {
		return nil, errs.NewValidationError("transactionId",
			fmt.Sprintf("transaction is a %s, not a %s", txn.Type, req.Type), nil)
	}

	if req.To == entity.StatusCompleted && txn.Status == entity.StatusCompleted {
		if req.IdempotencyKey != "" && req.IdempotencyKey == txn.CompletionKey {
			s.logger.Info("Repeated completion ignored", map[string]any{
				"transaction_id":  txn.ID.String(),
				"idempotency_key": req.IdempotencyKey,
			})
			return txn, nil
		}
		return nil, errs.NewIdempotencyViolationError(txn.ID.String())
	}

	if len(req.From) > 0 && !slices.Contains(req.From, txn.Status) {
		return nil, errs.NewInvalidTransitionError("transaction", txn.ID.String(), string(txn.Status), string(req.To))
	}

	from := txn.Status
	if req.To == entity.StatusCompleted {
		if err := s.complete(ctx, txn, from, req.Actor, req.Notes, req.IdempotencyKey); err != nil {
			return nil, err
		}
		return txn, nil
	}

	if err := txn.TransitionTo(req.To, req.Actor, req.Notes, s.timeProvider.Now()); err != nil {
		return nil, err
	}
	if err := s.uow.GetTransactionRepository(ctx).UpdateStatus(ctx, txn, from); err != nil {
		return nil, err
	}

	s.logger.Info("Transaction status changed", map[string]any{
		"transaction_id": txn.ID.String(),
		"from":           string(from),
		"to":             string(txn.Status),
	})
	return txn, nil
}

// complete moves txn to completed, books its balance effect and persists both
func (s *Service) complete(ctx context.Context, txn *entity.Transaction, from entity.TransactionStatus, actor *uuid.UUID, notes, key string) error {
	if err := txn.TransitionTo(entity.StatusCompleted, actor, notes, s.timeProvider.Now()); err != nil {
		return err
	}
	txn.CompletionKey = key

	if _, err := s.mutator.Apply(ctx, s.uow.GetUserRepository(ctx), txn); err != nil {
		return err
	}
	if err := s.uow.GetTransactionRepository(ctx).UpdateStatus(ctx, txn, from); err != nil {
		return err
	}

	s.logger.Info("Transaction completed", map[string]any{
		"transaction_id": txn.ID.String(),
		"reference":      txn.Reference,
		"user_id":        txn.UserID.String(),
		"type":           string(txn.Type),
		"amount":         entity.FormatAmount(txn.Amount),
	})
	return nil
}

// insert stores txn, regenerating the reference on collision
func (s *Service) insert(ctx context.Context, txn *entity.Transaction) error {
	repo := s.uow.GetTransactionRepository(ctx)

	for attempt := 1; attempt <= MaxReferenceAttempts; attempt++ {
		txn.Reference = s.newReference(s.timeProvider.Now())

		err := repo.Create(ctx, txn)
		if err == nil {
			return nil
		}
		if !errors.Is(err, errs.ErrDuplicateReference) {
			return err
		}

		s.logger.Warn("Transaction reference collision", map[string]any{
			"reference": txn.Reference,
			"attempt":   attempt,
		})
	}

	return fmt.Errorf("%w: no free reference after %d attempts", errs.ErrDuplicateReference, MaxReferenceAttempts)
}

func (s *Service) logTransitionFailure(req TransitionRequest, err error) {
	fields := map[string]any{
		"transaction_id": req.TransactionID.String(),
		"to":             string(req.To),
		"error":          err.Error(),
	}

	switch {
	case errs.IsInvalidTransitionError(err), errs.IsIdempotencyViolation(err):
		s.logger.Warn("Transaction transition refused", fields)
	case errs.IsValidationError(err), errs.IsNotFoundError(err):
		s.logger.Info("Transaction transition rejected", fields)
	default:
		s.logger.Error("Transaction transition failed", fields)
	}
}
