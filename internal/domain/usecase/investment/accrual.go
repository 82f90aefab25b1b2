package investment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/notification"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/uow"
)

// creditStep is the outcome of crediting one day of one holding
type creditStep struct {
	holding *entity.Holding
	amount  decimal.Decimal
	resumed bool
	done    bool
}

// accrualTally collects a pass's counters from concurrent user workers
type accrualTally struct {
	mu     sync.Mutex
	report *usecase.AccrualReport
}

func (t *accrualTally) credit(step creditStep) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if step.resumed {
		t.report.Resumed++
	} else {
		t.report.Credits++
		t.report.TotalCredited = t.report.TotalCredited.Add(step.amount)
	}
	if step.holding.Status == entity.HoldingCompleted {
		t.report.Matured++
	}
}

func (t *accrualTally) fail(holdingID uuid.UUID, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.report.Failures = append(t.report.Failures, usecase.AccrualFailure{HoldingID: holdingID, Error: err.Error()})
}

// AccrueDailyProfit credits every holding whose profit is due. Users are
// processed in parallel, one user's holdings one after another. A holding
// that fell behind is caught up one day per step. Re-running the pass for the
// same instant credits nothing.
func (s *Service) AccrueDailyProfit(ctx context.Context) (*usecase.AccrualReport, error) {
	now := s.timeProvider.Now()
	report := &usecase.AccrualReport{StartedAt: now, TotalCredited: decimal.Zero}

	due, err := s.uow.GetHoldingRepository(ctx).FindDue(ctx, now, s.accrual.ScanLimit)
	if err != nil {
		s.logger.Error("Failed to scan due holdings", map[string]any{"error": err.Error()})
		return nil, err
	}
	report.HoldingsScanned = len(due)

	// group by user, keeping the due order inside each group
	byUser := make(map[uuid.UUID][]*entity.Holding)
	var order []uuid.UUID
	for _, h := range due {
		if _, ok := byUser[h.UserID]; !ok {
			order = append(order, h.UserID)
		}
		byUser[h.UserID] = append(byUser[h.UserID], h)
	}

	tally := &accrualTally{report: report}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.accrual.Concurrency)
	for _, userID := range order {
		holdings := byUser[userID]
		g.Go(func() error {
			s.accrueUser(gctx, userID, holdings, now, tally)
			return nil
		})
	}
	_ = g.Wait()

	s.matureHoldings(ctx, now, tally)

	report.FinishedAt = s.timeProvider.Now()
	s.logger.Info("Daily profit accrual finished", map[string]any{
		"holdings_scanned": report.HoldingsScanned,
		"credits":          report.Credits,
		"resumed":          report.Resumed,
		"matured":          report.Matured,
		"total_credited":   entity.FormatAmount(report.TotalCredited),
		"failures":         len(report.Failures),
	})
	return report, ctx.Err()
}

func (s *Service) accrueUser(ctx context.Context, userID uuid.UUID, holdings []*entity.Holding, now time.Time, tally *accrualTally) {
	for _, h := range holdings {
		if ctx.Err() != nil {
			return
		}

		// one step per missed day, plus one to observe that it is current
		maxSteps := h.TotalDays() + 1
		for range maxSteps {
			var step creditStep
			err := s.guard.Run(ctx, userID, func(ctx context.Context) error {
				var err error
				step, err = s.creditDay(ctx, h.ID, now)
				return err
			})
			if err != nil {
				s.logger.Error("Failed to credit holding", map[string]any{
					"holding_id": h.ID.String(),
					"user_id":    userID.String(),
					"error":      err.Error(),
				})
				tally.fail(h.ID, err)
				break
			}
			if step.done {
				break
			}

			tally.credit(step)
			if !step.resumed {
				s.notify(ctx, notification.Notification{
					UserID:  userID,
					Kind:    notification.KindProfitCredited,
					Title:   "Daily profit",
					Message: fmt.Sprintf("%s profit from %s has been added to your balance.", entity.FormatAmount(step.amount), step.holding.PackageName),
				})
			}
		}
	}
}

// creditDay books the next scheduled profit of one holding in its own unit of work
func (s *Service) creditDay(ctx context.Context, holdingID uuid.UUID, now time.Time) (creditStep, error) {
	var step creditStep
	err := uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
		step = creditStep{}
		holdings := s.uow.GetHoldingRepository(ctx)

		h, err := holdings.GetByIDForUpdate(ctx, holdingID)
		if err != nil {
			return err
		}
		if !h.IsDue(now) {
			step.done = true
			return nil
		}

		profitDate := h.NextProfitDate
		amount := h.NextCredit()

		existing, err := s.uow.GetTransactionRepository(ctx).FindProfitCredit(ctx, h.ID, profitDate)
		if err != nil {
			return err
		}
		if existing != nil {
			// credited earlier but the holding was not advanced
			amount = existing.Amount
			step.resumed = true
		} else {
			_, err = s.ledger.Record(ctx, entity.NewTransactionParams{
				UserID:        h.UserID,
				Type:          entity.TypeProfit,
				Amount:        amount,
				PaymentMethod: entity.MethodSystem,
				Metadata: entity.TransactionMetadata{
					PackageID:  &h.PackageID,
					HoldingID:  &h.ID,
					ProfitDate: &profitDate,
				},
				Description: "Daily profit from " + h.PackageName,
			}, "")
			if err != nil {
				return err
			}
		}

		if err := h.ApplyProfit(amount, now); err != nil {
			return err
		}
		if err := holdings.Update(ctx, h); err != nil {
			return err
		}

		step.holding = h
		step.amount = amount
		return nil
	})
	return step, err
}

// matureHoldings completes fully paid holdings that reached their end date
func (s *Service) matureHoldings(ctx context.Context, now time.Time, tally *accrualTally) {
	matured, err := s.uow.GetHoldingRepository(ctx).FindMatured(ctx, now, s.accrual.ScanLimit)
	if err != nil {
		s.logger.Error("Failed to scan matured holdings", map[string]any{"error": err.Error()})
		return
	}

	for _, candidate := range matured {
		completed := false
		err := uow.Run(ctx, s.uow, s.logger, func(ctx context.Context) error {
			repo := s.uow.GetHoldingRepository(ctx)
			h, err := repo.GetByIDForUpdate(ctx, candidate.ID)
			if err != nil {
				return err
			}
			if !h.CanMature(now) {
				return nil
			}
			if err := h.Complete(now); err != nil {
				return err
			}
			if err := repo.Update(ctx, h); err != nil {
				return err
			}
			completed = true
			return nil
		})
		if err == nil && completed {
			tally.mu.Lock()
			tally.report.Matured++
			tally.mu.Unlock()
		}
		if err != nil {
			s.logger.Error("Failed to mature holding", map[string]any{
				"holding_id": candidate.ID.String(),
				"error":      err.Error(),
			})
			tally.fail(candidate.ID, err)
		}
	}
}
