package investment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/usecase/ledger"
)

// CommissionCalculator derives referral payouts and books them
type CommissionCalculator struct {
	ledger       *ledger.Service
	timeProvider coreport.TimeProvider
	logger       coreport.Logger
}

// NewCommissionCalculator creates a new commission calculator
func NewCommissionCalculator(ledgerService *ledger.Service, timeProvider coreport.TimeProvider, logger coreport.Logger) *CommissionCalculator {
	return &CommissionCalculator{
		ledger:       ledgerService,
		timeProvider: timeProvider,
		logger:       logger,
	}
}

// Compute returns the referral commission on purchaseAmount and its split over
// quantity holdings. The shares sum exactly to the total.
func (c *CommissionCalculator) Compute(purchaseAmount decimal.Decimal, pkg *entity.Package, quantity int) (decimal.Decimal, []decimal.Decimal) {
	total := entity.PercentOf(purchaseAmount, pkg.ReferralCommission)
	if !total.IsPositive() || quantity <= 0 {
		return decimal.Zero, nil
	}
	return total, entity.SplitEvenly(total, quantity)
}

// Pay credits the referrer with a completed commission transaction and stamps
// each holding with its share. It joins the caller's unit of work.
func (c *CommissionCalculator) Pay(
	ctx context.Context,
	buyer *entity.User,
	referrer *entity.User,
	pkg *entity.Package,
	holdings []*entity.Holding,
	total decimal.Decimal,
	shares []decimal.Decimal,
) (*entity.Transaction, error) {
	if len(shares) != len(holdings) {
		return nil, fmt.Errorf("commission split into %d shares for %d holdings", len(shares), len(holdings))
	}

	txn, err := c.ledger.Record(ctx, entity.NewTransactionParams{
		UserID:        referrer.ID,
		Type:          entity.TypeCommission,
		Amount:        total,
		PaymentMethod: entity.MethodSystem,
		Metadata: entity.TransactionMetadata{
			PackageID:      &pkg.ID,
			ReferredUserID: &buyer.ID,
			Quantity:       len(holdings),
		},
		Description: fmt.Sprintf("Referral commission from %s for %s", buyer.FullName, pkg.Name),
	}, "")
	if err != nil {
		return nil, err
	}

	now := c.timeProvider.Now()
	for i, h := range holdings {
		h.RecordCommission(shares[i], referrer.ID, now)
	}

	c.logger.Info("Referral commission paid", map[string]any{
		"referrer_id":    referrer.ID.String(),
		"buyer_id":       buyer.ID.String(),
		"package_id":     pkg.ID.String(),
		"amount":         entity.FormatAmount(total),
		"transaction_id": txn.ID.String(),
	})
	return txn, nil
}
