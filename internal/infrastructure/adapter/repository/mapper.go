package repository

import (
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/model"
)

func userToModel(u *entity.User) *model.User {
	return &model.User{
		ID:              u.ID,
		FullName:        u.FullName,
		Phone:           u.Phone,
		Email:           u.Email,
		AccountNumber:   u.AccountNumber,
		ReferralCode:    u.ReferralCode,
		ReferrerID:      u.ReferrerID,
		Role:            string(u.Role),
		Balance:         u.Balance,
		TotalDeposit:    u.TotalDeposit,
		TotalWithdraw:   u.TotalWithdraw,
		TotalInvestment: u.TotalInvestment,
		TotalProfit:     u.TotalProfit,
		PinHash:         u.PinHash,
		IsActive:        u.IsActive,
		Version:         u.Version,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

func userToEntity(m *model.User) *entity.User {
	return &entity.User{
		ID:              m.ID,
		FullName:        m.FullName,
		Phone:           m.Phone,
		Email:           m.Email,
		AccountNumber:   m.AccountNumber,
		ReferralCode:    m.ReferralCode,
		ReferrerID:      m.ReferrerID,
		Role:            entity.Role(m.Role),
		Balance:         m.Balance,
		TotalDeposit:    m.TotalDeposit,
		TotalWithdraw:   m.TotalWithdraw,
		TotalInvestment: m.TotalInvestment,
		TotalProfit:     m.TotalProfit,
		PinHash:         m.PinHash,
		IsActive:        m.IsActive,
		Version:         m.Version,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
}

func transactionToModel(t *entity.Transaction) *model.Transaction {
	m := &model.Transaction{
		ID:               t.ID,
		UserID:           t.UserID,
		Type:             string(t.Type),
		Amount:           t.Amount,
		Charge:           t.Charge,
		NetAmount:        t.NetAmount,
		Status:           string(t.Status),
		PaymentMethod:    string(t.PaymentMethod),
		PaymentDetails:   t.PaymentDetails,
		Metadata:         t.Metadata,
		Description:      t.Description,
		Reference:        t.Reference,
		ProcessedBy:      t.ProcessedBy,
		ProcessedAt:      t.ProcessedAt,
		Notes:            t.Notes,
		BalanceAppliedAt: t.BalanceAppliedAt,
		CompletionKey:    t.CompletionKey,
		CreatedAt:        t.CreatedAt,
		UpdatedAt:        t.UpdatedAt,
	}
	if t.Type == entity.TypeProfit {
		m.HoldingID = t.Metadata.HoldingID
		m.ProfitDate = t.Metadata.ProfitDate
	}
	return m
}

func transactionToEntity(m *model.Transaction) *entity.Transaction {
	return &entity.Transaction{
		ID:               m.ID,
		UserID:           m.UserID,
		Type:             entity.TransactionType(m.Type),
		Amount:           m.Amount,
		Charge:           m.Charge,
		NetAmount:        m.NetAmount,
		Status:           entity.TransactionStatus(m.Status),
		PaymentMethod:    entity.PaymentMethod(m.PaymentMethod),
		PaymentDetails:   m.PaymentDetails,
		Metadata:         m.Metadata,
		Description:      m.Description,
		Reference:        m.Reference,
		ProcessedBy:      m.ProcessedBy,
		ProcessedAt:      m.ProcessedAt,
		Notes:            m.Notes,
		BalanceAppliedAt: m.BalanceAppliedAt,
		CompletionKey:    m.CompletionKey,
		CreatedAt:        m.CreatedAt,
		UpdatedAt:        m.UpdatedAt,
	}
}

func packageToModel(p *entity.Package) *model.Package {
	return &model.Package{
		ID:                 p.ID,
		Name:               p.Name,
		Description:        p.Description,
		Price:              p.Price,
		ProfitAmount:       p.ProfitAmount,
		ProfitPercentage:   p.ProfitPercentage,
		DurationDays:       p.DurationDays,
		DailyProfit:        p.DailyProfit,
		TotalReturn:        p.TotalReturn,
		Category:           string(p.Category),
		IsPopular:          p.IsPopular,
		IsActive:           p.IsActive,
		MinPurchase:        p.MinPurchase,
		MaxPurchase:        p.MaxPurchase,
		ReferralCommission: p.ReferralCommission,
		AgentCommission:    p.AgentCommission,
		TotalSales:         p.TotalSales,
		TotalRevenue:       p.TotalRevenue,
		CreatedAt:          p.CreatedAt,
		UpdatedAt:          p.UpdatedAt,
	}
}

func packageToEntity(m *model.Package) *entity.Package {
	return &entity.Package{
		ID:                 m.ID,
		Name:               m.Name,
		Description:        m.Description,
		Price:              m.Price,
		ProfitAmount:       m.ProfitAmount,
		ProfitPercentage:   m.ProfitPercentage,
		DurationDays:       m.DurationDays,
		DailyProfit:        m.DailyProfit,
		TotalReturn:        m.TotalReturn,
		Category:           entity.PackageCategory(m.Category),
		IsPopular:          m.IsPopular,
		IsActive:           m.IsActive,
		MinPurchase:        m.MinPurchase,
		MaxPurchase:        m.MaxPurchase,
		ReferralCommission: m.ReferralCommission,
		AgentCommission:    m.AgentCommission,
		TotalSales:         m.TotalSales,
		TotalRevenue:       m.TotalRevenue,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

func holdingToModel(h *entity.Holding) *model.Holding {
	m := &model.Holding{
		ID:             h.ID,
		UserID:         h.UserID,
		PackageID:      h.PackageID,
		PackageName:    h.PackageName,
		PurchaseAmount: h.PurchaseAmount,
		ExpectedProfit: h.ExpectedProfit,
		DailyProfit:    h.DailyProfit,
		StartDate:      h.StartDate,
		EndDate:        h.EndDate,
		Status:         string(h.Status),
		ProfitPaid:     h.ProfitPaid,
		ProfitPending:  h.ProfitPending,
		LastProfitDate: h.LastProfitDate,
		NextProfitDate: h.NextProfitDate,
		TransactionID:  h.TransactionID,
		AutoRenew:      h.AutoRenew,
		Notes:          h.Notes,
		Version:        h.Version,
		CreatedAt:      h.CreatedAt,
		UpdatedAt:      h.UpdatedAt,
	}
	if c := h.Commission; c != nil {
		amount, paidTo, paidAt := c.Amount, c.PaidTo, c.PaidAt
		m.CommissionAmount = &amount
		m.CommissionPaidTo = &paidTo
		m.CommissionPaidAt = &paidAt
	}
	return m
}

func holdingToEntity(m *model.Holding) *entity.Holding {
	h := &entity.Holding{
		ID:             m.ID,
		UserID:         m.UserID,
		PackageID:      m.PackageID,
		PackageName:    m.PackageName,
		PurchaseAmount: m.PurchaseAmount,
		ExpectedProfit: m.ExpectedProfit,
		DailyProfit:    m.DailyProfit,
		StartDate:      m.StartDate,
		EndDate:        m.EndDate,
		Status:         entity.HoldingStatus(m.Status),
		ProfitPaid:     m.ProfitPaid,
		ProfitPending:  m.ProfitPending,
		LastProfitDate: m.LastProfitDate,
		NextProfitDate: m.NextProfitDate,
		TransactionID:  m.TransactionID,
		AutoRenew:      m.AutoRenew,
		Notes:          m.Notes,
		Version:        m.Version,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	if m.CommissionAmount != nil && m.CommissionPaidTo != nil && m.CommissionPaidAt != nil {
		h.Commission = &entity.CommissionRecord{
			Amount: *m.CommissionAmount,
			PaidTo: *m.CommissionPaidTo,
			PaidAt: *m.CommissionPaidAt,
		}
	}
	return h
}

func toEntities[M any, E any](rows []M, convert func(*M) *E) []*E {
	result := make([]*E, 0, len(rows))
	for i := range rows {
		result = append(result, convert(&rows[i]))
	}
	return result
}

// pageBounds normalizes 1-based page numbers into an offset
func pageBounds(page, limit int) (offset, size int) {
	if limit <= 0 {
		return 0, -1
	}
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit, limit
}
