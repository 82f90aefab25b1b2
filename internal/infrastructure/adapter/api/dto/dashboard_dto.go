package dto

import (
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
)

// DashboardResponse is the admin overview
type DashboardResponse struct {
	TotalUsers         int64             `json:"totalUsers"`
	ActiveUsers        int64             `json:"activeUsers"`
	TotalDeposits      string            `json:"totalDeposits"`
	TotalWithdrawals   string            `json:"totalWithdrawals"`
	TotalInvestments   string            `json:"totalInvestments"`
	TotalProfitPaid    string            `json:"totalProfitPaid"`
	PendingDeposits    int64             `json:"pendingDeposits"`
	PendingWithdrawals int64             `json:"pendingWithdrawals"`
	ActiveHoldings     int64             `json:"activeHoldings"`
	CompletedByType    map[string]string `json:"completedByType"`
}

// NewDashboardResponse maps dashboard statistics
func NewDashboardResponse(s *usecase.DashboardStats) DashboardResponse {
	byType := make(map[string]string, len(s.CompletedByType))
	for t, total := range s.CompletedByType {
		byType[string(t)] = entity.FormatAmount(total)
	}
	return DashboardResponse{
		TotalUsers:         s.TotalUsers,
		ActiveUsers:        s.ActiveUsers,
		TotalDeposits:      entity.FormatAmount(s.TotalDeposits),
		TotalWithdrawals:   entity.FormatAmount(s.TotalWithdrawals),
		TotalInvestments:   entity.FormatAmount(s.TotalInvestments),
		TotalProfitPaid:    entity.FormatAmount(s.TotalProfitPaid),
		PendingDeposits:    s.PendingDeposits,
		PendingWithdrawals: s.PendingWithdrawals,
		ActiveHoldings:     s.ActiveHoldings,
		CompletedByType:    byType,
	}
}

// AggregateResponse is one group of a transaction summary
type AggregateResponse struct {
	Type   entity.TransactionType   `json:"type"`
	Status entity.TransactionStatus `json:"status"`
	Count  int64                    `json:"count"`
	Total  string                   `json:"total"`
}

// NewAggregateResponses maps transaction aggregates
func NewAggregateResponses(aggs []persistence.TransactionAggregate) []AggregateResponse {
	out := make([]AggregateResponse, 0, len(aggs))
	for _, a := range aggs {
		out = append(out, AggregateResponse{
			Type:   a.Type,
			Status: a.Status,
			Count:  a.Count,
			Total:  entity.FormatAmount(a.Total),
		})
	}
	return out
}
