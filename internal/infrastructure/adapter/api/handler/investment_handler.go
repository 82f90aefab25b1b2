package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/middleware"
)

// InvestmentHandler handles package purchases and holdings
type InvestmentHandler struct {
	investmentUseCase usecase.InvestmentUseCase
	timeProvider      coreport.TimeProvider
	logger            coreport.Logger
}

// NewInvestmentHandler creates a new investment handler instance
func NewInvestmentHandler(investmentUseCase usecase.InvestmentUseCase, timeProvider coreport.TimeProvider, logger coreport.Logger) *InvestmentHandler {
	return &InvestmentHandler{
		investmentUseCase: investmentUseCase,
		timeProvider:      timeProvider,
		logger:            logger,
	}
}

// Purchase handles POST /users/:userId/purchases
func (h *InvestmentHandler) Purchase(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	result, err := h.investmentUseCase.PurchasePackage(c.Request.Context(), usecase.PurchaseRequest{
		UserID:    userID,
		PackageID: req.PackageID,
		Quantity:  req.Quantity,
		Pin:       req.Pin,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewPurchaseResponse(result, h.timeProvider.Now()))
}

// GetHolding handles GET /users/:userId/holdings/:holdingId
func (h *InvestmentHandler) GetHolding(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	holdingID, ok := pathID(c, "holdingId")
	if !ok {
		return
	}

	holding, err := h.investmentUseCase.GetHolding(c.Request.Context(), holdingID)
	if err == nil && holding.UserID != userID {
		err = domainerr.NewNotFoundError("holding", holdingID.String(), domainerr.ErrHoldingNotFound)
	}
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewHoldingResponse(holding, h.timeProvider.Now()))
}

// ListUserHoldings handles GET /users/:userId/holdings
func (h *InvestmentHandler) ListUserHoldings(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	h.listHoldings(c, &userID)
}

// ListHoldings handles GET /admin/holdings
func (h *InvestmentHandler) ListHoldings(c *gin.Context) {
	h.listHoldings(c, nil)
}

func (h *InvestmentHandler) listHoldings(c *gin.Context, userID *uuid.UUID) {
	var q dto.HoldingQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	filter := persistence.HoldingFilter{
		UserID: userID,
		Page:   max(q.Page, 1),
		Limit:  q.Limit,
	}
	if filter.Limit == 0 {
		filter.Limit = 20
	}
	if q.Status != "" {
		filter.Statuses = []entity.HoldingStatus{entity.HoldingStatus(q.Status)}
	}
	if q.PackageID != "" {
		packageID := uuid.MustParse(q.PackageID)
		filter.PackageID = &packageID
	}

	holdings, total, err := h.investmentUseCase.ListHoldings(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.PageResponse[dto.HoldingResponse]{
		Items: dto.NewHoldingResponses(holdings, h.timeProvider.Now()),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// CancelHolding handles POST /admin/holdings/:holdingId/cancel
func (h *InvestmentHandler) CancelHolding(c *gin.Context) {
	holdingID, ok := pathID(c, "holdingId")
	if !ok {
		return
	}

	var req dto.CancelHoldingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	holding, err := h.investmentUseCase.CancelHolding(c.Request.Context(), usecase.CancelHoldingRequest{
		HoldingID: holdingID,
		ActorID:   middleware.CallerID(c),
		Reason:    req.Reason,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewHoldingResponse(holding, h.timeProvider.Now()))
}

// TriggerAccrual handles POST /admin/accruals and runs one pass synchronously
func (h *InvestmentHandler) TriggerAccrual(c *gin.Context) {
	h.logger.Info("Manual accrual pass requested", map[string]any{
		"admin_id": middleware.CallerID(c).String(),
	})

	report, err := h.investmentUseCase.AccrueDailyProfit(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAccrualReportResponse(report))
}
