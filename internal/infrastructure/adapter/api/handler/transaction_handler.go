package handler

import (
	"net/http"
	"strconv"

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

// TransactionHandler serves read access to the transaction history
type TransactionHandler struct {
	ledgerQuery usecase.LedgerQueryUseCase
	logger      coreport.Logger
}

// NewTransactionHandler creates a new transaction handler instance
func NewTransactionHandler(ledgerQuery usecase.LedgerQueryUseCase, logger coreport.Logger) *TransactionHandler {
	return &TransactionHandler{
		ledgerQuery: ledgerQuery,
		logger:      logger,
	}
}

// GetUserTransaction handles GET /users/:userId/transactions/:transactionId
func (h *TransactionHandler) GetUserTransaction(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	txnID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	txn, err := h.ledgerQuery.GetTransaction(c.Request.Context(), txnID)
	if err == nil && txn.UserID != userID {
		err = domainerr.NewNotFoundError("transaction", txnID.String(), domainerr.ErrTransactionNotFound)
	}
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// ListUserTransactions handles GET /users/:userId/transactions
func (h *TransactionHandler) ListUserTransactions(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	h.list(c, &userID)
}

// List handles GET /admin/transactions
func (h *TransactionHandler) List(c *gin.Context) {
	h.list(c, nil)
}

func (h *TransactionHandler) list(c *gin.Context, userID *uuid.UUID) {
	filter, ok := bindTransactionFilter(c)
	if !ok {
		return
	}
	filter.UserID = userID

	page, err := h.ledgerQuery.ListTransactions(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.PageResponse[dto.TransactionResponse]{
		Items: dto.NewTransactionResponses(page.Transactions),
		Total: page.Total,
		Page:  page.Page,
		Limit: page.Limit,
	})
}

// bindTransactionFilter reads the listing query; to is a calendar day and is
// widened to cover the whole of it
func bindTransactionFilter(c *gin.Context) (persistence.TransactionFilter, bool) {
	var q dto.TransactionQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.AbortWithBindError(c, err)
		return persistence.TransactionFilter{}, false
	}

	filter := persistence.TransactionFilter{
		PaymentMethod: entity.PaymentMethod(q.Method),
		From:          q.From,
		Page:          q.Page,
		Limit:         q.Limit,
	}
	if q.To != nil {
		to := q.To.AddDate(0, 0, 1)
		filter.To = &to
	}
	if q.Type != "" {
		filter.Types = []entity.TransactionType{entity.TransactionType(q.Type)}
	}
	if q.Status != "" {
		filter.Statuses = []entity.TransactionStatus{entity.TransactionStatus(q.Status)}
	}
	return filter, true
}

// Get handles GET /admin/transactions/:transactionId
func (h *TransactionHandler) Get(c *gin.Context) {
	txnID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	txn, err := h.ledgerQuery.GetTransaction(c.Request.Context(), txnID)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// GetByReference handles GET /admin/transactions/reference/:reference
func (h *TransactionHandler) GetByReference(c *gin.Context) {
	txn, err := h.ledgerQuery.GetTransactionByReference(c.Request.Context(), c.Param("reference"))
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// ListPending handles GET /admin/transactions/pending?type=deposit|withdrawal
func (h *TransactionHandler) ListPending(c *gin.Context) {
	txnType := entity.TransactionType(c.DefaultQuery("type", string(entity.TypeDeposit)))
	if txnType != entity.TypeDeposit && txnType != entity.TypeWithdrawal {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "type must be deposit or withdrawal",
			Field:   "type",
		})
		return
	}

	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 200 {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "limit must be between 1 and 200",
			Field:   "limit",
		})
		return
	}

	txns, err := h.ledgerQuery.ListPending(c.Request.Context(), txnType, limit)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponses(txns))
}

// Summary handles GET /admin/transactions/summary
func (h *TransactionHandler) Summary(c *gin.Context) {
	filter, ok := bindTransactionFilter(c)
	if !ok {
		return
	}

	aggs, err := h.ledgerQuery.Summarize(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAggregateResponses(aggs))
}

// Dashboard handles GET /admin/dashboard
func (h *TransactionHandler) Dashboard(c *gin.Context) {
	stats, err := h.ledgerQuery.Dashboard(c.Request.Context())
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewDashboardResponse(stats))
}
