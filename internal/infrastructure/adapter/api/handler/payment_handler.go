package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/middleware"
)

// PaymentHandler handles deposit and withdrawal HTTP requests
type PaymentHandler struct {
	paymentUseCase usecase.PaymentUseCase
	logger         coreport.Logger
}

// NewPaymentHandler creates a new payment handler instance
func NewPaymentHandler(paymentUseCase usecase.PaymentUseCase, logger coreport.Logger) *PaymentHandler {
	return &PaymentHandler{
		paymentUseCase: paymentUseCase,
		logger:         logger,
	}
}

// bindPayment reads the path user and the payment body
func (h *PaymentHandler) bindPayment(c *gin.Context) (uuid.UUID, dto.PaymentRequest, decimal.Decimal, bool) {
	var req dto.PaymentRequest

	userID, ok := pathID(c, "userId")
	if !ok {
		return uuid.Nil, req, decimal.Zero, false
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return uuid.Nil, req, decimal.Zero, false
	}
	amount, err := entity.ParseAmount(req.Amount)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return uuid.Nil, req, decimal.Zero, false
	}
	return userID, req, amount, true
}

// CreateDeposit handles POST /users/:userId/deposits
func (h *PaymentHandler) CreateDeposit(c *gin.Context) {
	userID, req, amount, ok := h.bindPayment(c)
	if !ok {
		return
	}

	txn, err := h.paymentUseCase.CreateDeposit(c.Request.Context(), usecase.DepositRequest{
		UserID:         userID,
		Amount:         amount,
		Method:         entity.PaymentMethod(req.Method),
		PaymentDetails: req.PaymentDetails,
		Description:    req.Description,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTransactionResponse(txn))
}

// CreateWithdrawal handles POST /users/:userId/withdrawals
func (h *PaymentHandler) CreateWithdrawal(c *gin.Context) {
	userID, req, amount, ok := h.bindPayment(c)
	if !ok {
		return
	}

	txn, err := h.paymentUseCase.CreateWithdrawal(c.Request.Context(), usecase.WithdrawalRequest{
		UserID:         userID,
		Amount:         amount,
		Method:         entity.PaymentMethod(req.Method),
		PaymentDetails: req.PaymentDetails,
		Description:    req.Description,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewTransactionResponse(txn))
}

// Cancel handles POST /users/:userId/transactions/:transactionId/cancel
func (h *PaymentHandler) Cancel(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}
	txnID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	txn, err := h.paymentUseCase.CancelTransaction(c.Request.Context(), txnID, userID)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// VerifyDeposit handles POST /admin/deposits/:transactionId/verify
func (h *PaymentHandler) VerifyDeposit(c *gin.Context) {
	txnID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	txn, err := h.paymentUseCase.VerifyDeposit(c.Request.Context(), usecase.VerifyDepositRequest{
		TransactionID:        txnID,
		AdminID:              middleware.CallerID(c),
		Notes:                req.Notes,
		GatewayTransactionID: req.GatewayTransactionID,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// RejectDeposit handles POST /admin/deposits/:transactionId/reject
func (h *PaymentHandler) RejectDeposit(c *gin.Context) {
	h.reject(c, h.paymentUseCase.RejectDeposit)
}

// RejectWithdrawal handles POST /admin/withdrawals/:transactionId/reject
func (h *PaymentHandler) RejectWithdrawal(c *gin.Context) {
	h.reject(c, h.paymentUseCase.RejectWithdrawal)
}

func (h *PaymentHandler) reject(c *gin.Context, fn func(ctx context.Context, req usecase.RejectRequest) (*entity.Transaction, error)) {
	txnID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	var req dto.RejectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	txn, err := fn(c.Request.Context(), usecase.RejectRequest{
		TransactionID: txnID,
		AdminID:       middleware.CallerID(c),
		Reason:        req.Reason,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// MarkProcessing handles POST /admin/withdrawals/:transactionId/processing
func (h *PaymentHandler) MarkProcessing(c *gin.Context) {
	txnID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	txn, err := h.paymentUseCase.MarkWithdrawalProcessing(c.Request.Context(), txnID, middleware.CallerID(c))
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}

// ProcessWithdrawal handles POST /admin/withdrawals/:transactionId/process.
// The Idempotency-Key header makes client retries safe.
func (h *PaymentHandler) ProcessWithdrawal(c *gin.Context) {
	txnID, ok := pathID(c, "transactionId")
	if !ok {
		return
	}

	var req dto.ReviewRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	txn, err := h.paymentUseCase.ProcessWithdrawal(c.Request.Context(), usecase.ProcessWithdrawalRequest{
		TransactionID:  txnID,
		AdminID:        middleware.CallerID(c),
		Notes:          req.Notes,
		IdempotencyKey: idempotencyKey(c),
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewTransactionResponse(txn))
}
