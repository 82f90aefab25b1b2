package routes

import (
	"github.com/gin-gonic/gin"

	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/handler"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/middleware"
)

// Handlers groups the HTTP handlers mounted by SetupRoutes
type Handlers struct {
	Health      *handler.HealthHandler
	User        *handler.UserHandler
	Payment     *handler.PaymentHandler
	Investment  *handler.InvestmentHandler
	Catalog     *handler.CatalogHandler
	Transaction *handler.TransactionHandler
}

// SetupRoutes configures all the routes for the API
func SetupRoutes(router *gin.Engine, h Handlers) {
	router.GET("/health", h.Health.Check)

	api := router.Group("/api/v1")

	// Public routes
	api.POST("/users", h.User.Register)
	api.GET("/packages", h.Catalog.List)
	api.GET("/packages/:packageId", h.Catalog.Get)

	authed := api.Group("", middleware.Identity())

	userRoutes := authed.Group("/users/:userId", middleware.RequireSelfOrStaff("userId"))
	{
		userRoutes.GET("", h.User.Get)
		userRoutes.GET("/summary", h.User.Summary)
		userRoutes.PUT("/pin", h.User.SetPin)

		userRoutes.GET("/transactions", h.Transaction.ListUserTransactions)
		userRoutes.GET("/transactions/:transactionId", h.Transaction.GetUserTransaction)
		userRoutes.POST("/transactions/:transactionId/cancel", h.Payment.Cancel)

		userRoutes.POST("/deposits", h.Payment.CreateDeposit)
		userRoutes.POST("/withdrawals", h.Payment.CreateWithdrawal)

		userRoutes.POST("/purchases", h.Investment.Purchase)
		userRoutes.GET("/holdings", h.Investment.ListUserHoldings)
		userRoutes.GET("/holdings/:holdingId", h.Investment.GetHolding)
	}

	admin := authed.Group("/admin", middleware.RequireStaff())
	{
		admin.GET("/dashboard", h.Transaction.Dashboard)

		admin.GET("/users", h.User.List)
		admin.PATCH("/users/:userId/active", h.User.SetActive)
		admin.GET("/users/:userId/reconcile", h.User.Reconcile)

		admin.GET("/transactions", h.Transaction.List)
		admin.GET("/transactions/pending", h.Transaction.ListPending)
		admin.GET("/transactions/summary", h.Transaction.Summary)
		admin.GET("/transactions/reference/:reference", h.Transaction.GetByReference)
		admin.GET("/transactions/:transactionId", h.Transaction.Get)

		admin.POST("/deposits/:transactionId/verify", h.Payment.VerifyDeposit)
		admin.POST("/deposits/:transactionId/reject", h.Payment.RejectDeposit)
		admin.POST("/withdrawals/:transactionId/processing", h.Payment.MarkProcessing)
		admin.POST("/withdrawals/:transactionId/process", h.Payment.ProcessWithdrawal)
		admin.POST("/withdrawals/:transactionId/reject", h.Payment.RejectWithdrawal)

		admin.GET("/holdings", h.Investment.ListHoldings)
		admin.POST("/holdings/:holdingId/cancel", h.Investment.CancelHolding)
		admin.POST("/accruals", h.Investment.TriggerAccrual)

		admin.GET("/packages/stats", h.Catalog.Stats)
		admin.POST("/packages", h.Catalog.Create)
		admin.PUT("/packages/:packageId", h.Catalog.Update)
		admin.PATCH("/packages/:packageId/active", h.Catalog.SetActive)
		admin.DELETE("/packages/:packageId", h.Catalog.Delete)
	}
}

// SetupMiddlewares configures global middlewares for the API
func SetupMiddlewares(router *gin.Engine, logger coreport.Logger, timeProvider coreport.TimeProvider) {
	// Apply middlewares in the correct order
	router.Use(middleware.ErrorHandler(logger))
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(logger, timeProvider))
	router.Use(middleware.CORS())
}
