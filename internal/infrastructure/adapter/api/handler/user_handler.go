package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/persistence"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/usecase"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/middleware"
)

// UserHandler handles account HTTP requests
type UserHandler struct {
	userUseCase usecase.UserUseCase
	logger      coreport.Logger
}

// NewUserHandler creates a new user handler instance
func NewUserHandler(userUseCase usecase.UserUseCase, logger coreport.Logger) *UserHandler {
	return &UserHandler{
		userUseCase: userUseCase,
		logger:      logger,
	}
}

// Register handles POST /users
func (h *UserHandler) Register(c *gin.Context) {
	var req dto.RegisterUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	// only staff may hand out elevated roles
	role := entity.Role(req.Role)
	if role != "" && role != entity.RoleUser && !middleware.CallerRole(c).IsStaff() {
		role = entity.RoleUser
	}

	user, err := h.userUseCase.RegisterUser(c.Request.Context(), usecase.RegisterUserRequest{
		FullName:     req.FullName,
		Phone:        req.Phone,
		Email:        req.Email,
		Role:         role,
		ReferralCode: req.ReferralCode,
		Pin:          req.Pin,
	})
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewUserResponse(user))
}

// Get handles GET /users/:userId
func (h *UserHandler) Get(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	user, err := h.userUseCase.GetUser(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// Summary handles GET /users/:userId/summary
func (h *UserHandler) Summary(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	summary, err := h.userUseCase.GetFinancialSummary(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewSummaryResponse(summary))
}

// SetPin handles PUT /users/:userId/pin
func (h *UserHandler) SetPin(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.SetPinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	if err := h.userUseCase.SetPin(c.Request.Context(), userID, req.Pin); err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// List handles GET /admin/users
func (h *UserHandler) List(c *gin.Context) {
	var q dto.UserQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	filter := persistence.UserFilter{
		Role:     entity.Role(q.Role),
		IsActive: q.Active,
		Search:   q.Search,
		Page:     max(q.Page, 1),
		Limit:    q.Limit,
	}
	if filter.Limit == 0 {
		filter.Limit = 20
	}

	users, total, err := h.userUseCase.ListUsers(c.Request.Context(), filter)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	items := make([]dto.UserResponse, 0, len(users))
	for _, u := range users {
		items = append(items, dto.NewUserResponse(u))
	}
	c.JSON(http.StatusOK, dto.PageResponse[dto.UserResponse]{
		Items: items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	})
}

// SetActive handles PATCH /admin/users/:userId/active
func (h *UserHandler) SetActive(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	var req dto.SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.AbortWithBindError(c, err)
		return
	}

	user, err := h.userUseCase.SetActive(c.Request.Context(), userID, *req.Active)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	h.logger.Info("User activation changed", map[string]any{
		"user_id":  userID.String(),
		"active":   user.IsActive,
		"admin_id": middleware.CallerID(c).String(),
	})
	c.JSON(http.StatusOK, dto.NewUserResponse(user))
}

// Reconcile handles GET /admin/users/:userId/reconcile
func (h *UserHandler) Reconcile(c *gin.Context) {
	userID, ok := pathID(c, "userId")
	if !ok {
		return
	}

	result, err := h.userUseCase.ReconcileBalance(c.Request.Context(), userID)
	if err != nil {
		middleware.AbortWithError(c, h.logger, err)
		return
	}

	if !result.Balanced {
		h.logger.Warn("Balance mismatch found by reconciliation", map[string]any{
			"user_id":  userID.String(),
			"stored":   result.Stored.String(),
			"computed": result.Computed.String(),
		})
	}
	c.JSON(http.StatusOK, dto.NewReconciliationResponse(result))
}
