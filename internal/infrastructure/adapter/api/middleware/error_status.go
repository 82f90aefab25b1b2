package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainerr "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	coreport "github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
)

// HTTPStatus maps a domain error to its response status
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, domainerr.ErrInvalidPin):
		return http.StatusUnauthorized
	case domainerr.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.Is(err, domainerr.ErrInsufficientBalance),
		errors.Is(err, domainerr.ErrLimitExceeded),
		errors.Is(err, domainerr.ErrQuantityOutOfRange),
		errors.Is(err, domainerr.ErrPackageInactive),
		errors.Is(err, domainerr.ErrUserInactive),
		errors.Is(err, domainerr.ErrPinNotSet):
		return http.StatusUnprocessableEntity
	case domainerr.IsValidationError(err), errors.Is(err, domainerr.ErrInvalidAmount):
		return http.StatusBadRequest
	case domainerr.IsInvalidTransitionError(err),
		domainerr.IsIdempotencyViolation(err),
		errors.Is(err, domainerr.ErrDuplicateUser),
		errors.Is(err, domainerr.ErrDuplicatePackage),
		errors.Is(err, domainerr.ErrDuplicateReference),
		errors.Is(err, domainerr.ErrPackageInUse),
		errors.Is(err, domainerr.ErrConcurrentUpdate),
		errors.Is(err, domainerr.ErrUserLocked),
		errors.Is(err, domainerr.ErrConstraintViolation):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// AbortWithError writes the standard error body for err. Server errors are
// logged and their details hidden from the client.
func AbortWithError(c *gin.Context, logger coreport.Logger, err error) {
	status := HTTPStatus(err)

	fields := domainerr.LogFields(err)
	fields["path"] = c.FullPath()
	fields["method"] = c.Request.Method
	fields["request_id"] = c.GetHeader(HeaderRequestID)

	resp := dto.ErrorResponse{Code: domainerr.ErrorCode(err), Message: err.Error()}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("Request failed", fields)
		resp.Message = "Internal server error"
	case domainerr.IsInvalidTransitionError(err):
		logger.Warn("Invalid status transition requested", fields)
	default:
		logger.Debug("Request refused", fields)
	}

	var validation *domainerr.ValidationError
	if errors.As(err, &validation) {
		resp.Field = validation.Field
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, resp)
}

// AbortWithBindError answers a request whose body or query failed to bind
func AbortWithBindError(c *gin.Context, err error) {
	_ = c.Error(err).SetType(gin.ErrorTypeBind)
	c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
		Code:    domainerr.CodeValidation,
		Message: "Invalid request format: " + err.Error(),
	})
}
