package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/google/uuid"

	domainerr "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
)

// pathID parses a uuid path parameter, answering 400 when it is malformed
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
			Code:    domainerr.CodeValidation,
			Message: "Invalid " + name + " format",
			Field:   name,
		})
		return uuid.Nil, false
	}
	return id, true
}

// idempotencyKey returns the Idempotency-Key header, trimmed
func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("Idempotency-Key"))
}

// bindOptionalJSON binds a body that callers may leave out entirely
func bindOptionalJSON(c *gin.Context, obj any) error {
	if c.Request.ContentLength == 0 {
		return binding.Validator.ValidateStruct(obj)
	}
	return c.ShouldBindJSON(obj)
}
