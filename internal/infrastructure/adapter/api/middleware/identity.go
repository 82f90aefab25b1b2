package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/amirhossein-jamali/investment-ledger/internal/domain/entity"
	domainerr "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
)

// Headers set by the authenticating gateway in front of the service
const (
	HeaderUserID    = "X-User-ID"
	HeaderUserRole  = "X-User-Role"
	HeaderRequestID = "X-Request-ID"
)

const (
	callerIDKey   = "caller_id"
	callerRoleKey = "caller_role"
)

// Identity reads the caller from the gateway headers. Requests without a
// valid caller are refused with 401.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(HeaderUserID))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Missing or invalid " + HeaderUserID + " header",
			})
			return
		}

		role := entity.Role(c.GetHeader(HeaderUserRole))
		if role == "" {
			role = entity.RoleUser
		}
		if !role.IsValid() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Invalid " + HeaderUserRole + " header",
			})
			return
		}

		c.Set(callerIDKey, id)
		c.Set(callerRoleKey, role)
		c.Next()
	}
}

// RequireStaff refuses callers that are not admins
func RequireStaff() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !CallerRole(c).IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Administrator access required",
			})
			return
		}
		c.Next()
	}
}

// RequireSelfOrStaff refuses callers acting on another user's :userId unless they are staff
func RequireSelfOrStaff(param string) gin.HandlerFunc {
	return func(c *gin.Context) {
		target, err := uuid.Parse(c.Param(param))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Invalid user ID format",
				Field:   param,
			})
			return
		}
		if target != CallerID(c) && !CallerRole(c).IsStaff() {
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{
				Code:    domainerr.CodeValidation,
				Message: "Access to another user's account is not allowed",
			})
			return
		}
		c.Next()
	}
}

// CallerID returns the authenticated caller
func CallerID(c *gin.Context) uuid.UUID {
	id, _ := c.Get(callerIDKey)
	callerID, _ := id.(uuid.UUID)
	return callerID
}

// CallerRole returns the authenticated caller's role
func CallerRole(c *gin.Context) entity.Role {
	role, _ := c.Get(callerRoleKey)
	callerRole, _ := role.(entity.Role)
	return callerRole
}
