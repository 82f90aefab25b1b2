package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerr "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/api/dto"
	"github.com/amirhossein-jamali/investment-ledger/internal/infrastructure/adapter/logger"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"wrong pin", domainerr.NewValidationError("pin", "PIN does not match", domainerr.ErrInvalidPin), http.StatusUnauthorized},
		{"not found", domainerr.NewNotFoundError("user", "42", domainerr.ErrUserNotFound), http.StatusNotFound},
		{"insufficient balance", fmt.Errorf("debit: %w", domainerr.ErrInsufficientBalance), http.StatusUnprocessableEntity},
		{"validation", domainerr.NewValidationError("amount", "too small", nil), http.StatusBadRequest},
		{"invalid amount", domainerr.ErrInvalidAmount, http.StatusBadRequest},
		{"transition", domainerr.NewInvalidTransitionError("transaction", "1", "rejected", "completed"), http.StatusConflict},
		{"idempotency", domainerr.NewIdempotencyViolationError("1"), http.StatusConflict},
		{"locked", domainerr.ErrUserLocked, http.StatusConflict},
		{"unknown", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatus(tt.err))
		})
	}
}

func TestAbortWithError(t *testing.T) {
	gin.SetMode(gin.TestMode)

	serve := func(err error) (*httptest.ResponseRecorder, dto.ErrorResponse) {
		router := gin.New()
		router.GET("/x", func(c *gin.Context) { AbortWithError(c, logger.NewNoopLogger(), err) })

		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))

		var resp dto.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		return w, resp
	}

	t.Run("validation error carries its field", func(t *testing.T) {
		w, resp := serve(domainerr.NewValidationError("amount", "amount must be at least 100", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "amount", resp.Field)
		assert.Equal(t, domainerr.CodeValidation, resp.Code)
	})

	t.Run("server error details are hidden", func(t *testing.T) {
		w, resp := serve(errors.New("dial tcp 10.0.0.3:5432: connection refused"))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "Internal server error", resp.Message)
	})
}
