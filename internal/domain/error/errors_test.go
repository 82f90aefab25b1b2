package error

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorCode(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected int
	}{
		{"InsufficientBalance", ErrInsufficientBalance, CodeInsufficientBalance},
		{"InvalidAmount", ErrInvalidAmount, CodeInvalidAmount},
		{"LimitExceeded", ErrLimitExceeded, CodeLimitExceeded},
		{"UserNotFound", ErrUserNotFound, CodeUserNotFound},
		{"UserLocked", ErrUserLocked, CodeUserLocked},
		{"UnknownError", errors.New("unknown error"), CodeInternalServer},
		{"WrappedError", fmt.Errorf("wrapped: %w", ErrInvalidPin), CodeInvalidPin},
		{"ValidationWithCause", NewValidationError("amount", "below minimum", ErrLimitExceeded), CodeLimitExceeded},
		{"ValidationWithoutCause", NewValidationError("name", "required", nil), CodeValidation},
		{"NotFoundWithSentinel", NewNotFoundError("package", "p1", ErrPackageNotFound), CodePackageNotFound},
		{"InvalidTransition", NewInvalidTransitionError("transaction", "t1", "completed", "rejected"), CodeInvalidTransition},
		{"IdempotencyViolation", NewIdempotencyViolationError("t1"), CodeIdempotencyViolation},
		{"Concurrency", NewConcurrencyError("update user", errors.New("version mismatch")), CodeConcurrentUpdate},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, ErrorCode(tc.err))
		})
	}
}

func TestValidationError(t *testing.T) {
	err := NewValidationError("amount", "amount must be at least 500", ErrLimitExceeded)

	assert.Equal(t, "validation failed on amount: amount must be at least 500", err.Error())
	assert.True(t, errors.Is(err, ErrValidation))
	assert.True(t, errors.Is(err, ErrLimitExceeded))
	assert.False(t, errors.Is(err, ErrNotFound))
	assert.True(t, IsValidationError(fmt.Errorf("outer: %w", err)))

	var ve *ValidationError
	assert.True(t, errors.As(err, &ve))
	assert.Equal(t, "amount", ve.LogFields()["field"])
}

func TestValidationErrorFallsBackToCauseMessage(t *testing.T) {
	err := NewValidationError("", "", ErrInsufficientBalance)
	assert.Equal(t, "validation failed: insufficient balance", err.Error())
}

func TestNotFoundError(t *testing.T) {
	err := NewNotFoundError("user", "42", ErrUserNotFound)

	assert.Equal(t, "user 42 not found", err.Error())
	assert.True(t, IsNotFoundError(err))
	assert.True(t, errors.Is(err, ErrUserNotFound))
	assert.False(t, errors.Is(err, ErrPackageNotFound))
}

func TestInvalidTransitionError(t *testing.T) {
	err := NewInvalidTransitionError("transaction", "abc", "rejected", "completed")

	assert.Equal(t, "transaction abc cannot move from rejected to completed", err.Error())
	assert.True(t, IsInvalidTransitionError(err))
	assert.False(t, IsValidationError(err))

	fields := LogFields(err)
	assert.Equal(t, "invalid_transition", fields["error_type"])
	assert.Equal(t, "rejected", fields["from"])
}

func TestIdempotencyViolationError(t *testing.T) {
	err := fmt.Errorf("complete: %w", NewIdempotencyViolationError("tx-1"))

	assert.True(t, IsIdempotencyViolation(err))
	assert.Contains(t, err.Error(), "tx-1")
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(NewConcurrencyError("commit", errors.New("serialization failure"))))
	assert.True(t, IsRetryable(fmt.Errorf("%w: row changed", ErrConcurrentUpdate)))
	assert.False(t, IsRetryable(ErrInsufficientBalance))
}

func TestLogFieldsPlainError(t *testing.T) {
	fields := LogFields(ErrDatabaseConnection)
	assert.Equal(t, CodeDatabaseConnection, fields["error_code"])
	assert.Equal(t, "database connection error", fields["error"])
}
