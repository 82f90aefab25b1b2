package error

import (
	"errors"
	"fmt"
)

// Error codes for standardized API responses
const (
	// 4xxx - Client errors
	CodeValidation           = 4000
	CodeInsufficientBalance  = 4001
	CodeInvalidAmount        = 4002
	CodeLimitExceeded        = 4003
	CodeDuplicateReference   = 4004
	CodeConstraintViolation  = 4005
	CodeQuantityOutOfRange   = 4006
	CodePackageInactive      = 4007
	CodeUserInactive         = 4008
	CodeInvalidPin           = 4010
	CodePinNotSet            = 4011
	CodeNotFound             = 4040
	CodeUserNotFound         = 4041
	CodeTransactionNotFound  = 4042
	CodePackageNotFound      = 4043
	CodeHoldingNotFound      = 4044
	CodeInvalidTransition    = 4090
	CodeIdempotencyViolation = 4091
	CodeDuplicateUser        = 4092
	CodeDuplicatePackage     = 4093
	CodePackageInUse         = 4094
	CodeConcurrentUpdate     = 4095
	CodeUserLocked           = 4230

	// 5xxx - Server errors
	CodeInternalServer     = 5000
	CodeDatabaseConnection = 5001
)

// Error kinds. Every error returned by the use cases matches exactly one of these.
var (
	// ErrValidation is returned for bad input, insufficient funds and exceeded limits
	ErrValidation = errors.New("validation failed")

	// ErrInvalidTransition is returned for an illegal status change
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrNotFound is returned when a generic resource is not found
	ErrNotFound = errors.New("resource not found")

	// ErrIdempotencyViolation is returned for a duplicate completion attempt
	ErrIdempotencyViolation = errors.New("transaction already completed")
)

// Base error types
var (
	// ErrInsufficientBalance is returned when a user has insufficient funds for a debit
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInvalidAmount is returned when an amount is malformed or not positive
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrLimitExceeded is returned when an amount falls outside configured limits
	ErrLimitExceeded = errors.New("limit exceeded")

	// ErrInvalidPin is returned when the transaction PIN does not match
	ErrInvalidPin = errors.New("invalid transaction PIN")

	// ErrPinNotSet is returned when a PIN protected operation is attempted before a PIN exists
	ErrPinNotSet = errors.New("transaction PIN not set")

	// ErrPackageInactive is returned when purchasing a deactivated package
	ErrPackageInactive = errors.New("package is not available")

	// ErrQuantityOutOfRange is returned when a purchase quantity is outside the package limits
	ErrQuantityOutOfRange = errors.New("quantity out of range")

	// ErrUserInactive is returned when a deactivated user attempts a financial operation
	ErrUserInactive = errors.New("user account is deactivated")

	// ErrUserNotFound is returned when the requested user doesn't exist
	ErrUserNotFound = errors.New("user not found")

	// ErrTransactionNotFound is returned when the requested transaction doesn't exist
	ErrTransactionNotFound = errors.New("transaction not found")

	// ErrPackageNotFound is returned when the requested package doesn't exist
	ErrPackageNotFound = errors.New("package not found")

	// ErrHoldingNotFound is returned when the requested holding doesn't exist
	ErrHoldingNotFound = errors.New("holding not found")

	// ErrDuplicateReference is returned when a generated reference code collides
	ErrDuplicateReference = errors.New("transaction reference already exists")

	// ErrDuplicateUser is returned when trying to create a user that already exists
	ErrDuplicateUser = errors.New("user already exists")

	// ErrDuplicatePackage is returned when a package name is already taken
	ErrDuplicatePackage = errors.New("package name already exists")

	// ErrPackageInUse is returned when deleting a package that still has active holdings
	ErrPackageInUse = errors.New("package has active holdings")

	// ErrConcurrentUpdate is returned when a write lost a race and may be retried
	ErrConcurrentUpdate = errors.New("concurrent update detected")

	// ErrUserLocked is returned when a user is locked by another operation
	ErrUserLocked = errors.New("user is locked by another operation")

	// ErrConstraintViolation is returned when a database constraint is violated
	ErrConstraintViolation = errors.New("database constraint violation")

	// ErrDatabaseConnection is returned when there's a problem talking to the database
	ErrDatabaseConnection = errors.New("database connection error")

	// ErrInternalServer is returned for unexpected server-side errors
	ErrInternalServer = errors.New("internal server error")
)

// ErrorCode returns standardized error codes for known errors.
// Specific causes are checked before the generic kinds that wrap them.
func ErrorCode(err error) int {
	switch {
	case errors.Is(err, ErrInsufficientBalance):
		return CodeInsufficientBalance
	case errors.Is(err, ErrInvalidAmount):
		return CodeInvalidAmount
	case errors.Is(err, ErrLimitExceeded):
		return CodeLimitExceeded
	case errors.Is(err, ErrInvalidPin):
		return CodeInvalidPin
	case errors.Is(err, ErrPinNotSet):
		return CodePinNotSet
	case errors.Is(err, ErrPackageInactive):
		return CodePackageInactive
	case errors.Is(err, ErrQuantityOutOfRange):
		return CodeQuantityOutOfRange
	case errors.Is(err, ErrUserInactive):
		return CodeUserInactive
	case errors.Is(err, ErrUserNotFound):
		return CodeUserNotFound
	case errors.Is(err, ErrTransactionNotFound):
		return CodeTransactionNotFound
	case errors.Is(err, ErrPackageNotFound):
		return CodePackageNotFound
	case errors.Is(err, ErrHoldingNotFound):
		return CodeHoldingNotFound
	case errors.Is(err, ErrDuplicateReference):
		return CodeDuplicateReference
	case errors.Is(err, ErrDuplicateUser):
		return CodeDuplicateUser
	case errors.Is(err, ErrDuplicatePackage):
		return CodeDuplicatePackage
	case errors.Is(err, ErrPackageInUse):
		return CodePackageInUse
	case errors.Is(err, ErrConcurrentUpdate):
		return CodeConcurrentUpdate
	case errors.Is(err, ErrUserLocked):
		return CodeUserLocked
	case errors.Is(err, ErrConstraintViolation):
		return CodeConstraintViolation
	case errors.Is(err, ErrDatabaseConnection):
		return CodeDatabaseConnection
	case errors.Is(err, ErrIdempotencyViolation):
		return CodeIdempotencyViolation
	case errors.Is(err, ErrInvalidTransition):
		return CodeInvalidTransition
	case errors.Is(err, ErrNotFound):
		return CodeNotFound
	case errors.Is(err, ErrValidation):
		return CodeValidation
	default:
		return CodeInternalServer
	}
}

// ValidationError describes rejected input. It matches ErrValidation and unwraps to its cause.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

// Error implements the error interface for ValidationError
func (e *ValidationError) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", msg)
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, msg)
}

// Is reports whether target is the validation kind
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Unwrap returns the underlying cause
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *ValidationError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "validation_error",
		"field":      e.Field,
		"message":    e.Message,
		"error_code": ErrorCode(e),
	}
}

// NewValidationError creates a validation error for a field
func NewValidationError(field, message string, cause error) error {
	return &ValidationError{Field: field, Message: message, Err: cause}
}

// InvalidTransitionError reports an attempted status change that the state machine forbids
type InvalidTransitionError struct {
	Entity string
	ID     string
	From   string
	To     string
}

// Error implements the error interface
func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s cannot move from %s to %s", e.Entity, e.ID, e.From, e.To)
}

// Is checks if the target error is an ErrInvalidTransition
func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// LogFields returns a map of fields for structured logging
func (e *InvalidTransitionError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "invalid_transition",
		"entity":     e.Entity,
		"id":         e.ID,
		"from":       e.From,
		"to":         e.To,
		"error_code": CodeInvalidTransition,
	}
}

// NewInvalidTransitionError creates a new invalid transition error
func NewInvalidTransitionError(entity, id, from, to string) error {
	return &InvalidTransitionError{Entity: entity, ID: id, From: from, To: to}
}

// NotFoundError reports an unknown record. It matches ErrNotFound and unwraps to the specific sentinel.
type NotFoundError struct {
	Entity string
	ID     string
	Err    error
}

// Error implements the error interface
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// Is checks if the target error is an ErrNotFound
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Unwrap returns the specific sentinel
func (e *NotFoundError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *NotFoundError) LogFields() map[string]any {
	return map[string]any{
		"error_type": "not_found",
		"entity":     e.Entity,
		"id":         e.ID,
		"error_code": ErrorCode(e),
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(entity, id string, sentinel error) error {
	return &NotFoundError{Entity: entity, ID: id, Err: sentinel}
}

// IdempotencyViolationError reports a second attempt to complete the same transaction
type IdempotencyViolationError struct {
	TransactionID string
}

// Error implements the error interface
func (e *IdempotencyViolationError) Error() string {
	return fmt.Sprintf("transaction %s was already completed", e.TransactionID)
}

// Is checks if the target error is an ErrIdempotencyViolation
func (e *IdempotencyViolationError) Is(target error) bool {
	return target == ErrIdempotencyViolation
}

// LogFields returns a map of fields for structured logging
func (e *IdempotencyViolationError) LogFields() map[string]any {
	return map[string]any{
		"error_type":     "idempotency_violation",
		"transaction_id": e.TransactionID,
		"error_code":     CodeIdempotencyViolation,
	}
}

// NewIdempotencyViolationError creates a new idempotency violation error
func NewIdempotencyViolationError(transactionID string) error {
	return &IdempotencyViolationError{TransactionID: transactionID}
}

// ConcurrencyError wraps a storage conflict that lost a race
type ConcurrencyError struct {
	Operation string
	Err       error
}

// Error implements the error interface
func (e *ConcurrencyError) Error() string {
	return fmt.Sprintf("concurrent update during %s: %v", e.Operation, e.Err)
}

// Is checks if the target error is an ErrConcurrentUpdate
func (e *ConcurrencyError) Is(target error) bool {
	return target == ErrConcurrentUpdate
}

// Unwrap returns the underlying error
func (e *ConcurrencyError) Unwrap() error {
	return e.Err
}

// LogFields returns a map of fields for structured logging
func (e *ConcurrencyError) LogFields() map[string]any {
	fields := map[string]any{
		"error_type": "concurrency_error",
		"operation":  e.Operation,
		"error_code": CodeConcurrentUpdate,
	}
	if e.Err != nil {
		fields["error"] = e.Err.Error()
	}
	return fields
}

// NewConcurrencyError creates a new concurrency error
func NewConcurrencyError(operation string, err error) error {
	return &ConcurrencyError{Operation: operation, Err: err}
}

// IsValidationError checks if the error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsNotFoundError checks if the error is a not found error
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvalidTransitionError checks if the error is an invalid transition error
func IsInvalidTransitionError(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsIdempotencyViolation checks if the error is a duplicate completion
func IsIdempotencyViolation(err error) bool {
	return errors.Is(err, ErrIdempotencyViolation)
}

// IsRetryable reports whether the operation may be retried as a whole
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentUpdate)
}

// LogFields extracts structured fields from err when it carries them
func LogFields(err error) map[string]any {
	var lf interface{ LogFields() map[string]any }
	if errors.As(err, &lf) {
		return lf.LogFields()
	}
	return map[string]any{"error": err.Error(), "error_code": ErrorCode(err)}
}
