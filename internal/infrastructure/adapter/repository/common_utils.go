package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
)

// ErrorType represents the type of database error that occurred
type ErrorType string

const (
	DuplicateKeyError ErrorType = "duplicate_key"
	TransientError    ErrorType = "transient"
	LockError         ErrorType = "lock"
	ConnectionError   ErrorType = "connection"
	ConstraintError   ErrorType = "constraint"
	NotFoundError     ErrorType = "not_found"
)

// ErrorClassifier provides methods to classify database errors
type ErrorClassifier struct{}

// NewErrorClassifier creates a new ErrorClassifier
func NewErrorClassifier() *ErrorClassifier {
	return &ErrorClassifier{}
}

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// ConstraintName returns the violated constraint name, if the driver reported one
func (c *ErrorClassifier) ConstraintName(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName
	}
	return ""
}

// Classify returns the type of error
func (c *ErrorClassifier) Classify(err error) ErrorType {
	if err == nil {
		return ""
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NotFoundError
	}
	if c.IsDuplicateKeyError(err) {
		return DuplicateKeyError
	}
	if c.IsLockError(err) {
		return LockError
	}
	if c.IsConnectionError(err) {
		return ConnectionError
	}
	if c.IsConstraintError(err) {
		return ConstraintError
	}
	if c.IsTransientError(err) {
		return TransientError
	}

	return ""
}

// IsDuplicateKeyError checks if the error is a duplicate key error
func (c *ErrorClassifier) IsDuplicateKeyError(err error) bool {
	if err == nil {
		return false
	}
	if code := pgCode(err); code != "" {
		return code == pgerrcode.UniqueViolation
	}
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "duplicate key") ||
		strings.Contains(err.Error(), "UNIQUE constraint")
}

// IsTransientError checks if an error is transient and can be retried
func (c *ErrorClassifier) IsTransientError(err error) bool {
	if err == nil {
		return false
	}
	if code := pgCode(err); code != "" {
		return pgerrcode.IsConnectionException(code) ||
			code == pgerrcode.AdminShutdown ||
			code == pgerrcode.CannotConnectNow ||
			code == pgerrcode.TooManyConnections
	}
	return strings.Contains(err.Error(), "connection reset") ||
		strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "timeout") ||
		strings.Contains(err.Error(), "EOF") ||
		strings.Contains(err.Error(), "server closed") ||
		strings.Contains(err.Error(), "broken pipe")
}

// IsLockError checks if the error is due to locking or serialization conflicts
func (c *ErrorClassifier) IsLockError(err error) bool {
	if err == nil {
		return false
	}
	switch pgCode(err) {
	case pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected, pgerrcode.LockNotAvailable:
		return true
	case "":
	default:
		return false
	}
	return strings.Contains(err.Error(), "deadlock") ||
		strings.Contains(err.Error(), "could not serialize access") ||
		strings.Contains(err.Error(), "could not obtain lock")
}

// IsConnectionError checks if the error is related to database connectivity
func (c *ErrorClassifier) IsConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if code := pgCode(err); code != "" {
		return pgerrcode.IsConnectionException(code)
	}
	return strings.Contains(err.Error(), "dial") ||
		strings.Contains(err.Error(), "network") ||
		c.IsTransientError(err)
}

// IsConstraintError checks if the error is related to constraint violations
func (c *ErrorClassifier) IsConstraintError(err error) bool {
	if err == nil {
		return false
	}
	if code := pgCode(err); code != "" {
		return pgerrcode.IsIntegrityConstraintViolation(code)
	}
	return strings.Contains(err.Error(), "violates") ||
		strings.Contains(err.Error(), "foreign key")
}

// Translate maps a driver error onto the domain error vocabulary.
// notFound is returned for missing rows, duplicate for unique violations.
func (c *ErrorClassifier) Translate(operation string, err error, notFound, duplicate error) error {
	switch c.Classify(err) {
	case "":
		return fmt.Errorf("%s: %w", operation, err)
	case NotFoundError:
		if notFound != nil {
			return notFound
		}
		return fmt.Errorf("%s: %w", operation, err)
	case DuplicateKeyError:
		if duplicate != nil {
			return duplicate
		}
		return fmt.Errorf("%w: %s: %s", errs.ErrConstraintViolation, operation, err.Error())
	case LockError:
		return errs.NewConcurrencyError(operation, err)
	case ConstraintError:
		return fmt.Errorf("%w: %s: %s", errs.ErrConstraintViolation, operation, err.Error())
	default:
		return fmt.Errorf("%w: %s: %s", errs.ErrDatabaseConnection, operation, err.Error())
	}
}
