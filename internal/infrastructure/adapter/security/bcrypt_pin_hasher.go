package security

import (
	"errors"
	"fmt"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	errs "github.com/amirhossein-jamali/investment-ledger/internal/domain/error"
	"github.com/amirhossein-jamali/investment-ledger/internal/domain/port/core"
)

var pinPattern = regexp.MustCompile(`^\d{4,6}$`)

// BcryptPinHasher implements core.PinHasher with bcrypt
type BcryptPinHasher struct {
	cost int
}

// NewBcryptPinHasher creates a hasher; a cost outside bcrypt's range falls back to the default
func NewBcryptPinHasher(cost int) core.PinHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPinHasher{cost: cost}
}

// Hash returns the bcrypt hash of a 4 to 6 digit PIN
func (h *BcryptPinHasher) Hash(pin string) (string, error) {
	if !pinPattern.MatchString(pin) {
		return "", errs.NewValidationError("pin", "PIN must be 4 to 6 digits", nil)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pin), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash pin: %w", err)
	}
	return string(hash), nil
}

// Compare returns ErrInvalidPin when pin does not match hash
func (h *BcryptPinHasher) Compare(hash, pin string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(pin))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return errs.ErrInvalidPin
	}
	return err
}
