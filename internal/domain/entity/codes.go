package entity

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"time"
)

const referralAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// randIntN is swapped in tests to make generated codes deterministic
var randIntN = rand.IntN

// lastDigits returns the last n digits of the unix millisecond timestamp
func lastDigits(now time.Time, n int) string {
	ms := fmt.Sprintf("%d", now.UnixMilli())
	if len(ms) <= n {
		return ms
	}
	return ms[len(ms)-n:]
}

// GenerateReference builds a transaction reference code such as TXN123456781234.
// Uniqueness is enforced by the store; callers retry on collision.
func GenerateReference(now time.Time) string {
	return fmt.Sprintf("TXN%s%d", lastDigits(now, 8), 1000+randIntN(9000))
}

// GenerateAccountNumber builds a customer account number such as SB1234567812
func GenerateAccountNumber(now time.Time) string {
	return fmt.Sprintf("SB%s%02d", lastDigits(now, 8), randIntN(100))
}

// GenerateReferralCode builds an 8 character shareable referral code
func GenerateReferralCode() string {
	var b strings.Builder
	for range 8 {
		b.WriteByte(referralAlphabet[randIntN(len(referralAlphabet))])
	}
	return b.String()
}
