package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// otpCodeMin and otpCodeMax bound the 6-digit code space. The leading digit
// is non-zero by construction, so codes never need zero-padding.
const (
	otpCodeMin = 100000
	otpCodeMax = 999999
)

// generateOTPCode creates a 6-digit numeric code drawn uniformly from
// [100000, 999999] using a cryptographically secure source.
func generateOTPCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(otpCodeMax-otpCodeMin+1))
	if err != nil {
		return "", fmt.Errorf("failed to generate otp code: %w", err)
	}

	return fmt.Sprintf("%d", n.Int64()+otpCodeMin), nil
}
