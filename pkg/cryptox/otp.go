package cryptox

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// OTPDigits is the length of password-reset codes.
const OTPDigits = 6

// GenerateOTP returns a uniformly random 6-digit reset code. Codes are drawn
// from the full 100000-999999 range so they never carry a leading zero and
// are always exactly six digits.
func GenerateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("cryptox: failed to generate reset code: %w", err)
	}
	return fmt.Sprintf("%d", 100000+n.Int64()), nil
}
