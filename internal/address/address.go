// Package address validates Solana account addresses.
package address

import (
	"fmt"
	"strings"

	"github.com/mr-tron/base58"

	"solana-swap-gateway/internal/apperr"
)

// Bounds of a base58-encoded 32-byte key.
const (
	MinLength = 32
	MaxLength = 44
)

// Validate checks that candidate is a base58 string of 32 to 44 characters
// and returns it with surrounding whitespace removed.
func Validate(candidate string) (string, error) {
	s := strings.TrimSpace(candidate)
	if s == "" {
		return "", fmt.Errorf("%w: empty", apperr.ErrInvalidAddress)
	}
	if len(s) < MinLength || len(s) > MaxLength {
		return "", fmt.Errorf("%w: length %d outside %d..%d", apperr.ErrInvalidAddress, len(s), MinLength, MaxLength)
	}
	// The decoder rejects any character outside the bitcoin alphabet (0, O, I and l included).
	if _, err := base58.Decode(s); err != nil {
		return "", fmt.Errorf("%w: %q is not base58", apperr.ErrInvalidAddress, s)
	}
	return s, nil
}

// IsValid reports whether candidate passes Validate.
func IsValid(candidate string) bool {
	_, err := Validate(candidate)
	return err == nil
}
