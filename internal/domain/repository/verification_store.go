package repository

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// Verification store outcomes. NotFound deliberately covers both "never
// issued" and "already redeemed" so a caller cannot probe whether an
// identifier ever requested a code.
var (
	ErrCodeNotFound = errors.New("verification code not found")
	ErrCodeExpired  = errors.New("verification code expired")
	ErrCodeMismatch = errors.New("verification code mismatch")
)

// codeDigits is the fixed length of generated codes.
const codeDigits = 6

// VerificationCodeStore issues and redeems short-lived one-time codes keyed
// by an identifier (in practice an email address, namespaced by purpose).
// At most one live code exists per identifier; issuing again overwrites it.
type VerificationCodeStore interface {
	// Issue generates a fresh code, stores it with the given TTL (replacing
	// any previous entry for the identifier) and returns it. The caller is
	// responsible for delivering the code; it must never be echoed back to
	// the end user through the API.
	Issue(ctx context.Context, identifier string, ttl time.Duration) (string, error)

	// Redeem is a consuming read: on a match the entry is deleted and nil is
	// returned. An expired entry is deleted and reported as ErrCodeExpired.
	// A mismatch leaves the entry intact (ErrCodeMismatch), a missing entry
	// is ErrCodeNotFound.
	Redeem(ctx context.Context, identifier, code string) error

	// DeleteExpired removes entries whose deadline has passed and reports how
	// many were dropped. Expiry is otherwise only observed lazily at Redeem,
	// so abandoned entries accumulate without a periodic sweep.
	DeleteExpired(ctx context.Context) (int, error)
}

// GenerateCode draws a zero-padded numeric code uniformly from the full
// digit space (000000-999999 for six digits).
func GenerateCode() (string, error) {
	max := big.NewInt(1)
	for i := 0; i < codeDigits; i++ {
		max.Mul(max, big.NewInt(10))
	}
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%0*d", codeDigits, n.Int64()), nil
}
