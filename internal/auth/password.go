package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// defaultCost is the bcrypt work factor used by `contentctl hash-password`.
const defaultCost = 12

// PasswordService hashes and checks the admin secret.
//
// ADMIN_PASSWORD may hold either the secret itself or a bcrypt hash of it
// (see Matches). The cost is a field so tests can use bcrypt.MinCost.
type PasswordService struct {
	cost int
}

// NewPasswordService creates a PasswordService with the default cost (12).
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: defaultCost}
}

// newPasswordServiceWithCost is used by the tests in this package.
func newPasswordServiceWithCost(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// NewPasswordServiceForTest creates a PasswordService with a low cost for
// tests in other packages. Do NOT use in production.
func NewPasswordServiceForTest(cost int) *PasswordService {
	return &PasswordService{cost: cost}
}

// Hash hashes plaintext with bcrypt. Inputs over 72 bytes are rejected
// because bcrypt would silently truncate them.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > 72 {
		return "", fmt.Errorf("auth: password must be 72 bytes or fewer")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks plaintext against a bcrypt hash. nil means a match.
func (p *PasswordService) Verify(hash, plaintext string) error {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	if err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return fmt.Errorf("auth: invalid password")
		}
		return fmt.Errorf("auth: comparing password hash: %w", err)
	}
	return nil
}

// Matches reports whether submitted is the configured admin secret.
//
// A configured value that looks like a bcrypt hash ($2a$, $2b$, $2y$) is
// checked with bcrypt. Anything else is compared in constant time; both
// sides are hashed first so their lengths don't leak through timing.
func (p *PasswordService) Matches(configured, submitted string) bool {
	if configured == "" || submitted == "" {
		return false
	}
	if IsBcryptHash(configured) {
		return p.Verify(configured, submitted) == nil
	}
	a := sha256.Sum256([]byte(configured))
	b := sha256.Sum256([]byte(submitted))
	return subtle.ConstantTimeCompare(a[:], b[:]) == 1
}

// IsBcryptHash reports whether s has the shape of a bcrypt hash.
func IsBcryptHash(s string) bool {
	if len(s) != 60 {
		return false
	}
	for _, prefix := range []string{"$2a$", "$2b$", "$2y$"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}
