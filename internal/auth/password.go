package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/crypto/argon2"

	"github.com/crudkit/identity/pkg/errors"
)

// PasswordHasher hashes and verifies passwords with argon2id. Parameters are
// embedded in the encoded hash so they can be tuned without invalidating
// existing credentials.
type PasswordHasher struct {
	time    uint32
	memory  uint32
	threads uint8
	keyLen  uint32
	saltLen uint32
}

// NewPasswordHasher returns a hasher with the default argon2id parameters
// (64 MiB, 3 iterations, 2 lanes).
func NewPasswordHasher() *PasswordHasher {
	return &PasswordHasher{
		time:    3,
		memory:  64 * 1024,
		threads: 2,
		keyLen:  32,
		saltLen: 16,
	}
}

// Hash derives an argon2id hash of password and returns it in the encoded
// form "$argon2id$v=19$t=..,m=..,p=..$salt$hash" with base64 raw encoding.
func (h *PasswordHasher) Hash(password string) (string, error) {
	salt := make([]byte, h.saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key := argon2.IDKey([]byte(password), salt, h.time, h.memory, h.threads, h.keyLen)

	encoded := fmt.Sprintf("$argon2id$v=%d$t=%d,m=%d,p=%d$%s$%s",
		argon2.Version, h.time, h.memory, h.threads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	)
	return encoded, nil
}

// Verify reports whether password matches the encoded hash. A malformed or
// unrecognized hash verifies as false, never as an error: callers treat any
// mismatch identically.
func (h *PasswordHasher) Verify(password, encoded string) bool {
	parts := strings.Split(encoded, "$")
	if len(parts) != 6 || parts[1] != "argon2id" {
		return false
	}

	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil || version != argon2.Version {
		return false
	}

	var t, m uint32
	var p uint8
	if _, err := fmt.Sscanf(parts[3], "t=%d,m=%d,p=%d", &t, &m, &p); err != nil {
		return false
	}

	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false
	}

	got := argon2.IDKey([]byte(password), salt, t, m, p, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1
}

// ValidateStrength checks password against the registration rules in order
// and returns an InvalidInput error describing the first rule that fails.
func ValidateStrength(password string) error {
	if len(password) < 8 {
		return errors.InvalidInput("password must be at least 8 characters long")
	}
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}
	if !hasUpper {
		return errors.InvalidInput("password must contain an uppercase letter")
	}
	if !hasLower {
		return errors.InvalidInput("password must contain a lowercase letter")
	}
	if !hasDigit {
		return errors.InvalidInput("password must contain a digit")
	}
	if !hasSpecial {
		return errors.InvalidInput("password must contain a special character")
	}
	return nil
}

// GenerateResetToken returns a random hex string of 2*byteLen characters,
// suitable for single-use password reset links.
func GenerateResetToken(byteLen int) (string, error) {
	buf := make([]byte, byteLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating reset token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
