// Package service generates and verifies numeric OTP codes. Codes are hashed
// with Argon2id before storage; the plaintext only travels to the signer over
// their chosen channel.
package service

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/allisson/go-pwdhash"

	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// CodeService generates, hashes and verifies OTP codes.
type CodeService interface {
	// Generate returns a new numeric code and its storage hash.
	Generate() (code string, hash string, err error)
	// Verify reports whether the code matches the stored hash.
	Verify(code string, hash string) bool
}

type codeService struct {
	hasher *pwdhash.PasswordHasher
	length int
}

// Generate returns a uniformly random numeric code of the configured length.
func (c *codeService) Generate() (string, string, error) {
	var sb strings.Builder
	for i := 0; i < c.length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			return "", "", errors.Wrap(err, "failed to generate otp code")
		}
		sb.WriteByte(byte('0' + n.Int64()))
	}
	code := sb.String()

	hash, err := c.hasher.Hash([]byte(code))
	if err != nil {
		return "", "", errors.Wrap(err, "failed to hash otp code")
	}

	return code, hash, nil
}

// Verify reports whether the code matches the stored hash.
func (c *codeService) Verify(code string, hash string) bool {
	ok, err := c.hasher.Verify([]byte(code), hash)
	if err != nil {
		return false
	}
	return ok
}

// NewCodeService creates a code service producing codes of the given length.
// Uses the interactive Argon2id policy; OTP codes are short-lived so the
// cheaper parameters are enough.
func NewCodeService(length int) (CodeService, error) {
	hasher, err := pwdhash.New(pwdhash.WithPolicy(pwdhash.PolicyInteractive))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create otp code hasher")
	}

	return &codeService{hasher: hasher, length: length}, nil
}
