// Package service provides token generation and signature artifact storage
// for the signing flow.
package service

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"

	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

const tokenByteLength = 32

// TokenService generates and hashes opaque signing tokens.
type TokenService interface {
	// Generate returns a new plaintext token and its storage hash.
	Generate() (token string, hash string, err error)
	// Hash returns the storage hash of a plaintext token.
	Hash(token string) string
}

// tokenService implements TokenService with crypto/rand tokens and SHA-256
// hashes. Tokens are high-entropy random values, not derived from any signer
// attribute, so the hash needs no salt.
type tokenService struct{}

// Generate returns a new URL-safe plaintext token and its hash.
func (t *tokenService) Generate() (string, string, error) {
	buf := make([]byte, tokenByteLength)
	if _, err := rand.Read(buf); err != nil {
		return "", "", errors.Wrap(err, "failed to generate signing token")
	}

	token := base64.RawURLEncoding.EncodeToString(buf)
	return token, t.Hash(token), nil
}

// Hash returns the hex-encoded SHA-256 digest of the token.
func (t *tokenService) Hash(token string) string {
	digest := sha256.Sum256([]byte(token))
	return hex.EncodeToString(digest[:])
}

// NewTokenService creates a new token service instance.
func NewTokenService() TokenService {
	return &tokenService{}
}
