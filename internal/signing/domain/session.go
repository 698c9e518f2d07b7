// Package domain defines signing sessions, the single-use capability tokens
// that grant a signer access to their signing flow.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session is a single-use signing token issued for one signer of one document.
// Only the SHA-256 hash of the token is stored; the plaintext leaves the
// system exactly once, embedded in the invitation link.
type Session struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	SignerID   uuid.UUID
	TokenHash  string
	ExpiresAt  time.Time
	ConsumedAt *time.Time
	RevokedAt  *time.Time
	CreatedAt  time.Time
}

// NewSession creates a session for the given signer expiring at expiresAt.
func NewSession(documentID, signerID uuid.UUID, tokenHash string, expiresAt time.Time) *Session {
	return &Session{
		ID:         uuid.Must(uuid.NewV7()),
		DocumentID: documentID,
		SignerID:   signerID,
		TokenHash:  tokenHash,
		ExpiresAt:  expiresAt,
		CreatedAt:  time.Now().UTC(),
	}
}

// IsExpired reports whether the session expired at the given instant. Expiry
// is evaluated lazily on access; no background job invalidates tokens.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// IsActive reports whether the session can still be used at the given instant.
func (s *Session) IsActive(now time.Time) bool {
	return s.ConsumedAt == nil && s.RevokedAt == nil && !s.IsExpired(now)
}
