// Package domain defines OTP challenges used for final signer verification.
package domain

import (
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// Challenge is one OTP code sent to a signer. Only the Argon2id hash of the
// code is stored. A signer has at most one live challenge; issuing a new one
// supersedes the previous.
type Challenge struct {
	ID           uuid.UUID
	SignerID     uuid.UUID
	DocumentID   uuid.UUID
	CodeHash     string
	Channel      documentDomain.AuthChannel
	Attempts     int
	MaxAttempts  int
	ExpiresAt    time.Time
	ConsumedAt   *time.Time
	SupersededAt *time.Time
	CreatedAt    time.Time
}

// NewChallenge creates a challenge for the given signer.
func NewChallenge(
	documentID, signerID uuid.UUID,
	codeHash string,
	channel documentDomain.AuthChannel,
	maxAttempts int,
	expiresAt time.Time,
) *Challenge {
	return &Challenge{
		ID:          uuid.Must(uuid.NewV7()),
		SignerID:    signerID,
		DocumentID:  documentID,
		CodeHash:    codeHash,
		Channel:     channel,
		MaxAttempts: maxAttempts,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now().UTC(),
	}
}

// IsExpired reports whether the challenge expired at the given instant.
func (c *Challenge) IsExpired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// IsLocked reports whether the attempt budget is exhausted.
func (c *Challenge) IsLocked() bool {
	return c.Attempts >= c.MaxAttempts
}

// IsLive reports whether the challenge can still be verified.
func (c *Challenge) IsLive(now time.Time) bool {
	return c.ConsumedAt == nil && c.SupersededAt == nil && !c.IsExpired(now) && !c.IsLocked()
}

// CheckUsable returns the reason a challenge cannot be verified, or nil.
// Order matters: consumed and superseded states take precedence over expiry
// so replayed codes report the most specific error.
func (c *Challenge) CheckUsable(now time.Time) error {
	switch {
	case c.ConsumedAt != nil:
		return ErrChallengeConsumed
	case c.SupersededAt != nil:
		return ErrChallengeSuperseded
	case c.IsLocked():
		return ErrChallengeLocked
	case c.IsExpired(now):
		return ErrChallengeExpired
	}
	return nil
}

// RegisterFailure counts a failed verification attempt.
func (c *Challenge) RegisterFailure() {
	c.Attempts++
}

// Consume marks the challenge as successfully verified.
func (c *Challenge) Consume(now time.Time) error {
	if err := c.CheckUsable(now); err != nil {
		return err
	}
	consumedAt := now.UTC()
	c.ConsumedAt = &consumedAt
	return nil
}

// ErrChallengeConsumed and friends classify why a challenge is unusable.
var (
	ErrChallengeNotFound = errors.Wrap(errors.ErrNotFound, "otp challenge not found")

	ErrCodeMismatch = errors.WithCode(
		errors.Wrap(errors.ErrInvalidInput, "otp code does not match"),
		"otp_mismatch",
	)

	ErrChallengeConsumed = errors.WithCode(
		errors.Wrap(errors.ErrGone, "otp challenge was already used"),
		"otp_consumed",
	)

	ErrChallengeSuperseded = errors.WithCode(
		errors.Wrap(errors.ErrGone, "otp challenge was superseded by a newer code"),
		"otp_superseded",
	)

	ErrChallengeExpired = errors.WithCode(
		errors.Wrap(errors.ErrGone, "otp challenge has expired"),
		"otp_expired",
	)

	ErrChallengeLocked = errors.WithCode(
		errors.Wrap(errors.ErrLocked, "otp challenge is locked after too many failed attempts"),
		"otp_locked",
	)
)
