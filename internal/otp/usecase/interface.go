// Package usecase implements OTP challenge business logic: issuing codes,
// superseding stale ones and verifying attempts with a lockout budget.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	otpDomain "github.com/gsPatrick/garimponos-sign/internal/otp/domain"
)

// ChallengeRepository defines the interface for Challenge persistence operations.
type ChallengeRepository interface {
	Create(ctx context.Context, challenge *otpDomain.Challenge) error
	GetLatestBySigner(ctx context.Context, signerID uuid.UUID) (*otpDomain.Challenge, error)
	Update(ctx context.Context, challenge *otpDomain.Challenge) error
	SupersedeLiveBySigner(ctx context.Context, signerID uuid.UUID, now time.Time) error
}

// CodeSender delivers a plaintext OTP code to a signer over a channel. The
// dispatch module provides the implementation.
type CodeSender interface {
	SendCode(ctx context.Context, signer *documentDomain.Signer, channel documentDomain.AuthChannel, code string) error
}

// OtpUseCase defines the interface for OTP challenge business logic.
type OtpUseCase interface {
	// Start issues a new challenge for the signer over the given channel,
	// superseding any live challenge. Must run inside the caller's
	// transaction while the document row lock is held.
	Start(ctx context.Context, signer *documentDomain.Signer, channel documentDomain.AuthChannel) (*otpDomain.Challenge, error)

	// Verify checks the code against the signer's latest challenge. A match
	// consumes the challenge; a mismatch burns one attempt. Returns the
	// challenge on success.
	Verify(ctx context.Context, signerID uuid.UUID, code string, now time.Time) (*otpDomain.Challenge, error)
}
