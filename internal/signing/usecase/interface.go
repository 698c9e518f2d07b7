// Package usecase implements the signing flow: session issuance and
// validation, and the token-addressed signer steps from identification
// through commit.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	otpDomain "github.com/gsPatrick/garimponos-sign/internal/otp/domain"
	signingDomain "github.com/gsPatrick/garimponos-sign/internal/signing/domain"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// SessionRepository defines the interface for Session persistence operations.
type SessionRepository interface {
	Create(ctx context.Context, session *signingDomain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*signingDomain.Session, error)
	Consume(ctx context.Context, sessionID uuid.UUID, now time.Time) error
	RevokeActiveBySigner(ctx context.Context, signerID uuid.UUID, now time.Time) error
	RevokeActiveByDocument(ctx context.Context, documentID uuid.UUID, now time.Time) error
}

// DocumentRepository defines the document operations the signing flow needs.
type DocumentRepository interface {
	Get(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error)
	GetForUpdate(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error)
	Update(ctx context.Context, document *documentDomain.Document) error
}

// SignerRepository defines the signer operations the signing flow needs.
type SignerRepository interface {
	Get(ctx context.Context, signerID uuid.UUID) (*documentDomain.Signer, error)
	Update(ctx context.Context, signer *documentDomain.Signer) error
	CountNotCommitted(ctx context.Context, documentID uuid.UUID) (int64, error)
}

// OtpManager issues and verifies OTP challenges. The otp module provides the
// implementation.
type OtpManager interface {
	Start(ctx context.Context, signer *documentDomain.Signer, channel documentDomain.AuthChannel) (*otpDomain.Challenge, error)
	Verify(ctx context.Context, signerID uuid.UUID, code string, now time.Time) (*otpDomain.Challenge, error)
}

// TimelineRecorder appends events to the document timeline.
type TimelineRecorder interface {
	Record(ctx context.Context, documentID uuid.UUID, signerID *uuid.UUID, eventType timelineDomain.EventType, actor timelineDomain.ActorType, payload any) (*timelineDomain.Event, error)
}

// SessionUseCase manages signing session lifecycle for the owner side.
// It satisfies the document module's SessionManager dependency.
type SessionUseCase interface {
	Issue(ctx context.Context, document *documentDomain.Document, signer *documentDomain.Signer) (*signingDomain.Session, string, error)
	RevokeActiveByDocument(ctx context.Context, documentID uuid.UUID, now time.Time) error
}

// SignerSessionView is the signing flow state returned to the public client.
type SignerSessionView struct {
	Session  *signingDomain.Session
	Document *documentDomain.Document
	Signer   *documentDomain.Signer
}

// IdentifyInput holds the identity confirmation fields a signer submits.
type IdentifyInput struct {
	Name          string
	Email         string
	Phone         string
	TaxID         string
	Qualification string
}

// SignerSessionUseCase drives the token-addressed signing flow. Every step
// resolves the token, locks the document row and advances the signer state
// machine; out-of-order calls fail without side effects.
type SignerSessionUseCase interface {
	Resolve(ctx context.Context, token string) (*SignerSessionView, error)
	Identify(ctx context.Context, token string, input IdentifyInput) (*SignerSessionView, error)
	CaptureSignature(ctx context.Context, token string, image []byte, contentType string) (*SignerSessionView, error)
	PlaceSignature(ctx context.Context, token string, position documentDomain.SignaturePosition) (*SignerSessionView, error)
	StartOtp(ctx context.Context, token string, channel documentDomain.AuthChannel) (*SignerSessionView, error)
	VerifyOtp(ctx context.Context, token string, code string) (*SignerSessionView, error)
	Commit(ctx context.Context, token string, fingerprint string) (*SignerSessionView, error)
	Decline(ctx context.Context, token string, reason string) (*SignerSessionView, error)
}
