package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	signingDomain "github.com/gsPatrick/garimponos-sign/internal/signing/domain"
	signingService "github.com/gsPatrick/garimponos-sign/internal/signing/service"
)

// sessionUseCase implements the SessionUseCase interface.
type sessionUseCase struct {
	sessionRepo SessionRepository
	tokens      signingService.TokenService
	tokenTTL    time.Duration
}

// Issue revokes the signer's active sessions and creates a fresh one. The
// session never outlives the document deadline, so a token found in an old
// inbox after the deadline is already expired on its own.
func (s *sessionUseCase) Issue(
	ctx context.Context,
	document *documentDomain.Document,
	signer *documentDomain.Signer,
) (*signingDomain.Session, string, error) {
	now := time.Now().UTC()

	if err := s.sessionRepo.RevokeActiveBySigner(ctx, signer.ID, now); err != nil {
		return nil, "", err
	}

	token, hash, err := s.tokens.Generate()
	if err != nil {
		return nil, "", err
	}

	expiresAt := now.Add(s.tokenTTL)
	if document.DeadlineAt != nil && document.DeadlineAt.Before(expiresAt) {
		expiresAt = *document.DeadlineAt
	}

	session := signingDomain.NewSession(document.ID, signer.ID, hash, expiresAt)
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, "", err
	}

	return session, token, nil
}

// RevokeActiveByDocument invalidates every live session of a document.
func (s *sessionUseCase) RevokeActiveByDocument(ctx context.Context, documentID uuid.UUID, now time.Time) error {
	return s.sessionRepo.RevokeActiveByDocument(ctx, documentID, now)
}

// NewSessionUseCase creates a new session use case instance.
func NewSessionUseCase(
	sessionRepo SessionRepository,
	tokens signingService.TokenService,
	tokenTTL time.Duration,
) SessionUseCase {
	return &sessionUseCase{
		sessionRepo: sessionRepo,
		tokens:      tokens,
		tokenTTL:    tokenTTL,
	}
}
