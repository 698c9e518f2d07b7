package usecase

import (
	"context"
	"time"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	otpDomain "github.com/gsPatrick/garimponos-sign/internal/otp/domain"
	signingDomain "github.com/gsPatrick/garimponos-sign/internal/signing/domain"
	signingService "github.com/gsPatrick/garimponos-sign/internal/signing/service"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// signerSessionUseCase implements the SignerSessionUseCase interface. Mutating
// steps run in a transaction that locks the document row, so two requests on
// the same document (or even the same token) serialize.
type signerSessionUseCase struct {
	txManager    database.TxManager
	sessionRepo  SessionRepository
	documentRepo DocumentRepository
	signerRepo   SignerRepository
	tokens       signingService.TokenService
	artifacts    signingService.ArtifactStore
	otp          OtpManager
	timeline     TimelineRecorder
}

// resolveSession maps a plaintext token to its session, classifying dead
// sessions. Unknown tokens and malformed tokens yield the same error so the
// endpoint cannot be probed for token existence.
func (s *signerSessionUseCase) resolveSession(ctx context.Context, token string, now time.Time) (*signingDomain.Session, error) {
	session, err := s.sessionRepo.GetByTokenHash(ctx, s.tokens.Hash(token))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, signingDomain.ErrTokenInvalid
		}
		return nil, err
	}

	switch {
	case session.ConsumedAt != nil:
		return nil, signingDomain.ErrTokenConsumed
	case session.RevokedAt != nil:
		return nil, signingDomain.ErrTokenRevoked
	case session.IsExpired(now):
		return nil, signingDomain.ErrTokenExpired
	}

	return session, nil
}

// loadView loads the document and signer behind a resolved session. Expiry of
// the document deadline is evaluated lazily here; an overdue document rejects
// the token even before the sweep job has expired the record.
func (s *signerSessionUseCase) loadView(
	ctx context.Context,
	session *signingDomain.Session,
	now time.Time,
	forUpdate bool,
) (*SignerSessionView, error) {
	var (
		document *documentDomain.Document
		err      error
	)
	if forUpdate {
		document, err = s.documentRepo.GetForUpdate(ctx, session.DocumentID)
	} else {
		document, err = s.documentRepo.Get(ctx, session.DocumentID)
	}
	if err != nil {
		return nil, err
	}

	if document.IsPastDeadline(now) && !document.IsTerminal() {
		return nil, signingDomain.ErrTokenExpired
	}

	signer, err := s.signerRepo.Get(ctx, session.SignerID)
	if err != nil {
		return nil, err
	}

	return &SignerSessionView{Session: session, Document: document, Signer: signer}, nil
}

// inStep runs one signing step in a transaction with the document row locked.
func (s *signerSessionUseCase) inStep(
	ctx context.Context,
	token string,
	fn func(txCtx context.Context, now time.Time, view *SignerSessionView) error,
) (*SignerSessionView, error) {
	var view *SignerSessionView

	err := s.txManager.WithTx(ctx, func(txCtx context.Context) error {
		now := time.Now().UTC()

		session, err := s.resolveSession(txCtx, token, now)
		if err != nil {
			return err
		}

		view, err = s.loadView(txCtx, session, now, true)
		if err != nil {
			return err
		}

		return fn(txCtx, now, view)
	})
	if err != nil {
		return nil, err
	}

	return view, nil
}

// Resolve returns the current flow state for a token without side effects.
func (s *signerSessionUseCase) Resolve(ctx context.Context, token string) (*SignerSessionView, error) {
	now := time.Now().UTC()

	session, err := s.resolveSession(ctx, token, now)
	if err != nil {
		return nil, err
	}

	return s.loadView(ctx, session, now, false)
}

// Identify confirms the signer's identity. Submitted fields overwrite the
// values the owner entered; empty fields keep them.
func (s *signerSessionUseCase) Identify(ctx context.Context, token string, input IdentifyInput) (*SignerSessionView, error) {
	return s.inStep(ctx, token, func(txCtx context.Context, _ time.Time, view *SignerSessionView) error {
		signer := view.Signer

		if err := signer.Identify(); err != nil {
			return err
		}

		if input.Name != "" {
			signer.Name = input.Name
		}
		if input.Email != "" {
			signer.Email = input.Email
		}
		if input.Phone != "" {
			signer.Phone = input.Phone
		}
		if input.TaxID != "" {
			signer.TaxID = input.TaxID
		}
		if input.Qualification != "" {
			signer.Qualification = input.Qualification
		}

		if err := s.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		_, err := s.timeline.Record(txCtx, view.Document.ID, &signer.ID,
			timelineDomain.EventSignerIdentified, timelineDomain.ActorSigner, nil)
		return err
	})
}

// CaptureSignature stores the signature image and advances the signer.
// Re-capture overwrites the previous image under the same artifact key.
func (s *signerSessionUseCase) CaptureSignature(ctx context.Context, token string, image []byte, contentType string) (*SignerSessionView, error) {
	if len(image) == 0 {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "signature image must not be empty")
	}

	return s.inStep(ctx, token, func(txCtx context.Context, _ time.Time, view *SignerSessionView) error {
		signer := view.Signer

		key, err := s.artifacts.SaveSignature(txCtx, view.Document.ID, signer.ID, image, contentType)
		if err != nil {
			return err
		}

		if err := signer.CaptureSignature(key); err != nil {
			return err
		}
		if err := s.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		_, err = s.timeline.Record(txCtx, view.Document.ID, &signer.ID,
			timelineDomain.EventSignatureCaptured, timelineDomain.ActorSigner,
			map[string]any{"content_type": contentType, "size_bytes": len(image)})
		return err
	})
}

// PlaceSignature validates the placement against the document page count and
// advances the signer.
func (s *signerSessionUseCase) PlaceSignature(ctx context.Context, token string, position documentDomain.SignaturePosition) (*SignerSessionView, error) {
	return s.inStep(ctx, token, func(txCtx context.Context, _ time.Time, view *SignerSessionView) error {
		signer := view.Signer

		if err := signer.PlaceSignature(position, view.Document.PageCount); err != nil {
			return err
		}
		if err := s.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		_, err := s.timeline.Record(txCtx, view.Document.ID, &signer.ID,
			timelineDomain.EventSignaturePositioned, timelineDomain.ActorSigner,
			map[string]any{"page": position.Page, "x": position.X, "y": position.Y})
		return err
	})
}

// StartOtp requests an OTP challenge on the given channel. A repeated call
// supersedes the previous challenge ("resend code").
func (s *signerSessionUseCase) StartOtp(ctx context.Context, token string, channel documentDomain.AuthChannel) (*SignerSessionView, error) {
	return s.inStep(ctx, token, func(txCtx context.Context, _ time.Time, view *SignerSessionView) error {
		signer := view.Signer

		if err := signer.BeginOtpVerification(); err != nil {
			return err
		}
		if err := s.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		if _, err := s.otp.Start(txCtx, signer, channel); err != nil {
			return err
		}

		_, err := s.timeline.Record(txCtx, view.Document.ID, &signer.ID,
			timelineDomain.EventOtpRequested, timelineDomain.ActorSigner,
			map[string]any{"channel": string(channel)})
		return err
	})
}

// VerifyOtp checks a submitted code against the live challenge. Failed
// attempts are persisted even though an error is returned, so the attempt
// counter and the timeline survive the rejection.
func (s *signerSessionUseCase) VerifyOtp(ctx context.Context, token string, code string) (*SignerSessionView, error) {
	var verifyErr error

	view, err := s.inStep(ctx, token, func(txCtx context.Context, now time.Time, view *SignerSessionView) error {
		signer := view.Signer

		if _, err := s.otp.Verify(txCtx, signer.ID, code, now); err != nil {
			if apperrors.Is(err, otpDomain.ErrCodeMismatch) || apperrors.Is(err, otpDomain.ErrChallengeLocked) {
				// Commit the transaction so the attempt counter sticks.
				verifyErr = err
				_, recErr := s.timeline.Record(txCtx, view.Document.ID, &signer.ID,
					timelineDomain.EventOtpFailed, timelineDomain.ActorSigner,
					map[string]any{"reason": apperrors.CodeOf(err)})
				return recErr
			}
			return err
		}

		if err := signer.MarkOtpVerified(now); err != nil {
			return err
		}
		if err := s.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		_, err := s.timeline.Record(txCtx, view.Document.ID, &signer.ID,
			timelineDomain.EventOtpVerified, timelineDomain.ActorSigner, nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	if verifyErr != nil {
		return nil, verifyErr
	}

	return view, nil
}

// Commit finalizes the signature. The session is consumed with a guarded
// update, so of two concurrent commits on the same token exactly one wins; the
// loser gets a precise diagnosis of why the token is dead. The last signer to
// commit completes the document in the same transaction.
func (s *signerSessionUseCase) Commit(ctx context.Context, token string, fingerprint string) (*SignerSessionView, error) {
	return s.inStep(ctx, token, func(txCtx context.Context, now time.Time, view *SignerSessionView) error {
		signer := view.Signer
		document := view.Document

		if err := s.sessionRepo.Consume(txCtx, view.Session.ID, now); err != nil {
			if apperrors.Is(err, apperrors.ErrConflict) {
				return s.diagnoseDeadSession(txCtx, token, now)
			}
			return err
		}

		if err := signer.Commit(fingerprint, now); err != nil {
			return err
		}
		if err := s.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		if _, err := s.timeline.Record(txCtx, document.ID, &signer.ID,
			timelineDomain.EventSignerCommitted, timelineDomain.ActorSigner,
			map[string]any{"fingerprint": fingerprint}); err != nil {
			return err
		}

		remaining, err := s.signerRepo.CountNotCommitted(txCtx, document.ID)
		if err != nil {
			return err
		}
		if remaining > 0 {
			return nil
		}

		if err := document.Complete(); err != nil {
			return err
		}
		if err := s.documentRepo.Update(txCtx, document); err != nil {
			return err
		}

		_, err = s.timeline.Record(txCtx, document.ID, nil,
			timelineDomain.EventDocumentCompleted, timelineDomain.ActorSystem, nil)
		return err
	})
}

// diagnoseDeadSession re-reads a session that lost the consume race and maps
// its state to the matching token error.
func (s *signerSessionUseCase) diagnoseDeadSession(ctx context.Context, token string, now time.Time) error {
	session, err := s.sessionRepo.GetByTokenHash(ctx, s.tokens.Hash(token))
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return signingDomain.ErrTokenInvalid
		}
		return err
	}

	switch {
	case session.ConsumedAt != nil:
		return signingDomain.ErrTokenConsumed
	case session.RevokedAt != nil:
		return signingDomain.ErrTokenRevoked
	case session.IsExpired(now):
		return signingDomain.ErrTokenExpired
	}
	return signingDomain.ErrTokenInvalid
}

// Decline refuses the signature and burns the signer's sessions.
func (s *signerSessionUseCase) Decline(ctx context.Context, token string, reason string) (*SignerSessionView, error) {
	return s.inStep(ctx, token, func(txCtx context.Context, now time.Time, view *SignerSessionView) error {
		signer := view.Signer

		if err := signer.Decline(); err != nil {
			return err
		}
		if err := s.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		if err := s.sessionRepo.RevokeActiveBySigner(txCtx, signer.ID, now); err != nil {
			return err
		}

		var payload map[string]any
		if reason != "" {
			payload = map[string]any{"reason": reason}
		}
		_, err := s.timeline.Record(txCtx, view.Document.ID, &signer.ID,
			timelineDomain.EventSignerDeclined, timelineDomain.ActorSigner, payload)
		return err
	})
}

// NewSignerSessionUseCase creates a new signer session use case instance.
func NewSignerSessionUseCase(
	txManager database.TxManager,
	sessionRepo SessionRepository,
	documentRepo DocumentRepository,
	signerRepo SignerRepository,
	tokens signingService.TokenService,
	artifacts signingService.ArtifactStore,
	otp OtpManager,
	timeline TimelineRecorder,
) SignerSessionUseCase {
	return &signerSessionUseCase{
		txManager:    txManager,
		sessionRepo:  sessionRepo,
		documentRepo: documentRepo,
		signerRepo:   signerRepo,
		tokens:       tokens,
		artifacts:    artifacts,
		otp:          otp,
		timeline:     timeline,
	}
}
