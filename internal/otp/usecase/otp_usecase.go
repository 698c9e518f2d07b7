package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	otpDomain "github.com/gsPatrick/garimponos-sign/internal/otp/domain"
	otpService "github.com/gsPatrick/garimponos-sign/internal/otp/service"
)

// otpUseCase implements the OtpUseCase interface.
type otpUseCase struct {
	challengeRepo ChallengeRepository
	codeService   otpService.CodeService
	codeSender    CodeSender
	codeTTL       time.Duration
	maxAttempts   int
}

// Start issues a new challenge for the signer, superseding any live one.
func (o *otpUseCase) Start(
	ctx context.Context,
	signer *documentDomain.Signer,
	channel documentDomain.AuthChannel,
) (*otpDomain.Challenge, error) {
	if !signer.HasChannel(channel) {
		return nil, apperrors.Wrapf(apperrors.ErrInvalidInput, "channel %q is not enabled for this signer", channel)
	}

	now := time.Now().UTC()
	if err := o.challengeRepo.SupersedeLiveBySigner(ctx, signer.ID, now); err != nil {
		return nil, err
	}

	code, hash, err := o.codeService.Generate()
	if err != nil {
		return nil, err
	}

	challenge := otpDomain.NewChallenge(signer.DocumentID, signer.ID, hash, channel, o.maxAttempts, now.Add(o.codeTTL))
	if err := o.challengeRepo.Create(ctx, challenge); err != nil {
		return nil, err
	}

	if err := o.codeSender.SendCode(ctx, signer, channel, code); err != nil {
		return nil, err
	}

	return challenge, nil
}

// Verify checks the code against the signer's latest challenge.
func (o *otpUseCase) Verify(
	ctx context.Context,
	signerID uuid.UUID,
	code string,
	now time.Time,
) (*otpDomain.Challenge, error) {
	challenge, err := o.challengeRepo.GetLatestBySigner(ctx, signerID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, otpDomain.ErrChallengeNotFound
		}
		return nil, err
	}

	if err := challenge.CheckUsable(now); err != nil {
		return nil, err
	}

	if !o.codeService.Verify(code, challenge.CodeHash) {
		challenge.RegisterFailure()
		if err := o.challengeRepo.Update(ctx, challenge); err != nil {
			return nil, err
		}
		if challenge.IsLocked() {
			return nil, otpDomain.ErrChallengeLocked
		}
		return nil, otpDomain.ErrCodeMismatch
	}

	if err := challenge.Consume(now); err != nil {
		return nil, err
	}
	if err := o.challengeRepo.Update(ctx, challenge); err != nil {
		return nil, err
	}

	return challenge, nil
}

// NewOtpUseCase creates a new OTP use case instance.
func NewOtpUseCase(
	challengeRepo ChallengeRepository,
	codeService otpService.CodeService,
	codeSender CodeSender,
	codeTTL time.Duration,
	maxAttempts int,
) OtpUseCase {
	return &otpUseCase{
		challengeRepo: challengeRepo,
		codeService:   codeService,
		codeSender:    codeSender,
		codeTTL:       codeTTL,
		maxAttempts:   maxAttempts,
	}
}
