package usecase

import (
	"context"
	"time"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	"github.com/gsPatrick/garimponos-sign/internal/metrics"
)

// signerSessionUseCaseWithMetrics decorates SignerSessionUseCase with metrics
// instrumentation.
type signerSessionUseCaseWithMetrics struct {
	next    SignerSessionUseCase
	metrics metrics.BusinessMetrics
}

// NewSignerSessionUseCaseWithMetrics wraps a SignerSessionUseCase with metrics recording.
func NewSignerSessionUseCaseWithMetrics(useCase SignerSessionUseCase, m metrics.BusinessMetrics) SignerSessionUseCase {
	return &signerSessionUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Resolve records metrics for session resolution operations.
func (s *signerSessionUseCaseWithMetrics) Resolve(ctx context.Context, token string) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.Resolve(ctx, token)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "session_resolve", status)
	s.metrics.RecordDuration(ctx, "signing", "session_resolve", time.Since(start), status)

	return view, err
}

// Identify records metrics for identity confirmation operations.
func (s *signerSessionUseCaseWithMetrics) Identify(ctx context.Context, token string, input IdentifyInput) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.Identify(ctx, token, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "signer_identify", status)
	s.metrics.RecordDuration(ctx, "signing", "signer_identify", time.Since(start), status)

	return view, err
}

// CaptureSignature records metrics for signature capture operations.
func (s *signerSessionUseCaseWithMetrics) CaptureSignature(ctx context.Context, token string, image []byte, contentType string) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.CaptureSignature(ctx, token, image, contentType)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "signature_capture", status)
	s.metrics.RecordDuration(ctx, "signing", "signature_capture", time.Since(start), status)

	return view, err
}

// PlaceSignature records metrics for signature placement operations.
func (s *signerSessionUseCaseWithMetrics) PlaceSignature(ctx context.Context, token string, position documentDomain.SignaturePosition) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.PlaceSignature(ctx, token, position)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "signature_place", status)
	s.metrics.RecordDuration(ctx, "signing", "signature_place", time.Since(start), status)

	return view, err
}

// StartOtp records metrics for OTP challenge requests.
func (s *signerSessionUseCaseWithMetrics) StartOtp(ctx context.Context, token string, channel documentDomain.AuthChannel) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.StartOtp(ctx, token, channel)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "otp_start", status)
	s.metrics.RecordDuration(ctx, "signing", "otp_start", time.Since(start), status)

	return view, err
}

// VerifyOtp records metrics for OTP verification operations.
func (s *signerSessionUseCaseWithMetrics) VerifyOtp(ctx context.Context, token string, code string) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.VerifyOtp(ctx, token, code)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "otp_verify", status)
	s.metrics.RecordDuration(ctx, "signing", "otp_verify", time.Since(start), status)

	return view, err
}

// Commit records metrics for signature commit operations.
func (s *signerSessionUseCaseWithMetrics) Commit(ctx context.Context, token string, fingerprint string) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.Commit(ctx, token, fingerprint)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "signer_commit", status)
	s.metrics.RecordDuration(ctx, "signing", "signer_commit", time.Since(start), status)

	return view, err
}

// Decline records metrics for signer decline operations.
func (s *signerSessionUseCaseWithMetrics) Decline(ctx context.Context, token string, reason string) (*SignerSessionView, error) {
	start := time.Now()
	view, err := s.next.Decline(ctx, token, reason)

	status := "success"
	if err != nil {
		status = "error"
	}

	s.metrics.RecordOperation(ctx, "signing", "signer_decline", status)
	s.metrics.RecordDuration(ctx, "signing", "signer_decline", time.Since(start), status)

	return view, err
}
