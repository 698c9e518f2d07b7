package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	"github.com/gsPatrick/garimponos-sign/internal/metrics"
)

// documentUseCaseWithMetrics decorates DocumentUseCase with metrics instrumentation.
type documentUseCaseWithMetrics struct {
	next    DocumentUseCase
	metrics metrics.BusinessMetrics
}

// NewDocumentUseCaseWithMetrics wraps a DocumentUseCase with metrics recording.
func NewDocumentUseCaseWithMetrics(useCase DocumentUseCase, m metrics.BusinessMetrics) DocumentUseCase {
	return &documentUseCaseWithMetrics{
		next:    useCase,
		metrics: m,
	}
}

// Create records metrics for document creation operations.
func (d *documentUseCaseWithMetrics) Create(ctx context.Context, input CreateDocumentInput) (*documentDomain.Document, error) {
	start := time.Now()
	document, err := d.next.Create(ctx, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "document_create", status)
	d.metrics.RecordDuration(ctx, "document", "document_create", time.Since(start), status)

	return document, err
}

// Get records metrics for document retrieval operations.
func (d *documentUseCaseWithMetrics) Get(ctx context.Context, documentID uuid.UUID) (*DocumentWithSigners, error) {
	start := time.Now()
	result, err := d.next.Get(ctx, documentID)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "document_get", status)
	d.metrics.RecordDuration(ctx, "document", "document_get", time.Since(start), status)

	return result, err
}

// List records metrics for document listing operations.
func (d *documentUseCaseWithMetrics) List(ctx context.Context, ownerID uuid.UUID, offset, limit uint) ([]*documentDomain.Document, error) {
	start := time.Now()
	documents, err := d.next.List(ctx, ownerID, offset, limit)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "document_list", status)
	d.metrics.RecordDuration(ctx, "document", "document_list", time.Since(start), status)

	return documents, err
}

// Update records metrics for document update operations.
func (d *documentUseCaseWithMetrics) Update(ctx context.Context, documentID uuid.UUID, input UpdateDocumentInput) (*documentDomain.Document, error) {
	start := time.Now()
	document, err := d.next.Update(ctx, documentID, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "document_update", status)
	d.metrics.RecordDuration(ctx, "document", "document_update", time.Since(start), status)

	return document, err
}

// AttachSigner records metrics for signer attachment operations.
func (d *documentUseCaseWithMetrics) AttachSigner(ctx context.Context, documentID uuid.UUID, input AttachSignerInput) (*documentDomain.Signer, error) {
	start := time.Now()
	signer, err := d.next.AttachSigner(ctx, documentID, input)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "signer_attach", status)
	d.metrics.RecordDuration(ctx, "document", "signer_attach", time.Since(start), status)

	return signer, err
}

// InviteSigner records metrics for signer invitation operations.
func (d *documentUseCaseWithMetrics) InviteSigner(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error) {
	start := time.Now()
	signer, err := d.next.InviteSigner(ctx, documentID, signerID)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "signer_invite", status)
	d.metrics.RecordDuration(ctx, "document", "signer_invite", time.Since(start), status)

	return signer, err
}

// ResendInvitation records metrics for invitation resend operations.
func (d *documentUseCaseWithMetrics) ResendInvitation(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error) {
	start := time.Now()
	signer, err := d.next.ResendInvitation(ctx, documentID, signerID)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "invitation_resend", status)
	d.metrics.RecordDuration(ctx, "document", "invitation_resend", time.Since(start), status)

	return signer, err
}

// Cancel records metrics for document cancellation operations.
func (d *documentUseCaseWithMetrics) Cancel(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	start := time.Now()
	document, err := d.next.Cancel(ctx, documentID)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "document_cancel", status)
	d.metrics.RecordDuration(ctx, "document", "document_cancel", time.Since(start), status)

	return document, err
}

// SweepExpired records metrics for deadline sweep operations.
func (d *documentUseCaseWithMetrics) SweepExpired(ctx context.Context, batchSize uint) (int, error) {
	start := time.Now()
	expired, err := d.next.SweepExpired(ctx, batchSize)

	status := "success"
	if err != nil {
		status = "error"
	}

	d.metrics.RecordOperation(ctx, "document", "document_sweep_expired", status)
	d.metrics.RecordDuration(ctx, "document", "document_sweep_expired", time.Since(start), status)

	return expired, err
}
