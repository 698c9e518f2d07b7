// Package domain defines the document aggregate and signer state machine for
// the multi-party signature workflow.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// DocumentStatus represents the lifecycle status of a document.
type DocumentStatus string

const (
	// DocumentStatusDraft is the initial status after creation, before any invite.
	DocumentStatusDraft DocumentStatus = "draft"

	// DocumentStatusAwaitingSignatures means at least one signer has been invited.
	DocumentStatusAwaitingSignatures DocumentStatus = "awaiting_signatures"

	// DocumentStatusCompleted means every signer committed their signature. Terminal.
	DocumentStatusCompleted DocumentStatus = "completed"

	// DocumentStatusCancelled means the owner cancelled the document. Terminal.
	DocumentStatusCancelled DocumentStatus = "cancelled"

	// DocumentStatusExpired means the deadline passed with signatures pending. Terminal.
	DocumentStatusExpired DocumentStatus = "expired"
)

// Document is the aggregate root of a signature workflow. Status transitions
// are monotonic except for explicit cancellation; only the document use case
// mutates it, never a signer session directly.
type Document struct {
	ID         uuid.UUID
	Title      string
	Status     DocumentStatus
	DeadlineAt *time.Time
	PageCount  int
	OwnerID    uuid.UUID
	Version    int64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// NewDocument creates a document in Draft for the given owner. The page count
// comes from the external storage/rendering collaborator.
func NewDocument(title string, ownerID uuid.UUID, pageCount int, deadlineAt *time.Time) *Document {
	now := time.Now().UTC()
	return &Document{
		ID:         uuid.Must(uuid.NewV7()),
		Title:      title,
		Status:     DocumentStatusDraft,
		DeadlineAt: deadlineAt,
		PageCount:  pageCount,
		OwnerID:    ownerID,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsTerminal reports whether the document reached a terminal status.
func (d *Document) IsTerminal() bool {
	switch d.Status {
	case DocumentStatusCompleted, DocumentStatusCancelled, DocumentStatusExpired:
		return true
	}
	return false
}

// AcceptsSigners reports whether signers may still be attached or invited.
func (d *Document) AcceptsSigners() bool {
	return d.Status == DocumentStatusDraft || d.Status == DocumentStatusAwaitingSignatures
}

// IsMutable reports whether the owner may still update document fields.
func (d *Document) IsMutable() bool {
	return d.Status == DocumentStatusDraft || d.Status == DocumentStatusAwaitingSignatures
}

// MarkAwaitingSignatures moves a Draft document to AwaitingSignatures on the
// first invitation. A no-op when already awaiting.
func (d *Document) MarkAwaitingSignatures() error {
	switch d.Status {
	case DocumentStatusDraft:
		d.Status = DocumentStatusAwaitingSignatures
		d.UpdatedAt = time.Now().UTC()
		return nil
	case DocumentStatusAwaitingSignatures:
		return nil
	default:
		return errors.Wrapf(ErrInvalidDocumentState, "cannot invite signers on document in status %q", d.Status)
	}
}

// Complete moves the document to Completed. Valid only from AwaitingSignatures;
// the caller must have verified that every signer committed.
func (d *Document) Complete() error {
	if d.Status != DocumentStatusAwaitingSignatures {
		return errors.Wrapf(ErrInvalidDocumentState, "cannot complete document in status %q", d.Status)
	}
	d.Status = DocumentStatusCompleted
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves the document to Cancelled. Allowed from any status except the
// terminal ones; a completed document can never be cancelled.
func (d *Document) Cancel() error {
	if d.IsTerminal() {
		return errors.Wrapf(ErrInvalidDocumentState, "cannot cancel document in status %q", d.Status)
	}
	d.Status = DocumentStatusCancelled
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// Expire moves the document to Expired after its deadline passed with
// signatures still pending.
func (d *Document) Expire() error {
	if d.Status != DocumentStatusDraft && d.Status != DocumentStatusAwaitingSignatures {
		return errors.Wrapf(ErrInvalidDocumentState, "cannot expire document in status %q", d.Status)
	}
	d.Status = DocumentStatusExpired
	d.UpdatedAt = time.Now().UTC()
	return nil
}

// IsPastDeadline reports whether the document deadline has passed at the given
// instant. Documents without a deadline never expire.
func (d *Document) IsPastDeadline(now time.Time) bool {
	return d.DeadlineAt != nil && now.After(*d.DeadlineAt)
}
