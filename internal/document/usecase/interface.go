// Package usecase implements owner-facing document business logic: creating
// documents, attaching and inviting signers, cancellation and deadline expiry.
package usecase

import (
	"context"
	"time"

	"github.com/google/uuid"

	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	signingDomain "github.com/gsPatrick/garimponos-sign/internal/signing/domain"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// DocumentRepository defines the interface for Document persistence operations.
type DocumentRepository interface {
	Create(ctx context.Context, document *documentDomain.Document) error
	Get(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error)
	GetForUpdate(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error)
	Update(ctx context.Context, document *documentDomain.Document) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID, offset, limit uint) ([]*documentDomain.Document, error)
	ListExpirable(ctx context.Context, limit uint) ([]uuid.UUID, error)
}

// SignerRepository defines the interface for Signer persistence operations.
type SignerRepository interface {
	Create(ctx context.Context, signer *documentDomain.Signer) error
	Get(ctx context.Context, signerID uuid.UUID) (*documentDomain.Signer, error)
	ListByDocument(ctx context.Context, documentID uuid.UUID) ([]*documentDomain.Signer, error)
	Update(ctx context.Context, signer *documentDomain.Signer) error
	CountNotCommitted(ctx context.Context, documentID uuid.UUID) (int64, error)
}

// SessionManager issues and revokes signing sessions. The signing module
// provides the implementation.
type SessionManager interface {
	// Issue revokes the signer's active sessions and creates a fresh one,
	// returning the session and the plaintext token for the invitation link.
	Issue(ctx context.Context, document *documentDomain.Document, signer *documentDomain.Signer) (*signingDomain.Session, string, error)

	// RevokeActiveByDocument invalidates every live session of a document.
	RevokeActiveByDocument(ctx context.Context, documentID uuid.UUID, now time.Time) error
}

// InvitationDispatcher queues invitation deliveries. The dispatch module
// provides the implementation.
type InvitationDispatcher interface {
	EnqueueInvitation(ctx context.Context, document *documentDomain.Document, signer *documentDomain.Signer, signingLink string, resend bool) (*dispatchDomain.Delivery, error)
}

// TimelineRecorder appends events to the document timeline.
type TimelineRecorder interface {
	Record(ctx context.Context, documentID uuid.UUID, signerID *uuid.UUID, eventType timelineDomain.EventType, actor timelineDomain.ActorType, payload any) (*timelineDomain.Event, error)
}

// CreateDocumentInput holds the fields to create a document.
type CreateDocumentInput struct {
	Title      string
	OwnerID    uuid.UUID
	PageCount  int
	DeadlineAt *time.Time
}

// UpdateDocumentInput holds the mutable document fields. Nil means unchanged.
type UpdateDocumentInput struct {
	Title      *string
	DeadlineAt *time.Time
}

// AttachSignerInput holds the fields to attach a signer to a document.
type AttachSignerInput struct {
	Name          string
	Email         string
	Phone         string
	TaxID         string
	Qualification string
	AuthChannels  []documentDomain.AuthChannel
}

// DocumentWithSigners bundles a document and its signers for read endpoints.
type DocumentWithSigners struct {
	Document *documentDomain.Document
	Signers  []*documentDomain.Signer
}

// DocumentUseCase defines the interface for document management business logic.
type DocumentUseCase interface {
	Create(ctx context.Context, input CreateDocumentInput) (*documentDomain.Document, error)
	Get(ctx context.Context, documentID uuid.UUID) (*DocumentWithSigners, error)
	List(ctx context.Context, ownerID uuid.UUID, offset, limit uint) ([]*documentDomain.Document, error)
	Update(ctx context.Context, documentID uuid.UUID, input UpdateDocumentInput) (*documentDomain.Document, error)
	AttachSigner(ctx context.Context, documentID uuid.UUID, input AttachSignerInput) (*documentDomain.Signer, error)
	InviteSigner(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error)
	ResendInvitation(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error)
	Cancel(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error)

	// SweepExpired expires overdue documents in batches. Returns the number
	// of documents expired.
	SweepExpired(ctx context.Context, batchSize uint) (int, error)
}
