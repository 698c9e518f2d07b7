package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/database"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// documentUseCase implements the DocumentUseCase interface. Every mutating
// operation locks the document row first, so concurrent owner and signer
// flows on the same document serialize.
type documentUseCase struct {
	txManager     database.TxManager
	documentRepo  DocumentRepository
	signerRepo    SignerRepository
	sessions      SessionManager
	dispatcher    InvitationDispatcher
	timeline      TimelineRecorder
	publicBaseURL string
}

// signingLink builds the public signing URL embedded in invitations.
func (d *documentUseCase) signingLink(token string) string {
	return fmt.Sprintf("%s/sign/%s", d.publicBaseURL, token)
}

// Create creates a document in Draft and records the creation event.
func (d *documentUseCase) Create(ctx context.Context, input CreateDocumentInput) (*documentDomain.Document, error) {
	if input.DeadlineAt != nil && input.DeadlineAt.Before(time.Now()) {
		return nil, apperrors.Wrap(apperrors.ErrInvalidInput, "deadline must be in the future")
	}

	document := documentDomain.NewDocument(input.Title, input.OwnerID, input.PageCount, input.DeadlineAt)

	err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		if err := d.documentRepo.Create(txCtx, document); err != nil {
			return err
		}

		_, err := d.timeline.Record(txCtx, document.ID, nil,
			timelineDomain.EventDocumentCreated, timelineDomain.ActorOwner,
			map[string]any{"title": document.Title, "page_count": document.PageCount})
		return err
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}

// Get retrieves a document with its signers.
func (d *documentUseCase) Get(ctx context.Context, documentID uuid.UUID) (*DocumentWithSigners, error) {
	document, err := d.documentRepo.Get(ctx, documentID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, documentDomain.ErrDocumentNotFound
		}
		return nil, err
	}

	signers, err := d.signerRepo.ListByDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}

	return &DocumentWithSigners{Document: document, Signers: signers}, nil
}

// List retrieves documents of an owner, newest first.
func (d *documentUseCase) List(ctx context.Context, ownerID uuid.UUID, offset, limit uint) ([]*documentDomain.Document, error) {
	return d.documentRepo.ListByOwner(ctx, ownerID, offset, limit)
}

// Update changes document title or deadline while the document is mutable.
func (d *documentUseCase) Update(ctx context.Context, documentID uuid.UUID, input UpdateDocumentInput) (*documentDomain.Document, error) {
	var document *documentDomain.Document

	err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		document, err = d.lockDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		if !document.IsMutable() {
			return apperrors.Wrapf(documentDomain.ErrInvalidDocumentState, "cannot update document in status %q", document.Status)
		}

		if input.DeadlineAt != nil && input.DeadlineAt.Before(time.Now()) {
			return apperrors.Wrap(apperrors.ErrInvalidInput, "deadline must be in the future")
		}

		changes := map[string]any{}
		if input.Title != nil {
			document.Title = *input.Title
			changes["title"] = *input.Title
		}
		if input.DeadlineAt != nil {
			document.DeadlineAt = input.DeadlineAt
			changes["deadline_at"] = input.DeadlineAt.UTC().Format(time.RFC3339)
		}
		if len(changes) == 0 {
			return nil
		}

		document.UpdatedAt = time.Now().UTC()
		if err := d.documentRepo.Update(txCtx, document); err != nil {
			return err
		}

		_, err = d.timeline.Record(txCtx, document.ID, nil,
			timelineDomain.EventDocumentUpdated, timelineDomain.ActorOwner, changes)
		return err
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}

// AttachSigner adds a signer to a document that still accepts signers.
func (d *documentUseCase) AttachSigner(ctx context.Context, documentID uuid.UUID, input AttachSignerInput) (*documentDomain.Signer, error) {
	var signer *documentDomain.Signer

	err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		document, err := d.lockDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		if !document.AcceptsSigners() {
			return apperrors.Wrapf(documentDomain.ErrInvalidDocumentState, "cannot attach signers to document in status %q", document.Status)
		}

		signer = documentDomain.NewSigner(
			document.ID,
			input.Name,
			input.Email,
			input.Phone,
			input.TaxID,
			input.Qualification,
			input.AuthChannels,
		)
		if err := d.signerRepo.Create(txCtx, signer); err != nil {
			return err
		}

		_, err = d.timeline.Record(txCtx, document.ID, &signer.ID,
			timelineDomain.EventSignerAttached, timelineDomain.ActorOwner,
			map[string]any{"name": signer.Name, "email": signer.Email})
		return err
	})
	if err != nil {
		return nil, err
	}

	return signer, nil
}

// InviteSigner issues a signing session for the signer and queues the
// invitation. The first invite moves the document to AwaitingSignatures.
func (d *documentUseCase) InviteSigner(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error) {
	return d.invite(ctx, documentID, signerID, false)
}

// ResendInvitation supersedes the signer's previous link with a fresh one.
// Only allowed while the signer has not started the flow.
func (d *documentUseCase) ResendInvitation(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error) {
	return d.invite(ctx, documentID, signerID, true)
}

func (d *documentUseCase) invite(ctx context.Context, documentID, signerID uuid.UUID, resend bool) (*documentDomain.Signer, error) {
	var signer *documentDomain.Signer

	err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		document, err := d.lockDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		signer, err = d.getSigner(txCtx, document.ID, signerID)
		if err != nil {
			return err
		}

		if signer.Status != documentDomain.SignerStatusInvited {
			return apperrors.Wrapf(documentDomain.ErrInvalidStateTransition,
				"cannot send invitation to signer in status %q", signer.Status)
		}

		if err := document.MarkAwaitingSignatures(); err != nil {
			return err
		}
		if err := d.documentRepo.Update(txCtx, document); err != nil {
			return err
		}

		// Issue supersedes any previous session for this signer.
		_, token, err := d.sessions.Issue(txCtx, document, signer)
		if err != nil {
			return err
		}

		if _, err := d.dispatcher.EnqueueInvitation(txCtx, document, signer, d.signingLink(token), resend); err != nil {
			return err
		}

		signer.SetDeliveryStatus(documentDomain.DeliveryStatusPending)
		if err := d.signerRepo.Update(txCtx, signer); err != nil {
			return err
		}

		eventType := timelineDomain.EventSignerInvited
		if resend {
			eventType = timelineDomain.EventInvitationResent
		}
		_, err = d.timeline.Record(txCtx, document.ID, &signer.ID,
			eventType, timelineDomain.ActorOwner, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return signer, nil
}

// Cancel cancels the document and invalidates every live signing session.
func (d *documentUseCase) Cancel(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	var document *documentDomain.Document

	err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		document, err = d.lockDocument(txCtx, documentID)
		if err != nil {
			return err
		}

		if err := document.Cancel(); err != nil {
			return err
		}
		if err := d.documentRepo.Update(txCtx, document); err != nil {
			return err
		}

		if err := d.sessions.RevokeActiveByDocument(txCtx, document.ID, time.Now()); err != nil {
			return err
		}

		_, err = d.timeline.Record(txCtx, document.ID, nil,
			timelineDomain.EventDocumentCancelled, timelineDomain.ActorOwner, nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	return document, nil
}

// SweepExpired expires overdue documents in batches. Each document is
// processed in its own transaction under the row lock; a signer committing
// concurrently either wins before the lock or observes the expired document.
func (d *documentUseCase) SweepExpired(ctx context.Context, batchSize uint) (int, error) {
	ids, err := d.documentRepo.ListExpirable(ctx, batchSize)
	if err != nil {
		return 0, err
	}

	expired := 0
	for _, id := range ids {
		err := d.txManager.WithTx(ctx, func(txCtx context.Context) error {
			document, err := d.documentRepo.GetForUpdate(txCtx, id)
			if err != nil {
				return err
			}

			// Re-check under the lock; the document may have completed or
			// been cancelled since the candidate list was read.
			if document.IsTerminal() || !document.IsPastDeadline(time.Now()) {
				return nil
			}

			if err := document.Expire(); err != nil {
				return err
			}
			if err := d.documentRepo.Update(txCtx, document); err != nil {
				return err
			}

			if err := d.sessions.RevokeActiveByDocument(txCtx, document.ID, time.Now()); err != nil {
				return err
			}

			signers, err := d.signerRepo.ListByDocument(txCtx, document.ID)
			if err != nil {
				return err
			}
			for _, signer := range signers {
				if signer.IsTerminal() {
					continue
				}
				if err := signer.Expire(); err != nil {
					return err
				}
				if err := d.signerRepo.Update(txCtx, signer); err != nil {
					return err
				}
				if _, err := d.timeline.Record(txCtx, document.ID, &signer.ID,
					timelineDomain.EventSignerExpired, timelineDomain.ActorSystem, nil); err != nil {
					return err
				}
			}

			if _, err := d.timeline.Record(txCtx, document.ID, nil,
				timelineDomain.EventDocumentExpired, timelineDomain.ActorSystem, nil); err != nil {
				return err
			}

			expired++
			return nil
		})
		if err != nil {
			return expired, err
		}
	}

	return expired, nil
}

func (d *documentUseCase) lockDocument(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error) {
	document, err := d.documentRepo.GetForUpdate(ctx, documentID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, documentDomain.ErrDocumentNotFound
		}
		return nil, err
	}
	return document, nil
}

func (d *documentUseCase) getSigner(ctx context.Context, documentID, signerID uuid.UUID) (*documentDomain.Signer, error) {
	signer, err := d.signerRepo.Get(ctx, signerID)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrNotFound) {
			return nil, documentDomain.ErrSignerNotFound
		}
		return nil, err
	}
	if signer.DocumentID != documentID {
		return nil, documentDomain.ErrSignerNotFound
	}
	return signer, nil
}

// NewDocumentUseCase creates a new document use case instance.
func NewDocumentUseCase(
	txManager database.TxManager,
	documentRepo DocumentRepository,
	signerRepo SignerRepository,
	sessions SessionManager,
	dispatcher InvitationDispatcher,
	timeline TimelineRecorder,
	publicBaseURL string,
) DocumentUseCase {
	return &documentUseCase{
		txManager:     txManager,
		documentRepo:  documentRepo,
		signerRepo:    signerRepo,
		sessions:      sessions,
		dispatcher:    dispatcher,
		timeline:      timeline,
		publicBaseURL: publicBaseURL,
	}
}
