// Package usecase implements the dispatch outbox: queueing invitation and OTP
// deliveries, the polling worker that hands them to the notifier, and the
// result callback that records delivery outcomes.
package usecase

import (
	"context"

	"github.com/google/uuid"

	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// DeliveryRepository defines the interface for Delivery persistence operations.
type DeliveryRepository interface {
	Create(ctx context.Context, delivery *dispatchDomain.Delivery) error
	Get(ctx context.Context, deliveryID uuid.UUID) (*dispatchDomain.Delivery, error)
	GetPending(ctx context.Context, limit int) ([]*dispatchDomain.Delivery, error)
	Update(ctx context.Context, delivery *dispatchDomain.Delivery) error
}

// SignerRepository defines the signer operations the dispatcher needs to
// mirror delivery outcomes onto signers.
type SignerRepository interface {
	Get(ctx context.Context, signerID uuid.UUID) (*documentDomain.Signer, error)
	Update(ctx context.Context, signer *documentDomain.Signer) error
}

// DocumentRepository defines the document operations the dispatcher needs.
// GetForUpdate serializes the result callback with other document mutations.
type DocumentRepository interface {
	GetForUpdate(ctx context.Context, documentID uuid.UUID) (*documentDomain.Document, error)
}

// TimelineRecorder appends events to the document timeline.
type TimelineRecorder interface {
	Record(ctx context.Context, documentID uuid.UUID, signerID *uuid.UUID, eventType timelineDomain.EventType, actor timelineDomain.ActorType, payload any) (*timelineDomain.Event, error)
}

// DispatchUseCase defines the interface for delivery dispatch business logic.
type DispatchUseCase interface {
	// EnqueueInvitation queues an invitation (or resend) carrying the signing
	// link. Must run inside the caller's transaction so the delivery commits
	// atomically with the invite.
	EnqueueInvitation(ctx context.Context, document *documentDomain.Document, signer *documentDomain.Signer, signingLink string, resend bool) (*dispatchDomain.Delivery, error)

	// SendCode queues an OTP code delivery. Satisfies the OTP module's
	// CodeSender dependency.
	SendCode(ctx context.Context, signer *documentDomain.Signer, channel documentDomain.AuthChannel, code string) error

	// HandleResult applies the outcome reported by the notification service
	// for a delivery, mirroring it onto the signer and the timeline.
	HandleResult(ctx context.Context, deliveryID uuid.UUID, delivered bool, reason string) (*dispatchDomain.Delivery, error)

	// Start runs the polling worker until the context is cancelled.
	Start(ctx context.Context) error

	// ProcessDeliveries dispatches one batch of pending deliveries.
	ProcessDeliveries(ctx context.Context) error
}
