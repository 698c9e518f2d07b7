// Package usecase implements business logic for the document timeline. The
// timeline is an append-only audit log; entries are recorded by the document
// and signing use cases and read back by the owner API.
package usecase

import (
	"context"

	"github.com/google/uuid"

	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// EventRepository defines the interface for timeline Event persistence operations.
type EventRepository interface {
	Append(ctx context.Context, event *timelineDomain.Event) error
	ListByDocument(ctx context.Context, documentID uuid.UUID, offset, limit uint) ([]*timelineDomain.Event, error)
	CountByDocument(ctx context.Context, documentID uuid.UUID) (int64, error)
}

// TimelineUseCase defines the interface for timeline business logic.
type TimelineUseCase interface {
	// Record appends an event to a document's timeline. It must run inside
	// the same transaction as the state change it describes, while the
	// document row lock is held.
	Record(ctx context.Context, documentID uuid.UUID, signerID *uuid.UUID, eventType timelineDomain.EventType, actor timelineDomain.ActorType, payload any) (*timelineDomain.Event, error)

	// ListByDocument returns the timeline of a document ordered by sequence.
	ListByDocument(ctx context.Context, documentID uuid.UUID, offset, limit uint) ([]*timelineDomain.Event, int64, error)
}
