package usecase

import (
	"context"

	"github.com/google/uuid"

	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// timelineUseCase implements the TimelineUseCase interface.
type timelineUseCase struct {
	eventRepo EventRepository
}

// Record appends an event to a document's timeline.
func (t *timelineUseCase) Record(
	ctx context.Context,
	documentID uuid.UUID,
	signerID *uuid.UUID,
	eventType timelineDomain.EventType,
	actor timelineDomain.ActorType,
	payload any,
) (*timelineDomain.Event, error) {
	event, err := timelineDomain.NewEvent(documentID, signerID, eventType, actor, payload)
	if err != nil {
		return nil, err
	}

	if err := t.eventRepo.Append(ctx, event); err != nil {
		return nil, err
	}

	return event, nil
}

// ListByDocument returns the timeline of a document ordered by sequence,
// along with the total event count for pagination.
func (t *timelineUseCase) ListByDocument(
	ctx context.Context,
	documentID uuid.UUID,
	offset, limit uint,
) ([]*timelineDomain.Event, int64, error) {
	events, err := t.eventRepo.ListByDocument(ctx, documentID, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	count, err := t.eventRepo.CountByDocument(ctx, documentID)
	if err != nil {
		return nil, 0, err
	}

	return events, count, nil
}

// NewTimelineUseCase creates a new timeline use case instance.
func NewTimelineUseCase(eventRepo EventRepository) TimelineUseCase {
	return &timelineUseCase{eventRepo: eventRepo}
}
