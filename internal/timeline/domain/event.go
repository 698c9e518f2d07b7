// Package domain defines the append-only timeline event log recorded for every
// document state change.
package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// EventType identifies what happened to a document or one of its signers.
type EventType string

const (
	EventDocumentCreated     EventType = "document.created"
	EventDocumentUpdated     EventType = "document.updated"
	EventDocumentCompleted   EventType = "document.completed"
	EventDocumentCancelled   EventType = "document.cancelled"
	EventDocumentExpired     EventType = "document.expired"
	EventSignerAttached      EventType = "signer.attached"
	EventSignerInvited       EventType = "signer.invited"
	EventInvitationResent    EventType = "signer.invitation_resent"
	EventDeliveryUpdated     EventType = "signer.delivery_updated"
	EventSignerIdentified    EventType = "signer.identified"
	EventSignatureCaptured   EventType = "signer.signature_captured"
	EventSignaturePositioned EventType = "signer.signature_positioned"
	EventOtpRequested        EventType = "signer.otp_requested"
	EventOtpVerified         EventType = "signer.otp_verified"
	EventOtpFailed           EventType = "signer.otp_failed"
	EventSignerCommitted     EventType = "signer.committed"
	EventSignerDeclined      EventType = "signer.declined"
	EventSignerExpired       EventType = "signer.expired"
)

// ActorType identifies who triggered an event.
type ActorType string

const (
	ActorOwner  ActorType = "owner"
	ActorSigner ActorType = "signer"
	ActorSystem ActorType = "system"
)

// ErrEventNotFound indicates a timeline event was not found.
var ErrEventNotFound = errors.Wrap(errors.ErrNotFound, "timeline event not found")

// Event is one immutable entry of a document's timeline. Sequence is assigned
// at insert time and is contiguous per document; events are never updated or
// deleted after insertion.
type Event struct {
	ID         uuid.UUID
	DocumentID uuid.UUID
	SignerID   *uuid.UUID
	Sequence   int64
	Type       EventType
	ActorType  ActorType
	Payload    json.RawMessage
	CreatedAt  time.Time
}

// NewEvent creates an unsequenced timeline event. The repository assigns the
// per-document sequence while the document row is locked.
func NewEvent(documentID uuid.UUID, signerID *uuid.UUID, eventType EventType, actor ActorType, payload any) (*Event, error) {
	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, errors.Wrap(err, "failed to marshal event payload")
		}
		raw = data
	}

	return &Event{
		ID:         uuid.Must(uuid.NewV7()),
		DocumentID: documentID,
		SignerID:   signerID,
		Type:       eventType,
		ActorType:  actor,
		Payload:    raw,
		CreatedAt:  time.Now().UTC(),
	}, nil
}
