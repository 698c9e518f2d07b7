// Package domain defines dispatch deliveries, the transactional outbox rows
// behind invitation and OTP notifications. The engine never talks to email or
// WhatsApp providers directly; it hands deliveries to an external notifier and
// records the outcome it reports back.
package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// DeliveryKind identifies what a delivery carries.
type DeliveryKind string

const (
	DeliveryKindInvitation       DeliveryKind = "invitation"
	DeliveryKindInvitationResend DeliveryKind = "invitation_resend"
	DeliveryKindOtpCode          DeliveryKind = "otp_code"
)

// DeliveryStatus represents the dispatch status of a delivery.
type DeliveryStatus string

const (
	// DeliveryStatusPending means the delivery waits for the worker.
	DeliveryStatusPending DeliveryStatus = "pending"

	// DeliveryStatusRequested means the delivery was handed to the notifier
	// and the engine awaits its result callback.
	DeliveryStatusRequested DeliveryStatus = "requested"

	// DeliveryStatusDelivered means the notifier confirmed delivery.
	DeliveryStatusDelivered DeliveryStatus = "delivered"

	// DeliveryStatusFailed means dispatch gave up after exhausting retries
	// or the notifier reported a permanent failure.
	DeliveryStatusFailed DeliveryStatus = "failed"
)

// ErrDeliveryNotFound indicates a delivery with the specified ID was not found.
var ErrDeliveryNotFound = errors.Wrap(errors.ErrNotFound, "delivery not found")

// ErrDeliveryFinalized indicates a result callback for a delivery that already
// reached a final status.
var ErrDeliveryFinalized = errors.WithCode(
	errors.Wrap(errors.ErrConflict, "delivery already reached a final status"),
	"delivery_finalized",
)

// Delivery is one notification to be dispatched to a signer. Payload carries
// the channel-specific content (signing link or OTP code) as JSON for the
// external notifier.
type Delivery struct {
	ID           uuid.UUID
	DocumentID   uuid.UUID
	SignerID     uuid.UUID
	Kind         DeliveryKind
	Channel      string
	Recipient    string
	Payload      string
	Status       DeliveryStatus
	Attempts     int
	LastError    *string
	DispatchedAt *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NewDelivery creates a pending delivery.
func NewDelivery(documentID, signerID uuid.UUID, kind DeliveryKind, channel, recipient, payload string) *Delivery {
	now := time.Now().UTC()
	return &Delivery{
		ID:         uuid.Must(uuid.NewV7()),
		DocumentID: documentID,
		SignerID:   signerID,
		Kind:       kind,
		Channel:    channel,
		Recipient:  recipient,
		Payload:    payload,
		Status:     DeliveryStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// IsFinal reports whether the delivery reached a final status.
func (d *Delivery) IsFinal() bool {
	return d.Status == DeliveryStatusDelivered || d.Status == DeliveryStatusFailed
}

// MarkRequested records a successful handoff to the notifier.
func (d *Delivery) MarkRequested(now time.Time) {
	dispatchedAt := now.UTC()
	d.Status = DeliveryStatusRequested
	d.DispatchedAt = &dispatchedAt
	d.UpdatedAt = dispatchedAt
}

// RegisterFailure counts a failed dispatch attempt. The delivery goes back to
// pending until maxAttempts is reached, then becomes failed.
func (d *Delivery) RegisterFailure(errMsg string, maxAttempts int) {
	d.Attempts++
	d.LastError = &errMsg
	if d.Attempts >= maxAttempts {
		d.Status = DeliveryStatusFailed
	}
	d.UpdatedAt = time.Now().UTC()
}

// ApplyResult records the outcome reported by the notifier callback.
func (d *Delivery) ApplyResult(delivered bool, reason string) error {
	if d.IsFinal() {
		return ErrDeliveryFinalized
	}
	if delivered {
		d.Status = DeliveryStatusDelivered
	} else {
		d.Status = DeliveryStatusFailed
		if reason != "" {
			d.LastError = &reason
		}
	}
	d.UpdatedAt = time.Now().UTC()
	return nil
}
