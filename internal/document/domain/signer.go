package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// SignerStatus represents the position of a signer in its state machine.
type SignerStatus string

const (
	// SignerStatusInvited is the initial status after the owner attaches a signer.
	SignerStatusInvited SignerStatus = "invited"

	// SignerStatusIdentified means the signer confirmed their name and contact data.
	SignerStatusIdentified SignerStatus = "identified"

	// SignerStatusCapturedSignature means a signature image was captured and stored.
	SignerStatusCapturedSignature SignerStatus = "captured_signature"

	// SignerStatusPositioned means the signature placement was chosen and validated.
	SignerStatusPositioned SignerStatus = "positioned"

	// SignerStatusOtpPending means an OTP challenge was requested for final verification.
	SignerStatusOtpPending SignerStatus = "otp_pending"

	// SignerStatusCommitted means the signature was finalized. Terminal.
	SignerStatusCommitted SignerStatus = "committed"

	// SignerStatusDeclined means the signer explicitly refused to sign. Terminal.
	SignerStatusDeclined SignerStatus = "declined"

	// SignerStatusExpired means the document deadline passed before commit. Terminal.
	SignerStatusExpired SignerStatus = "expired"
)

// AuthChannel identifies a contact channel usable for invitations and OTP delivery.
type AuthChannel string

const (
	AuthChannelEmail    AuthChannel = "email"
	AuthChannelWhatsApp AuthChannel = "whatsapp"
)

// DeliveryStatus tracks the outcome of invitation dispatch as reported by the
// external notification collaborator. It never affects the state machine.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "pending"
	DeliveryStatusRequested DeliveryStatus = "requested"
	DeliveryStatusDelivered DeliveryStatus = "delivered"
	DeliveryStatusFailed    DeliveryStatus = "failed"
)

// SignaturePosition is the placement of a signature on the document.
// Page is 0-based and must be below the document page count.
type SignaturePosition struct {
	Page int
	X    float64
	Y    float64
}

// Signer is one invited party of a document. Its status only moves forward
// through the state machine; Declined and Expired are reachable from any
// non-terminal status. Once terminal, the record is immutable.
type Signer struct {
	ID                uuid.UUID
	DocumentID        uuid.UUID
	Name              string
	Email             string
	Phone             string
	TaxID             string
	Qualification     string
	AuthChannels      []AuthChannel
	Status            SignerStatus
	Position          *SignaturePosition
	ArtifactKey       string
	ClientFingerprint string
	DeliveryStatus    DeliveryStatus
	OtpVerifiedAt     *time.Time
	CommittedAt       *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// NewSigner creates a signer in Invited for the given document.
func NewSigner(documentID uuid.UUID, name, email, phone, taxID, qualification string, channels []AuthChannel) *Signer {
	now := time.Now().UTC()
	if len(channels) == 0 {
		channels = []AuthChannel{AuthChannelEmail}
	}
	return &Signer{
		ID:             uuid.Must(uuid.NewV7()),
		DocumentID:     documentID,
		Name:           name,
		Email:          email,
		Phone:          phone,
		TaxID:          taxID,
		Qualification:  qualification,
		AuthChannels:   channels,
		Status:         SignerStatusInvited,
		DeliveryStatus: DeliveryStatusPending,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// IsTerminal reports whether the signer reached a terminal status.
func (s *Signer) IsTerminal() bool {
	switch s.Status {
	case SignerStatusCommitted, SignerStatusDeclined, SignerStatusExpired:
		return true
	}
	return false
}

// HasChannel reports whether the given channel is enabled for this signer.
func (s *Signer) HasChannel(channel AuthChannel) bool {
	for _, c := range s.AuthChannels {
		if c == channel {
			return true
		}
	}
	return false
}

// Identify confirms the signer's identity data: Invited -> Identified.
func (s *Signer) Identify() error {
	if s.Status != SignerStatusInvited {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot identify signer in status %q", s.Status)
	}
	s.Status = SignerStatusIdentified
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// CaptureSignature records that a signature image was stored under artifactKey:
// Identified -> CapturedSignature. Re-capture while still in CapturedSignature
// is allowed so the signer can redraw before positioning.
func (s *Signer) CaptureSignature(artifactKey string) error {
	if s.Status != SignerStatusIdentified && s.Status != SignerStatusCapturedSignature {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot capture signature for signer in status %q", s.Status)
	}
	s.Status = SignerStatusCapturedSignature
	s.ArtifactKey = artifactKey
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// PlaceSignature validates and records the signature placement:
// CapturedSignature -> Positioned. The page index is checked against the
// document page count; a rejected placement leaves the signer unchanged.
func (s *Signer) PlaceSignature(position SignaturePosition, pageCount int) error {
	if s.Status != SignerStatusCapturedSignature {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot position signature for signer in status %q", s.Status)
	}
	if position.Page < 0 || position.Page >= pageCount {
		return errors.Wrapf(ErrPositionOutOfBounds, "page %d is outside document with %d pages", position.Page, pageCount)
	}
	if position.X < 0 || position.Y < 0 {
		return errors.Wrapf(ErrPositionOutOfBounds, "coordinates (%.2f, %.2f) must not be negative", position.X, position.Y)
	}
	pos := position
	s.Position = &pos
	s.Status = SignerStatusPositioned
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// BeginOtpVerification moves the signer to OtpPending when the first OTP
// challenge is requested: Positioned -> OtpPending. Requesting another code
// while already pending ("resend") keeps the status.
func (s *Signer) BeginOtpVerification() error {
	if s.Status != SignerStatusPositioned && s.Status != SignerStatusOtpPending {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot start otp verification for signer in status %q", s.Status)
	}
	s.Status = SignerStatusOtpPending
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkOtpVerified records a successful OTP verification while in OtpPending.
// The status is unchanged; Commit requires this mark.
func (s *Signer) MarkOtpVerified(now time.Time) error {
	if s.Status != SignerStatusOtpPending {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot verify otp for signer in status %q", s.Status)
	}
	verifiedAt := now.UTC()
	s.OtpVerifiedAt = &verifiedAt
	s.UpdatedAt = verifiedAt
	return nil
}

// Commit finalizes the signature: OtpPending -> Committed. Requires a prior
// successful OTP verification. After Commit the signer is immutable.
func (s *Signer) Commit(fingerprint string, now time.Time) error {
	if s.Status != SignerStatusOtpPending {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot commit signer in status %q", s.Status)
	}
	if s.OtpVerifiedAt == nil {
		return errors.Wrap(ErrInvalidStateTransition, "cannot commit before otp verification")
	}
	if s.Position == nil || s.ArtifactKey == "" {
		// Should be unreachable given the state machine; a signer in OtpPending
		// without position or artifact means a partially applied prior step.
		return errors.Wrap(errors.ErrInvariant, "signer in otp_pending without position or signature artifact")
	}
	committedAt := now.UTC()
	s.Status = SignerStatusCommitted
	s.ClientFingerprint = fingerprint
	s.CommittedAt = &committedAt
	s.UpdatedAt = committedAt
	return nil
}

// Decline refuses the signature: any non-terminal status -> Declined.
func (s *Signer) Decline() error {
	if s.IsTerminal() {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot decline signer in status %q", s.Status)
	}
	s.Status = SignerStatusDeclined
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// Expire times the signer out: any non-terminal status -> Expired.
func (s *Signer) Expire() error {
	if s.IsTerminal() {
		return errors.Wrapf(ErrInvalidStateTransition, "cannot expire signer in status %q", s.Status)
	}
	s.Status = SignerStatusExpired
	s.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDeliveryStatus records the latest dispatch outcome for this signer.
// Delivery tracking is independent of the signing state machine.
func (s *Signer) SetDeliveryStatus(status DeliveryStatus) {
	s.DeliveryStatus = status
	s.UpdatedAt = time.Now().UTC()
}
