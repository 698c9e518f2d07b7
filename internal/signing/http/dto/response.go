package dto

import (
	"time"

	signingUseCase "github.com/gsPatrick/garimponos-sign/internal/signing/usecase"
)

// SessionDocumentResponse is the document view exposed to a signer. It carries
// only what the signing flow needs; owner data stays on the owner API.
type SessionDocumentResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	PageCount  int        `json:"page_count"`
	DeadlineAt *time.Time `json:"deadline_at,omitempty"`
}

// SessionSignerResponse is the signer's own state in the signing flow.
type SessionSignerResponse struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone,omitempty"`
	TaxID         string     `json:"tax_id,omitempty"`
	Qualification string     `json:"qualification,omitempty"`
	AuthChannels  []string   `json:"auth_channels"`
	Status        string     `json:"status"`
	OtpVerifiedAt *time.Time `json:"otp_verified_at,omitempty"`
	CommittedAt   *time.Time `json:"committed_at,omitempty"`
}

// SessionResponse represents the signing flow state returned by every step.
type SessionResponse struct {
	Document  SessionDocumentResponse `json:"document"`
	Signer    SessionSignerResponse   `json:"signer"`
	ExpiresAt time.Time               `json:"expires_at"`
}

// MapViewToSessionResponse converts a signing flow view to an API response.
func MapViewToSessionResponse(view *signingUseCase.SignerSessionView) SessionResponse {
	channels := make([]string, 0, len(view.Signer.AuthChannels))
	for _, channel := range view.Signer.AuthChannels {
		channels = append(channels, string(channel))
	}

	return SessionResponse{
		Document: SessionDocumentResponse{
			ID:         view.Document.ID.String(),
			Title:      view.Document.Title,
			Status:     string(view.Document.Status),
			PageCount:  view.Document.PageCount,
			DeadlineAt: view.Document.DeadlineAt,
		},
		Signer: SessionSignerResponse{
			ID:            view.Signer.ID.String(),
			Name:          view.Signer.Name,
			Email:         view.Signer.Email,
			Phone:         view.Signer.Phone,
			TaxID:         view.Signer.TaxID,
			Qualification: view.Signer.Qualification,
			AuthChannels:  channels,
			Status:        string(view.Signer.Status),
			OtpVerifiedAt: view.Signer.OtpVerifiedAt,
			CommittedAt:   view.Signer.CommittedAt,
		},
		ExpiresAt: view.Session.ExpiresAt,
	}
}
