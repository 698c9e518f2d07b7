package dto

import (
	"encoding/json"
	"time"

	documentDomain "github.com/gsPatrick/garimponos-sign/internal/document/domain"
	timelineDomain "github.com/gsPatrick/garimponos-sign/internal/timeline/domain"
)

// DocumentResponse represents a document in API responses.
type DocumentResponse struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Status     string     `json:"status"`
	DeadlineAt *time.Time `json:"deadline_at,omitempty"`
	PageCount  int        `json:"page_count"`
	OwnerID    string     `json:"owner_id"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// SignaturePositionResponse represents a signature placement in API responses.
type SignaturePositionResponse struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// SignerResponse represents a signer in API responses.
type SignerResponse struct {
	ID             string                     `json:"id"`
	DocumentID     string                     `json:"document_id"`
	Name           string                     `json:"name"`
	Email          string                     `json:"email"`
	Phone          string                     `json:"phone,omitempty"`
	TaxID          string                     `json:"tax_id,omitempty"`
	Qualification  string                     `json:"qualification,omitempty"`
	AuthChannels   []string                   `json:"auth_channels"`
	Status         string                     `json:"status"`
	DeliveryStatus string                     `json:"delivery_status"`
	Position       *SignaturePositionResponse `json:"position,omitempty"`
	OtpVerifiedAt  *time.Time                 `json:"otp_verified_at,omitempty"`
	CommittedAt    *time.Time                 `json:"committed_at,omitempty"`
	CreatedAt      time.Time                  `json:"created_at"`
	UpdatedAt      time.Time                  `json:"updated_at"`
}

// DocumentWithSignersResponse bundles a document and its signers.
type DocumentWithSignersResponse struct {
	DocumentResponse
	Signers []SignerResponse `json:"signers"`
}

// ListDocumentsResponse represents a paginated list of documents in API responses.
type ListDocumentsResponse struct {
	Data []DocumentResponse `json:"data"`
}

// TimelineEventResponse represents one timeline entry in API responses.
type TimelineEventResponse struct {
	ID        string          `json:"id"`
	SignerID  *string         `json:"signer_id,omitempty"`
	Sequence  int64           `json:"sequence"`
	Type      string          `json:"type"`
	ActorType string          `json:"actor_type"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// ListTimelineResponse represents a document timeline in API responses.
type ListTimelineResponse struct {
	Data  []TimelineEventResponse `json:"data"`
	Total int64                   `json:"total"`
}

// MapDocumentToResponse converts a domain document to an API response.
func MapDocumentToResponse(document *documentDomain.Document) DocumentResponse {
	return DocumentResponse{
		ID:         document.ID.String(),
		Title:      document.Title,
		Status:     string(document.Status),
		DeadlineAt: document.DeadlineAt,
		PageCount:  document.PageCount,
		OwnerID:    document.OwnerID.String(),
		CreatedAt:  document.CreatedAt,
		UpdatedAt:  document.UpdatedAt,
	}
}

// MapSignerToResponse converts a domain signer to an API response.
func MapSignerToResponse(signer *documentDomain.Signer) SignerResponse {
	channels := make([]string, 0, len(signer.AuthChannels))
	for _, channel := range signer.AuthChannels {
		channels = append(channels, string(channel))
	}

	response := SignerResponse{
		ID:             signer.ID.String(),
		DocumentID:     signer.DocumentID.String(),
		Name:           signer.Name,
		Email:          signer.Email,
		Phone:          signer.Phone,
		TaxID:          signer.TaxID,
		Qualification:  signer.Qualification,
		AuthChannels:   channels,
		Status:         string(signer.Status),
		DeliveryStatus: string(signer.DeliveryStatus),
		OtpVerifiedAt:  signer.OtpVerifiedAt,
		CommittedAt:    signer.CommittedAt,
		CreatedAt:      signer.CreatedAt,
		UpdatedAt:      signer.UpdatedAt,
	}
	if signer.Position != nil {
		response.Position = &SignaturePositionResponse{
			Page: signer.Position.Page,
			X:    signer.Position.X,
			Y:    signer.Position.Y,
		}
	}

	return response
}

// MapDocumentWithSignersToResponse converts a document and its signers to an API response.
func MapDocumentWithSignersToResponse(document *documentDomain.Document, signers []*documentDomain.Signer) DocumentWithSignersResponse {
	data := make([]SignerResponse, 0, len(signers))
	for _, signer := range signers {
		data = append(data, MapSignerToResponse(signer))
	}

	return DocumentWithSignersResponse{
		DocumentResponse: MapDocumentToResponse(document),
		Signers:          data,
	}
}

// MapDocumentsToListResponse converts a slice of domain documents to a list response.
func MapDocumentsToListResponse(documents []*documentDomain.Document) ListDocumentsResponse {
	data := make([]DocumentResponse, 0, len(documents))
	for _, document := range documents {
		data = append(data, MapDocumentToResponse(document))
	}

	return ListDocumentsResponse{
		Data: data,
	}
}

// MapEventsToTimelineResponse converts timeline events to a list response.
func MapEventsToTimelineResponse(events []*timelineDomain.Event, total int64) ListTimelineResponse {
	data := make([]TimelineEventResponse, 0, len(events))
	for _, event := range events {
		item := TimelineEventResponse{
			ID:        event.ID.String(),
			Sequence:  event.Sequence,
			Type:      string(event.Type),
			ActorType: string(event.ActorType),
			Payload:   event.Payload,
			CreatedAt: event.CreatedAt,
		}
		if event.SignerID != nil {
			signerID := event.SignerID.String()
			item.SignerID = &signerID
		}
		data = append(data, item)
	}

	return ListTimelineResponse{
		Data:  data,
		Total: total,
	}
}
