package dto

import (
	"time"

	dispatchDomain "github.com/gsPatrick/garimponos-sign/internal/dispatch/domain"
)

// DeliveryResponse represents a delivery in API responses. The payload is
// omitted since it may carry one-time codes.
type DeliveryResponse struct {
	ID           string     `json:"id"`
	DocumentID   string     `json:"document_id"`
	SignerID     string     `json:"signer_id"`
	Kind         string     `json:"kind"`
	Channel      string     `json:"channel"`
	Recipient    string     `json:"recipient"`
	Status       string     `json:"status"`
	Attempts     int        `json:"attempts"`
	LastError    *string    `json:"last_error,omitempty"`
	DispatchedAt *time.Time `json:"dispatched_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// MapDeliveryToResponse converts a domain delivery to an API response.
func MapDeliveryToResponse(delivery *dispatchDomain.Delivery) DeliveryResponse {
	return DeliveryResponse{
		ID:           delivery.ID.String(),
		DocumentID:   delivery.DocumentID.String(),
		SignerID:     delivery.SignerID.String(),
		Kind:         string(delivery.Kind),
		Channel:      delivery.Channel,
		Recipient:    delivery.Recipient,
		Status:       string(delivery.Status),
		Attempts:     delivery.Attempts,
		LastError:    delivery.LastError,
		DispatchedAt: delivery.DispatchedAt,
		CreatedAt:    delivery.CreatedAt,
		UpdatedAt:    delivery.UpdatedAt,
	}
}
