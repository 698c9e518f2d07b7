// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	"time"

	validation "github.com/jellydator/validation"

	customValidation "github.com/gsPatrick/garimponos-sign/internal/validation"
)

// CreateDocumentRequest contains the parameters for creating a document.
type CreateDocumentRequest struct {
	Title      string     `json:"title"`
	OwnerID    string     `json:"owner_id"`
	PageCount  int        `json:"page_count"`
	DeadlineAt *time.Time `json:"deadline_at"`
}

// Validate checks if the create document request is valid.
func (r *CreateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.OwnerID, validation.Required),
		validation.Field(&r.PageCount, validation.Required, validation.Min(1)),
	)
}

// UpdateDocumentRequest contains the mutable document fields. Absent fields
// are left unchanged.
type UpdateDocumentRequest struct {
	Title      *string    `json:"title"`
	DeadlineAt *time.Time `json:"deadline_at"`
}

// Validate checks if the update document request is valid.
func (r *UpdateDocumentRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Title, validation.NilOrNotEmpty, validation.Length(1, 255)),
	)
}

// AttachSignerRequest contains the parameters for attaching a signer to a document.
type AttachSignerRequest struct {
	Name          string   `json:"name"`
	Email         string   `json:"email"`
	Phone         string   `json:"phone"`
	TaxID         string   `json:"tax_id"`
	Qualification string   `json:"qualification"`
	AuthChannels  []string `json:"auth_channels"`
}

// Validate checks if the attach signer request is valid. Phone is required
// when the whatsapp channel is enabled, since codes cannot be delivered
// without a number.
func (r *AttachSignerRequest) Validate() error {
	phoneRules := []validation.Rule{customValidation.E164Phone}
	for _, channel := range r.AuthChannels {
		if channel == "whatsapp" {
			phoneRules = append([]validation.Rule{validation.Required}, phoneRules...)
			break
		}
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Required, customValidation.NotBlank, validation.Length(1, 255)),
		validation.Field(&r.Email, validation.Required, customValidation.Email),
		validation.Field(&r.Phone, phoneRules...),
		validation.Field(&r.TaxID, customValidation.TaxID),
		validation.Field(&r.Qualification, validation.Length(0, 255)),
		validation.Field(&r.AuthChannels, validation.Each(validation.In("email", "whatsapp"))),
	)
}
