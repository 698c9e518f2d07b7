// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"

	customValidation "github.com/gsPatrick/garimponos-sign/internal/validation"
)

// IdentifyRequest contains the identity confirmation fields a signer submits.
// All fields are optional; present fields overwrite the values entered by the
// document owner.
type IdentifyRequest struct {
	Name          string `json:"name"`
	Email         string `json:"email"`
	Phone         string `json:"phone"`
	TaxID         string `json:"tax_id"`
	Qualification string `json:"qualification"`
}

// Validate checks if the identify request is valid.
func (r *IdentifyRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Name, validation.Length(0, 255)),
		validation.Field(&r.Email, customValidation.Email),
		validation.Field(&r.Phone, customValidation.E164Phone),
		validation.Field(&r.TaxID, customValidation.TaxID),
		validation.Field(&r.Qualification, validation.Length(0, 255)),
	)
}

// CaptureSignatureRequest contains a base64-encoded signature image.
type CaptureSignatureRequest struct {
	Image       string `json:"image"`
	ContentType string `json:"content_type"`
}

// Validate checks if the capture signature request is valid.
func (r *CaptureSignatureRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Image, validation.Required, customValidation.Base64Image),
		validation.Field(&r.ContentType, validation.Required, validation.In("image/png", "image/jpeg", "image/svg+xml")),
	)
}

// PlaceSignatureRequest contains the signature placement coordinates. Page is
// 0-based; the upper bound is validated against the document page count by the
// signing flow.
type PlaceSignatureRequest struct {
	Page int     `json:"page"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// Validate checks if the place signature request is valid.
func (r *PlaceSignatureRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Page, validation.Min(0)),
		validation.Field(&r.X, validation.Min(0.0)),
		validation.Field(&r.Y, validation.Min(0.0)),
	)
}

// StartOtpRequest contains the channel a one-time code should be sent on.
// An empty channel defaults to email.
type StartOtpRequest struct {
	Channel string `json:"channel"`
}

// Validate checks if the start otp request is valid.
func (r *StartOtpRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Channel, validation.In("email", "whatsapp")),
	)
}

// VerifyOtpRequest contains a submitted one-time code.
type VerifyOtpRequest struct {
	Code string `json:"code"`
}

// Validate checks if the verify otp request is valid.
func (r *VerifyOtpRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Code, validation.Required, customValidation.Digits, validation.Length(4, 10)),
	)
}

// CommitRequest contains the final commit parameters.
type CommitRequest struct {
	Fingerprint string `json:"fingerprint"`
}

// Validate checks if the commit request is valid.
func (r *CommitRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Fingerprint, validation.Length(0, 512)),
	)
}

// DeclineRequest contains an optional refusal reason.
type DeclineRequest struct {
	Reason string `json:"reason"`
}

// Validate checks if the decline request is valid.
func (r *DeclineRequest) Validate() error {
	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, validation.Length(0, 1024)),
	)
}
