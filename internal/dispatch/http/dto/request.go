// Package dto provides data transfer objects for HTTP request and response handling.
package dto

import (
	validation "github.com/jellydator/validation"
)

// DeliveryResultRequest is the outcome callback posted by the external
// notification service after it attempted a delivery.
type DeliveryResultRequest struct {
	Delivered bool   `json:"delivered"`
	Reason    string `json:"reason"`
}

// Validate checks if the delivery result request is valid. A failure must
// carry a reason so the owner can act on it.
func (r *DeliveryResultRequest) Validate() error {
	rules := []validation.Rule{validation.Length(0, 1024)}
	if !r.Delivered {
		rules = append([]validation.Rule{validation.Required}, rules...)
	}

	return validation.ValidateStruct(r,
		validation.Field(&r.Reason, rules...),
	)
}
