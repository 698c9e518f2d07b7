// Package validation provides custom validation rules for the application.
package validation

import (
	"regexp"
	"strings"

	validation "github.com/jellydator/validation"

	apperrors "github.com/gsPatrick/garimponos-sign/internal/errors"
)

var (
	// emailRegex is a basic email validation pattern
	emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// e164Regex matches phone numbers in E.164 format (+ followed by up to 15 digits)
	e164Regex = regexp.MustCompile(`^\+[1-9][0-9]{6,14}$`)

	// digitsRegex matches strings composed only of decimal digits
	digitsRegex = regexp.MustCompile(`^[0-9]+$`)
)

// WrapValidationError wraps validation errors as domain ErrInvalidInput
func WrapValidationError(err error) error {
	if err == nil {
		return nil
	}
	return apperrors.Wrap(apperrors.ErrInvalidInput, err.Error())
}

// Email validates email format using regex
var Email = validation.NewStringRuleWithError(
	func(s string) bool {
		return emailRegex.MatchString(s)
	},
	validation.NewError("validation_email_format", "must be a valid email address"),
)

// E164Phone validates phone numbers in international E.164 format
var E164Phone = validation.NewStringRuleWithError(
	func(s string) bool {
		return e164Regex.MatchString(s)
	},
	validation.NewError("validation_e164_phone", "must be a phone number in E.164 format"),
)

// Digits validates that a string contains only decimal digits
var Digits = validation.NewStringRuleWithError(
	func(s string) bool {
		return digitsRegex.MatchString(s)
	},
	validation.NewError("validation_digits", "must contain only digits"),
)

// TaxID validates a Brazilian CPF-style tax id: 11 digits, optionally with
// the conventional punctuation (000.000.000-00)
var TaxID = validation.NewStringRuleWithError(
	func(s string) bool {
		stripped := strings.NewReplacer(".", "", "-", "").Replace(s)
		return len(stripped) == 11 && digitsRegex.MatchString(stripped)
	},
	validation.NewError("validation_tax_id", "must be an 11-digit tax id"),
)

// NotBlank validates that a string is not empty after trimming whitespace
var NotBlank = validation.NewStringRuleWithError(
	func(s string) bool {
		return strings.TrimSpace(s) != ""
	},
	validation.NewError("validation_not_blank", "must not be blank"),
)
