package domain

import (
	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// Document and signer errors.
var (
	// ErrDocumentNotFound indicates a document with the specified ID was not found.
	ErrDocumentNotFound = errors.Wrap(errors.ErrNotFound, "document not found")

	// ErrSignerNotFound indicates a signer with the specified ID was not found.
	ErrSignerNotFound = errors.Wrap(errors.ErrNotFound, "signer not found")

	// ErrInvalidDocumentState indicates the operation is not allowed in the
	// document's current status.
	ErrInvalidDocumentState = errors.WithCode(
		errors.Wrap(errors.ErrInvalidState, "document status does not allow this operation"),
		"invalid_document_state",
	)

	// ErrInvalidStateTransition indicates a signer step was attempted out of
	// order. The state machine never coerces; the client must follow the flow.
	ErrInvalidStateTransition = errors.WithCode(
		errors.Wrap(errors.ErrInvalidState, "invalid signer state transition"),
		"invalid_state_transition",
	)

	// ErrPositionOutOfBounds indicates a signature placement outside the
	// document page bounds.
	ErrPositionOutOfBounds = errors.WithCode(
		errors.Wrap(errors.ErrInvalidInput, "signature position out of bounds"),
		"position_out_of_bounds",
	)

	// ErrConcurrencyConflict indicates a lost race on a document-level update.
	// Safe to retry once after re-fetching current state.
	ErrConcurrencyConflict = errors.WithCode(
		errors.Wrap(errors.ErrConflict, "document was modified concurrently"),
		"concurrency_conflict",
	)
)
