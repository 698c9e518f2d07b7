package domain

import (
	"github.com/gsPatrick/garimponos-sign/internal/errors"
)

// Signing session errors. Invalid and unknown tokens are indistinguishable to
// the caller so the public endpoint cannot be used as an existence oracle.
var (
	// ErrTokenInvalid indicates the presented token matches no session.
	ErrTokenInvalid = errors.WithCode(
		errors.Wrap(errors.ErrNotFound, "signing token is invalid"),
		"token_invalid",
	)

	// ErrTokenExpired indicates the session expired before use.
	ErrTokenExpired = errors.WithCode(
		errors.Wrap(errors.ErrGone, "signing token has expired"),
		"token_expired",
	)

	// ErrTokenConsumed indicates the session was already used to commit.
	ErrTokenConsumed = errors.WithCode(
		errors.Wrap(errors.ErrGone, "signing token was already used"),
		"token_consumed",
	)

	// ErrTokenRevoked indicates the session was superseded by a newer
	// invitation or invalidated by document cancellation.
	ErrTokenRevoked = errors.WithCode(
		errors.Wrap(errors.ErrGone, "signing token was revoked"),
		"token_revoked",
	)
)
