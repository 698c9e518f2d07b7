package errors

// CodedError attaches a stable, client-facing code to an error without
// disturbing the wrapped sentinel chain. Handlers surface the code so callers
// can distinguish remediations (e.g. "resend" vs "wait" vs "retry") that map
// to the same HTTP status.
type CodedError struct {
	Code string
	Err  error
}

// Error returns the message of the wrapped error.
func (e *CodedError) Error() string {
	return e.Err.Error()
}

// Unwrap returns the wrapped error, preserving errors.Is/errors.As matching.
func (e *CodedError) Unwrap() error {
	return e.Err
}

// WithCode wraps an error with a client-facing code.
func WithCode(err error, code string) error {
	if err == nil {
		return nil
	}
	return &CodedError{Code: code, Err: err}
}

// CodeOf returns the code of the first CodedError in err's tree, or "" if none.
func CodeOf(err error) string {
	var coded *CodedError
	if As(err, &coded) {
		return coded.Code
	}
	return ""
}
