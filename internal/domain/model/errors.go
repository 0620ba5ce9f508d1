package model

// ValidationError reports rejected user input, such as an empty or duplicate
// database name. It is surfaced immediately and never retried.
type ValidationError struct {
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a ValidationError with the given reason.
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}
