package models

import (
	"errors"
	"fmt"
)

// ErrTicketNotFound is returned when a ticket_id does not resolve to a
// stored ticket.
var ErrTicketNotFound = errors.New("ticket not found")

// ValidationError reports a request that failed input validation. Field
// names the offending input in its wire form.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason == "" {
		return fmt.Sprintf("%s is required", e.Field)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// NewValidationError reports a required field that was missing or blank.
func NewValidationError(field string) *ValidationError {
	return &ValidationError{Field: field}
}

// UpstreamError reports a failure in a dependency the request handler
// cannot recover from, such as the store or the completion service.
type UpstreamError struct {
	Service   string
	Retryable bool
	Err       error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsUpstream reports whether err is a dependency failure.
func IsUpstream(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue)
}
