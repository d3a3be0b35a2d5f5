// Package apperr defines the error taxonomy shared by services and handlers.
// Handlers never inspect error strings; they map these types to HTTP statuses.
package apperr

import "fmt"

// Machine-readable error codes returned to clients.
const (
	CodeInvalidInput       = "invalid_input"
	CodeTotalMismatch      = "total_mismatch"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthenticated    = "unauthenticated"
	CodeEmailTaken         = "email_taken"
	CodeNotFound           = "not_found"
	CodeInternal           = "internal_error"
)

// ValidationError reports malformed or missing input. Always a 400.
type ValidationError struct {
	Code   string
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("validation failed: %s", e.Code)
	}
	return fmt.Sprintf("validation failed: %s %v", e.Code, e.Fields)
}

// Invalid returns a ValidationError with the invalid_input code.
func Invalid(fields map[string]string) *ValidationError {
	return &ValidationError{Code: CodeInvalidInput, Fields: fields}
}

// AuthenticationError reports bad credentials or a missing/expired session.
type AuthenticationError struct {
	Code string
}

func (e *AuthenticationError) Error() string { return "authentication failed: " + e.Code }

// ConflictError reports a uniqueness violation, e.g. a taken email.
type ConflictError struct {
	Code string
}

func (e *ConflictError) Error() string { return "conflict: " + e.Code }

// NotFoundError reports a missing catalogue entry or preview.
type NotFoundError struct {
	Code     string
	Resource string
}

func (e *NotFoundError) Error() string { return e.Resource + " not found" }

// NotificationFailure reports a failed email or WhatsApp delivery. Order and
// contact flows log it and carry on.
type NotificationFailure struct {
	Channel string
	Err     error
}

func (e *NotificationFailure) Error() string {
	return fmt.Sprintf("%s notification failed: %v", e.Channel, e.Err)
}

func (e *NotificationFailure) Unwrap() error { return e.Err }

// PersistenceFailure wraps a store error. It aborts the request with a 500.
type PersistenceFailure struct {
	Op  string
	Err error
}

func (e *PersistenceFailure) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *PersistenceFailure) Unwrap() error { return e.Err }

// Persistence wraps err unless it is nil.
func Persistence(op string, err error) error {
	if err == nil {
		return nil
	}
	return &PersistenceFailure{Op: op, Err: err}
}
