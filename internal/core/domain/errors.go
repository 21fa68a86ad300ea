package domain

import (
	"errors"
	"fmt"
)

var (
	ErrAccessDenied       = errors.New("access denied")
	ErrBusinessNotFound   = errors.New("business not found")
	ErrProductNotFound    = errors.New("product not found")
	ErrInventoryNotFound  = errors.New("inventory record not found")
	ErrConflict           = errors.New("snapshot version conflict")
	ErrTrialCodeInvalid   = errors.New("trial code invalid or expired")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// ValidationError reports a malformed or out-of-range input field. It is
// surfaced to the caller and never retried.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
