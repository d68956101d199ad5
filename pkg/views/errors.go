package views

import (
	"errors"
	"fmt"
)

var (
	ErrNameRequired  = errors.New("name is required")
	ErrDuplicateName = errors.New("name already exists")
	ErrInvalidStage  = errors.New("stage must be development, staging or production")
	ErrReadOnly      = errors.New("view is read-only")
	ErrClosed        = errors.New("view is closed")
)

// ValidationError is returned when input is rejected before any request
// is made.
type ValidationError struct {
	Subject string
	Field   string
	Value   string
	reason  error
}

func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("%s %s: %q", e.Subject, e.reason, e.Value)
	}
	return fmt.Sprintf("%s %s", e.Subject, e.reason)
}

func (e *ValidationError) Unwrap() error {
	return e.reason
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
