package domain

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrValidation         = errors.New("validation failed")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrVariantGeneration  = errors.New("variant generation failed")
	ErrStoreWrite         = errors.New("catalog store write failed")
	ErrStoreUnavailable   = errors.New("catalog store unavailable")
	ErrRevisionConflict   = errors.New("catalog document revision conflict")
	ErrPaymentUnavailable = errors.New("payment provider unavailable")
)

// ValidationError carries a message safe to show the admin. It matches
// ErrValidation with errors.Is.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func NewValidationError(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}
