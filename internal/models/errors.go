package models

import "errors"

var (
	ErrValidation  = errors.New("validation error")
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrForbidden   = errors.New("forbidden")
	ErrUnavailable = errors.New("dependency unavailable")

	// ErrDuplicateReference is raised when a booking insert trips the unique
	// reference index; the reservation path retries once before giving up.
	ErrDuplicateReference = errors.New("duplicate booking reference")
)
