package errors

import "errors"

// Application-wide sentinel errors. Flow-specific errors live next to the
// services that produce them.
var (
	// ErrNotFound is returned when a record or resource does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrValidation is returned for malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrConflict is returned for state conflicts (e.g. duplicate order id).
	ErrConflict = errors.New("resource state conflict")
)
