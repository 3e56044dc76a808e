package domain

import "errors"

// Sentinel errors shared across the domain entities. Entity-specific errors
// live next to their entity; these cover the cross-cutting cases.
var (
	// ErrValidation marks an entity that failed validation. Usually wrapped
	// with the failing field's detail.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID marks a malformed or zero identifier.
	ErrInvalidID = errors.New("invalid ID")

	// ErrUnauthorized marks an operation on a resource the caller does not
	// own.
	ErrUnauthorized = errors.New("unauthorized operation")
)
