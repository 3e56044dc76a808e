// Package service provides application-level services for managing essays, rubrics, and users.
package service

import "errors"

// Common service errors - sentinel errors used across service implementations.
// These errors represent common conditions that callers may want to check for with errors.Is().
//
// Error handling principles:
// 1. Service methods return sentinel errors for expected error conditions
// 2. Unexpected errors are wrapped in service-specific error types
// 3. Callers use errors.Is/errors.As to check for specific error conditions
// 4. The API layer maps service errors to appropriate HTTP status codes
var (
	// ErrNotOwned indicates a resource is owned by a different user than the one making the request.
	// API layer should map this to HTTP 403 Forbidden.
	ErrNotOwned = errors.New("resource is owned by another user")

	// ErrEssayNotFound indicates that the requested essay does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrEssayNotFound = errors.New("essay not found")

	// ErrRubricNotFound indicates that the requested rubric does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrRubricNotFound = errors.New("rubric not found")

	// ErrResultNotFound indicates that no grading result exists for the essay.
	// API layer should map this to HTTP 404 Not Found.
	ErrResultNotFound = errors.New("grading result not found")

	// ErrBuiltInRubric indicates an attempt to modify or delete a built-in rubric.
	// API layer should map this to HTTP 403 Forbidden.
	ErrBuiltInRubric = errors.New("built-in rubrics cannot be modified")

	// ErrVersionNotFound indicates that a requested essay version does not exist.
	// API layer should map this to HTTP 404 Not Found.
	ErrVersionNotFound = errors.New("essay version not found")
)
