// Package service implements the application's use cases: essay lifecycle
// and versioning, rubric management, grading submission, and user accounts.
// Services sit between the HTTP handlers and the stores.
//
// Each service is an interface plus one implementation, wired by constructor
// injection. Services own transactional boundaries: multi-store writes go
// through store.RunInTransaction with WithTx-bound stores. Store and domain
// errors are wrapped in per-service error types; sentinel errors like
// ErrEssayNotFound pass through the wrapping so handlers can map them to
// status codes with errors.Is.
//
// Services depend only on domain entities and the store interfaces, never on
// the postgres implementations.
package service
