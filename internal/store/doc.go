// Package store declares the persistence interfaces the services depend on,
// plus the sentinel errors and transaction helper shared by their
// implementations. Concrete stores live in internal/platform/postgres.
package store
