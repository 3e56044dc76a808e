package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

// EssayFilter narrows the result set of EssayStore.List. Zero values mean
// "no constraint" for the corresponding field.
type EssayFilter struct {
	// UserID restricts results to essays owned by this user. Required for
	// list queries; essays are never listed across users.
	UserID uuid.UUID

	// Status, when non-empty, restricts results to essays in this status.
	Status domain.EssayStatus

	// Limit caps the number of results. Implementations apply a default
	// when zero.
	Limit int

	// Offset skips this many results for pagination.
	Offset int
}

// EssayPage is one page of essay list results plus the total count the
// filter matches, so callers can render pagination.
type EssayPage struct {
	Essays []*domain.Essay
	Total  int64
}

// EssayStore defines the interface for essay data persistence.
type EssayStore interface {
	// Create saves a new essay to the store.
	// Returns validation errors from the domain Essay if data is invalid.
	Create(ctx context.Context, essay *domain.Essay) error

	// GetByID retrieves an essay by its unique ID.
	// Returns ErrEssayNotFound if the essay does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Essay, error)

	// List retrieves essays matching the filter, most recent first.
	List(ctx context.Context, filter EssayFilter) (*EssayPage, error)

	// GetVersion retrieves the essay version with the given number among
	// the versions regraded from the parent essay.
	// Returns ErrEssayNotFound if no such version exists.
	GetVersion(ctx context.Context, parentID uuid.UUID, versionNumber int) (*domain.Essay, error)

	// ListInStatus retrieves up to limit essays in the given status across
	// all users, oldest first. Used at startup to re-enqueue essays whose
	// grading was interrupted by a shutdown.
	ListInStatus(ctx context.Context, status domain.EssayStatus, limit int) ([]*domain.Essay, error)

	// UpdateStatus transitions an essay to the given status.
	// Returns ErrEssayNotFound if the essay does not exist.
	UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EssayStatus) error

	// Delete removes an essay and its grading records.
	// Returns ErrEssayNotFound if the essay does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a new EssayStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) EssayStore
}
