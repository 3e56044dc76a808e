package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

// RubricStore defines the interface for rubric data persistence.
type RubricStore interface {
	// Create saves a new rubric to the store.
	// Returns validation errors from the domain Rubric if data is invalid,
	// including ErrInvalidWeightSum when dimension weights do not sum to 1.
	Create(ctx context.Context, rubric *domain.Rubric) error

	// GetByID retrieves a rubric by its unique ID.
	// Returns ErrRubricNotFound if the rubric does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Rubric, error)

	// List retrieves rubrics visible to the given user, meaning built-in
	// rubrics plus the user's own. When scene is non-empty, only rubrics
	// for that scene are returned.
	List(ctx context.Context, userID uuid.UUID, scene domain.RubricScene) ([]*domain.Rubric, error)

	// Update modifies an existing rubric.
	// Returns ErrRubricNotFound if the rubric does not exist.
	Update(ctx context.Context, rubric *domain.Rubric) error

	// Delete removes a rubric by its ID.
	// Returns ErrRubricNotFound if the rubric does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// SetDefault marks the given rubric as the user's default, clearing
	// the default flag from any other rubric the user owns. Callers run
	// both writes inside one transaction via WithTx.
	// Returns ErrRubricNotFound if the rubric does not exist.
	SetDefault(ctx context.Context, userID, rubricID uuid.UUID) error

	// WithTx returns a new RubricStore instance that uses the provided
	// transaction. The transaction is created and managed by the caller.
	WithTx(tx *sql.Tx) RubricStore
}
