package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

// GradingRecordStore defines the interface for persisted grading attempts.
type GradingRecordStore interface {
	// Create saves a new grading record to the store.
	// Returns validation errors from the domain GradingRecord if data is
	// invalid.
	Create(ctx context.Context, record *domain.GradingRecord) error

	// GetByID retrieves a grading record by its unique ID.
	// Returns ErrGradingRecordNotFound if the record does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.GradingRecord, error)

	// GetLatestByEssayID retrieves the most recent grading record for the
	// given essay.
	// Returns ErrGradingRecordNotFound if the essay has never been graded.
	GetLatestByEssayID(ctx context.Context, essayID uuid.UUID) (*domain.GradingRecord, error)

	// ListByEssayID retrieves all grading records for the given essay,
	// most recent first.
	ListByEssayID(ctx context.Context, essayID uuid.UUID) ([]*domain.GradingRecord, error)

	// WithTx returns a new GradingRecordStore instance that uses the
	// provided transaction. The transaction is created and managed by the
	// caller.
	WithTx(tx *sql.Tx) GradingRecordStore
}
