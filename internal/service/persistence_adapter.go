package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/queue"
	"github.com/redpen-app/redpen-api/internal/store"
)

// PersistenceAdapter bridges the grading queue to the store layer. The
// queue worker loads essays and rubrics through it and writes grading
// records and essay status transitions back.
type PersistenceAdapter struct {
	essayStore  store.EssayStore
	rubricStore store.RubricStore
	recordStore store.GradingRecordStore
}

// NewPersistenceAdapter creates an adapter over the given stores.
func NewPersistenceAdapter(
	essayStore store.EssayStore,
	rubricStore store.RubricStore,
	recordStore store.GradingRecordStore,
) *PersistenceAdapter {
	if essayStore == nil || rubricStore == nil || recordStore == nil {
		panic("persistence adapter stores cannot be nil")
	}

	return &PersistenceAdapter{
		essayStore:  essayStore,
		rubricStore: rubricStore,
		recordStore: recordStore,
	}
}

// Ensure PersistenceAdapter implements queue.Persistence
var _ queue.Persistence = (*PersistenceAdapter)(nil)

// GetEssay implements queue.Persistence.GetEssay
func (a *PersistenceAdapter) GetEssay(ctx context.Context, id uuid.UUID) (*domain.Essay, error) {
	return a.essayStore.GetByID(ctx, id)
}

// GetRubric implements queue.Persistence.GetRubric
func (a *PersistenceAdapter) GetRubric(ctx context.Context, id uuid.UUID) (*domain.Rubric, error) {
	return a.rubricStore.GetByID(ctx, id)
}

// CreateGradingRecord implements queue.Persistence.CreateGradingRecord
func (a *PersistenceAdapter) CreateGradingRecord(ctx context.Context, record *domain.GradingRecord) error {
	return a.recordStore.Create(ctx, record)
}

// GetGradingRecord implements queue.Persistence.GetGradingRecord
func (a *PersistenceAdapter) GetGradingRecord(ctx context.Context, essayID uuid.UUID) (*domain.GradingRecord, error) {
	return a.recordStore.GetLatestByEssayID(ctx, essayID)
}

// UpdateEssayStatus implements queue.Persistence.UpdateEssayStatus
func (a *PersistenceAdapter) UpdateEssayStatus(
	ctx context.Context,
	essayID uuid.UUID,
	status domain.EssayStatus,
) error {
	return a.essayStore.UpdateStatus(ctx, essayID, status)
}
