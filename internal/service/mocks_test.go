package service

import (
	"context"
	"database/sql"
	"io"
	"log/slog"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/store"
)

// Hand-written mocks with function fields, so each test overrides only the
// calls it cares about.

type mockEssayStore struct {
	createFn       func(ctx context.Context, essay *domain.Essay) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*domain.Essay, error)
	getVersionFn   func(ctx context.Context, parentID uuid.UUID, versionNumber int) (*domain.Essay, error)
	listFn         func(ctx context.Context, filter store.EssayFilter) (*store.EssayPage, error)
	listInStatusFn func(ctx context.Context, status domain.EssayStatus, limit int) ([]*domain.Essay, error)
	updateStatusFn func(ctx context.Context, id uuid.UUID, status domain.EssayStatus) error
	deleteFn       func(ctx context.Context, id uuid.UUID) error
}

func (m *mockEssayStore) Create(ctx context.Context, essay *domain.Essay) error {
	if m.createFn != nil {
		return m.createFn(ctx, essay)
	}
	return nil
}

func (m *mockEssayStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Essay, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrEssayNotFound
}

func (m *mockEssayStore) GetVersion(
	ctx context.Context,
	parentID uuid.UUID,
	versionNumber int,
) (*domain.Essay, error) {
	if m.getVersionFn != nil {
		return m.getVersionFn(ctx, parentID, versionNumber)
	}
	return nil, store.ErrEssayNotFound
}

func (m *mockEssayStore) List(ctx context.Context, filter store.EssayFilter) (*store.EssayPage, error) {
	if m.listFn != nil {
		return m.listFn(ctx, filter)
	}
	return &store.EssayPage{}, nil
}

func (m *mockEssayStore) ListInStatus(
	ctx context.Context,
	status domain.EssayStatus,
	limit int,
) ([]*domain.Essay, error) {
	if m.listInStatusFn != nil {
		return m.listInStatusFn(ctx, status, limit)
	}
	return nil, nil
}

func (m *mockEssayStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EssayStatus) error {
	if m.updateStatusFn != nil {
		return m.updateStatusFn(ctx, id, status)
	}
	return nil
}

func (m *mockEssayStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockEssayStore) WithTx(tx *sql.Tx) store.EssayStore { return m }

type mockRubricStore struct {
	createFn     func(ctx context.Context, rubric *domain.Rubric) error
	getByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.Rubric, error)
	listFn       func(ctx context.Context, userID uuid.UUID, scene domain.RubricScene) ([]*domain.Rubric, error)
	updateFn     func(ctx context.Context, rubric *domain.Rubric) error
	deleteFn     func(ctx context.Context, id uuid.UUID) error
	setDefaultFn func(ctx context.Context, userID, rubricID uuid.UUID) error
}

func (m *mockRubricStore) Create(ctx context.Context, rubric *domain.Rubric) error {
	if m.createFn != nil {
		return m.createFn(ctx, rubric)
	}
	return nil
}

func (m *mockRubricStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rubric, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrRubricNotFound
}

func (m *mockRubricStore) List(
	ctx context.Context,
	userID uuid.UUID,
	scene domain.RubricScene,
) ([]*domain.Rubric, error) {
	if m.listFn != nil {
		return m.listFn(ctx, userID, scene)
	}
	return nil, nil
}

func (m *mockRubricStore) Update(ctx context.Context, rubric *domain.Rubric) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, rubric)
	}
	return nil
}

func (m *mockRubricStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

func (m *mockRubricStore) SetDefault(ctx context.Context, userID, rubricID uuid.UUID) error {
	if m.setDefaultFn != nil {
		return m.setDefaultFn(ctx, userID, rubricID)
	}
	return nil
}

func (m *mockRubricStore) WithTx(tx *sql.Tx) store.RubricStore { return m }

type mockRecordStore struct {
	createFn        func(ctx context.Context, record *domain.GradingRecord) error
	getByIDFn       func(ctx context.Context, id uuid.UUID) (*domain.GradingRecord, error)
	getLatestFn     func(ctx context.Context, essayID uuid.UUID) (*domain.GradingRecord, error)
	listByEssayIDFn func(ctx context.Context, essayID uuid.UUID) ([]*domain.GradingRecord, error)
}

func (m *mockRecordStore) Create(ctx context.Context, record *domain.GradingRecord) error {
	if m.createFn != nil {
		return m.createFn(ctx, record)
	}
	return nil
}

func (m *mockRecordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GradingRecord, error) {
	if m.getByIDFn != nil {
		return m.getByIDFn(ctx, id)
	}
	return nil, store.ErrGradingRecordNotFound
}

func (m *mockRecordStore) GetLatestByEssayID(
	ctx context.Context,
	essayID uuid.UUID,
) (*domain.GradingRecord, error) {
	if m.getLatestFn != nil {
		return m.getLatestFn(ctx, essayID)
	}
	return nil, store.ErrGradingRecordNotFound
}

func (m *mockRecordStore) ListByEssayID(
	ctx context.Context,
	essayID uuid.UUID,
) ([]*domain.GradingRecord, error) {
	if m.listByEssayIDFn != nil {
		return m.listByEssayIDFn(ctx, essayID)
	}
	return nil, nil
}

func (m *mockRecordStore) WithTx(tx *sql.Tx) store.GradingRecordStore { return m }

type mockRecognizer struct {
	recognizeFn func(ctx context.Context, imageURL string) (string, error)
}

func (m *mockRecognizer) RecognizeText(ctx context.Context, imageURL string) (string, error) {
	if m.recognizeFn != nil {
		return m.recognizeFn(ctx, imageURL)
	}
	return "recognized text", nil
}

type mockSubmitter struct {
	submitFn func(ctx context.Context, essayID, userID uuid.UUID) (uuid.UUID, error)
	calls    int
}

func (m *mockSubmitter) Submit(ctx context.Context, essayID, userID uuid.UUID) (uuid.UUID, error) {
	m.calls++
	if m.submitFn != nil {
		return m.submitFn(ctx, essayID, userID)
	}
	return uuid.New(), nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
