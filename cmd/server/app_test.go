package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/events"
	"github.com/redpen-app/redpen-api/internal/store"
)

type mockSubmitter struct {
	submitFn func(ctx context.Context, essayID, userID uuid.UUID) (uuid.UUID, error)

	calls int
}

func (m *mockSubmitter) Submit(ctx context.Context, essayID, userID uuid.UUID) (uuid.UUID, error) {
	m.calls++
	if m.submitFn != nil {
		return m.submitFn(ctx, essayID, userID)
	}
	return uuid.New(), nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestGradeRequestEventHandlerSubmitsJob(t *testing.T) {
	t.Parallel()

	essayID := uuid.New()
	userID := uuid.New()

	var gotEssayID, gotUserID uuid.UUID
	submitter := &mockSubmitter{
		submitFn: func(_ context.Context, essayID, userID uuid.UUID) (uuid.UUID, error) {
			gotEssayID = essayID
			gotUserID = userID
			return uuid.New(), nil
		},
	}

	handler := NewGradeRequestEventHandler(submitter, testLogger())

	event, err := events.NewGradeRequestEvent(events.EventTypeGradeEssay, map[string]string{
		"essay_id": essayID.String(),
		"user_id":  userID.String(),
	})
	require.NoError(t, err)

	err = handler.HandleEvent(context.Background(), event)
	require.NoError(t, err)

	assert.Equal(t, 1, submitter.calls)
	assert.Equal(t, essayID, gotEssayID)
	assert.Equal(t, userID, gotUserID)
}

func TestGradeRequestEventHandlerIgnoresUnknownType(t *testing.T) {
	t.Parallel()

	submitter := &mockSubmitter{}
	handler := NewGradeRequestEventHandler(submitter, testLogger())

	event, err := events.NewGradeRequestEvent("reindex_essays", map[string]string{
		"essay_id": uuid.New().String(),
	})
	require.NoError(t, err)

	err = handler.HandleEvent(context.Background(), event)
	require.NoError(t, err)
	assert.Zero(t, submitter.calls)
}

func TestGradeRequestEventHandlerRejectsMalformedPayload(t *testing.T) {
	t.Parallel()

	submitter := &mockSubmitter{}
	handler := NewGradeRequestEventHandler(submitter, testLogger())

	event := &events.GradeRequestEvent{
		ID:      uuid.New(),
		Type:    events.EventTypeGradeEssay,
		Payload: json.RawMessage(`{"essay_id": 42}`),
	}

	err := handler.HandleEvent(context.Background(), event)
	require.Error(t, err)
	assert.Zero(t, submitter.calls)
}

// stubEssayStore implements store.EssayStore; only listing by status is
// interesting for the startup resync tests.
type stubEssayStore struct {
	listInStatusFn func(ctx context.Context, status domain.EssayStatus, limit int) ([]*domain.Essay, error)
}

func (s *stubEssayStore) Create(ctx context.Context, essay *domain.Essay) error { return nil }

func (s *stubEssayStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Essay, error) {
	return nil, store.ErrEssayNotFound
}

func (s *stubEssayStore) GetVersion(
	ctx context.Context,
	parentID uuid.UUID,
	versionNumber int,
) (*domain.Essay, error) {
	return nil, store.ErrEssayNotFound
}

func (s *stubEssayStore) List(ctx context.Context, filter store.EssayFilter) (*store.EssayPage, error) {
	return &store.EssayPage{}, nil
}

func (s *stubEssayStore) ListInStatus(
	ctx context.Context,
	status domain.EssayStatus,
	limit int,
) ([]*domain.Essay, error) {
	if s.listInStatusFn != nil {
		return s.listInStatusFn(ctx, status, limit)
	}
	return nil, nil
}

func (s *stubEssayStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EssayStatus) error {
	return nil
}

func (s *stubEssayStore) Delete(ctx context.Context, id uuid.UUID) error { return nil }

func (s *stubEssayStore) WithTx(tx *sql.Tx) store.EssayStore { return s }

func pendingEssay(t *testing.T) *domain.Essay {
	t.Helper()
	essay, err := domain.NewEssay(uuid.New(), uuid.Nil, "", "essay text", domain.EssaySourceText)
	require.NoError(t, err)
	return essay
}

func TestResyncPendingEssaysResubmits(t *testing.T) {
	t.Parallel()

	first := pendingEssay(t)
	second := pendingEssay(t)

	essays := &stubEssayStore{
		listInStatusFn: func(_ context.Context, status domain.EssayStatus, limit int) ([]*domain.Essay, error) {
			assert.Equal(t, domain.EssayStatusPending, status)
			assert.Equal(t, resyncPendingEssayLimit, limit)
			return []*domain.Essay{first, second}, nil
		},
	}

	var submitted []uuid.UUID
	submitter := &mockSubmitter{
		submitFn: func(_ context.Context, essayID, userID uuid.UUID) (uuid.UUID, error) {
			submitted = append(submitted, essayID)
			return uuid.New(), nil
		},
	}

	err := resyncPendingEssays(context.Background(), essays, submitter, testLogger())
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first.ID, second.ID}, submitted)
}

func TestResyncPendingEssaysNothingPending(t *testing.T) {
	t.Parallel()

	submitter := &mockSubmitter{}
	err := resyncPendingEssays(context.Background(), &stubEssayStore{}, submitter, testLogger())
	require.NoError(t, err)
	assert.Zero(t, submitter.calls)
}

func TestResyncPendingEssaysSkipsFailedSubmissions(t *testing.T) {
	t.Parallel()

	first := pendingEssay(t)
	second := pendingEssay(t)

	essays := &stubEssayStore{
		listInStatusFn: func(_ context.Context, _ domain.EssayStatus, _ int) ([]*domain.Essay, error) {
			return []*domain.Essay{first, second}, nil
		},
	}
	submitter := &mockSubmitter{
		submitFn: func(_ context.Context, essayID, _ uuid.UUID) (uuid.UUID, error) {
			if essayID == first.ID {
				return uuid.Nil, errors.New("queue full")
			}
			return uuid.New(), nil
		},
	}

	err := resyncPendingEssays(context.Background(), essays, submitter, testLogger())
	require.NoError(t, err)
	assert.Equal(t, 2, submitter.calls)
}
