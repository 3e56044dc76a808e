package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/queue"
)

func TestGradingHandler_GetJobStatus(t *testing.T) {
	t.Parallel()

	userID := uuid.New()

	t.Run("returns a completed job with its result", func(t *testing.T) {
		t.Parallel()

		jobID := uuid.New()
		result := domain.GradingResult{OverallScore: 92, MaxScore: 100}
		provider := &mockJobStatusProvider{
			getStatusFn: func(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
				assert.Equal(t, jobID, id)
				return &queue.Job{
					ID:        jobID,
					EssayID:   uuid.New(),
					UserID:    userID,
					Status:    queue.JobStatusCompleted,
					Result:    &result,
					CreatedAt: time.Now().UTC(),
					UpdatedAt: time.Now().UTC(),
				}, nil
			},
		}
		handler := NewGradingHandler(provider, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/grading/jobs/"+jobID.String(), nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Get("/grading/jobs/{id}", handler.GetJobStatus)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp JobStatusResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, jobID, resp.JobID)
		assert.Equal(t, "completed", resp.Status)
		require.NotNil(t, resp.Result)
		assert.Equal(t, 92, resp.Result.OverallScore)
	})

	t.Run("failed job carries the error message", func(t *testing.T) {
		t.Parallel()

		jobID := uuid.New()
		provider := &mockJobStatusProvider{
			getStatusFn: func(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
				return &queue.Job{
					ID:      jobID,
					EssayID: uuid.New(),
					UserID:  userID,
					Status:  queue.JobStatusFailed,
					Error:   "grading failed",
				}, nil
			},
		}
		handler := NewGradingHandler(provider, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/grading/jobs/"+jobID.String(), nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Get("/grading/jobs/{id}", handler.GetJobStatus)
		}, req, userID)

		require.Equal(t, http.StatusOK, rr.Code)

		var resp JobStatusResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "failed", resp.Status)
		assert.Equal(t, "grading failed", resp.Error)
		assert.Nil(t, resp.Result)
	})

	t.Run("unknown job returns not found", func(t *testing.T) {
		t.Parallel()

		handler := NewGradingHandler(&mockJobStatusProvider{}, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/grading/jobs/"+uuid.NewString(), nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Get("/grading/jobs/{id}", handler.GetJobStatus)
		}, req, userID)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("another user's job returns forbidden", func(t *testing.T) {
		t.Parallel()

		provider := &mockJobStatusProvider{
			getStatusFn: func(ctx context.Context, id uuid.UUID) (*queue.Job, error) {
				return &queue.Job{
					ID:      id,
					EssayID: uuid.New(),
					UserID:  uuid.New(),
					Status:  queue.JobStatusPending,
				}, nil
			},
		}
		handler := NewGradingHandler(provider, discardLogger())

		req := httptest.NewRequest(http.MethodGet, "/grading/jobs/"+uuid.NewString(), nil)
		rr := serveAuthenticated(func(r chi.Router) {
			r.Get("/grading/jobs/{id}", handler.GetJobStatus)
		}, req, userID)

		assert.Equal(t, http.StatusForbidden, rr.Code)
	})
}

func TestGradingHandler_GetQueueStats(t *testing.T) {
	t.Parallel()

	provider := &mockJobStatusProvider{
		statsFn: func() queue.Stats {
			return queue.Stats{Pending: 2, Processing: 1, Completed: 7, Failed: 1}
		},
	}
	handler := NewGradingHandler(provider, discardLogger())

	req := httptest.NewRequest(http.MethodGet, "/grading/stats", nil)
	rr := serveAuthenticated(func(r chi.Router) {
		r.Get("/grading/stats", handler.GetQueueStats)
	}, req, uuid.New())

	require.Equal(t, http.StatusOK, rr.Code)

	var stats queue.Stats
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Pending)
	assert.Equal(t, 7, stats.Completed)
}
