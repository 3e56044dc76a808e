package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/api/shared"
	"github.com/redpen-app/redpen-api/internal/queue"
)

// JobStatusProvider is the queue surface consumed by the grading handler.
// It is satisfied by queue.GradingQueue.
type JobStatusProvider interface {
	// GetStatus returns the current view of a grading job.
	GetStatus(ctx context.Context, jobID uuid.UUID) (*queue.Job, error)

	// Stats returns the current queue counters grouped by job status.
	Stats() queue.Stats
}

// GradingHandler handles grading job status requests.
type GradingHandler struct {
	jobs   JobStatusProvider
	logger *slog.Logger
}

// NewGradingHandler creates a new GradingHandler with the given dependencies.
func NewGradingHandler(jobs JobStatusProvider, logger *slog.Logger) *GradingHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &GradingHandler{
		jobs:   jobs,
		logger: logger.With(slog.String("component", "grading_handler")),
	}
}

// GetJobStatus handles GET /grading/jobs/{id}. Jobs lost to a restart are
// reconstructed from the durable store when the ID resolves to an essay, so
// polling clients always get an answer for work that was accepted.
func (h *GradingHandler) GetJobStatus(w http.ResponseWriter, r *http.Request) {
	userID, jobID, ok := handleUserIDAndPathUUID(w, r, "id", h.logger)
	if !ok {
		return
	}

	job, err := h.jobs.GetStatus(r.Context(), jobID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	// Job ownership mirrors essay ownership.
	if job.UserID != userID {
		h.logger.Warn("job access denied",
			"job_id", jobID,
			"owner_id", job.UserID,
			"requester_id", userID)
		shared.RespondWithError(w, r, http.StatusForbidden, "You do not own this resource")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, NewJobStatusResponse(job))
}

// GetQueueStats handles GET /grading/stats.
func (h *GradingHandler) GetQueueStats(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithJSON(w, r, http.StatusOK, h.jobs.Stats())
}
