package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

// ErrUnknownJob is returned by GetStatus when the ID is neither a live job
// nor resolvable against the durable store.
var ErrUnknownJob = errors.New("unknown grading job")

// GradingQueue is the public entry point to the grading pipeline. Submit
// records a job and wakes the scheduler without blocking on grading;
// GetStatus serves polling callers, falling back to the durable store for
// jobs that did not survive a restart; Stats reports queue counters.
type GradingQueue struct {
	store       *JobStore
	scheduler   *Scheduler
	persistence Persistence
	logger      *slog.Logger
}

// NewGradingQueue wires a queue facade over the given job store, scheduler
// and persistence collaborator. If logger is nil, the default logger is used.
func NewGradingQueue(
	store *JobStore,
	scheduler *Scheduler,
	persistence Persistence,
	logger *slog.Logger,
) *GradingQueue {
	if logger == nil {
		logger = slog.Default()
	}

	return &GradingQueue{
		store:       store,
		scheduler:   scheduler,
		persistence: persistence,
		logger:      logger.With("component", "grading_queue"),
	}
}

// Submit enqueues a grading job for the essay and triggers the scheduler if
// it is idle. It returns as soon as the job is recorded. Submitting an essay
// that already has an active job returns the existing job's ID instead of
// enqueueing a duplicate, preserving the per-essay single-flight guarantee.
func (q *GradingQueue) Submit(ctx context.Context, essayID, userID uuid.UUID) (uuid.UUID, error) {
	if essayID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("essay ID cannot be empty")
	}
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("user ID cannot be empty")
	}

	job := NewJob(essayID, userID)
	if err := q.store.Put(job); err != nil {
		if errors.Is(err, ErrEssayHasJob) {
			if existing, ok := q.store.ActiveJobForEssay(essayID); ok {
				q.logger.Info("essay already queued, returning existing job",
					"essay_id", essayID,
					"job_id", existing.ID)
				return existing.ID, nil
			}
		}
		return uuid.Nil, fmt.Errorf("failed to enqueue grading job: %w", err)
	}

	q.logger.Info("grading job submitted",
		"job_id", job.ID,
		"essay_id", essayID,
		"user_id", userID)

	q.scheduler.Trigger()
	return job.ID, nil
}

// GetStatus returns the current view of a job. IDs missing from the
// in-memory store are resolved against the durable store, treating the ID
// as an essay ID: a restart loses in-flight jobs from memory, but the
// persisted essay and result records remain the ground truth.
func (q *GradingQueue) GetStatus(ctx context.Context, jobID uuid.UUID) (*Job, error) {
	if job, ok := q.store.Get(jobID); ok {
		return &job, nil
	}

	essay, err := q.persistence.GetEssay(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, jobID)
	}

	job := &Job{
		ID:        jobID,
		EssayID:   essay.ID,
		UserID:    essay.UserID,
		CreatedAt: essay.CreatedAt,
		UpdatedAt: essay.UpdatedAt,
	}

	if record, err := q.persistence.GetGradingRecord(ctx, essay.ID); err == nil {
		result := record.Result
		job.Status = JobStatusCompleted
		job.Result = &result
		job.UpdatedAt = record.CreatedAt
		return job, nil
	}

	switch essay.Status {
	case domain.EssayStatusFailed:
		job.Status = JobStatusFailed
		job.Error = "grading failed"
	case domain.EssayStatusGraded:
		job.Status = JobStatusCompleted
	default:
		job.Status = JobStatusPending
	}

	return job, nil
}

// Stats returns the current queue counters grouped by job status.
func (q *GradingQueue) Stats() Stats {
	return q.store.Stats()
}
