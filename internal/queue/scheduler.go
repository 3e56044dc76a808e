package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/grading"
)

// schedulerState is the explicit lifecycle of the drain loop, replacing the
// polled boolean flag the queue grew up with.
type schedulerState int

const (
	schedulerIdle schedulerState = iota
	schedulerRunning
)

// Scheduler drains pending jobs to completion, one at a time. At most one
// drain loop is active: submitting while a loop runs only enqueues, and the
// running loop re-scans before exiting so nothing submitted mid-drain is
// missed. One job's failure never halts the loop.
type Scheduler struct {
	store       *JobStore
	persistence Persistence
	grader      grading.Grader
	logger      *slog.Logger

	mu    sync.Mutex
	state schedulerState
}

// NewScheduler creates a Scheduler over the given job store, persistence
// collaborator and grader. If logger is nil, the default logger is used.
func NewScheduler(
	store *JobStore,
	persistence Persistence,
	grader grading.Grader,
	logger *slog.Logger,
) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		store:       store,
		persistence: persistence,
		grader:      grader,
		logger:      logger.With("component", "grading_scheduler"),
	}
}

// Trigger starts the drain loop if it is not already running. It returns
// immediately; the loop runs on its own goroutine and stops once no pending
// work remains.
func (s *Scheduler) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == schedulerRunning {
		return
	}
	s.state = schedulerRunning

	go s.drain()
}

// Running reports whether a drain loop is currently active.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == schedulerRunning
}

// drain claims and processes pending jobs in FIFO order until the queue is
// empty. The emptiness check and the idle transition happen under the same
// lock Trigger uses, so a submission racing with loop shutdown either gets
// picked up by this loop or starts a fresh one.
func (s *Scheduler) drain() {
	for {
		job, ok := s.store.ClaimNextPending()
		if !ok {
			s.mu.Lock()
			if !s.store.HasPending() {
				s.state = schedulerIdle
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			continue
		}

		s.processJob(context.Background(), job)
	}
}

// processJob runs one claimed job through grade, normalize and persist.
// Any panic is confined to this iteration and converted into a failed job
// so subsequent jobs still run.
func (s *Scheduler) processJob(ctx context.Context, job Job) {
	logger := s.logger.With("job_id", job.ID, "essay_id", job.EssayID)

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic while processing grading job", "panic", r)
			s.failJob(job.ID, fmt.Sprintf("internal error: %v", r), logger)
		}
	}()

	logger.Info("processing grading job")

	essay, err := s.persistence.GetEssay(ctx, job.EssayID)
	if err != nil {
		logger.Error("failed to load essay", "error", err)
		s.failJob(job.ID, fmt.Sprintf("essay not found: %v", err), logger)
		return
	}

	var rubric *domain.Rubric
	if essay.RubricID != uuid.Nil {
		rubric, err = s.persistence.GetRubric(ctx, essay.RubricID)
		if err != nil {
			logger.Error("failed to load rubric", "error", err, "rubric_id", essay.RubricID)
			s.failJob(job.ID, fmt.Sprintf("rubric not found: %v", err), logger)
			return
		}
	}

	customPrompt := ""
	if rubric != nil {
		customPrompt = rubric.CustomPrompt
	}

	raw, err := s.grader.Grade(ctx, essay.Content, rubric, customPrompt)
	if err != nil {
		logger.Error("grading call failed", "error", err)
		// A terminal zero-score record is still persisted so the essay's
		// attempt history is never silently missing an attempt. The essay's
		// own status is left untouched.
		s.persistFailureRecord(ctx, job, logger)
		s.failJob(job.ID, fmt.Sprintf("grading failed: %v", err), logger)
		return
	}

	outcome := grading.ParseResult(raw)
	if outcome.Degraded {
		logger.Warn("model response could not be parsed, using degraded result",
			"raw_sample", outcome.RawSample)
	}

	record, err := domain.NewGradingRecord(
		job.EssayID,
		outcome.Result,
		s.grader.Model(),
		processingSeconds(job),
	)
	if err != nil {
		logger.Error("failed to build grading record", "error", err)
		s.failJob(job.ID, fmt.Sprintf("invalid grading record: %v", err), logger)
		return
	}

	if err := s.persistence.CreateGradingRecord(ctx, record); err != nil {
		logger.Error("failed to persist grading result", "error", err)
		s.failJob(job.ID, fmt.Sprintf("failed to persist grading result: %v", err), logger)
		return
	}

	// The durable record is the source of truth from here on; the essay
	// status write and the in-memory completion mark are best-effort.
	if err := s.persistence.UpdateEssayStatus(ctx, job.EssayID, domain.EssayStatusGraded); err != nil {
		logger.Error("failed to update essay status after grading", "error", err)
	}

	result := outcome.Result
	if err := s.store.UpdateStatus(job.ID, JobStatusCompleted, StatusUpdate{
		Result:   &result,
		Degraded: outcome.Degraded,
	}); err != nil {
		logger.Error("failed to mark job completed", "error", err)
		return
	}

	logger.Info("grading job completed",
		"overall_score", outcome.Result.OverallScore,
		"degraded", outcome.Degraded,
		"processing_seconds", record.ProcessingTime)
}

// persistFailureRecord writes the zero-score terminal record for a failed
// grading attempt. Persistence errors here are logged and swallowed; the
// job is failing either way.
func (s *Scheduler) persistFailureRecord(ctx context.Context, job Job, logger *slog.Logger) {
	record, err := domain.NewGradingRecord(
		job.EssayID,
		domain.ZeroScoreResult(),
		s.grader.Model(),
		processingSeconds(job),
	)
	if err != nil {
		logger.Error("failed to build failure record", "error", err)
		return
	}

	if err := s.persistence.CreateGradingRecord(ctx, record); err != nil {
		logger.Error("failed to persist failure record", "error", err)
	}
}

// failJob marks a job failed, logging rather than propagating store errors
// so the loop keeps draining.
func (s *Scheduler) failJob(id uuid.UUID, msg string, logger *slog.Logger) {
	if err := s.store.UpdateStatus(id, JobStatusFailed, StatusUpdate{Error: msg}); err != nil {
		logger.Error("failed to mark job failed", "error", err)
	}
}

// processingSeconds is the wall-clock duration since the job was submitted,
// which is what gets recorded with each persisted attempt.
func processingSeconds(job Job) int {
	return int(time.Since(job.CreatedAt).Seconds())
}
