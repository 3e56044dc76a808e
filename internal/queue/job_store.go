package queue

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

// Common errors returned by the JobStore
var (
	ErrJobNotFound    = errors.New("grading job not found")
	ErrJobTerminal    = errors.New("grading job is already in a terminal state")
	ErrEssayHasJob    = errors.New("essay already has an active grading job")
	ErrInvalidUpdate  = errors.New("invalid job status update")
	ErrDuplicateJobID = errors.New("job ID already exists")
)

// StatusUpdate carries the payload of a status transition. Result must be
// set exactly when the new status is completed, Error exactly when it is
// failed; any other combination is rejected.
type StatusUpdate struct {
	Result   *domain.GradingResult
	Degraded bool
	Error    string
}

// JobStore is the in-memory, authoritative view of in-flight grading work.
// It is the single shared mutable structure in the queue core and therefore
// the synchronization boundary: all access goes through short critical
// sections, never held across I/O.
type JobStore struct {
	mu      sync.Mutex
	jobs    map[uuid.UUID]*Job
	byEssay map[uuid.UUID]uuid.UUID // essayID -> active (pending/processing) job ID
	nextSeq uint64
}

// NewJobStore creates an empty JobStore.
func NewJobStore() *JobStore {
	return &JobStore{
		jobs:    make(map[uuid.UUID]*Job),
		byEssay: make(map[uuid.UUID]uuid.UUID),
	}
}

// Put records a new job. It enforces the single-flight invariant: at most
// one job per essay may be pending or processing at a time. Returns
// ErrEssayHasJob if the essay already has an active job.
func (s *JobStore) Put(job *Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[job.ID]; exists {
		return ErrDuplicateJobID
	}

	if activeID, busy := s.byEssay[job.EssayID]; busy {
		return fmt.Errorf("%w: job %s", ErrEssayHasJob, activeID)
	}

	stored := *job
	stored.seq = s.nextSeq
	s.nextSeq++

	s.jobs[stored.ID] = &stored
	s.byEssay[stored.EssayID] = stored.ID
	return nil
}

// Get returns a snapshot of the job with the given ID.
func (s *JobStore) Get(id uuid.UUID) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return Job{}, false
	}
	return *job, true
}

// ActiveJobForEssay returns a snapshot of the essay's pending or processing
// job, if one exists.
func (s *JobStore) ActiveJobForEssay(essayID uuid.UUID) (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	jobID, ok := s.byEssay[essayID]
	if !ok {
		return Job{}, false
	}
	return *s.jobs[jobID], true
}

// ListPending returns snapshots of all pending jobs ordered by creation
// time ascending, with the insertion sequence as a stable tie-break so the
// ordering is deterministic even for identical timestamps.
func (s *JobStore) ListPending() []Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pendingLocked()
}

// HasPending reports whether any job is currently pending.
func (s *JobStore) HasPending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if job.Status == JobStatusPending {
			return true
		}
	}
	return false
}

// ClaimNextPending atomically selects the oldest pending job and marks it
// processing. The claim and the status write happen under one lock so no
// two loop iterations can claim the same job.
func (s *JobStore) ClaimNextPending() (Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pending := s.pendingLocked()
	if len(pending) == 0 {
		return Job{}, false
	}

	job := s.jobs[pending[0].ID]
	job.Status = JobStatusProcessing
	job.UpdatedAt = nowUTC()
	return *job, true
}

// UpdateStatus transitions a job to the given status. Terminal jobs reject
// further transitions, and the update payload must match the target status:
// a result for completed, an error message for failed, neither otherwise.
func (s *JobStore) UpdateStatus(id uuid.UUID, status JobStatus, update StatusUpdate) error {
	if err := validateUpdate(status, update); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}

	if job.Status.IsTerminal() {
		return fmt.Errorf("%w: %s", ErrJobTerminal, job.Status)
	}

	job.Status = status
	job.Result = update.Result
	job.Degraded = update.Degraded
	job.Error = update.Error
	job.UpdatedAt = nowUTC()

	// Terminal jobs release their essay for future re-grading.
	if status.IsTerminal() {
		delete(s.byEssay, job.EssayID)
	}

	return nil
}

// Stats holds queue counters grouped by job status.
type Stats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// Stats returns the current counts of jobs by status.
func (s *JobStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats Stats
	for _, job := range s.jobs {
		switch job.Status {
		case JobStatusPending:
			stats.Pending++
		case JobStatusProcessing:
			stats.Processing++
		case JobStatusCompleted:
			stats.Completed++
		case JobStatusFailed:
			stats.Failed++
		}
	}
	return stats
}

// pendingLocked collects pending job snapshots in FIFO order.
// Callers must hold s.mu.
func (s *JobStore) pendingLocked() []Job {
	pending := make([]Job, 0)
	for _, job := range s.jobs {
		if job.Status == JobStatusPending {
			pending = append(pending, *job)
		}
	}

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].CreatedAt.Equal(pending[j].CreatedAt) {
			return pending[i].seq < pending[j].seq
		}
		return pending[i].CreatedAt.Before(pending[j].CreatedAt)
	})

	return pending
}

// validateUpdate checks the result/error exclusivity rules for a transition.
func validateUpdate(status JobStatus, update StatusUpdate) error {
	switch status {
	case JobStatusCompleted:
		if update.Result == nil || update.Error != "" {
			return fmt.Errorf("%w: completed requires a result and no error", ErrInvalidUpdate)
		}
	case JobStatusFailed:
		if update.Error == "" || update.Result != nil {
			return fmt.Errorf("%w: failed requires an error and no result", ErrInvalidUpdate)
		}
	case JobStatusPending, JobStatusProcessing:
		if update.Result != nil || update.Error != "" {
			return fmt.Errorf("%w: %s carries neither result nor error", ErrInvalidUpdate, status)
		}
	default:
		return fmt.Errorf("%w: unknown status %q", ErrInvalidUpdate, status)
	}
	return nil
}
