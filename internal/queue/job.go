package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

// JobStatus represents the current state of a grading job.
type JobStatus string

// Possible job status values. Jobs move pending -> processing and then to
// exactly one of the terminal states; no transition leaves completed or failed.
const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// IsTerminal reports whether the status is completed or failed.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job represents one grading request in flight. Result and Error are
// mutually exclusive: Result is set only on the transition to completed,
// Error only on the transition to failed, and both are absent before a
// terminal state is reached.
type Job struct {
	ID        uuid.UUID             `json:"id"`
	EssayID   uuid.UUID             `json:"essay_id"`
	UserID    uuid.UUID             `json:"user_id"`
	Status    JobStatus             `json:"status"`
	Result    *domain.GradingResult `json:"result,omitempty"`
	Degraded  bool                  `json:"degraded,omitempty"`
	Error     string                `json:"error,omitempty"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`

	// seq is the insertion sequence assigned by the JobStore, used as the
	// stable tie-break when two jobs share a creation timestamp.
	seq uint64
}

func nowUTC() time.Time {
	return time.Now().UTC()
}

// NewJob creates a pending grading job for the given essay and user.
func NewJob(essayID, userID uuid.UUID) *Job {
	now := nowUTC()
	return &Job{
		ID:        uuid.New(),
		EssayID:   essayID,
		UserID:    userID,
		Status:    JobStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Persistence is the durable-store collaborator consumed by the queue.
// It is the system of record for essays, rubrics and grading attempts;
// the queue only keeps the in-flight working set.
type Persistence interface {
	// GetEssay retrieves an essay by ID.
	GetEssay(ctx context.Context, id uuid.UUID) (*domain.Essay, error)

	// GetRubric retrieves a rubric by ID.
	GetRubric(ctx context.Context, id uuid.UUID) (*domain.Rubric, error)

	// CreateGradingRecord persists one grading attempt, successful or not.
	CreateGradingRecord(ctx context.Context, record *domain.GradingRecord) error

	// GetGradingRecord retrieves the latest grading attempt for an essay.
	GetGradingRecord(ctx context.Context, essayID uuid.UUID) (*domain.GradingRecord, error)

	// UpdateEssayStatus updates the grading state of the parent essay.
	UpdateEssayStatus(ctx context.Context, essayID uuid.UUID, status domain.EssayStatus) error
}
