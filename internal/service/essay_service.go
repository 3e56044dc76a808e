package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/events"
	"github.com/redpen-app/redpen-api/internal/grading"
	"github.com/redpen-app/redpen-api/internal/store"
)

// GradingSubmitter enqueues grading work for an essay. It is satisfied by
// the queue facade; the service layer stays unaware of the queue internals.
type GradingSubmitter interface {
	// Submit enqueues a grading job and returns its ID without waiting for
	// the grading to run.
	Submit(ctx context.Context, essayID, userID uuid.UUID) (uuid.UUID, error)
}

// EssayService provides essay-related operations.
type EssayService interface {
	// CreateEssay saves a new text essay and emits a grade request so the
	// essay is graded in the background. rubricID may be uuid.Nil when no
	// rubric is selected.
	CreateEssay(
		ctx context.Context,
		userID, rubricID uuid.UUID,
		title, content string,
	) (*domain.Essay, error)

	// CreateEssayFromPhoto recognizes the text in the given image, saves
	// the recognized content as a photo-sourced essay, and emits a grade
	// request for it.
	CreateEssayFromPhoto(
		ctx context.Context,
		userID, rubricID uuid.UUID,
		title, photoURL string,
	) (*domain.Essay, error)

	// GetEssay retrieves an essay, enforcing that it belongs to the user.
	GetEssay(ctx context.Context, userID, essayID uuid.UUID) (*domain.Essay, error)

	// ListEssays retrieves a page of the user's essays, newest first.
	ListEssays(
		ctx context.Context,
		userID uuid.UUID,
		status domain.EssayStatus,
		limit, offset int,
	) (*store.EssayPage, error)

	// DeleteEssay removes an essay and its grading records, enforcing
	// ownership.
	DeleteEssay(ctx context.Context, userID, essayID uuid.UUID) error

	// RequestGrading enqueues a (re)grading job for the essay and returns
	// the job ID, enforcing ownership. Submitting an essay that already has
	// an active job returns the existing job's ID.
	RequestGrading(ctx context.Context, userID, essayID uuid.UUID) (uuid.UUID, error)

	// GetResult retrieves the latest grading result for the essay,
	// enforcing ownership.
	GetResult(ctx context.Context, userID, essayID uuid.UUID) (*domain.GradingRecord, error)

	// RegradeEssay saves revised content as a new version of the essay and
	// emits a grade request for it. The original essay keeps its result.
	RegradeEssay(ctx context.Context, userID, essayID uuid.UUID, content string) (*domain.Essay, error)

	// CompareVersions reports how the grading result changed between two
	// versions of an essay, enforcing ownership of the original.
	CompareVersions(ctx context.Context, userID, essayID uuid.UUID, v1, v2 int) (*VersionComparison, error)
}

// EssayServiceError wraps errors from the essay service with context.
type EssayServiceError struct {
	// Operation is the operation that failed (e.g., "create_essay")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for EssayServiceError.
func (e *EssayServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("essay service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("essay service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *EssayServiceError) Unwrap() error {
	return e.Err
}

// NewEssayServiceError creates a new EssayServiceError.
// It returns known sentinel errors directly without wrapping.
func NewEssayServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrEssayNotFound) || errors.Is(err, ErrNotOwned) || errors.Is(err, ErrVersionNotFound) {
		return err
	}

	if errors.Is(err, store.ErrEssayNotFound) {
		return ErrEssayNotFound
	}

	return &EssayServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// essayServiceImpl implements the EssayService interface
type essayServiceImpl struct {
	essayStore   store.EssayStore
	recordStore  store.GradingRecordStore
	recognizer   grading.TextRecognizer
	submitter    GradingSubmitter
	eventEmitter events.EventEmitter
	db           *sql.DB
	logger       *slog.Logger
}

// NewEssayService creates a new EssayService.
// It returns an error if any of the required dependencies are nil.
func NewEssayService(
	essayStore store.EssayStore,
	recordStore store.GradingRecordStore,
	recognizer grading.TextRecognizer,
	submitter GradingSubmitter,
	eventEmitter events.EventEmitter,
	db *sql.DB,
	logger *slog.Logger,
) (EssayService, error) {
	if essayStore == nil {
		return nil, &EssayServiceError{Operation: "create_service", Message: "essayStore cannot be nil"}
	}
	if recordStore == nil {
		return nil, &EssayServiceError{Operation: "create_service", Message: "recordStore cannot be nil"}
	}
	if recognizer == nil {
		return nil, &EssayServiceError{Operation: "create_service", Message: "recognizer cannot be nil"}
	}
	if submitter == nil {
		return nil, &EssayServiceError{Operation: "create_service", Message: "submitter cannot be nil"}
	}
	if eventEmitter == nil {
		return nil, &EssayServiceError{Operation: "create_service", Message: "eventEmitter cannot be nil"}
	}
	if db == nil {
		return nil, &EssayServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &essayServiceImpl{
		essayStore:   essayStore,
		recordStore:  recordStore,
		recognizer:   recognizer,
		submitter:    submitter,
		eventEmitter: eventEmitter,
		db:           db,
		logger:       logger.With("component", "essay_service"),
	}, nil
}

// gradeRequestPayload is the payload carried by grade request events.
type gradeRequestPayload struct {
	EssayID uuid.UUID `json:"essay_id"`
	UserID  uuid.UUID `json:"user_id"`
}

// CreateEssay creates a text essay with pending status and emits a grade
// request event for background processing.
func (s *essayServiceImpl) CreateEssay(
	ctx context.Context,
	userID, rubricID uuid.UUID,
	title, content string,
) (*domain.Essay, error) {
	essay, err := domain.NewEssay(userID, rubricID, title, content, domain.EssaySourceText)
	if err != nil {
		s.logger.Error("failed to create essay object",
			"error", err,
			"user_id", userID)
		return nil, NewEssayServiceError("create_essay", "failed to create essay object", err)
	}

	if err := s.saveAndRequestGrading(ctx, essay); err != nil {
		return nil, err
	}

	return essay, nil
}

// CreateEssayFromPhoto runs text recognition over the image, then creates a
// photo-sourced essay with the recognized content and emits a grade request
// event for it.
func (s *essayServiceImpl) CreateEssayFromPhoto(
	ctx context.Context,
	userID, rubricID uuid.UUID,
	title, photoURL string,
) (*domain.Essay, error) {
	content, err := s.recognizer.RecognizeText(ctx, photoURL)
	if err != nil {
		s.logger.Error("text recognition failed",
			"error", err,
			"user_id", userID)
		return nil, NewEssayServiceError("create_essay_from_photo", "text recognition failed", err)
	}

	essay, err := domain.NewEssay(userID, rubricID, title, content, domain.EssaySourcePhoto)
	if err != nil {
		s.logger.Error("failed to create essay object from photo",
			"error", err,
			"user_id", userID)
		return nil, NewEssayServiceError("create_essay_from_photo", "failed to create essay object", err)
	}
	essay.PhotoURL = photoURL

	if err := s.saveAndRequestGrading(ctx, essay); err != nil {
		return nil, err
	}

	return essay, nil
}

// saveAndRequestGrading persists the essay in a transaction and emits a
// grade request event. Essay creation and job submission are deliberately
// decoupled: the essay row is durable even when the event emission fails.
func (s *essayServiceImpl) saveAndRequestGrading(ctx context.Context, essay *domain.Essay) error {
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.essayStore.WithTx(tx)
		if err := txStore.Create(ctx, essay); err != nil {
			s.logger.Error("failed to create essay in transaction",
				"error", err,
				"user_id", essay.UserID,
				"essay_id", essay.ID)
			return NewEssayServiceError("create_essay", "failed to save essay to database", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("essay created successfully with pending status",
		"essay_id", essay.ID,
		"user_id", essay.UserID)

	event, err := events.NewGradeRequestEvent(events.EventTypeGradeEssay, gradeRequestPayload{
		EssayID: essay.ID,
		UserID:  essay.UserID,
	})
	if err != nil {
		s.logger.Error("failed to create grade request event",
			"error", err,
			"essay_id", essay.ID)
		return NewEssayServiceError("create_essay", "failed to create event", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.logger.Error("failed to emit grade request event",
			"error", err,
			"essay_id", essay.ID,
			"event_id", event.ID)
		return NewEssayServiceError("create_essay", "failed to emit event", err)
	}

	s.logger.Info("grade request event emitted successfully",
		"essay_id", essay.ID,
		"event_id", event.ID)

	return nil
}

// GetEssay retrieves an essay by ID, enforcing ownership.
func (s *essayServiceImpl) GetEssay(
	ctx context.Context,
	userID, essayID uuid.UUID,
) (*domain.Essay, error) {
	essay, err := s.ownedEssay(ctx, userID, essayID)
	if err != nil {
		return nil, NewEssayServiceError("get_essay", "failed to retrieve essay", err)
	}

	return essay, nil
}

// ListEssays retrieves a page of the user's essays.
func (s *essayServiceImpl) ListEssays(
	ctx context.Context,
	userID uuid.UUID,
	status domain.EssayStatus,
	limit, offset int,
) (*store.EssayPage, error) {
	page, err := s.essayStore.List(ctx, store.EssayFilter{
		UserID: userID,
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		s.logger.Error("failed to list essays",
			"error", err,
			"user_id", userID)
		return nil, NewEssayServiceError("list_essays", "failed to list essays", err)
	}

	return page, nil
}

// DeleteEssay removes an essay after verifying ownership.
func (s *essayServiceImpl) DeleteEssay(ctx context.Context, userID, essayID uuid.UUID) error {
	if _, err := s.ownedEssay(ctx, userID, essayID); err != nil {
		return NewEssayServiceError("delete_essay", "failed to retrieve essay", err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.essayStore.WithTx(tx).Delete(ctx, essayID)
	})
	if err != nil {
		s.logger.Error("failed to delete essay",
			"error", err,
			"essay_id", essayID)
		return NewEssayServiceError("delete_essay", "failed to delete essay", err)
	}

	s.logger.Info("essay deleted successfully",
		"essay_id", essayID,
		"user_id", userID)
	return nil
}

// RequestGrading enqueues a grading job for the essay and returns the job ID.
func (s *essayServiceImpl) RequestGrading(
	ctx context.Context,
	userID, essayID uuid.UUID,
) (uuid.UUID, error) {
	if _, err := s.ownedEssay(ctx, userID, essayID); err != nil {
		return uuid.Nil, NewEssayServiceError("request_grading", "failed to retrieve essay", err)
	}

	jobID, err := s.submitter.Submit(ctx, essayID, userID)
	if err != nil {
		s.logger.Error("failed to submit grading job",
			"error", err,
			"essay_id", essayID)
		return uuid.Nil, NewEssayServiceError("request_grading", "failed to submit grading job", err)
	}

	s.logger.Info("grading job submitted",
		"essay_id", essayID,
		"job_id", jobID)
	return jobID, nil
}

// GetResult retrieves the latest grading result for the essay.
func (s *essayServiceImpl) GetResult(
	ctx context.Context,
	userID, essayID uuid.UUID,
) (*domain.GradingRecord, error) {
	if _, err := s.ownedEssay(ctx, userID, essayID); err != nil {
		return nil, NewEssayServiceError("get_result", "failed to retrieve essay", err)
	}

	record, err := s.recordStore.GetLatestByEssayID(ctx, essayID)
	if err != nil {
		if errors.Is(err, store.ErrGradingRecordNotFound) {
			return nil, ErrResultNotFound
		}
		s.logger.Error("failed to retrieve grading result",
			"error", err,
			"essay_id", essayID)
		return nil, NewEssayServiceError("get_result", "failed to retrieve grading result", err)
	}

	return record, nil
}

// ownedEssay loads the essay and verifies it belongs to the user.
func (s *essayServiceImpl) ownedEssay(
	ctx context.Context,
	userID, essayID uuid.UUID,
) (*domain.Essay, error) {
	essay, err := s.essayStore.GetByID(ctx, essayID)
	if err != nil {
		if errors.Is(err, store.ErrEssayNotFound) {
			return nil, ErrEssayNotFound
		}
		return nil, err
	}

	if essay.UserID != userID {
		s.logger.Warn("essay access denied",
			"essay_id", essayID,
			"owner_id", essay.UserID,
			"requester_id", userID)
		return nil, ErrNotOwned
	}

	return essay, nil
}
