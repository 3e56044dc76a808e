package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// EssayStatus represents the grading state of an essay.
type EssayStatus string

// Possible essay status values
const (
	EssayStatusPending EssayStatus = "pending"
	EssayStatusGraded  EssayStatus = "graded"
	EssayStatusFailed  EssayStatus = "failed"
)

// EssaySource identifies how an essay entered the system.
type EssaySource string

// Possible essay sources
const (
	EssaySourceText  EssaySource = "text"
	EssaySourcePhoto EssaySource = "photo"
)

// Common validation errors for Essay
var (
	ErrEmptyEssayID        = errors.New("essay ID cannot be empty")
	ErrEmptyEssayUserID    = errors.New("essay user ID cannot be empty")
	ErrEmptyEssayContent   = errors.New("essay content cannot be empty")
	ErrInvalidEssayStatus  = errors.New("invalid essay status")
	ErrInvalidEssaySource  = errors.New("invalid essay source")
	ErrInvalidEssayVersion = errors.New("essay version number must be at least 1")
)

// Essay represents a student essay submitted for grading.
// It tracks the original text (or the photo it was recognized from)
// and the grading state. Regrading with revised content creates a new
// essay version: ParentID points at the essay the revision was made
// from (uuid.Nil for originals) and VersionNumber counts up from 1.
type Essay struct {
	ID            uuid.UUID   `json:"id"`
	UserID        uuid.UUID   `json:"user_id"`
	RubricID      uuid.UUID   `json:"rubric_id,omitempty"` // uuid.Nil when no rubric selected
	ParentID      uuid.UUID   `json:"parent_id,omitempty"` // uuid.Nil for original essays
	VersionNumber int         `json:"version_number"`
	Title         string      `json:"title,omitempty"`
	Content       string      `json:"content"`
	Source        EssaySource `json:"source"`
	PhotoURL      string      `json:"photo_url,omitempty"`
	Status        EssayStatus `json:"status"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// NewEssay creates a new Essay owned by the given user.
// It generates a new UUID for the essay ID, sets the status to pending,
// and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewEssay(userID, rubricID uuid.UUID, title, content string, source EssaySource) (*Essay, error) {
	essay := &Essay{
		ID:            uuid.New(),
		UserID:        userID,
		RubricID:      rubricID,
		VersionNumber: 1,
		Title:         title,
		Content:       content,
		Source:        source,
		Status:        EssayStatusPending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := essay.Validate(); err != nil {
		return nil, err
	}

	return essay, nil
}

// NewEssayVersion creates a revised version of an existing essay. The new
// essay keeps the parent's rubric and title, carries the revised content,
// and starts pending so it runs through grading like any other essay.
// Versions always have text source even when the parent came from a photo.
func NewEssayVersion(parent *Essay, content string) (*Essay, error) {
	if parent == nil {
		return nil, ErrEmptyEssayID
	}

	essay := &Essay{
		ID:            uuid.New(),
		UserID:        parent.UserID,
		RubricID:      parent.RubricID,
		ParentID:      parent.ID,
		VersionNumber: parent.VersionNumber + 1,
		Title:         parent.Title,
		Content:       content,
		Source:        EssaySourceText,
		Status:        EssayStatusPending,
		CreatedAt:     time.Now().UTC(),
		UpdatedAt:     time.Now().UTC(),
	}

	if err := essay.Validate(); err != nil {
		return nil, err
	}

	return essay, nil
}

// Validate checks if the Essay has valid data.
// Returns an error if any field fails validation.
func (e *Essay) Validate() error {
	if e.ID == uuid.Nil {
		return ErrEmptyEssayID
	}

	if e.UserID == uuid.Nil {
		return ErrEmptyEssayUserID
	}

	if e.Content == "" {
		return ErrEmptyEssayContent
	}

	if !isValidEssayStatus(e.Status) {
		return ErrInvalidEssayStatus
	}

	if !isValidEssaySource(e.Source) {
		return ErrInvalidEssaySource
	}

	if e.VersionNumber < 1 {
		return ErrInvalidEssayVersion
	}

	return nil
}

// UpdateStatus updates the essay's status and refreshes the UpdatedAt timestamp.
// Returns an error if the new status is invalid.
func (e *Essay) UpdateStatus(status EssayStatus) error {
	if !isValidEssayStatus(status) {
		return ErrInvalidEssayStatus
	}

	e.Status = status
	e.UpdatedAt = time.Now().UTC()
	return nil
}

// isValidEssayStatus checks if the given status is a valid EssayStatus.
func isValidEssayStatus(status EssayStatus) bool {
	switch status {
	case EssayStatusPending, EssayStatusGraded, EssayStatusFailed:
		return true
	default:
		return false
	}
}

// isValidEssaySource checks if the given source is a valid EssaySource.
func isValidEssaySource(source EssaySource) bool {
	switch source {
	case EssaySourceText, EssaySourcePhoto:
		return true
	default:
		return false
	}
}
