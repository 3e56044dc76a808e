package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/store"
)

// RubricService provides rubric-related operations.
type RubricService interface {
	// CreateRubric creates a new user-owned rubric. The dimension count and
	// weight-sum constraints are enforced by domain validation.
	CreateRubric(
		ctx context.Context,
		userID uuid.UUID,
		name, description string,
		scene domain.RubricScene,
		dimensions []domain.RubricDimension,
		customPrompt string,
	) (*domain.Rubric, error)

	// GetRubric retrieves a rubric visible to the user: a built-in rubric
	// or one of their own.
	GetRubric(ctx context.Context, userID, rubricID uuid.UUID) (*domain.Rubric, error)

	// ListRubrics retrieves built-in rubrics plus the user's own,
	// optionally filtered by scene.
	ListRubrics(ctx context.Context, userID uuid.UUID, scene domain.RubricScene) ([]*domain.Rubric, error)

	// UpdateRubric modifies one of the user's own rubrics. Built-in
	// rubrics are immutable.
	UpdateRubric(ctx context.Context, userID uuid.UUID, rubric *domain.Rubric) error

	// DeleteRubric removes one of the user's own rubrics. Built-in rubrics
	// cannot be deleted.
	DeleteRubric(ctx context.Context, userID, rubricID uuid.UUID) error

	// SetDefaultRubric marks one of the user's own rubrics as their
	// default, clearing any previous default. Built-in rubrics are shared
	// rows and cannot carry a per-user default flag.
	SetDefaultRubric(ctx context.Context, userID, rubricID uuid.UUID) (*domain.Rubric, error)
}

// RubricServiceError wraps errors from the rubric service with context.
type RubricServiceError struct {
	Operation string
	Message   string
	Err       error
}

// Error implements the error interface for RubricServiceError.
func (e *RubricServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("rubric service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("rubric service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *RubricServiceError) Unwrap() error {
	return e.Err
}

// NewRubricServiceError creates a new RubricServiceError.
// It returns known sentinel errors directly without wrapping.
func NewRubricServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrRubricNotFound) || errors.Is(err, ErrNotOwned) || errors.Is(err, ErrBuiltInRubric) {
		return err
	}

	if errors.Is(err, store.ErrRubricNotFound) {
		return ErrRubricNotFound
	}

	return &RubricServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// rubricServiceImpl implements the RubricService interface
type rubricServiceImpl struct {
	rubricStore store.RubricStore
	db          *sql.DB
	logger      *slog.Logger
}

// NewRubricService creates a new RubricService.
func NewRubricService(rubricStore store.RubricStore, db *sql.DB, logger *slog.Logger) (RubricService, error) {
	if rubricStore == nil {
		return nil, &RubricServiceError{Operation: "create_service", Message: "rubricStore cannot be nil"}
	}
	if db == nil {
		return nil, &RubricServiceError{Operation: "create_service", Message: "db cannot be nil"}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &rubricServiceImpl{
		rubricStore: rubricStore,
		db:          db,
		logger:      logger.With("component", "rubric_service"),
	}, nil
}

// CreateRubric creates a new rubric owned by the user.
func (s *rubricServiceImpl) CreateRubric(
	ctx context.Context,
	userID uuid.UUID,
	name, description string,
	scene domain.RubricScene,
	dimensions []domain.RubricDimension,
	customPrompt string,
) (*domain.Rubric, error) {
	rubric, err := domain.NewRubric(userID, name, description, scene, dimensions, customPrompt)
	if err != nil {
		s.logger.Error("failed to create rubric object",
			"error", err,
			"user_id", userID)
		return nil, NewRubricServiceError("create_rubric", "failed to create rubric object", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.rubricStore.WithTx(tx).Create(ctx, rubric)
	})
	if err != nil {
		s.logger.Error("failed to save rubric",
			"error", err,
			"rubric_id", rubric.ID)
		return nil, NewRubricServiceError("create_rubric", "failed to save rubric to database", err)
	}

	s.logger.Info("rubric created successfully",
		"rubric_id", rubric.ID,
		"user_id", userID,
		"scene", rubric.Scene)
	return rubric, nil
}

// GetRubric retrieves a rubric visible to the user.
func (s *rubricServiceImpl) GetRubric(
	ctx context.Context,
	userID, rubricID uuid.UUID,
) (*domain.Rubric, error) {
	rubric, err := s.rubricStore.GetByID(ctx, rubricID)
	if err != nil {
		if errors.Is(err, store.ErrRubricNotFound) {
			return nil, ErrRubricNotFound
		}
		s.logger.Error("failed to retrieve rubric",
			"error", err,
			"rubric_id", rubricID)
		return nil, NewRubricServiceError("get_rubric", "failed to retrieve rubric", err)
	}

	// Built-in rubrics are visible to everyone.
	if !rubric.IsBuiltIn && rubric.UserID != userID {
		return nil, ErrNotOwned
	}

	return rubric, nil
}

// ListRubrics retrieves the rubrics visible to the user.
func (s *rubricServiceImpl) ListRubrics(
	ctx context.Context,
	userID uuid.UUID,
	scene domain.RubricScene,
) ([]*domain.Rubric, error) {
	rubrics, err := s.rubricStore.List(ctx, userID, scene)
	if err != nil {
		s.logger.Error("failed to list rubrics",
			"error", err,
			"user_id", userID)
		return nil, NewRubricServiceError("list_rubrics", "failed to list rubrics", err)
	}

	return rubrics, nil
}

// UpdateRubric modifies one of the user's own rubrics.
func (s *rubricServiceImpl) UpdateRubric(
	ctx context.Context,
	userID uuid.UUID,
	rubric *domain.Rubric,
) error {
	existing, err := s.ownedRubric(ctx, userID, rubric.ID)
	if err != nil {
		return NewRubricServiceError("update_rubric", "failed to retrieve rubric", err)
	}

	// Ownership and the built-in and default flags never change on update.
	rubric.UserID = existing.UserID
	rubric.IsBuiltIn = existing.IsBuiltIn
	rubric.IsDefault = existing.IsDefault
	rubric.CreatedAt = existing.CreatedAt

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.rubricStore.WithTx(tx).Update(ctx, rubric)
	})
	if err != nil {
		s.logger.Error("failed to update rubric",
			"error", err,
			"rubric_id", rubric.ID)
		return NewRubricServiceError("update_rubric", "failed to update rubric", err)
	}

	s.logger.Info("rubric updated successfully",
		"rubric_id", rubric.ID,
		"user_id", userID)
	return nil
}

// DeleteRubric removes one of the user's own rubrics.
func (s *rubricServiceImpl) DeleteRubric(ctx context.Context, userID, rubricID uuid.UUID) error {
	if _, err := s.ownedRubric(ctx, userID, rubricID); err != nil {
		return NewRubricServiceError("delete_rubric", "failed to retrieve rubric", err)
	}

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.rubricStore.WithTx(tx).Delete(ctx, rubricID)
	})
	if err != nil {
		s.logger.Error("failed to delete rubric",
			"error", err,
			"rubric_id", rubricID)
		return NewRubricServiceError("delete_rubric", "failed to delete rubric", err)
	}

	s.logger.Info("rubric deleted successfully",
		"rubric_id", rubricID,
		"user_id", userID)
	return nil
}

// SetDefaultRubric marks one of the user's own rubrics as the default.
func (s *rubricServiceImpl) SetDefaultRubric(
	ctx context.Context,
	userID, rubricID uuid.UUID,
) (*domain.Rubric, error) {
	rubric, err := s.ownedRubric(ctx, userID, rubricID)
	if err != nil {
		return nil, NewRubricServiceError("set_default_rubric", "failed to retrieve rubric", err)
	}

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		return s.rubricStore.WithTx(tx).SetDefault(ctx, userID, rubricID)
	})
	if err != nil {
		s.logger.Error("failed to set default rubric",
			"error", err,
			"rubric_id", rubricID)
		return nil, NewRubricServiceError("set_default_rubric", "failed to set default rubric", err)
	}

	rubric.IsDefault = true

	s.logger.Info("default rubric updated",
		"rubric_id", rubricID,
		"user_id", userID)
	return rubric, nil
}

// ownedRubric loads the rubric and verifies the user may modify it.
// Built-in rubrics are readable by everyone but owned by no one.
func (s *rubricServiceImpl) ownedRubric(
	ctx context.Context,
	userID, rubricID uuid.UUID,
) (*domain.Rubric, error) {
	rubric, err := s.rubricStore.GetByID(ctx, rubricID)
	if err != nil {
		if errors.Is(err, store.ErrRubricNotFound) {
			return nil, ErrRubricNotFound
		}
		return nil, err
	}

	if rubric.IsBuiltIn {
		return nil, ErrBuiltInRubric
	}

	if rubric.UserID != userID {
		return nil, ErrNotOwned
	}

	return rubric, nil
}
