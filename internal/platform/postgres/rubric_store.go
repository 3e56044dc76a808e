package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/store"
)

// PostgresRubricStore implements the store.RubricStore interface
// using a PostgreSQL database as the storage backend. Rubric dimensions
// are stored as a JSONB document.
type PostgresRubricStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresRubricStore creates a new PostgreSQL implementation of the
// RubricStore interface. It accepts a database connection or transaction
// that should be initialized and managed by the caller. If logger is nil,
// the process default logger is used.
func NewPostgresRubricStore(db store.DBTX, logger *slog.Logger) *PostgresRubricStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresRubricStore{
		db:     db,
		logger: logger.With(slog.String("component", "rubric_store")),
	}
}

// Ensure PostgresRubricStore implements store.RubricStore interface
var _ store.RubricStore = (*PostgresRubricStore)(nil)

// Create implements store.RubricStore.Create
func (s *PostgresRubricStore) Create(ctx context.Context, rubric *domain.Rubric) error {
	if err := rubric.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	dimensions, err := json.Marshal(rubric.Dimensions)
	if err != nil {
		return fmt.Errorf("failed to marshal rubric dimensions: %w", err)
	}

	query := `
		INSERT INTO rubrics (id, user_id, name, description, scene, dimensions, custom_prompt, is_built_in, is_default, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err = s.db.ExecContext(ctx, query,
		rubric.ID,
		rubric.UserID,
		rubric.Name,
		rubric.Description,
		rubric.Scene,
		dimensions,
		rubric.CustomPrompt,
		rubric.IsBuiltIn,
		rubric.IsDefault,
		rubric.CreatedAt,
		rubric.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create rubric",
			slog.String("rubric_id", rubric.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.RubricStore.GetByID
func (s *PostgresRubricStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Rubric, error) {
	query := `
		SELECT id, user_id, name, description, scene, dimensions, custom_prompt, is_built_in, is_default, created_at, updated_at
		FROM rubrics
		WHERE id = $1
	`

	rubric, err := scanRubric(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrRubricNotFound
		}
		return nil, MapError(err)
	}

	return rubric, nil
}

// List implements store.RubricStore.List
// Built-in rubrics are returned first, then the user's own,
// newest first within each group.
func (s *PostgresRubricStore) List(
	ctx context.Context,
	userID uuid.UUID,
	scene domain.RubricScene,
) ([]*domain.Rubric, error) {
	builder := psql.
		Select("id", "user_id", "name", "description", "scene", "dimensions", "custom_prompt", "is_built_in", "is_default", "created_at", "updated_at").
		From("rubrics").
		Where(sq.Or{sq.Eq{"is_built_in": true}, sq.Eq{"user_id": userID}}).
		OrderBy("is_built_in DESC", "created_at DESC")

	if scene != "" {
		builder = builder.Where(sq.Eq{"scene": scene})
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build rubric list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var rubrics []*domain.Rubric
	for rows.Next() {
		rubric, err := scanRubric(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rubric row: %w", err)
		}
		rubrics = append(rubrics, rubric)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rubric rows: %w", err)
	}

	return rubrics, nil
}

// Update implements store.RubricStore.Update
func (s *PostgresRubricStore) Update(ctx context.Context, rubric *domain.Rubric) error {
	if err := rubric.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	dimensions, err := json.Marshal(rubric.Dimensions)
	if err != nil {
		return fmt.Errorf("failed to marshal rubric dimensions: %w", err)
	}

	rubric.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE rubrics
		SET name = $1, description = $2, scene = $3, dimensions = $4, custom_prompt = $5, updated_at = $6
		WHERE id = $7
	`

	result, err := s.db.ExecContext(ctx, query,
		rubric.Name,
		rubric.Description,
		rubric.Scene,
		dimensions,
		rubric.CustomPrompt,
		rubric.UpdatedAt,
		rubric.ID,
	)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "rubric"); err != nil {
		return store.ErrRubricNotFound
	}
	return nil
}

// Delete implements store.RubricStore.Delete
func (s *PostgresRubricStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM rubrics WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "rubric"); err != nil {
		return store.ErrRubricNotFound
	}
	return nil
}

// SetDefault implements store.RubricStore.SetDefault
func (s *PostgresRubricStore) SetDefault(ctx context.Context, userID, rubricID uuid.UUID) error {
	now := time.Now().UTC()

	clearQuery := `
		UPDATE rubrics
		SET is_default = FALSE, updated_at = $1
		WHERE user_id = $2 AND is_default = TRUE
	`
	if _, err := s.db.ExecContext(ctx, clearQuery, now, userID); err != nil {
		return MapError(err)
	}

	setQuery := `
		UPDATE rubrics
		SET is_default = TRUE, updated_at = $1
		WHERE id = $2 AND user_id = $3
	`
	result, err := s.db.ExecContext(ctx, setQuery, now, rubricID, userID)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "rubric"); err != nil {
		return store.ErrRubricNotFound
	}
	return nil
}

// WithTx implements store.RubricStore.WithTx
func (s *PostgresRubricStore) WithTx(tx *sql.Tx) store.RubricStore {
	return &PostgresRubricStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanRubric(row rowScanner) (*domain.Rubric, error) {
	var rubric domain.Rubric
	var description, customPrompt sql.NullString
	var dimensions []byte

	err := row.Scan(
		&rubric.ID,
		&rubric.UserID,
		&rubric.Name,
		&description,
		&rubric.Scene,
		&dimensions,
		&customPrompt,
		&rubric.IsBuiltIn,
		&rubric.IsDefault,
		&rubric.CreatedAt,
		&rubric.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(dimensions, &rubric.Dimensions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal rubric dimensions: %w", err)
	}

	rubric.Description = description.String
	rubric.CustomPrompt = customPrompt.String
	return &rubric, nil
}
