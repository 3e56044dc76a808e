package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/store"
)

// defaultEssayPageSize caps List results when the filter gives no limit.
const defaultEssayPageSize = 20

// psql builds queries with PostgreSQL-style $N placeholders.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// PostgresEssayStore implements the store.EssayStore interface
// using a PostgreSQL database as the storage backend.
type PostgresEssayStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresEssayStore creates a new PostgreSQL implementation of the
// EssayStore interface. It accepts a database connection or transaction that
// should be initialized and managed by the caller. If logger is nil, the
// process default logger is used.
func NewPostgresEssayStore(db store.DBTX, logger *slog.Logger) *PostgresEssayStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresEssayStore{
		db:     db,
		logger: logger.With(slog.String("component", "essay_store")),
	}
}

// Ensure PostgresEssayStore implements store.EssayStore interface
var _ store.EssayStore = (*PostgresEssayStore)(nil)

// Create implements store.EssayStore.Create
func (s *PostgresEssayStore) Create(ctx context.Context, essay *domain.Essay) error {
	if err := essay.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO essays (id, user_id, rubric_id, parent_id, version_number, title, content, source, photo_url, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.db.ExecContext(ctx, query,
		essay.ID,
		essay.UserID,
		nullableUUID(essay.RubricID),
		nullableUUID(essay.ParentID),
		essay.VersionNumber,
		essay.Title,
		essay.Content,
		essay.Source,
		essay.PhotoURL,
		essay.Status,
		essay.CreatedAt,
		essay.UpdatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create essay",
			slog.String("essay_id", essay.ID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.EssayStore.GetByID
func (s *PostgresEssayStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Essay, error) {
	query := `
		SELECT id, user_id, rubric_id, parent_id, version_number, title, content, source, photo_url, status, created_at, updated_at
		FROM essays
		WHERE id = $1
	`

	essay, err := scanEssay(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEssayNotFound
		}
		return nil, MapError(err)
	}

	return essay, nil
}

// GetVersion implements store.EssayStore.GetVersion
func (s *PostgresEssayStore) GetVersion(
	ctx context.Context,
	parentID uuid.UUID,
	versionNumber int,
) (*domain.Essay, error) {
	query := `
		SELECT id, user_id, rubric_id, parent_id, version_number, title, content, source, photo_url, status, created_at, updated_at
		FROM essays
		WHERE parent_id = $1 AND version_number = $2
	`

	essay, err := scanEssay(s.db.QueryRowContext(ctx, query, parentID, versionNumber))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrEssayNotFound
		}
		return nil, MapError(err)
	}

	return essay, nil
}

// List implements store.EssayStore.List
// Results are ordered most recent first. The page also carries the total
// match count for the filter so callers can paginate.
func (s *PostgresEssayStore) List(ctx context.Context, filter store.EssayFilter) (*store.EssayPage, error) {
	if filter.UserID == uuid.Nil {
		return nil, fmt.Errorf("%w: list requires a user ID", store.ErrInvalidEntity)
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultEssayPageSize
	}

	where := sq.Eq{"user_id": filter.UserID}

	countSQL, countArgs, err := psql.
		Select("COUNT(*)").
		From("essays").
		Where(where).
		Where(statusClause(filter.Status)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := s.db.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, MapError(err)
	}

	listSQL, listArgs, err := psql.
		Select("id", "user_id", "rubric_id", "parent_id", "version_number", "title", "content", "source", "photo_url", "status", "created_at", "updated_at").
		From("essays").
		Where(where).
		Where(statusClause(filter.Status)).
		OrderBy("created_at DESC", "id DESC").
		Limit(uint64(limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	essays := make([]*domain.Essay, 0, limit)
	for rows.Next() {
		essay, err := scanEssayRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan essay row: %w", err)
		}
		essays = append(essays, essay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating essay rows: %w", err)
	}

	return &store.EssayPage{Essays: essays, Total: total}, nil
}

// ListInStatus implements store.EssayStore.ListInStatus
// Results are ordered oldest first so interrupted essays are re-enqueued
// in roughly their original submission order.
func (s *PostgresEssayStore) ListInStatus(
	ctx context.Context,
	status domain.EssayStatus,
	limit int,
) ([]*domain.Essay, error) {
	if limit <= 0 {
		limit = defaultEssayPageSize
	}

	listSQL, listArgs, err := psql.
		Select("id", "user_id", "rubric_id", "parent_id", "version_number", "title", "content", "source", "photo_url", "status", "created_at", "updated_at").
		From("essays").
		Where(sq.Eq{"status": status}).
		OrderBy("created_at ASC", "id ASC").
		Limit(uint64(limit)).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build status list query: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, listSQL, listArgs...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	essays := make([]*domain.Essay, 0, limit)
	for rows.Next() {
		essay, err := scanEssayRow(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan essay row: %w", err)
		}
		essays = append(essays, essay)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating essay rows: %w", err)
	}

	return essays, nil
}

// UpdateStatus implements store.EssayStore.UpdateStatus
func (s *PostgresEssayStore) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.EssayStatus) error {
	query := `
		UPDATE essays
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "essay"); err != nil {
		return store.ErrEssayNotFound
	}
	return nil
}

// Delete implements store.EssayStore.Delete
// Grading records are removed by the ON DELETE CASCADE constraint.
func (s *PostgresEssayStore) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM essays WHERE id = $1`

	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, "essay"); err != nil {
		return store.ErrEssayNotFound
	}
	return nil
}

// WithTx implements store.EssayStore.WithTx
func (s *PostgresEssayStore) WithTx(tx *sql.Tx) store.EssayStore {
	return &PostgresEssayStore{
		db:     tx,
		logger: s.logger,
	}
}

// statusClause returns the status predicate for list queries. An empty
// status matches everything.
func statusClause(status domain.EssayStatus) sq.Sqlizer {
	if status == "" {
		return sq.Expr("TRUE")
	}
	return sq.Eq{"status": status}
}

// rowScanner abstracts *sql.Row and *sql.Rows for shared scan logic.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanEssay(row *sql.Row) (*domain.Essay, error) {
	return scanEssayRow(row)
}

func scanEssayRow(row rowScanner) (*domain.Essay, error) {
	var essay domain.Essay
	var rubricID, parentID uuid.NullUUID
	var title, photoURL sql.NullString

	err := row.Scan(
		&essay.ID,
		&essay.UserID,
		&rubricID,
		&parentID,
		&essay.VersionNumber,
		&title,
		&essay.Content,
		&essay.Source,
		&photoURL,
		&essay.Status,
		&essay.CreatedAt,
		&essay.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	essay.RubricID = rubricID.UUID
	essay.ParentID = parentID.UUID
	essay.Title = title.String
	essay.PhotoURL = photoURL.String
	return &essay, nil
}

// nullableUUID maps uuid.Nil to SQL NULL so optional foreign keys stay
// unset rather than pointing at an all-zero ID.
func nullableUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}
