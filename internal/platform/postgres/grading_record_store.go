package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/redpen-app/redpen-api/internal/domain"
	"github.com/redpen-app/redpen-api/internal/store"
)

// PostgresGradingRecordStore implements the store.GradingRecordStore
// interface using a PostgreSQL database as the storage backend. The
// normalized grading result is stored as a JSONB document alongside the
// attempt envelope columns.
type PostgresGradingRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresGradingRecordStore creates a new PostgreSQL implementation of
// the GradingRecordStore interface. It accepts a database connection or
// transaction that should be initialized and managed by the caller. If
// logger is nil, the process default logger is used.
func NewPostgresGradingRecordStore(db store.DBTX, logger *slog.Logger) *PostgresGradingRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresGradingRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "grading_record_store")),
	}
}

// Ensure PostgresGradingRecordStore implements store.GradingRecordStore interface
var _ store.GradingRecordStore = (*PostgresGradingRecordStore)(nil)

// Create implements store.GradingRecordStore.Create
func (s *PostgresGradingRecordStore) Create(ctx context.Context, record *domain.GradingRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	result, err := json.Marshal(record.Result)
	if err != nil {
		return fmt.Errorf("failed to marshal grading result: %w", err)
	}

	query := `
		INSERT INTO grading_records (id, essay_id, result, ai_model, processing_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = s.db.ExecContext(ctx, query,
		record.ID,
		record.EssayID,
		result,
		record.AIModel,
		record.ProcessingTime,
		record.CreatedAt,
	)
	if err != nil {
		s.logger.Error("failed to create grading record",
			slog.String("record_id", record.ID.String()),
			slog.String("essay_id", record.EssayID.String()),
			slog.String("error", err.Error()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.GradingRecordStore.GetByID
func (s *PostgresGradingRecordStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.GradingRecord, error) {
	query := `
		SELECT id, essay_id, result, ai_model, processing_time, created_at
		FROM grading_records
		WHERE id = $1
	`

	record, err := scanGradingRecord(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGradingRecordNotFound
		}
		return nil, MapError(err)
	}

	return record, nil
}

// GetLatestByEssayID implements store.GradingRecordStore.GetLatestByEssayID
func (s *PostgresGradingRecordStore) GetLatestByEssayID(
	ctx context.Context,
	essayID uuid.UUID,
) (*domain.GradingRecord, error) {
	query := `
		SELECT id, essay_id, result, ai_model, processing_time, created_at
		FROM grading_records
		WHERE essay_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`

	record, err := scanGradingRecord(s.db.QueryRowContext(ctx, query, essayID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrGradingRecordNotFound
		}
		return nil, MapError(err)
	}

	return record, nil
}

// ListByEssayID implements store.GradingRecordStore.ListByEssayID
func (s *PostgresGradingRecordStore) ListByEssayID(
	ctx context.Context,
	essayID uuid.UUID,
) ([]*domain.GradingRecord, error) {
	query := `
		SELECT id, essay_id, result, ai_model, processing_time, created_at
		FROM grading_records
		WHERE essay_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, essayID)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	var records []*domain.GradingRecord
	for rows.Next() {
		record, err := scanGradingRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan grading record row: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating grading record rows: %w", err)
	}

	return records, nil
}

// WithTx implements store.GradingRecordStore.WithTx
func (s *PostgresGradingRecordStore) WithTx(tx *sql.Tx) store.GradingRecordStore {
	return &PostgresGradingRecordStore{
		db:     tx,
		logger: s.logger,
	}
}

func scanGradingRecord(row rowScanner) (*domain.GradingRecord, error) {
	var record domain.GradingRecord
	var result []byte

	err := row.Scan(
		&record.ID,
		&record.EssayID,
		&result,
		&record.AIModel,
		&record.ProcessingTime,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(result, &record.Result); err != nil {
		return nil, fmt.Errorf("failed to unmarshal grading result: %w", err)
	}

	return &record, nil
}
