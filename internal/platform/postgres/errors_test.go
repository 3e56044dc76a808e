package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redpen-app/redpen-api/internal/store"
)

// fakeResult implements sql.Result for CheckRowsAffected tests.
type fakeResult struct {
	rows int64
	err  error
}

func (r fakeResult) LastInsertId() (int64, error) { return 0, nil }
func (r fakeResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{
			name:     "nil error passes through",
			err:      nil,
			expected: nil,
		},
		{
			name:     "no rows maps to not found",
			err:      sql.ErrNoRows,
			expected: store.ErrNotFound,
		},
		{
			name:     "unique violation maps to duplicate",
			err:      &pgconn.PgError{Code: uniqueViolationCode},
			expected: store.ErrDuplicate,
		},
		{
			name:     "foreign key violation maps to invalid entity",
			err:      &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "essays_rubric_id_fkey"},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "check violation maps to invalid entity",
			err:      &pgconn.PgError{Code: checkViolationCode, ConstraintName: "essays_status_check"},
			expected: store.ErrInvalidEntity,
		},
		{
			name:     "not null violation maps to invalid entity",
			err:      &pgconn.PgError{Code: notNullViolationCode, ColumnName: "content"},
			expected: store.ErrInvalidEntity,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			mapped := MapError(tt.err)
			if tt.expected == nil {
				assert.NoError(t, mapped)
				return
			}
			assert.ErrorIs(t, mapped, tt.expected)
		})
	}

	t.Run("unrecognized error passes through unchanged", func(t *testing.T) {
		t.Parallel()

		original := errors.New("connection refused")
		assert.Same(t, original, MapError(original))
	})
}

func TestCheckRowsAffected(t *testing.T) {
	t.Parallel()

	t.Run("affected rows succeed", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, CheckRowsAffected(fakeResult{rows: 1}, "essay"))
	})

	t.Run("zero rows maps to not found with entity name", func(t *testing.T) {
		t.Parallel()

		err := CheckRowsAffected(fakeResult{rows: 0}, "essay")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Contains(t, err.Error(), "essay")
	})

	t.Run("zero rows without entity name returns bare not found", func(t *testing.T) {
		t.Parallel()

		err := CheckRowsAffected(fakeResult{rows: 0}, "")
		assert.Equal(t, store.ErrNotFound, err)
	})

	t.Run("rows affected failure is wrapped", func(t *testing.T) {
		t.Parallel()

		cause := fmt.Errorf("driver does not support RowsAffected")
		err := CheckRowsAffected(fakeResult{err: cause}, "essay")
		require.Error(t, err)
		assert.ErrorIs(t, err, cause)
	})

	t.Run("nil result is rejected", func(t *testing.T) {
		t.Parallel()
		assert.Error(t, CheckRowsAffected(nil, "essay"))
	})
}

func TestIsNotFoundError(t *testing.T) {
	t.Parallel()

	assert.True(t, IsNotFoundError(sql.ErrNoRows))
	assert.True(t, IsNotFoundError(store.ErrEssayNotFound))
	assert.True(t, IsNotFoundError(fmt.Errorf("wrapped: %w", store.ErrNotFound)))
	assert.False(t, IsNotFoundError(errors.New("boom")))
}
