package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/redpen-app/redpen-api/internal/domain"
)

// UserStore defines the interface for user data persistence.
type UserStore interface {
	// Create saves a new user, validating the domain entity and hashing the
	// plaintext password before insert.
	// Returns ErrEmailExists if the email is already taken.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by ID. The plaintext password field is never
	// populated on reads.
	// Returns ErrUserNotFound if the user does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail retrieves a user by email address.
	// Returns ErrUserNotFound if the user does not exist.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// Update persists a complete user object, HashedPassword included. A
	// non-empty plaintext Password is hashed and replaces the stored hash.
	// Returns ErrUserNotFound if the user does not exist, ErrEmailExists
	// when changing to an email already in use.
	Update(ctx context.Context, user *domain.User) error

	// Delete permanently removes a user.
	// Returns ErrUserNotFound if the user does not exist.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx returns a UserStore bound to the given transaction. The caller
	// owns the transaction lifecycle.
	WithTx(tx *sql.Tx) UserStore
}
