package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/conduitapp/conduit-api/internal/models"
)

// ErrDuplicate is returned when an insert violates a unique constraint
// (email or username already taken).
var ErrDuplicate = errors.New("duplicate record")

// mapUniqueViolation converts a postgres unique_violation into ErrDuplicate,
// keeping the violated constraint name in the message. Other errors pass
// through unchanged.
func mapUniqueViolation(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
		return fmt.Errorf("%w: %s", ErrDuplicate, pqErr.Constraint)
	}
	return err
}

// UserRepository handles user database operations
type UserRepository struct {
	db *DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user record.
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (email, username, password_hash, role, image, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	now := time.Now()
	err := r.db.QueryRowContext(ctx, query,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Image,
		user.Bio,
		now,
		now,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err := mapUniqueViolation(err); err != nil {
		if errors.Is(err, ErrDuplicate) {
			return err
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

// GetByEmail retrieves a user by email. A missing user is (nil, nil).
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT email, username, password_hash, role, image, bio, created_at, updated_at
		FROM users
		WHERE email = $1
	`

	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.Image,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username. A missing user is (nil, nil).
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	user := &models.User{}
	query := `
		SELECT email, username, password_hash, role, image, bio, created_at, updated_at
		FROM users
		WHERE username = $1
	`

	err := r.db.QueryRowContext(ctx, query, username).Scan(
		&user.Email,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.Image,
		&user.Bio,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}

	return user, nil
}

// Update rewrites the record currently keyed by email with the given values.
// The new values may carry a different email (the key itself can change).
func (r *UserRepository) Update(ctx context.Context, email string, user *models.User) error {
	query := `
		UPDATE users
		SET email = $2, username = $3, password_hash = $4, role = $5, image = $6, bio = $7, updated_at = $8
		WHERE email = $1
		RETURNING updated_at
	`

	err := r.db.QueryRowContext(ctx, query,
		email,
		user.Email,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.Image,
		user.Bio,
		time.Now(),
	).Scan(&user.UpdatedAt)

	err = mapUniqueViolation(err)
	switch {
	case errors.Is(err, ErrDuplicate):
		return err
	case err == sql.ErrNoRows:
		return fmt.Errorf("user not found")
	case err != nil:
		return fmt.Errorf("failed to update user: %w", err)
	}

	return nil
}
