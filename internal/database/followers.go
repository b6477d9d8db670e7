package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/conduitapp/conduit-api/internal/models"
)

// FollowerRepository handles follow-edge database operations. An edge is
// keyed by (followee email, follower username).
type FollowerRepository struct {
	db *DB
}

// NewFollowerRepository creates a new follower repository
func NewFollowerRepository(db *DB) *FollowerRepository {
	return &FollowerRepository{db: db}
}

// FindEdge returns the follow edge, or (nil, nil) if it does not exist.
func (r *FollowerRepository) FindEdge(ctx context.Context, email, follower string) (*models.Follower, error) {
	edge := &models.Follower{}
	query := `
		SELECT email, follower
		FROM followers
		WHERE email = $1 AND follower = $2
	`

	err := r.db.QueryRowContext(ctx, query, email, follower).Scan(&edge.Email, &edge.Follower)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find follow edge: %w", err)
	}

	return edge, nil
}

// InsertEdge creates the follow edge. Inserting an edge that already exists
// is a no-op.
func (r *FollowerRepository) InsertEdge(ctx context.Context, edge *models.Follower) error {
	query := `
		INSERT INTO followers (email, follower)
		VALUES ($1, $2)
		ON CONFLICT (email, follower) DO NOTHING
	`

	if _, err := r.db.ExecContext(ctx, query, edge.Email, edge.Follower); err != nil {
		return fmt.Errorf("failed to insert follow edge: %w", err)
	}

	return nil
}

// DeleteEdge removes the follow edge. Deleting a missing edge is a no-op.
func (r *FollowerRepository) DeleteEdge(ctx context.Context, edge *models.Follower) error {
	query := `DELETE FROM followers WHERE email = $1 AND follower = $2`

	if _, err := r.db.ExecContext(ctx, query, edge.Email, edge.Follower); err != nil {
		return fmt.Errorf("failed to delete follow edge: %w", err)
	}

	return nil
}
