package database

import (
	"context"

	"github.com/conduitapp/conduit-api/internal/models"
)

// UserRepositoryInterface defines the user store surface consumed by the
// handlers and the identity resolver. A missing record is (nil, nil).
// The interface enables in-memory fakes in tests.
type UserRepositoryInterface interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Update(ctx context.Context, email string, user *models.User) error
}

// FollowerRepositoryInterface defines the follow-edge store surface.
type FollowerRepositoryInterface interface {
	FindEdge(ctx context.Context, email, follower string) (*models.Follower, error)
	InsertEdge(ctx context.Context, edge *models.Follower) error
	DeleteEdge(ctx context.Context, edge *models.Follower) error
}

// Ensure concrete types implement the interfaces
var (
	_ UserRepositoryInterface     = (*UserRepository)(nil)
	_ FollowerRepositoryInterface = (*FollowerRepository)(nil)
)
