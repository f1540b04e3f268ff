package repository

import (
	"context"

	"github.com/martijn/website/internal/core/domain"
)

// UserRepository is the credential store. Lookups return an error wrapping
// domain.ErrNotFound when no row matches; Create returns a
// *domain.ConstraintViolation when a unique index rejects the row.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdatePassword(ctx context.Context, user *domain.User) error
	TouchLastLogin(ctx context.Context, user *domain.User) error
	// Delete removes the user together with their blog posts and password
	// resets in a single transaction.
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context) ([]*domain.User, error)
}
