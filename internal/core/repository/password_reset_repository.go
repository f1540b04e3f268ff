package repository

import (
	"context"

	"github.com/martijn/website/internal/core/domain"
)

type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	FindByTokenHash(ctx context.Context, tokenHash string) (*domain.PasswordReset, error)
	// Redeem consumes a live token and stores passwordHash for its owner,
	// returning the owner's id. Only one of several concurrent calls with the
	// same token succeeds; the rest get domain.ErrNotFound.
	Redeem(ctx context.Context, tokenHash, passwordHash string) (int64, error)
	DeleteByUser(ctx context.Context, userID int64) error
	DeleteExpired(ctx context.Context) error
}
