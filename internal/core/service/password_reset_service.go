package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
	"github.com/samber/oops"
)

const resetTokenBytes = 32

type PasswordResetService struct {
	authService *AuthService
	userRepo    repository.UserRepository
	resetRepo   repository.PasswordResetRepository
	ttl         time.Duration
	logger      *slog.Logger
}

func NewPasswordResetService(
	authService *AuthService,
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	ttl time.Duration,
	logger *slog.Logger,
) *PasswordResetService {
	return &PasswordResetService{
		authService: authService,
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		ttl:         ttl,
		logger:      logger,
	}
}

// GenerateResetToken returns a random hex token and the sha256 hex digest
// that is stored in its place.
func GenerateResetToken() (token, tokenHash string, err error) {
	buf := make([]byte, resetTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	token = hex.EncodeToString(buf)
	return token, HashResetToken(token), nil
}

func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// RequestReset issues a fresh token for the account registered under email,
// replacing any earlier ones. The returned error wraps domain.ErrNotFound
// when no account uses that address.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		return "", nil, err
	}

	token, tokenHash, err := GenerateResetToken()
	if err != nil {
		return "", nil, oops.Code("RESET_TOKEN_FAILED").With("user_id", user.ID).Wrap(err)
	}

	if err := s.resetRepo.DeleteByUser(ctx, user.ID); err != nil {
		return "", nil, err
	}
	if err := s.resetRepo.Create(ctx, domain.NewPasswordReset(user.ID, tokenHash, s.ttl)); err != nil {
		return "", nil, err
	}

	if err := s.resetRepo.DeleteExpired(ctx); err != nil {
		s.logger.Warn("failed to purge expired reset tokens", "error", err)
	}

	return token, user, nil
}

// ValidateToken returns the user a live token belongs to.
func (s *PasswordResetService) ValidateToken(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, oops.Code("RESET_TOKEN_INVALID").Wrap(ErrInvalidResetToken)
	}

	reset, err := s.resetRepo.FindByTokenHash(ctx, HashResetToken(token))
	if errors.Is(err, domain.ErrNotFound) {
		return nil, oops.Code("RESET_TOKEN_INVALID").Wrap(ErrInvalidResetToken)
	}
	if err != nil {
		return nil, err
	}

	if reset.IsExpired() {
		if err := s.resetRepo.DeleteByUser(ctx, reset.UserID); err != nil {
			s.logger.Warn("failed to delete expired reset token", "user_id", reset.UserID, "error", err)
		}
		return nil, oops.Code("RESET_TOKEN_EXPIRED").
			With("user_id", reset.UserID).
			Wrap(ErrInvalidResetToken)
	}

	user, err := s.userRepo.FindByID(ctx, reset.UserID)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, oops.Code("RESET_TOKEN_INVALID").Wrap(ErrInvalidResetToken)
	}
	return user, err
}

// ResetPassword sets a new password and invalidates every token the user
// holds. The token is claimed atomically with the password change, so it
// works at most once even under concurrent submissions.
func (s *PasswordResetService) ResetPassword(ctx context.Context, token, password string) (*domain.User, error) {
	user, err := s.ValidateToken(ctx, token)
	if err != nil {
		return nil, err
	}

	hash, err := s.authService.HashPassword(password)
	if err != nil {
		return nil, err
	}

	if _, err := s.resetRepo.Redeem(ctx, HashResetToken(token), hash); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, oops.Code("RESET_TOKEN_INVALID").
				With("user_id", user.ID).
				Wrap(ErrInvalidResetToken)
		}
		return nil, err
	}
	user.PasswordHash = hash

	s.logger.Info("password reset", "user_id", user.ID)
	return user, nil
}

func (s *PasswordResetService) DeleteExpired(ctx context.Context) error {
	return s.resetRepo.DeleteExpired(ctx)
}
