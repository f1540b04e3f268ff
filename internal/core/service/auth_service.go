package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
	"github.com/samber/oops"
	"golang.org/x/crypto/bcrypt"
)

const BcryptCost = 10

type AuthService struct {
	userRepo repository.UserRepository
	logger   *slog.Logger
	cost     int

	dummyOnce sync.Once
	dummyHash []byte
}

func NewAuthService(userRepo repository.UserRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		logger:   logger,
		cost:     BcryptCost,
	}
}

// WithCost sets the bcrypt work factor used for new hashes.
func (s *AuthService) WithCost(cost int) *AuthService {
	s.cost = cost
	return s
}

// HashPassword hashes a password using bcrypt
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return "", oops.Code("PASSWORD_HASH_FAILED").Wrap(err)
	}
	return string(hash), nil
}

// VerifyPassword verifies a password against a hash
func (s *AuthService) VerifyPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// Authenticate resolves identifier as an email address first and as a
// username second, then checks the password. Unknown users still pay for one
// bcrypt comparison.
func (s *AuthService) Authenticate(ctx context.Context, identifier, password string) (*domain.User, error) {
	user, err := s.lookup(ctx, identifier)
	if errors.Is(err, domain.ErrNotFound) {
		_ = bcrypt.CompareHashAndPassword(s.placeholderHash(), []byte(password))
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").Wrap(ErrInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}

	if !s.VerifyPassword(password, user.PasswordHash) {
		return nil, oops.Code("AUTH_INVALID_CREDENTIALS").
			With("user_id", user.ID).
			Wrap(ErrInvalidCredentials)
	}

	return user, nil
}

func (s *AuthService) lookup(ctx context.Context, identifier string) (*domain.User, error) {
	user, err := s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(identifier))
	if !errors.Is(err, domain.ErrNotFound) {
		return user, err
	}
	return s.userRepo.FindByUsername(ctx, identifier)
}

func (s *AuthService) placeholderHash() []byte {
	s.dummyOnce.Do(func() {
		hash, err := bcrypt.GenerateFromPassword([]byte("placeholder-password"), s.cost)
		if err != nil {
			s.logger.Error("failed to build placeholder hash", "error", err)
		}
		s.dummyHash = hash
	})
	return s.dummyHash
}

// RecordLogin stamps the user's last login time.
func (s *AuthService) RecordLogin(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.TouchLastLogin(ctx, user); err != nil {
		return err
	}
	s.logger.Info("user logged in", "user_id", user.ID, "username", user.Username)
	return nil
}

// Register creates a regular account. A username or email collision at the
// store surfaces as *domain.ConstraintViolation.
func (s *AuthService) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	return s.CreateUser(ctx, username, email, password, false)
}

func (s *AuthService) CreateUser(ctx context.Context, username, email, password string, isAdmin bool) (*domain.User, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return nil, err
	}

	user := domain.NewUser(username, email, hash)
	user.IsAdmin = isAdmin

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user created", "user_id", user.ID, "username", user.Username, "is_admin", isAdmin)
	return user, nil
}

// SetPassword replaces the user's password hash and persists it.
func (s *AuthService) SetPassword(ctx context.Context, user *domain.User, password string) error {
	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}

	previous := user.PasswordHash
	user.PasswordHash = hash
	if err := s.userRepo.UpdatePassword(ctx, user); err != nil {
		user.PasswordHash = previous
		return err
	}
	return nil
}

func (s *AuthService) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return s.userRepo.FindByID(ctx, id)
}

func (s *AuthService) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.userRepo.FindByUsername(ctx, username)
}

func (s *AuthService) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.userRepo.FindByEmail(ctx, domain.NormalizeEmail(email))
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// DeleteUser removes the user together with their posts and reset tokens.
func (s *AuthService) DeleteUser(ctx context.Context, user *domain.User) error {
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return err
	}
	s.logger.Info("user deleted", "user_id", user.ID, "username", user.Username)
	return nil
}
