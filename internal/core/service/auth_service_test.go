package service

import (
	"context"
	"errors"
	"testing"

	"github.com/martijn/website/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	s := newTestServices(t)

	hash, err := s.auth.HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)

	assert.True(t, s.auth.VerifyPassword("correct horse", hash))
	assert.False(t, s.auth.VerifyPassword("correct horse ", hash))
	assert.False(t, s.auth.VerifyPassword("Correct horse", hash))
	assert.False(t, s.auth.VerifyPassword("", hash))
}

func TestSetPassword(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	user, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	require.NoError(t, s.auth.SetPassword(ctx, user, "password2"))

	stored, err := s.auth.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, s.auth.VerifyPassword("password2", stored.PasswordHash))
	assert.False(t, s.auth.VerifyPassword("password1", stored.PasswordHash))
}

func TestRegisterNormalizesEmail(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	user, err := s.auth.Register(ctx, "alice", "A@Example.com", "password1")
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", user.Email)
	assert.False(t, user.IsAdmin)

	found, err := s.auth.FindByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
}

func TestRegisterTwiceFailsOnSameField(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	tests := []struct {
		name      string
		username  string
		email     string
		wantField []string
	}{
		{"same username", "alice", "other@example.com", []string{"username"}},
		{"same email", "bob", "ALICE@example.com", []string{"email"}},
		// The store reports whichever unique index it checks first.
		{"identical", "alice", "alice@example.com", []string{"username", "email"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.auth.Register(ctx, tt.username, tt.email, "password1")
			require.Error(t, err)

			var violation *domain.ConstraintViolation
			require.True(t, errors.As(err, &violation))
			assert.Contains(t, tt.wantField, violation.Field)

			_, err = s.auth.Register(ctx, tt.username, tt.email, "password1")
			var again *domain.ConstraintViolation
			require.True(t, errors.As(err, &again))
			assert.Equal(t, violation.Field, again.Field)
		})
	}
}

func TestAuthenticate(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	registered, err := s.auth.Register(ctx, "alice", "Alice@Example.com", "password1")
	require.NoError(t, err)

	t.Run("by email any case", func(t *testing.T) {
		user, err := s.auth.Authenticate(ctx, "ALICE@example.com", "password1")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("by username", func(t *testing.T) {
		user, err := s.auth.Authenticate(ctx, "alice", "password1")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, user.ID)
	})

	t.Run("wrong password and unknown user look the same", func(t *testing.T) {
		_, wrongPassword := s.auth.Authenticate(ctx, "alice", "nope-nope")
		_, unknownUser := s.auth.Authenticate(ctx, "mallory", "password1")

		assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
		assert.ErrorIs(t, unknownUser, ErrInvalidCredentials)
		assert.Equal(t, wrongPassword.Error(), unknownUser.Error())
	})
}

func TestRecordLogin(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	user, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)
	require.NoError(t, s.auth.RecordLogin(ctx, user))

	stored, err := s.auth.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, stored.LastLoginAt.Valid)
}

func TestCreateAndDeleteUser(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	admin, err := s.auth.CreateUser(ctx, "admin", "admin@example.com", "admin123", true)
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin)

	users, err := s.auth.ListUsers(ctx)
	require.NoError(t, err)
	assert.Len(t, users, 1)

	require.NoError(t, s.auth.DeleteUser(ctx, admin))
	_, err = s.auth.FindByUsername(ctx, "admin")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
