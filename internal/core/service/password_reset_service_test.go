package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/repository"
	"github.com/martijn/website/internal/infrastructure/sqlstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateResetToken(t *testing.T) {
	token, hash, err := GenerateResetToken()
	require.NoError(t, err)

	assert.Len(t, token, 64)
	assert.Len(t, hash, 64)
	assert.NotEqual(t, token, hash)
	assert.Equal(t, hash, HashResetToken(token))

	other, _, err := GenerateResetToken()
	require.NoError(t, err)
	assert.NotEqual(t, token, other)
}

func TestRequestResetUnknownEmail(t *testing.T) {
	s := newTestServices(t)

	_, _, err := s.resets.RequestReset(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResetPasswordFlow(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	registered, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	token, user, err := s.resets.RequestReset(ctx, "Alice@Example.com")
	require.NoError(t, err)
	assert.Equal(t, registered.ID, user.ID)

	var stored string
	require.NoError(t, s.db.Get(&stored, `SELECT token_hash FROM password_resets WHERE user_id = ?`, user.ID))
	assert.NotEqual(t, token, stored, "plaintext token must not be stored")

	valid, err := s.resets.ValidateToken(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, valid.ID)

	_, err = s.resets.ResetPassword(ctx, token, "brand-new-pass")
	require.NoError(t, err)

	_, err = s.auth.Authenticate(ctx, "alice", "brand-new-pass")
	assert.NoError(t, err)

	_, err = s.resets.ResetPassword(ctx, token, "another-pass")
	assert.ErrorIs(t, err, ErrInvalidResetToken, "tokens are single use")
}

func TestRequestResetReplacesEarlierTokens(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	first, _, err := s.resets.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)
	second, _, err := s.resets.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)

	_, err = s.resets.ValidateToken(ctx, first)
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	_, err = s.resets.ValidateToken(ctx, second)
	assert.NoError(t, err)
}

func TestValidateTokenRejectsExpiredAndUnknown(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	user, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	token, hash, err := GenerateResetToken()
	require.NoError(t, err)
	_, err = s.db.Exec(`
		INSERT INTO password_resets (id, user_id, token_hash, expires_at, created_at)
		VALUES ('expired', ?, ?, ?, ?)
	`, user.ID, hash, time.Now().UTC().Add(-time.Minute), time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)

	_, err = s.resets.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	_, err = s.resets.ValidateToken(ctx, "not-a-token")
	assert.ErrorIs(t, err, ErrInvalidResetToken)

	_, err = s.resets.ValidateToken(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidResetToken)
}

func TestResetPasswordConcurrentSubmissions(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	_, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)
	token, _, err := s.resets.RequestReset(ctx, "alice@example.com")
	require.NoError(t, err)

	const attempts = 8
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int32
		rejected  atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.resets.ResetPassword(ctx, token, fmt.Sprintf("new-password-%d", i))
			switch {
			case err == nil:
				succeeded.Add(1)
			case errors.Is(err, ErrInvalidResetToken):
				rejected.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), succeeded.Load())
	assert.Equal(t, int32(attempts-1), rejected.Load())
}

type failingResetDeletes struct {
	repository.PasswordResetRepository
}

func (failingResetDeletes) DeleteByUser(context.Context, int64) error {
	return errors.New("disk I/O error")
}

func TestValidateTokenLogsFailedExpiredCleanup(t *testing.T) {
	ctx := context.Background()
	s := newTestServices(t)

	user, err := s.auth.Register(ctx, "alice", "alice@example.com", "password1")
	require.NoError(t, err)

	token, hash, err := GenerateResetToken()
	require.NoError(t, err)
	resetRepo := sqlstore.NewPasswordResetRepository(s.db)
	require.NoError(t, resetRepo.Create(ctx, domain.NewPasswordReset(user.ID, hash, -time.Minute)))

	var logs bytes.Buffer
	resets := NewPasswordResetService(
		s.auth,
		sqlstore.NewUserRepository(s.db),
		failingResetDeletes{resetRepo},
		time.Hour,
		slog.New(slog.NewTextHandler(&logs, nil)),
	)

	_, err = resets.ValidateToken(ctx, token)
	assert.ErrorIs(t, err, ErrInvalidResetToken)
	assert.Contains(t, logs.String(), "failed to delete expired reset token")
	assert.Contains(t, logs.String(), "disk I/O error")
}
