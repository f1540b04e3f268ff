package service

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/martijn/website/internal/infrastructure/gormstore"
	"github.com/martijn/website/internal/infrastructure/sqlstore"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testServices struct {
	db      *sqlstore.DB
	auth    *AuthService
	resets  *PasswordResetService
	content *ContentService
}

func newTestServices(t *testing.T) *testServices {
	t.Helper()

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	gdb, err := gormstore.Open(db)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	userRepo := sqlstore.NewUserRepository(db)
	auth := NewAuthService(userRepo, logger).WithCost(bcrypt.MinCost)

	return &testServices{
		db:   db,
		auth: auth,
		resets: NewPasswordResetService(
			auth,
			userRepo,
			sqlstore.NewPasswordResetRepository(db),
			time.Hour,
			logger,
		),
		content: NewContentService(
			gormstore.NewBlogPostRepository(gdb),
			gormstore.NewProjectRepository(gdb),
			gormstore.NewContactRepository(gdb),
		),
	}
}
