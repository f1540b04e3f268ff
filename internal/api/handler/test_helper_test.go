package handler_test

import (
	"bytes"
	"context"
	"html"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/service"
	"github.com/martijn/website/internal/core/validation"
	"github.com/martijn/website/internal/infrastructure/gormstore"
	"github.com/martijn/website/internal/infrastructure/sqlstore"
	"github.com/martijn/website/internal/metrics"
	"github.com/martijn/website/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// testEnv holds all test dependencies
type testEnv struct {
	db      *sqlstore.DB
	router  http.Handler
	auth    *service.AuthService
	content *service.ContentService
	metrics *metrics.Metrics
	logs    *bytes.Buffer
	jar     map[string]*http.Cookie
}

// setupTestEnv wires the full server against an in-memory SQLite database
func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqlstore.Open(sqlstore.DriverSQLite, ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(context.Background()))

	gdb, err := gormstore.Open(db)
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	cfg := &config.Config{
		Env:                    config.EnvDevelopment,
		HTTPHost:               "127.0.0.1",
		HTTPPort:               0,
		BaseURL:                "http://localhost:5000",
		DatabaseDriver:         config.DriverSQLite,
		DatabaseDSN:            ":memory:",
		SecretKey:              "test-secret",
		RememberCookieDuration: 24 * time.Hour,
		ResetTokenTTL:          time.Hour,
	}

	userRepo := sqlstore.NewUserRepository(db)
	authService := service.NewAuthService(userRepo, logger).WithCost(bcrypt.MinCost)
	resetService := service.NewPasswordResetService(
		authService,
		userRepo,
		sqlstore.NewPasswordResetRepository(db),
		cfg.ResetTokenTTL,
		logger,
	)
	contentService := service.NewContentService(
		gormstore.NewBlogPostRepository(gdb),
		gormstore.NewProjectRepository(gdb),
		gormstore.NewContactRepository(gdb),
	)
	m := metrics.New()

	server, err := api.NewServer(cfg, api.Dependencies{
		AuthService:    authService,
		ResetService:   resetService,
		ContentService: contentService,
		Validator:      validation.New(authService),
		Sessions: session.NewManager(authService, session.Options{
			SecretKey:        cfg.SecretKey,
			RememberDuration: cfg.RememberCookieDuration,
		}),
		Metrics: m,
		DB:      db,
	}, logger)
	require.NoError(t, err)

	return &testEnv{
		db:      db,
		router:  server.Handler(),
		auth:    authService,
		content: contentService,
		metrics: m,
		logs:    logs,
		jar:     map[string]*http.Cookie{},
	}
}

// makeRequest sends a request with the browser's cookies and stores the
// cookies from the response, the last Set-Cookie for a name winning.
func (env *testEnv) makeRequest(t *testing.T, method, path string, form url.Values) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, path, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for _, cookie := range env.jar {
		req.AddCookie(cookie)
	}

	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	for _, cookie := range w.Result().Cookies() {
		if cookie.MaxAge < 0 {
			delete(env.jar, cookie.Name)
			continue
		}
		env.jar[cookie.Name] = cookie
	}
	return w
}

func (env *testEnv) createUser(t *testing.T, username, email, password string, admin bool) *domain.User {
	t.Helper()

	user, err := env.auth.CreateUser(context.Background(), username, email, password, admin)
	require.NoError(t, err)
	return user
}

func (env *testEnv) login(t *testing.T, identifier, password string) *httptest.ResponseRecorder {
	t.Helper()

	w := env.makeRequest(t, http.MethodPost, "/auth/login", url.Values{
		"email_or_username": {identifier},
		"password":          {password},
	})
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	return w
}

func responseCookie(w *httptest.ResponseRecorder, name string) *http.Cookie {
	var found *http.Cookie
	for _, cookie := range w.Result().Cookies() {
		if cookie.Name == name {
			found = cookie
		}
	}
	return found
}

func assertRedirect(t *testing.T, w *httptest.ResponseRecorder, location string) {
	t.Helper()
	require.Equal(t, http.StatusFound, w.Code, w.Body.String())
	assert.Equal(t, location, w.Header().Get("Location"))
}

// assertFlash follows up with a GET and checks the flash is rendered.
func (env *testEnv) assertFlash(t *testing.T, path, message string) {
	t.Helper()
	w := env.makeRequest(t, http.MethodGet, path, nil)
	assert.Contains(t, w.Body.String(), html.EscapeString(message))
}
