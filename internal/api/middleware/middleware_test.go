package middleware

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/web"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers struct {
	user *domain.User
	err  error
}

func (s stubUsers) FindByID(_ context.Context, _ int64) (*domain.User, error) {
	return s.user, s.err
}

func newTestRouter(t *testing.T, users stubUsers) (*gin.Engine, *session.Manager, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpl, err := web.Templates()
	require.NoError(t, err)

	logs := &bytes.Buffer{}
	logger := slog.New(slog.NewTextHandler(logs, nil))
	sessions := session.NewManager(users, session.Options{SecretKey: "test", RememberDuration: time.Hour})
	renderer := web.NewRenderer(sessions)

	router := gin.New()
	router.SetHTMLTemplate(tmpl)
	router.Use(RequestLogger(logger))
	router.Use(ErrorHandlerMiddleware(renderer, logger))
	router.Use(Identity(sessions, logger))

	router.GET("/panic", func(c *gin.Context) { panic("boom") })
	router.GET("/fail", func(c *gin.Context) {
		_ = c.Error(oops.Code("CONTENT_LOAD_FAILED").Errorf("no rows"))
	})
	router.GET("/whoami", func(c *gin.Context) {
		if user := session.CurrentUser(c); user != nil {
			c.String(http.StatusOK, user.Username)
			return
		}
		c.String(http.StatusOK, "anonymous")
	})
	router.GET("/admin", RequireLogin(sessions), RequireAdmin(renderer), func(c *gin.Context) {
		c.String(http.StatusOK, "admin area")
	})
	router.GET("/guest", RequireAnonymous(), func(c *gin.Context) {
		c.String(http.StatusOK, "guest")
	})

	return router, sessions, logs
}

func serve(router http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestRequestLoggerRequestID(t *testing.T) {
	router, _, logs := newTestRouter(t, stubUsers{err: domain.ErrNotFound})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	generated := w.Header().Get(RequestIDHeader)
	assert.Len(t, generated, 36)
	assert.Contains(t, logs.String(), "request_id="+generated)
	assert.Contains(t, logs.String(), "path=/whoami")

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "6f1c3b5e-8c55-4f5f-9f43-2f1f1d3c2a10")
	w = serve(router, req)
	assert.Equal(t, "6f1c3b5e-8c55-4f5f-9f43-2f1f1d3c2a10", w.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "not a uuid\r\n")
	w = serve(router, req)
	assert.NotEqual(t, "not a uuid\r\n", w.Header().Get(RequestIDHeader))
	assert.Len(t, w.Header().Get(RequestIDHeader), 36)
}

func TestErrorHandlerRecoversPanic(t *testing.T) {
	router, _, logs := newTestRouter(t, stubUsers{err: domain.ErrNotFound})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/panic", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), MsgInternalError)
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestErrorHandlerRendersAttachedErrors(t *testing.T) {
	router, _, logs := newTestRouter(t, stubUsers{err: domain.ErrNotFound})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/fail", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), MsgInternalError)
	assert.Contains(t, logs.String(), "code=CONTENT_LOAD_FAILED")
}

func TestIdentityStoreFailureIsAnonymous(t *testing.T) {
	router, sessions, logs := newTestRouter(t, stubUsers{err: errors.New("database is locked")})

	token, _, err := sessions.IssueRememberToken(7)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.AddCookie(&http.Cookie{Name: session.RememberCookieName, Value: token})
	w := serve(router, req)

	assert.Equal(t, "anonymous", w.Body.String())
	assert.Contains(t, logs.String(), "failed to resolve identity")
}

func TestRequireAdmin(t *testing.T) {
	user := &domain.User{ID: 7, Username: "alice"}
	router, sessions, _ := newTestRouter(t, stubUsers{user: user})

	token, _, err := sessions.IssueRememberToken(user.ID)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: session.RememberCookieName, Value: token})
	w := serve(router, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), MsgAdminRequired)

	user.IsAdmin = true
	req = httptest.NewRequest(http.MethodGet, "/admin", nil)
	req.AddCookie(&http.Cookie{Name: session.RememberCookieName, Value: token})
	w = serve(router, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "admin area", w.Body.String())
}

func TestRequireLoginAndAnonymous(t *testing.T) {
	router, _, _ := newTestRouter(t, stubUsers{err: domain.ErrNotFound})

	w := serve(router, httptest.NewRequest(http.MethodGet, "/admin?tab=1", nil))
	assert.Equal(t, http.StatusFound, w.Code)
	assert.Equal(t, "/auth/login?next=/admin%3Ftab%3D1", w.Header().Get("Location"))

	w = serve(router, httptest.NewRequest(http.MethodGet, "/guest", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}
