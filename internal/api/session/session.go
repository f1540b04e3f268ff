// Package session keeps track of who is logged in. Identity lives in a
// browser-session cookie managed by gorilla/sessions; "remember me" adds a
// separate signed JWT cookie that outlives the browser session.
package session

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/sessions"
	"github.com/martijn/website/internal/core/domain"
)

const (
	SessionCookieName  = "session"
	RememberCookieName = "remember_token"

	userIDKey      = "user_id"
	currentUserKey = "current_user"
	rememberIssuer = "website"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

func init() {
	gob.Register(Flash{})
}

// UserFinder resolves the user id stored in a cookie.
type UserFinder interface {
	FindByID(ctx context.Context, id int64) (*domain.User, error)
}

type Options struct {
	SecretKey        string
	Secure           bool
	RememberDuration time.Duration
}

type Manager struct {
	store       sessions.Store
	users       UserFinder
	signingKey  []byte
	secure      bool
	rememberFor time.Duration
	now         func() time.Time
}

func NewManager(users UserFinder, opts Options) *Manager {
	store := sessions.NewCookieStore(
		deriveKey(opts.SecretKey, "session-hash"),
		deriveKey(opts.SecretKey, "session-block"),
	)
	// No MaxAge: the cookie ends with the browser session.
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   0,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &Manager{
		store:       store,
		users:       users,
		signingKey:  deriveKey(opts.SecretKey, "remember-token"),
		secure:      opts.Secure,
		rememberFor: opts.RememberDuration,
		now:         time.Now,
	}
}

func deriveKey(secret, purpose string) []byte {
	sum := sha256.Sum256([]byte(purpose + ":" + secret))
	return sum[:]
}

// session returns the request's session. A cookie that fails to decode is
// replaced by an empty session.
func (m *Manager) session(c *gin.Context) *sessions.Session {
	s, err := m.store.Get(c.Request, SessionCookieName)
	if err != nil {
		s, _ = m.store.New(c.Request, SessionCookieName)
	}
	return s
}

func (m *Manager) save(c *gin.Context, s *sessions.Session) error {
	if err := s.Save(c.Request, c.Writer); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

// Login binds the user to the browser session and, when remember is set,
// issues the durable remember cookie.
func (m *Manager) Login(c *gin.Context, user *domain.User, remember bool) error {
	s := m.session(c)
	s.Values[userIDKey] = user.ID
	if err := m.save(c, s); err != nil {
		return err
	}

	if remember {
		token, expiresAt, err := m.IssueRememberToken(user.ID)
		if err != nil {
			return err
		}
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     RememberCookieName,
			Value:    token,
			Path:     "/",
			Expires:  expiresAt,
			MaxAge:   int(m.rememberFor / time.Second),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	SetCurrentUser(c, user)
	return nil
}

// Logout drops everything the session holds and expires the remember cookie.
// Flashes added afterwards still reach the next page.
func (m *Manager) Logout(c *gin.Context) error {
	s := m.session(c)
	for key := range s.Values {
		delete(s.Values, key)
	}
	m.clearRemember(c)
	c.Set(currentUserKey, (*domain.User)(nil))
	return m.save(c, s)
}

func (m *Manager) clearRemember(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     RememberCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Resolve finds the user behind the request: the session first, then a valid
// remember cookie, which also re-establishes the session. Stale or invalid
// cookies are cleared. A nil user means the request is anonymous.
func (m *Manager) Resolve(c *gin.Context) (*domain.User, error) {
	ctx := c.Request.Context()
	s := m.session(c)

	if id, ok := s.Values[userIDKey].(int64); ok {
		user, err := m.users.FindByID(ctx, id)
		if err == nil {
			return user, nil
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		delete(s.Values, userIDKey)
		if err := m.save(c, s); err != nil {
			return nil, err
		}
	}

	cookie, err := c.Request.Cookie(RememberCookieName)
	if err != nil || cookie.Value == "" {
		return nil, nil
	}

	id, err := m.ParseRememberToken(cookie.Value)
	if err != nil {
		m.clearRemember(c)
		return nil, nil
	}

	user, err := m.users.FindByID(ctx, id)
	if errors.Is(err, domain.ErrNotFound) {
		m.clearRemember(c)
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	s.Values[userIDKey] = user.ID
	if err := m.save(c, s); err != nil {
		return nil, err
	}
	return user, nil
}

// IssueRememberToken signs a token naming userID that expires after the
// configured remember duration.
func (m *Manager) IssueRememberToken(userID int64) (string, time.Time, error) {
	now := m.now().Truncate(time.Second)
	expiresAt := now.Add(m.rememberFor)

	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		Issuer:    rememberIssuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign remember token: %w", err)
	}
	return token, expiresAt, nil
}

// ParseRememberToken verifies a remember token and returns the user id.
func (m *Manager) ParseRememberToken(tokenString string) (int64, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(rememberIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return 0, fmt.Errorf("invalid remember token: %w", err)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid remember token subject: %w", err)
	}
	return id, nil
}

func (m *Manager) AddFlash(c *gin.Context, category, message string) error {
	s := m.session(c)
	s.AddFlash(Flash{Category: category, Message: message})
	return m.save(c, s)
}

// Flashes returns and consumes the pending flash messages. When the
// consumed session cannot be saved the messages are still returned along
// with the error, and the browser will show them again.
func (m *Manager) Flashes(c *gin.Context) ([]Flash, error) {
	s := m.session(c)
	raw := s.Flashes()
	if len(raw) == 0 {
		return nil, nil
	}

	flashes := make([]Flash, 0, len(raw))
	for _, f := range raw {
		if flash, ok := f.(Flash); ok {
			flashes = append(flashes, flash)
		}
	}
	return flashes, m.save(c, s)
}

func SetCurrentUser(c *gin.Context, user *domain.User) {
	c.Set(currentUserKey, user)
}

// CurrentUser returns the identity resolved for this request, or nil.
func CurrentUser(c *gin.Context) *domain.User {
	if v, ok := c.Get(currentUserKey); ok {
		if user, ok := v.(*domain.User); ok {
			return user
		}
	}
	return nil
}

// SafeNext returns next when it is a path on this site and "/" otherwise.
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") {
		return "/"
	}
	if strings.ContainsAny(next, "\\\r\n") {
		return "/"
	}

	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return "/"
	}
	return next
}

// LoginURL is the login page that returns to target afterwards.
func LoginURL(target string) string {
	return "/auth/login?next=" + strings.ReplaceAll(url.QueryEscape(target), "%2F", "/")
}
