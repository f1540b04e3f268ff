package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api/dto"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/service"
	"github.com/martijn/website/internal/core/validation"
	"github.com/martijn/website/internal/metrics"
	"github.com/martijn/website/internal/web"
)

const (
	MsgInvalidCredentials = "Invalid email/username or password"
	MsgRegistered         = "Congratulations, you are now registered!"
	MsgResetSent          = "Check your email for instructions to reset your password"
	MsgEmailNotFound      = "Email address not found"
	MsgPasswordReset      = "Your password has been reset."
	MsgResetTokenInvalid  = "This password reset link is invalid or has expired."
)

type AuthHandler struct {
	authService  *service.AuthService
	resetService *service.PasswordResetService
	validator    *validation.Validator
	sessions     *session.Manager
	renderer     *web.Renderer
	metrics      *metrics.Metrics
	logger       *slog.Logger
	baseURL      string
}

func NewAuthHandler(
	authService *service.AuthService,
	resetService *service.PasswordResetService,
	validator *validation.Validator,
	sessions *session.Manager,
	renderer *web.Renderer,
	m *metrics.Metrics,
	logger *slog.Logger,
	baseURL string,
) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		resetService: resetService,
		validator:    validator,
		sessions:     sessions,
		renderer:     renderer,
		metrics:      m,
		logger:       logger,
		baseURL:      strings.TrimRight(baseURL, "/"),
	}
}

// flash stores a message for the next page. A failed save is logged and the
// response carries on without it.
func (h *AuthHandler) flash(c *gin.Context, category, message string) {
	if err := h.sessions.AddFlash(c, category, message); err != nil {
		h.logger.Warn("failed to store flash", "error", err)
	}
}

// LoginPage handles GET /auth/login
func (h *AuthHandler) LoginPage(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "login.html", "Sign In", dto.LoginPage{Next: c.Query("next")})
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var form validation.LoginForm
	_ = c.ShouldBind(&form)

	page := dto.LoginPage{Form: form, Next: c.Query("next")}
	page.Form.Password = ""

	if errs := h.validator.Login(&form); errs != nil {
		page.Errors = errs
		h.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeFailure)
		h.renderer.HTML(c, http.StatusOK, "login.html", "Sign In", page)
		return
	}

	ctx := c.Request.Context()
	user, err := h.authService.Authenticate(ctx, form.EmailOrUsername, form.Password)
	if errors.Is(err, service.ErrInvalidCredentials) {
		page.Error = MsgInvalidCredentials
		h.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeFailure)
		h.renderer.HTML(c, http.StatusOK, "login.html", "Sign In", page)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.authService.RecordLogin(ctx, user); err != nil {
		_ = c.Error(err)
		return
	}

	if err := h.sessions.Login(c, user, form.Remember()); err != nil {
		_ = c.Error(err)
		return
	}

	h.metrics.AuthEvent(metrics.EventLogin, metrics.OutcomeSuccess)
	h.flash(c, "success", fmt.Sprintf("Welcome back, %s!", user.Username))
	c.Redirect(http.StatusFound, session.SafeNext(c.Query("next")))
}

// RegisterPage handles GET /auth/register
func (h *AuthHandler) RegisterPage(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "register.html", "Register", dto.RegisterPage{})
}

// Register handles POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var form validation.RegistrationForm
	_ = c.ShouldBind(&form)

	ctx := c.Request.Context()
	errs, err := h.validator.Registration(ctx, &form)
	if err != nil {
		_ = c.Error(err)
		return
	}
	if errs != nil {
		h.renderRegisterErrors(c, form, errs)
		return
	}

	user, err := h.authService.Register(ctx, form.Username, form.Email, form.Password)
	if errs, ok := validation.FromConstraint(err); ok {
		// Lost a race with a concurrent registration.
		h.renderRegisterErrors(c, form, errs)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	h.metrics.AuthEvent(metrics.EventRegister, metrics.OutcomeSuccess)
	h.flash(c, "success", MsgRegistered)
	c.Redirect(http.StatusFound, "/auth/login")
}

func (h *AuthHandler) renderRegisterErrors(c *gin.Context, form validation.RegistrationForm, errs validation.Errors) {
	form.Password = ""
	form.PasswordConfirm = ""
	h.metrics.AuthEvent(metrics.EventRegister, metrics.OutcomeFailure)
	h.renderer.HTML(c, http.StatusOK, "register.html", "Register", dto.RegisterPage{Form: form, Errors: errs})
}

// Logout handles GET /auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	user := session.CurrentUser(c)

	if err := h.sessions.Logout(c); err != nil {
		_ = c.Error(err)
		return
	}

	h.metrics.AuthEvent(metrics.EventLogout, metrics.OutcomeSuccess)
	h.flash(c, "info", fmt.Sprintf("You have been logged out, %s.", user.Username))
	c.Redirect(http.StatusFound, "/")
}

// ResetRequestPage handles GET /auth/reset_password_request
func (h *AuthHandler) ResetRequestPage(c *gin.Context) {
	h.renderer.HTML(c, http.StatusOK, "reset_password_request.html", "Reset Password", dto.ResetRequestPage{})
}

// ResetRequest handles POST /auth/reset_password_request
func (h *AuthHandler) ResetRequest(c *gin.Context) {
	var form validation.ResetRequestForm
	_ = c.ShouldBind(&form)

	if errs := h.validator.ResetRequest(&form); errs != nil {
		h.renderer.HTML(c, http.StatusOK, "reset_password_request.html", "Reset Password",
			dto.ResetRequestPage{Form: form, Errors: errs})
		return
	}

	token, user, err := h.resetService.RequestReset(c.Request.Context(), form.Email)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.metrics.AuthEvent(metrics.EventResetRequest, metrics.OutcomeNotFound)
		h.flash(c, "warning", MsgEmailNotFound)
	case err != nil:
		_ = c.Error(err)
		return
	default:
		// There is no mail delivery; the link goes to the log.
		h.logger.Info("password reset requested",
			"user_id", user.ID,
			"reset_url", h.baseURL+"/auth/reset_password/"+token,
		)
		h.metrics.AuthEvent(metrics.EventResetRequest, metrics.OutcomeSuccess)
		h.flash(c, "info", MsgResetSent)
	}

	c.Redirect(http.StatusFound, "/auth/login")
}

// ResetPasswordPage handles GET /auth/reset_password/:token
func (h *AuthHandler) ResetPasswordPage(c *gin.Context) {
	token := c.Param("token")
	if !h.checkResetToken(c, token) {
		return
	}
	h.renderer.HTML(c, http.StatusOK, "reset_password.html", "Reset Password", dto.ResetPasswordPage{Token: token})
}

// ResetPassword handles POST /auth/reset_password/:token
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	token := c.Param("token")
	if !h.checkResetToken(c, token) {
		return
	}

	var form validation.ResetPasswordForm
	_ = c.ShouldBind(&form)

	if errs := h.validator.ResetPassword(&form); errs != nil {
		h.renderer.HTML(c, http.StatusOK, "reset_password.html", "Reset Password",
			dto.ResetPasswordPage{Token: token, Errors: errs})
		return
	}

	_, err := h.resetService.ResetPassword(c.Request.Context(), token, form.Password)
	if errors.Is(err, service.ErrInvalidResetToken) {
		h.renderer.Error(c, http.StatusNotFound, MsgResetTokenInvalid)
		return
	}
	if err != nil {
		_ = c.Error(err)
		return
	}

	h.metrics.AuthEvent(metrics.EventResetPassword, metrics.OutcomeSuccess)
	h.flash(c, "success", MsgPasswordReset)
	c.Redirect(http.StatusFound, "/auth/login")
}

// checkResetToken renders the 404 page and returns false unless token is live.
func (h *AuthHandler) checkResetToken(c *gin.Context, token string) bool {
	_, err := h.resetService.ValidateToken(c.Request.Context(), token)
	if errors.Is(err, service.ErrInvalidResetToken) {
		h.metrics.AuthEvent(metrics.EventResetPassword, metrics.OutcomeFailure)
		h.renderer.Error(c, http.StatusNotFound, MsgResetTokenInvalid)
		return false
	}
	if err != nil {
		_ = c.Error(err)
		return false
	}
	return true
}
