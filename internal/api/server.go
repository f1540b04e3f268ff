package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/martijn/website/internal/api/handler"
	"github.com/martijn/website/internal/api/middleware"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/core/service"
	"github.com/martijn/website/internal/core/validation"
	"github.com/martijn/website/internal/metrics"
	"github.com/martijn/website/internal/web"
	"github.com/martijn/website/pkg/config"
)

// Dependencies are built once at startup and shared by every request.
type Dependencies struct {
	AuthService    *service.AuthService
	ResetService   *service.PasswordResetService
	ContentService *service.ContentService
	Validator      *validation.Validator
	Sessions       *session.Manager
	Metrics        *metrics.Metrics
	DB             handler.Pinger
}

type Server struct {
	router *gin.Engine
	srv    *http.Server
	config *config.Config
	logger *slog.Logger
}

// NewServer creates the HTTP server and registers every route.
func NewServer(cfg *config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	router := gin.New()
	router.SetHTMLTemplate(tmpl)

	renderer := web.NewRenderer(deps.Sessions)

	// Global middleware
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.Metrics(deps.Metrics))
	router.Use(middleware.ErrorHandlerMiddleware(renderer, logger))
	router.Use(middleware.Identity(deps.Sessions, logger))

	// Initialize handlers
	authHandler := handler.NewAuthHandler(
		deps.AuthService,
		deps.ResetService,
		deps.Validator,
		deps.Sessions,
		renderer,
		deps.Metrics,
		logger,
		cfg.BaseURL,
	)
	mainHandler := handler.NewMainHandler(deps.ContentService, deps.Validator, deps.Sessions, renderer, logger)
	adminHandler := handler.NewAdminHandler(deps.ContentService, renderer)
	healthHandler := handler.NewHealthHandler(deps.DB)

	requireLogin := middleware.RequireLogin(deps.Sessions)

	// Authentication
	auth := router.Group("/auth")
	{
		anonymous := auth.Group("", middleware.RequireAnonymous())
		anonymous.GET("/login", authHandler.LoginPage)
		anonymous.POST("/login", authHandler.Login)
		anonymous.GET("/register", authHandler.RegisterPage)
		anonymous.POST("/register", authHandler.Register)
		anonymous.GET("/reset_password_request", authHandler.ResetRequestPage)
		anonymous.POST("/reset_password_request", authHandler.ResetRequest)
		anonymous.GET("/reset_password/:token", authHandler.ResetPasswordPage)
		anonymous.POST("/reset_password/:token", authHandler.ResetPassword)

		auth.GET("/logout", requireLogin, authHandler.Logout)
	}

	// Public pages
	router.GET("/", mainHandler.Index)
	router.GET("/index", mainHandler.Index)
	router.GET("/portfolio", mainHandler.Portfolio)
	router.GET("/blog", mainHandler.Blog)
	router.GET("/blog/:slug", mainHandler.BlogPost)
	router.GET("/contact", mainHandler.ContactPage)
	router.POST("/contact", mainHandler.Contact)

	// Logged-in area
	router.GET("/dashboard", requireLogin, mainHandler.Dashboard)
	router.GET("/profile", requireLogin, mainHandler.Profile)

	// Admin
	admin := router.Group("/admin", requireLogin, middleware.RequireAdmin(renderer))
	{
		admin.GET("/messages", adminHandler.Messages)
		admin.POST("/messages/:id/read", adminHandler.MarkRead)
		admin.POST("/messages/:id/unread", adminHandler.MarkUnread)
	}

	// Operations
	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	router.StaticFS("/static", web.Static())

	router.NoRoute(func(c *gin.Context) {
		renderer.Error(c, http.StatusNotFound, handler.MsgPageNotFound)
	})

	return &Server{
		router: router,
		srv: &http.Server{
			Addr:              fmt.Sprintf("%s:%d", cfg.HTTPHost, cfg.HTTPPort),
			Handler:           router,
			ReadTimeout:       15 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      15 * time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20, // 1 MB
		},
		config: cfg,
		logger: logger,
	}, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until Shutdown is called. It returns nil after a clean
// shutdown.
func (s *Server) Start() error {
	addr := s.srv.Addr

	var err error
	if s.config.SSLCert != "" && s.config.SSLKey != "" {
		s.logger.Info("starting HTTPS server", "addr", addr)
		err = s.srv.ListenAndServeTLS(s.config.SSLCert, s.config.SSLKey)
	} else {
		s.logger.Info("starting HTTP server", "addr", addr)
		err = s.srv.ListenAndServe()
	}

	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
