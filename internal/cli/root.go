package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/martijn/website/internal/api"
	"github.com/martijn/website/internal/api/session"
	"github.com/martijn/website/internal/core/service"
	"github.com/martijn/website/internal/core/validation"
	"github.com/martijn/website/internal/infrastructure/gormstore"
	"github.com/martijn/website/internal/infrastructure/sqlstore"
	"github.com/martijn/website/internal/logging"
	"github.com/martijn/website/internal/metrics"
	"github.com/martijn/website/pkg/config"
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "website",
	Short: "Personal website with blog, portfolio and contact form",
	Long: `website serves a personal site: a home page, portfolio, blog and
contact form, plus user accounts with registration, login, "remember me"
and password reset.

Use "website server" to run it and "website init-db" or "website seed-db"
to prepare the database.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// Skip config loading for commands that don't need it
		if cmd.Name() == "help" || cmd.Name() == "completion" {
			return nil
		}

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger = logging.Setup(cfg.LogLevel, cfg.LogFormat, nil)
		return nil
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yml)")
}

// Services holds everything built from the configuration at startup.
type Services struct {
	DB             *sqlstore.DB
	AuthService    *service.AuthService
	ResetService   *service.PasswordResetService
	ContentService *service.ContentService
	Validator      *validation.Validator
	Sessions       *session.Manager
	Metrics        *metrics.Metrics
}

// newServices opens the database, applies pending migrations and wires the
// services on top of it.
func newServices(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Services, error) {
	db, err := sqlstore.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	gdb, err := gormstore.Open(db)
	if err != nil {
		db.Close()
		return nil, err
	}

	// Initialize repositories
	userRepo := sqlstore.NewUserRepository(db)
	resetRepo := sqlstore.NewPasswordResetRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, logger)
	resetService := service.NewPasswordResetService(authService, userRepo, resetRepo, cfg.ResetTokenTTL, logger)
	contentService := service.NewContentService(
		gormstore.NewBlogPostRepository(gdb),
		gormstore.NewProjectRepository(gdb),
		gormstore.NewContactRepository(gdb),
	)

	return &Services{
		DB:             db,
		AuthService:    authService,
		ResetService:   resetService,
		ContentService: contentService,
		Validator:      validation.New(authService),
		Sessions: session.NewManager(authService, session.Options{
			SecretKey:        cfg.SecretKey,
			Secure:           cfg.SecureCookies(),
			RememberDuration: cfg.RememberCookieDuration,
		}),
		Metrics: metrics.New(),
	}, nil
}

func initServices(ctx context.Context) (*Services, error) {
	return newServices(ctx, cfg, logger)
}

// Dependencies returns the server's view of the services.
func (s *Services) Dependencies() api.Dependencies {
	return api.Dependencies{
		AuthService:    s.AuthService,
		ResetService:   s.ResetService,
		ContentService: s.ContentService,
		Validator:      s.Validator,
		Sessions:       s.Sessions,
		Metrics:        s.Metrics,
		DB:             s.DB,
	}
}

// Close closes all resources
func (s *Services) Close() {
	if s.DB != nil {
		s.DB.Close()
	}
}
