package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/martijn/website/internal/core/domain"
	"github.com/spf13/cobra"
)

// Bootstrap administrator created by seed-db and deploy.
const (
	defaultAdminUsername = "admin"
	defaultAdminEmail    = "admin@example.com"
	defaultAdminPassword = "admin123"
)

var initDBCmd = &cobra.Command{
	Use:   "init-db",
	Short: "Create or upgrade the database schema",
	RunE: func(cmd *cobra.Command, args []string) error {
		// newServices applies the migrations
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		fmt.Println("Database initialized")
		return nil
	},
}

var seedDBCmd = &cobra.Command{
	Use:   "seed-db",
	Short: "Create the admin user and sample content",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		admin, created, err := ensureAdmin(cmd.Context(), services)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Admin user '%s' created (password: %s)\n", admin.Username, defaultAdminPassword)
		}

		added, err := services.ContentService.SeedSamples(cmd.Context(), admin)
		if err != nil {
			return fmt.Errorf("failed to seed content: %w", err)
		}

		fmt.Printf("Database seeded (%d sample rows added)\n", added)
		return nil
	},
}

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Migrate the database and make sure an admin user exists",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		admin, created, err := ensureAdmin(cmd.Context(), services)
		if err != nil {
			return err
		}
		if created {
			fmt.Printf("Admin user '%s' created, change its password with 'website users update-password %s'\n", admin.Username, admin.Username)
		}

		fmt.Println("Deployment tasks completed")
		return nil
	},
}

// ensureAdmin returns the bootstrap administrator, creating it when no user
// has its username yet.
func ensureAdmin(ctx context.Context, services *Services) (*domain.User, bool, error) {
	admin, err := services.AuthService.FindByUsername(ctx, defaultAdminUsername)
	if err == nil {
		return admin, false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up admin user: %w", err)
	}

	admin, err = services.AuthService.CreateUser(ctx, defaultAdminUsername, defaultAdminEmail, defaultAdminPassword, true)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create admin user: %w", err)
	}
	return admin, true, nil
}

func init() {
	rootCmd.AddCommand(initDBCmd)
	rootCmd.AddCommand(seedDBCmd)
	rootCmd.AddCommand(deployCmd)
}
