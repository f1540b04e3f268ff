package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/martijn/website/internal/core/domain"
	"github.com/martijn/website/internal/core/validation"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	addAdmin  bool
	deleteYes bool
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
	Long:  "Manage the website's user accounts",
}

var usersAddCmd = &cobra.Command{
	Use:   "add <username> <email>",
	Short: "Add a new user",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		password, confirmation, err := promptPassword("Enter password: ", "Confirm password: ")
		if err != nil {
			return err
		}

		form := &validation.RegistrationForm{
			Username:        args[0],
			Email:           args[1],
			Password:        password,
			PasswordConfirm: confirmation,
		}
		errs, err := services.Validator.Registration(cmd.Context(), form)
		if err != nil {
			return err
		}
		if errs != nil {
			return errs
		}

		user, err := services.AuthService.CreateUser(cmd.Context(), form.Username, form.Email, form.Password, addAdmin)
		if err != nil {
			if errs, ok := validation.FromConstraint(err); ok {
				return errs
			}
			return fmt.Errorf("failed to create user: %w", err)
		}

		fmt.Printf("User '%s' created successfully\n", user.Username)
		return nil
	},
}

var usersDeleteCmd = &cobra.Command{
	Use:   "delete <username>",
	Short: "Delete a user with their posts and reset tokens",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.AuthService.FindByUsername(cmd.Context(), username)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user not found: %s", username)
		}
		if err != nil {
			return err
		}

		if !deleteYes && !confirm(os.Stdin, fmt.Sprintf("Are you sure you want to delete user '%s'? (yes/no): ", username)) {
			fmt.Println("Cancelled")
			return nil
		}

		if err := services.AuthService.DeleteUser(cmd.Context(), user); err != nil {
			return fmt.Errorf("failed to delete user: %w", err)
		}

		fmt.Printf("User '%s' deleted successfully\n", username)
		return nil
	},
}

var usersUpdatePasswordCmd = &cobra.Command{
	Use:   "update-password <username>",
	Short: "Update user password",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		username := args[0]

		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		user, err := services.AuthService.FindByUsername(cmd.Context(), username)
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("user not found: %s", username)
		}
		if err != nil {
			return err
		}

		password, confirmation, err := promptPassword("Enter new password: ", "Confirm new password: ")
		if err != nil {
			return err
		}

		form := &validation.ResetPasswordForm{Password: password, PasswordConfirm: confirmation}
		if errs := services.Validator.ResetPassword(form); errs != nil {
			return errs
		}

		if err := services.AuthService.SetPassword(cmd.Context(), user, form.Password); err != nil {
			return fmt.Errorf("failed to update password: %w", err)
		}

		fmt.Printf("Password updated for user '%s'\n", username)
		return nil
	},
}

var usersListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all users",
	RunE: func(cmd *cobra.Command, args []string) error {
		services, err := initServices(cmd.Context())
		if err != nil {
			return err
		}
		defer services.Close()

		users, err := services.AuthService.ListUsers(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}

		if len(users) == 0 {
			fmt.Println("No users found")
			return nil
		}

		return writeUsers(os.Stdout, users)
	},
}

func writeUsers(out io.Writer, users []*domain.User) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "USERNAME\tEMAIL\tADMIN\tCREATED AT\tLAST LOGIN")
	for _, user := range users {
		lastLogin := "-"
		if user.LastLoginAt.Valid {
			lastLogin = user.LastLoginAt.Time.Format(timeLayout)
		}
		fmt.Fprintf(w, "%s\t%s\t%t\t%s\t%s\n",
			user.Username,
			user.Email,
			user.IsAdmin,
			user.CreatedAt.Format(timeLayout),
			lastLogin,
		)
	}
	return w.Flush()
}

func promptPassword(prompt, confirmPrompt string) (string, string, error) {
	fmt.Print(prompt)
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}

	fmt.Print(confirmPrompt)
	confirmPassword, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", "", fmt.Errorf("failed to read password: %w", err)
	}

	return string(password), string(confirmPassword), nil
}

func confirm(in io.Reader, prompt string) bool {
	fmt.Print(prompt)
	answer, _ := bufio.NewReader(in).ReadString('\n')
	return strings.TrimSpace(answer) == "yes"
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersAddCmd)
	usersCmd.AddCommand(usersDeleteCmd)
	usersCmd.AddCommand(usersUpdatePasswordCmd)
	usersCmd.AddCommand(usersListCmd)

	usersAddCmd.Flags().BoolVar(&addAdmin, "admin", false, "grant administrator rights")
	usersDeleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "skip the confirmation prompt")
}
