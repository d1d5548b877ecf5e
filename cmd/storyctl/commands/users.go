package commands

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/repositories"
	"github.com/storykeeper/backend/internal/services"
	"github.com/storykeeper/backend/internal/storage"
)

var (
	// User flags
	username string
	email    string
	password string
)

// usersCmd represents the users command
var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "Manage users",
}

// usersCreateAdminCmd creates an admin account
var usersCreateAdminCmd = &cobra.Command{
	Use:   "create-admin",
	Short: "Create a user with the admin role",
	Long: `Create a user with the admin role. The password must satisfy the same rules as registration.

Examples:
  storyctl users create-admin --username editor --email editor@example.com --password 'S3cret!pass'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if username == "" || email == "" || password == "" {
			return fmt.Errorf("--username, --email and --password are required")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		user, err := newAdminUserService(e).CreateAdmin(cmd.Context(), &models.RegisterRequest{
			Username: username,
			Email:    email,
			Password: password,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "admin %s created with id %d\n", user.Username, user.ID)
		return nil
	},
}

// usersPromoteCmd grants the admin role
var usersPromoteCmd = &cobra.Command{
	Use:   "promote USER_ID",
	Short: "Grant the admin role to a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], models.RoleAdmin)
	},
}

// usersDemoteCmd revokes the admin role
var usersDemoteCmd = &cobra.Command{
	Use:   "demote USER_ID",
	Short: "Revoke the admin role of a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return setRole(cmd, args[0], models.RoleUser)
	},
}

func setRole(cmd *cobra.Command, rawID string, role models.Role) error {
	userID, err := strconv.Atoi(rawID)
	if err != nil || userID <= 0 {
		return fmt.Errorf("invalid user id %q", rawID)
	}

	e, err := openEnv()
	if err != nil {
		return err
	}
	defer e.Close()

	if err := newAdminUserService(e).SetRole(cmd.Context(), userID, role); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "user %d now has role %d\n", userID, role)
	return nil
}

// adminUsers is the part of the admin user service used by the CLI
type adminUsers interface {
	CreateAdmin(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	SetRole(ctx context.Context, userID int, role models.Role) error
}

func newAdminUserService(e *env) adminUsers {
	storyRepo := repositories.NewStoryRepository(e.db, e.logger)
	return services.NewAdminUserService(
		repositories.NewUserRepository(e.db, e.logger),
		storyRepo,
		storage.NewLocalStorage(e.cfg.Media.BasePath, e.cfg.Media.BaseURL),
		repositories.NewTagRepository(e.db, e.logger),
		e.logger,
	)
}

func init() {
	rootCmd.AddCommand(usersCmd)
	usersCmd.AddCommand(usersCreateAdminCmd)
	usersCmd.AddCommand(usersPromoteCmd)
	usersCmd.AddCommand(usersDemoteCmd)

	usersCreateAdminCmd.Flags().StringVar(&username, "username", "", "Username")
	usersCreateAdminCmd.Flags().StringVar(&email, "email", "", "E-mail address")
	usersCreateAdminCmd.Flags().StringVar(&password, "password", "", "Password")
}
