package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/storykeeper/backend/internal/database"
)

var (
	// Migrate flags
	steps int
)

// migrateCmd represents the migrate command
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
	Long: `Run database migrations from the migrations directory.

Subcommands:
  up       - Apply pending migrations
  down     - Rollback migrations
  version  - Show the current schema version`,
}

// migrateUpCmd applies pending migrations
var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply pending migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := database.RunMigrations(e.db); err != nil {
			return err
		}
		return printVersion(cmd, e)
	},
}

// migrateDownCmd rolls back migrations
var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Rollback migrations",
	Long: `Rollback applied migrations.

Examples:
  storyctl migrate down --steps 1      # Rollback last migration`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if steps < 1 {
			return fmt.Errorf("--steps must be at least 1")
		}

		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		if err := database.RollbackMigrations(e.db, steps); err != nil {
			return err
		}
		return printVersion(cmd, e)
	},
}

// migrateVersionCmd shows the schema version
var migrateVersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show the current schema version",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		return printVersion(cmd, e)
	},
}

func printVersion(cmd *cobra.Command, e *env) error {
	version, dirty, err := database.MigrationVersion(e.db)
	if err != nil {
		return err
	}
	if dirty {
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty)\n", version)
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
	return nil
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
	migrateCmd.AddCommand(migrateVersionCmd)

	migrateDownCmd.Flags().IntVar(&steps, "steps", 1, "Number of migrations to roll back")
}
