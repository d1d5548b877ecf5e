// Package commands holds the storyctl cobra commands
package commands

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/storykeeper/backend/internal/config"
	"github.com/storykeeper/backend/internal/database"
	"github.com/storykeeper/backend/internal/logger"
	"go.uber.org/zap"
)

var (
	// Global flags
	logLevel string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "storyctl",
	Short: "StoryKeeper administration tool",
	Long: `storyctl runs maintenance and administration tasks of StoryKeeper.

It reads the same environment (and .env file) as the API server.

Commands:
  migrate  - Apply, roll back or inspect schema migrations
  bin      - Manage the recycling bin
  tags     - Maintain tag usage counters
  stories  - Export stories
  users    - Create admins and change roles`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level, overrides LOG_LEVEL")
}

// env is the runtime shared by commands touching the database
type env struct {
	cfg    *config.Config
	db     *sql.DB
	logger *zap.Logger
}

func (e *env) Close() {
	e.db.Close()
	logger.Sync()
}

// openEnv loads configuration, initializes the logger and connects to the database
func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}
	if err := logger.Init(level); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	db, err := database.Connect(cfg.DSN())
	if err != nil {
		return nil, err
	}

	return &env{cfg: cfg, db: db, logger: logger.Logger}, nil
}
