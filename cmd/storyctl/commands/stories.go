package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/storykeeper/backend/internal/repositories"
	"github.com/storykeeper/backend/internal/services"
)

var (
	// Export flags
	includeDeleted bool
	outputPath     string
)

// storiesCmd represents the stories command
var storiesCmd = &cobra.Command{
	Use:   "stories",
	Short: "Work with stories",
}

// storiesExportCmd writes the CSV export
var storiesExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stories as CSV",
	Long: `Export stories as CSV to stdout or to a file.

Examples:
  storyctl stories export > stories.csv
  storyctl stories export --include-deleted --output all.csv`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		var w io.Writer = cmd.OutOrStdout()
		if outputPath != "" {
			f, err := os.Create(outputPath)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", outputPath, err)
			}
			defer f.Close()
			w = f
		}

		export := services.NewExportService(repositories.NewStoryRepository(e.db, e.logger), e.logger)
		rows, err := export.WriteCSV(cmd.Context(), w, includeDeleted)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "%d stories exported\n", rows)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(storiesCmd)
	storiesCmd.AddCommand(storiesExportCmd)

	storiesExportCmd.Flags().BoolVar(&includeDeleted, "include-deleted", false, "Include stories in the recycling bin")
	storiesExportCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file, stdout when empty")
}
