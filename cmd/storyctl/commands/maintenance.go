package commands

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"github.com/storykeeper/backend/internal/models"
	"github.com/storykeeper/backend/internal/repositories"
	"github.com/storykeeper/backend/internal/services"
	"github.com/storykeeper/backend/internal/storage"
)

var (
	// Bin flags
	olderThan time.Duration
)

// binCmd represents the bin command
var binCmd = &cobra.Command{
	Use:   "bin",
	Short: "Manage the recycling bin",
}

// binPurgeCmd purges old stories from the recycling bin
var binPurgeCmd = &cobra.Command{
	Use:   "purge",
	Short: "Permanently delete stories that stayed in the recycling bin too long",
	Long: `Permanently delete stories deleted longer ago than --older-than, with their
likes, tag links and media files. Defaults to BIN_RETENTION.

Examples:
  storyctl bin purge --older-than 720h   # Purge stories deleted more than 30 days ago`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		retention := olderThan
		if retention == 0 {
			retention = e.cfg.BinRetention
		}
		if retention <= 0 {
			return fmt.Errorf("set --older-than or BIN_RETENTION")
		}

		storyRepo := repositories.NewStoryRepository(e.db, e.logger)
		tagRepo := repositories.NewTagRepository(e.db, e.logger)
		media := storage.NewLocalStorage(e.cfg.Media.BasePath, e.cfg.Media.BaseURL)
		moderation := services.NewModerationService(storyRepo, tagRepo, media, nil, e.logger)

		result, err := moderation.PurgeExpired(cmd.Context(), retention)
		if err != nil {
			return err
		}
		printBatch(cmd, result)
		return nil
	},
}

// tagsCmd represents the tags command
var tagsCmd = &cobra.Command{
	Use:   "tags",
	Short: "Maintain tags",
}

// tagsRecountCmd recomputes tag usage counters
var tagsRecountCmd = &cobra.Command{
	Use:   "recount",
	Short: "Recompute usage_count of every tag from the story links",
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv()
		if err != nil {
			return err
		}
		defer e.Close()

		tags := services.NewTagService(repositories.NewTagRepository(e.db, e.logger), e.logger)
		updated, err := tags.RecountAll(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d tags recounted\n", updated)
		return nil
	},
}

// printBatch writes the aggregate and per id outcome of a batch in id order
func printBatch(cmd *cobra.Command, result *models.BatchResult) {
	ids := make([]int, 0, len(result.Results))
	for id := range result.Results {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	out := cmd.OutOrStdout()
	for _, id := range ids {
		fmt.Fprintf(out, "story %d: %s\n", id, result.Results[id])
	}
	fmt.Fprintf(out, "%d of %d stories purged\n", result.Affected, len(ids))
}

func init() {
	rootCmd.AddCommand(binCmd)
	binCmd.AddCommand(binPurgeCmd)
	rootCmd.AddCommand(tagsCmd)
	tagsCmd.AddCommand(tagsRecountCmd)

	binPurgeCmd.Flags().DurationVar(&olderThan, "older-than", 0, "Minimum time spent in the bin, such as 720h")
}
