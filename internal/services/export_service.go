package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// ExportRepository reads stories for the admin export
type ExportRepository interface {
	ListForExport(ctx context.Context, includeDeleted bool) ([]models.StoryExportRow, error)
}

var exportHeader = []string{
	"id", "title", "author", "status", "language", "word_count", "reading_time",
	"view_count", "like_count", "created_at", "published_at", "deleted_at",
}

type exportService struct {
	repo   ExportRepository
	logger *zap.Logger
}

// NewExportService creates a new export service
func NewExportService(repo ExportRepository, logger *zap.Logger) *exportService {
	return &exportService{repo: repo, logger: logger}
}

// WriteCSV writes every story as CSV, stories of the recycling bin only when includeDeleted is set
func (s *exportService) WriteCSV(ctx context.Context, w io.Writer, includeDeleted bool) (int, error) {
	rows, err := s.repo.ListForExport(ctx, includeDeleted)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, row := range rows {
		record := []string{
			strconv.Itoa(row.ID),
			row.Title,
			row.Author,
			string(row.Status),
			row.Language,
			strconv.Itoa(row.WordCount),
			strconv.Itoa(row.ReadingTime),
			strconv.Itoa(row.ViewCount),
			strconv.Itoa(row.LikeCount),
			row.CreatedAt.UTC().Format(time.RFC3339),
			formatOptionalTime(row.PublishedAt),
			formatOptionalTime(row.DeletedAt),
		}
		if err := cw.Write(record); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}

	s.logger.Info("stories exported", zap.Int("rows", len(rows)), zap.Bool("includeDeleted", includeDeleted))
	return len(rows), nil
}

func formatOptionalTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}
