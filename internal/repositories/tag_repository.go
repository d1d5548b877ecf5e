package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

type tagRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *sql.DB, logger *zap.Logger) *tagRepository {
	return &tagRepository{
		db:     db,
		logger: logger,
	}
}

// ListCategoriesWithTags returns every category with its tags
func (r *tagRepository) ListCategoriesWithTags(ctx context.Context) ([]models.TagCategory, error) {
	query := `
		SELECT c.id, c.name, COALESCE(c.description, ''), c.color, c.icon,
			t.id, t.name, COALESCE(t.description, ''), t.usage_count
		FROM tag_categories c
		LEFT JOIN tags t ON t.category_id = c.id
		ORDER BY c.id, t.name
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to query tags", zap.Error(err))
		return nil, fmt.Errorf("failed to query tags: %w", err)
	}
	defer rows.Close()

	categories := make([]models.TagCategory, 0)
	for rows.Next() {
		var c models.TagCategory
		var tagID, usage sql.NullInt64
		var tagName, tagDescription sql.NullString
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon, &tagID, &tagName, &tagDescription, &usage); err != nil {
			return nil, fmt.Errorf("failed to scan tag: %w", err)
		}

		if len(categories) == 0 || categories[len(categories)-1].ID != c.ID {
			c.Tags = make([]models.Tag, 0)
			categories = append(categories, c)
		}
		if tagID.Valid {
			last := &categories[len(categories)-1]
			last.Tags = append(last.Tags, models.Tag{
				ID:          int(tagID.Int64),
				CategoryID:  c.ID,
				Name:        tagName.String,
				Description: tagDescription.String,
				UsageCount:  int(usage.Int64),
			})
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return categories, nil
}

// Exists checks if a tag exists
func (r *tagRepository) Exists(ctx context.Context, tagID int) (bool, error) {
	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM tags WHERE id = ?)`, tagID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check tag existence: %w", err)
	}
	return exists, nil
}

// TagIDsByStory returns the tags linked to a story
func (r *tagRepository) TagIDsByStory(ctx context.Context, storyID int) ([]int, error) {
	return queryTagIDs(ctx, r.db, storyID)
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func queryTagIDs(ctx context.Context, q querier, storyID int) ([]int, error) {
	rows, err := q.QueryContext(ctx, `SELECT tag_id FROM story_tags WHERE story_id = ? ORDER BY id`, storyID)
	if err != nil {
		return nil, fmt.Errorf("failed to query story tags: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0, 1)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan tag id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

// ReplaceStoryTag links the story to tagID only, tagID 0 clears the link.
// It returns the previously linked tag ids.
func (r *tagRepository) ReplaceStoryTag(ctx context.Context, storyID, tagID int) ([]int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	previous, err := queryTagIDs(ctx, tx, storyID)
	if err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM story_tags WHERE story_id = ?`, storyID); err != nil {
		return nil, fmt.Errorf("failed to delete story tags: %w", err)
	}

	if tagID > 0 {
		if _, err := tx.ExecContext(ctx, `INSERT INTO story_tags (story_id, tag_id) VALUES (?, ?)`, storyID, tagID); err != nil {
			return nil, fmt.Errorf("failed to insert story tag: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return previous, nil
}

// RecountUsage recomputes usage_count of the given tags from story_tags
func (r *tagRepository) RecountUsage(ctx context.Context, tagIDs ...int) error {
	ids := make([]any, 0, len(tagIDs))
	seen := make(map[int]bool, len(tagIDs))
	for _, id := range tagIDs {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(ids)), ", ")
	query := `
		UPDATE tags t
		SET t.usage_count = (SELECT COUNT(*) FROM story_tags st WHERE st.tag_id = t.id)
		WHERE t.id IN (` + placeholders + `)`

	if _, err := r.db.ExecContext(ctx, query, ids...); err != nil {
		r.logger.Error("failed to recount tag usage", zap.Error(err))
		return fmt.Errorf("failed to recount tag usage: %w", err)
	}

	return nil
}

// RecountAll recomputes usage_count of every tag and returns how many changed
func (r *tagRepository) RecountAll(ctx context.Context) (int, error) {
	query := `UPDATE tags t SET t.usage_count = (SELECT COUNT(*) FROM story_tags st WHERE st.tag_id = t.id)`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		r.logger.Error("failed to recount all tags", zap.Error(err))
		return 0, fmt.Errorf("failed to recount all tags: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return int(rowsAffected), nil
}
