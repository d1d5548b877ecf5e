package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

type likeRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewLikeRepository creates a new like repository
func NewLikeRepository(db *sql.DB, logger *zap.Logger) *likeRepository {
	return &likeRepository{
		db:     db,
		logger: logger,
	}
}

// Toggle likes or unlikes a live story for a user and keeps like_count equal to the number of rows.
// nil is returned when the story is not live.
func (r *likeRepository) Toggle(ctx context.Context, storyID, userID int) (*models.LikeResult, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedID int
	err = tx.QueryRowContext(ctx, `SELECT id FROM stories WHERE id = ? AND deleted_at IS NULL FOR UPDATE`, storyID).Scan(&lockedID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock story: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM story_likes WHERE story_id = ? AND user_id = ?`, storyID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to delete like: %w", err)
	}
	removed, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}

	liked := removed == 0
	if liked {
		if _, err := tx.ExecContext(ctx, `INSERT INTO story_likes (story_id, user_id) VALUES (?, ?)`, storyID, userID); err != nil {
			return nil, fmt.Errorf("failed to insert like: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `UPDATE stories SET like_count = like_count + 1 WHERE id = ?`, storyID); err != nil {
			return nil, fmt.Errorf("failed to increment like count: %w", err)
		}
	} else {
		if _, err := tx.ExecContext(ctx, `UPDATE stories SET like_count = GREATEST(like_count - 1, 0) WHERE id = ?`, storyID); err != nil {
			return nil, fmt.Errorf("failed to decrement like count: %w", err)
		}
	}

	like := &models.LikeResult{Liked: liked}
	err = tx.QueryRowContext(ctx, `SELECT like_count, anonymous_like_count FROM stories WHERE id = ?`, storyID).
		Scan(&like.LikeCount, &like.AnonymousLikeEstimate)
	if err != nil {
		return nil, fmt.Errorf("failed to read like count: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return like, nil
}

// HasLiked checks if a user liked a story
func (r *likeRepository) HasLiked(ctx context.Context, storyID, userID int) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM story_likes WHERE story_id = ? AND user_id = ?)`, storyID, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check like: %w", err)
	}
	return exists, nil
}
