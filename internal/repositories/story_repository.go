package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/storykeeper/backend/internal/models"
	"go.uber.org/zap"
)

// storyColumns are selected by every query returning a full story, always joined with users as u
const storyColumns = `
	s.id, s.user_id, s.title, s.content, s.raw_transcript, s.polished, COALESCE(s.description, ''),
	s.display_author, s.language, s.language_name, s.language_group,
	s.image_path, s.image_original_name, s.audio_path, s.audio_original_name, s.audio_duration,
	s.audio_format, s.audio_language, s.audio_language_name, s.video_path, s.video_original_name,
	s.video_duration, s.video_format, s.word_count, s.reading_time, s.status,
	s.view_count, s.like_count, s.anonymous_like_count,
	s.created_at, s.updated_at, s.published_at, s.deleted_at, u.username`

// listColumns are selected by listing queries, always joined with users as u
const listColumns = `
	s.id, s.user_id, COALESCE(NULLIF(s.display_author, ''), u.username), s.title, COALESCE(s.description, ''),
	s.language, s.language_name, s.language_group, s.image_path, s.audio_path <> '', s.video_path <> '',
	s.word_count, s.reading_time, s.status, s.view_count, s.like_count, s.anonymous_like_count,
	COALESCE((SELECT t.name FROM story_tags st JOIN tags t ON t.id = st.tag_id WHERE st.story_id = s.id ORDER BY st.id LIMIT 1), ''),
	s.created_at, s.published_at, s.deleted_at`

type rowScanner interface {
	Scan(dest ...any) error
}

type storyRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *sql.DB, logger *zap.Logger) *storyRepository {
	return &storyRepository{
		db:     db,
		logger: logger,
	}
}

func scanStory(scanner rowScanner) (*models.StoryDetail, error) {
	detail := &models.StoryDetail{}
	s := &detail.Story
	var rawTranscript sql.NullString
	var publishedAt, deletedAt sql.NullTime
	err := scanner.Scan(
		&s.ID, &s.UserID, &s.Title, &s.Content, &rawTranscript, &s.Polished, &s.Description,
		&s.DisplayAuthor, &s.Language, &s.LanguageName, &s.LanguageGroup,
		&s.Media.ImagePath, &s.Media.ImageOriginalName, &s.Media.AudioPath, &s.Media.AudioOriginalName, &s.Media.AudioDuration,
		&s.Media.AudioFormat, &s.Media.AudioLanguage, &s.Media.AudioLanguageName, &s.Media.VideoPath, &s.Media.VideoOriginalName,
		&s.Media.VideoDuration, &s.Media.VideoFormat, &s.WordCount, &s.ReadingTime, &s.Status,
		&s.ViewCount, &s.LikeCount, &s.AnonymousLikeCount,
		&s.CreatedAt, &s.UpdatedAt, &publishedAt, &deletedAt, &detail.Author,
	)
	if err != nil {
		return nil, err
	}
	if rawTranscript.Valid {
		s.RawTranscript = &rawTranscript.String
	}
	s.PublishedAt = nullTimePtr(publishedAt)
	s.DeletedAt = nullTimePtr(deletedAt)
	if s.DisplayAuthor != "" {
		detail.Author = s.DisplayAuthor
	}
	return detail, nil
}

func scanListItem(scanner rowScanner) (models.StoryListItem, error) {
	var item models.StoryListItem
	var publishedAt, deletedAt sql.NullTime
	err := scanner.Scan(
		&item.ID, &item.UserID, &item.Author, &item.Title, &item.Description,
		&item.Language, &item.LanguageName, &item.LanguageGroup, &item.ImagePath, &item.HasAudio, &item.HasVideo,
		&item.WordCount, &item.ReadingTime, &item.Status, &item.ViewCount, &item.LikeCount, &item.AnonymousLikeCount,
		&item.TagName, &item.CreatedAt, &publishedAt, &deletedAt,
	)
	if err != nil {
		return item, err
	}
	item.PublishedAt = nullTimePtr(publishedAt)
	item.DeletedAt = nullTimePtr(deletedAt)
	return item, nil
}

func nullTimePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// Create inserts a new story and sets its ID
func (r *storyRepository) Create(ctx context.Context, story *models.Story) error {
	query := `
		INSERT INTO stories (
			user_id, title, content, raw_transcript, polished, description, display_author,
			language, language_name, language_group,
			image_path, image_original_name, audio_path, audio_original_name, audio_duration,
			audio_format, audio_language, audio_language_name, video_path, video_original_name,
			video_duration, video_format, word_count, reading_time, status
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	m := story.Media
	result, err := r.db.ExecContext(ctx, query,
		story.UserID, story.Title, story.Content, story.RawTranscript, story.Polished, story.Description, story.DisplayAuthor,
		story.Language, story.LanguageName, story.LanguageGroup,
		m.ImagePath, m.ImageOriginalName, m.AudioPath, m.AudioOriginalName, m.AudioDuration,
		m.AudioFormat, m.AudioLanguage, m.AudioLanguageName, m.VideoPath, m.VideoOriginalName,
		m.VideoDuration, m.VideoFormat, story.WordCount, story.ReadingTime, story.Status,
	)
	if err != nil {
		r.logger.Error("failed to create story", zap.Error(err))
		return fmt.Errorf("failed to create story: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	story.ID = int(id)
	return nil
}

// GetByID retrieves a story with its author, nil is returned when it does not exist.
// Soft-deleted stories are only returned when includeDeleted is true.
func (r *storyRepository) GetByID(ctx context.Context, id int, includeDeleted bool) (*models.StoryDetail, error) {
	query := `SELECT ` + storyColumns + `
		FROM stories s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = ?`
	if !includeDeleted {
		query += ` AND s.deleted_at IS NULL`
	}

	detail, err := scanStory(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("failed to get story", zap.Error(err), zap.Int("storyId", id))
		return nil, fmt.Errorf("failed to get story: %w", err)
	}

	return detail, nil
}

// Update stores the editable fields, derived fields and status of a live story
func (r *storyRepository) Update(ctx context.Context, story *models.Story) error {
	query := `
		UPDATE stories SET
			title = ?, content = ?, raw_transcript = ?, polished = ?, description = ?, display_author = ?,
			language = ?, language_name = ?, language_group = ?,
			image_path = ?, image_original_name = ?, audio_path = ?, audio_original_name = ?, audio_duration = ?,
			audio_format = ?, audio_language = ?, audio_language_name = ?, video_path = ?, video_original_name = ?,
			video_duration = ?, video_format = ?, word_count = ?, reading_time = ?, status = ?,
			updated_at = NOW()
		WHERE id = ? AND deleted_at IS NULL
	`

	m := story.Media
	result, err := r.db.ExecContext(ctx, query,
		story.Title, story.Content, story.RawTranscript, story.Polished, story.Description, story.DisplayAuthor,
		story.Language, story.LanguageName, story.LanguageGroup,
		m.ImagePath, m.ImageOriginalName, m.AudioPath, m.AudioOriginalName, m.AudioDuration,
		m.AudioFormat, m.AudioLanguage, m.AudioLanguageName, m.VideoPath, m.VideoOriginalName,
		m.VideoDuration, m.VideoFormat, story.WordCount, story.ReadingTime, story.Status,
		story.ID,
	)
	if err != nil {
		r.logger.Error("failed to update story", zap.Error(err), zap.Int("storyId", story.ID))
		return fmt.Errorf("failed to update story: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("story not found")
	}

	return nil
}

// ListPublished returns the public library page
func (r *storyRepository) ListPublished(ctx context.Context, filter models.LibraryFilter) ([]models.StoryListItem, error) {
	var where strings.Builder
	args := make([]any, 0, 6)
	where.WriteString(`s.status = 'published' AND s.deleted_at IS NULL`)

	if filter.LanguageGroup != "" {
		where.WriteString(` AND s.language_group = ?`)
		args = append(args, filter.LanguageGroup)
	}
	if filter.TagID > 0 {
		where.WriteString(` AND EXISTS (SELECT 1 FROM story_tags st WHERE st.story_id = s.id AND st.tag_id = ?)`)
		args = append(args, filter.TagID)
	}
	if filter.Search != "" {
		like := "%" + escapeLike(filter.Search) + "%"
		where.WriteString(` AND (s.title LIKE ? OR s.description LIKE ? OR s.content LIKE ?)`)
		args = append(args, like, like, like)
	}

	query := `SELECT ` + listColumns + `
		FROM stories s
		JOIN users u ON u.id = s.user_id
		WHERE ` + where.String() + `
		ORDER BY s.published_at DESC, s.id DESC
		LIMIT ? OFFSET ?`
	args = append(args, filter.Count, (filter.Page-1)*filter.Count)

	return r.queryList(ctx, "library", query, args...)
}

// ListByUser returns every live story of a user for the author dashboard
func (r *storyRepository) ListByUser(ctx context.Context, userID int) ([]models.StoryListItem, error) {
	query := `SELECT ` + listColumns + `
		FROM stories s
		JOIN users u ON u.id = s.user_id
		WHERE s.user_id = ? AND s.deleted_at IS NULL
		ORDER BY s.created_at DESC, s.id DESC`

	return r.queryList(ctx, "user stories", query, userID)
}

// ListByStatus returns live stories in a status for the moderation queue, oldest first
func (r *storyRepository) ListByStatus(ctx context.Context, status models.StoryStatus, page, count int) ([]models.StoryListItem, error) {
	query := `SELECT ` + listColumns + `
		FROM stories s
		JOIN users u ON u.id = s.user_id
		WHERE s.status = ? AND s.deleted_at IS NULL
		ORDER BY s.created_at ASC, s.id ASC
		LIMIT ? OFFSET ?`

	return r.queryList(ctx, "moderation queue", query, status, count, (page-1)*count)
}

// ListDeleted returns the recycling bin, most recently deleted first
func (r *storyRepository) ListDeleted(ctx context.Context, page, count int) ([]models.StoryListItem, error) {
	query := `SELECT ` + listColumns + `
		FROM stories s
		JOIN users u ON u.id = s.user_id
		WHERE s.deleted_at IS NOT NULL
		ORDER BY s.deleted_at DESC, s.id DESC
		LIMIT ? OFFSET ?`

	return r.queryList(ctx, "recycling bin", query, count, (page-1)*count)
}

func (r *storyRepository) queryList(ctx context.Context, name, query string, args ...any) ([]models.StoryListItem, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("failed to query stories", zap.String("list", name), zap.Error(err))
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}
	defer rows.Close()

	items := make([]models.StoryListItem, 0)
	for rows.Next() {
		item, err := scanListItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan story: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return items, nil
}

// ListDeletedBefore returns ids of stories soft-deleted before cutoff
func (r *storyRepository) ListDeletedBefore(ctx context.Context, cutoff time.Time) ([]int, error) {
	query := `SELECT id FROM stories WHERE deleted_at IS NOT NULL AND deleted_at < ? ORDER BY id`

	return r.queryIDs(ctx, query, cutoff)
}

func (r *storyRepository) queryIDs(ctx context.Context, query string, args ...any) ([]int, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query story ids: %w", err)
	}
	defer rows.Close()

	ids := make([]int, 0)
	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan story id: %w", err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return ids, nil
}

// TransitionStatus moves a live story from one status to another in a single conditional update.
// publishedAt is written only when not nil.
func (r *storyRepository) TransitionStatus(ctx context.Context, id int, from, to models.StoryStatus, publishedAt *time.Time) (models.TransitionResult, error) {
	query := `
		UPDATE stories
		SET status = ?, published_at = COALESCE(?, published_at), updated_at = NOW()
		WHERE id = ? AND status = ? AND deleted_at IS NULL
	`

	result, err := r.db.ExecContext(ctx, query, to, publishedAt, id, from)
	if err != nil {
		r.logger.Error("failed to transition story", zap.Error(err), zap.Int("storyId", id), zap.String("to", string(to)))
		return models.TransitionFailed, fmt.Errorf("failed to transition story: %w", err)
	}

	return r.resolve(ctx, result, id, true)
}

// SoftDelete moves a live story into the recycling bin without touching its status
func (r *storyRepository) SoftDelete(ctx context.Context, id int) (models.TransitionResult, error) {
	query := `UPDATE stories SET deleted_at = NOW() WHERE id = ? AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to soft delete story", zap.Error(err), zap.Int("storyId", id))
		return models.TransitionFailed, fmt.Errorf("failed to soft delete story: %w", err)
	}

	return r.resolve(ctx, result, id, false)
}

// Restore takes a story out of the recycling bin with its prior status
func (r *storyRepository) Restore(ctx context.Context, id int) (models.TransitionResult, error) {
	query := `UPDATE stories SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		r.logger.Error("failed to restore story", zap.Error(err), zap.Int("storyId", id))
		return models.TransitionFailed, fmt.Errorf("failed to restore story: %w", err)
	}

	return r.resolve(ctx, result, id, false)
}

// resolve turns the outcome of a conditional update into a TransitionResult.
// When liveOnly is set a soft-deleted row counts as missing.
func (r *storyRepository) resolve(ctx context.Context, result sql.Result, id int, liveOnly bool) (models.TransitionResult, error) {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return models.TransitionFailed, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected > 0 {
		return models.TransitionApplied, nil
	}
	return r.classifyMiss(ctx, id, liveOnly)
}

// classifyMiss tells a missing story from one in the wrong state after an update matched no row
func (r *storyRepository) classifyMiss(ctx context.Context, id int, liveOnly bool) (models.TransitionResult, error) {
	var deleted bool
	err := r.db.QueryRowContext(ctx, `SELECT deleted_at IS NOT NULL FROM stories WHERE id = ?`, id).Scan(&deleted)
	if err == sql.ErrNoRows {
		return models.TransitionNotFound, nil
	}
	if err != nil {
		return models.TransitionFailed, fmt.Errorf("failed to check story existence: %w", err)
	}
	if liveOnly && deleted {
		return models.TransitionNotFound, nil
	}
	return models.TransitionWrongState, nil
}

// DeleteCascade permanently removes a story from the recycling bin with its likes and tag links.
// It returns the ids of the tags the story was linked to.
func (r *storyRepository) DeleteCascade(ctx context.Context, id int) (models.TransitionResult, []int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return models.TransitionFailed, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var deleted bool
	err = tx.QueryRowContext(ctx, `SELECT deleted_at IS NOT NULL FROM stories WHERE id = ? FOR UPDATE`, id).Scan(&deleted)
	if err == sql.ErrNoRows {
		return models.TransitionNotFound, nil, nil
	}
	if err != nil {
		return models.TransitionFailed, nil, fmt.Errorf("failed to lock story: %w", err)
	}
	if !deleted {
		return models.TransitionWrongState, nil, nil
	}

	tagIDs, err := queryTagIDs(ctx, tx, id)
	if err != nil {
		return models.TransitionFailed, nil, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM story_likes WHERE story_id = ?`, id); err != nil {
		return models.TransitionFailed, nil, fmt.Errorf("failed to delete story likes: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM story_tags WHERE story_id = ?`, id); err != nil {
		return models.TransitionFailed, nil, fmt.Errorf("failed to delete story tags: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM stories WHERE id = ? AND deleted_at IS NOT NULL`, id); err != nil {
		return models.TransitionFailed, nil, fmt.Errorf("failed to delete story: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return models.TransitionFailed, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return models.TransitionApplied, tagIDs, nil
}

// IncrementViews counts one view of a live story
func (r *storyRepository) IncrementViews(ctx context.Context, id int) error {
	query := `UPDATE stories SET view_count = view_count + 1 WHERE id = ? AND deleted_at IS NULL`

	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		r.logger.Error("failed to increment views", zap.Error(err), zap.Int("storyId", id))
		return fmt.Errorf("failed to increment views: %w", err)
	}

	return nil
}

// AdjustAnonymousLikes adds delta to the anonymous estimate, clamped at zero, and returns the counters.
// nil is returned when the story is not live.
func (r *storyRepository) AdjustAnonymousLikes(ctx context.Context, id int, delta int) (*models.StoryCounters, error) {
	query := `
		UPDATE stories
		SET anonymous_like_count = GREATEST(anonymous_like_count + ?, 0)
		WHERE id = ? AND deleted_at IS NULL
	`

	if _, err := r.db.ExecContext(ctx, query, delta, id); err != nil {
		r.logger.Error("failed to adjust anonymous likes", zap.Error(err), zap.Int("storyId", id))
		return nil, fmt.Errorf("failed to adjust anonymous likes: %w", err)
	}

	return r.Counters(ctx, id)
}

// Counters reads the engagement counters of a live story, nil is returned when it does not exist
func (r *storyRepository) Counters(ctx context.Context, id int) (*models.StoryCounters, error) {
	query := `SELECT view_count, like_count, anonymous_like_count FROM stories WHERE id = ? AND deleted_at IS NULL`

	counters := &models.StoryCounters{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(&counters.ViewCount, &counters.LikeCount, &counters.AnonymousLikeCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get story counters: %w", err)
	}

	return counters, nil
}

// CountByStatus counts live stories per status and the stories in the recycling bin
func (r *storyRepository) CountByStatus(ctx context.Context) (*models.StoryStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM stories WHERE deleted_at IS NULL GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count stories: %w", err)
	}
	defer rows.Close()

	stats := &models.StoryStats{ByStatus: make(map[models.StoryStatus]int)}
	for rows.Next() {
		var status models.StoryStatus
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan count: %w", err)
		}
		stats.ByStatus[status] = count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories WHERE deleted_at IS NOT NULL`).Scan(&stats.InBin); err != nil {
		return nil, fmt.Errorf("failed to count recycling bin: %w", err)
	}
	stats.Total += stats.InBin

	return stats, nil
}

// ListForExport returns the export rows, soft-deleted stories included when includeDeleted is set
func (r *storyRepository) ListForExport(ctx context.Context, includeDeleted bool) ([]models.StoryExportRow, error) {
	query := `
		SELECT s.id, s.title, COALESCE(NULLIF(s.display_author, ''), u.username), s.status, s.language,
			s.word_count, s.reading_time, s.view_count, s.like_count, s.created_at, s.published_at, s.deleted_at
		FROM stories s
		JOIN users u ON u.id = s.user_id`
	if !includeDeleted {
		query += ` WHERE s.deleted_at IS NULL`
	}
	query += ` ORDER BY s.id`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query export rows: %w", err)
	}
	defer rows.Close()

	result := make([]models.StoryExportRow, 0)
	for rows.Next() {
		var row models.StoryExportRow
		var publishedAt, deletedAt sql.NullTime
		if err := rows.Scan(&row.ID, &row.Title, &row.Author, &row.Status, &row.Language,
			&row.WordCount, &row.ReadingTime, &row.ViewCount, &row.LikeCount, &row.CreatedAt, &publishedAt, &deletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan export row: %w", err)
		}
		row.PublishedAt = nullTimePtr(publishedAt)
		row.DeletedAt = nullTimePtr(deletedAt)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return result, nil
}

// ListMediaByUser returns every media path referenced by the stories of a user, deleted ones included
func (r *storyRepository) ListMediaByUser(ctx context.Context, userID int) ([]string, error) {
	query := `SELECT image_path, audio_path, video_path FROM stories WHERE user_id = ?`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query user media: %w", err)
	}
	defer rows.Close()

	paths := make([]string, 0)
	for rows.Next() {
		var refs models.MediaRefs
		if err := rows.Scan(&refs.ImagePath, &refs.AudioPath, &refs.VideoPath); err != nil {
			return nil, fmt.Errorf("failed to scan media paths: %w", err)
		}
		paths = append(paths, refs.Paths()...)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return paths, nil
}

// escapeLike escapes LIKE wildcards in user input
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
