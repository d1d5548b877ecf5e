package repositories

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/storykeeper/backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// setupStoryTestRepository creates a story repository with a mock database
func setupStoryTestRepository(t *testing.T) (*storyRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewStoryRepository(db, zaptest.NewLogger(t))

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func q(s string) string {
	return regexp.QuoteMeta(s)
}

var storyColumnNames = []string{
	"id", "user_id", "title", "content", "raw_transcript", "polished", "description",
	"display_author", "language", "language_name", "language_group",
	"image_path", "image_original_name", "audio_path", "audio_original_name", "audio_duration",
	"audio_format", "audio_language", "audio_language_name", "video_path", "video_original_name",
	"video_duration", "video_format", "word_count", "reading_time", "status",
	"view_count", "like_count", "anonymous_like_count",
	"created_at", "updated_at", "published_at", "deleted_at", "username",
}

func storyRow(id int, status models.StoryStatus, displayAuthor string, deletedAt any) *sqlmock.Rows {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	return sqlmock.NewRows(storyColumnNames).AddRow(
		id, 5, "Title", "Body text", "raw body", true, "desc",
		displayAuthor, "zh-CN", "Chinese", "zh",
		"2024/03/user_5/a.jpg", "a.jpg", "", "", 0,
		"", "", "", "", "",
		0, "", 2, 1, string(status),
		10, 3, 1,
		now, now, nil, deletedAt, "ann",
	)
}

var listColumnNames = []string{
	"id", "user_id", "author", "title", "description", "language", "language_name", "language_group",
	"image_path", "has_audio", "has_video", "word_count", "reading_time", "status",
	"view_count", "like_count", "anonymous_like_count", "tag_name", "created_at", "published_at", "deleted_at",
}

func listRows(ids ...int) *sqlmock.Rows {
	now := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(listColumnNames)
	for _, id := range ids {
		rows.AddRow(id, 5, "ann", "Title", "", "en-US", "English", "en", "", false, true, 10, 1, "published", 0, 0, 0, "Drama", now, now, nil)
	}
	return rows
}

func TestStoryRepository_Create(t *testing.T) {
	repo, mock, cleanup := setupStoryTestRepository(t)
	defer cleanup()

	story := &models.Story{UserID: 5, Title: "T", Content: "C", Status: models.StatusPending, Language: "en-US"}

	mock.ExpectExec(q("INSERT INTO stories")).
		WillReturnResult(sqlmock.NewResult(42, 1))

	err := repo.Create(context.Background(), story)
	require.NoError(t, err)
	assert.Equal(t, 42, story.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_GetByID(t *testing.T) {
	tests := []struct {
		name           string
		id             int
		includeDeleted bool
		setupMock      func(sqlmock.Sqlmock)
		expectedNil    bool
		expectedError  bool
		expectedAuthor string
	}{
		{
			name: "found uses username",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q("WHERE s.id = ? AND s.deleted_at IS NULL")).
					WithArgs(1).
					WillReturnRows(storyRow(1, models.StatusPublished, "", nil))
			},
			expectedAuthor: "ann",
		},
		{
			name:           "display author wins",
			id:             1,
			includeDeleted: true,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`WHERE s.id = \?\s*$`).
					WithArgs(1).
					WillReturnRows(storyRow(1, models.StatusPublished, "Grandma", time.Now()))
			},
			expectedAuthor: "Grandma",
		},
		{
			name: "not found",
			id:   9,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q("FROM stories s")).WithArgs(9).WillReturnError(sql.ErrNoRows)
			},
			expectedNil: true,
		},
		{
			name: "database error",
			id:   1,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(q("FROM stories s")).WithArgs(1).WillReturnError(errors.New("db down"))
			},
			expectedNil:   true,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupStoryTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			detail, err := repo.GetByID(context.Background(), tt.id, tt.includeDeleted)

			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.expectedNil {
				assert.Nil(t, detail)
			} else {
				require.NotNil(t, detail)
				assert.Equal(t, tt.expectedAuthor, detail.Author)
				assert.Equal(t, "raw body", *detail.RawTranscript)
				assert.Equal(t, "2024/03/user_5/a.jpg", detail.Media.ImagePath)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStoryRepository_ListPublished(t *testing.T) {
	t.Run("all filters", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(q("s.status = 'published' AND s.deleted_at IS NULL AND s.language_group = ? AND EXISTS")).
			WithArgs("zh", 3, "%50\\%%", "%50\\%%", "%50\\%%", 20, 20).
			WillReturnRows(listRows(1, 2))

		items, err := repo.ListPublished(context.Background(), models.LibraryFilter{
			LanguageGroup: "zh", TagID: 3, Search: "50%", Page: 2, Count: 20,
		})
		require.NoError(t, err)
		assert.Len(t, items, 2)
		assert.True(t, items[0].HasVideo)
		assert.Equal(t, "Drama", items[0].TagName)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no filters", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(q("ORDER BY s.published_at DESC")).
			WithArgs(10, 0).
			WillReturnRows(listRows())

		items, err := repo.ListPublished(context.Background(), models.LibraryFilter{Page: 1, Count: 10})
		require.NoError(t, err)
		assert.Empty(t, items)
		assert.NotNil(t, items)
	})

	t.Run("scan error", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectQuery(q("FROM stories s")).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("x"))

		_, err := repo.ListPublished(context.Background(), models.LibraryFilter{Page: 1, Count: 10})
		assert.Error(t, err)
	})
}

func TestStoryRepository_VisibleListingsExcludeDeleted(t *testing.T) {
	repo, mock, cleanup := setupStoryTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(q("WHERE s.user_id = ? AND s.deleted_at IS NULL")).WithArgs(5).WillReturnRows(listRows(1))
	mock.ExpectQuery(q("WHERE s.status = ? AND s.deleted_at IS NULL")).WithArgs(models.StatusPending, 50, 0).WillReturnRows(listRows(2))
	mock.ExpectQuery(q("WHERE s.deleted_at IS NOT NULL")).WithArgs(50, 50).WillReturnRows(listRows(3))

	_, err := repo.ListByUser(context.Background(), 5)
	require.NoError(t, err)
	_, err = repo.ListByStatus(context.Background(), models.StatusPending, 1, 50)
	require.NoError(t, err)
	_, err = repo.ListDeleted(context.Background(), 2, 50)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_TransitionStatus(t *testing.T) {
	publishedAt := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)
	updateSQL := q("UPDATE stories SET status = ?, published_at = COALESCE(?, published_at)")
	existsSQL := q("SELECT deleted_at IS NOT NULL FROM stories WHERE id = ?")

	tests := []struct {
		name          string
		setupMock     func(sqlmock.Sqlmock)
		expected      models.TransitionResult
		expectedError bool
	}{
		{
			name: "applied",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateSQL).
					WithArgs(models.StatusPublished, &publishedAt, 1, models.StatusPending).
					WillReturnResult(sqlmock.NewResult(0, 1))
			},
			expected: models.TransitionApplied,
		},
		{
			name: "wrong state",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(existsSQL).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"deleted"}).AddRow(false))
			},
			expected: models.TransitionWrongState,
		},
		{
			name: "deleted story counts as not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(existsSQL).WithArgs(1).WillReturnRows(sqlmock.NewRows([]string{"deleted"}).AddRow(true))
			},
			expected: models.TransitionNotFound,
		},
		{
			name: "not found",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateSQL).WillReturnResult(sqlmock.NewResult(0, 0))
				mock.ExpectQuery(existsSQL).WithArgs(1).WillReturnError(sql.ErrNoRows)
			},
			expected: models.TransitionNotFound,
		},
		{
			name: "database error",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(updateSQL).WillReturnError(errors.New("db down"))
			},
			expected:      models.TransitionFailed,
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupStoryTestRepository(t)
			defer cleanup()
			tt.setupMock(mock)

			result, err := repo.TransitionStatus(context.Background(), 1, models.StatusPending, models.StatusPublished, &publishedAt)
			assert.Equal(t, tt.expected, result)
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestStoryRepository_SoftDeleteAndRestore(t *testing.T) {
	existsSQL := q("SELECT deleted_at IS NOT NULL FROM stories WHERE id = ?")

	t.Run("soft delete applied", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectExec(q("UPDATE stories SET deleted_at = NOW() WHERE id = ? AND deleted_at IS NULL")).
			WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 1))

		result, err := repo.SoftDelete(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, models.TransitionApplied, result)
	})

	t.Run("soft delete of a story in the bin", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectExec(q("UPDATE stories SET deleted_at = NOW()")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WillReturnRows(sqlmock.NewRows([]string{"deleted"}).AddRow(true))

		result, err := repo.SoftDelete(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, models.TransitionWrongState, result)
	})

	t.Run("restore of a live story is a no-op", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectExec(q("UPDATE stories SET deleted_at = NULL WHERE id = ? AND deleted_at IS NOT NULL")).
			WithArgs(1).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(existsSQL).WillReturnRows(sqlmock.NewRows([]string{"deleted"}).AddRow(false))

		result, err := repo.Restore(context.Background(), 1)
		require.NoError(t, err)
		assert.Equal(t, models.TransitionWrongState, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStoryRepository_DeleteCascade(t *testing.T) {
	lockSQL := q("SELECT deleted_at IS NOT NULL FROM stories WHERE id = ? FOR UPDATE")

	t.Run("removes likes tags and row", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"deleted"}).AddRow(true))
		mock.ExpectQuery(q("SELECT tag_id FROM story_tags WHERE story_id = ?")).WithArgs(7).
			WillReturnRows(sqlmock.NewRows([]string{"tag_id"}).AddRow(4))
		mock.ExpectExec(q("DELETE FROM story_likes WHERE story_id = ?")).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 3))
		mock.ExpectExec(q("DELETE FROM story_tags WHERE story_id = ?")).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(q("DELETE FROM stories WHERE id = ? AND deleted_at IS NOT NULL")).WithArgs(7).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		result, tagIDs, err := repo.DeleteCascade(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, models.TransitionApplied, result)
		assert.Equal(t, []int{4}, tagIDs)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("live story is not purged", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"deleted"}).AddRow(false))
		mock.ExpectRollback()

		result, _, err := repo.DeleteCascade(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, models.TransitionWrongState, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing story", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(7).WillReturnError(sql.ErrNoRows)
		mock.ExpectRollback()

		result, _, err := repo.DeleteCascade(context.Background(), 7)
		require.NoError(t, err)
		assert.Equal(t, models.TransitionNotFound, result)
	})

	t.Run("failure rolls back", func(t *testing.T) {
		repo, mock, cleanup := setupStoryTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(lockSQL).WithArgs(7).WillReturnRows(sqlmock.NewRows([]string{"deleted"}).AddRow(true))
		mock.ExpectQuery(q("SELECT tag_id FROM story_tags")).WillReturnRows(sqlmock.NewRows([]string{"tag_id"}))
		mock.ExpectExec(q("DELETE FROM story_likes")).WillReturnError(errors.New("lock timeout"))
		mock.ExpectRollback()

		result, _, err := repo.DeleteCascade(context.Background(), 7)
		assert.Error(t, err)
		assert.Equal(t, models.TransitionFailed, result)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStoryRepository_AdjustAnonymousLikes(t *testing.T) {
	repo, mock, cleanup := setupStoryTestRepository(t)
	defer cleanup()

	mock.ExpectExec(q("SET anonymous_like_count = GREATEST(anonymous_like_count + ?, 0)")).
		WithArgs(-1, 3).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery(q("SELECT view_count, like_count, anonymous_like_count FROM stories")).
		WithArgs(3).WillReturnRows(sqlmock.NewRows([]string{"view_count", "like_count", "anonymous_like_count"}).AddRow(9, 2, 0))

	counters, err := repo.AdjustAnonymousLikes(context.Background(), 3, -1)
	require.NoError(t, err)
	assert.Equal(t, 0, counters.AnonymousLikeCount)
	assert.Equal(t, 2, counters.LikeCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepository_CountByStatus(t *testing.T) {
	repo, mock, cleanup := setupStoryTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(q("GROUP BY status")).
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).AddRow("pending", 4).AddRow("published", 6))
	mock.ExpectQuery(q("SELECT COUNT(*) FROM stories WHERE deleted_at IS NOT NULL")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	stats, err := repo.CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, stats.ByStatus[models.StatusPending])
	assert.Equal(t, 6, stats.ByStatus[models.StatusPublished])
	assert.Equal(t, 2, stats.InBin)
	assert.Equal(t, 12, stats.Total)
}

func TestStoryRepository_ListMediaByUser(t *testing.T) {
	repo, mock, cleanup := setupStoryTestRepository(t)
	defer cleanup()

	mock.ExpectQuery(q("SELECT image_path, audio_path, video_path FROM stories WHERE user_id = ?")).
		WithArgs(5).
		WillReturnRows(sqlmock.NewRows([]string{"image_path", "audio_path", "video_path"}).
			AddRow("a.jpg", "", "").
			AddRow("", "b.webm", "c.mp4"))

	paths, err := repo.ListMediaByUser(context.Background(), 5)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.jpg", "b.webm", "c.mp4"}, paths)
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `100\% \_sure\\`, escapeLike(`100% _sure\`))
}
