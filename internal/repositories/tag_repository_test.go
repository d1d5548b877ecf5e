package repositories

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupTagTestRepository(t *testing.T) (*tagRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	return NewTagRepository(db, zaptest.NewLogger(t)), mock, func() { db.Close() }
}

func TestTagRepository_ListCategoriesWithTags(t *testing.T) {
	repo, mock, cleanup := setupTagTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"c.id", "c.name", "c.description", "color", "icon", "t.id", "t.name", "t.description", "usage_count"}).
		AddRow(1, "Genre", "", "#007bff", "fas fa-book", 1, "Adventure", "", 3).
		AddRow(1, "Genre", "", "#007bff", "fas fa-book", 2, "Drama", "", 0).
		AddRow(2, "Mood", "", "#28a745", "fas fa-heart", nil, nil, nil, nil)
	mock.ExpectQuery(q("LEFT JOIN tags t ON t.category_id = c.id")).WillReturnRows(rows)

	categories, err := repo.ListCategoriesWithTags(context.Background())
	require.NoError(t, err)
	require.Len(t, categories, 2)
	assert.Len(t, categories[0].Tags, 2)
	assert.Equal(t, 3, categories[0].Tags[0].UsageCount)
	assert.Empty(t, categories[1].Tags)
	assert.NotNil(t, categories[1].Tags)
}

func TestTagRepository_ReplaceStoryTag(t *testing.T) {
	t.Run("replaces link", func(t *testing.T) {
		repo, mock, cleanup := setupTagTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT tag_id FROM story_tags WHERE story_id = ?")).WithArgs(3).
			WillReturnRows(sqlmock.NewRows([]string{"tag_id"}).AddRow(1).AddRow(2))
		mock.ExpectExec(q("DELETE FROM story_tags WHERE story_id = ?")).WithArgs(3).WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectExec(q("INSERT INTO story_tags (story_id, tag_id) VALUES (?, ?)")).WithArgs(3, 5).WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		previous, err := repo.ReplaceStoryTag(context.Background(), 3, 5)
		require.NoError(t, err)
		assert.Equal(t, []int{1, 2}, previous)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("zero tag clears link", func(t *testing.T) {
		repo, mock, cleanup := setupTagTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT tag_id FROM story_tags")).WillReturnRows(sqlmock.NewRows([]string{"tag_id"}))
		mock.ExpectExec(q("DELETE FROM story_tags")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		_, err := repo.ReplaceStoryTag(context.Background(), 3, 0)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert error rolls back", func(t *testing.T) {
		repo, mock, cleanup := setupTagTestRepository(t)
		defer cleanup()

		mock.ExpectBegin()
		mock.ExpectQuery(q("SELECT tag_id FROM story_tags")).WillReturnRows(sqlmock.NewRows([]string{"tag_id"}))
		mock.ExpectExec(q("DELETE FROM story_tags")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(q("INSERT INTO story_tags")).WillReturnError(errors.New("fk violation"))
		mock.ExpectRollback()

		_, err := repo.ReplaceStoryTag(context.Background(), 3, 99)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTagRepository_RecountUsage(t *testing.T) {
	t.Run("deduplicates ids", func(t *testing.T) {
		repo, mock, cleanup := setupTagTestRepository(t)
		defer cleanup()

		mock.ExpectExec(q("WHERE t.id IN (?, ?)")).WithArgs(1, 4).WillReturnResult(sqlmock.NewResult(0, 2))

		err := repo.RecountUsage(context.Background(), 1, 4, 1, 0)
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("nothing to recount", func(t *testing.T) {
		repo, mock, cleanup := setupTagTestRepository(t)
		defer cleanup()

		require.NoError(t, repo.RecountUsage(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestTagRepository_RecountAll(t *testing.T) {
	repo, mock, cleanup := setupTagTestRepository(t)
	defer cleanup()

	mock.ExpectExec(q("UPDATE tags t SET t.usage_count = (SELECT COUNT(*) FROM story_tags st WHERE st.tag_id = t.id)")).
		WillReturnResult(sqlmock.NewResult(0, 7))

	changed, err := repo.RecountAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 7, changed)
}
