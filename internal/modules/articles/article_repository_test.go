package articles

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratamalabs/sahamflow/internal/database"
	"github.com/pratamalabs/sahamflow/internal/domain"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

func newTestRepository(t *testing.T) *ArticleRepository {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewArticleRepository(db.Conn(), logger.New(logger.Config{Level: "error", Pretty: false}))
}

func TestSaveDeduplicatesByURL(t *testing.T) {
	repo := newTestRepository(t)

	article := domain.Article{
		Source:      "news.example.com",
		Title:       "BBCA catat laba rekor",
		URL:         "https://news.example.com/bbca",
		PublishedAt: time.Now(),
	}

	inserted, err := repo.Save(article)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.Save(article)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestRecentWindowAndOrdering(t *testing.T) {
	repo := newTestRepository(t)

	now := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	save := func(url string, publishedAt time.Time) {
		_, err := repo.Save(domain.Article{
			Source:      "news.example.com",
			Title:       url,
			URL:         url,
			PublishedAt: publishedAt,
		})
		require.NoError(t, err)
	}

	save("https://news.example.com/old", now.Add(-48*time.Hour))
	save("https://news.example.com/yesterday", now.Add(-20*time.Hour))
	save("https://news.example.com/today", now.Add(-2*time.Hour))

	recent, err := repo.Recent(now.Add(-24 * time.Hour))
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "https://news.example.com/today", recent[0].URL)
	assert.Equal(t, "https://news.example.com/yesterday", recent[1].URL)
}
