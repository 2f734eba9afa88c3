package outlook

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratamalabs/sahamflow/internal/database"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())

	return NewRepository(db.Conn(), logger.New(logger.Config{Level: "error", Pretty: false}))
}

func TestLatestEmpty(t *testing.T) {
	repo := newTestRepository(t)

	o, err := repo.Latest()
	require.NoError(t, err)
	assert.Nil(t, o)
}

func TestSaveAndLatest(t *testing.T) {
	repo := newTestRepository(t)

	require.NoError(t, repo.Save("2026-03-01", "evening", "cautious tone"))
	require.NoError(t, repo.Save("2026-03-02", "morning", "risk appetite returning"))

	o, err := repo.Latest()
	require.NoError(t, err)
	require.NotNil(t, o)
	assert.Equal(t, "2026-03-02", o.RunDate)
	assert.Equal(t, "morning", o.Schedule)
	assert.Equal(t, "risk appetite returning", o.Summary)

	byDate, err := repo.ForDate("2026-03-01")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "evening", byDate[0].Schedule)
}
