package recommendations

import (
	"path/filepath"
	"testing"
	"time"

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

func sampleRec(ticker string, recommendedAt time.Time) Recommendation {
	return Recommendation{
		Ticker:        ticker,
		RecommendedAt: recommendedAt,
		EntryPrice:    9500,
		StopLoss:      9200,
		TargetPrice:   10200,
		MaxHoldDays:   14,
		Scores:        Scores{Sentiment: 0.8, Overall: 0.7},
		Reason:        "strong quarterly earnings",
	}
}

func TestCreateAppliesDefaults(t *testing.T) {
	repo := newTestRepository(t)

	id, err := repo.Create(sampleRec("BBCA", time.Now()))
	require.NoError(t, err)
	require.NotEmpty(t, id)

	all, err := repo.All(10)
	require.NoError(t, err)
	require.Len(t, all, 1)

	rec := all[0]
	assert.Equal(t, id, rec.UUID)
	assert.Equal(t, StatusPending, rec.Status)
	assert.Equal(t, "limit", rec.OrderType)
	assert.Nil(t, rec.ExitDate)
	assert.Nil(t, rec.ProfitLossPct)
	assert.Equal(t, 0.8, rec.Scores.Sentiment)
}

func TestOpenOrdering(t *testing.T) {
	repo := newTestRepository(t)

	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	idLater, err := repo.Create(sampleRec("TLKM", base.AddDate(0, 0, 2)))
	require.NoError(t, err)
	idEarlier, err := repo.Create(sampleRec("BBCA", base))
	require.NoError(t, err)

	// Terminal rows never show up as open.
	idClosed, err := repo.Create(sampleRec("ADRO", base.AddDate(0, 0, 1)))
	require.NoError(t, err)
	exitDate := base.AddDate(0, 0, 5)
	exitPrice := 10200.0
	pnl := 7.37
	require.NoError(t, repo.UpdateStatus(idClosed, StatusTargetHit, &exitDate, &exitPrice, &pnl))

	open, err := repo.Open()
	require.NoError(t, err)
	require.Len(t, open, 2)
	assert.Equal(t, idEarlier, open[0].UUID)
	assert.Equal(t, idLater, open[1].UUID)
}

func TestUpdateStatusPersistsExitFields(t *testing.T) {
	repo := newTestRepository(t)

	id, err := repo.Create(sampleRec("BBCA", time.Now().AddDate(0, 0, -3)))
	require.NoError(t, err)

	// Non-terminal transition carries no exit data.
	require.NoError(t, repo.UpdateStatus(id, StatusEntryHit, nil, nil, nil))

	open, err := repo.Open()
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, StatusEntryHit, open[0].Status)
	assert.Nil(t, open[0].ExitDate)

	exitDate := time.Date(2026, 3, 6, 16, 0, 0, 0, time.UTC)
	exitPrice := 10250.0
	pnl := 7.89
	require.NoError(t, repo.UpdateStatus(id, StatusTargetHit, &exitDate, &exitPrice, &pnl))

	closed, err := repo.ByStatus(StatusTargetHit)
	require.NoError(t, err)
	require.Len(t, closed, 1)
	require.NotNil(t, closed[0].ExitDate)
	assert.True(t, closed[0].ExitDate.Equal(exitDate))
	require.NotNil(t, closed[0].ExitPrice)
	assert.Equal(t, 10250.0, *closed[0].ExitPrice)
	require.NotNil(t, closed[0].ProfitLossPct)
	assert.InDelta(t, 7.89, *closed[0].ProfitLossPct, 0.001)
}

func TestActiveSymbols(t *testing.T) {
	repo := newTestRepository(t)

	now := time.Now()
	_, err := repo.Create(sampleRec("BBCA", now))
	require.NoError(t, err)

	idEntered, err := repo.Create(sampleRec("TLKM", now.AddDate(0, 0, -1)))
	require.NoError(t, err)
	require.NoError(t, repo.UpdateStatus(idEntered, StatusEntryHit, nil, nil, nil))

	idExpired, err := repo.Create(sampleRec("ADRO", now.AddDate(0, 0, -20)))
	require.NoError(t, err)
	exitDate := now
	require.NoError(t, repo.UpdateStatus(idExpired, StatusExpired, &exitDate, nil, nil))

	symbols, err := repo.ActiveSymbols()
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"BBCA": true, "TLKM": true}, symbols)
}

func TestStatusLifecycleHelpers(t *testing.T) {
	assert.False(t, StatusPending.Terminal())
	assert.False(t, StatusEntryHit.Terminal())
	assert.True(t, StatusTargetHit.Terminal())
	assert.True(t, StatusSLHit.Terminal())
	assert.True(t, StatusExpired.Terminal())

	assert.True(t, StatusPending.Before(StatusEntryHit))
	assert.True(t, StatusEntryHit.Before(StatusSLHit))
	assert.False(t, StatusTargetHit.Before(StatusEntryHit))
	assert.False(t, StatusExpired.Before(StatusTargetHit))
}
