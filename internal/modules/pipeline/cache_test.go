package pipeline

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratamalabs/sahamflow/internal/database"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

// fakeClock is a settable Clock with instantaneous sleeps
type fakeClock struct {
	now   time.Time
	slept []time.Duration
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.slept = append(c.slept, d)
	c.now = c.now.Add(d)
}

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func testLogger() zerolog.Logger {
	return logger.New(logger.Config{Level: "error", Pretty: false})
}

func TestStepCacheRoundTrip(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	cache := NewStepCache(NewMemoryCacheStore(), time.Hour, clock, testLogger())
	key := RunKey{Date: "2026-03-02", Schedule: "morning"}

	type payload struct {
		Count int
		Name  string
	}

	require.NoError(t, cache.Set(key, StepCrawl, payload{Count: 7, Name: "crawl"}))

	var got payload
	assert.True(t, cache.Get(key, StepCrawl, &got))
	assert.Equal(t, payload{Count: 7, Name: "crawl"}, got)

	// Unwritten step is absent.
	assert.False(t, cache.Get(key, StepExtract, &got))
}

func TestStepCacheTTL(t *testing.T) {
	start := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := newFakeClock(start)
	cache := NewStepCache(NewMemoryCacheStore(), time.Hour, clock, testLogger())
	key := RunKey{Date: "2026-03-02", Schedule: "morning"}

	require.NoError(t, cache.Set(key, StepCrawl, 1))
	require.NoError(t, cache.Set(key, StepExtract, 2))

	// Within TTL: resume after the cached prefix.
	clock.Advance(30 * time.Minute)
	assert.Equal(t, 3, cache.ResumePoint(key, CacheableSteps))

	// Past TTL: everything expired, start over.
	clock.Advance(time.Hour)
	assert.Equal(t, 1, cache.ResumePoint(key, CacheableSteps))

	var out int
	assert.False(t, cache.Get(key, StepCrawl, &out))
}

func TestStepCacheResumePoint(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	cache := NewStepCache(NewMemoryCacheStore(), time.Hour, clock, testLogger())
	key := RunKey{Date: "2026-03-02", Schedule: "morning"}

	assert.Equal(t, 1, cache.ResumePoint(key, CacheableSteps))

	require.NoError(t, cache.Set(key, StepCrawl, "a"))
	assert.Equal(t, 2, cache.ResumePoint(key, CacheableSteps))

	// A gap stops the scan even when later steps are cached.
	require.NoError(t, cache.Set(key, StepRank, "c"))
	assert.Equal(t, 2, cache.ResumePoint(key, CacheableSteps))

	require.NoError(t, cache.Set(key, StepExtract, "b"))
	assert.Equal(t, CacheableSteps+1, cache.ResumePoint(key, CacheableSteps))
}

func TestStepCacheMalformedPayload(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	store := NewMemoryCacheStore()
	cache := NewStepCache(store, time.Hour, clock, testLogger())
	key := RunKey{Date: "2026-03-02", Schedule: "morning"}

	require.NoError(t, store.Write(key, StepCrawl, []byte{0xc1, 0xff}, clock.Now()))

	var out []string
	assert.False(t, cache.Get(key, StepCrawl, &out))
}

func TestStepCacheClearScopedToRunKey(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	cache := NewStepCache(NewMemoryCacheStore(), time.Hour, clock, testLogger())

	morning := RunKey{Date: "2026-03-02", Schedule: "morning"}
	evening := RunKey{Date: "2026-03-02", Schedule: "evening"}
	yesterday := RunKey{Date: "2026-03-01", Schedule: "morning"}

	require.NoError(t, cache.Set(morning, StepCrawl, 1))
	require.NoError(t, cache.Set(evening, StepCrawl, 2))
	require.NoError(t, cache.Set(yesterday, StepCrawl, 3))

	require.NoError(t, cache.Clear(morning))

	var out int
	assert.False(t, cache.Get(morning, StepCrawl, &out))
	assert.True(t, cache.Get(evening, StepCrawl, &out))
	assert.True(t, cache.Get(yesterday, StepCrawl, &out))
}

func TestSQLiteCacheStore(t *testing.T) {
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.Migrate())

	store := NewSQLiteCacheStore(db.Conn())
	key := RunKey{Date: "2026-03-02", Schedule: "morning"}
	when := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	_, _, ok, err := store.Read(key, StepCrawl)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Write(key, StepCrawl, []byte("one"), when))
	payload, cachedAt, ok, err := store.Read(key, StepCrawl)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("one"), payload)
	assert.True(t, cachedAt.Equal(when))

	// Overwrite replaces the entry.
	later := when.Add(10 * time.Minute)
	require.NoError(t, store.Write(key, StepCrawl, []byte("two"), later))
	payload, cachedAt, ok, err = store.Read(key, StepCrawl)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []byte("two"), payload)
	assert.True(t, cachedAt.Equal(later))

	other := RunKey{Date: "2026-03-02", Schedule: "evening"}
	require.NoError(t, store.Write(other, StepCrawl, []byte("keep"), when))

	require.NoError(t, store.DeleteRun(key))
	_, _, ok, err = store.Read(key, StepCrawl)
	require.NoError(t, err)
	assert.False(t, ok)
	_, _, ok, err = store.Read(other, StepCrawl)
	require.NoError(t, err)
	assert.True(t, ok)
}
