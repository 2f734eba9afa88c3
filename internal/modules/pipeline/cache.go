package pipeline

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/vmihailenco/msgpack/v5"
)

// CacheStore is the durable backing for step results. Injected so the
// orchestrator is testable without I/O; never a process-wide singleton.
type CacheStore interface {
	Read(key RunKey, step int) (payload []byte, cachedAt time.Time, ok bool, err error)
	Write(key RunKey, step int, payload []byte, cachedAt time.Time) error
	DeleteRun(key RunKey) error
}

// StepCache is a TTL-bounded cache of step outputs keyed by (RunKey, step).
// An expired, missing or undecodable entry is indistinguishable from absent:
// cache trouble only ever forfeits the optimization, never blocks a run.
type StepCache struct {
	store CacheStore
	ttl   time.Duration
	clock Clock
	log   zerolog.Logger
}

// NewStepCache creates a step cache over the given store
func NewStepCache(store CacheStore, ttl time.Duration, clock Clock, log zerolog.Logger) *StepCache {
	if clock == nil {
		clock = SystemClock()
	}
	return &StepCache{
		store: store,
		ttl:   ttl,
		clock: clock,
		log:   log.With().Str("component", "step_cache").Logger(),
	}
}

// Get returns the decoded payload for a step, or false when absent.
// Absent covers: never written, storage error, TTL exceeded, decode failure.
func (c *StepCache) Get(key RunKey, step int, out interface{}) bool {
	payload, cachedAt, ok, err := c.store.Read(key, step)
	if err != nil {
		c.log.Warn().Err(err).Str("run", key.String()).Int("step", step).Msg("Cache read failed, treating as absent")
		return false
	}
	if !ok {
		return false
	}

	if c.clock.Now().Sub(cachedAt) > c.ttl {
		return false
	}

	if err := msgpack.Unmarshal(payload, out); err != nil {
		c.log.Warn().Err(err).Str("run", key.String()).Int("step", step).Msg("Malformed cache payload, treating as absent")
		return false
	}

	return true
}

// Set stores a step result, overwriting any prior entry for that key
func (c *StepCache) Set(key RunKey, step int, value interface{}) error {
	payload, err := msgpack.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to encode step payload: %w", err)
	}

	if err := c.store.Write(key, step, payload, c.clock.Now()); err != nil {
		return fmt.Errorf("failed to persist step payload: %w", err)
	}

	return nil
}

// ResumePoint scans steps 1..cacheableSteps in order and returns the first
// step lacking a valid entry; cacheableSteps+1 when every step is cached.
func (c *StepCache) ResumePoint(key RunKey, cacheableSteps int) int {
	for step := 1; step <= cacheableSteps; step++ {
		if !c.present(key, step) {
			return step
		}
	}
	return cacheableSteps + 1
}

// present checks validity without decoding the payload
func (c *StepCache) present(key RunKey, step int) bool {
	_, cachedAt, ok, err := c.store.Read(key, step)
	if err != nil || !ok {
		return false
	}
	return c.clock.Now().Sub(cachedAt) <= c.ttl
}

// Clear removes every entry for this RunKey only; other dates and schedules
// sharing the store are untouched.
func (c *StepCache) Clear(key RunKey) error {
	return c.store.DeleteRun(key)
}

// SQLiteCacheStore persists step results in the step_cache table so a
// crashed run can resume after a process restart.
type SQLiteCacheStore struct {
	db *sql.DB
}

// NewSQLiteCacheStore creates a sqlite-backed cache store
func NewSQLiteCacheStore(db *sql.DB) *SQLiteCacheStore {
	return &SQLiteCacheStore{db: db}
}

// Read returns a single entry if present
func (s *SQLiteCacheStore) Read(key RunKey, step int) ([]byte, time.Time, bool, error) {
	var (
		payload  []byte
		cachedAt time.Time
	)
	err := s.db.QueryRow(`
		SELECT payload, cached_at FROM step_cache
		WHERE run_date = ? AND schedule = ? AND step = ?
	`, key.Date, key.Schedule, step).Scan(&payload, &cachedAt)
	if err == sql.ErrNoRows {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}
	return payload, cachedAt, true, nil
}

// Write upserts a single entry
func (s *SQLiteCacheStore) Write(key RunKey, step int, payload []byte, cachedAt time.Time) error {
	_, err := s.db.Exec(`
		INSERT INTO step_cache (run_date, schedule, step, cached_at, payload)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (run_date, schedule, step)
		DO UPDATE SET cached_at = excluded.cached_at, payload = excluded.payload
	`, key.Date, key.Schedule, step, cachedAt, payload)
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// DeleteRun removes all entries for one RunKey
func (s *SQLiteCacheStore) DeleteRun(key RunKey) error {
	_, err := s.db.Exec(`
		DELETE FROM step_cache WHERE run_date = ? AND schedule = ?
	`, key.Date, key.Schedule)
	if err != nil {
		return fmt.Errorf("failed to clear cache entries: %w", err)
	}
	return nil
}

// MemoryCacheStore is an in-memory CacheStore for tests
type MemoryCacheStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	payload  []byte
	cachedAt time.Time
}

// NewMemoryCacheStore creates an empty in-memory store
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{entries: make(map[string]memoryEntry)}
}

func (s *MemoryCacheStore) entryKey(key RunKey, step int) string {
	return fmt.Sprintf("%s/%d", key.String(), step)
}

// Read returns a single entry if present
func (s *MemoryCacheStore) Read(key RunKey, step int) ([]byte, time.Time, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[s.entryKey(key, step)]
	if !ok {
		return nil, time.Time{}, false, nil
	}
	return e.payload, e.cachedAt, true, nil
}

// Write upserts a single entry
func (s *MemoryCacheStore) Write(key RunKey, step int, payload []byte, cachedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[s.entryKey(key, step)] = memoryEntry{payload: payload, cachedAt: cachedAt}
	return nil
}

// DeleteRun removes all entries for one RunKey
func (s *MemoryCacheStore) DeleteRun(key RunKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	prefix := key.String() + "/"
	for k := range s.entries {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(s.entries, k)
		}
	}
	return nil
}
