package scheduler

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/database"
)

// MaintenanceJob keeps the sqlite file healthy: integrity check, WAL
// checkpoint, and pruning of old articles and step-cache leftovers from
// abandoned runs.
type MaintenanceJob struct {
	db               *database.DB
	articleRetention time.Duration
	log              zerolog.Logger
}

// NewMaintenanceJob creates a maintenance job
func NewMaintenanceJob(db *database.DB, articleRetention time.Duration, log zerolog.Logger) *MaintenanceJob {
	if articleRetention <= 0 {
		articleRetention = 30 * 24 * time.Hour
	}
	return &MaintenanceJob{
		db:               db,
		articleRetention: articleRetention,
		log:              log.With().Str("job", "maintenance").Logger(),
	}
}

// Name returns the job name
func (j *MaintenanceJob) Name() string {
	return "db_maintenance"
}

// Run executes the maintenance pass
func (j *MaintenanceJob) Run() error {
	start := time.Now()

	var result string
	if err := j.db.QueryRow(`PRAGMA quick_check`).Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed to run: %w", err)
	}
	if !strings.EqualFold(result, "ok") {
		return fmt.Errorf("integrity check failed: %s", result)
	}

	if _, err := j.db.Exec(`PRAGMA wal_checkpoint(TRUNCATE)`); err != nil {
		j.log.Warn().Err(err).Msg("WAL checkpoint failed")
	}

	cutoff := time.Now().Add(-j.articleRetention)
	if res, err := j.db.Exec(`DELETE FROM articles WHERE fetched_at < ?`, cutoff); err != nil {
		j.log.Warn().Err(err).Msg("Article pruning failed")
	} else if n, _ := res.RowsAffected(); n > 0 {
		j.log.Info().Int64("pruned", n).Msg("Pruned old articles")
	}

	// Step-cache entries expire after an hour; anything older than a day
	// belongs to a run nobody is coming back for.
	staleCutoff := time.Now().Add(-24 * time.Hour)
	if res, err := j.db.Exec(`DELETE FROM step_cache WHERE cached_at < ?`, staleCutoff); err != nil {
		j.log.Warn().Err(err).Msg("Step-cache pruning failed")
	} else if n, _ := res.RowsAffected(); n > 0 {
		j.log.Info().Int64("pruned", n).Msg("Pruned stale step-cache entries")
	}

	j.log.Info().Dur("duration", time.Since(start)).Msg("Database maintenance completed")
	return nil
}
