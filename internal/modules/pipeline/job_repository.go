package pipeline

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Run statuses in the job_runs table
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)

// ErrRunInProgress means another invocation holds this RunKey right now
var ErrRunInProgress = errors.New("run already in progress")

// ErrAlreadyCompleted means this RunKey already completed today; pass force
// to append another run anyway.
var ErrAlreadyCompleted = errors.New("run already completed")

// JobRun is one row of pipeline execution bookkeeping
type JobRun struct {
	ID         string     `json:"id"`
	Key        RunKey     `json:"key"`
	Status     string     `json:"status"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	ArticlesProcessed      int    `json:"articles_processed"`
	TickersExtracted       int    `json:"tickers_extracted"`
	RecommendationsCreated int    `json:"recommendations_created"`
	Error                  string `json:"error,omitempty"`
}

// JobRepository tracks pipeline runs and guards against double invocation
// of the same RunKey.
type JobRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *sql.DB, log zerolog.Logger) *JobRepository {
	return &JobRepository{
		db:  db,
		log: log.With().Str("repository", "job_runs").Logger(),
	}
}

// Begin registers a new run for the key. It refuses when a run for the same
// key is still running (force does not override a live run), or has already
// completed and force is false.
func (r *JobRepository) Begin(key RunKey, force bool) (string, error) {
	if !force {
		var status string
		err := r.db.QueryRow(`
			SELECT status FROM job_runs
			WHERE run_date = ? AND schedule = ?
			ORDER BY started_at DESC
			LIMIT 1
		`, key.Date, key.Schedule).Scan(&status)
		if err != nil && err != sql.ErrNoRows {
			return "", fmt.Errorf("failed to check prior runs: %w", err)
		}
		if status == RunStatusCompleted {
			return "", fmt.Errorf("%w: %s", ErrAlreadyCompleted, key)
		}
	}

	// Guard and insert in one statement so two concurrent callers cannot
	// both observe "no running row" and both register.
	id := uuid.New().String()
	res, err := r.db.Exec(`
		INSERT INTO job_runs (id, run_date, schedule, status, started_at)
		SELECT ?, ?, ?, ?, ?
		WHERE NOT EXISTS (
			SELECT 1 FROM job_runs
			WHERE run_date = ? AND schedule = ? AND status = ?
		)
	`, id, key.Date, key.Schedule, RunStatusRunning, time.Now(),
		key.Date, key.Schedule, RunStatusRunning)
	if err != nil {
		return "", fmt.Errorf("failed to register run: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("failed to confirm run registration: %w", err)
	}
	if inserted == 0 {
		return "", fmt.Errorf("%w: %s", ErrRunInProgress, key)
	}

	return id, nil
}

// Complete marks a run successful and records its counts
func (r *JobRepository) Complete(id string, report RunReport) error {
	_, err := r.db.Exec(`
		UPDATE job_runs
		SET status = ?, finished_at = ?,
			articles_processed = ?, tickers_extracted = ?, recommendations_created = ?
		WHERE id = ?
	`, RunStatusCompleted, time.Now(),
		report.ArticlesProcessed, report.TickersExtracted, report.RecommendationsCreated, id)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	return nil
}

// Fail marks a run failed with its message, keeping whatever counts the run
// managed to produce before failing.
func (r *JobRepository) Fail(id string, report RunReport, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}

	_, err := r.db.Exec(`
		UPDATE job_runs
		SET status = ?, finished_at = ?, error = ?,
			articles_processed = ?, tickers_extracted = ?, recommendations_created = ?
		WHERE id = ?
	`, RunStatusFailed, time.Now(), msg,
		report.ArticlesProcessed, report.TickersExtracted, report.RecommendationsCreated, id)
	if err != nil {
		return fmt.Errorf("failed to record run failure: %w", err)
	}
	return nil
}

// Recent returns the latest runs, newest first
func (r *JobRepository) Recent(limit int) ([]JobRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.db.Query(`
		SELECT id, run_date, schedule, status, started_at, finished_at,
			articles_processed, tickers_extracted, recommendations_created, error
		FROM job_runs
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []JobRun
	for rows.Next() {
		var run JobRun
		if err := rows.Scan(
			&run.ID, &run.Key.Date, &run.Key.Schedule, &run.Status,
			&run.StartedAt, &run.FinishedAt,
			&run.ArticlesProcessed, &run.TickersExtracted,
			&run.RecommendationsCreated, &run.Error,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return runs, nil
}
