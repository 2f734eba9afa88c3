package outlook

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles outlook persistence
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new outlook repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "outlooks").Logger(),
	}
}

// Save stores a generated outlook for one run slot
func (r *Repository) Save(runDate, schedule, summary string) error {
	_, err := r.db.Exec(`
		INSERT INTO outlooks (id, run_date, schedule, summary, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.New().String(), runDate, schedule, summary, time.Now())
	if err != nil {
		return fmt.Errorf("failed to save outlook: %w", err)
	}
	return nil
}

// Latest returns the most recently generated outlook, or nil when none exists
func (r *Repository) Latest() (*Outlook, error) {
	var o Outlook
	err := r.db.QueryRow(`
		SELECT id, run_date, schedule, summary, created_at
		FROM outlooks
		ORDER BY created_at DESC
		LIMIT 1
	`).Scan(&o.ID, &o.RunDate, &o.Schedule, &o.Summary, &o.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest outlook: %w", err)
	}
	return &o, nil
}

// ForDate returns every outlook generated on one calendar day, newest first
func (r *Repository) ForDate(runDate string) ([]Outlook, error) {
	rows, err := r.db.Query(`
		SELECT id, run_date, schedule, summary, created_at
		FROM outlooks
		WHERE run_date = ?
		ORDER BY created_at DESC
	`, runDate)
	if err != nil {
		return nil, fmt.Errorf("failed to query outlooks: %w", err)
	}
	defer rows.Close()

	var outlooks []Outlook
	for rows.Next() {
		var o Outlook
		if err := rows.Scan(&o.ID, &o.RunDate, &o.Schedule, &o.Summary, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan outlook: %w", err)
		}
		outlooks = append(outlooks, o)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating outlooks: %w", err)
	}

	return outlooks, nil
}
