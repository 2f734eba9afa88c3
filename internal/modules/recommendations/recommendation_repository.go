package recommendations

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Repository handles CRUD operations for recommendations
type Repository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRepository creates a new recommendation repository
func NewRepository(db *sql.DB, log zerolog.Logger) *Repository {
	return &Repository{
		db:  db,
		log: log.With().Str("repository", "recommendations").Logger(),
	}
}

// Create appends a new recommendation and returns its UUID
func (r *Repository) Create(rec Recommendation) (string, error) {
	if rec.UUID == "" {
		rec.UUID = uuid.New().String()
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	if rec.OrderType == "" {
		rec.OrderType = "limit"
	}

	now := time.Now()

	_, err := r.db.Exec(`
		INSERT INTO recommendations
		(uuid, ticker, recommended_at, entry_price, stop_loss, target_price,
		 max_hold_days, order_type, sentiment_score, fundamental_score,
		 technical_score, overall_score, reason, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.UUID,
		rec.Ticker,
		rec.RecommendedAt,
		rec.EntryPrice,
		rec.StopLoss,
		rec.TargetPrice,
		rec.MaxHoldDays,
		rec.OrderType,
		rec.Scores.Sentiment,
		rec.Scores.Fundamental,
		rec.Scores.Technical,
		rec.Scores.Overall,
		rec.Reason,
		rec.Status,
		now,
		now,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert recommendation: %w", err)
	}

	return rec.UUID, nil
}

// UpdateStatus persists a lifecycle transition. Exit fields may be nil for
// non-terminal transitions (pending -> entry_hit).
func (r *Repository) UpdateStatus(id string, status Status, exitDate *time.Time, exitPrice, pnlPct *float64) error {
	_, err := r.db.Exec(`
		UPDATE recommendations
		SET status = ?,
			exit_date = ?,
			exit_price = ?,
			profit_loss_pct = ?,
			updated_at = ?
		WHERE uuid = ?
	`, status, exitDate, exitPrice, pnlPct, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to update recommendation status: %w", err)
	}
	return nil
}

// Open returns all recommendations in a non-terminal status
func (r *Repository) Open() ([]Recommendation, error) {
	return r.query(`
		SELECT `+columns+`
		FROM recommendations
		WHERE status IN (?, ?)
		ORDER BY recommended_at ASC, uuid ASC
	`, StatusPending, StatusEntryHit)
}

// ByStatus returns recommendations with the given status, newest first
func (r *Repository) ByStatus(status Status) ([]Recommendation, error) {
	return r.query(`
		SELECT `+columns+`
		FROM recommendations
		WHERE status = ?
		ORDER BY recommended_at DESC
	`, status)
}

// All returns every recommendation, newest first
func (r *Repository) All(limit int) ([]Recommendation, error) {
	if limit <= 0 {
		limit = 100
	}
	return r.query(`
		SELECT `+columns+`
		FROM recommendations
		ORDER BY recommended_at DESC
		LIMIT ?
	`, limit)
}

// ActiveSymbols returns the set of tickers with an open recommendation
func (r *Repository) ActiveSymbols() (map[string]bool, error) {
	rows, err := r.db.Query(`
		SELECT DISTINCT ticker FROM recommendations WHERE status IN (?, ?)
	`, StatusPending, StatusEntryHit)
	if err != nil {
		return nil, fmt.Errorf("failed to query active symbols: %w", err)
	}
	defer rows.Close()

	symbols := make(map[string]bool)
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, fmt.Errorf("failed to scan symbol: %w", err)
		}
		symbols[s] = true
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating symbols: %w", err)
	}

	return symbols, nil
}

// CountCreatedOn returns how many recommendations were created on a calendar day
func (r *Repository) CountCreatedOn(day string) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM recommendations WHERE date(recommended_at) = ?
	`, day).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recommendations: %w", err)
	}
	return count, nil
}

const columns = `uuid, ticker, recommended_at, entry_price, stop_loss, target_price,
	max_hold_days, order_type, sentiment_score, fundamental_score, technical_score,
	overall_score, reason, status, exit_date, exit_price, profit_loss_pct,
	created_at, updated_at`

func (r *Repository) query(q string, args ...interface{}) ([]Recommendation, error) {
	rows, err := r.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recommendations: %w", err)
	}
	defer rows.Close()

	var result []Recommendation
	for rows.Next() {
		rec, err := scanRecommendation(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating recommendations: %w", err)
	}

	return result, nil
}

func scanRecommendation(rows *sql.Rows) (Recommendation, error) {
	var rec Recommendation
	err := rows.Scan(
		&rec.UUID,
		&rec.Ticker,
		&rec.RecommendedAt,
		&rec.EntryPrice,
		&rec.StopLoss,
		&rec.TargetPrice,
		&rec.MaxHoldDays,
		&rec.OrderType,
		&rec.Scores.Sentiment,
		&rec.Scores.Fundamental,
		&rec.Scores.Technical,
		&rec.Scores.Overall,
		&rec.Reason,
		&rec.Status,
		&rec.ExitDate,
		&rec.ExitPrice,
		&rec.ProfitLossPct,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return rec, fmt.Errorf("failed to scan recommendation: %w", err)
	}
	return rec, nil
}
