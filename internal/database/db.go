package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// Use WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Path returns the database file path
func (db *DB) Path() string {
	return db.path
}

// Migrate creates the schema if it does not exist yet
func (db *DB) Migrate() error {
	for _, stmt := range schema {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS articles (
		id          TEXT PRIMARY KEY,
		source      TEXT NOT NULL,
		title       TEXT NOT NULL,
		url         TEXT NOT NULL UNIQUE,
		summary     TEXT NOT NULL DEFAULT '',
		published_at TIMESTAMP NOT NULL,
		fetched_at  TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_articles_published ON articles(published_at)`,

	`CREATE TABLE IF NOT EXISTS recommendations (
		uuid            TEXT PRIMARY KEY,
		ticker          TEXT NOT NULL,
		recommended_at  TIMESTAMP NOT NULL,
		entry_price     REAL NOT NULL,
		stop_loss       REAL NOT NULL,
		target_price    REAL NOT NULL,
		max_hold_days   INTEGER NOT NULL,
		order_type      TEXT NOT NULL DEFAULT 'limit',
		sentiment_score REAL NOT NULL DEFAULT 0,
		fundamental_score REAL NOT NULL DEFAULT 0,
		technical_score REAL NOT NULL DEFAULT 0,
		overall_score   REAL NOT NULL DEFAULT 0,
		reason          TEXT NOT NULL DEFAULT '',
		status          TEXT NOT NULL DEFAULT 'pending',
		exit_date       TIMESTAMP,
		exit_price      REAL,
		profit_loss_pct REAL,
		created_at      TIMESTAMP NOT NULL,
		updated_at      TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_status ON recommendations(status)`,
	`CREATE INDEX IF NOT EXISTS idx_recommendations_ticker ON recommendations(ticker)`,

	`CREATE TABLE IF NOT EXISTS step_cache (
		run_date  TEXT NOT NULL,
		schedule  TEXT NOT NULL,
		step      INTEGER NOT NULL,
		cached_at TIMESTAMP NOT NULL,
		payload   BLOB NOT NULL,
		PRIMARY KEY (run_date, schedule, step)
	)`,

	`CREATE TABLE IF NOT EXISTS job_runs (
		id          TEXT PRIMARY KEY,
		run_date    TEXT NOT NULL,
		schedule    TEXT NOT NULL,
		status      TEXT NOT NULL,
		started_at  TIMESTAMP NOT NULL,
		finished_at TIMESTAMP,
		articles_processed      INTEGER NOT NULL DEFAULT 0,
		tickers_extracted       INTEGER NOT NULL DEFAULT 0,
		recommendations_created INTEGER NOT NULL DEFAULT 0,
		error       TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS idx_job_runs_key ON job_runs(run_date, schedule)`,

	`CREATE TABLE IF NOT EXISTS outlooks (
		id         TEXT PRIMARY KEY,
		run_date   TEXT NOT NULL,
		schedule   TEXT NOT NULL,
		summary    TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
