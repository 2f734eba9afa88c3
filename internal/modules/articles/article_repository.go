package articles

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/domain"
)

// ArticleRepository handles article database operations
type ArticleRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewArticleRepository creates a new article repository
func NewArticleRepository(db *sql.DB, log zerolog.Logger) *ArticleRepository {
	return &ArticleRepository{
		db:  db,
		log: log.With().Str("repository", "articles").Logger(),
	}
}

// Save inserts an article, ignoring duplicates by URL.
// Returns true when the article was actually inserted.
func (r *ArticleRepository) Save(article domain.Article) (bool, error) {
	if article.ID == "" {
		article.ID = uuid.New().String()
	}
	if article.FetchedAt.IsZero() {
		article.FetchedAt = time.Now()
	}

	res, err := r.db.Exec(`
		INSERT OR IGNORE INTO articles
		(id, source, title, url, summary, published_at, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		article.ID,
		article.Source,
		article.Title,
		article.URL,
		article.Summary,
		article.PublishedAt,
		article.FetchedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert article: %w", err)
	}

	inserted, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read insert result: %w", err)
	}

	return inserted > 0, nil
}

// Recent returns articles published since the given time, newest first
func (r *ArticleRepository) Recent(since time.Time) ([]domain.Article, error) {
	rows, err := r.db.Query(`
		SELECT id, source, title, url, summary, published_at, fetched_at
		FROM articles
		WHERE published_at >= ?
		ORDER BY published_at DESC
	`, since)
	if err != nil {
		return nil, fmt.Errorf("failed to query articles: %w", err)
	}
	defer rows.Close()

	var result []domain.Article
	for rows.Next() {
		var a domain.Article
		if err := rows.Scan(&a.ID, &a.Source, &a.Title, &a.URL, &a.Summary, &a.PublishedAt, &a.FetchedAt); err != nil {
			return nil, fmt.Errorf("failed to scan article: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating articles: %w", err)
	}

	return result, nil
}
