package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/domain"
)

// Client talks to the LLM-backed analysis service. Prompting and model
// selection live on the service side; this client only carries the data
// contracts.
type Client struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewClient creates a new analysis service client
func NewClient(baseURL, apiKey string, log zerolog.Logger) *Client {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(2 * time.Minute) // LLM calls are slow

	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}

	return &Client{
		client: client,
		log:    log.With().Str("client", "llm").Logger(),
	}
}

// ExtractTickers asks the service to pull ticker mentions with sentiment and
// relevance out of the given articles.
func (c *Client) ExtractTickers(ctx context.Context, articles []domain.Article) (*ExtractionResult, error) {
	var result ExtractionResult

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{"articles": articles}).
		SetResult(&result).
		Post("/v1/extract-tickers")
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("extraction service returned HTTP %d", res.StatusCode())
	}

	c.log.Debug().
		Int("tickers", len(result.Tickers)).
		Int("articles", result.ArticlesAnalyzed).
		Int64("processing_ms", result.ProcessingTimeMs).
		Msg("Ticker extraction complete")

	return &result, nil
}

// AnalyzeStock scores one candidate. A nil, nil return signals analysis
// failure on the service side: the caller skips the ticker, it is not a crash.
func (c *Client) AnalyzeStock(ctx context.Context, input StockAnalysisInput) (*StockAnalysis, error) {
	var result StockAnalysis

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(input).
		SetResult(&result).
		Post("/v1/analyze-stock")
	if err != nil {
		return nil, fmt.Errorf("analysis request failed: %w", err)
	}
	if res.StatusCode() == 204 {
		// The service could not produce a verdict for this ticker.
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("analysis service returned HTTP %d", res.StatusCode())
	}
	if result.Action == "" {
		return nil, nil
	}

	return &result, nil
}

// GenerateOutlook produces a short market summary from the run's articles and
// aggregated sentiment. Best-effort: callers log and swallow failures.
func (c *Client) GenerateOutlook(ctx context.Context, articles []domain.Article, tickers []domain.ExtractedTicker) (string, error) {
	var result struct {
		Summary string `json:"summary"`
	}

	res, err := c.client.R().
		SetContext(ctx).
		SetBody(map[string]interface{}{
			"articles": articles,
			"tickers":  tickers,
		}).
		SetResult(&result).
		Post("/v1/outlook")
	if err != nil {
		return "", fmt.Errorf("outlook request failed: %w", err)
	}
	if res.IsError() {
		return "", fmt.Errorf("outlook service returned HTTP %d", res.StatusCode())
	}

	return result.Summary, nil
}
