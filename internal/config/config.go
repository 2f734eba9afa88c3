package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	Port         int
	DevMode      bool
	LogLevel     string
	DatabasePath string

	// News crawling
	NewsFeeds        []string
	ArticleLookback  time.Duration // how far back "recent articles" reaches
	CrawlTimeout     time.Duration

	// Analysis service (LLM-backed extraction/scoring)
	AnalysisServiceURL string
	AnalysisAPIKey     string

	// Market data
	MarketDataBaseURL string

	// Pipeline tuning
	StepCacheTTL          time.Duration
	MaxNewRecommendations int
	TickerDelay           time.Duration // courtesy delay between per-ticker lookups
	MorningCron           string
	EveningCron           string

	// Backup (optional)
	BackupCron     string
	BackupS3Bucket string
	BackupS3Region string
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8080),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		DatabasePath: getEnv("DATABASE_PATH", "./data/sahamflow.db"),

		NewsFeeds:       getEnvAsList("NEWS_FEEDS", defaultFeeds),
		ArticleLookback: getEnvAsDuration("ARTICLE_LOOKBACK", 24*time.Hour),
		CrawlTimeout:    getEnvAsDuration("CRAWL_TIMEOUT", 30*time.Second),

		AnalysisServiceURL: getEnv("ANALYSIS_SERVICE_URL", "http://localhost:8090"),
		AnalysisAPIKey:     getEnv("ANALYSIS_API_KEY", ""),

		MarketDataBaseURL: getEnv("MARKET_DATA_URL", "https://query1.finance.yahoo.com"),

		StepCacheTTL:          getEnvAsDuration("STEP_CACHE_TTL", time.Hour),
		MaxNewRecommendations: getEnvAsInt("MAX_NEW_RECOMMENDATIONS", 3),
		TickerDelay:           getEnvAsDuration("TICKER_DELAY", 2*time.Second),
		MorningCron:           getEnv("MORNING_CRON", "0 0 9 * * MON-FRI"),
		EveningCron:           getEnv("EVENING_CRON", "0 0 18 * * MON-FRI"),

		BackupCron:     getEnv("BACKUP_CRON", "0 30 2 * * *"),
		BackupS3Bucket: getEnv("BACKUP_S3_BUCKET", ""),
		BackupS3Region: getEnv("BACKUP_S3_REGION", "ap-southeast-1"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

var defaultFeeds = []string{
	"https://www.cnbcindonesia.com/market/rss",
	"https://investasi.kontan.co.id/rss",
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.AnalysisServiceURL == "" {
		return fmt.Errorf("ANALYSIS_SERVICE_URL is required")
	}
	if c.StepCacheTTL <= 0 {
		return fmt.Errorf("STEP_CACHE_TTL must be positive")
	}
	if c.MaxNewRecommendations <= 0 {
		return fmt.Errorf("MAX_NEW_RECOMMENDATIONS must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
