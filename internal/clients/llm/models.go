package llm

import "github.com/pratamalabs/sahamflow/internal/domain"

// ExtractionResult is the response of the ticker-extraction call
type ExtractionResult struct {
	Tickers          []domain.ExtractedTicker `json:"tickers"`
	ArticlesAnalyzed int                      `json:"articles_analyzed"`
	ProcessingTimeMs int64                    `json:"processing_time_ms"`
}

// Action is the verdict of a stock analysis
type Action string

const (
	ActionBuy   Action = "BUY"
	ActionHold  Action = "HOLD"
	ActionAvoid Action = "AVOID"
)

// AnalysisScores mirrors the scoring breakdown returned by the service
type AnalysisScores struct {
	Sentiment   float64 `json:"sentiment"`
	Fundamental float64 `json:"fundamental"`
	Technical   float64 `json:"technical"`
	Overall     float64 `json:"overall"`
}

// StockAnalysis is a trade proposal for one ticker. A nil result from
// AnalyzeStock means the analysis failed and the ticker should be skipped.
type StockAnalysis struct {
	Action      Action         `json:"action"`
	EntryPrice  float64        `json:"entry_price"`
	StopLoss    float64        `json:"stop_loss"`
	TargetPrice float64        `json:"target_price"`
	MaxHoldDays int            `json:"max_hold_days"`
	Scores      AnalysisScores `json:"scores"`
	Summary     string         `json:"summary"`
}

// StockAnalysisInput bundles everything the analysis service needs for one ticker
type StockAnalysisInput struct {
	Ticker       string      `json:"ticker"`
	Sentiment    float64     `json:"sentiment"`
	Reason       string      `json:"reason"`
	CurrentPrice float64     `json:"current_price"`
	Fundamentals interface{} `json:"fundamentals,omitempty"`
	Technical    interface{} `json:"technical,omitempty"`
}
