package pipeline

import (
	"fmt"
	"time"

	"github.com/pratamalabs/sahamflow/internal/modules/tracker"
)

// Pipeline step numbers. The first CacheableSteps are expensive enough to
// replay from cache on resume; everything after always runs fresh.
const (
	StepCrawl   = 1
	StepExtract = 2
	StepRank    = 3
	StepAnalyze = 4
	StepTrack   = 5
	StepOutlook = 6

	CacheableSteps = 3
)

// RunKey identifies one pipeline execution's cache namespace and idempotency
// scope: one calendar day plus a named schedule slot.
type RunKey struct {
	Date     string `json:"date"` // YYYY-MM-DD
	Schedule string `json:"schedule"`
}

// NewRunKey builds the key for a point in time and schedule slot
func NewRunKey(t time.Time, schedule string) RunKey {
	return RunKey{
		Date:     t.Format("2006-01-02"),
		Schedule: schedule,
	}
}

func (k RunKey) String() string {
	return fmt.Sprintf("%s/%s", k.Date, k.Schedule)
}

// TickerOutcome records how one ranked candidate fared in the analysis step.
// Expected "no data" conditions are outcomes, not thrown errors.
type TickerOutcome struct {
	Symbol string `json:"symbol"`
	Result string `json:"result"` // "recommended", "skipped", "error"
	Reason string `json:"reason,omitempty"`
}

// RunReport is the job-level outcome of one pipeline invocation
type RunReport struct {
	RunID       string `json:"run_id"`
	Key         RunKey `json:"key"`
	ResumedFrom int    `json:"resumed_from"` // first step actually executed

	ArticlesProcessed      int `json:"articles_processed"`
	TickersExtracted       int `json:"tickers_extracted"`
	RecommendationsCreated int `json:"recommendations_created"`

	TickerOutcomes   []TickerOutcome        `json:"ticker_outcomes,omitempty"`
	Tracking         tracker.TrackingReport `json:"tracking"`
	OutlookGenerated bool                   `json:"outlook_generated"`
}
