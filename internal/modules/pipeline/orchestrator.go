package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/clients/llm"
	"github.com/pratamalabs/sahamflow/internal/clients/marketdata"
	"github.com/pratamalabs/sahamflow/internal/crawler"
	"github.com/pratamalabs/sahamflow/internal/domain"
	"github.com/pratamalabs/sahamflow/internal/events"
	"github.com/pratamalabs/sahamflow/internal/modules/recommendations"
	"github.com/pratamalabs/sahamflow/internal/modules/tracker"
	"github.com/pratamalabs/sahamflow/pkg/formulas"
)

// Collaborator contracts. The orchestrator sequences these; their internals
// are irrelevant to the resume and lifecycle semantics.

// Crawler ingests news sources and persists raw articles
type Crawler interface {
	Crawl(ctx context.Context) (crawler.Summary, error)
}

// ArticleSource retrieves persisted articles date-bounded
type ArticleSource interface {
	Recent(since time.Time) ([]domain.Article, error)
}

// AnalysisService is the LLM-backed extraction/scoring collaborator
type AnalysisService interface {
	ExtractTickers(ctx context.Context, articles []domain.Article) (*llm.ExtractionResult, error)
	AnalyzeStock(ctx context.Context, input llm.StockAnalysisInput) (*llm.StockAnalysis, error)
	GenerateOutlook(ctx context.Context, articles []domain.Article, tickers []domain.ExtractedTicker) (string, error)
}

// MarketData fetches quotes, fundamentals and history for one ticker
type MarketData interface {
	GetQuote(symbol string) (*marketdata.Quote, error)
	GetFundamentals(symbol string) (*marketdata.Fundamentals, error)
	GetHistory(symbol, rangeSpec string) (*marketdata.PriceHistory, error)
}

// Ranker filters and orders extracted candidates
type Ranker interface {
	Rank(candidates []domain.ExtractedTicker, openSymbols map[string]bool) []domain.ExtractedTicker
}

// RecommendationStore appends proposals and exposes the open-position set
type RecommendationStore interface {
	Create(rec recommendations.Recommendation) (string, error)
	ActiveSymbols() (map[string]bool, error)
}

// PositionTracker advances open recommendations against fresh prices
type PositionTracker interface {
	TrackAll(now time.Time) (tracker.TrackingReport, error)
}

// OutlookSink persists the best-effort daily outlook
type OutlookSink interface {
	Save(key RunKey, summary string) error
}

// Config wires an Orchestrator
type Config struct {
	Cache    *StepCache
	Jobs     *JobRepository
	Crawler  Crawler
	Articles ArticleSource
	Analysis AnalysisService
	Market   MarketData
	Ranker   Ranker
	Recs     RecommendationStore
	Tracker  PositionTracker
	Outlooks OutlookSink
	Events   *events.Manager
	Clock    Clock

	ArticleLookback       time.Duration
	TickerDelay           time.Duration
	MaxNewRecommendations int

	Log zerolog.Logger
}

// Orchestrator sequences the pipeline steps and implements the resume
// protocol over the step cache.
type Orchestrator struct {
	cache    *StepCache
	jobs     *JobRepository
	crawler  Crawler
	articles ArticleSource
	analysis AnalysisService
	market   MarketData
	ranker   Ranker
	recs     RecommendationStore
	tracker  PositionTracker
	outlooks OutlookSink
	events   *events.Manager
	clock    Clock

	lookback    time.Duration
	tickerDelay time.Duration
	maxNew      int

	log zerolog.Logger
}

// New creates a pipeline orchestrator
func New(cfg Config) *Orchestrator {
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock()
	}
	maxNew := cfg.MaxNewRecommendations
	if maxNew <= 0 {
		maxNew = 3
	}
	lookback := cfg.ArticleLookback
	if lookback <= 0 {
		lookback = 24 * time.Hour
	}

	return &Orchestrator{
		cache:       cfg.Cache,
		jobs:        cfg.Jobs,
		crawler:     cfg.Crawler,
		articles:    cfg.Articles,
		analysis:    cfg.Analysis,
		market:      cfg.Market,
		ranker:      cfg.Ranker,
		recs:        cfg.Recs,
		tracker:     cfg.Tracker,
		outlooks:    cfg.Outlooks,
		events:      cfg.Events,
		clock:       clock,
		lookback:    lookback,
		tickerDelay: cfg.TickerDelay,
		maxNew:      maxNew,
		log:         cfg.Log.With().Str("component", "orchestrator").Logger(),
	}
}

// Run executes one pipeline invocation for the given RunKey. Steps 1..3
// replay from cache when a valid entry exists; steps 4..6 always run fresh.
// On success the RunKey's cache is cleared; on failure it is left intact so
// the next invocation resumes from the incomplete suffix.
func (o *Orchestrator) Run(ctx context.Context, key RunKey, force bool) (*RunReport, error) {
	runID, err := o.jobs.Begin(key, force)
	if err != nil {
		return nil, err
	}
	return o.run(ctx, runID, key)
}

// Trigger registers the run synchronously, so double-invocation guard errors
// reach the caller, then executes it in the background.
func (o *Orchestrator) Trigger(key RunKey, force bool, timeout time.Duration) (string, error) {
	runID, err := o.jobs.Begin(key, force)
	if err != nil {
		return "", err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		if _, err := o.run(ctx, runID, key); err != nil {
			o.log.Error().Err(err).Str("run", key.String()).Msg("Triggered run failed")
		}
	}()

	return runID, nil
}

func (o *Orchestrator) run(ctx context.Context, runID string, key RunKey) (report *RunReport, err error) {
	report = &RunReport{RunID: runID, Key: key}

	// A misbehaving collaborator must fail the job, not the host process.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
			o.recordFailure(runID, report, err)
		}
	}()

	resume := o.cache.ResumePoint(key, CacheableSteps)
	report.ResumedFrom = resume

	o.emit(events.RunStarted, key, nil)
	if resume > 1 {
		o.log.Info().Str("run", key.String()).Int("resume_point", resume).Msg("Resuming from cached progress")
		o.emit(events.RunResumed, key, map[string]interface{}{"resume_point": resume})
	}

	// Step 1: crawl/ingest.
	var crawlSummary crawler.Summary
	if StepCrawl < resume {
		// Entry vanished between the resume query and this read: treat as
		// "ran with zero output" rather than crash.
		o.cache.Get(key, StepCrawl, &crawlSummary)
	} else {
		crawlSummary, err = o.crawler.Crawl(ctx)
		if err != nil {
			err = fmt.Errorf("step %d (crawl): %w", StepCrawl, err)
			o.recordFailure(runID, report, err)
			return report, err
		}
		o.cacheSet(key, StepCrawl, crawlSummary)
	}
	report.ArticlesProcessed = crawlSummary.NewArticles

	// Step 2: extract & aggregate tickers.
	var tickers []domain.ExtractedTicker
	if StepExtract < resume {
		o.cache.Get(key, StepExtract, &tickers)
	} else {
		tickers, err = o.extractTickers(ctx)
		if err != nil {
			err = fmt.Errorf("step %d (extract): %w", StepExtract, err)
			o.recordFailure(runID, report, err)
			return report, err
		}
		o.cacheSet(key, StepExtract, tickers)
	}
	report.TickersExtracted = len(tickers)

	// Step 3: rank candidates.
	var ranked []domain.ExtractedTicker
	if StepRank < resume {
		o.cache.Get(key, StepRank, &ranked)
	} else {
		open, aerr := o.recs.ActiveSymbols()
		if aerr != nil {
			err = fmt.Errorf("step %d (rank): %w", StepRank, aerr)
			o.recordFailure(runID, report, err)
			return report, err
		}
		ranked = o.ranker.Rank(tickers, open)
		o.cacheSet(key, StepRank, ranked)
	}

	// Step 4: per-ticker market analysis. Never cached: market state must be
	// current on every run.
	report.RecommendationsCreated, report.TickerOutcomes = o.analyzeCandidates(ctx, ranked)

	// Step 5: lifecycle tracking over every open recommendation.
	report.Tracking, err = o.tracker.TrackAll(o.clock.Now())
	if err != nil {
		err = fmt.Errorf("step %d (track): %w", StepTrack, err)
		o.recordFailure(runID, report, err)
		return report, err
	}

	// Step 6: best-effort outlook; failure is logged and swallowed.
	report.OutlookGenerated = o.generateOutlook(ctx, key, tickers)

	// Success: forget this run's progress so the next invocation starts fresh.
	if cerr := o.cache.Clear(key); cerr != nil {
		o.log.Warn().Err(cerr).Str("run", key.String()).Msg("Failed to clear step cache after success")
	}
	if cerr := o.jobs.Complete(runID, *report); cerr != nil {
		o.log.Error().Err(cerr).Str("run", key.String()).Msg("Failed to record run completion")
	}

	o.emit(events.RunCompleted, key, map[string]interface{}{
		"articles":        report.ArticlesProcessed,
		"tickers":         report.TickersExtracted,
		"recommendations": report.RecommendationsCreated,
	})

	return report, nil
}

func (o *Orchestrator) extractTickers(ctx context.Context) ([]domain.ExtractedTicker, error) {
	articles, err := o.articles.Recent(o.clock.Now().Add(-o.lookback))
	if err != nil {
		return nil, fmt.Errorf("loading recent articles: %w", err)
	}
	if len(articles) == 0 {
		return nil, nil
	}

	result, err := o.analysis.ExtractTickers(ctx, articles)
	if err != nil {
		return nil, err
	}

	return domain.Aggregate(result.Tickers), nil
}

// analyzeCandidates walks the ranked list in order, stopping once the
// output cap is reached. One bad symbol never aborts the batch.
func (o *Orchestrator) analyzeCandidates(ctx context.Context, ranked []domain.ExtractedTicker) (int, []TickerOutcome) {
	created := 0
	outcomes := make([]TickerOutcome, 0, len(ranked))

	for i, candidate := range ranked {
		if created >= o.maxNew {
			break
		}
		if i > 0 && o.tickerDelay > 0 {
			// Courtesy rate limit toward the market-data service.
			o.clock.Sleep(o.tickerDelay)
		}

		outcome := o.analyzeTicker(ctx, candidate)
		outcomes = append(outcomes, outcome)
		if outcome.Result == "recommended" {
			created++
		}
	}

	return created, outcomes
}

func (o *Orchestrator) analyzeTicker(ctx context.Context, candidate domain.ExtractedTicker) TickerOutcome {
	symbol := candidate.Symbol

	quote, err := o.market.GetQuote(symbol)
	if err != nil {
		if errors.Is(err, marketdata.ErrNoData) {
			return TickerOutcome{Symbol: symbol, Result: "skipped", Reason: "no quote data"}
		}
		o.log.Warn().Err(err).Str("ticker", symbol).Msg("Quote fetch failed")
		return TickerOutcome{Symbol: symbol, Result: "error", Reason: err.Error()}
	}

	input := llm.StockAnalysisInput{
		Ticker:       symbol,
		Sentiment:    candidate.Sentiment,
		Reason:       candidate.Reason,
		CurrentPrice: quote.Price,
	}

	// Fundamentals and history enrich the analysis but are not required.
	if fundamentals, ferr := o.market.GetFundamentals(symbol); ferr == nil {
		input.Fundamentals = fundamentals
	} else if !errors.Is(ferr, marketdata.ErrNoData) {
		o.log.Warn().Err(ferr).Str("ticker", symbol).Msg("Fundamentals fetch failed")
	}
	if history, herr := o.market.GetHistory(symbol, "3mo"); herr == nil {
		summary := formulas.Summarize(history.Closes())
		input.Technical = summary
	} else if !errors.Is(herr, marketdata.ErrNoData) {
		o.log.Warn().Err(herr).Str("ticker", symbol).Msg("History fetch failed")
	}

	analysis, err := o.analysis.AnalyzeStock(ctx, input)
	if err != nil {
		o.log.Warn().Err(err).Str("ticker", symbol).Msg("Analysis failed")
		return TickerOutcome{Symbol: symbol, Result: "error", Reason: err.Error()}
	}
	if analysis == nil {
		return TickerOutcome{Symbol: symbol, Result: "skipped", Reason: "analysis unavailable"}
	}
	if analysis.Action != llm.ActionBuy {
		return TickerOutcome{Symbol: symbol, Result: "skipped", Reason: fmt.Sprintf("action %s", analysis.Action)}
	}

	rec := recommendations.Recommendation{
		Ticker:        symbol,
		RecommendedAt: o.clock.Now(),
		EntryPrice:    analysis.EntryPrice,
		StopLoss:      analysis.StopLoss,
		TargetPrice:   analysis.TargetPrice,
		MaxHoldDays:   analysis.MaxHoldDays,
		OrderType:     "limit",
		Scores: recommendations.Scores{
			Sentiment:   analysis.Scores.Sentiment,
			Fundamental: analysis.Scores.Fundamental,
			Technical:   analysis.Scores.Technical,
			Overall:     analysis.Scores.Overall,
		},
		Reason: analysis.Summary,
		Status: recommendations.StatusPending,
	}

	id, err := o.recs.Create(rec)
	if err != nil {
		o.log.Error().Err(err).Str("ticker", symbol).Msg("Failed to persist recommendation")
		return TickerOutcome{Symbol: symbol, Result: "error", Reason: err.Error()}
	}

	o.emit(events.RecommendationCreated, RunKey{}, map[string]interface{}{
		"ticker": symbol,
		"uuid":   id,
	})

	return TickerOutcome{Symbol: symbol, Result: "recommended"}
}

func (o *Orchestrator) generateOutlook(ctx context.Context, key RunKey, tickers []domain.ExtractedTicker) bool {
	articles, err := o.articles.Recent(o.clock.Now().Add(-o.lookback))
	if err != nil {
		o.log.Warn().Err(err).Msg("Outlook skipped: articles unavailable")
		return false
	}

	summary, err := o.analysis.GenerateOutlook(ctx, articles, tickers)
	if err != nil {
		o.log.Warn().Err(err).Msg("Outlook generation failed")
		return false
	}
	if summary == "" {
		return false
	}

	if err := o.outlooks.Save(key, summary); err != nil {
		o.log.Warn().Err(err).Msg("Failed to persist outlook")
		return false
	}

	o.emit(events.OutlookGenerated, key, nil)
	return true
}

// cacheSet persists a cacheable step output. Cache trouble only costs the
// resume optimization, so it is logged, not propagated.
func (o *Orchestrator) cacheSet(key RunKey, step int, value interface{}) {
	if err := o.cache.Set(key, step, value); err != nil {
		o.log.Warn().Err(err).Str("run", key.String()).Int("step", step).Msg("Failed to cache step output")
	}
}

func (o *Orchestrator) recordFailure(runID string, report *RunReport, cause error) {
	// The cache is deliberately left intact: it is the resume mechanism.
	if err := o.jobs.Fail(runID, *report, cause); err != nil {
		o.log.Error().Err(err).Msg("Failed to record run failure")
	}
	o.emit(events.RunFailed, report.Key, map[string]interface{}{"error": cause.Error()})
}

func (o *Orchestrator) emit(typ events.EventType, key RunKey, data map[string]interface{}) {
	if o.events == nil {
		return
	}
	if data == nil {
		data = map[string]interface{}{}
	}
	if key.Date != "" {
		data["run"] = key.String()
	}
	o.events.Emit("pipeline", typ, data)
}
