package tracker

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/events"
	"github.com/pratamalabs/sahamflow/internal/modules/recommendations"
)

// PriceSource supplies a current price for a ticker. "No data" is an error;
// the service logs it and moves on to the next position.
type PriceSource interface {
	CurrentPrice(symbol string) (float64, error)
}

// RecommendationStore is the slice of the repository the service needs
type RecommendationStore interface {
	Open() ([]recommendations.Recommendation, error)
	UpdateStatus(id string, status recommendations.Status, exitDate *time.Time, exitPrice, pnlPct *float64) error
}

// Service evaluates every open recommendation against fresh prices and
// persists the resulting transitions.
type Service struct {
	repo    RecommendationStore
	prices  PriceSource
	tracker *Tracker
	events  *events.Manager
	log     zerolog.Logger
}

// NewService creates a new tracking service
func NewService(repo RecommendationStore, prices PriceSource, tracker *Tracker, ev *events.Manager, log zerolog.Logger) *Service {
	return &Service{
		repo:    repo,
		prices:  prices,
		tracker: tracker,
		events:  ev,
		log:     log.With().Str("service", "tracker").Logger(),
	}
}

// TrackAll runs one evaluation pass. A price failure for one ticker never
// aborts the batch; the position is simply re-evaluated on the next run.
func (s *Service) TrackAll(now time.Time) (TrackingReport, error) {
	var report TrackingReport

	open, err := s.repo.Open()
	if err != nil {
		return report, err
	}

	for _, rec := range open {
		price, err := s.prices.CurrentPrice(rec.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", rec.Ticker).Msg("Price fetch failed, skipping position")
			report.PriceErrors++
			continue
		}

		report.Evaluated++

		ev := s.tracker.Evaluate(rec, price, now)
		if !ev.Changed {
			continue
		}

		if err := s.repo.UpdateStatus(rec.UUID, ev.To, ev.ExitDate, ev.ExitPrice, ev.PnlPct); err != nil {
			s.log.Error().Err(err).Str("ticker", rec.Ticker).Msg("Failed to persist transition")
			continue
		}

		report.Transitions++

		data := map[string]interface{}{
			"ticker":          rec.Ticker,
			"previous_status": string(ev.From),
			"new_status":      string(ev.To),
		}
		if ev.PnlPct != nil {
			data["pnl_pct"] = *ev.PnlPct
		}
		if s.events != nil {
			s.events.Emit("tracker", events.StatusChanged, data)
		}
	}

	return report, nil
}

// TrackedPredictions returns every open recommendation with derived metrics.
// Positions whose price lookup fails are omitted from the result.
func (s *Service) TrackedPredictions(now time.Time) ([]TrackedPrediction, error) {
	open, err := s.repo.Open()
	if err != nil {
		return nil, err
	}

	var result []TrackedPrediction
	for _, rec := range open {
		price, err := s.prices.CurrentPrice(rec.Ticker)
		if err != nil {
			s.log.Warn().Err(err).Str("ticker", rec.Ticker).Msg("Price fetch failed for prediction view")
			continue
		}
		result = append(result, NewTrackedPrediction(rec, price, now))
	}

	return result, nil
}
