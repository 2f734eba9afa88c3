package tracker

import (
	"time"

	"github.com/pratamalabs/sahamflow/internal/modules/recommendations"
)

// TrackedPrediction is a recommendation joined with live derived metrics.
// It is recomputed on every read and never persisted.
type TrackedPrediction struct {
	recommendations.Recommendation

	CurrentPrice        float64  `json:"current_price"`
	DaysActive          int      `json:"days_active"`
	UnrealizedPnlPct    *float64 `json:"unrealized_pnl_pct,omitempty"`
	DistanceToEntryPct  float64  `json:"distance_to_entry_pct"`
	DistanceToTargetPct float64  `json:"distance_to_target_pct"`
	DistanceToSLPct     float64  `json:"distance_to_sl_pct"`
	RiskRewardRatio     *float64 `json:"risk_reward_ratio,omitempty"`
}

// NewTrackedPrediction computes derived metrics for one recommendation.
// Unrealized P&L is only defined once the position has been entered.
func NewTrackedPrediction(rec recommendations.Recommendation, currentPrice float64, now time.Time) TrackedPrediction {
	tp := TrackedPrediction{
		Recommendation:      rec,
		CurrentPrice:        currentPrice,
		DaysActive:          rec.DaysActive(now),
		DistanceToEntryPct:  DistancePct(currentPrice, rec.EntryPrice),
		DistanceToTargetPct: DistancePct(currentPrice, rec.TargetPrice),
		DistanceToSLPct:     DistancePct(currentPrice, rec.StopLoss),
		RiskRewardRatio:     RiskRewardRatio(rec.EntryPrice, rec.StopLoss, rec.TargetPrice),
	}

	if rec.Status == recommendations.StatusEntryHit {
		pnl := PnlPct(rec.EntryPrice, currentPrice)
		tp.UnrealizedPnlPct = &pnl
	}

	return tp
}

// TrackingReport summarizes one pass over the open recommendations
type TrackingReport struct {
	Evaluated   int `json:"evaluated"`
	Transitions int `json:"transitions"`
	PriceErrors int `json:"price_errors"`
}
