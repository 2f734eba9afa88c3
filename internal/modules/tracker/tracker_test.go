package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratamalabs/sahamflow/internal/modules/recommendations"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

func testTracker() *Tracker {
	return New(DefaultPolicy(), logger.New(logger.Config{Level: "error", Pretty: false}))
}

func rec(status recommendations.Status, entry, stop, target float64, maxHoldDays int, recommendedAt time.Time) recommendations.Recommendation {
	return recommendations.Recommendation{
		UUID:          "test",
		Ticker:        "BBCA",
		Status:        status,
		EntryPrice:    entry,
		StopLoss:      stop,
		TargetPrice:   target,
		MaxHoldDays:   maxHoldDays,
		RecommendedAt: recommendedAt,
	}
}

func TestEvaluate_PendingToEntryHit(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	r := rec(recommendations.StatusPending, 9500, 9200, 10200, 14, now.AddDate(0, 0, -2))

	ev := testTracker().Evaluate(r, 9400, now)

	assert.True(t, ev.Changed)
	assert.Equal(t, recommendations.StatusEntryHit, ev.To)
	assert.Nil(t, ev.PnlPct, "entering a position realizes no P&L")
	assert.Nil(t, ev.ExitPrice)
}

func TestEvaluate_EntryHitToTargetHit(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	r := rec(recommendations.StatusEntryHit, 9500, 9200, 10200, 14, now.AddDate(0, 0, -5))

	ev := testTracker().Evaluate(r, 10250, now)

	assert.True(t, ev.Changed)
	assert.Equal(t, recommendations.StatusTargetHit, ev.To)
	require.NotNil(t, ev.PnlPct)
	assert.InDelta(t, 7.89, *ev.PnlPct, 0.01)
	require.NotNil(t, ev.ExitPrice)
	assert.Equal(t, 10250.0, *ev.ExitPrice)
	require.NotNil(t, ev.ExitDate)
	assert.Equal(t, now, *ev.ExitDate)
}

func TestEvaluate_EntryHitToStopLoss(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	r := rec(recommendations.StatusEntryHit, 9500, 9200, 10200, 14, now.AddDate(0, 0, -5))

	ev := testTracker().Evaluate(r, 9150, now)

	assert.True(t, ev.Changed)
	assert.Equal(t, recommendations.StatusSLHit, ev.To)
	require.NotNil(t, ev.PnlPct)
	assert.InDelta(t, -3.68, *ev.PnlPct, 0.01)
}

func TestEvaluate_PendingExpiresWithoutPnl(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	r := rec(recommendations.StatusPending, 9500, 9200, 10200, 14, now.AddDate(0, 0, -15))

	// Price stays above entry so the order never fills.
	ev := testTracker().Evaluate(r, 9600, now)

	assert.True(t, ev.Changed)
	assert.Equal(t, recommendations.StatusExpired, ev.To)
	assert.Nil(t, ev.PnlPct, "a never-entered position has no P&L")
	assert.Nil(t, ev.ExitPrice)
	assert.False(t, ev.Entered)
}

func TestEvaluate_EntryHitExpires(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	r := rec(recommendations.StatusEntryHit, 9500, 9200, 10200, 14, now.AddDate(0, 0, -15))

	ev := testTracker().Evaluate(r, 9550, now)

	assert.True(t, ev.Changed)
	assert.Equal(t, recommendations.StatusExpired, ev.To)
	require.NotNil(t, ev.PnlPct, "an entered position realizes P&L on expiry")
	assert.InDelta(t, 0.526, *ev.PnlPct, 0.01)
}

func TestEvaluate_EntryFillBeatsExpiry(t *testing.T) {
	// A pending order that fills on the same evaluation where the hold window
	// lapses: the fill condition is checked first.
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)
	r := rec(recommendations.StatusPending, 9500, 9200, 10200, 14, now.AddDate(0, 0, -15))

	ev := testTracker().Evaluate(r, 9400, now)

	assert.Equal(t, recommendations.StatusEntryHit, ev.To)
}

func TestEvaluate_TerminalIsAbsorbing(t *testing.T) {
	now := time.Now()
	for _, status := range []recommendations.Status{
		recommendations.StatusTargetHit,
		recommendations.StatusSLHit,
		recommendations.StatusExpired,
	} {
		r := rec(status, 9500, 9200, 10200, 14, now.AddDate(0, 0, -30))
		for _, price := range []float64{1, 9150, 9400, 10250, 99999} {
			ev := testTracker().Evaluate(r, price, now)
			assert.False(t, ev.Changed, "status %s price %.0f", status, price)
			assert.Equal(t, status, ev.To)
		}
	}
}

func TestEvaluate_NeverMovesBackward(t *testing.T) {
	now := time.Now()
	r := rec(recommendations.StatusEntryHit, 9500, 9200, 10200, 14, now.AddDate(0, 0, -2))

	// Price back above entry does not return the position to pending.
	ev := testTracker().Evaluate(r, 9800, now)

	assert.False(t, ev.Changed)
	assert.False(t, ev.To.Before(ev.From))
}

func TestEvaluate_GapPriorityTargetOverStop(t *testing.T) {
	// Degenerate prices where one quote satisfies both exit conditions:
	// the default policy resolves in favor of the target.
	now := time.Now()
	r := rec(recommendations.StatusEntryHit, 9500, 9600, 9400, 14, now.AddDate(0, 0, -2))

	ev := testTracker().Evaluate(r, 9500, now)

	assert.Equal(t, recommendations.StatusTargetHit, ev.To)
}

func TestEvaluate_CustomPolicyStopFirst(t *testing.T) {
	now := time.Now()
	log := logger.New(logger.Config{Level: "error", Pretty: false})
	tr := New(Policy{Checks: []Condition{CondStop, CondTarget, CondExpiry}}, log)

	r := rec(recommendations.StatusEntryHit, 9500, 9600, 9400, 14, now.AddDate(0, 0, -2))

	ev := tr.Evaluate(r, 9500, now)

	assert.Equal(t, recommendations.StatusSLHit, ev.To)
}

func TestRiskRewardRatio(t *testing.T) {
	ratio := RiskRewardRatio(9500, 9200, 10200)
	require.NotNil(t, ratio)
	assert.InDelta(t, 0.4286, *ratio, 0.001)

	// target == entry: undefined, not infinite
	assert.Nil(t, RiskRewardRatio(9500, 9200, 9500))
}

func TestDistancePct(t *testing.T) {
	assert.InDelta(t, 8.51, DistancePct(9400, 10200), 0.01)
	assert.InDelta(t, -2.13, DistancePct(9400, 9200), 0.01)
}

func TestNewTrackedPrediction(t *testing.T) {
	now := time.Date(2024, 1, 20, 10, 0, 0, 0, time.UTC)

	entered := rec(recommendations.StatusEntryHit, 9500, 9200, 10200, 14, now.AddDate(0, 0, -3))
	tp := NewTrackedPrediction(entered, 9700, now)

	assert.Equal(t, 3, tp.DaysActive)
	require.NotNil(t, tp.UnrealizedPnlPct)
	assert.InDelta(t, 2.105, *tp.UnrealizedPnlPct, 0.01)
	require.NotNil(t, tp.RiskRewardRatio)

	pending := rec(recommendations.StatusPending, 9500, 9200, 10200, 14, now.AddDate(0, 0, -1))
	tp = NewTrackedPrediction(pending, 9700, now)

	assert.Nil(t, tp.UnrealizedPnlPct, "unrealized P&L undefined before entry")
}
