package tracker

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/modules/recommendations"
)

// Condition names one of the checks that can close an entered position.
type Condition string

const (
	CondTarget Condition = "target"
	CondStop   Condition = "stop"
	CondExpiry Condition = "expiry"
)

// Policy fixes the priority among simultaneously-true exit conditions (a price
// gap can satisfy target and stop in the same evaluation). The ordering is
// configurable; DefaultPolicy checks target before stop before time-expiry.
type Policy struct {
	Checks []Condition
}

// DefaultPolicy returns the standard target > stop > expiry ordering
func DefaultPolicy() Policy {
	return Policy{Checks: []Condition{CondTarget, CondStop, CondExpiry}}
}

// Tracker advances recommendations through their lifecycle. It holds no
// state of its own: Evaluate is a pure function of (recommendation,
// current price, now) and the caller persists the result.
type Tracker struct {
	policy Policy
	log    zerolog.Logger
}

// New creates a tracker with the given exit-condition policy
func New(policy Policy, log zerolog.Logger) *Tracker {
	if len(policy.Checks) == 0 {
		policy = DefaultPolicy()
	}
	return &Tracker{
		policy: policy,
		log:    log.With().Str("component", "tracker").Logger(),
	}
}

// Evaluation is the outcome of a single lifecycle evaluation.
//
// PnlPct is set only when the position was actually entered (the origin state
// was entry_hit) and the new state is terminal. A pending -> expired transition
// carries no P&L: the entry price was never paid, so P&L is undefined, not zero.
type Evaluation struct {
	From    recommendations.Status
	To      recommendations.Status
	Changed bool

	Entered   bool       // origin was entry_hit; P&L is defined
	PnlPct    *float64   // nil unless Entered and To is terminal
	ExitPrice *float64   // nil for non-terminal transitions
	ExitDate  *time.Time // nil for non-terminal transitions
}

// Evaluate applies the state machine to one recommendation. Terminal states
// are absorbing: re-evaluation returns Changed=false regardless of price.
func (t *Tracker) Evaluate(rec recommendations.Recommendation, currentPrice float64, now time.Time) Evaluation {
	ev := Evaluation{From: rec.Status, To: rec.Status}

	if rec.Status.Terminal() {
		return ev
	}

	daysActive := rec.DaysActive(now)

	switch rec.Status {
	case recommendations.StatusPending:
		if currentPrice <= rec.EntryPrice {
			ev.To = recommendations.StatusEntryHit
			ev.Changed = true
		} else if daysActive > rec.MaxHoldDays {
			// Entry never filled: expire without P&L.
			ev.To = recommendations.StatusExpired
			ev.Changed = true
			ev.ExitDate = &now
		}

	case recommendations.StatusEntryHit:
		ev.Entered = true
		for _, check := range t.policy.Checks {
			if to, hit := t.check(check, rec, currentPrice, daysActive); hit {
				ev.To = to
				ev.Changed = true
				ev.ExitPrice = &currentPrice
				ev.ExitDate = &now
				pnl := PnlPct(rec.EntryPrice, currentPrice)
				ev.PnlPct = &pnl
				break
			}
		}
	}

	if ev.Changed {
		t.log.Info().
			Str("ticker", rec.Ticker).
			Str("previous_status", string(ev.From)).
			Str("new_status", string(ev.To)).
			Float64("price", currentPrice).
			Msg("Status transition")
	}

	return ev
}

func (t *Tracker) check(cond Condition, rec recommendations.Recommendation, price float64, daysActive int) (recommendations.Status, bool) {
	switch cond {
	case CondTarget:
		if price >= rec.TargetPrice {
			return recommendations.StatusTargetHit, true
		}
	case CondStop:
		if price <= rec.StopLoss {
			return recommendations.StatusSLHit, true
		}
	case CondExpiry:
		if daysActive > rec.MaxHoldDays {
			return recommendations.StatusExpired, true
		}
	}
	return "", false
}

// PnlPct computes realized profit/loss relative to the entry price
func PnlPct(entryPrice, exitPrice float64) float64 {
	return (exitPrice - entryPrice) / entryPrice * 100
}

// DistancePct is the percent move from current required to reach ref
func DistancePct(current, ref float64) float64 {
	return (ref - current) / current * 100
}

// RiskRewardRatio returns (entry-stop)/(target-entry), or nil when the target
// equals the entry (the ratio is undefined, not infinite).
func RiskRewardRatio(entryPrice, stopLoss, targetPrice float64) *float64 {
	reward := targetPrice - entryPrice
	if reward == 0 {
		return nil
	}
	ratio := (entryPrice - stopLoss) / reward
	return &ratio
}
