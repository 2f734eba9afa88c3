package recommendations

import "time"

// Status is the lifecycle state of a recommendation. It only ever advances:
// pending -> entry_hit -> {target_hit, sl_hit, expired}, plus pending -> expired
// when the entry window lapses before filling. Terminal states are immutable.
type Status string

const (
	StatusPending   Status = "pending"
	StatusEntryHit  Status = "entry_hit"
	StatusTargetHit Status = "target_hit"
	StatusSLHit     Status = "sl_hit"
	StatusExpired   Status = "expired"
)

// Terminal reports whether no further transitions are permitted
func (s Status) Terminal() bool {
	switch s {
	case StatusTargetHit, StatusSLHit, StatusExpired:
		return true
	}
	return false
}

// progress orders states so transitions can be checked to never move backward
func (s Status) progress() int {
	switch s {
	case StatusPending:
		return 0
	case StatusEntryHit:
		return 1
	case StatusTargetHit, StatusSLHit, StatusExpired:
		return 2
	}
	return -1
}

// Before reports whether s is strictly earlier in the lifecycle than other
func (s Status) Before(other Status) bool {
	return s.progress() < other.progress()
}

// Scores holds the analysis scores attached to a recommendation
type Scores struct {
	Sentiment   float64 `json:"sentiment"`
	Fundamental float64 `json:"fundamental"`
	Technical   float64 `json:"technical"`
	Overall     float64 `json:"overall"`
}

// Recommendation is a proposed trade with entry/stop/target prices and a
// lifecycle status. Closed positions are kept as history, never deleted.
type Recommendation struct {
	UUID          string     `json:"uuid"`
	Ticker        string     `json:"ticker"`
	RecommendedAt time.Time  `json:"recommended_at"`
	EntryPrice    float64    `json:"entry_price"`
	StopLoss      float64    `json:"stop_loss"`
	TargetPrice   float64    `json:"target_price"`
	MaxHoldDays   int        `json:"max_hold_days"`
	OrderType     string     `json:"order_type"`
	Scores        Scores     `json:"scores"`
	Reason        string     `json:"reason"`
	Status        Status     `json:"status"`
	ExitDate      *time.Time `json:"exit_date,omitempty"`
	ExitPrice     *float64   `json:"exit_price,omitempty"`
	ProfitLossPct *float64   `json:"profit_loss_pct,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// DaysActive returns whole days elapsed since the recommendation date
func (r Recommendation) DaysActive(now time.Time) int {
	return int(now.Sub(r.RecommendedAt).Hours() / 24)
}
