package formulas

import (
	"github.com/markcheno/go-talib"
)

// TechnicalSummary condenses a price history into the indicators the
// analysis service consumes for one ticker.
type TechnicalSummary struct {
	RSI14                *float64 `json:"rsi_14,omitempty"`
	SMA20                *float64 `json:"sma_20,omitempty"`
	SMA50                *float64 `json:"sma_50,omitempty"`
	Trend                string   `json:"trend"` // "up", "down", "sideways"
	AnnualizedVolatility float64  `json:"annualized_volatility"`
	MaxDrawdownPct       float64  `json:"max_drawdown_pct"`
	Support              float64  `json:"support"`
	Resistance           float64  `json:"resistance"`
}

// Summarize computes the technical summary from closing prices in
// chronological order. Indicators with insufficient data are left nil.
func Summarize(closes []float64) TechnicalSummary {
	summary := TechnicalSummary{
		RSI14:                RSI(closes, 14),
		SMA20:                SMA(closes, 20),
		SMA50:                SMA(closes, 50),
		AnnualizedVolatility: AnnualizedVolatility(Returns(closes)),
		MaxDrawdownPct:       MaxDrawdown(closes) * 100,
	}

	summary.Trend = trend(closes, summary.SMA20, summary.SMA50)

	// Rough support/resistance from the recent trading range.
	window := closes
	if len(window) > 20 {
		window = window[len(window)-20:]
	}
	if len(window) > 0 {
		summary.Support = window[0]
		summary.Resistance = window[0]
		for _, c := range window {
			if c < summary.Support {
				summary.Support = c
			}
			if c > summary.Resistance {
				summary.Resistance = c
			}
		}
	}

	return summary
}

// RSI calculates the Relative Strength Index over the given period,
// or nil with insufficient data.
func RSI(closes []float64, length int) *float64 {
	if len(closes) < length+1 {
		return nil
	}

	rsi := talib.Rsi(closes, length)
	if len(rsi) > 0 && !isNaN(rsi[len(rsi)-1]) {
		result := rsi[len(rsi)-1]
		return &result
	}

	return nil
}

// SMA returns the latest simple moving average over the given period,
// or nil with insufficient data.
func SMA(closes []float64, length int) *float64 {
	if len(closes) < length {
		return nil
	}

	sma := talib.Sma(closes, length)
	if len(sma) > 0 && !isNaN(sma[len(sma)-1]) {
		result := sma[len(sma)-1]
		return &result
	}

	return nil
}

func trend(closes []float64, sma20, sma50 *float64) string {
	if sma20 == nil || sma50 == nil || len(closes) == 0 {
		return "sideways"
	}

	last := closes[len(closes)-1]
	switch {
	case last > *sma20 && *sma20 > *sma50:
		return "up"
	case last < *sma20 && *sma20 < *sma50:
		return "down"
	default:
		return "sideways"
	}
}

func isNaN(f float64) bool {
	return f != f
}
