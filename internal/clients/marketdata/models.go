package marketdata

import "time"

// Quote is a current price snapshot for one symbol
type Quote struct {
	Symbol     string    `json:"symbol"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	MarketTime time.Time `json:"market_time"`
}

// Fundamentals contains the fundamental metrics used for scoring
type Fundamentals struct {
	Symbol        string   `json:"symbol"`
	PERatio       *float64 `json:"pe_ratio,omitempty"`
	PriceToBook   *float64 `json:"price_to_book,omitempty"`
	ROE           *float64 `json:"roe,omitempty"`
	DebtToEquity  *float64 `json:"debt_to_equity,omitempty"`
	ProfitMargin  *float64 `json:"profit_margin,omitempty"`
	RevenueGrowth *float64 `json:"revenue_growth,omitempty"`
	MarketCap     *int64   `json:"market_cap,omitempty"`
	DividendYield *float64 `json:"dividend_yield,omitempty"`
}

// Candle represents a single OHLCV data point
type Candle struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume int64     `json:"volume"`
}

// PriceHistory is a daily OHLCV series for one symbol
type PriceHistory struct {
	Symbol  string   `json:"symbol"`
	Candles []Candle `json:"candles"`
}

// Closes returns the closing prices in chronological order
func (h PriceHistory) Closes() []float64 {
	out := make([]float64, len(h.Candles))
	for i, c := range h.Candles {
		out[i] = c.Close
	}
	return out
}
