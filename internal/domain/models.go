package domain

import "time"

// Article is a persisted news article fetched by the crawler.
type Article struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
	PublishedAt time.Time `json:"published_at"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// ExtractedTicker is a single ticker mention extracted from news text.
// Many mentions of the same symbol may exist across articles; Aggregate
// collapses them to one entry per symbol before ranking.
type ExtractedTicker struct {
	Symbol    string  `json:"symbol"`
	Sentiment float64 `json:"sentiment"` // [-1, 1]
	Relevance float64 `json:"relevance"` // [0, 1]
	Reason    string  `json:"reason"`
}

// Aggregate collapses duplicate symbols: sentiment is averaged, relevance
// takes the maximum seen, and the first non-empty reason is kept.
func Aggregate(tickers []ExtractedTicker) []ExtractedTicker {
	type acc struct {
		sum    float64
		count  int
		ticker ExtractedTicker
	}

	bySymbol := make(map[string]*acc)
	var order []string

	for _, t := range tickers {
		a, ok := bySymbol[t.Symbol]
		if !ok {
			a = &acc{ticker: t}
			bySymbol[t.Symbol] = a
			order = append(order, t.Symbol)
		}
		a.sum += t.Sentiment
		a.count++
		if t.Relevance > a.ticker.Relevance {
			a.ticker.Relevance = t.Relevance
		}
		if a.ticker.Reason == "" {
			a.ticker.Reason = t.Reason
		}
	}

	out := make([]ExtractedTicker, 0, len(order))
	for _, sym := range order {
		a := bySymbol[sym]
		t := a.ticker
		t.Sentiment = a.sum / float64(a.count)
		out = append(out, t)
	}

	return out
}
