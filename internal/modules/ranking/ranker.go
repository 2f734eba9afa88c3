package ranking

import (
	"sort"

	"github.com/rs/zerolog"

	"github.com/pratamalabs/sahamflow/internal/domain"
)

const (
	// DefaultSentimentThreshold filters out neutral and negative mentions
	DefaultSentimentThreshold = 0.2
	// DefaultTopK caps how many candidates move on to market analysis
	DefaultTopK = 10
)

// Ranker filters and orders extracted ticker candidates
type Ranker struct {
	SentimentThreshold float64
	TopK               int
	log                zerolog.Logger
}

// NewRanker creates a ranker with default tuning
func NewRanker(log zerolog.Logger) *Ranker {
	return &Ranker{
		SentimentThreshold: DefaultSentimentThreshold,
		TopK:               DefaultTopK,
		log:                log.With().Str("component", "ranker").Logger(),
	}
}

// Rank filters candidates below the sentiment threshold, drops symbols that
// already have an open position, and orders by relevance descending with
// sentiment descending as the tie-break. An empty result is valid.
func (r *Ranker) Rank(candidates []domain.ExtractedTicker, openSymbols map[string]bool) []domain.ExtractedTicker {
	filtered := make([]domain.ExtractedTicker, 0, len(candidates))
	for _, c := range candidates {
		if c.Sentiment <= r.SentimentThreshold {
			continue
		}
		if openSymbols[c.Symbol] {
			r.log.Debug().Str("ticker", c.Symbol).Msg("Skipping ticker with open position")
			continue
		}
		filtered = append(filtered, c)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		if filtered[i].Relevance != filtered[j].Relevance {
			return filtered[i].Relevance > filtered[j].Relevance
		}
		return filtered[i].Sentiment > filtered[j].Sentiment
	})

	if len(filtered) > r.TopK {
		filtered = filtered[:r.TopK]
	}

	return filtered
}
