package ranking

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pratamalabs/sahamflow/internal/domain"
	"github.com/pratamalabs/sahamflow/pkg/logger"
)

func testRanker() *Ranker {
	return NewRanker(logger.New(logger.Config{Level: "error", Pretty: false}))
}

func TestRank_ExcludesOpenPositions(t *testing.T) {
	r := testRanker()

	candidates := []domain.ExtractedTicker{
		{Symbol: "BBCA", Relevance: 0.8, Sentiment: 0.5},
		{Symbol: "TLKM", Relevance: 0.9, Sentiment: 0.3},
		{Symbol: "ADRO", Relevance: 0.95, Sentiment: 0.9},
	}
	open := map[string]bool{"ADRO": true}

	ranked := r.Rank(candidates, open)

	// ADRO is excluded despite the top score; TLKM outranks BBCA on relevance.
	assert.Len(t, ranked, 2)
	assert.Equal(t, "TLKM", ranked[0].Symbol)
	assert.Equal(t, "BBCA", ranked[1].Symbol)
}

func TestRank_SentimentThreshold(t *testing.T) {
	r := testRanker()

	candidates := []domain.ExtractedTicker{
		{Symbol: "BBRI", Relevance: 0.9, Sentiment: 0.2},  // at threshold, excluded
		{Symbol: "BMRI", Relevance: 0.5, Sentiment: 0.21}, // just above, included
		{Symbol: "ASII", Relevance: 0.9, Sentiment: -0.4},
	}

	ranked := r.Rank(candidates, nil)

	assert.Len(t, ranked, 1)
	assert.Equal(t, "BMRI", ranked[0].Symbol)
}

func TestRank_TieBreakBySentiment(t *testing.T) {
	r := testRanker()

	candidates := []domain.ExtractedTicker{
		{Symbol: "UNVR", Relevance: 0.7, Sentiment: 0.3},
		{Symbol: "ICBP", Relevance: 0.7, Sentiment: 0.6},
		{Symbol: "GGRM", Relevance: 0.7, Sentiment: 0.4},
	}

	ranked := r.Rank(candidates, nil)

	assert.Equal(t, []string{"ICBP", "GGRM", "UNVR"}, symbols(ranked))
}

func TestRank_CapsAtTopK(t *testing.T) {
	r := testRanker()
	r.TopK = 2

	candidates := []domain.ExtractedTicker{
		{Symbol: "A", Relevance: 0.9, Sentiment: 0.5},
		{Symbol: "B", Relevance: 0.8, Sentiment: 0.5},
		{Symbol: "C", Relevance: 0.7, Sentiment: 0.5},
	}

	ranked := r.Rank(candidates, nil)

	assert.Equal(t, []string{"A", "B"}, symbols(ranked))
}

func TestRank_EmptyInputIsValid(t *testing.T) {
	r := testRanker()

	ranked := r.Rank(nil, nil)

	assert.Empty(t, ranked)
}

func symbols(tickers []domain.ExtractedTicker) []string {
	out := make([]string, len(tickers))
	for i, t := range tickers {
		out[i] = t.Symbol
	}
	return out
}
