package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAggregateCollapsesDuplicates(t *testing.T) {
	in := []ExtractedTicker{
		{Symbol: "BBCA", Sentiment: 0.6, Relevance: 0.5, Reason: "earnings"},
		{Symbol: "TLKM", Sentiment: 0.4, Relevance: 0.7, Reason: "tender"},
		{Symbol: "BBCA", Sentiment: 0.8, Relevance: 0.9, Reason: "dividend"},
		{Symbol: "BBCA", Sentiment: 0.1, Relevance: 0.2},
	}

	out := Aggregate(in)
	assert.Len(t, out, 2)

	// First-seen order is preserved.
	bbca := out[0]
	assert.Equal(t, "BBCA", bbca.Symbol)
	assert.InDelta(t, 0.5, bbca.Sentiment, 1e-9) // mean of 0.6, 0.8, 0.1
	assert.Equal(t, 0.9, bbca.Relevance)         // max seen
	assert.Equal(t, "earnings", bbca.Reason)     // first non-empty kept

	assert.Equal(t, "TLKM", out[1].Symbol)
	assert.Equal(t, 0.4, out[1].Sentiment)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Empty(t, Aggregate(nil))
}
