package formulas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturns(t *testing.T) {
	returns := Returns([]float64{100, 110, 99})

	require.Len(t, returns, 2)
	assert.InDelta(t, 0.10, returns[0], 1e-9)
	assert.InDelta(t, -0.10, returns[1], 1e-9)

	assert.Empty(t, Returns([]float64{100}))
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 120, trough 90: drawdown 25%
	dd := MaxDrawdown([]float64{100, 120, 90, 110})
	assert.InDelta(t, 0.25, dd, 1e-9)

	assert.Equal(t, 0.0, MaxDrawdown([]float64{100, 110, 120}))
	assert.Equal(t, 0.0, MaxDrawdown([]float64{100}))
}

func TestRSI_InsufficientData(t *testing.T) {
	assert.Nil(t, RSI([]float64{100, 101, 102}, 14))
}

func TestSMA(t *testing.T) {
	sma := SMA([]float64{1, 2, 3, 4, 5}, 5)
	require.NotNil(t, sma)
	assert.InDelta(t, 3.0, *sma, 1e-9)

	assert.Nil(t, SMA([]float64{1, 2}, 5))
}

func TestSummarize_ShortSeries(t *testing.T) {
	summary := Summarize([]float64{100, 101, 99})

	assert.Nil(t, summary.RSI14)
	assert.Nil(t, summary.SMA20)
	assert.Equal(t, "sideways", summary.Trend)
	assert.Equal(t, 99.0, summary.Support)
	assert.Equal(t, 101.0, summary.Resistance)
}

func TestSummarize_UpTrend(t *testing.T) {
	closes := make([]float64, 60)
	for i := range closes {
		closes[i] = 100 + float64(i) // steadily rising
	}

	summary := Summarize(closes)

	require.NotNil(t, summary.SMA20)
	require.NotNil(t, summary.SMA50)
	assert.Equal(t, "up", summary.Trend)
}
