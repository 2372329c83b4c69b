package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAlphaRequiresVolumeBaseline(t *testing.T) {
	_, ok := Alpha(nil)
	assert.False(t, ok)

	_, ok = Alpha(&Quote{Volume: 100000, AvgVolume: 0})
	assert.False(t, ok)
}

func TestAlphaVolumeSurge(t *testing.T) {
	tests := []struct {
		name   string
		volume float64
		want   float64
	}{
		{"flat volume is neutral", 100000, 50},
		{"3x surge saturates", 300000, 85}, // 0.7*1 rescaled
		{"5x is no stronger than 3x", 500000, 85},
		{"dried-up tape leans bearish", 20000, 32.5}, // 0.7*-0.5 rescaled
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Alpha(&Quote{Volume: tt.volume, AvgVolume: 100000, RSI: 50})
			assert.True(t, ok)
			assert.InDelta(t, tt.want, got, 0.01)
		})
	}
}

func TestAlphaRSIBands(t *testing.T) {
	neutral := func(rsi float64) float64 {
		got, ok := Alpha(&Quote{Volume: 100000, AvgVolume: 100000, RSI: rsi})
		assert.True(t, ok)
		return got
	}

	assert.InDelta(t, 50, neutral(50), 0.01, "mid-band RSI is neutral")
	assert.InDelta(t, 50, neutral(0), 0.01, "zero RSI means no history, not oversold")
	assert.Less(t, neutral(85), neutral(50), "overbought argues against chasing")
	assert.Greater(t, neutral(25), neutral(50), "oversold leaves room")
	assert.Less(t, neutral(75), neutral(69), "penalty ramps through the 70s")
}

func TestAlphaBounds(t *testing.T) {
	extremes := []*Quote{
		{Volume: 1000000, AvgVolume: 1000, RSI: 20},
		{Volume: 1, AvgVolume: 1000000, RSI: 95},
	}
	for _, q := range extremes {
		got, ok := Alpha(q)
		assert.True(t, ok)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.LessOrEqual(t, got, 100.0)
	}
}
