package ta

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRSI(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		period int
		want   float64
		delta  float64
	}{
		{
			name:   "not enough data returns neutral",
			closes: []float64{100, 101, 102},
			period: 14,
			want:   50,
			delta:  0.001,
		},
		{
			name:   "all gains returns 100",
			closes: []float64{100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113, 114},
			period: 14,
			want:   100,
			delta:  0.001,
		},
		{
			name:   "all losses returns 0",
			closes: []float64{114, 113, 112, 111, 110, 109, 108, 107, 106, 105, 104, 103, 102, 101, 100},
			period: 14,
			want:   0,
			delta:  0.001,
		},
		{
			name:   "equal gains and losses returns 50",
			closes: []float64{100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100, 101, 100},
			period: 14,
			want:   50,
			delta:  0.001,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, RSI(tt.closes, tt.period), tt.delta)
		})
	}
}

func TestSMA(t *testing.T) {
	assert.Equal(t, 0.0, SMA(nil, 5))
	assert.InDelta(t, 20.0, SMA([]float64{10, 20, 30}, 5), 0.001)
	assert.InDelta(t, 25.0, SMA([]float64{10, 20, 30, 20, 30}, 2), 0.001)
}

func TestEMA(t *testing.T) {
	assert.Equal(t, 0.0, EMA(nil, 5))
	assert.InDelta(t, 100.0, EMA([]float64{100, 100, 100}, 5), 0.001)

	// EMA of a rising series lands between the first and last close,
	// closer to the recent end.
	ema := EMA([]float64{100, 110, 120, 130}, 3)
	assert.Greater(t, ema, 115.0)
	assert.Less(t, ema, 130.0)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 0.001)
}

func TestHasLowerHighs(t *testing.T) {
	tests := []struct {
		name   string
		closes []float64
		want   bool
	}{
		{
			name:   "too short",
			closes: []float64{100, 99, 98},
			want:   false,
		},
		{
			name:   "steady decline",
			closes: []float64{110, 108, 106, 104, 102, 100, 98, 96},
			want:   true,
		},
		{
			name:   "steady rise",
			closes: []float64{96, 98, 100, 102, 104, 106, 108, 110},
			want:   false,
		},
		{
			name:   "flat series",
			closes: []float64{100, 100, 100, 100, 100, 100},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasLowerHighs(tt.closes))
		})
	}
}

func TestTotalReturn(t *testing.T) {
	assert.Equal(t, 0.0, TotalReturn([]float64{100, 110}, 10))
	assert.InDelta(t, 0.1, TotalReturn([]float64{100, 102, 104, 106, 108, 110, 108, 106, 108, 109, 110}, 10), 0.001)
	assert.Equal(t, 0.0, TotalReturn([]float64{0, 100}, 1))
}
