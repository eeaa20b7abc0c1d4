package backtest

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

func curveOf(values ...float64) []EquityPoint {
	curve := make([]EquityPoint, len(values))
	for i, v := range values {
		curve[i] = EquityPoint{Date: day(i), Value: v}
	}
	return curve
}

func TestAnalyzePerformanceEmptyRun(t *testing.T) {
	result := &Result{StartingCapital: 10000}

	m := AnalyzePerformance(result, 3.5)

	assert.Equal(t, 10000.0, m.StartingCapital)
	assert.Equal(t, 10000.0, m.FinalValue)
	assert.Zero(t, m.TotalReturnPct)
	assert.Zero(t, m.TotalTrades)
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.MaxDrawdown)
	assert.InDelta(t, -3.5, m.Alpha, 0.001)
}

func TestAnalyzePerformanceTotalReturn(t *testing.T) {
	result := &Result{
		StartingCapital: 10000,
		EquityCurve:     curveOf(10000, 10200, 10500, 11000),
	}

	m := AnalyzePerformance(result, 4.0)

	assert.InDelta(t, 11000.0, m.FinalValue, 0.001)
	assert.InDelta(t, 1000.0, m.TotalReturn, 0.001)
	assert.InDelta(t, 10.0, m.TotalReturnPct, 0.001)
	assert.InDelta(t, 6.0, m.Alpha, 0.001)
	assert.Equal(t, 3, m.TotalDays)
}

func TestAnalyzeTradesStatistics(t *testing.T) {
	trades := []Trade{
		{PnL: 200, PnLPct: 10, DaysHeld: 5},
		{PnL: -50, PnLPct: -5, DaysHeld: 7},
		{PnL: 100, PnLPct: 4, DaysHeld: 6},
	}
	result := &Result{
		StartingCapital: 10000,
		EquityCurve:     curveOf(10000, 10250),
		Trades:          trades,
	}

	m := AnalyzePerformance(result, 0)

	assert.Equal(t, 3, m.TotalTrades)
	assert.Equal(t, 2, m.WinningTrades)
	assert.Equal(t, 1, m.LosingTrades)
	assert.InDelta(t, 66.666, m.WinRate, 0.01)
	assert.InDelta(t, 7.0, m.AvgWin, 0.001)
	assert.InDelta(t, -5.0, m.AvgLoss, 0.001)
	assert.InDelta(t, 3.0, m.AvgTradeReturn, 0.001)
	assert.InDelta(t, 6.0, m.AvgDaysHeld, 0.001)
	assert.InDelta(t, 6.0, m.ProfitFactor, 0.001) // 300 gross wins / 50 gross losses

	require.NotNil(t, m.BestTrade)
	assert.InDelta(t, 10.0, m.BestTrade.PnLPct, 0.001)
	require.NotNil(t, m.WorstTrade)
	assert.InDelta(t, -5.0, m.WorstTrade.PnLPct, 0.001)
}

func TestProfitFactorEdgeCases(t *testing.T) {
	t.Run("all winners", func(t *testing.T) {
		result := &Result{
			StartingCapital: 10000,
			EquityCurve:     curveOf(10000, 10300),
			Trades:          []Trade{{PnL: 300, PnLPct: 3}},
		}
		m := AnalyzePerformance(result, 0)
		assert.True(t, math.IsInf(m.ProfitFactor, 1))
	})

	t.Run("all losers", func(t *testing.T) {
		result := &Result{
			StartingCapital: 10000,
			EquityCurve:     curveOf(10000, 9700),
			Trades:          []Trade{{PnL: -300, PnLPct: -3}},
		}
		m := AnalyzePerformance(result, 0)
		assert.Zero(t, m.ProfitFactor)
	})
}

func TestMaxDrawdown(t *testing.T) {
	// Peak 12000, trough 9000: a 25% drawdown.
	result := &Result{
		StartingCapital: 10000,
		EquityCurve:     curveOf(10000, 12000, 11000, 9000, 10500),
	}

	m := AnalyzePerformance(result, 0)

	assert.InDelta(t, -25.0, m.MaxDrawdown, 0.001)
	assert.Greater(t, m.MaxDrawdownDuration, 0)
}

func TestMaxDrawdownFlatCurve(t *testing.T) {
	result := &Result{
		StartingCapital: 10000,
		EquityCurve:     curveOf(10000, 10000, 10000),
	}

	m := AnalyzePerformance(result, 0)

	assert.Zero(t, m.MaxDrawdown)
	assert.Zero(t, m.MaxDrawdownDuration)
	// Zero variance degrades the ratios to zero instead of NaN.
	assert.Zero(t, m.SharpeRatio)
	assert.Zero(t, m.SortinoRatio)
	assert.False(t, math.IsNaN(m.SharpeRatio))
}

func TestSharpeRatioPositiveForSteadyGains(t *testing.T) {
	// Slightly noisy but consistently rising curve.
	result := &Result{
		StartingCapital: 10000,
		EquityCurve:     curveOf(10000, 10100, 10150, 10300, 10320, 10500),
	}

	m := AnalyzePerformance(result, 0)

	assert.Greater(t, m.SharpeRatio, 0.0)
	assert.False(t, math.IsNaN(m.SharpeRatio))
}
