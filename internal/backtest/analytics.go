package backtest

import (
	"math"
	"time"

	"golang-stock-advisor/pkg/utils"
)

const tradingDaysPerYear = 252

// Metrics holds the performance statistics of a backtest run.
type Metrics struct {
	StartingCapital float64 `json:"starting_capital"`
	FinalValue      float64 `json:"final_value"`
	TotalReturn     float64 `json:"total_return"`
	TotalReturnPct  float64 `json:"total_return_pct"`

	TotalTrades    int     `json:"total_trades"`
	WinningTrades  int     `json:"winning_trades"`
	LosingTrades   int     `json:"losing_trades"`
	WinRate        float64 `json:"win_rate"`
	AvgWin         float64 `json:"avg_win"`
	AvgLoss        float64 `json:"avg_loss"`
	AvgTradeReturn float64 `json:"avg_trade_return"`
	BestTrade      *Trade  `json:"best_trade,omitempty"`
	WorstTrade     *Trade  `json:"worst_trade,omitempty"`

	SharpeRatio         float64 `json:"sharpe_ratio"`
	SortinoRatio        float64 `json:"sortino_ratio"`
	MaxDrawdown         float64 `json:"max_drawdown"`
	MaxDrawdownDuration int     `json:"max_drawdown_duration"`

	BenchmarkReturn float64 `json:"benchmark_return"`
	Alpha           float64 `json:"alpha"`

	ProfitFactor float64 `json:"profit_factor"`
	AvgDaysHeld  float64 `json:"avg_days_held"`
	TotalDays    int     `json:"total_days"`
}

// AnalyzePerformance derives risk and trade-quality statistics from a backtest
// result. It is a pure function of its inputs: every ratio degrades to 0
// rather than NaN when variance or trade count is zero.
func AnalyzePerformance(result *Result, benchmarkReturnPct float64) Metrics {
	m := Metrics{
		StartingCapital: result.StartingCapital,
		FinalValue:      result.StartingCapital,
		BenchmarkReturn: benchmarkReturnPct,
	}

	if len(result.EquityCurve) == 0 {
		m.Alpha = m.TotalReturnPct - benchmarkReturnPct
		return m
	}

	m.FinalValue = result.EquityCurve[len(result.EquityCurve)-1].Value
	m.TotalReturn = m.FinalValue - result.StartingCapital
	if result.StartingCapital > 0 {
		m.TotalReturnPct = (m.TotalReturn / result.StartingCapital) * 100
	}
	m.TotalDays = utils.DaysBetween(result.EquityCurve[0].Date, result.EquityCurve[len(result.EquityCurve)-1].Date)

	analyzeTrades(&m, result.Trades)

	returns := dailyReturns(result.EquityCurve)
	m.SharpeRatio = sharpeRatio(returns, 0)
	m.SortinoRatio = sortinoRatio(returns, 0)
	m.MaxDrawdown = maxDrawdown(result.EquityCurve)
	m.MaxDrawdownDuration = maxDrawdownDuration(result.EquityCurve)
	m.Alpha = m.TotalReturnPct - benchmarkReturnPct

	return m
}

func analyzeTrades(m *Metrics, trades []Trade) {
	m.TotalTrades = len(trades)
	if len(trades) == 0 {
		return
	}

	var winPctSum, lossPctSum, pctSum, daysSum float64
	var grossWins, grossLosses float64
	best, worst := 0, 0

	for i, t := range trades {
		pctSum += t.PnLPct
		daysSum += float64(t.DaysHeld)
		if t.PnL > 0 {
			m.WinningTrades++
			winPctSum += t.PnLPct
			grossWins += t.PnL
		} else {
			m.LosingTrades++
			lossPctSum += t.PnLPct
			grossLosses += -t.PnL
		}
		if t.PnLPct > trades[best].PnLPct {
			best = i
		}
		if t.PnLPct < trades[worst].PnLPct {
			worst = i
		}
	}

	m.WinRate = float64(m.WinningTrades) / float64(len(trades)) * 100
	if m.WinningTrades > 0 {
		m.AvgWin = winPctSum / float64(m.WinningTrades)
	}
	if m.LosingTrades > 0 {
		m.AvgLoss = lossPctSum / float64(m.LosingTrades)
	}
	m.AvgTradeReturn = pctSum / float64(len(trades))
	m.AvgDaysHeld = daysSum / float64(len(trades))
	m.BestTrade = &trades[best]
	m.WorstTrade = &trades[worst]

	switch {
	case grossLosses > 0:
		m.ProfitFactor = grossWins / grossLosses
	case grossWins > 0:
		m.ProfitFactor = math.Inf(1)
	default:
		m.ProfitFactor = 0
	}
}

func dailyReturns(curve []EquityPoint) []float64 {
	if len(curve) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(curve)-1)
	for i := 1; i < len(curve); i++ {
		prev := curve[i-1].Value
		if prev == 0 {
			returns = append(returns, 0)
			continue
		}
		returns = append(returns, (curve[i].Value-prev)/prev)
	}
	return returns
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdDev is the population standard deviation.
func stdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := mean(values)
	var sq float64
	for _, v := range values {
		sq += (v - m) * (v - m)
	}
	return math.Sqrt(sq / float64(len(values)))
}

// sharpeRatio annualizes mean daily excess return over its volatility.
func sharpeRatio(returns []float64, riskFreeRate float64) float64 {
	sd := stdDev(returns)
	if len(returns) == 0 || sd == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / sd * math.Sqrt(tradingDaysPerYear)
}

// sortinoRatio is the Sharpe variant that only penalizes downside volatility.
func sortinoRatio(returns []float64, riskFreeRate float64) float64 {
	if len(returns) == 0 {
		return 0
	}
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}
	sd := stdDev(downside)
	if sd == 0 {
		return 0
	}
	return (mean(returns) - riskFreeRate) / sd * math.Sqrt(tradingDaysPerYear)
}

// maxDrawdown returns the worst peak-to-trough decline as a negative percent.
func maxDrawdown(curve []EquityPoint) float64 {
	if len(curve) == 0 {
		return 0
	}
	peak := curve[0].Value
	maxDD := 0.0
	for _, point := range curve {
		if point.Value > peak {
			peak = point.Value
		}
		if peak == 0 {
			continue
		}
		dd := (point.Value - peak) / peak * 100
		if dd < maxDD {
			maxDD = dd
		}
	}
	return maxDD
}

// maxDrawdownDuration returns the longest drawdown stretch in days.
func maxDrawdownDuration(curve []EquityPoint) int {
	if len(curve) == 0 {
		return 0
	}

	peak := curve[0].Value
	peakDate := curve[0].Date
	var ddStartDate time.Time
	inDrawdown := false
	maxDays := 0

	for i, point := range curve {
		if point.Value > peak {
			if inDrawdown {
				days := utils.DaysBetween(ddStartDate, curve[i].Date)
				if days > maxDays {
					maxDays = days
				}
				inDrawdown = false
			}
			peak = point.Value
			peakDate = point.Date
		} else if point.Value < peak && !inDrawdown {
			inDrawdown = true
			ddStartDate = peakDate
		}
	}

	if inDrawdown {
		days := utils.DaysBetween(ddStartDate, curve[len(curve)-1].Date)
		if days > maxDays {
			maxDays = days
		}
	}
	return maxDays
}
