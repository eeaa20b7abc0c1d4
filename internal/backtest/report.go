package backtest

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"golang-stock-advisor/pkg/utils"
)

// RepositoryBenchmark computes a benchmark return from the same price store
// the simulator reads, over the identical date range.
type RepositoryBenchmark struct {
	repo      Repository
	stockCode string
}

// NewRepositoryBenchmark creates a BenchmarkProvider for the given index ticker.
func NewRepositoryBenchmark(repo Repository, stockCode string) *RepositoryBenchmark {
	return &RepositoryBenchmark{repo: repo, stockCode: stockCode}
}

// ReturnOverRange returns the benchmark's close-to-close percentage return
// between start and end. Missing data yields 0, not an error.
func (b *RepositoryBenchmark) ReturnOverRange(ctx context.Context, start, end time.Time) (float64, error) {
	prices, err := b.repo.GetPriceHistory(ctx, b.stockCode, start, end.AddDate(0, 0, 1))
	if err != nil {
		return 0, err
	}
	if len(prices) < 2 {
		return 0, nil
	}
	first := prices[0].Close
	last := prices[len(prices)-1].Close
	if first == 0 {
		return 0, nil
	}
	return (last - first) / first * 100, nil
}

// FormatReport renders the metrics as a plain-text report.
func FormatReport(m Metrics) string {
	var b strings.Builder

	b.WriteString("BACKTEST RESULTS\n")
	b.WriteString("================\n\n")

	fmt.Fprintf(&b, "Starting Capital:   $%.2f\n", m.StartingCapital)
	fmt.Fprintf(&b, "Final Value:        $%.2f\n", m.FinalValue)
	fmt.Fprintf(&b, "Total Return:       $%.2f (%+.2f%%)\n", m.TotalReturn, m.TotalReturnPct)
	fmt.Fprintf(&b, "Benchmark Return:   %+.2f%%\n", m.BenchmarkReturn)
	fmt.Fprintf(&b, "Alpha:              %+.2f%%\n\n", m.Alpha)

	fmt.Fprintf(&b, "Total Trades:       %d (%d wins / %d losses)\n", m.TotalTrades, m.WinningTrades, m.LosingTrades)
	fmt.Fprintf(&b, "Win Rate:           %.1f%%\n", m.WinRate)
	fmt.Fprintf(&b, "Avg Win / Loss:     %+.2f%% / %+.2f%%\n", m.AvgWin, m.AvgLoss)
	fmt.Fprintf(&b, "Avg Trade Return:   %+.2f%%\n", m.AvgTradeReturn)
	fmt.Fprintf(&b, "Avg Days Held:      %.1f\n", m.AvgDaysHeld)
	if m.BestTrade != nil {
		fmt.Fprintf(&b, "Best Trade:         %s %+.2f%%\n", m.BestTrade.StockCode, m.BestTrade.PnLPct)
	}
	if m.WorstTrade != nil {
		fmt.Fprintf(&b, "Worst Trade:        %s %+.2f%%\n", m.WorstTrade.StockCode, m.WorstTrade.PnLPct)
	}
	b.WriteString("\n")

	if math.IsInf(m.ProfitFactor, 1) {
		b.WriteString("Profit Factor:      inf\n")
	} else {
		fmt.Fprintf(&b, "Profit Factor:      %.2f\n", m.ProfitFactor)
	}
	fmt.Fprintf(&b, "Sharpe Ratio:       %.2f\n", m.SharpeRatio)
	fmt.Fprintf(&b, "Sortino Ratio:      %.2f\n", m.SortinoRatio)
	fmt.Fprintf(&b, "Max Drawdown:       %.2f%% (%d days)\n", m.MaxDrawdown, m.MaxDrawdownDuration)
	fmt.Fprintf(&b, "Total Days:         %d\n", m.TotalDays)

	return b.String()
}

// FormatTradeLog renders the closed trades as a plain-text table.
func FormatTradeLog(trades []Trade) string {
	if len(trades) == 0 {
		return "No trades executed.\n"
	}

	var b strings.Builder
	b.WriteString("TRADE LOG\n")
	b.WriteString("=========\n")
	for _, t := range trades {
		fmt.Fprintf(&b, "%s  %-6s  %4d sh  $%8.2f -> $%8.2f  %+7.2f%%  (%dd)\n",
			utils.PrettyDate(t.ExitDate), t.StockCode, t.Shares, t.EntryPrice, t.ExitPrice, t.PnLPct, t.DaysHeld)
	}
	return b.String()
}
