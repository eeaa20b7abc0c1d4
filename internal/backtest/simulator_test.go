package backtest

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository serves synthetic weekday-only price series from per-stock
// price functions.
type fakeRepository struct {
	stocks  []string
	priceFn map[string]func(time.Time) float64
	news    map[string][]NewsRecord

	historyStart time.Time
}

func (f *fakeRepository) GetStocks(ctx context.Context) ([]string, error) {
	return f.stocks, nil
}

func (f *fakeRepository) GetPriceHistory(ctx context.Context, stockCode string, start, end time.Time) ([]PriceRecord, error) {
	fn, ok := f.priceFn[stockCode]
	if !ok {
		return nil, fmt.Errorf("unknown stock %s", stockCode)
	}
	if !f.historyStart.IsZero() && start.Before(f.historyStart) {
		start = f.historyStart
	}

	var records []PriceRecord
	for d := utils.DateOnly(start); d.Before(utils.DateOnly(end)); d = d.AddDate(0, 0, 1) {
		if utils.IsWeekend(d) {
			continue
		}
		price := fn(d)
		records = append(records, PriceRecord{Date: d, Open: price, High: price, Low: price, Close: price, Volume: 1000})
	}
	return records, nil
}

func (f *fakeRepository) GetPriceAt(ctx context.Context, stockCode string, date time.Time) (*PriceRecord, error) {
	fn, ok := f.priceFn[stockCode]
	if !ok || utils.IsWeekend(date) {
		return nil, nil
	}
	price := fn(utils.DateOnly(date))
	return &PriceRecord{Date: utils.DateOnly(date), Close: price, Volume: 1000}, nil
}

func (f *fakeRepository) GetNewsInRange(ctx context.Context, stockCode string, start, end time.Time) ([]NewsRecord, error) {
	var out []NewsRecord
	for _, n := range f.news[stockCode] {
		if !n.PublishedAt.Before(start) && n.PublishedAt.Before(end) {
			out = append(out, n)
		}
	}
	return out, nil
}

// stubScorer returns a fixed score per stock, optionally only on one date.
type stubScorer struct {
	scores   map[string]int
	errors   map[string]error
	onlyOn   *time.Time
	observed []scoreCall
}

type scoreCall struct {
	stockCode string
	asOf      time.Time
	prices    []PriceRecord
}

func (s *stubScorer) Score(ctx context.Context, stockCode string, asOf time.Time, prices []PriceRecord, news []NewsRecord) (int, error) {
	s.observed = append(s.observed, scoreCall{stockCode: stockCode, asOf: asOf, prices: prices})
	if err, ok := s.errors[stockCode]; ok {
		return 0, err
	}
	if s.onlyOn != nil && !asOf.Equal(*s.onlyOn) {
		return 0, nil
	}
	return s.scores[stockCode], nil
}

func constantPrice(p float64) func(time.Time) float64 {
	return func(time.Time) float64 { return p }
}

// stepPrice returns before until the given date, after from it onward.
func stepPrice(stepDate time.Time, before, after float64) func(time.Time) float64 {
	return func(d time.Time) float64 {
		if d.Before(stepDate) {
			return before
		}
		return after
	}
}

func newTestScorer(repo Repository, scorer Scorer) *PointInTimeScorer {
	return NewPointInTimeScorer(repo, scorer, logger.NewNop(), WithMinDataPoints(1), WithMaxConcurrent(1))
}

func TestSimulatorSingleWinningTrade(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) // Monday
	end := start.AddDate(0, 0, 30)

	repo := &fakeRepository{
		stocks: []string{"AAA"},
		priceFn: map[string]func(time.Time) float64{
			"AAA": stepPrice(start.AddDate(0, 0, 1), 100, 110),
		},
		historyStart: start.AddDate(0, 0, -60),
	}
	scorer := &stubScorer{scores: map[string]int{"AAA": 85}, onlyOn: &start}

	cfg := Config{
		StartDate:       start,
		EndDate:         end,
		StartingCapital: 10000,
		HoldDays:        5,
		MaxPositions:    10,
		MinScore:        70,
	}
	result := NewPortfolioSimulator(cfg, repo, newTestScorer(repo, scorer), logger.NewNop()).Run(context.Background())

	require.Len(t, result.Trades, 1)
	trade := result.Trades[0]
	assert.Equal(t, "AAA", trade.StockCode)
	assert.Equal(t, start, trade.EntryDate)
	assert.Equal(t, 100.0, trade.EntryPrice)
	assert.Equal(t, 110.0, trade.ExitPrice)
	assert.Equal(t, 10, trade.Shares)
	assert.InDelta(t, 10.0, trade.PnLPct, 0.001)
	assert.GreaterOrEqual(t, trade.DaysHeld, cfg.HoldDays)
	assert.Equal(t, 85, trade.EntryScore)

	assert.InDelta(t, 10100.0, result.FinalValue, 0.001)
	assert.Equal(t, 10000.0, result.StartingCapital)
}

func TestSimulatorSkipsWeekends(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC) // Monday
	end := start.AddDate(0, 0, 13)

	repo := &fakeRepository{
		stocks:       []string{"AAA"},
		priceFn:      map[string]func(time.Time) float64{"AAA": constantPrice(100)},
		historyStart: start.AddDate(0, 0, -60),
	}
	scorer := &stubScorer{scores: map[string]int{"AAA": 0}}

	cfg := Config{StartDate: start, EndDate: end, StartingCapital: 10000, HoldDays: 5, MaxPositions: 10, MinScore: 70}
	result := NewPortfolioSimulator(cfg, repo, newTestScorer(repo, scorer), logger.NewNop()).Run(context.Background())

	// Two full weeks spanning 14 calendar days hold 10 trading days.
	assert.Equal(t, 10, result.TradingDays)
	require.Len(t, result.EquityCurve, 10)
	for i, point := range result.EquityCurve {
		assert.False(t, utils.IsWeekend(point.Date), "equity point %d on weekend", i)
		if i > 0 {
			assert.True(t, point.Date.After(result.EquityCurve[i-1].Date), "curve dates must increase")
		}
	}
}

func TestSimulatorRespectsMinScore(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepository{
		stocks:       []string{"AAA"},
		priceFn:      map[string]func(time.Time) float64{"AAA": constantPrice(100)},
		historyStart: start.AddDate(0, 0, -60),
	}
	scorer := &stubScorer{scores: map[string]int{"AAA": 69}}

	cfg := Config{StartDate: start, EndDate: start.AddDate(0, 0, 10), StartingCapital: 10000, HoldDays: 5, MaxPositions: 10, MinScore: 70}
	result := NewPortfolioSimulator(cfg, repo, newTestScorer(repo, scorer), logger.NewNop()).Run(context.Background())

	assert.Empty(t, result.Trades)
	assert.InDelta(t, 10000.0, result.FinalValue, 0.001)
}

func TestSimulatorMaxPositions(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

	stocks := []string{"AAA", "BBB", "CCC", "DDD"}
	priceFn := map[string]func(time.Time) float64{}
	scores := map[string]int{}
	for _, code := range stocks {
		priceFn[code] = constantPrice(100)
		scores[code] = 90
	}

	repo := &fakeRepository{stocks: stocks, priceFn: priceFn, historyStart: start.AddDate(0, 0, -60)}
	scorer := &stubScorer{scores: scores, onlyOn: &start}

	cfg := Config{StartDate: start, EndDate: start.AddDate(0, 0, 10), StartingCapital: 10000, HoldDays: 5, MaxPositions: 2, MinScore: 70}
	result := NewPortfolioSimulator(cfg, repo, newTestScorer(repo, scorer), logger.NewNop()).Run(context.Background())

	assert.Len(t, result.Trades, 2)
	for _, point := range result.EquityCurve {
		assert.LessOrEqual(t, point.OpenPositions, 2)
	}
}

func TestSimulatorNeverReentersHeldTicker(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepository{
		stocks:       []string{"AAA"},
		priceFn:      map[string]func(time.Time) float64{"AAA": constantPrice(100)},
		historyStart: start.AddDate(0, 0, -60),
	}
	// AAA keeps scoring above the threshold every day.
	scorer := &stubScorer{scores: map[string]int{"AAA": 90}}

	cfg := Config{StartDate: start, EndDate: start.AddDate(0, 0, 4), StartingCapital: 10000, HoldDays: 5, MaxPositions: 10, MinScore: 70}
	result := NewPortfolioSimulator(cfg, repo, newTestScorer(repo, scorer), logger.NewNop()).Run(context.Background())

	// One position only, closed by the end-of-run sweep.
	assert.Len(t, result.Trades, 1)
}

func TestSimulatorNoLookahead(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 0, 10)

	// A large price spike exists on every day; if any record dated on or after
	// the scoring day leaks into the snapshot this test fails.
	repo := &fakeRepository{
		stocks:       []string{"AAA"},
		priceFn:      map[string]func(time.Time) float64{"AAA": constantPrice(100)},
		historyStart: start.AddDate(0, 0, -60),
	}
	scorer := &stubScorer{scores: map[string]int{"AAA": 0}}

	cfg := Config{StartDate: start, EndDate: end, StartingCapital: 10000, HoldDays: 5, MaxPositions: 10, MinScore: 70}
	NewPortfolioSimulator(cfg, repo, newTestScorer(repo, scorer), logger.NewNop()).Run(context.Background())

	require.NotEmpty(t, scorer.observed)
	for _, call := range scorer.observed {
		for _, price := range call.prices {
			assert.True(t, price.Date.Before(call.asOf),
				"price dated %s visible to scorer on %s", price.Date.Format("2006-01-02"), call.asOf.Format("2006-01-02"))
		}
	}
}

func TestSimulatorCancelReturnsPartialResult(t *testing.T) {
	start := time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)
	repo := &fakeRepository{
		stocks:       []string{"AAA"},
		priceFn:      map[string]func(time.Time) float64{"AAA": constantPrice(100)},
		historyStart: start.AddDate(0, 0, -60),
	}
	scorer := &stubScorer{scores: map[string]int{"AAA": 90}, onlyOn: &start}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := Config{StartDate: start, EndDate: start.AddDate(0, 0, 30), StartingCapital: 10000, HoldDays: 5, MaxPositions: 10, MinScore: 70}
	result := NewPortfolioSimulator(cfg, repo, newTestScorer(repo, scorer), logger.NewNop()).Run(ctx)

	require.NotNil(t, result)
	assert.Zero(t, result.TradingDays)
	assert.Empty(t, result.EquityCurve)
	assert.InDelta(t, 10000.0, result.FinalValue, 0.001)
}
