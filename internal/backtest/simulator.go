package backtest

import (
	"context"
	"time"

	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"
)

// minCashToOpen is the smallest cash balance worth opening a position with.
const minCashToOpen = 100.0

// Config holds the operator-facing parameters of a backtest run.
type Config struct {
	StartDate       time.Time `json:"start_date"`
	EndDate         time.Time `json:"end_date"`
	StartingCapital float64   `json:"starting_capital"`
	HoldDays        int       `json:"hold_days"`
	MaxPositions    int       `json:"max_positions"`
	MinScore        int       `json:"min_score"`
}

// Position is a simulated open holding.
type Position struct {
	StockCode  string    `json:"stock_code"`
	EntryDate  time.Time `json:"entry_date"`
	EntryPrice float64   `json:"entry_price"`
	Shares     int       `json:"shares"`
	Cost       float64   `json:"cost"`
	EntryScore int       `json:"entry_score"`
}

// Trade is a closed simulated position. Immutable once created.
type Trade struct {
	StockCode  string    `json:"stock_code"`
	EntryDate  time.Time `json:"entry_date"`
	ExitDate   time.Time `json:"exit_date"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	Shares     int       `json:"shares"`
	Cost       float64   `json:"cost"`
	Proceeds   float64   `json:"proceeds"`
	PnL        float64   `json:"pnl"`
	PnLPct     float64   `json:"pnl_pct"`
	DaysHeld   int       `json:"days_held"`
	EntryScore int       `json:"entry_score"`
}

// EquityPoint is one daily sample of total portfolio value.
type EquityPoint struct {
	Date          time.Time `json:"date"`
	Value         float64   `json:"value"`
	Cash          float64   `json:"cash"`
	OpenPositions int       `json:"open_positions"`
}

// Result is the full outcome of a backtest run. A run over a partial window
// is still a valid result.
type Result struct {
	Config          Config        `json:"config"`
	Trades          []Trade       `json:"trades"`
	EquityCurve     []EquityPoint `json:"equity_curve"`
	StartingCapital float64       `json:"starting_capital"`
	FinalValue      float64       `json:"final_value"`
	TradingDays     int           `json:"trading_days"`
}

// PortfolioSimulator advances a simulated calendar day by day, opening and
// closing positions under capital and slot constraints. It never goes short,
// never uses margin, and never re-enters a ticker it already holds.
type PortfolioSimulator struct {
	cfg    Config
	repo   Repository
	scorer *PointInTimeScorer
	log    *logger.Logger

	cash      float64
	positions []*Position
	trades    []Trade
	curve     []EquityPoint
}

// NewPortfolioSimulator creates a simulator for one run. A simulator is
// single-use: days must be processed in order against one portfolio state.
func NewPortfolioSimulator(cfg Config, repo Repository, scorer *PointInTimeScorer, log *logger.Logger) *PortfolioSimulator {
	return &PortfolioSimulator{
		cfg:    cfg,
		repo:   repo,
		scorer: scorer,
		log:    log,
		cash:   cfg.StartingCapital,
	}
}

// Run replays the configured window one trading day at a time and returns the
// result. Cancellation stops submitting new days; the partial run up to that
// point is returned as a valid result.
func (s *PortfolioSimulator) Run(ctx context.Context) *Result {
	s.log.Info("Starting backtest",
		logger.StringField("start", s.cfg.StartDate.Format("2006-01-02")),
		logger.StringField("end", s.cfg.EndDate.Format("2006-01-02")),
		logger.Float64Field("capital", s.cfg.StartingCapital),
	)

	tradingDays := 0
	current := utils.DateOnly(s.cfg.StartDate)
	end := utils.DateOnly(s.cfg.EndDate)

	for !current.After(end) {
		if ctx.Err() != nil {
			s.log.Info("Backtest cancelled", logger.StringField("date", current.Format("2006-01-02")))
			break
		}
		if utils.IsWeekend(current) {
			current = current.AddDate(0, 0, 1)
			continue
		}
		tradingDays++

		s.closeExpiredPositions(ctx, current)

		candidates, err := s.scorer.ScoreAsOf(ctx, current)
		if err != nil {
			// A failed scoring day yields no entries but the run goes on.
			s.log.Error("Scoring failed for day", logger.StringField("date", current.Format("2006-01-02")), logger.ErrorField(err))
			candidates = nil
		}

		s.openPositions(current, candidates)

		value := s.portfolioValue(ctx, current)
		s.curve = append(s.curve, EquityPoint{
			Date:          current,
			Value:         value,
			Cash:          s.cash,
			OpenPositions: len(s.positions),
		})

		if tradingDays%10 == 0 {
			s.log.Info("Backtest progress",
				logger.StringField("date", current.Format("2006-01-02")),
				logger.Float64Field("portfolio_value", value),
				logger.IntField("open_positions", len(s.positions)),
			)
		}

		current = current.AddDate(0, 0, 1)
	}

	s.closeAllPositions(ctx, end)

	// Everything is closed by now, so cash is the final portfolio value.
	finalValue := s.cash

	s.log.Info("Backtest complete", logger.IntField("trades", len(s.trades)), logger.IntField("trading_days", tradingDays))

	return &Result{
		Config:          s.cfg,
		Trades:          s.trades,
		EquityCurve:     s.curve,
		StartingCapital: s.cfg.StartingCapital,
		FinalValue:      finalValue,
		TradingDays:     tradingDays,
	}
}

func (s *PortfolioSimulator) holds(stockCode string) bool {
	for _, p := range s.positions {
		if p.StockCode == stockCode {
			return true
		}
	}
	return false
}

func (s *PortfolioSimulator) openPositions(current time.Time, candidates []Candidate) {
	slots := s.cfg.MaxPositions - len(s.positions)
	if slots <= 0 || s.cash < minCashToOpen {
		return
	}

	cashPerSlot := s.cash / float64(slots)

	opened := 0
	for _, c := range candidates {
		if opened >= slots || s.cash < minCashToOpen {
			break
		}
		if c.Score < s.cfg.MinScore || s.holds(c.StockCode) {
			continue
		}

		size := cashPerSlot
		if s.cash < size {
			size = s.cash
		}
		shares := int(size / c.EntryPrice)
		if shares == 0 {
			continue
		}

		cost := float64(shares) * c.EntryPrice
		s.positions = append(s.positions, &Position{
			StockCode:  c.StockCode,
			EntryDate:  current,
			EntryPrice: c.EntryPrice,
			Shares:     shares,
			Cost:       cost,
			EntryScore: c.Score,
		})
		s.cash -= cost
		opened++

		s.log.Debug("Opened position",
			logger.StringField("date", current.Format("2006-01-02")),
			logger.StringField("stock_code", c.StockCode),
			logger.IntField("shares", shares),
			logger.Float64Field("entry_price", c.EntryPrice),
			logger.IntField("score", c.Score),
		)
	}
}

func (s *PortfolioSimulator) closeExpiredPositions(ctx context.Context, current time.Time) {
	var expired []*Position
	for _, p := range s.positions {
		if utils.DaysBetween(p.EntryDate, current) >= s.cfg.HoldDays {
			expired = append(expired, p)
		}
	}
	for _, p := range expired {
		s.closePosition(ctx, p, current)
	}
}

func (s *PortfolioSimulator) closeAllPositions(ctx context.Context, exitDate time.Time) {
	for _, p := range append([]*Position(nil), s.positions...) {
		s.closePosition(ctx, p, exitDate)
	}
}

// closePosition realizes P/L at the exit date's close. When no price exists
// for that date the position exits flat at its entry price.
func (s *PortfolioSimulator) closePosition(ctx context.Context, position *Position, exitDate time.Time) {
	exitPrice := position.EntryPrice
	if p, err := s.repo.GetPriceAt(ctx, position.StockCode, exitDate); err == nil && p != nil {
		exitPrice = p.Close
	}

	proceeds := float64(position.Shares) * exitPrice
	pnl := proceeds - position.Cost
	pnlPct := 0.0
	if position.Cost > 0 {
		pnlPct = (pnl / position.Cost) * 100
	}

	s.trades = append(s.trades, Trade{
		StockCode:  position.StockCode,
		EntryDate:  position.EntryDate,
		ExitDate:   exitDate,
		EntryPrice: position.EntryPrice,
		ExitPrice:  exitPrice,
		Shares:     position.Shares,
		Cost:       position.Cost,
		Proceeds:   proceeds,
		PnL:        pnl,
		PnLPct:     pnlPct,
		DaysHeld:   utils.DaysBetween(position.EntryDate, exitDate),
		EntryScore: position.EntryScore,
	})
	s.cash += proceeds

	for i, open := range s.positions {
		if open == position {
			s.positions = append(s.positions[:i], s.positions[i+1:]...)
			break
		}
	}

	s.log.Debug("Closed position",
		logger.StringField("date", exitDate.Format("2006-01-02")),
		logger.StringField("stock_code", position.StockCode),
		logger.Float64Field("exit_price", exitPrice),
		logger.Float64Field("pnl_pct", pnlPct),
	)
}

func (s *PortfolioSimulator) portfolioValue(ctx context.Context, current time.Time) float64 {
	total := s.cash
	for _, p := range s.positions {
		price := p.EntryPrice
		if rec, err := s.repo.GetPriceAt(ctx, p.StockCode, current); err == nil && rec != nil {
			price = rec.Close
		}
		total += float64(p.Shares) * price
	}
	return total
}
