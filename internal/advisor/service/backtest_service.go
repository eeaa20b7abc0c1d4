package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/backtest"
	"golang-stock-advisor/internal/marketdata"
	"golang-stock-advisor/internal/scoring"
	"golang-stock-advisor/pkg/logger"
)

// BacktestResult is the full outcome of one backtest run.
type BacktestResult struct {
	Config  backtest.Config       `json:"config"`
	Metrics backtest.Metrics      `json:"metrics"`
	Trades  []backtest.Trade      `json:"trades"`
	Curve   []backtest.EquityPoint `json:"equity_curve"`
	Report  string                `json:"report"`
}

type BacktestService interface {
	Run(ctx context.Context, req dto.RunBacktestRequest) (*BacktestResult, error)
}

type backtestService struct {
	cfg  *config.Config
	log  *logger.Logger
	repo *marketdata.Repository
}

func NewBacktestService(cfg *config.Config, log *logger.Logger, repo *marketdata.Repository) BacktestService {
	return &backtestService{
		cfg:  cfg,
		log:  log,
		repo: repo,
	}
}

func (s *backtestService) Run(ctx context.Context, req dto.RunBacktestRequest) (*BacktestResult, error) {
	startDate, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start_date %q: %w", req.StartDate, err)
	}
	endDate, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end_date %q: %w", req.EndDate, err)
	}
	if !endDate.After(startDate) {
		return nil, fmt.Errorf("end_date must be after start_date")
	}

	simCfg := backtest.Config{
		StartDate:       startDate,
		EndDate:         endDate,
		StartingCapital: s.cfg.Backtest.StartingCapital,
		HoldDays:        s.cfg.Backtest.HoldDays,
		MaxPositions:    s.cfg.Backtest.MaxPositions,
		MinScore:        s.cfg.Backtest.MinScore,
	}
	if req.StartingCapital != nil {
		simCfg.StartingCapital = *req.StartingCapital
	}
	if req.HoldDays != nil {
		simCfg.HoldDays = *req.HoldDays
	}
	if req.MaxPositions != nil {
		simCfg.MaxPositions = *req.MaxPositions
	}
	if req.MinScore != nil {
		simCfg.MinScore = *req.MinScore
	}

	scorer := backtest.NewPointInTimeScorer(s.repo,
		scoring.NewMomentumScorer(s.cfg.Backtest.SentimentWeight),
		s.log,
		backtest.WithMaxConcurrent(s.cfg.Backtest.MaxConcurrentScoring),
	)

	result := backtest.NewPortfolioSimulator(simCfg, s.repo, scorer, s.log).Run(ctx)

	benchmarkReturn := 0.0
	benchmarkCode := s.cfg.Backtest.BenchmarkCode
	if req.BenchmarkCode != nil {
		benchmarkCode = *req.BenchmarkCode
	}
	if benchmarkCode != "" {
		benchmark := backtest.NewRepositoryBenchmark(s.repo, benchmarkCode)
		benchmarkReturn, err = benchmark.ReturnOverRange(ctx, startDate, endDate)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to compute benchmark return, alpha uses 0",
				logger.ErrorField(err), logger.StringField("benchmark", benchmarkCode))
			benchmarkReturn = 0
		}
	}

	metrics := backtest.AnalyzePerformance(result, benchmarkReturn)

	return &BacktestResult{
		Config:  simCfg,
		Metrics: metrics,
		Trades:  result.Trades,
		Curve:   result.EquityCurve,
		Report:  backtest.FormatReport(metrics),
	}, nil
}
