package backtest

import (
	"context"
	"sort"
	"sync"
	"time"

	"golang-stock-advisor/pkg/logger"
)

const (
	defaultMinDataPoints     = 30
	defaultPriceLookbackDays = 90
	defaultNewsLookbackDays  = 30
	defaultMaxConcurrent     = 8
)

// Candidate is one scored ticker for a given day.
type Candidate struct {
	StockCode  string  `json:"stock_code"`
	Score      int     `json:"score"`
	EntryPrice float64 `json:"entry_price"`
}

// PointInTimeScorer scores all stocks as of a date using only data dated
// strictly before that date.
type PointInTimeScorer struct {
	repo   Repository
	scorer Scorer
	log    *logger.Logger

	minDataPoints     int
	priceLookbackDays int
	newsLookbackDays  int
	maxConcurrent     int
}

// ScorerOption customizes a PointInTimeScorer.
type ScorerOption func(*PointInTimeScorer)

// WithMinDataPoints sets the minimum price history a ticker needs to be scored.
func WithMinDataPoints(n int) ScorerOption {
	return func(s *PointInTimeScorer) { s.minDataPoints = n }
}

// WithMaxConcurrent bounds the number of tickers scored in parallel per day.
func WithMaxConcurrent(n int) ScorerOption {
	return func(s *PointInTimeScorer) { s.maxConcurrent = n }
}

// NewPointInTimeScorer creates a PointInTimeScorer.
func NewPointInTimeScorer(repo Repository, scorer Scorer, log *logger.Logger, opts ...ScorerOption) *PointInTimeScorer {
	s := &PointInTimeScorer{
		repo:              repo,
		scorer:            scorer,
		log:               log,
		minDataPoints:     defaultMinDataPoints,
		priceLookbackDays: defaultPriceLookbackDays,
		newsLookbackDays:  defaultNewsLookbackDays,
		maxConcurrent:     defaultMaxConcurrent,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ScoreAsOf scores every stock as of targetDate, sorted by score descending.
// Ties keep the repository's stock order. Tickers with insufficient history
// are excluded; a scorer failure for one ticker never aborts the others.
//
// The price and news windows both end exclusively at targetDate, so nothing
// dated on or after the simulated day can influence a score.
func (s *PointInTimeScorer) ScoreAsOf(ctx context.Context, targetDate time.Time) ([]Candidate, error) {
	stocks, err := s.repo.GetStocks(ctx)
	if err != nil {
		return nil, err
	}

	// Scoring independent tickers is read-only, so fan out on a bounded
	// worker pool and merge before anything downstream mutates state.
	results := make([]*Candidate, len(stocks))
	semaphore := make(chan struct{}, s.maxConcurrent)
	var wg sync.WaitGroup

	for i, stockCode := range stocks {
		select {
		case <-ctx.Done():
			s.log.Info("Scoring cancelled", logger.StringField("date", targetDate.Format("2006-01-02")))
			wg.Wait()
			return s.collect(results), nil
		default:
		}

		wg.Add(1)
		semaphore <- struct{}{}
		go func(idx int, code string) {
			defer wg.Done()
			defer func() { <-semaphore }()
			results[idx] = s.scoreStock(ctx, code, targetDate)
		}(i, stockCode)
	}
	wg.Wait()

	candidates := s.collect(results)
	s.log.Debug("Scored stocks",
		logger.StringField("date", targetDate.Format("2006-01-02")),
		logger.IntField("candidates", len(candidates)),
		logger.IntField("universe", len(stocks)),
	)
	return candidates, nil
}

func (s *PointInTimeScorer) collect(results []*Candidate) []Candidate {
	candidates := make([]Candidate, 0, len(results))
	for _, c := range results {
		if c != nil {
			candidates = append(candidates, *c)
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

// scoreStock returns nil when the ticker must be excluded: missing history,
// scorer failure, or no usable entry price. None of these abort the day.
func (s *PointInTimeScorer) scoreStock(ctx context.Context, stockCode string, targetDate time.Time) *Candidate {
	priceStart := targetDate.AddDate(0, 0, -s.priceLookbackDays)
	prices, err := s.repo.GetPriceHistory(ctx, stockCode, priceStart, targetDate)
	if err != nil {
		s.log.Debug("Failed to load price history", logger.StringField("stock_code", stockCode), logger.ErrorField(err))
		return nil
	}
	if len(prices) < s.minDataPoints {
		return nil
	}

	newsStart := targetDate.AddDate(0, 0, -s.newsLookbackDays)
	news, err := s.repo.GetNewsInRange(ctx, stockCode, newsStart, targetDate)
	if err != nil {
		s.log.Debug("Failed to load news", logger.StringField("stock_code", stockCode), logger.ErrorField(err))
		news = nil
	}

	score, err := s.scorer.Score(ctx, stockCode, targetDate, prices, news)
	if err != nil {
		s.log.Debug("Scorer failed", logger.StringField("stock_code", stockCode), logger.ErrorField(err))
		return nil
	}

	// The scoring cutoff excludes targetDate, but the simulator needs a
	// transactable price for the day itself when one exists.
	entryPrice := prices[len(prices)-1].Close
	if p, err := s.repo.GetPriceAt(ctx, stockCode, targetDate); err == nil && p != nil {
		entryPrice = p.Close
	}
	if entryPrice <= 0 {
		return nil
	}

	return &Candidate{StockCode: stockCode, Score: score, EntryPrice: entryPrice}
}
