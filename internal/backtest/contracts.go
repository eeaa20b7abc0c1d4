// Package backtest contains the point-in-time scoring and portfolio
// simulation engine. The simulator replays a scoring strategy day by day over
// historical data; no value visible to the scorer on day D may be dated on or
// after D.
package backtest

import (
	"context"
	"time"
)

// PriceRecord is one daily price observation, detached from persistence.
type PriceRecord struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume int64
}

// NewsRecord is one news observation with its analyzed sentiment.
type NewsRecord struct {
	PublishedAt    time.Time
	SentimentScore float64
}

// Repository exposes historical market data. Date ranges are
// inclusive-start/exclusive-end.
type Repository interface {
	GetStocks(ctx context.Context) ([]string, error)
	GetPriceHistory(ctx context.Context, stockCode string, start, end time.Time) ([]PriceRecord, error)
	GetPriceAt(ctx context.Context, stockCode string, date time.Time) (*PriceRecord, error)
	GetNewsInRange(ctx context.Context, stockCode string, start, end time.Time) ([]NewsRecord, error)
}

// Scorer turns a point-in-time data snapshot into a 0-100 score. Every record
// it receives is dated strictly before the as-of date.
type Scorer interface {
	Score(ctx context.Context, stockCode string, asOf time.Time, prices []PriceRecord, news []NewsRecord) (int, error)
}

// BenchmarkProvider returns a benchmark's percentage return over a date range,
// for the alpha comparison.
type BenchmarkProvider interface {
	ReturnOverRange(ctx context.Context, start, end time.Time) (float64, error)
}
