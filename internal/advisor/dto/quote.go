package dto

import "time"

// GetQuoteParam identifies the quote and history window to fetch.
type GetQuoteParam struct {
	StockCode string
	Range     string
	Interval  string
}

// OHLCV is a single price bar from the quote API.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
}

// QuoteData holds the latest market price and recent bars for a stock.
type QuoteData struct {
	StockCode   string    `json:"stock_code"`
	MarketPrice float64   `json:"market_price"`
	OHLCV       []OHLCV   `json:"ohlcv"`
	FetchedAt   time.Time `json:"fetched_at"`
}

// Closes returns the close series of the quote bars.
func (q *QuoteData) Closes() []float64 {
	closes := make([]float64, 0, len(q.OHLCV))
	for _, bar := range q.OHLCV {
		closes = append(closes, bar.Close)
	}
	return closes
}

// Volumes returns the volume series of the quote bars.
func (q *QuoteData) Volumes() []int64 {
	volumes := make([]int64, 0, len(q.OHLCV))
	for _, bar := range q.OHLCV {
		volumes = append(volumes, bar.Volume)
	}
	return volumes
}
