// Package scoring provides the built-in momentum scorer used when no external
// model is configured.
package scoring

import (
	"context"
	"fmt"
	"time"

	"golang-stock-advisor/internal/backtest"
	"golang-stock-advisor/pkg/ta"
)

// MomentumScorer scores a stock from its recent return. The 10-day return is
// mapped linearly so that a flat stock scores 50 and +/-100% saturates the
// scale. News sentiment nudges the score by up to sentimentWeight points.
type MomentumScorer struct {
	sentimentWeight float64
}

// NewMomentumScorer creates a MomentumScorer. sentimentWeight 0 disables the
// news adjustment.
func NewMomentumScorer(sentimentWeight float64) *MomentumScorer {
	return &MomentumScorer{sentimentWeight: sentimentWeight}
}

// Score implements backtest.Scorer.
func (s *MomentumScorer) Score(_ context.Context, stockCode string, _ time.Time, prices []backtest.PriceRecord, news []backtest.NewsRecord) (int, error) {
	if len(prices) < 11 {
		return 0, fmt.Errorf("not enough price history for %s: got %d", stockCode, len(prices))
	}

	closes := make([]float64, len(prices))
	for i, p := range prices {
		closes[i] = p.Close
	}

	return10d := ta.TotalReturn(closes, 10)
	score := (return10d + 1) * 50

	if s.sentimentWeight > 0 && len(news) > 0 {
		sentiments := make([]float64, len(news))
		for i, n := range news {
			sentiments[i] = n.SentimentScore
		}
		score += ta.Mean(sentiments) * s.sentimentWeight
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return int(score), nil
}
