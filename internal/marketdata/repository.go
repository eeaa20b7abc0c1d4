// Package marketdata exposes the stored price and news history behind the
// backtest Repository contract.
package marketdata

import (
	"context"
	"time"

	"golang-stock-advisor/internal/backtest"
	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
)

// Repository reads historical market data from Postgres. All returned values
// are detached value objects; nothing keeps a reference to gorm state.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a market data repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetStocks returns the codes of all active stocks, ordered by code.
func (r *Repository) GetStocks(ctx context.Context) ([]string, error) {
	var codes []string
	err := r.db.WithContext(ctx).
		Model(&entity.Stock{}).
		Where("is_active = ?", true).
		Order("code asc").
		Pluck("code", &codes).Error
	if err != nil {
		return nil, err
	}
	return codes, nil
}

// GetPriceHistory returns daily bars in [start, end), ordered by date.
func (r *Repository) GetPriceHistory(ctx context.Context, stockCode string, start, end time.Time) ([]backtest.PriceRecord, error) {
	var rows []entity.StockPrice
	err := r.db.WithContext(ctx).
		Where("stock_code = ? AND date >= ? AND date < ?", stockCode, start, end).
		Order("date asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]backtest.PriceRecord, len(rows))
	for i, row := range rows {
		records[i] = toPriceRecord(row)
	}
	return records, nil
}

// GetPriceAt returns the bar for the exact date, or nil when absent.
func (r *Repository) GetPriceAt(ctx context.Context, stockCode string, date time.Time) (*backtest.PriceRecord, error) {
	var row entity.StockPrice
	err := r.db.WithContext(ctx).
		Where("stock_code = ? AND date = ?", stockCode, date).
		First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	record := toPriceRecord(row)
	return &record, nil
}

// GetNewsInRange returns analyzed news in [start, end). Articles without a
// sentiment score are skipped.
func (r *Repository) GetNewsInRange(ctx context.Context, stockCode string, start, end time.Time) ([]backtest.NewsRecord, error) {
	var rows []entity.StockNews
	err := r.db.WithContext(ctx).
		Where("stock_code = ? AND published_at >= ? AND published_at < ?", stockCode, start, end).
		Order("published_at asc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]backtest.NewsRecord, 0, len(rows))
	for _, row := range rows {
		if row.SentimentScore == nil || row.PublishedAt == nil {
			continue
		}
		records = append(records, backtest.NewsRecord{
			PublishedAt:    *row.PublishedAt,
			SentimentScore: *row.SentimentScore,
		})
	}
	return records, nil
}

// AverageSentiment returns the mean sentiment over [start, end) and whether
// any scored article exists in the window.
func (r *Repository) AverageSentiment(ctx context.Context, stockCode string, start, end time.Time) (float64, bool, error) {
	news, err := r.GetNewsInRange(ctx, stockCode, start, end)
	if err != nil {
		return 0, false, err
	}
	if len(news) == 0 {
		return 0, false, nil
	}
	sum := 0.0
	for _, n := range news {
		sum += n.SentimentScore
	}
	return sum / float64(len(news)), true, nil
}

func toPriceRecord(row entity.StockPrice) backtest.PriceRecord {
	return backtest.PriceRecord{
		Date:   row.Date,
		Open:   row.Open,
		High:   row.High,
		Low:    row.Low,
		Close:  row.Close,
		Volume: row.Volume,
	}
}
