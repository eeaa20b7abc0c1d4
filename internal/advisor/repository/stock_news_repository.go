package repository

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type StockNewsRepository interface {
	Create(ctx context.Context, news *entity.StockNews) error
	Exists(ctx context.Context, hashIdentifier string) (bool, error)
	GetRecent(ctx context.Context, stockCode string, since time.Time) ([]entity.StockNews, error)
	// GetAverageSentiment averages analyzed sentiment scores for a stock over
	// [from, to). It returns nil when no analyzed news exists in the window.
	GetAverageSentiment(ctx context.Context, stockCode string, from, to time.Time) (*float64, error)
}

type stockNewsRepository struct {
	db *gorm.DB
}

func NewStockNewsRepository(db *gorm.DB) StockNewsRepository {
	return &stockNewsRepository{
		db: db,
	}
}

// HashNewsIdentifier derives the dedupe key for an article from its link.
func HashNewsIdentifier(link string) string {
	sum := sha256.Sum256([]byte(link))
	return hex.EncodeToString(sum[:])
}

func (r *stockNewsRepository) Create(ctx context.Context, news *entity.StockNews) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(news).Error
}

func (r *stockNewsRepository) Exists(ctx context.Context, hashIdentifier string) (bool, error) {
	var news entity.StockNews
	err := r.db.WithContext(ctx).Where("hash_identifier = ?", hashIdentifier).First(&news).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *stockNewsRepository) GetRecent(ctx context.Context, stockCode string, since time.Time) ([]entity.StockNews, error) {
	var news []entity.StockNews
	if err := r.db.WithContext(ctx).
		Where("stock_code = ? AND published_at >= ?", stockCode, since).
		Order("published_at DESC").
		Find(&news).Error; err != nil {
		return nil, err
	}
	return news, nil
}

func (r *stockNewsRepository) GetAverageSentiment(ctx context.Context, stockCode string, from, to time.Time) (*float64, error) {
	var avg *float64
	err := r.db.WithContext(ctx).Model(&entity.StockNews{}).
		Select("AVG(sentiment_score)").
		Where("stock_code = ? AND published_at >= ? AND published_at < ? AND sentiment_score IS NOT NULL", stockCode, from, to).
		Scan(&avg).Error
	if err != nil {
		return nil, err
	}
	return avg, nil
}
