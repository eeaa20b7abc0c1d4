package entity

import (
	"time"

	"github.com/lib/pq"
)

// StockNews represents a news article related to a stock, with the sentiment
// produced by the AI analyzer.
type StockNews struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	StockCode      string         `gorm:"index:idx_news_stock_published;not null" json:"stock_code"`
	Title          string         `gorm:"not null" json:"title"`
	Link           string         `gorm:"unique;not null" json:"link"`
	PublishedAt    *time.Time     `gorm:"index:idx_news_stock_published" json:"published_at,omitempty"`
	RawContent     string         `json:"raw_content"`
	Source         string         `json:"source"`
	HashIdentifier string         `gorm:"unique;not null" json:"hash_identifier"`
	SentimentScore *float64       `json:"sentiment_score,omitempty"` // -1.0 .. 1.0
	SentimentLabel string         `json:"sentiment_label"`           // positive, negative, neutral
	KeyIssue       pq.StringArray `gorm:"type:text[]" json:"key_issue"`
	CreatedAt      time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
}

func (StockNews) TableName() string {
	return "stock_news"
}
