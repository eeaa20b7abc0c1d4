package entity

import (
	"time"

	"github.com/lib/pq"
)

// Recommendation strategy types.
const (
	StrategyMomentum = "momentum"
	StrategyDip      = "dip"
)

// Recommendation is an issued stock pick with its scoring breakdown.
type Recommendation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	StockCode string    `gorm:"index:idx_recommendation_stock_created;not null" json:"stock_code"`
	CreatedAt time.Time `gorm:"index:idx_recommendation_stock_created;autoCreateTime" json:"created_at"`

	OverallScore     int `gorm:"index;not null" json:"overall_score"`
	TechnicalScore   int `gorm:"not null" json:"technical_score"`
	FundamentalScore int `gorm:"not null" json:"fundamental_score"`
	SentimentScore   int `gorm:"not null" json:"sentiment_score"`

	Signals pq.StringArray `gorm:"type:text[]" json:"signals"`
	Rank    *int           `json:"rank,omitempty"`

	PriceAtRecommendation float64 `gorm:"not null" json:"price_at_recommendation"`
	StrategyType          string  `gorm:"index;not null;default:momentum" json:"strategy_type"`

	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Performance *RecommendationPerformance `gorm:"foreignKey:RecommendationID" json:"performance,omitempty"`
}

func (Recommendation) TableName() string {
	return "recommendations"
}
