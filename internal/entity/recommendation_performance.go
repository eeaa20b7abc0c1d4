package entity

import "time"

// Performance tracker status values. A tracker is completed irreversibly once
// its 30-day checkpoint is recorded.
const (
	TrackingStatusActive    = "tracking"
	TrackingStatusCompleted = "completed"
)

// RecommendationPerformance tracks how a recommendation's price evolved at
// fixed checkpoints after issuance. Checkpoint fields are written at most once.
type RecommendationPerformance struct {
	ID               uint `gorm:"primaryKey" json:"id"`
	RecommendationID uint `gorm:"uniqueIndex;not null" json:"recommendation_id"`

	EntryDate  time.Time `gorm:"index;not null" json:"entry_date"`
	EntryPrice float64   `gorm:"not null" json:"entry_price"`

	Price1D  *float64 `json:"price_1d,omitempty"`
	Price5D  *float64 `json:"price_5d,omitempty"`
	Price10D *float64 `json:"price_10d,omitempty"`
	Price30D *float64 `json:"price_30d,omitempty"`

	Return1D  *float64 `json:"return_1d,omitempty"`
	Return5D  *float64 `json:"return_5d,omitempty"`
	Return10D *float64 `json:"return_10d,omitempty"`
	Return30D *float64 `json:"return_30d,omitempty"`

	IsWinner1D  *bool `json:"is_winner_1d,omitempty"`
	IsWinner5D  *bool `json:"is_winner_5d,omitempty"`
	IsWinner10D *bool `json:"is_winner_10d,omitempty"`
	IsWinner30D *bool `json:"is_winner_30d,omitempty"`

	PeakPrice  *float64   `json:"peak_price,omitempty"`
	PeakReturn *float64   `json:"peak_return,omitempty"`
	PeakDate   *time.Time `json:"peak_date,omitempty"`

	TroughPrice  *float64   `json:"trough_price,omitempty"`
	TroughReturn *float64   `json:"trough_return,omitempty"`
	TroughDate   *time.Time `json:"trough_date,omitempty"`

	Status      string    `gorm:"index;not null;default:tracking" json:"status"`
	DaysTracked int       `gorm:"not null;default:0" json:"days_tracked"`
	LastChecked time.Time `json:"last_checked"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (RecommendationPerformance) TableName() string {
	return "recommendation_performance"
}
