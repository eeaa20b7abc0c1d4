package entity

import (
	"time"

	"gorm.io/datatypes"
)

// Exit signal types.
const (
	SignalTypeProfitTarget   = "profit_target"
	SignalTypeStopLoss       = "stop_loss"
	SignalTypeStopLossNear   = "stop_loss_near"
	SignalTypeReversal       = "reversal"
	SignalTypeSentimentShift = "sentiment_shift"
	SignalTypeTimeExit       = "time_exit"
)

// Exit signal urgency levels.
const (
	UrgencyHigh   = "high"
	UrgencyMedium = "medium"
	UrgencyLow    = "low"
)

// Exit signal status values. At most one pending signal of a given type may
// exist per position at a time.
const (
	SignalStatusPending = "pending"
	SignalStatusActed   = "acted"
	SignalStatusIgnored = "ignored"
	SignalStatusExpired = "expired"
)

// ExitSignal is an advisory alert that a live position meets an exit condition.
type ExitSignal struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	PositionID uint      `gorm:"index:idx_signal_position_status;not null" json:"position_id"`
	SignalDate time.Time `gorm:"index;not null" json:"signal_date"`
	SignalType string    `gorm:"index;not null" json:"signal_type"`

	CurrentPrice float64  `gorm:"not null" json:"current_price"`
	TargetPrice  *float64 `json:"target_price,omitempty"`
	ReturnPct    float64  `json:"return_pct"`

	Reason        string         `json:"reason"`
	TechnicalData datatypes.JSON `gorm:"type:jsonb" json:"technical_data,omitempty"`
	SentimentData datatypes.JSON `gorm:"type:jsonb" json:"sentiment_data,omitempty"`
	Urgency       string         `gorm:"not null;default:medium" json:"urgency"`

	Status     string     `gorm:"index:idx_signal_position_status;not null;default:pending" json:"status"`
	NotifiedAt *time.Time `json:"notified_at,omitempty"`
	ActedAt    *time.Time `json:"acted_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	Position LivePosition `gorm:"foreignKey:PositionID" json:"-"`
}

func (ExitSignal) TableName() string {
	return "exit_signals"
}
