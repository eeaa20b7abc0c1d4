package entity

import "time"

// Live position status values. A position moves open -> alerted on its first
// pending exit signal, and reaches closed only through an explicit close.
const (
	PositionStatusOpen    = "open"
	PositionStatusAlerted = "alerted"
	PositionStatusClosed  = "closed"
)

// LivePosition is a real holding owned by a user, monitored for exit signals.
type LivePosition struct {
	ID               uint       `gorm:"primaryKey" json:"id"`
	OwnerID          string     `gorm:"index:idx_position_owner_status;not null" json:"owner_id"`
	StockCode        string     `gorm:"index;not null" json:"stock_code"`
	RecommendationID *uint      `json:"recommendation_id,omitempty"`
	EntryDate        time.Time  `gorm:"index;not null" json:"entry_date"`
	EntryPrice       float64    `gorm:"not null" json:"entry_price"`
	Shares           float64    `gorm:"not null" json:"shares"`
	EntryValue       float64    `gorm:"not null" json:"entry_value"`

	ProfitTargetPrice *float64 `json:"profit_target_price,omitempty"`
	ProfitTargetPct   *float64 `json:"profit_target_pct,omitempty"`
	StopLossPrice     *float64 `json:"stop_loss_price,omitempty"`
	StopLossPct       *float64 `json:"stop_loss_pct,omitempty"`

	Status string `gorm:"index:idx_position_owner_status;not null;default:open" json:"status"`

	ExitDate   *time.Time `json:"exit_date,omitempty"`
	ExitPrice  *float64   `json:"exit_price,omitempty"`
	ExitValue  *float64   `json:"exit_value,omitempty"`
	ExitReason string     `json:"exit_reason,omitempty"`
	ProfitLoss *float64   `json:"profit_loss,omitempty"`
	ReturnPct  *float64   `json:"return_pct,omitempty"`

	AlertsEnabled bool `gorm:"not null;default:true" json:"alerts_enabled"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	ExitSignals []ExitSignal `gorm:"foreignKey:PositionID" json:"exit_signals,omitempty"`
}

func (LivePosition) TableName() string {
	return "live_positions"
}

// CurrentReturnPct returns the percentage return of the position at the given price.
func (p *LivePosition) CurrentReturnPct(currentPrice float64) float64 {
	if p.EntryPrice == 0 {
		return 0
	}
	return ((currentPrice - p.EntryPrice) / p.EntryPrice) * 100
}
