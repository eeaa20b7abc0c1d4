package dto

import "time"

// ErrorResponse is the error envelope for API responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// BaseResponse is the envelope for all API responses.
type BaseResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// CreatePositionRequest opens a new live position.
type CreatePositionRequest struct {
	OwnerID          string   `json:"owner_id" validate:"required"`
	StockCode        string   `json:"stock_code" validate:"required"`
	RecommendationID *uint    `json:"recommendation_id,omitempty"`
	EntryDate        string   `json:"entry_date" validate:"required"`
	EntryPrice       float64  `json:"entry_price" validate:"required,gt=0"`
	Shares           float64  `json:"shares" validate:"required,gt=0"`
	ProfitTargetPct  *float64 `json:"profit_target_pct,omitempty"`
	StopLossPct      *float64 `json:"stop_loss_pct,omitempty"`
	AlertsEnabled    *bool    `json:"alerts_enabled,omitempty"`
}

// ClosePositionRequest closes a live position.
type ClosePositionRequest struct {
	ExitPrice  float64 `json:"exit_price" validate:"required,gt=0"`
	ExitReason string  `json:"exit_reason"`
}

// CreateRecommendationRequest records a new stock recommendation.
type CreateRecommendationRequest struct {
	StockCode             string   `json:"stock_code" validate:"required"`
	OverallScore          int      `json:"overall_score" validate:"required,gte=0,lte=100"`
	TechnicalScore        int      `json:"technical_score"`
	FundamentalScore      int      `json:"fundamental_score"`
	SentimentScore        int      `json:"sentiment_score"`
	Signals               []string `json:"signals,omitempty"`
	Rank                  *int     `json:"rank,omitempty"`
	PriceAtRecommendation float64  `json:"price_at_recommendation" validate:"required,gt=0"`
	StrategyType          string   `json:"strategy_type"`
}

// SignalActionRequest resolves a pending exit signal.
type SignalActionRequest struct {
	Action string `json:"action" validate:"required,oneof=acted ignored"`
}

// RunBacktestRequest triggers a backtest over stored history.
type RunBacktestRequest struct {
	StartDate       string   `json:"start_date" validate:"required"`
	EndDate         string   `json:"end_date" validate:"required"`
	StartingCapital *float64 `json:"starting_capital,omitempty"`
	HoldDays        *int     `json:"hold_days,omitempty"`
	MaxPositions    *int     `json:"max_positions,omitempty"`
	MinScore        *int     `json:"min_score,omitempty"`
	BenchmarkCode   *string  `json:"benchmark_code,omitempty"`
}

// MonitoringStats summarizes one monitoring pass over live positions.
type MonitoringStats struct {
	PositionsChecked int       `json:"positions_checked"`
	SignalsCreated   int       `json:"signals_created"`
	AlertsSent       int       `json:"alerts_sent"`
	Errors           int       `json:"errors"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
}

// TrackerUpdateStats summarizes one performance tracker update pass.
type TrackerUpdateStats struct {
	TrackersChecked int `json:"trackers_checked"`
	Updated         int `json:"updated"`
	Completed       int `json:"completed"`
	Errors          int `json:"errors"`
}

// CheckpointStats aggregates recommendation outcomes at one checkpoint.
type CheckpointStats struct {
	Checkpoint   string   `json:"checkpoint"`
	StrategyType *string  `json:"strategy_type,omitempty"`
	Total        int      `json:"total"`
	Winners      int      `json:"winners"`
	WinRate      float64  `json:"win_rate"`
	AvgReturnPct float64  `json:"avg_return_pct"`
	BestReturn   *float64 `json:"best_return_pct,omitempty"`
	WorstReturn  *float64 `json:"worst_return_pct,omitempty"`
}
