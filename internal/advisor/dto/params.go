package dto

import "time"

// GetLivePositionsParam filters live position queries.
type GetLivePositionsParam struct {
	IDs        []uint
	OwnerID    *string
	StockCodes []string
	Statuses   []string
	Limit      int
}

// GetExitSignalsParam filters exit signal queries.
type GetExitSignalsParam struct {
	PositionIDs []uint
	Statuses    []string
	SignalTypes []string
	Since       *time.Time
	Limit       int
}

// GetRecommendationsParam filters recommendation queries.
type GetRecommendationsParam struct {
	StockCodes   []string
	StrategyType *string
	Since        *time.Time
	Limit        int
}

// GetTrackersParam filters recommendation performance tracker queries.
type GetTrackersParam struct {
	RecommendationIDs []uint
	Statuses          []string
	Since             *time.Time
	Limit             int
}
