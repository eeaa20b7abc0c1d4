package service

import (
	"context"
	"fmt"
	"time"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/repository"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"
)

// Checkpoint horizons in calendar days since entry.
var checkpointDays = []int{1, 5, 10, 30}

type PerformanceTrackerService interface {
	CreateTracker(ctx context.Context, recommendation *entity.Recommendation) (*entity.RecommendationPerformance, error)
	// UpdateAll refreshes every active tracker with a current price. Failures
	// are isolated per tracker.
	UpdateAll(ctx context.Context) dto.TrackerUpdateStats
	UpdateTracker(ctx context.Context, tracker *entity.RecommendationPerformance, currentPrice float64, now time.Time) (bool, error)
	Stats(ctx context.Context, checkpoint string, since *time.Time, strategyType *string) (*dto.CheckpointStats, error)
}

type performanceTrackerService struct {
	log             *logger.Logger
	performanceRepo repository.PerformanceRepository
	recRepo         repository.RecommendationRepository
	quoteRepo       repository.QuoteRepository
}

func NewPerformanceTrackerService(log *logger.Logger,
	performanceRepo repository.PerformanceRepository,
	recRepo repository.RecommendationRepository,
	quoteRepo repository.QuoteRepository) PerformanceTrackerService {
	return &performanceTrackerService{
		log:             log,
		performanceRepo: performanceRepo,
		recRepo:         recRepo,
		quoteRepo:       quoteRepo,
	}
}

func (s *performanceTrackerService) CreateTracker(ctx context.Context, recommendation *entity.Recommendation) (*entity.RecommendationPerformance, error) {
	tracker := &entity.RecommendationPerformance{
		RecommendationID: recommendation.ID,
		EntryDate:        utils.DateOnly(recommendation.CreatedAt),
		EntryPrice:       recommendation.PriceAtRecommendation,
		Status:           entity.TrackingStatusActive,
		LastChecked:      utils.TimeNowUTC(),
	}
	if err := s.performanceRepo.Create(ctx, tracker); err != nil {
		return nil, err
	}
	return tracker, nil
}

func (s *performanceTrackerService) UpdateAll(ctx context.Context) dto.TrackerUpdateStats {
	stats := dto.TrackerUpdateStats{}

	trackers, err := s.performanceRepo.GetActive(ctx)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get active trackers", logger.ErrorField(err))
		stats.Errors++
		return stats
	}

	now := utils.TimeNowUTC()
	for i := range trackers {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}
		tracker := trackers[i]
		stats.TrackersChecked++

		rec, err := s.recRepo.GetByID(ctx, tracker.RecommendationID)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to get recommendation for tracker",
				logger.ErrorField(err), logger.IntField("tracker_id", int(tracker.ID)))
			stats.Errors++
			continue
		}

		quote, err := s.quoteRepo.GetQuote(ctx, dto.GetQuoteParam{
			StockCode: rec.StockCode,
			Range:     "5d",
			Interval:  "1d",
		})
		if err != nil || quote.MarketPrice == 0 {
			s.log.ErrorContext(ctx, "Failed to get current price for tracker",
				logger.ErrorField(err), logger.StringField("stock_code", rec.StockCode))
			stats.Errors++
			continue
		}

		completed, err := s.UpdateTracker(ctx, &tracker, quote.MarketPrice, now)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to update tracker",
				logger.ErrorField(err), logger.IntField("tracker_id", int(tracker.ID)))
			stats.Errors++
			continue
		}
		stats.Updated++
		if completed {
			stats.Completed++
		}
	}

	s.log.InfoContext(ctx, "Performance tracker update finished",
		logger.IntField("trackers_checked", stats.TrackersChecked),
		logger.IntField("updated", stats.Updated),
		logger.IntField("completed", stats.Completed),
		logger.IntField("errors", stats.Errors),
	)

	return stats
}

// UpdateTracker applies one price observation to a tracker. Checkpoint fields
// are written at most once; peak and trough update on every call. Returns true
// when this update completed the tracker.
func (s *performanceTrackerService) UpdateTracker(ctx context.Context, tracker *entity.RecommendationPerformance, currentPrice float64, now time.Time) (bool, error) {
	if tracker.Status == entity.TrackingStatusCompleted {
		return false, fmt.Errorf("tracker %d is already completed", tracker.ID)
	}
	if tracker.EntryPrice == 0 {
		return false, fmt.Errorf("tracker %d has no entry price", tracker.ID)
	}

	returnPct := ((currentPrice - tracker.EntryPrice) / tracker.EntryPrice) * 100
	daysElapsed := utils.DaysBetween(utils.DateOnly(tracker.EntryDate), utils.DateOnly(now))

	for _, days := range checkpointDays {
		if daysElapsed < days {
			continue
		}
		price, ret, winner := checkpointFields(tracker, days)
		if *price != nil {
			continue
		}
		*price = utils.ToPointer(currentPrice)
		*ret = utils.ToPointer(returnPct)
		*winner = utils.ToPointer(returnPct > 0)
	}

	if tracker.PeakPrice == nil || currentPrice > *tracker.PeakPrice {
		tracker.PeakPrice = utils.ToPointer(currentPrice)
		tracker.PeakReturn = utils.ToPointer(returnPct)
		tracker.PeakDate = utils.ToPointer(utils.DateOnly(now))
	}
	if tracker.TroughPrice == nil || currentPrice < *tracker.TroughPrice {
		tracker.TroughPrice = utils.ToPointer(currentPrice)
		tracker.TroughReturn = utils.ToPointer(returnPct)
		tracker.TroughDate = utils.ToPointer(utils.DateOnly(now))
	}

	tracker.DaysTracked = daysElapsed
	tracker.LastChecked = now

	completed := false
	if tracker.Price30D != nil && tracker.Status == entity.TrackingStatusActive {
		tracker.Status = entity.TrackingStatusCompleted
		completed = true
	}

	if err := s.performanceRepo.Update(ctx, tracker); err != nil {
		return false, err
	}
	return completed, nil
}

func checkpointFields(t *entity.RecommendationPerformance, days int) (**float64, **float64, **bool) {
	switch days {
	case 1:
		return &t.Price1D, &t.Return1D, &t.IsWinner1D
	case 5:
		return &t.Price5D, &t.Return5D, &t.IsWinner5D
	case 10:
		return &t.Price10D, &t.Return10D, &t.IsWinner10D
	default:
		return &t.Price30D, &t.Return30D, &t.IsWinner30D
	}
}

func (s *performanceTrackerService) Stats(ctx context.Context, checkpoint string, since *time.Time, strategyType *string) (*dto.CheckpointStats, error) {
	rows, err := s.performanceRepo.GetForStats(ctx, dto.GetTrackersParam{Since: since}, strategyType)
	if err != nil {
		return nil, err
	}

	stats := &dto.CheckpointStats{
		Checkpoint:   checkpoint,
		StrategyType: strategyType,
	}

	var sumReturn float64
	for i := range rows {
		ret, winner := checkpointValues(&rows[i].RecommendationPerformance, checkpoint)
		if ret == nil || winner == nil {
			continue
		}
		stats.Total++
		sumReturn += *ret
		if *winner {
			stats.Winners++
		}
		if stats.BestReturn == nil || *ret > *stats.BestReturn {
			stats.BestReturn = utils.ToPointer(*ret)
		}
		if stats.WorstReturn == nil || *ret < *stats.WorstReturn {
			stats.WorstReturn = utils.ToPointer(*ret)
		}
	}

	if stats.Total > 0 {
		stats.WinRate = float64(stats.Winners) / float64(stats.Total) * 100
		stats.AvgReturnPct = sumReturn / float64(stats.Total)
	}

	return stats, nil
}

func checkpointValues(t *entity.RecommendationPerformance, checkpoint string) (*float64, *bool) {
	switch checkpoint {
	case "1d":
		return t.Return1D, t.IsWinner1D
	case "5d":
		return t.Return5D, t.IsWinner5D
	case "10d":
		return t.Return10D, t.IsWinner10D
	case "30d":
		return t.Return30D, t.IsWinner30D
	default:
		return nil, nil
	}
}
