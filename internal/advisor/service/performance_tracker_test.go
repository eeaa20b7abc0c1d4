package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/repository"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePerformanceRepo struct {
	trackers map[uint]*entity.RecommendationPerformance
	rows     []repository.TrackerWithStrategy
	updates  int
}

func newFakePerformanceRepo() *fakePerformanceRepo {
	return &fakePerformanceRepo{trackers: map[uint]*entity.RecommendationPerformance{}}
}

func (f *fakePerformanceRepo) Get(ctx context.Context, param dto.GetTrackersParam) ([]entity.RecommendationPerformance, error) {
	return nil, nil
}

func (f *fakePerformanceRepo) GetByID(ctx context.Context, id uint) (*entity.RecommendationPerformance, error) {
	t, ok := f.trackers[id]
	if !ok {
		return nil, fmt.Errorf("tracker %d not found", id)
	}
	return t, nil
}

func (f *fakePerformanceRepo) GetActive(ctx context.Context) ([]entity.RecommendationPerformance, error) {
	var active []entity.RecommendationPerformance
	for _, t := range f.trackers {
		if t.Status == entity.TrackingStatusActive {
			active = append(active, *t)
		}
	}
	return active, nil
}

func (f *fakePerformanceRepo) Create(ctx context.Context, tracker *entity.RecommendationPerformance) error {
	tracker.ID = uint(len(f.trackers) + 1)
	f.trackers[tracker.ID] = tracker
	return nil
}

func (f *fakePerformanceRepo) Update(ctx context.Context, tracker *entity.RecommendationPerformance) error {
	f.updates++
	f.trackers[tracker.ID] = tracker
	return nil
}

func (f *fakePerformanceRepo) GetForStats(ctx context.Context, param dto.GetTrackersParam, strategyType *string) ([]repository.TrackerWithStrategy, error) {
	if strategyType == nil {
		return f.rows, nil
	}
	var filtered []repository.TrackerWithStrategy
	for _, row := range f.rows {
		if row.StrategyType == *strategyType {
			filtered = append(filtered, row)
		}
	}
	return filtered, nil
}

func newTestTracker(entryDate time.Time, entryPrice float64) *entity.RecommendationPerformance {
	return &entity.RecommendationPerformance{
		ID:               1,
		RecommendationID: 1,
		EntryDate:        entryDate,
		EntryPrice:       entryPrice,
		Status:           entity.TrackingStatusActive,
	}
}

func newTrackerService(repo *fakePerformanceRepo) *performanceTrackerService {
	return &performanceTrackerService{
		log:             logger.NewNop(),
		performanceRepo: repo,
	}
}

func TestUpdateTrackerCheckpoints(t *testing.T) {
	ctx := context.Background()
	entryDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	tracker := newTestTracker(entryDate, 100)

	// Day 1: only the 1d checkpoint is due.
	completed, err := svc.UpdateTracker(ctx, tracker, 102, entryDate.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.False(t, completed)
	require.NotNil(t, tracker.Price1D)
	assert.Equal(t, 102.0, *tracker.Price1D)
	assert.InDelta(t, 2.0, *tracker.Return1D, 0.001)
	assert.True(t, *tracker.IsWinner1D)
	assert.Nil(t, tracker.Price5D)
	assert.Nil(t, tracker.Price30D)
	assert.Equal(t, 1, tracker.DaysTracked)
}

func TestUpdateTrackerCheckpointWriteOnce(t *testing.T) {
	ctx := context.Background()
	entryDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	tracker := newTestTracker(entryDate, 100)

	_, err := svc.UpdateTracker(ctx, tracker, 102, entryDate.AddDate(0, 0, 1))
	require.NoError(t, err)

	// A later update must not rewrite the already recorded 1d checkpoint.
	_, err = svc.UpdateTracker(ctx, tracker, 95, entryDate.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 102.0, *tracker.Price1D)
	assert.InDelta(t, 2.0, *tracker.Return1D, 0.001)
	assert.True(t, *tracker.IsWinner1D)
}

func TestUpdateTrackerBackfillsMissedCheckpoints(t *testing.T) {
	ctx := context.Background()
	entryDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	tracker := newTestTracker(entryDate, 100)

	// First observation arrives on day 12: 1d, 5d and 10d all get the same
	// price since no earlier observation exists.
	completed, err := svc.UpdateTracker(ctx, tracker, 108, entryDate.AddDate(0, 0, 12))
	require.NoError(t, err)
	assert.False(t, completed)
	assert.Equal(t, 108.0, *tracker.Price1D)
	assert.Equal(t, 108.0, *tracker.Price5D)
	assert.Equal(t, 108.0, *tracker.Price10D)
	assert.Nil(t, tracker.Price30D)
}

func TestUpdateTrackerCompletion(t *testing.T) {
	ctx := context.Background()
	entryDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	tracker := newTestTracker(entryDate, 100)

	completed, err := svc.UpdateTracker(ctx, tracker, 112, entryDate.AddDate(0, 0, 30))
	require.NoError(t, err)
	assert.True(t, completed)
	assert.Equal(t, entity.TrackingStatusCompleted, tracker.Status)
	require.NotNil(t, tracker.Price30D)
	assert.Equal(t, 112.0, *tracker.Price30D)
	assert.True(t, *tracker.IsWinner30D)

	// A completed tracker rejects further updates.
	_, err = svc.UpdateTracker(ctx, tracker, 120, entryDate.AddDate(0, 0, 31))
	assert.Error(t, err)
}

func TestUpdateTrackerPeakAndTrough(t *testing.T) {
	ctx := context.Background()
	entryDate := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	tracker := newTestTracker(entryDate, 100)

	prices := []struct {
		day   int
		price float64
	}{
		{1, 105},
		{2, 98},
		{3, 110},
		{4, 104},
	}
	for _, p := range prices {
		_, err := svc.UpdateTracker(ctx, tracker, p.price, entryDate.AddDate(0, 0, p.day))
		require.NoError(t, err)
	}

	require.NotNil(t, tracker.PeakPrice)
	assert.Equal(t, 110.0, *tracker.PeakPrice)
	assert.InDelta(t, 10.0, *tracker.PeakReturn, 0.001)
	require.NotNil(t, tracker.TroughPrice)
	assert.Equal(t, 98.0, *tracker.TroughPrice)
	assert.InDelta(t, -2.0, *tracker.TroughReturn, 0.001)
}

func TestUpdateTrackerRejectsZeroEntryPrice(t *testing.T) {
	ctx := context.Background()
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	tracker := newTestTracker(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), 0)

	_, err := svc.UpdateTracker(ctx, tracker, 100, time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC))
	assert.Error(t, err)
}

func TestTrackerStats(t *testing.T) {
	ctx := context.Background()
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	row := func(strategy string, return5d float64) repository.TrackerWithStrategy {
		return repository.TrackerWithStrategy{
			RecommendationPerformance: entity.RecommendationPerformance{
				Return5D:   utils.ToPointer(return5d),
				IsWinner5D: utils.ToPointer(return5d > 0),
			},
			StrategyType: strategy,
		}
	}
	repo.rows = []repository.TrackerWithStrategy{
		row(entity.StrategyMomentum, 8.0),
		row(entity.StrategyMomentum, -4.0),
		row(entity.StrategyDip, 2.0),
		// Tracker without a recorded 5d checkpoint is excluded from stats.
		{RecommendationPerformance: entity.RecommendationPerformance{}, StrategyType: entity.StrategyMomentum},
	}

	stats, err := svc.Stats(ctx, "5d", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 2, stats.Winners)
	assert.InDelta(t, 66.666, stats.WinRate, 0.01)
	assert.InDelta(t, 2.0, stats.AvgReturnPct, 0.001)
	assert.Equal(t, 8.0, *stats.BestReturn)
	assert.Equal(t, -4.0, *stats.WorstReturn)

	momentum := entity.StrategyMomentum
	stats, err = svc.Stats(ctx, "5d", nil, &momentum)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Winners)
	assert.InDelta(t, 50.0, stats.WinRate, 0.001)
}

func TestCreateTracker(t *testing.T) {
	ctx := context.Background()
	repo := newFakePerformanceRepo()
	svc := newTrackerService(repo)

	rec := &entity.Recommendation{
		ID:                    7,
		StockCode:             "AAPL",
		PriceAtRecommendation: 150,
		CreatedAt:             time.Date(2024, 3, 1, 14, 30, 0, 0, time.UTC),
	}

	tracker, err := svc.CreateTracker(ctx, rec)
	require.NoError(t, err)
	assert.Equal(t, uint(7), tracker.RecommendationID)
	assert.Equal(t, 150.0, tracker.EntryPrice)
	assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), tracker.EntryDate)
	assert.Equal(t, entity.TrackingStatusActive, tracker.Status)
}
