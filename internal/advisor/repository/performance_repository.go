package repository

import (
	"context"
	"fmt"
	"strings"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
)

type PerformanceRepository interface {
	Get(ctx context.Context, param dto.GetTrackersParam) ([]entity.RecommendationPerformance, error)
	GetByID(ctx context.Context, id uint) (*entity.RecommendationPerformance, error)
	GetActive(ctx context.Context) ([]entity.RecommendationPerformance, error)
	Create(ctx context.Context, tracker *entity.RecommendationPerformance) error
	Update(ctx context.Context, tracker *entity.RecommendationPerformance) error
	// GetForStats returns trackers joined with their recommendation strategy
	// type, restricted to the given lookback window.
	GetForStats(ctx context.Context, param dto.GetTrackersParam, strategyType *string) ([]TrackerWithStrategy, error)
}

// TrackerWithStrategy pairs a tracker row with its recommendation's strategy.
type TrackerWithStrategy struct {
	entity.RecommendationPerformance
	StrategyType string `json:"strategy_type"`
}

type performanceRepository struct {
	db *gorm.DB
}

func NewPerformanceRepository(db *gorm.DB) PerformanceRepository {
	return &performanceRepository{
		db: db,
	}
}

func (r *performanceRepository) Get(ctx context.Context, param dto.GetTrackersParam) ([]entity.RecommendationPerformance, error) {
	var trackers []entity.RecommendationPerformance

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.RecommendationIDs) > 0 {
		qFilter = append(qFilter, "recommendation_id IN (?)")
		qFilterParam = append(qFilterParam, param.RecommendationIDs)
	}

	if len(param.Statuses) > 0 {
		qFilter = append(qFilter, "status IN (?)")
		qFilterParam = append(qFilterParam, param.Statuses)
	}

	if param.Since != nil {
		qFilter = append(qFilter, "entry_date >= ?")
		qFilterParam = append(qFilterParam, *param.Since)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	query := r.db.WithContext(ctx).Where(strings.Join(qFilter, " AND "), qFilterParam...).Order("entry_date DESC")
	if param.Limit > 0 {
		query = query.Limit(param.Limit)
	}

	if err := query.Find(&trackers).Error; err != nil {
		return nil, err
	}

	return trackers, nil
}

func (r *performanceRepository) GetByID(ctx context.Context, id uint) (*entity.RecommendationPerformance, error) {
	var tracker entity.RecommendationPerformance
	if err := r.db.WithContext(ctx).First(&tracker, id).Error; err != nil {
		return nil, err
	}
	return &tracker, nil
}

func (r *performanceRepository) GetActive(ctx context.Context) ([]entity.RecommendationPerformance, error) {
	var trackers []entity.RecommendationPerformance
	if err := r.db.WithContext(ctx).
		Where("status = ?", entity.TrackingStatusActive).
		Order("entry_date ASC").
		Find(&trackers).Error; err != nil {
		return nil, err
	}
	return trackers, nil
}

func (r *performanceRepository) Create(ctx context.Context, tracker *entity.RecommendationPerformance) error {
	return r.db.WithContext(ctx).Create(tracker).Error
}

func (r *performanceRepository) Update(ctx context.Context, tracker *entity.RecommendationPerformance) error {
	return r.db.WithContext(ctx).Save(tracker).Error
}

func (r *performanceRepository) GetForStats(ctx context.Context, param dto.GetTrackersParam, strategyType *string) ([]TrackerWithStrategy, error) {
	var rows []TrackerWithStrategy

	query := r.db.WithContext(ctx).Model(&entity.RecommendationPerformance{}).
		Select("recommendation_performance.*, recommendations.strategy_type").
		Joins("JOIN recommendations ON recommendations.id = recommendation_performance.recommendation_id")

	if strategyType != nil {
		query = query.Where("recommendations.strategy_type = ?", *strategyType)
	}
	if param.Since != nil {
		query = query.Where("recommendation_performance.entry_date >= ?", *param.Since)
	}
	if len(param.Statuses) > 0 {
		query = query.Where("recommendation_performance.status IN (?)", param.Statuses)
	}

	if err := query.Order("recommendation_performance.entry_date DESC").Find(&rows).Error; err != nil {
		return nil, err
	}

	return rows, nil
}
