package repository

import (
	"context"
	"fmt"
	"strings"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
)

type RecommendationRepository interface {
	Get(ctx context.Context, param dto.GetRecommendationsParam) ([]entity.Recommendation, error)
	GetByID(ctx context.Context, id uint) (*entity.Recommendation, error)
	Create(ctx context.Context, recommendation *entity.Recommendation) error
}

type recommendationRepository struct {
	db *gorm.DB
}

func NewRecommendationRepository(db *gorm.DB) RecommendationRepository {
	return &recommendationRepository{
		db: db,
	}
}

func (r *recommendationRepository) Get(ctx context.Context, param dto.GetRecommendationsParam) ([]entity.Recommendation, error) {
	var recommendations []entity.Recommendation

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.StockCodes) > 0 {
		qFilter = append(qFilter, "stock_code IN (?)")
		qFilterParam = append(qFilterParam, param.StockCodes)
	}

	if param.StrategyType != nil {
		qFilter = append(qFilter, "strategy_type = ?")
		qFilterParam = append(qFilterParam, *param.StrategyType)
	}

	if param.Since != nil {
		qFilter = append(qFilter, "created_at >= ?")
		qFilterParam = append(qFilterParam, *param.Since)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	query := r.db.WithContext(ctx).Preload("Performance").
		Where(strings.Join(qFilter, " AND "), qFilterParam...).
		Order("created_at DESC")
	if param.Limit > 0 {
		query = query.Limit(param.Limit)
	}

	if err := query.Find(&recommendations).Error; err != nil {
		return nil, err
	}

	return recommendations, nil
}

func (r *recommendationRepository) GetByID(ctx context.Context, id uint) (*entity.Recommendation, error) {
	var recommendation entity.Recommendation
	if err := r.db.WithContext(ctx).Preload("Performance").First(&recommendation, id).Error; err != nil {
		return nil, err
	}
	return &recommendation, nil
}

func (r *recommendationRepository) Create(ctx context.Context, recommendation *entity.Recommendation) error {
	return r.db.WithContext(ctx).Create(recommendation).Error
}
