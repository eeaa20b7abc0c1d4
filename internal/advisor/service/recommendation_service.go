package service

import (
	"context"
	"fmt"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/repository"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/logger"
)

type RecommendationService interface {
	// Create records a recommendation and opens its performance tracker.
	Create(ctx context.Context, req dto.CreateRecommendationRequest) (*entity.Recommendation, error)
	Get(ctx context.Context, param dto.GetRecommendationsParam) ([]entity.Recommendation, error)
	GetByID(ctx context.Context, id uint) (*entity.Recommendation, error)
}

type recommendationService struct {
	log        *logger.Logger
	recRepo    repository.RecommendationRepository
	trackerSvc PerformanceTrackerService
}

func NewRecommendationService(log *logger.Logger,
	recRepo repository.RecommendationRepository,
	trackerSvc PerformanceTrackerService) RecommendationService {
	return &recommendationService{
		log:        log,
		recRepo:    recRepo,
		trackerSvc: trackerSvc,
	}
}

func (s *recommendationService) Create(ctx context.Context, req dto.CreateRecommendationRequest) (*entity.Recommendation, error) {
	strategyType := req.StrategyType
	if strategyType == "" {
		strategyType = entity.StrategyMomentum
	}
	if strategyType != entity.StrategyMomentum && strategyType != entity.StrategyDip {
		return nil, fmt.Errorf("invalid strategy_type %q", req.StrategyType)
	}

	recommendation := &entity.Recommendation{
		StockCode:             req.StockCode,
		OverallScore:          req.OverallScore,
		TechnicalScore:        req.TechnicalScore,
		FundamentalScore:      req.FundamentalScore,
		SentimentScore:        req.SentimentScore,
		Signals:               req.Signals,
		Rank:                  req.Rank,
		PriceAtRecommendation: req.PriceAtRecommendation,
		StrategyType:          strategyType,
	}

	if err := s.recRepo.Create(ctx, recommendation); err != nil {
		return nil, err
	}

	// The recommendation stands even if tracker creation fails; the tracker
	// can be recreated manually from the stored row.
	if _, err := s.trackerSvc.CreateTracker(ctx, recommendation); err != nil {
		s.log.ErrorContext(ctx, "Failed to create performance tracker",
			logger.ErrorField(err), logger.IntField("recommendation_id", int(recommendation.ID)))
	}

	s.log.InfoContext(ctx, "Created recommendation",
		logger.IntField("recommendation_id", int(recommendation.ID)),
		logger.StringField("stock_code", recommendation.StockCode),
		logger.IntField("overall_score", recommendation.OverallScore),
	)

	return recommendation, nil
}

func (s *recommendationService) Get(ctx context.Context, param dto.GetRecommendationsParam) ([]entity.Recommendation, error) {
	return s.recRepo.Get(ctx, param)
}

func (s *recommendationService) GetByID(ctx context.Context, id uint) (*entity.Recommendation, error) {
	return s.recRepo.GetByID(ctx, id)
}
