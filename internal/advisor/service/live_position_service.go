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

type LivePositionService interface {
	Open(ctx context.Context, req dto.CreatePositionRequest) (*entity.LivePosition, error)
	Close(ctx context.Context, id uint, req dto.ClosePositionRequest) (*entity.LivePosition, error)
	Get(ctx context.Context, param dto.GetLivePositionsParam) ([]entity.LivePosition, error)
	GetByID(ctx context.Context, id uint) (*entity.LivePosition, error)
	GetSignals(ctx context.Context, param dto.GetExitSignalsParam) ([]entity.ExitSignal, error)
	ResolveSignal(ctx context.Context, signalID uint, action string) error
}

type livePositionService struct {
	log          *logger.Logger
	positionRepo repository.LivePositionRepository
	signalRepo   repository.ExitSignalRepository
}

func NewLivePositionService(log *logger.Logger,
	positionRepo repository.LivePositionRepository,
	signalRepo repository.ExitSignalRepository) LivePositionService {
	return &livePositionService{
		log:          log,
		positionRepo: positionRepo,
		signalRepo:   signalRepo,
	}
}

func (s *livePositionService) Open(ctx context.Context, req dto.CreatePositionRequest) (*entity.LivePosition, error) {
	entryDate, err := time.Parse("2006-01-02", req.EntryDate)
	if err != nil {
		return nil, fmt.Errorf("invalid entry_date %q: %w", req.EntryDate, err)
	}

	position := &entity.LivePosition{
		OwnerID:          req.OwnerID,
		StockCode:        req.StockCode,
		RecommendationID: req.RecommendationID,
		EntryDate:        entryDate,
		EntryPrice:       req.EntryPrice,
		Shares:           req.Shares,
		EntryValue:       req.EntryPrice * req.Shares,
		Status:           entity.PositionStatusOpen,
		AlertsEnabled:    true,
	}

	if req.AlertsEnabled != nil {
		position.AlertsEnabled = *req.AlertsEnabled
	}
	if req.ProfitTargetPct != nil {
		position.ProfitTargetPct = req.ProfitTargetPct
		position.ProfitTargetPrice = utils.ToPointer(req.EntryPrice * (1 + *req.ProfitTargetPct/100))
	}
	if req.StopLossPct != nil {
		position.StopLossPct = req.StopLossPct
		position.StopLossPrice = utils.ToPointer(req.EntryPrice * (1 + *req.StopLossPct/100))
	}

	if err := s.positionRepo.Create(ctx, position); err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Opened live position",
		logger.IntField("position_id", int(position.ID)),
		logger.StringField("stock_code", position.StockCode),
		logger.Float64Field("entry_price", position.EntryPrice),
	)

	return position, nil
}

func (s *livePositionService) Close(ctx context.Context, id uint, req dto.ClosePositionRequest) (*entity.LivePosition, error) {
	reason := req.ExitReason
	if reason == "" {
		reason = "manual"
	}

	if err := s.positionRepo.Close(ctx, id, utils.TimeNowUTC(), req.ExitPrice, reason); err != nil {
		return nil, err
	}

	position, err := s.positionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	s.log.InfoContext(ctx, "Closed live position",
		logger.IntField("position_id", int(position.ID)),
		logger.StringField("stock_code", position.StockCode),
		logger.Float64Field("exit_price", req.ExitPrice),
		logger.StringField("exit_reason", reason),
	)

	return position, nil
}

func (s *livePositionService) Get(ctx context.Context, param dto.GetLivePositionsParam) ([]entity.LivePosition, error) {
	return s.positionRepo.Get(ctx, param)
}

func (s *livePositionService) GetByID(ctx context.Context, id uint) (*entity.LivePosition, error) {
	return s.positionRepo.GetByID(ctx, id)
}

func (s *livePositionService) GetSignals(ctx context.Context, param dto.GetExitSignalsParam) ([]entity.ExitSignal, error) {
	return s.signalRepo.Get(ctx, param)
}

func (s *livePositionService) ResolveSignal(ctx context.Context, signalID uint, action string) error {
	if action != entity.SignalStatusActed && action != entity.SignalStatusIgnored {
		return fmt.Errorf("invalid signal action %q", action)
	}

	signal, err := s.signalRepo.GetByID(ctx, signalID)
	if err != nil {
		return err
	}
	if signal.Status != entity.SignalStatusPending {
		return fmt.Errorf("signal %d is not pending", signalID)
	}

	return s.signalRepo.UpdateStatus(ctx, signalID, action, utils.ToPointer(utils.TimeNowUTC()))
}
