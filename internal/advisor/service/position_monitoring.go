package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/advisor/repository"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/common"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/telegram"
	"golang-stock-advisor/pkg/utils"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	quoteRange    = "3mo"
	quoteInterval = "1d"
)

type PositionMonitoringService interface {
	// RunPass evaluates every open and alerted position once and returns
	// aggregate counts. Per-position failures are counted, never propagated.
	RunPass(ctx context.Context) dto.MonitoringStats
	EnqueueCheck(ctx context.Context, positionID uint, sendNotif bool) error
	ProcessTask(ctx context.Context)
	ProcessRetries(ctx context.Context)
	Execute(ctx context.Context, streamData dto.StreamDataPositionMonitor) error
}

type positionMonitoringService struct {
	cfg          *config.Config
	log          *logger.Logger
	redisClient  *redis.Client
	detector     *ExitSignalDetector
	positionRepo repository.LivePositionRepository
	signalRepo   repository.ExitSignalRepository
	recRepo      repository.RecommendationRepository
	newsRepo     repository.StockNewsRepository
	quoteRepo    repository.QuoteRepository
	telegramBot  telegram.Notifier
}

func NewPositionMonitoringService(cfg *config.Config, log *logger.Logger,
	redisClient *redis.Client,
	detector *ExitSignalDetector,
	positionRepo repository.LivePositionRepository,
	signalRepo repository.ExitSignalRepository,
	recRepo repository.RecommendationRepository,
	newsRepo repository.StockNewsRepository,
	quoteRepo repository.QuoteRepository,
	telegramBot telegram.Notifier) PositionMonitoringService {
	return &positionMonitoringService{
		cfg:          cfg,
		log:          log,
		redisClient:  redisClient,
		detector:     detector,
		positionRepo: positionRepo,
		signalRepo:   signalRepo,
		recRepo:      recRepo,
		newsRepo:     newsRepo,
		quoteRepo:    quoteRepo,
		telegramBot:  telegramBot,
	}
}

func (s *positionMonitoringService) RunPass(ctx context.Context) dto.MonitoringStats {
	stats := dto.MonitoringStats{StartedAt: utils.TimeNowUTC()}

	if s.cfg.Monitoring.SignalMaxAge > 0 {
		expired, err := s.signalRepo.ExpireOlderThan(ctx, s.cfg.Monitoring.SignalMaxAge)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to expire stale signals", logger.ErrorField(err))
		} else if expired > 0 {
			s.log.InfoContext(ctx, "Expired stale exit signals", logger.IntField("count", int(expired)))
		}
	}

	positions, err := s.positionRepo.Get(ctx, dto.GetLivePositionsParam{
		Statuses: []string{entity.PositionStatusOpen, entity.PositionStatusAlerted},
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get live positions", logger.ErrorField(err))
		stats.Errors++
		stats.FinishedAt = utils.TimeNowUTC()
		return stats
	}

	maxConcurrent := s.cfg.Monitoring.MaxConcurrentChecks
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, maxConcurrent)
	)

	for _, position := range positions {
		if !utils.ShouldContinue(ctx, s.log) {
			break
		}

		wg.Add(1)
		sem <- struct{}{}
		go func(position entity.LivePosition) {
			defer wg.Done()
			defer func() { <-sem }()

			created, alerts, err := s.monitorPosition(ctx, position, false)

			mu.Lock()
			defer mu.Unlock()
			stats.PositionsChecked++
			stats.SignalsCreated += created
			stats.AlertsSent += alerts
			if err != nil {
				stats.Errors++
			}
		}(position)
	}
	wg.Wait()

	stats.FinishedAt = utils.TimeNowUTC()
	s.log.InfoContext(ctx, "Monitoring pass finished",
		logger.IntField("positions_checked", stats.PositionsChecked),
		logger.IntField("signals_created", stats.SignalsCreated),
		logger.IntField("alerts_sent", stats.AlertsSent),
		logger.IntField("errors", stats.Errors),
	)

	return stats
}

func (s *positionMonitoringService) monitorPosition(ctx context.Context, position entity.LivePosition, forceNotif bool) (int, int, error) {
	loggerFields := []zap.Field{
		logger.StringField("stock_code", position.StockCode),
		logger.IntField("position_id", int(position.ID)),
	}

	quote, err := s.quoteRepo.GetQuote(ctx, dto.GetQuoteParam{
		StockCode: position.StockCode,
		Range:     quoteRange,
		Interval:  quoteInterval,
	})
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get quote", append(loggerFields, logger.ErrorField(err))...)
		return 0, 0, err
	}
	if quote.MarketPrice == 0 {
		s.log.WarnContext(ctx, "No market price available, skipping position", loggerFields...)
		return 0, 0, fmt.Errorf("no market price for %s", position.StockCode)
	}

	strategyType := entity.StrategyMomentum
	if position.RecommendationID != nil {
		rec, err := s.recRepo.GetByID(ctx, *position.RecommendationID)
		if err != nil {
			s.log.WarnContext(ctx, "Failed to get recommendation, assuming momentum strategy",
				append(loggerFields, logger.ErrorField(err))...)
		} else {
			strategyType = rec.StrategyType
		}
	}

	entrySentiment, currentSentiment := s.sentimentWindow(ctx, position)

	signals := s.detector.Evaluate(EvaluateInput{
		Position:         position,
		Quote:            quote,
		EntrySentiment:   entrySentiment,
		CurrentSentiment: currentSentiment,
		StrategyType:     strategyType,
		Now:              utils.TimeNowUTC(),
	})

	created, alerts := 0, 0
	for i := range signals {
		signal := signals[i]
		ok, err := s.signalRepo.CreateIfNoPending(ctx, &signal)
		if err != nil {
			s.log.ErrorContext(ctx, "Failed to create exit signal",
				append(loggerFields, logger.ErrorField(err), logger.StringField("signal_type", signal.SignalType))...)
			return created, alerts, err
		}
		if !ok {
			continue
		}
		created++

		if position.AlertsEnabled || forceNotif {
			msg := telegram.FormatExitSignalMessage(&position, &signal)
			if err := s.telegramBot.SendMessage(msg); err != nil {
				s.log.ErrorContext(ctx, "Failed to send exit signal alert",
					append(loggerFields, logger.ErrorField(err))...)
				continue
			}
			alerts++
			if err := s.signalRepo.MarkNotified(ctx, signal.ID, utils.TimeNowUTC()); err != nil {
				s.log.ErrorContext(ctx, "Failed to mark signal as notified",
					append(loggerFields, logger.ErrorField(err))...)
			}
		}
	}

	return created, alerts, nil
}

// sentimentWindow returns the aggregate sentiment near entry and over the most
// recent week. Either may be nil when no analyzed news exists.
func (s *positionMonitoringService) sentimentWindow(ctx context.Context, position entity.LivePosition) (*float64, *float64) {
	entryFrom := position.EntryDate.AddDate(0, 0, -7)
	entryTo := position.EntryDate.AddDate(0, 0, 1)
	entrySentiment, err := s.newsRepo.GetAverageSentiment(ctx, position.StockCode, entryFrom, entryTo)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get entry sentiment", logger.ErrorField(err),
			logger.StringField("stock_code", position.StockCode))
	}

	now := utils.TimeNowUTC()
	currentSentiment, err := s.newsRepo.GetAverageSentiment(ctx, position.StockCode, now.AddDate(0, 0, -7), now.AddDate(0, 0, 1))
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to get current sentiment", logger.ErrorField(err),
			logger.StringField("stock_code", position.StockCode))
	}

	return entrySentiment, currentSentiment
}

func (s *positionMonitoringService) EnqueueCheck(ctx context.Context, positionID uint, sendNotif bool) error {
	payload, err := json.Marshal(dto.StreamDataPositionMonitor{
		PositionID: positionID,
		SendNotif:  sendNotif,
	})
	if err != nil {
		return err
	}

	return s.redisClient.XAdd(ctx, &redis.XAddArgs{
		Stream: common.RedisStreamPositionMonitor,
		Values: map[string]interface{}{"payload": string(payload)},
	}).Err()
}

func (s *positionMonitoringService) ProcessTask(ctx context.Context) {
	streams, err := s.redisClient.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer,
		Streams:  []string{common.RedisStreamPositionMonitor, ">"}, // ">" means only new messages
		Count:    1,
		Block:    2 * time.Second, // Block for 2 seconds to allow graceful shutdown
	}).Result()
	if err != nil {
		// Context cancellation and timeouts are expected during shutdown or idle periods.
		if err == context.Canceled || err == redis.Nil {
			return
		}
		s.log.Error("Failed to read from stream", logger.ErrorField(err))
		return
	}

	if len(streams) == 0 || len(streams[0].Messages) == 0 {
		s.log.Debug("No messages found", logger.StringField("stream", common.RedisStreamPositionMonitor))
		return
	}

	message := streams[0].Messages[0]

	// The task data is expected to be a JSON string in the 'payload' field.
	taskData, ok := message.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", message.ID))
		return
	}

	var streamData dto.StreamDataPositionMonitor
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", message.ID))
		return
	}

	loggerFields := []zap.Field{
		logger.IntField("position_id", int(streamData.PositionID)),
		logger.StringField("message_id", message.ID),
	}

	s.log.Debug("Processing position monitor task", loggerFields...)

	if err := s.Execute(ctx, streamData); err != nil {
		loggerFields = append(loggerFields, logger.ErrorField(err))
		s.log.Error("Failed to execute position monitor task", loggerFields...)
		return
	}

	if err := s.ackNDel(ctx, common.RedisStreamPositionMonitor, message.ID); err != nil {
		loggerFields = append(loggerFields, logger.ErrorField(err))
		s.log.Error("Failed to acknowledge and delete position monitor task", loggerFields...)
		return
	}

	s.log.Debug("Position monitor task processed successfully", loggerFields...)
}

func (s *positionMonitoringService) Execute(ctx context.Context, streamData dto.StreamDataPositionMonitor) error {
	position, err := s.positionRepo.GetByID(ctx, streamData.PositionID)
	if err != nil {
		s.log.Error("Failed to get live position", logger.ErrorField(err), logger.IntField("position_id", int(streamData.PositionID)))
		return err
	}

	if position.Status == entity.PositionStatusClosed {
		s.log.Warn("Position is closed, skipping monitor task", logger.IntField("position_id", int(position.ID)))
		return nil
	}

	_, _, err = s.monitorPosition(ctx, *position, streamData.SendNotif)
	return err
}

func (s *positionMonitoringService) ProcessRetries(ctx context.Context) {
	msgs, _, err := s.redisClient.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   common.RedisStreamPositionMonitor,
		Group:    common.RedisStreamGroup,
		Consumer: common.RedisStreamConsumer + "-retry",
		MinIdle:  s.cfg.Monitoring.RedisStreamMaxIdleDuration,
		Start:    "0",
		Count:    1,
	}).Result()

	if err != nil {
		s.log.Error("Failed to claim position monitor task on retry", logger.ErrorField(err))
		return
	}

	if len(msgs) == 0 {
		s.log.Debug("Retry No pending messages found", logger.StringField("stream", common.RedisStreamPositionMonitor))
		return
	}

	pendingInfo, err := s.redisClient.XPendingExt(ctx, &redis.XPendingExtArgs{
		Stream: common.RedisStreamPositionMonitor,
		Group:  common.RedisStreamGroup,
		Start:  msgs[0].ID,
		End:    msgs[0].ID,
		Count:  1,
	}).Result()

	if err != nil {
		s.log.Error("Failed to get pending info", logger.ErrorField(err))
		return
	}

	if len(pendingInfo) == 0 {
		s.log.Warn("pending msg not found, but exist on xautoclaim",
			logger.StringField("stream", common.RedisStreamPositionMonitor),
			logger.StringField("message_id", msgs[0].ID))
		return
	}

	msg := msgs[0]
	taskData, ok := msg.Values["payload"].(string)
	if !ok {
		s.log.Error("field 'payload' not found or not a string in stream message", logger.Field("message_id", msg.ID))
		return
	}

	var streamData dto.StreamDataPositionMonitor
	if err := json.Unmarshal([]byte(taskData), &streamData); err != nil {
		s.log.Error("Failed to unmarshal task data", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}

	if err := s.Execute(ctx, streamData); err != nil {
		s.log.Error("Failed to execute position monitor task on retry", logger.ErrorField(err),
			logger.Field("message_id", msg.ID), logger.IntField("position_id", int(streamData.PositionID)))

		if pendingInfo[0].RetryCount+1 >= int64(s.cfg.Monitoring.RedisStreamMaxRetry) {
			s.log.Error("pending msg retry count exceeded",
				logger.StringField("stream", common.RedisStreamPositionMonitor),
				logger.StringField("message_id", msg.ID),
				logger.IntField("position_id", int(streamData.PositionID)),
				logger.IntField("retry_count", int(pendingInfo[0].RetryCount+1)),
				logger.IntField("max_retry", s.cfg.Monitoring.RedisStreamMaxRetry),
			)
			errType := fmt.Sprintf("Retry count exceeded for event %s", common.RedisStreamPositionMonitor)
			data := fmt.Sprintf("position_id=%d", streamData.PositionID)
			msgTelegram := telegram.FormatErrorAlertMessage(utils.TimeNowUTC(), errType, err.Error(), data)
			if err := s.telegramBot.SendMessage(msgTelegram); err != nil {
				s.log.Error("Failed to send telegram message retry exceeded", logger.ErrorField(err),
					logger.IntField("position_id", int(streamData.PositionID)))
			}
			if err := s.ackNDel(ctx, common.RedisStreamPositionMonitor, msg.ID); err != nil {
				s.log.Error("Failed to acknowledge and delete position monitor task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
			}
		}
		return
	}

	if err := s.ackNDel(ctx, common.RedisStreamPositionMonitor, msg.ID); err != nil {
		s.log.Error("Failed to acknowledge and delete position monitor task", logger.ErrorField(err), logger.Field("message_id", msg.ID))
		return
	}
	s.log.Info("Retry position monitor task processed successfully", logger.IntField("position_id", int(streamData.PositionID)))
}

func (s *positionMonitoringService) ackNDel(ctx context.Context, streamName string, messageID string) error {
	if err := s.redisClient.XAck(ctx, streamName, common.RedisStreamGroup, messageID).Err(); err != nil {
		s.log.Error("Failed to acknowledge position monitor task",
			logger.StringField("stream_name", streamName),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err),
		)
		return err
	}
	if err := s.redisClient.XDel(ctx, streamName, messageID).Err(); err != nil {
		s.log.Error("Failed to delete position monitor task",
			logger.StringField("stream_name", streamName),
			logger.StringField("message_id", messageID),
			logger.ErrorField(err),
		)
		return err
	}
	return nil
}
