package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-stock-advisor/internal/advisor/config"
	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeQuoteRepo struct {
	quotes map[string]*dto.QuoteData
	errs   map[string]error
}

func (f *fakeQuoteRepo) GetQuote(ctx context.Context, param dto.GetQuoteParam) (*dto.QuoteData, error) {
	if err, ok := f.errs[param.StockCode]; ok {
		return nil, err
	}
	q, ok := f.quotes[param.StockCode]
	if !ok {
		return nil, fmt.Errorf("no quote for %s", param.StockCode)
	}
	return q, nil
}

type fakeRecommendationRepo struct {
	recommendations map[uint]*entity.Recommendation
}

func (f *fakeRecommendationRepo) Get(ctx context.Context, param dto.GetRecommendationsParam) ([]entity.Recommendation, error) {
	return nil, nil
}

func (f *fakeRecommendationRepo) GetByID(ctx context.Context, id uint) (*entity.Recommendation, error) {
	r, ok := f.recommendations[id]
	if !ok {
		return nil, fmt.Errorf("recommendation %d not found", id)
	}
	return r, nil
}

func (f *fakeRecommendationRepo) Create(ctx context.Context, recommendation *entity.Recommendation) error {
	f.recommendations[recommendation.ID] = recommendation
	return nil
}

type fakeNewsRepo struct {
	avgSentiment *float64
}

func (f *fakeNewsRepo) Create(ctx context.Context, news *entity.StockNews) error { return nil }

func (f *fakeNewsRepo) Exists(ctx context.Context, hashIdentifier string) (bool, error) {
	return false, nil
}

func (f *fakeNewsRepo) GetRecent(ctx context.Context, stockCode string, since time.Time) ([]entity.StockNews, error) {
	return nil, nil
}

func (f *fakeNewsRepo) GetAverageSentiment(ctx context.Context, stockCode string, from, to time.Time) (*float64, error) {
	return f.avgSentiment, nil
}

type fakeNotifier struct {
	sent []string
	err  error
}

func (f *fakeNotifier) SendMessage(text string) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeNotifier) SendMessageUser(text string, chatID int64) error {
	return f.SendMessage(text)
}

type monitoringFixture struct {
	svc          PositionMonitoringService
	positionRepo *fakePositionRepo
	signalRepo   *fakeSignalRepo
	quoteRepo    *fakeQuoteRepo
	notifier     *fakeNotifier
}

func newMonitoringFixture() *monitoringFixture {
	cfg := &config.Config{Monitoring: testMonitoringConfig()}
	positionRepo := newFakePositionRepo()
	signalRepo := newFakeSignalRepo()
	quoteRepo := &fakeQuoteRepo{quotes: map[string]*dto.QuoteData{}, errs: map[string]error{}}
	notifier := &fakeNotifier{}

	svc := NewPositionMonitoringService(cfg, logger.NewNop(), nil,
		NewExitSignalDetector(cfg.Monitoring),
		positionRepo, signalRepo,
		&fakeRecommendationRepo{recommendations: map[uint]*entity.Recommendation{}},
		&fakeNewsRepo{}, quoteRepo, notifier)

	return &monitoringFixture{
		svc:          svc,
		positionRepo: positionRepo,
		signalRepo:   signalRepo,
		quoteRepo:    quoteRepo,
		notifier:     notifier,
	}
}

func (fx *monitoringFixture) addPosition(t *testing.T, stockCode string, entryPrice float64, daysAgo int) *entity.LivePosition {
	t.Helper()
	position := &entity.LivePosition{
		OwnerID:       "user-1",
		StockCode:     stockCode,
		EntryDate:     utils.TimeNowUTC().AddDate(0, 0, -daysAgo),
		EntryPrice:    entryPrice,
		Shares:        10,
		EntryValue:    entryPrice * 10,
		Status:        entity.PositionStatusOpen,
		AlertsEnabled: true,
	}
	require.NoError(t, fx.positionRepo.Create(context.Background(), position))
	return position
}

func shortQuote(price float64) *dto.QuoteData {
	return &dto.QuoteData{
		MarketPrice: price,
		OHLCV:       []dto.OHLCV{{Close: price, Volume: 1000}, {Close: price, Volume: 1000}},
		FetchedAt:   utils.TimeNowUTC(),
	}
}

func TestRunPassCreatesSignalAndAlert(t *testing.T) {
	fx := newMonitoringFixture()
	fx.addPosition(t, "AAPL", 100, 2)
	fx.quoteRepo.quotes["AAPL"] = shortQuote(92) // -8%, past the -7% stop

	stats := fx.svc.RunPass(context.Background())

	assert.Equal(t, 1, stats.PositionsChecked)
	assert.Equal(t, 1, stats.SignalsCreated)
	assert.Equal(t, 1, stats.AlertsSent)
	assert.Zero(t, stats.Errors)
	assert.Len(t, fx.notifier.sent, 1)

	signals, err := fx.signalRepo.Get(context.Background(), dto.GetExitSignalsParam{PositionIDs: []uint{1}})
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, entity.SignalTypeStopLoss, signals[0].SignalType)
	assert.NotNil(t, signals[0].NotifiedAt)
}

func TestRunPassNoSignalForHealthyPosition(t *testing.T) {
	fx := newMonitoringFixture()
	fx.addPosition(t, "AAPL", 100, 2)
	fx.quoteRepo.quotes["AAPL"] = shortQuote(103)

	stats := fx.svc.RunPass(context.Background())

	assert.Equal(t, 1, stats.PositionsChecked)
	assert.Zero(t, stats.SignalsCreated)
	assert.Zero(t, stats.AlertsSent)
	assert.Empty(t, fx.notifier.sent)
}

func TestRunPassIsolatesQuoteFailures(t *testing.T) {
	fx := newMonitoringFixture()
	fx.addPosition(t, "GOOD", 100, 2)
	fx.addPosition(t, "BAD", 100, 2)
	fx.quoteRepo.quotes["GOOD"] = shortQuote(92)
	fx.quoteRepo.errs["BAD"] = fmt.Errorf("quote api unavailable")

	stats := fx.svc.RunPass(context.Background())

	assert.Equal(t, 2, stats.PositionsChecked)
	assert.Equal(t, 1, stats.SignalsCreated)
	assert.Equal(t, 1, stats.Errors)
}

func TestRunPassSuppressesDuplicatePendingSignals(t *testing.T) {
	fx := newMonitoringFixture()
	fx.addPosition(t, "AAPL", 100, 2)
	fx.quoteRepo.quotes["AAPL"] = shortQuote(92)

	first := fx.svc.RunPass(context.Background())
	assert.Equal(t, 1, first.SignalsCreated)

	// The stop loss signal is still pending, so a second pass creates nothing.
	second := fx.svc.RunPass(context.Background())
	assert.Equal(t, 1, second.PositionsChecked)
	assert.Zero(t, second.SignalsCreated)
	assert.Zero(t, second.AlertsSent)
	assert.Len(t, fx.notifier.sent, 1)
}

func TestRunPassSkipsAlertsWhenDisabled(t *testing.T) {
	fx := newMonitoringFixture()
	position := fx.addPosition(t, "AAPL", 100, 2)
	position.AlertsEnabled = false
	fx.quoteRepo.quotes["AAPL"] = shortQuote(92)

	stats := fx.svc.RunPass(context.Background())

	assert.Equal(t, 1, stats.SignalsCreated)
	assert.Zero(t, stats.AlertsSent)
	assert.Empty(t, fx.notifier.sent)
}

func TestRunPassCountsZeroPriceAsError(t *testing.T) {
	fx := newMonitoringFixture()
	fx.addPosition(t, "AAPL", 100, 2)
	fx.quoteRepo.quotes["AAPL"] = shortQuote(0)

	stats := fx.svc.RunPass(context.Background())

	assert.Equal(t, 1, stats.PositionsChecked)
	assert.Equal(t, 1, stats.Errors)
	assert.Zero(t, stats.SignalsCreated)
}

func TestExecuteSkipsClosedPosition(t *testing.T) {
	fx := newMonitoringFixture()
	position := fx.addPosition(t, "AAPL", 100, 2)
	position.Status = entity.PositionStatusClosed

	err := fx.svc.Execute(context.Background(), dto.StreamDataPositionMonitor{PositionID: position.ID})
	assert.NoError(t, err)

	signals, err := fx.signalRepo.Get(context.Background(), dto.GetExitSignalsParam{PositionIDs: []uint{position.ID}})
	require.NoError(t, err)
	assert.Empty(t, signals)
}
