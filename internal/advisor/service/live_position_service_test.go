package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/entity"
	"golang-stock-advisor/pkg/logger"
	"golang-stock-advisor/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePositionRepo struct {
	positions map[uint]*entity.LivePosition
	nextID    uint
}

func newFakePositionRepo() *fakePositionRepo {
	return &fakePositionRepo{positions: map[uint]*entity.LivePosition{}, nextID: 1}
}

func (f *fakePositionRepo) Get(ctx context.Context, param dto.GetLivePositionsParam) ([]entity.LivePosition, error) {
	var out []entity.LivePosition
	for _, p := range f.positions {
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakePositionRepo) GetByID(ctx context.Context, id uint) (*entity.LivePosition, error) {
	p, ok := f.positions[id]
	if !ok {
		return nil, fmt.Errorf("position %d not found", id)
	}
	return p, nil
}

func (f *fakePositionRepo) Create(ctx context.Context, position *entity.LivePosition) error {
	position.ID = f.nextID
	f.nextID++
	f.positions[position.ID] = position
	return nil
}

func (f *fakePositionRepo) Update(ctx context.Context, position entity.LivePosition) error {
	f.positions[position.ID] = &position
	return nil
}

func (f *fakePositionRepo) Close(ctx context.Context, id uint, exitDate time.Time, exitPrice float64, reason string) error {
	p, ok := f.positions[id]
	if !ok {
		return fmt.Errorf("position %d not found", id)
	}
	if p.Status == entity.PositionStatusClosed {
		return fmt.Errorf("position %d is already closed", id)
	}
	exitValue := exitPrice * p.Shares
	p.Status = entity.PositionStatusClosed
	p.ExitDate = utils.ToPointer(exitDate)
	p.ExitPrice = utils.ToPointer(exitPrice)
	p.ExitValue = utils.ToPointer(exitValue)
	p.ExitReason = reason
	p.ProfitLoss = utils.ToPointer(exitValue - p.EntryValue)
	p.ReturnPct = utils.ToPointer(p.CurrentReturnPct(exitPrice))
	return nil
}

type fakeSignalRepo struct {
	signals map[uint]*entity.ExitSignal
}

func newFakeSignalRepo() *fakeSignalRepo {
	return &fakeSignalRepo{signals: map[uint]*entity.ExitSignal{}}
}

func (f *fakeSignalRepo) Get(ctx context.Context, param dto.GetExitSignalsParam) ([]entity.ExitSignal, error) {
	var out []entity.ExitSignal
	for _, s := range f.signals {
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeSignalRepo) GetByID(ctx context.Context, id uint) (*entity.ExitSignal, error) {
	s, ok := f.signals[id]
	if !ok {
		return nil, fmt.Errorf("signal %d not found", id)
	}
	return s, nil
}

func (f *fakeSignalRepo) CreateIfNoPending(ctx context.Context, signal *entity.ExitSignal) (bool, error) {
	for _, s := range f.signals {
		if s.PositionID == signal.PositionID && s.SignalType == signal.SignalType && s.Status == entity.SignalStatusPending {
			return false, nil
		}
	}
	signal.ID = uint(len(f.signals) + 1)
	f.signals[signal.ID] = signal
	return true, nil
}

func (f *fakeSignalRepo) UpdateStatus(ctx context.Context, id uint, status string, actedAt *time.Time) error {
	s, ok := f.signals[id]
	if !ok {
		return fmt.Errorf("signal %d not found", id)
	}
	s.Status = status
	s.ActedAt = actedAt
	return nil
}

func (f *fakeSignalRepo) MarkNotified(ctx context.Context, id uint, notifiedAt time.Time) error {
	s, ok := f.signals[id]
	if !ok {
		return fmt.Errorf("signal %d not found", id)
	}
	s.NotifiedAt = utils.ToPointer(notifiedAt)
	return nil
}

func (f *fakeSignalRepo) ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	return 0, nil
}

func newPositionService(positionRepo *fakePositionRepo, signalRepo *fakeSignalRepo) LivePositionService {
	return NewLivePositionService(logger.NewNop(), positionRepo, signalRepo)
}

func TestOpenPosition(t *testing.T) {
	svc := newPositionService(newFakePositionRepo(), newFakeSignalRepo())

	position, err := svc.Open(context.Background(), dto.CreatePositionRequest{
		OwnerID:         "user-1",
		StockCode:       "AAPL",
		EntryDate:       "2024-06-03",
		EntryPrice:      100,
		Shares:          10,
		ProfitTargetPct: utils.ToPointer(15.0),
		StopLossPct:     utils.ToPointer(-7.0),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.PositionStatusOpen, position.Status)
	assert.Equal(t, 1000.0, position.EntryValue)
	assert.True(t, position.AlertsEnabled)
	require.NotNil(t, position.ProfitTargetPrice)
	assert.InDelta(t, 115.0, *position.ProfitTargetPrice, 0.001)
	require.NotNil(t, position.StopLossPrice)
	assert.InDelta(t, 93.0, *position.StopLossPrice, 0.001)
	assert.Equal(t, time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC), position.EntryDate)
}

func TestOpenPositionRejectsBadDate(t *testing.T) {
	svc := newPositionService(newFakePositionRepo(), newFakeSignalRepo())

	_, err := svc.Open(context.Background(), dto.CreatePositionRequest{
		OwnerID:    "user-1",
		StockCode:  "AAPL",
		EntryDate:  "03/06/2024",
		EntryPrice: 100,
		Shares:     10,
	})
	assert.Error(t, err)
}

func TestOpenPositionAlertsOptOut(t *testing.T) {
	svc := newPositionService(newFakePositionRepo(), newFakeSignalRepo())

	position, err := svc.Open(context.Background(), dto.CreatePositionRequest{
		OwnerID:       "user-1",
		StockCode:     "AAPL",
		EntryDate:     "2024-06-03",
		EntryPrice:    100,
		Shares:        10,
		AlertsEnabled: utils.ToPointer(false),
	})
	require.NoError(t, err)
	assert.False(t, position.AlertsEnabled)
}

func TestClosePosition(t *testing.T) {
	positionRepo := newFakePositionRepo()
	svc := newPositionService(positionRepo, newFakeSignalRepo())

	opened, err := svc.Open(context.Background(), dto.CreatePositionRequest{
		OwnerID:    "user-1",
		StockCode:  "AAPL",
		EntryDate:  "2024-06-03",
		EntryPrice: 100,
		Shares:     10,
	})
	require.NoError(t, err)

	closed, err := svc.Close(context.Background(), opened.ID, dto.ClosePositionRequest{ExitPrice: 110})
	require.NoError(t, err)

	assert.Equal(t, entity.PositionStatusClosed, closed.Status)
	assert.Equal(t, "manual", closed.ExitReason)
	require.NotNil(t, closed.ProfitLoss)
	assert.InDelta(t, 100.0, *closed.ProfitLoss, 0.001)
	require.NotNil(t, closed.ReturnPct)
	assert.InDelta(t, 10.0, *closed.ReturnPct, 0.001)

	// Closing twice fails.
	_, err = svc.Close(context.Background(), opened.ID, dto.ClosePositionRequest{ExitPrice: 120})
	assert.Error(t, err)
}

func TestResolveSignal(t *testing.T) {
	positionRepo := newFakePositionRepo()
	signalRepo := newFakeSignalRepo()
	svc := newPositionService(positionRepo, signalRepo)

	signal := &entity.ExitSignal{
		PositionID: 1,
		SignalType: entity.SignalTypeStopLoss,
		Status:     entity.SignalStatusPending,
	}
	created, err := signalRepo.CreateIfNoPending(context.Background(), signal)
	require.NoError(t, err)
	require.True(t, created)

	require.NoError(t, svc.ResolveSignal(context.Background(), signal.ID, entity.SignalStatusActed))

	resolved, err := signalRepo.GetByID(context.Background(), signal.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.SignalStatusActed, resolved.Status)
	assert.NotNil(t, resolved.ActedAt)

	// A resolved signal cannot be resolved again.
	assert.Error(t, svc.ResolveSignal(context.Background(), signal.ID, entity.SignalStatusIgnored))
}

func TestResolveSignalRejectsInvalidAction(t *testing.T) {
	svc := newPositionService(newFakePositionRepo(), newFakeSignalRepo())

	assert.Error(t, svc.ResolveSignal(context.Background(), 1, "deleted"))
}
