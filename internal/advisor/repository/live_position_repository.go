package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
)

type LivePositionRepository interface {
	Get(ctx context.Context, param dto.GetLivePositionsParam) ([]entity.LivePosition, error)
	GetByID(ctx context.Context, id uint) (*entity.LivePosition, error)
	Create(ctx context.Context, position *entity.LivePosition) error
	Update(ctx context.Context, position entity.LivePosition) error
	Close(ctx context.Context, id uint, exitDate time.Time, exitPrice float64, reason string) error
}

type livePositionRepository struct {
	db *gorm.DB
}

func NewLivePositionRepository(db *gorm.DB) LivePositionRepository {
	return &livePositionRepository{
		db: db,
	}
}

func (r *livePositionRepository) Get(ctx context.Context, param dto.GetLivePositionsParam) ([]entity.LivePosition, error) {
	var positions []entity.LivePosition

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.IDs) > 0 {
		qFilter = append(qFilter, "id IN (?)")
		qFilterParam = append(qFilterParam, param.IDs)
	}

	if param.OwnerID != nil {
		qFilter = append(qFilter, "owner_id = ?")
		qFilterParam = append(qFilterParam, *param.OwnerID)
	}

	if len(param.StockCodes) > 0 {
		qFilter = append(qFilter, "stock_code IN (?)")
		qFilterParam = append(qFilterParam, param.StockCodes)
	}

	if len(param.Statuses) > 0 {
		qFilter = append(qFilter, "status IN (?)")
		qFilterParam = append(qFilterParam, param.Statuses)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	query := r.db.WithContext(ctx).Where(strings.Join(qFilter, " AND "), qFilterParam...).Order("entry_date ASC")
	if param.Limit > 0 {
		query = query.Limit(param.Limit)
	}

	if err := query.Find(&positions).Error; err != nil {
		return nil, err
	}

	return positions, nil
}

func (r *livePositionRepository) GetByID(ctx context.Context, id uint) (*entity.LivePosition, error) {
	var position entity.LivePosition
	if err := r.db.WithContext(ctx).First(&position, id).Error; err != nil {
		return nil, err
	}
	return &position, nil
}

func (r *livePositionRepository) Create(ctx context.Context, position *entity.LivePosition) error {
	return r.db.WithContext(ctx).Create(position).Error
}

func (r *livePositionRepository) Update(ctx context.Context, position entity.LivePosition) error {
	return r.db.WithContext(ctx).Updates(&position).Error
}

func (r *livePositionRepository) Close(ctx context.Context, id uint, exitDate time.Time, exitPrice float64, reason string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var position entity.LivePosition
		if err := tx.First(&position, id).Error; err != nil {
			return err
		}
		if position.Status == entity.PositionStatusClosed {
			return fmt.Errorf("position %d is already closed", id)
		}

		exitValue := exitPrice * position.Shares
		updates := map[string]interface{}{
			"status":      entity.PositionStatusClosed,
			"exit_date":   exitDate,
			"exit_price":  exitPrice,
			"exit_value":  exitValue,
			"exit_reason": reason,
			"profit_loss": exitValue - position.EntryValue,
			"return_pct":  position.CurrentReturnPct(exitPrice),
		}
		if err := tx.Model(&entity.LivePosition{}).Where("id = ?", id).Updates(updates).Error; err != nil {
			return err
		}

		// Pending signals on a closed position are no longer actionable.
		return tx.Model(&entity.ExitSignal{}).
			Where("position_id = ? AND status = ?", id, entity.SignalStatusPending).
			Update("status", entity.SignalStatusExpired).Error
	})
}
