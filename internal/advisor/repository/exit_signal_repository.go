package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang-stock-advisor/internal/advisor/dto"
	"golang-stock-advisor/internal/entity"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ExitSignalRepository interface {
	Get(ctx context.Context, param dto.GetExitSignalsParam) ([]entity.ExitSignal, error)
	GetByID(ctx context.Context, id uint) (*entity.ExitSignal, error)
	// CreateIfNoPending creates the signal unless a pending signal of the same
	// type already exists for the position. It also moves an open position to
	// alerted in the same transaction. Returns true when the signal was created.
	CreateIfNoPending(ctx context.Context, signal *entity.ExitSignal) (bool, error)
	UpdateStatus(ctx context.Context, id uint, status string, actedAt *time.Time) error
	MarkNotified(ctx context.Context, id uint, notifiedAt time.Time) error
	ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int64, error)
}

type exitSignalRepository struct {
	db *gorm.DB
}

func NewExitSignalRepository(db *gorm.DB) ExitSignalRepository {
	return &exitSignalRepository{
		db: db,
	}
}

func (r *exitSignalRepository) Get(ctx context.Context, param dto.GetExitSignalsParam) ([]entity.ExitSignal, error) {
	var signals []entity.ExitSignal

	qFilter := []string{}
	qFilterParam := []interface{}{}

	if len(param.PositionIDs) > 0 {
		qFilter = append(qFilter, "position_id IN (?)")
		qFilterParam = append(qFilterParam, param.PositionIDs)
	}

	if len(param.Statuses) > 0 {
		qFilter = append(qFilter, "status IN (?)")
		qFilterParam = append(qFilterParam, param.Statuses)
	}

	if len(param.SignalTypes) > 0 {
		qFilter = append(qFilter, "signal_type IN (?)")
		qFilterParam = append(qFilterParam, param.SignalTypes)
	}

	if param.Since != nil {
		qFilter = append(qFilter, "signal_date >= ?")
		qFilterParam = append(qFilterParam, *param.Since)
	}

	if len(qFilter) == 0 {
		return nil, fmt.Errorf("no filter provided")
	}

	query := r.db.WithContext(ctx).Where(strings.Join(qFilter, " AND "), qFilterParam...).Order("signal_date DESC")
	if param.Limit > 0 {
		query = query.Limit(param.Limit)
	}

	if err := query.Find(&signals).Error; err != nil {
		return nil, err
	}

	return signals, nil
}

func (r *exitSignalRepository) GetByID(ctx context.Context, id uint) (*entity.ExitSignal, error) {
	var signal entity.ExitSignal
	if err := r.db.WithContext(ctx).First(&signal, id).Error; err != nil {
		return nil, err
	}
	return &signal, nil
}

func (r *exitSignalRepository) CreateIfNoPending(ctx context.Context, signal *entity.ExitSignal) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var position entity.LivePosition
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&position, signal.PositionID).Error; err != nil {
			return err
		}
		if position.Status == entity.PositionStatusClosed {
			return nil
		}

		var count int64
		if err := tx.Model(&entity.ExitSignal{}).
			Where("position_id = ? AND signal_type = ? AND status = ?",
				signal.PositionID, signal.SignalType, entity.SignalStatusPending).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		if err := tx.Create(signal).Error; err != nil {
			return err
		}

		if position.Status == entity.PositionStatusOpen {
			if err := tx.Model(&entity.LivePosition{}).
				Where("id = ?", position.ID).
				Update("status", entity.PositionStatusAlerted).Error; err != nil {
				return err
			}
		}

		created = true
		return nil
	})
	return created, err
}

func (r *exitSignalRepository) UpdateStatus(ctx context.Context, id uint, status string, actedAt *time.Time) error {
	updates := map[string]interface{}{"status": status}
	if actedAt != nil {
		updates["acted_at"] = *actedAt
	}
	return r.db.WithContext(ctx).Model(&entity.ExitSignal{}).Where("id = ?", id).Updates(updates).Error
}

func (r *exitSignalRepository) MarkNotified(ctx context.Context, id uint, notifiedAt time.Time) error {
	return r.db.WithContext(ctx).Model(&entity.ExitSignal{}).Where("id = ?", id).Update("notified_at", notifiedAt).Error
}

func (r *exitSignalRepository) ExpireOlderThan(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-maxAge)
	result := r.db.WithContext(ctx).Model(&entity.ExitSignal{}).
		Where("status = ? AND signal_date < ?", entity.SignalStatusPending, cutoff).
		Update("status", entity.SignalStatusExpired)
	return result.RowsAffected, result.Error
}
