package store

import (
	"context"
	"fmt"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"gorm.io/gorm"
)

// CreateValue inserts a new indicator value.
func (s *Gorm) CreateValue(ctx context.Context, v *models.IndicatorValue) error {
	return s.db.WithContext(ctx).Create(v).Error
}

// CreateValueWithLog inserts v and l in one transaction.
func (s *Gorm) CreateValueWithLog(ctx context.Context, v *models.IndicatorValue, l *models.TransitionLog) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(v).Error; err != nil {
			return err
		}
		l.ValueID = v.ID
		if err := tx.Create(l).Error; err != nil {
			return fmt.Errorf("append transition log: %w", err)
		}
		return nil
	})
}

// GetValue loads one value by ID.
func (s *Gorm) GetValue(ctx context.Context, id uint) (*models.IndicatorValue, error) {
	var v models.IndicatorValue
	if err := s.db.WithContext(ctx).First(&v, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &v, nil
}

// GetValues lists values matching q, oldest first.
func (s *Gorm) GetValues(ctx context.Context, q ValueQuery) ([]models.IndicatorValue, error) {
	var values []models.IndicatorValue
	err := applyValueQuery(s.db.WithContext(ctx), q).
		Order("created_at ASC").
		Find(&values).Error
	return values, err
}

// GetValidatedValues returns validated values of the scope organization for year.
func (s *Gorm) GetValidatedValues(ctx context.Context, codes []string, scope models.ScopeFilter, year int) ([]models.IndicatorValue, error) {
	return s.GetValues(ctx, ValueQuery{
		Organization: scope.Organization,
		Codes:        codes,
		Years:        []int{year},
		Statuses:     []models.ValueStatus{models.StatusValidated},
	})
}

func applyValueQuery(tx *gorm.DB, q ValueQuery) *gorm.DB {
	if q.Organization != "" {
		tx = tx.Where("organization = ?", q.Organization)
	}
	if len(q.Codes) > 0 {
		tx = tx.Where("indicator_code IN ?", q.Codes)
	}
	if len(q.Years) > 0 {
		tx = tx.Where("year IN ?", q.Years)
	}
	if len(q.Statuses) > 0 {
		tx = tx.Where("status IN ?", q.Statuses)
	}
	if len(q.ProcessCodes) > 0 {
		tx = tx.Where("process_code IN ?", q.ProcessCodes)
	}
	return tx
}

// TransitionValue is a conditional UPDATE keyed on the current status. The
// audit entry in patch.Log commits with it or not at all.
func (s *Gorm) TransitionValue(ctx context.Context, id uint, from, to models.ValueStatus, patch TransitionPatch) (bool, error) {
	applied := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.IndicatorValue{}).
			Where("id = ? AND status = ?", id, from).
			Updates(transitionUpdates(to, patch))
		if res.Error != nil {
			return fmt.Errorf("transition value %d: %w", id, res.Error)
		}
		if res.RowsAffected != 1 {
			return nil
		}
		if patch.Log != nil {
			patch.Log.ValueID = id
			if err := tx.Create(patch.Log).Error; err != nil {
				return fmt.Errorf("append transition log: %w", err)
			}
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

// transitionUpdates lists the columns a transition writes.
func transitionUpdates(to models.ValueStatus, patch TransitionPatch) map[string]any {
	updates := map[string]any{
		"status":     to,
		"updated_at": patch.At,
	}
	switch to {
	case models.StatusSubmitted:
		updates["submitted_by"] = patch.ActorID
		updates["submitted_at"] = patch.At
	case models.StatusValidated, models.StatusRejected:
		updates["validated_by"] = patch.ActorID
		updates["validated_at"] = patch.At
	}
	if models.HasComment(patch.Comment) {
		updates["comment"] = patch.Comment
	}
	return updates
}

// ListTransitionLogs returns the audit trail of a value, oldest first.
func (s *Gorm) ListTransitionLogs(ctx context.Context, valueID uint) ([]models.TransitionLog, error) {
	var logs []models.TransitionLog
	err := s.db.WithContext(ctx).
		Where("value_id = ?", valueID).
		Order("created_at ASC").
		Find(&logs).Error
	return logs, err
}
