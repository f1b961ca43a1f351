package store

import (
	"context"

	"github.com/diewo77/go-energy-kpi/internal/models"
)

// FindPeriod is an exact-match lookup on (organization, year, type, number).
func (s *Gorm) FindPeriod(ctx context.Context, organization string, year int, t models.PeriodType, number *int) (*models.CollectionPeriod, error) {
	tx := s.db.WithContext(ctx).
		Where("organization = ? AND year = ? AND period_type = ?", organization, year, t)
	if number == nil {
		tx = tx.Where("period_number IS NULL")
	} else {
		tx = tx.Where("period_number = ?", *number)
	}
	var p models.CollectionPeriod
	if err := tx.First(&p).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// GetPeriod loads one period by ID.
func (s *Gorm) GetPeriod(ctx context.Context, id uint) (*models.CollectionPeriod, error) {
	var p models.CollectionPeriod
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &p, nil
}

// CreatePeriod inserts a period.
func (s *Gorm) CreatePeriod(ctx context.Context, p *models.CollectionPeriod) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// SetPeriodStatus opens or closes a period.
func (s *Gorm) SetPeriodStatus(ctx context.Context, id uint, status models.PeriodStatus) error {
	res := s.db.WithContext(ctx).
		Model(&models.CollectionPeriod{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
