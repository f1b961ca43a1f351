package store

import (
	"context"

	"github.com/diewo77/go-energy-kpi/internal/models"
)

// ListConsolidatedValues returns pre-aggregated values of one level.
func (s *Gorm) ListConsolidatedValues(ctx context.Context, organization string, level models.ScopeLevel, years []int) ([]models.ConsolidatedValue, error) {
	var values []models.ConsolidatedValue
	err := s.db.WithContext(ctx).
		Where("organization = ? AND level = ? AND year IN ?", organization, level, years).
		Find(&values).Error
	return values, err
}

// ListTargets returns every target of the organization for year.
func (s *Gorm) ListTargets(ctx context.Context, organization string, year int) ([]models.IndicatorTarget, error) {
	var targets []models.IndicatorTarget
	err := s.db.WithContext(ctx).
		Where("organization = ? AND year = ?", organization, year).
		Find(&targets).Error
	return targets, err
}
