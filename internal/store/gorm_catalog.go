package store

import (
	"context"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListSelectedIndicators returns the indicators the organization selected, by code.
func (s *Gorm) ListSelectedIndicators(ctx context.Context, organization string) ([]models.Indicator, error) {
	var indicators []models.Indicator
	err := s.db.WithContext(ctx).
		Joins("JOIN organization_indicators oi ON oi.indicator_code = indicators.code").
		Joins("JOIN organizations o ON o.id = oi.organization_id").
		Where("o.name = ?", organization).
		Order("indicators.code ASC").
		Find(&indicators).Error
	return indicators, err
}

// ListProcessIndicators returns the catalog of one process, by code.
func (s *Gorm) ListProcessIndicators(ctx context.Context, processCode string) ([]models.Indicator, error) {
	var indicators []models.Indicator
	err := s.db.WithContext(ctx).
		Where("process_code = ?", processCode).
		Order("code ASC").
		Find(&indicators).Error
	return indicators, err
}

// GetIndicator loads one indicator by code.
func (s *Gorm) GetIndicator(ctx context.Context, code string) (*models.Indicator, error) {
	var ind models.Indicator
	if err := s.db.WithContext(ctx).Where("code = ?", code).First(&ind).Error; err != nil {
		return nil, notFound(err)
	}
	return &ind, nil
}

// SelectIndicators replaces the organization selection with codes.
func (s *Gorm) SelectIndicators(ctx context.Context, organization string, codes []string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var org models.Organization
		if err := tx.Where("name = ?", organization).First(&org).Error; err != nil {
			return notFound(err)
		}
		if err := tx.Where("organization_id = ?", org.ID).Delete(&models.OrganizationIndicator{}).Error; err != nil {
			return err
		}
		if len(codes) == 0 {
			return nil
		}
		rows := make([]models.OrganizationIndicator, len(codes))
		for i, code := range codes {
			rows[i] = models.OrganizationIndicator{OrganizationID: org.ID, IndicatorCode: code}
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}
