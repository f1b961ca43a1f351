package store

import (
	"context"

	"github.com/diewo77/go-energy-kpi/internal/models"
)

// LoadOrganization preloads the whole tree of an organization.
func (s *Gorm) LoadOrganization(ctx context.Context, name string) (*models.Organization, error) {
	var org models.Organization
	err := s.db.WithContext(ctx).
		Preload("Filieres").
		Preload("Filiales").
		Preload("Sites").
		Where("name = ?", name).
		First(&org).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &org, nil
}
