package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/store"
)

// CatalogService exposes the indicator catalog filtered by organization.
type CatalogService struct {
	store store.CatalogStore
}

// NewCatalogService creates a catalog service.
func NewCatalogService(s store.CatalogStore) *CatalogService {
	return &CatalogService{store: s}
}

// ListOrganizationIndicators returns only the indicators the organization
// selected, sorted by code.
func (s *CatalogService) ListOrganizationIndicators(ctx context.Context, organization string) ([]models.Indicator, error) {
	indicators, err := s.store.ListSelectedIndicators(ctx, organization)
	if err != nil {
		return nil, fmt.Errorf("indicators of %q: %w", organization, err)
	}
	sort.Slice(indicators, func(i, j int) bool { return indicators[i].Code < indicators[j].Code })
	return indicators, nil
}

// ListProcessIndicators returns the catalog entries of one process.
func (s *CatalogService) ListProcessIndicators(ctx context.Context, processCode string) ([]models.Indicator, error) {
	return s.store.ListProcessIndicators(ctx, processCode)
}

// SelectIndicators replaces the organization's selection. Every code must
// exist in the catalog; duplicates are ignored.
func (s *CatalogService) SelectIndicators(ctx context.Context, organization string, codes []string) error {
	seen := make(map[string]bool, len(codes))
	unique := make([]string, 0, len(codes))
	for _, code := range codes {
		if seen[code] {
			continue
		}
		seen[code] = true
		if _, err := s.store.GetIndicator(ctx, code); err != nil {
			return fmt.Errorf("indicator %q: %w", code, err)
		}
		unique = append(unique, code)
	}
	if err := s.store.SelectIndicators(ctx, organization, unique); err != nil {
		return fmt.Errorf("select indicators for %q: %w", organization, err)
	}
	return nil
}
