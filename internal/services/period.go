package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"github.com/sirupsen/logrus"
)

// PeriodService is the collection period registry.
type PeriodService struct {
	store store.PeriodStore
	log   logrus.FieldLogger
}

// NewPeriodService creates a period registry.
func NewPeriodService(s store.PeriodStore, log logrus.FieldLogger) *PeriodService {
	return &PeriodService{store: s, log: log}
}

// ResolvePeriod is an exact-match lookup. It never returns a period whose
// status is not open or closed.
func (s *PeriodService) ResolvePeriod(ctx context.Context, organization string, year int, t models.PeriodType, number *int) (*models.CollectionPeriod, error) {
	if err := checkPeriodKey(year, t, number); err != nil {
		return nil, err
	}
	p, err := s.store.FindPeriod(ctx, organization, year, t, number)
	if err != nil {
		return nil, fmt.Errorf("period %s %d %s: %w", organization, year, t, err)
	}
	if !p.Status.Valid() {
		return nil, fmt.Errorf("%w: period %d has status %q", ErrInvalidPeriod, p.ID, p.Status)
	}
	return p, nil
}

// Create registers a new open period. An existing period with the same key
// is returned unchanged with created=false.
func (s *PeriodService) Create(ctx context.Context, organization string, year int, t models.PeriodType, number *int) (p *models.CollectionPeriod, created bool, err error) {
	if err := checkPeriodKey(year, t, number); err != nil {
		return nil, false, err
	}
	existing, err := s.store.FindPeriod(ctx, organization, year, t, number)
	switch {
	case err == nil:
		return existing, false, nil
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, err
	}

	start, end := models.PeriodBounds(year, t, number)
	p = &models.CollectionPeriod{
		Organization: organization,
		Year:         year,
		PeriodType:   t,
		PeriodNumber: number,
		StartDate:    start,
		EndDate:      end,
		Status:       models.PeriodOpen,
	}
	if err := s.store.CreatePeriod(ctx, p); err != nil {
		return nil, false, fmt.Errorf("create period: %w", err)
	}
	return p, true, nil
}

// GenerateYear creates the 12 months, 4 quarters and the year of an
// organization. Periods that already exist are left untouched, so the call is
// idempotent. It returns how many periods were created.
func (s *PeriodService) GenerateYear(ctx context.Context, organization string, year int) (int, error) {
	created := 0
	add := func(t models.PeriodType, number *int) error {
		_, ok, err := s.Create(ctx, organization, year, t, number)
		if ok {
			created++
		}
		return err
	}
	for m := 1; m <= 12; m++ {
		if err := add(models.PeriodMonth, &m); err != nil {
			return created, err
		}
	}
	for q := 1; q <= 4; q++ {
		if err := add(models.PeriodQuarter, &q); err != nil {
			return created, err
		}
	}
	if err := add(models.PeriodYear, nil); err != nil {
		return created, err
	}

	s.log.WithFields(logrus.Fields{
		"organization": organization,
		"year":         year,
		"created":      created,
	}).Info("periods generated")
	return created, nil
}

// Close stops validations in the period.
func (s *PeriodService) Close(ctx context.Context, id uint) error {
	return s.setStatus(ctx, id, models.PeriodClosed)
}

// Reopen allows validations again.
func (s *PeriodService) Reopen(ctx context.Context, id uint) error {
	return s.setStatus(ctx, id, models.PeriodOpen)
}

func (s *PeriodService) setStatus(ctx context.Context, id uint, status models.PeriodStatus) error {
	if err := s.store.SetPeriodStatus(ctx, id, status); err != nil {
		return fmt.Errorf("period %d: %w", id, err)
	}
	s.log.WithFields(logrus.Fields{"period_id": id, "status": status}).Info("period status changed")
	return nil
}

func checkPeriodKey(year int, t models.PeriodType, number *int) error {
	if year < 1 || year > 9999 {
		return fmt.Errorf("%w: year %d", ErrInvalidPeriod, year)
	}
	if err := models.ValidatePeriodNumber(t, number); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPeriod, err)
	}
	return nil
}
