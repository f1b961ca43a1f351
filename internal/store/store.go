// Package store defines the persistence ports used by the indicator services
// and their gorm implementation. The services only see these interfaces; any
// backend that honors the compare-and-swap contract of TransitionValue can be
// plugged in (see mongostore).
package store

import (
	"context"
	"errors"
	"time"

	"github.com/diewo77/go-energy-kpi/internal/models"
)

// ErrNotFound is returned when a looked-up record does not exist.
var ErrNotFound = errors.New("not_found")

// ValueQuery filters indicator values. Empty fields do not filter.
type ValueQuery struct {
	Organization string
	Codes        []string
	Years        []int
	Statuses     []models.ValueStatus
	ProcessCodes []string
}

// TransitionPatch carries the side effects of a transition.
// Log, when set, is written in the same transaction as the status change
// and gets the value's ID.
type TransitionPatch struct {
	ActorID uint
	At      time.Time
	Comment string
	Log     *models.TransitionLog
}

// ValueStore is the adapter over indicator submissions.
type ValueStore interface {
	CreateValue(ctx context.Context, v *models.IndicatorValue) error
	// CreateValueWithLog inserts v and its first audit entry atomically.
	CreateValueWithLog(ctx context.Context, v *models.IndicatorValue, l *models.TransitionLog) error
	GetValue(ctx context.Context, id uint) (*models.IndicatorValue, error)
	GetValues(ctx context.Context, q ValueQuery) ([]models.IndicatorValue, error)
	// GetValidatedValues returns validated values of the scope's organization
	// for the given year. Node narrowing is left to the caller.
	GetValidatedValues(ctx context.Context, codes []string, scope models.ScopeFilter, year int) ([]models.IndicatorValue, error)
	// TransitionValue moves the value from -> to only if its status is still
	// from. It reports false, with a nil error, when the precondition failed.
	// A failed log write rolls the status change back.
	TransitionValue(ctx context.Context, id uint, from, to models.ValueStatus, patch TransitionPatch) (bool, error)
	ListTransitionLogs(ctx context.Context, valueID uint) ([]models.TransitionLog, error)
}

// HierarchyStore loads organization trees.
type HierarchyStore interface {
	// LoadOrganization returns the organization with filières, filiales and sites.
	LoadOrganization(ctx context.Context, name string) (*models.Organization, error)
}

// CatalogStore reads and maintains the indicator catalog.
type CatalogStore interface {
	ListSelectedIndicators(ctx context.Context, organization string) ([]models.Indicator, error)
	ListProcessIndicators(ctx context.Context, processCode string) ([]models.Indicator, error)
	GetIndicator(ctx context.Context, code string) (*models.Indicator, error)
	SelectIndicators(ctx context.Context, organization string, codes []string) error
}

// PeriodStore persists collection periods.
type PeriodStore interface {
	FindPeriod(ctx context.Context, organization string, year int, t models.PeriodType, number *int) (*models.CollectionPeriod, error)
	GetPeriod(ctx context.Context, id uint) (*models.CollectionPeriod, error)
	CreatePeriod(ctx context.Context, p *models.CollectionPeriod) error
	SetPeriodStatus(ctx context.Context, id uint, status models.PeriodStatus) error
}

// ConsolidatedStore reads targets and pre-aggregated values.
type ConsolidatedStore interface {
	ListConsolidatedValues(ctx context.Context, organization string, level models.ScopeLevel, years []int) ([]models.ConsolidatedValue, error)
	ListTargets(ctx context.Context, organization string, year int) ([]models.IndicatorTarget, error)
}
