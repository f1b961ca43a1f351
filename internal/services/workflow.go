package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/go-energy-kpi/gate"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/store"
	"github.com/diewo77/go-energy-kpi/validation"
	"github.com/sirupsen/logrus"
	"gorm.io/datatypes"
)

// Authorizer checks a capability. *gate.HybridGate[uint] satisfies it.
type Authorizer interface {
	Authorize(ctx context.Context, user uint, action gate.Action, resourceType string, resource any) error
}

// WorkflowService drives indicator values through
// draft -> submitted -> validated | rejected.
type WorkflowService struct {
	values    store.ValueStore
	hierarchy store.HierarchyStore
	catalog   store.CatalogStore
	periods   *PeriodService
	auth      Authorizer
	log       logrus.FieldLogger
	now       func() time.Time
}

// NewWorkflowService wires the state machine.
func NewWorkflowService(values store.ValueStore, hierarchy store.HierarchyStore, catalog store.CatalogStore, periods store.PeriodStore, auth Authorizer, log logrus.FieldLogger) *WorkflowService {
	return &WorkflowService{
		values:    values,
		hierarchy: hierarchy,
		catalog:   catalog,
		periods:   NewPeriodService(periods, log),
		auth:      auth,
		log:       log,
		now:       time.Now,
	}
}

// CreateValueInput is a contributor's submission. Set Site alone, Filiale
// with its Filiere, Filiere alone, or none for an organization-level value.
type CreateValueInput struct {
	IndicatorCode string            `json:"indicator_code" validate:"required,max=50"`
	Organization  string            `json:"organization" validate:"required,notblank,max=255"`
	Filiere       *string           `json:"filiere,omitempty" validate:"omitempty,notblank,max=255"`
	Filiale       *string           `json:"filiale,omitempty" validate:"omitempty,notblank,max=255"`
	Site          *string           `json:"site,omitempty" validate:"omitempty,notblank,max=255"`
	Year          int               `json:"year" validate:"min=1,max=9999"`
	PeriodType    models.PeriodType `json:"period_type" validate:"required,oneof=month quarter year"`
	PeriodNumber  *int              `json:"period_number,omitempty"`
	Value         *float64          `json:"value"`
	Comment       string            `json:"comment,omitempty"`
	// Submit creates the value directly in the submitted state.
	Submit bool `json:"submit"`
}

// Create stores a new value in draft, or submitted when in.Submit is set.
// A rejected value is corrected by creating a new one.
func (s *WorkflowService) Create(ctx context.Context, actor uint, in CreateValueInput) (*models.IndicatorValue, error) {
	if v := validation.Struct(in); !v.Empty() {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, v)
	}
	if !models.ScopeFieldsValid(in.Filiere, in.Filiale, in.Site) {
		return nil, fmt.Errorf("%w: set site alone, filiale with its filiere, or filiere alone", ErrInvalidInput)
	}

	ind, err := s.selectedIndicator(ctx, in.Organization, in.IndicatorCode)
	if err != nil {
		return nil, err
	}
	org, err := s.hierarchy.LoadOrganization(ctx, in.Organization)
	if err != nil {
		return nil, fmt.Errorf("organization %q: %w", in.Organization, err)
	}
	if err := checkNode(NewTree(org), in); err != nil {
		return nil, err
	}
	period, err := s.periods.ResolvePeriod(ctx, org.Name, in.Year, in.PeriodType, in.PeriodNumber)
	if err != nil {
		return nil, err
	}
	if period.IsClosed() {
		return nil, fmt.Errorf("%w: period %d", ErrPeriodClosed, period.ID)
	}

	v := &models.IndicatorValue{
		IndicatorCode: ind.Code,
		ProcessCode:   ind.ProcessCode,
		Organization:  org.Name,
		FiliereName:   trimmed(in.Filiere),
		FilialeName:   trimmed(in.Filiale),
		SiteName:      trimmed(in.Site),
		PeriodID:      period.ID,
		Year:          period.Year,
		PeriodType:    period.PeriodType,
		PeriodNumber:  period.PeriodNumber,
		Value:         in.Value,
		Unit:          ind.Unit,
		Status:        models.StatusDraft,
		Comment:       strings.TrimSpace(in.Comment),
	}
	if err := s.authorize(ctx, actor, gate.ActionCreate, v); err != nil {
		return nil, err
	}
	if in.Submit {
		if err := s.authorize(ctx, actor, gate.ActionSubmit, v); err != nil {
			return nil, err
		}
		now := s.now().UTC()
		v.Status = models.StatusSubmitted
		v.SubmittedBy = &actor
		v.SubmittedAt = &now
	}

	if in.Submit {
		if err := s.values.CreateValueWithLog(ctx, v, transitionEntry(v, models.StatusDraft, models.StatusSubmitted, actor, "")); err != nil {
			return nil, fmt.Errorf("create value: %w", err)
		}
	} else if err := s.values.CreateValue(ctx, v); err != nil {
		return nil, fmt.Errorf("create value: %w", err)
	}
	s.log.WithFields(logrus.Fields{
		"value_id":     v.ID,
		"indicator":    v.IndicatorCode,
		"organization": v.Organization,
		"status":       v.Status,
		"actor_id":     actor,
	}).Info("value created")
	return v, nil
}

// Submit moves a draft to submitted.
func (s *WorkflowService) Submit(ctx context.Context, actor, id uint) (*models.IndicatorValue, error) {
	return s.Transition(ctx, actor, id, models.StatusSubmitted, "")
}

// Validate moves a submitted value to validated.
func (s *WorkflowService) Validate(ctx context.Context, actor, id uint) (*models.IndicatorValue, error) {
	return s.Transition(ctx, actor, id, models.StatusValidated, "")
}

// Reject moves a submitted value to rejected. The comment is mandatory.
func (s *WorkflowService) Reject(ctx context.Context, actor, id uint, comment string) (*models.IndicatorValue, error) {
	return s.Transition(ctx, actor, id, models.StatusRejected, comment)
}

// Transition applies one state change. Checks run in a fixed order: the
// transition table, the rejection comment, the actor's capability, the
// period status, then the compare-and-swap in the store. The audit entry is
// written in the same transaction as the swap. Losing the swap to a
// concurrent transition reports ErrInvalidTransition.
func (s *WorkflowService) Transition(ctx context.Context, actor, id uint, to models.ValueStatus, comment string) (*models.IndicatorValue, error) {
	v, err := s.values.GetValue(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("value %d: %w", id, err)
	}
	from := v.Status
	if !models.CanTransition(from, to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	if to == models.StatusRejected && !models.HasComment(comment) {
		return nil, ErrMissingComment
	}
	if err := s.authorize(ctx, actor, actionFor(to), v); err != nil {
		return nil, err
	}
	if to == models.StatusValidated || to == models.StatusRejected {
		period, err := s.periods.store.GetPeriod(ctx, v.PeriodID)
		if err != nil {
			return nil, fmt.Errorf("period %d: %w", v.PeriodID, err)
		}
		if period.IsClosed() {
			return nil, fmt.Errorf("%w: period %d", ErrPeriodClosed, period.ID)
		}
	}

	comment = strings.TrimSpace(comment)
	ok, err := s.values.TransitionValue(ctx, id, from, to, store.TransitionPatch{
		ActorID: actor,
		At:      s.now().UTC(),
		Comment: comment,
		Log:     transitionEntry(v, from, to, actor, comment),
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: value %d is no longer %s", ErrInvalidTransition, id, from)
	}
	s.log.WithFields(logrus.Fields{
		"value_id":  v.ID,
		"indicator": v.IndicatorCode,
		"from":      from,
		"to":        to,
		"actor_id":  actor,
	}).Info("value transitioned")
	return s.values.GetValue(ctx, id)
}

// ListEligible returns the submitted values of an organization the actor may
// validate.
func (s *WorkflowService) ListEligible(ctx context.Context, actor uint, organization string) ([]models.IndicatorValue, error) {
	values, err := s.values.GetValues(ctx, store.ValueQuery{
		Organization: organization,
		Statuses:     []models.ValueStatus{models.StatusSubmitted},
	})
	if err != nil {
		return nil, err
	}
	eligible := make([]models.IndicatorValue, 0, len(values))
	for i := range values {
		err := s.authorize(ctx, actor, gate.ActionValidate, &values[i])
		switch {
		case err == nil:
			eligible = append(eligible, values[i])
		case !errors.Is(err, ErrUnauthorized):
			return nil, err
		}
	}
	return eligible, nil
}

// History returns the transition log of a value, oldest first.
func (s *WorkflowService) History(ctx context.Context, id uint) ([]models.TransitionLog, error) {
	if _, err := s.values.GetValue(ctx, id); err != nil {
		return nil, fmt.Errorf("value %d: %w", id, err)
	}
	return s.values.ListTransitionLogs(ctx, id)
}

func (s *WorkflowService) authorize(ctx context.Context, actor uint, action gate.Action, v *models.IndicatorValue) error {
	err := s.auth.Authorize(ctx, actor, action, models.ResourceIndicatorValue, v)
	if err == nil {
		return nil
	}
	if errors.Is(err, gate.ErrUnauthorized) {
		return fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}
	return err
}

// transitionEntry builds the audit entry of one transition. The store fills
// in ValueID.
func transitionEntry(v *models.IndicatorValue, from, to models.ValueStatus, actor uint, comment string) *models.TransitionLog {
	return &models.TransitionLog{
		FromStatus: from,
		ToStatus:   to,
		ActorID:    actor,
		Comment:    comment,
		Details: datatypes.JSONMap{
			"indicator_code": v.IndicatorCode,
			"organization":   v.Organization,
			"period_id":      v.PeriodID,
		},
	}
}

// selectedIndicator loads an indicator only if the organization tracks it.
func (s *WorkflowService) selectedIndicator(ctx context.Context, organization, code string) (*models.Indicator, error) {
	selected, err := s.catalog.ListSelectedIndicators(ctx, organization)
	if err != nil {
		return nil, fmt.Errorf("list indicators: %w", err)
	}
	for i := range selected {
		if selected[i].Code == code {
			return &selected[i], nil
		}
	}
	return nil, fmt.Errorf("%w: indicator %q not selected by %q", ErrNotFound, code, organization)
}

func checkNode(tree *Tree, in CreateValueInput) error {
	switch {
	case in.Site != nil:
		if !tree.HasSite(strings.TrimSpace(*in.Site)) {
			return fmt.Errorf("%w: site %q", ErrNotFound, *in.Site)
		}
	case in.Filiale != nil:
		filiere, filiale := strings.TrimSpace(*in.Filiere), strings.TrimSpace(*in.Filiale)
		if !tree.HasFiliale(filiere, filiale) {
			return fmt.Errorf("%w: filiale %q of filière %q", ErrNotFound, filiale, filiere)
		}
	case in.Filiere != nil:
		if !tree.HasFiliere(strings.TrimSpace(*in.Filiere)) {
			return fmt.Errorf("%w: filière %q", ErrNotFound, *in.Filiere)
		}
	}
	return nil
}

func actionFor(to models.ValueStatus) gate.Action {
	switch to {
	case models.StatusSubmitted:
		return gate.ActionSubmit
	case models.StatusValidated:
		return gate.ActionValidate
	default:
		return gate.ActionReject
	}
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
