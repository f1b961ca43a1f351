package policy

import (
	"context"

	"github.com/diewo77/go-energy-kpi/gate"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/sirupsen/logrus"
)

// IndicatorValuePolicy decides on a specific *models.IndicatorValue once the
// profile permission is granted.
//
//   - view, create, submit: the actor contributes to the value's organization
//     and, if site-restricted, to its site
//   - validate, reject: the value's process is assigned to the actor, the
//     site restriction holds and the organization matches when the actor has one
type IndicatorValuePolicy struct {
	assignments AssignmentResolver
	log         logrus.FieldLogger
}

// NewIndicatorValuePolicy creates the policy.
func NewIndicatorValuePolicy(assignments AssignmentResolver, log logrus.FieldLogger) *IndicatorValuePolicy {
	return &IndicatorValuePolicy{assignments: assignments, log: log}
}

// Can implements gate.Policy. Lookup failures deny.
func (p *IndicatorValuePolicy) Can(ctx context.Context, userID uint, action gate.Action, resource any) bool {
	if resource == nil {
		return true
	}
	v, ok := resource.(*models.IndicatorValue)
	if !ok {
		return false
	}
	a, err := p.assignments.Resolve(ctx, userID)
	if err != nil {
		p.log.WithError(err).WithField("user_id", userID).Error("resolve assignment")
		return false
	}
	if a == nil {
		return false
	}

	switch action {
	case gate.ActionView, gate.ActionCreate, gate.ActionSubmit:
		return a.Organization == v.Organization && a.SiteAllows(v.SiteName)
	case gate.ActionValidate, gate.ActionReject:
		if a.Organization != "" && a.Organization != v.Organization {
			return false
		}
		return a.HasProcess(v.ProcessCode) && a.SiteAllows(v.SiteName)
	}
	return false
}
