package handlers

import (
	"net/http"

	"github.com/diewo77/go-energy-kpi/auth"
	"github.com/diewo77/go-energy-kpi/gate"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/policy"
)

// RouterConfig holds everything the routes need.
type RouterConfig struct {
	AuthGate     *policy.AuthGate
	Verify       auth.UserVerifier
	Health       map[string]Pinger
	Organization *OrganizationHandler
	Values       *ValueHandler
	AdminUsers   *AdminUserHandler
}

// Routes registers every endpoint on a new mux. The caller adds the
// global middleware (request ID, logging, auth.Middleware).
func (c *RouterConfig) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	// Public
	mux.Handle("GET /healthz", Health(c.Health))

	// Organization read side
	oh := c.Organization
	mux.Handle("GET /organizations/{org}/scope",
		c.requirePermission(models.ResourceConsolidation, gate.ActionView, oh.Scope))
	mux.Handle("GET /organizations/{org}/consolidation",
		c.requirePermission(models.ResourceConsolidation, gate.ActionView, oh.Consolidation))
	mux.Handle("GET /organizations/{org}/indicators",
		c.requirePermission(models.ResourceIndicator, gate.ActionList, oh.Indicators))
	mux.Handle("GET /organizations/{org}/periods/{year}/{type}",
		c.requirePermission(models.ResourcePeriod, gate.ActionView, oh.Period))
	mux.Handle("GET /organizations/{org}/periods/{year}/{type}/{number}",
		c.requirePermission(models.ResourcePeriod, gate.ActionView, oh.Period))

	// Indicator values. Mutations are authorized per value by the workflow.
	vh := c.Values
	mux.Handle("POST /values", c.requireAuth(http.HandlerFunc(vh.Create)))
	mux.Handle("POST /values/{id}/submit", c.requireAuth(http.HandlerFunc(vh.Submit)))
	mux.Handle("POST /values/{id}/validate", c.requireAuth(http.HandlerFunc(vh.Validate)))
	mux.Handle("POST /values/{id}/reject", c.requireAuth(http.HandlerFunc(vh.Reject)))
	mux.Handle("GET /values/eligible",
		c.requirePermission(models.ResourceIndicatorValue, gate.ActionList, vh.Eligible))
	mux.Handle("GET /values/{id}/history",
		c.requirePermission(models.ResourceIndicatorValue, gate.ActionView, vh.History))

	// Admin
	if ah := c.AdminUsers; ah != nil {
		mux.Handle("GET /admin/users", c.requireAdmin(ah.List))
		mux.Handle("POST /admin/users/{id}/profile", c.requireAdmin(ah.AssignProfile))
		mux.Handle("PUT /admin/users/{id}/processes", c.requireAdmin(ah.AssignProcesses))
	}
	return mux
}

func (c *RouterConfig) requireAuth(next http.Handler) http.Handler {
	return auth.RequireAuth(c.Verify)(next)
}

func (c *RouterConfig) requirePermission(resourceType string, action gate.Action, h http.HandlerFunc) http.Handler {
	return c.requireAuth(c.AuthGate.RequirePermission(resourceType, action)(h))
}

func (c *RouterConfig) requireAdmin(h http.HandlerFunc) http.Handler {
	return c.requireAuth(c.AuthGate.RequireAdmin()(h))
}
