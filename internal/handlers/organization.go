package handlers

import (
	"context"
	"net/http"

	"github.com/diewo77/go-energy-kpi/gate"
	"github.com/diewo77/go-energy-kpi/httpx"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/services"
)

// ProfileChecker answers profile-only permission checks for the request's actor.
type ProfileChecker interface {
	CanProfile(ctx context.Context, action gate.Action, resourceType string) bool
}

// OrganizationHandler serves the read side of an organization: its scope,
// consolidated indicators, indicator selection and collection periods.
type OrganizationHandler struct {
	Hierarchy    *services.HierarchyService
	Consolidator *services.ConsolidationService
	Catalog      *services.CatalogService
	Periods      *services.PeriodService
	Gate         ProfileChecker
}

// NewOrganizationHandler creates the handler.
func NewOrganizationHandler(h *services.HierarchyService, c *services.ConsolidationService, cat *services.CatalogService, p *services.PeriodService, g ProfileChecker) *OrganizationHandler {
	return &OrganizationHandler{Hierarchy: h, Consolidator: c, Catalog: cat, Periods: p, Gate: g}
}

type scopeResponse struct {
	Organization string             `json:"organization"`
	Complex      bool               `json:"complex"`
	Scope        models.ScopeFilter `json:"scope"`
	Level        models.ScopeLevel  `json:"level"`
	Nodes        []string           `json:"nodes"`
}

// Scope resolves ?filiere=&filiale= against the organization's hierarchy.
func (h *OrganizationHandler) Scope(w http.ResponseWriter, r *http.Request) {
	org, err := h.Hierarchy.Organization(r.Context(), r.PathValue("org"))
	if err != nil {
		writeError(w, err)
		return
	}
	scope, err := services.ResolveScope(org, selection(r))
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, scopeResponse{
		Organization: org.Name,
		Complex:      org.IsComplex(),
		Scope:        scope,
		Level:        scope.NodeLevel(),
		Nodes:        services.NewTree(org).Nodes(scope),
	})
}

// Consolidation returns the consolidated rows for ?year=, narrowed by
// ?filiere=&filiale=. With ?audit=true submitted values are included, which
// needs the consolidation:consolidate permission.
func (h *OrganizationHandler) Consolidation(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}
	audit := truthy(r.URL.Query().Get("audit"))
	if audit && !h.Gate.CanProfile(r.Context(), gate.ActionConsolidate, models.ResourceConsolidation) {
		httpx.JSONError(w, http.StatusForbidden, "forbidden", nil)
		return
	}
	scope, err := h.Hierarchy.ResolveScope(r.Context(), r.PathValue("org"), selection(r))
	if err != nil {
		writeError(w, err)
		return
	}

	var rows []models.ConsolidatedRow
	if audit {
		rows, err = h.Consolidator.ConsolidateAudit(r.Context(), scope, year)
	} else {
		rows, err = h.Consolidator.Consolidate(r.Context(), scope, year)
	}
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, rows)
}

// Indicators lists the indicators selected by the organization.
func (h *OrganizationHandler) Indicators(w http.ResponseWriter, r *http.Request) {
	indicators, err := h.Catalog.ListOrganizationIndicators(r.Context(), r.PathValue("org"))
	if err != nil {
		writeError(w, err)
		return
	}
	if indicators == nil {
		indicators = []models.Indicator{}
	}
	httpx.JSON(w, http.StatusOK, indicators)
}

// Period resolves /periods/{year}/{type}[/{number}] to a collection period.
func (h *OrganizationHandler) Period(w http.ResponseWriter, r *http.Request) {
	year, err := intParam(r, "year")
	if err != nil {
		writeError(w, err)
		return
	}
	var number *int
	if r.PathValue("number") != "" {
		n, err := intParam(r, "number")
		if err != nil {
			writeError(w, err)
			return
		}
		number = &n
	}
	p, err := h.Periods.ResolvePeriod(r.Context(), r.PathValue("org"), year, models.PeriodType(r.PathValue("type")), number)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}
