package handlers

import (
	"net/http"

	"github.com/diewo77/go-energy-kpi/auth"
	"github.com/diewo77/go-energy-kpi/httpx"
	"github.com/diewo77/go-energy-kpi/internal/models"
	"github.com/diewo77/go-energy-kpi/internal/services"
)

// ValueHandler exposes the validation workflow of indicator values.
type ValueHandler struct {
	Workflow *services.WorkflowService
}

// NewValueHandler creates the handler.
func NewValueHandler(w *services.WorkflowService) *ValueHandler {
	return &ValueHandler{Workflow: w}
}

type rejectRequest struct {
	Comment string `json:"comment"`
}

// Create handles POST /values.
func (h *ValueHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	var in services.CreateValueInput
	if err := httpx.DecodeJSON(r, &in); err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Workflow.Create(r.Context(), actor, in)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, v)
}

// Submit handles POST /values/{id}/submit.
func (h *ValueHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.StatusSubmitted, "")
}

// Validate handles POST /values/{id}/validate.
func (h *ValueHandler) Validate(w http.ResponseWriter, r *http.Request) {
	h.transition(w, r, models.StatusValidated, "")
}

// Reject handles POST /values/{id}/reject with a {"comment": "..."} body.
func (h *ValueHandler) Reject(w http.ResponseWriter, r *http.Request) {
	var req rejectRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}
	h.transition(w, r, models.StatusRejected, req.Comment)
}

func (h *ValueHandler) transition(w http.ResponseWriter, r *http.Request, to models.ValueStatus, comment string) {
	actor, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	v, err := h.Workflow.Transition(r.Context(), actor, id, to, comment)
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, v)
}

// History handles GET /values/{id}/history.
func (h *ValueHandler) History(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, err)
		return
	}
	logs, err := h.Workflow.History(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	if logs == nil {
		logs = []models.TransitionLog{}
	}
	httpx.JSON(w, http.StatusOK, logs)
}

// Eligible handles GET /values/eligible?organization=, the submitted values
// the actor may validate.
func (h *ValueHandler) Eligible(w http.ResponseWriter, r *http.Request) {
	actor, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusUnauthorized, "unauthorized", nil)
		return
	}
	values, err := h.Workflow.ListEligible(r.Context(), actor, r.URL.Query().Get("organization"))
	if err != nil {
		writeError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, values)
}
