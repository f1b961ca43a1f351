package handlers

import (
	"errors"
	"net/http"

	"github.com/diewo77/go-energy-kpi/httpx"
	"github.com/diewo77/go-energy-kpi/internal/services"
	"github.com/diewo77/go-energy-kpi/validation"
)

// kinds lists domain errors in match order with their status.
var kinds = []struct {
	err    error
	status int
}{
	{httpx.ErrInvalidJSON, http.StatusBadRequest},
	{services.ErrInvalidInput, http.StatusBadRequest},
	{services.ErrInvalidSelection, http.StatusBadRequest},
	{services.ErrInvalidPeriod, http.StatusBadRequest},
	{services.ErrMissingComment, http.StatusUnprocessableEntity},
	{services.ErrUnknownScope, http.StatusUnprocessableEntity},
	{services.ErrUnauthorized, http.StatusForbidden},
	{services.ErrNotFound, http.StatusNotFound},
	{services.ErrInvalidTransition, http.StatusConflict},
	{services.ErrPeriodClosed, http.StatusConflict},
}

// StatusFor maps a service error to an HTTP status and a stable error code.
// Unknown errors are internal.
func StatusFor(err error) (int, string) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.status, k.err.Error()
		}
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError renders err with StatusFor. Field violations are sent as details.
func writeError(w http.ResponseWriter, err error) {
	status, code := StatusFor(err)
	var details any
	var v validation.Violations
	if errors.As(err, &v) {
		details = v
	}
	httpx.JSONError(w, status, code, details)
}
