package services

import (
	"errors"

	"github.com/diewo77/go-energy-kpi/internal/store"
)

// Domain errors. Callers match them with errors.Is; anything else returned
// by a service is an infrastructure failure.
var (
	ErrInvalidTransition = errors.New("invalid_transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrMissingComment    = errors.New("missing_comment")
	ErrInvalidSelection  = errors.New("invalid_selection")
	ErrUnknownScope      = errors.New("unknown_scope")
	ErrInvalidPeriod     = errors.New("invalid_period")
	ErrPeriodClosed      = errors.New("period_closed")
	ErrInvalidInput      = errors.New("invalid_input")
	ErrNotFound          = store.ErrNotFound
)
