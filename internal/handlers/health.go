package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/diewo77/go-energy-kpi/httpx"
)

// Pinger is a dependency the health check probes.
type Pinger func(ctx context.Context) error

// Health returns 200 when every check passes, 503 otherwise.
func Health(checks map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		result := make(map[string]string, len(checks))
		for name, check := range checks {
			if err := check(ctx); err != nil {
				status = http.StatusServiceUnavailable
				result[name] = err.Error()
				continue
			}
			result[name] = "ok"
		}
		httpx.JSON(w, status, map[string]any{"checks": result})
	}
}
