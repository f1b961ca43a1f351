package handlers

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/diewo77/go-energy-kpi/internal/services"
)

// pathID parses a positive numeric path segment.
func pathID(r *http.Request, name string) (uint, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("%w: %s %q", services.ErrInvalidInput, name, raw)
	}
	return uint(id), nil
}

// intParam parses a required integer from the path or, when absent there,
// from the query string.
func intParam(r *http.Request, name string) (int, error) {
	raw := r.PathValue(name)
	if raw == "" {
		raw = r.URL.Query().Get(name)
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q", services.ErrInvalidInput, name, raw)
	}
	return n, nil
}

// selection reads the filiere/filiale query parameters.
func selection(r *http.Request) services.Selection {
	q := r.URL.Query()
	return services.Selection{
		Filiere: strings.TrimSpace(q.Get("filiere")),
		Filiale: strings.TrimSpace(q.Get("filiale")),
	}
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}
