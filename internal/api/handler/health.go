package handler

import (
	"context"
	"net/http"

	"github.com/kiranshivaraju/recruitflow/internal/api/response"
)

// Pinger is a dependency the health check pings.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewHealthHandler reports "ok" or "degraded" for each named dependency.
// A nil dependency is reported as disabled.
func NewHealthHandler(deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]string, len(deps))
		degraded := false
		for name, dep := range deps {
			switch {
			case dep == nil:
				checks[name] = "disabled"
			case dep.Ping(r.Context()) != nil:
				checks[name] = "degraded"
				degraded = true
			default:
				checks[name] = "ok"
			}
		}

		if degraded {
			response.Error(w, http.StatusServiceUnavailable, "DEGRADED",
				"One or more services degraded", checks)
			return
		}

		response.JSON(w, map[string]any{
			"status":   "ok",
			"services": checks,
		})
	}
}
