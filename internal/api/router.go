package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	mw "github.com/kiranshivaraju/recruitflow/internal/api/middleware"
	"github.com/kiranshivaraju/recruitflow/internal/api/response"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth      *mw.Auth
	RateLimit *mw.RateLimit

	HealthHandler http.HandlerFunc

	SubmitHandler    http.HandlerFunc
	StatusHandler    http.HandlerFunc
	AdvanceHandler   http.HandlerFunc
	RunStageHandler  http.HandlerFunc
	RejectHandler    http.HandlerFunc
	RankHandler      http.HandlerFunc
	ListCandidates   http.HandlerFunc
	ListJobs         http.HandlerFunc
	GetJob           http.HandlerFunc
	DocumentEvent    http.HandlerFunc
	PhoneResults     http.HandlerFunc
	CreateKeyHandler http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))

	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)
		r.Use(deps.RateLimit.Limit)

		r.With(deps.Auth.RequireScope(models.ScopeIntake)).
			Post("/api/v1/candidates", orNotImplemented(deps.SubmitHandler))

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(models.ScopeRead))

			r.Get("/api/v1/candidates/{candidateID}/status", orNotImplemented(deps.StatusHandler))
			r.Get("/api/v1/jobs", orNotImplemented(deps.ListJobs))
			r.Get("/api/v1/jobs/{jobID}", orNotImplemented(deps.GetJob))
			r.Get("/api/v1/jobs/{jobID}/candidates", orNotImplemented(deps.ListCandidates))
		})

		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(models.ScopePipeline))

			r.Post("/api/v1/candidates/{candidateID}/advance", orNotImplemented(deps.AdvanceHandler))
			r.Post("/api/v1/candidates/{candidateID}/stages/{stage}", orNotImplemented(deps.RunStageHandler))
			r.Post("/api/v1/jobs/{jobID}/rank", orNotImplemented(deps.RankHandler))
			r.Post("/api/v1/documents/events", orNotImplemented(deps.DocumentEvent))
			r.Post("/api/v1/phone-interviews/results", orNotImplemented(deps.PhoneResults))
		})

		// Admin routes
		r.Group(func(r chi.Router) {
			r.Use(deps.Auth.RequireScope(models.ScopeAdmin))

			r.Post("/api/v1/candidates/{candidateID}/reject", orNotImplemented(deps.RejectHandler))
			r.Post("/api/v1/admin/keys", orNotImplemented(deps.CreateKeyHandler))
		})
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
