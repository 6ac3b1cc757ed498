package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/kiranshivaraju/recruitflow/internal/api/response"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// JobCatalog is the read side of the job catalog.
type JobCatalog interface {
	List(ctx context.Context, category string) []models.JobRecord
	Get(ctx context.Context, jobID string) (models.JobRecord, error)
}

// NewListJobsHandler returns the handler for GET /api/v1/jobs. The optional
// category query parameter narrows the listing.
func NewListJobsHandler(c JobCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		jobs := c.List(r.Context(), r.URL.Query().Get("category"))
		response.JSON(w, map[string]any{"jobs": jobs, "total": len(jobs)})
	}
}

// NewGetJobHandler returns the handler for GET /api/v1/jobs/{jobID}.
func NewGetJobHandler(c JobCatalog) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		job, err := c.Get(r.Context(), chi.URLParam(r, "jobID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, job)
	}
}

// NewRankHandler returns the handler for POST /api/v1/jobs/{jobID}/rank. An
// optional candidate_id query parameter asks whether that candidate is a top
// candidate.
func NewRankHandler(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := p.RankJob(r.Context(), chi.URLParam(r, "jobID"), r.URL.Query().Get("candidate_id"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, res)
	}
}
