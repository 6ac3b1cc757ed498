// Package handler implements the HTTP endpoints of the recruiting pipeline.
package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	mw "github.com/kiranshivaraju/recruitflow/internal/api/middleware"
	"github.com/kiranshivaraju/recruitflow/internal/api/response"
	"github.com/kiranshivaraju/recruitflow/internal/pipeline"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/internal/telephony"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Pipeline is the orchestrator surface the handlers drive.
type Pipeline interface {
	Submit(ctx context.Context, sub pipeline.Submission) (*models.Candidate, error)
	Advance(ctx context.Context, candidateID string) (*models.Candidate, error)
	RunStage(ctx context.Context, candidateID string, stage pipeline.Stage) (*models.Candidate, error)
	RankJob(ctx context.Context, jobID, candidateID string) (*pipeline.RankResult, error)
	HandleDocumentEvent(ctx context.Context, key string) (*models.Candidate, error)
	ProcessPhoneResults(ctx context.Context, candidateID string, results telephony.Results) (*models.Candidate, error)
	Reject(ctx context.Context, candidateID, reason string) (*models.Candidate, error)
}

// StatusReader answers status polls.
type StatusReader interface {
	GetStatus(ctx context.Context, candidateID string) (*models.StatusView, error)
}

// CandidateLister lists candidates of a job.
type CandidateLister interface {
	ListCandidates(ctx context.Context, filter store.CandidateFilter) ([]*models.Candidate, int, error)
}

var (
	_ Pipeline     = (*pipeline.Orchestrator)(nil)
	_ StatusReader = (*pipeline.StatusService)(nil)
)

// candidateResponse is a candidate without its resume text.
func candidateResponse(c *models.Candidate) *models.Candidate {
	out := c.Clone()
	out.ResumeText = nil
	return out
}

// NewSubmitHandler returns the handler for POST /api/v1/candidates.
func NewSubmitHandler(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub pipeline.Submission
		if err := response.Decode(r, &sub); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		c, err := p.Submit(r.Context(), sub)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Accepted(w, c.View())
	}
}

// NewStatusHandler returns the handler for GET /api/v1/candidates/{candidateID}/status.
func NewStatusHandler(s StatusReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := s.GetStatus(r.Context(), chi.URLParam(r, "candidateID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, view)
	}
}

// NewAdvanceHandler returns the handler for POST /api/v1/candidates/{candidateID}/advance.
func NewAdvanceHandler(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := p.Advance(r.Context(), chi.URLParam(r, "candidateID"))
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, candidateResponse(c))
	}
}

var runnableStages = map[pipeline.Stage]bool{
	pipeline.StageExtract:  true,
	pipeline.StageScreen:   true,
	pipeline.StageRank:     true,
	pipeline.StagePhone:    true,
	pipeline.StageSchedule: true,
}

// NewRunStageHandler returns the handler for
// POST /api/v1/candidates/{candidateID}/stages/{stage}.
func NewRunStageHandler(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stage := pipeline.Stage(chi.URLParam(r, "stage"))
		if !runnableStages[stage] {
			response.Error(w, http.StatusNotFound, "UNKNOWN_STAGE",
				fmt.Sprintf("Unknown stage %q", stage), nil)
			return
		}

		c, err := p.RunStage(r.Context(), chi.URLParam(r, "candidateID"), stage)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, candidateResponse(c))
	}
}

// NewRejectHandler returns the handler for POST /api/v1/candidates/{candidateID}/reject.
// The body is optional.
func NewRejectHandler(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Reason string `json:"reason"`
		}
		if r.ContentLength != 0 {
			if err := response.Decode(r, &req); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
				return
			}
		}

		reason := strings.TrimSpace(req.Reason)
		if name := mw.KeyName(r); name != "" && reason != "" {
			reason = fmt.Sprintf("%s (by %s)", reason, name)
		}

		c, err := p.Reject(r.Context(), chi.URLParam(r, "candidateID"), reason)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, candidateResponse(c))
	}
}

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// NewListCandidatesHandler returns the handler for GET /api/v1/jobs/{jobID}/candidates.
func NewListCandidatesHandler(l CandidateLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()

		status := models.Status(strings.ToUpper(q.Get("status")))
		if status != "" && !status.Valid() {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				fmt.Sprintf("Unknown status %q", q.Get("status")), nil)
			return
		}

		page, err := queryInt(q.Get("page"), 1)
		if err != nil || page < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "page must be a positive integer", nil)
			return
		}
		limit, err := queryInt(q.Get("limit"), defaultPageLimit)
		if err != nil || limit < 1 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "limit must be a positive integer", nil)
			return
		}
		limit = min(limit, maxPageLimit)

		cands, total, err := l.ListCandidates(r.Context(), store.CandidateFilter{
			JobID:  chi.URLParam(r, "jobID"),
			Status: status,
			Page:   page,
			Limit:  limit,
		})
		if err != nil {
			writeError(w, r, err)
			return
		}

		out := make([]*models.Candidate, len(cands))
		for i, c := range cands {
			out[i] = candidateResponse(c)
		}
		response.Collection(w, out, response.NewPaginationMeta(page, limit, total))
	}
}

func queryInt(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}
