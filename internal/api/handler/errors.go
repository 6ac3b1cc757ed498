package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/kiranshivaraju/recruitflow/internal/ai"
	mw "github.com/kiranshivaraju/recruitflow/internal/api/middleware"
	"github.com/kiranshivaraju/recruitflow/internal/api/response"
	"github.com/kiranshivaraju/recruitflow/internal/catalog"
	"github.com/kiranshivaraju/recruitflow/internal/pipeline"
)

// writeError maps a pipeline error to an HTTP status and error code.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, catalog.ErrJobNotFound) {
		response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Job not found", nil)
		return
	}

	var se *pipeline.StageError
	if !errors.As(err, &se) {
		slog.Error("request failed", "request_id", mw.RequestID(r), "path", r.URL.Path, "error", err)
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
		return
	}

	msg := se.Error()
	if se.Err != nil {
		msg = se.Err.Error()
	}
	details := map[string]string{"stage": string(se.Stage)}
	if se.CandidateID != "" {
		details["candidate_id"] = se.CandidateID
	}

	switch se.Kind {
	case pipeline.KindValidation:
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", msg, details)
	case pipeline.KindNotFound:
		response.Error(w, http.StatusNotFound, "CANDIDATE_NOT_FOUND", "Candidate not found", details)
	case pipeline.KindUnsupportedFormat:
		response.Error(w, http.StatusUnprocessableEntity, "UNSUPPORTED_FORMAT", msg, details)
	case pipeline.KindMissingContactInfo:
		response.Error(w, http.StatusUnprocessableEntity, "MISSING_CONTACT_INFO", msg, details)
	case pipeline.KindInvalidState:
		response.Error(w, http.StatusConflict, "INVALID_STATE", msg, details)
	case pipeline.KindExternalCapability:
		slog.Error("external capability failed", "request_id", mw.RequestID(r), "path", r.URL.Path, "error", err)
		if errors.Is(err, ai.ErrInferenceTimeout) || errors.Is(err, context.DeadlineExceeded) {
			response.Error(w, http.StatusGatewayTimeout, "CAPABILITY_TIMEOUT",
				"An external service took too long to respond", details)
			return
		}
		response.Error(w, http.StatusBadGateway, "CAPABILITY_UNAVAILABLE",
			"An external service failed", details)
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}
