package handler

import (
	"net/http"

	"github.com/kiranshivaraju/recruitflow/internal/api/response"
	"github.com/kiranshivaraju/recruitflow/internal/telephony"
)

// NewDocumentEventHandler returns the handler for POST /api/v1/documents/events,
// called when a resume lands in the document store.
func NewDocumentEventHandler(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Key string `json:"key"`
		}
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		c, err := p.HandleDocumentEvent(r.Context(), req.Key)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.Accepted(w, c.View())
	}
}

// phoneResultsRequest is the contact flow's completion callback. The
// candidate id travels as a contact attribute.
type phoneResultsRequest struct {
	CandidateID string `json:"candidateId"`
	telephony.Results
}

// NewPhoneResultsHandler returns the handler for POST /api/v1/phone-interviews/results.
func NewPhoneResultsHandler(p Pipeline) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req phoneResultsRequest
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		if req.CandidateID == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "candidateId is required", nil)
			return
		}

		c, err := p.ProcessPhoneResults(r.Context(), req.CandidateID, req.Results)
		if err != nil {
			writeError(w, r, err)
			return
		}
		response.JSON(w, candidateResponse(c))
	}
}
