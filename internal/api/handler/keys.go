package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/kiranshivaraju/recruitflow/internal/api/response"
	"github.com/kiranshivaraju/recruitflow/internal/apikey"
	"github.com/kiranshivaraju/recruitflow/internal/store"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// KeyCreator persists minted API keys.
type KeyCreator interface {
	CreateAPIKey(ctx context.Context, key *models.APIKey) error
}

type createKeyRequest struct {
	Name   string   `json:"name"`
	Scopes []string `json:"scopes"`
}

type createKeyResponse struct {
	Key    string         `json:"key"`
	APIKey *models.APIKey `json:"api_key"`
}

// NewCreateKeyHandler returns the handler for POST /api/v1/admin/keys. The raw
// key appears in this response only.
func NewCreateKeyHandler(kc KeyCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createKeyRequest
		if err := response.Decode(r, &req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}
		if len(req.Scopes) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "scopes is required", nil)
			return
		}

		raw, key, err := apikey.Mint(req.Name, req.Scopes)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
			return
		}

		if err := kc.CreateAPIKey(r.Context(), key); err != nil {
			if errors.Is(err, store.ErrDuplicateKey) {
				response.Error(w, http.StatusConflict, "DUPLICATE_KEY", "Key collision, retry", nil)
				return
			}
			writeError(w, r, err)
			return
		}
		response.Created(w, createKeyResponse{Key: raw, APIKey: key})
	}
}
