// Package apikey mints API keys. The raw key is returned once; callers
// persist only the bcrypt hash and the lookup prefix.
package apikey

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	mw "github.com/kiranshivaraju/recruitflow/internal/api/middleware"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Prefix marks every raw key so leaked keys are easy to grep for.
const Prefix = "rf_"

var ErrInvalidScope = errors.New("invalid scope")

var knownScopes = []string{
	models.ScopeIntake,
	models.ScopePipeline,
	models.ScopeRead,
	models.ScopeAdmin,
}

// ParseScopes splits a comma-separated scope list and rejects unknown scopes.
func ParseScopes(raw string) ([]string, error) {
	var scopes []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.TrimSpace(strings.ToLower(s))
		if s == "" {
			continue
		}
		if !slices.Contains(knownScopes, s) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidScope, s)
		}
		if !slices.Contains(scopes, s) {
			scopes = append(scopes, s)
		}
	}
	if len(scopes) == 0 {
		return nil, fmt.Errorf("%w: at least one scope is required", ErrInvalidScope)
	}
	return scopes, nil
}

// Mint generates a new raw key and the record to store for it.
func Mint(name string, scopes []string) (string, *models.APIKey, error) {
	if strings.TrimSpace(name) == "" {
		return "", nil, errors.New("key name is required")
	}
	for _, s := range scopes {
		if !slices.Contains(knownScopes, s) {
			return "", nil, fmt.Errorf("%w: %q", ErrInvalidScope, s)
		}
	}

	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", nil, fmt.Errorf("generate key: %w", err)
	}
	raw := Prefix + hex.EncodeToString(buf)

	hash, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, fmt.Errorf("hash key: %w", err)
	}

	now := time.Now().UTC()
	return raw, &models.APIKey{
		ID:        uuid.New(),
		Name:      name,
		KeyHash:   string(hash),
		KeyPrefix: raw[:mw.KeyPrefixLen],
		Scopes:    scopes,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
