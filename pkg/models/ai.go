// Package models contains shared data models used across the recruitflow codebase.
package models

import (
	"context"
	"errors"
)

// AIProvider is the text-generation backend shared by resume screening and
// interview script generation. Never call specific AI providers directly;
// always inject this interface.
type AIProvider interface {
	// Complete sends a single prompt and returns the model's free-form text.
	Complete(ctx context.Context, req CompletionRequest) (string, error)
	// Name returns the provider identifier (e.g., "ollama", "openai").
	Name() string
}

// CompletionRequest is the input to one text-generation call.
type CompletionRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float32
}

// Provider error contract. Implementations wrap these so callers can tell a
// transient backend problem from a bad answer.
var (
	ErrProviderUnavailable = errors.New("ai provider unavailable")
	ErrInferenceTimeout    = errors.New("ai inference timeout")
)
