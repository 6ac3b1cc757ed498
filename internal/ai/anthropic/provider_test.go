package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/ai/anthropic"
	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okMessage = `{
	"id": "msg_01",
	"type": "message",
	"role": "assistant",
	"model": "claude-test",
	"content": [{"type": "text", "text": "Hello "}, {"type": "text", "text": "there"}],
	"stop_reason": "end_turn",
	"usage": {"input_tokens": 3, "output_tokens": 2}
}`

func TestProvider_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "sk-ant-test", r.Header.Get("x-api-key"))
		assert.NotEmpty(t, r.Header.Get("anthropic-version"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "claude-test", body["model"])
		assert.EqualValues(t, 2000, body["max_tokens"])
		assert.NotNil(t, body["system"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okMessage))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "sk-ant-test", Model: "claude-test", BaseURL: srv.URL})
	out, err := p.Complete(context.Background(), models.CompletionRequest{
		System:      "You are a recruiter.",
		Prompt:      "hi",
		MaxTokens:   2000,
		Temperature: 0.7,
	})
	require.NoError(t, err)
	assert.Equal(t, "Hello there", out)
	assert.Equal(t, "anthropic", p.Name())
}

func TestProvider_DefaultMaxTokens(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.EqualValues(t, 1024, body["max_tokens"])
		_, hasSystem := body["system"]
		assert.False(t, hasSystem)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okMessage))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", Model: "claude-test", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "hi"})
	require.NoError(t, err)
}

func TestProvider_Overloaded(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(529)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
	assert.Equal(t, 1, calls, "the SDK must not retry on its own")
}

func TestProvider_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
}

func TestProvider_BadRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"type":"error","error":{"type":"invalid_request_error","message":"max_tokens too large"}}`))
	}))
	defer srv.Close()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "hi"})
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrProviderUnavailable)
	assert.NotErrorIs(t, err, models.ErrInferenceTimeout)
	assert.Contains(t, err.Error(), "status 400")
}

func TestProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", Model: "m", BaseURL: srv.URL})
	_, err := p.Complete(ctx, models.CompletionRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, models.ErrInferenceTimeout)
}

func TestProvider_Unreachable(t *testing.T) {
	p := anthropic.NewProvider(config.AnthropicConfig{APIKey: "k", Model: "m", BaseURL: "http://127.0.0.1:1"})
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "hi"})
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
}
