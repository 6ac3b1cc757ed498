package openai_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/kiranshivaraju/recruitflow/internal/ai/openai"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompatibleProvider_Complete(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","object":"chat.completion","choices":[{"index":0,"message":{"role":"assistant","content":"{\"score\": 75}"},"finish_reason":"stop"}]}`))
	}))
	defer srv.Close()

	p := openai.NewCompatibleProvider("vllm", srv.URL, "mistral-7b")
	assert.Equal(t, "vllm", p.Name())

	out, err := p.Complete(context.Background(), models.CompletionRequest{
		System:      "be terse",
		Prompt:      "evaluate",
		MaxTokens:   1000,
		Temperature: 0.2,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"score": 75}`, out)

	assert.Equal(t, "mistral-7b", got["model"])
	msgs, ok := got["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2)
	assert.Equal(t, "system", msgs[0].(map[string]any)["role"])
	assert.Equal(t, "evaluate", msgs[1].(map[string]any)["content"])
}

func TestCompatibleProvider_ServerErrorIsUnavailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	p := openai.NewCompatibleProvider("ollama", srv.URL+"/v1", "llama3")
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
}

func TestCompatibleProvider_UnreachableIsUnavailable(t *testing.T) {
	p := openai.NewCompatibleProvider("ollama", "http://127.0.0.1:1", "llama3")
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
}

func TestCompatibleProvider_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	p := openai.NewCompatibleProvider("vllm", srv.URL, "m")
	_, err := p.Complete(ctx, models.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrInferenceTimeout)
}

func TestCompatibleProvider_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"cmpl-1","choices":[]}`))
	}))
	defer srv.Close()

	p := openai.NewCompatibleProvider("vllm", srv.URL, "m")
	_, err := p.Complete(context.Background(), models.CompletionRequest{Prompt: "x"})
	assert.ErrorIs(t, err, models.ErrProviderUnavailable)
}
