// Package openai implements models.AIProvider on the OpenAI chat completions
// API. vLLM and Ollama expose the same API under /v1, so one client serves all three.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// Provider implements models.AIProvider using an OpenAI-compatible endpoint.
type Provider struct {
	name   string
	model  string
	client *goopenai.Client
}

// NewProvider targets api.openai.com.
func NewProvider(cfg config.OpenAIConfig) *Provider {
	return newProvider("openai", goopenai.DefaultConfig(cfg.APIKey), cfg.Model)
}

// NewCompatibleProvider targets a self-hosted OpenAI-compatible server such
// as vLLM or Ollama. baseURL is the server root; "/v1" is appended when missing.
func NewCompatibleProvider(name, baseURL, model string) *Provider {
	clientCfg := goopenai.DefaultConfig("")
	baseURL = strings.TrimRight(baseURL, "/")
	if !strings.HasSuffix(baseURL, "/v1") {
		baseURL += "/v1"
	}
	clientCfg.BaseURL = baseURL
	return newProvider(name, clientCfg, model)
}

func newProvider(name string, clientCfg goopenai.ClientConfig, model string) *Provider {
	return &Provider{
		name:   name,
		model:  model,
		client: goopenai.NewClientWithConfig(clientCfg),
	}
}

func (p *Provider) Name() string { return p.name }

// Complete sends one system+user exchange and returns the first choice.
func (p *Provider) Complete(ctx context.Context, req models.CompletionRequest) (string, error) {
	messages := make([]goopenai.ChatCompletionMessage, 0, 2)
	if req.System != "" {
		messages = append(messages, goopenai.ChatCompletionMessage{
			Role:    goopenai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, goopenai.ChatCompletionMessage{
		Role:    goopenai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	resp, err := p.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	})
	if err != nil {
		return "", p.classifyError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%s: %w: no choices returned", p.name, models.ErrProviderUnavailable)
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *Provider) classifyError(ctx context.Context, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", p.name, models.ErrInferenceTimeout)
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || apiErr.HTTPStatusCode >= 500 {
			return fmt.Errorf("%s: %w: status %d: %s", p.name, models.ErrProviderUnavailable, apiErr.HTTPStatusCode, apiErr.Message)
		}
		return fmt.Errorf("%s: status %d: %s", p.name, apiErr.HTTPStatusCode, apiErr.Message)
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && (reqErr.HTTPStatusCode == http.StatusTooManyRequests || reqErr.HTTPStatusCode >= 500) {
		return fmt.Errorf("%s: %w: status %d", p.name, models.ErrProviderUnavailable, reqErr.HTTPStatusCode)
	}

	// Transport failures (refused connection, DNS) mean the backend is unreachable.
	return fmt.Errorf("%s: %w: %v", p.name, models.ErrProviderUnavailable, err)
}

var _ models.AIProvider = (*Provider)(nil)
