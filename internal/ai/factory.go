package ai

import (
	"fmt"

	"github.com/kiranshivaraju/recruitflow/internal/ai/anthropic"
	"github.com/kiranshivaraju/recruitflow/internal/ai/openai"
	"github.com/kiranshivaraju/recruitflow/internal/config"
	"github.com/kiranshivaraju/recruitflow/pkg/models"
)

// NewProvider constructs the appropriate AI provider based on config.
// Called once at server startup.
func NewProvider(cfg config.AIConfig) (models.AIProvider, error) {
	switch cfg.Provider {
	case "ollama":
		return openai.NewCompatibleProvider("ollama", cfg.Ollama.BaseURL, cfg.Ollama.Model), nil
	case "vllm":
		return openai.NewCompatibleProvider("vllm", cfg.VLLM.BaseURL, cfg.VLLM.Model), nil
	case "openai":
		return openai.NewProvider(cfg.OpenAI), nil
	case "anthropic":
		return anthropic.NewProvider(cfg.Anthropic), nil
	default:
		return nil, fmt.Errorf("unknown AI provider %q: must be one of ollama, vllm, openai, anthropic", cfg.Provider)
	}
}
