package factory

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vcalderon2009/note-taker/internal/config"
	"github.com/vcalderon2009/note-taker/internal/llm"
)

// NewProvider builds the chat provider selected by cfg.LLMProvider, wrapped
// in a circuit breaker unless disabled.
func NewProvider(cfg *config.Config, log zerolog.Logger) (llm.Provider, error) {
	var (
		p     llm.Provider
		model string
	)
	switch cfg.LLMProvider {
	case "ollama":
		op := llm.NewOllamaProvider(cfg.OllamaHost, cfg.OllamaModel, cfg.LLMTimeout())
		p, model = op, op.Model()
	case "openai":
		op := llm.NewOpenAIProvider(cfg.OpenAIBaseURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.LLMTimeout())
		p, model = op, op.Model()
	default:
		return nil, fmt.Errorf("unsupported LLM_PROVIDER: %s", cfg.LLMProvider)
	}
	log.Info().Str("provider", p.Name()).Str("model", model).Bool("breaker", cfg.LLMBreakerEnabled).
		Msg("llm provider configured")
	if !cfg.LLMBreakerEnabled {
		return p, nil
	}
	return llm.NewBreakerProvider(p, llm.DefaultBreakerConfig(), log), nil
}

// ClassifyModel names the model used by the classification endpoint. The
// reasoning model only exists on Ollama; other providers reuse the chat model.
func ClassifyModel(cfg *config.Config) string {
	if cfg.LLMProvider == "ollama" && cfg.ClassifyModel != "" {
		return cfg.ClassifyModel
	}
	return cfg.ChatModel()
}
