package ai

import (
	"context"
	"fmt"
	"net/http"

	"feedback_portal/internal/domain/llm"
	"feedback_portal/internal/infra/config"
)

const (
	ProviderDeepSeek  = "deepseek"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
	ProviderAnthropic = "anthropic"
)

// NewSummarizer builds the backend named by cfg.Provider, wrapped with the
// configured rate limit and timeout. It returns llm.ErrNotConfigured when the
// provider has no API key.
func NewSummarizer(ctx context.Context, cfg config.AIConfig) (llm.Summarizer, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}

	var s llm.Summarizer
	switch cfg.Provider {
	case ProviderDeepSeek, "":
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("%w: DEEPSEEK_API_KEY is empty", llm.ErrNotConfigured)
		}
		s = NewChatCompletionsClient(ProviderDeepSeek, cfg.DeepSeekURL, cfg.DeepSeekAPIKey, cfg.DeepSeekModel, cfg.MaxTokens, httpClient)
	case ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is empty", llm.ErrNotConfigured)
		}
		s = NewChatCompletionsClient(ProviderOpenAI, cfg.OpenAIURL, cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.MaxTokens, httpClient)
	case ProviderGemini:
		if cfg.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is empty", llm.ErrNotConfigured)
		}
		g, err := NewGeminiSummarizer(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		s = g
	case ProviderAnthropic:
		if cfg.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY is empty", llm.ErrNotConfigured)
		}
		s = NewClaudeSummarizer(cfg.AnthropicAPIKey, cfg.AnthropicModel, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown AI_PROVIDER %q", cfg.Provider)
	}

	return WithLimits(s, cfg.RequestsPerMinute, cfg.Timeout), nil
}
