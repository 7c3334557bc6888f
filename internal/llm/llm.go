package llm

import (
	"net/http"

	"github.com/comigor/mineai-smoke/internal/config"
	"github.com/sashabaranov/go-openai"
)

// NewClient creates a new OpenAI-compatible client pointed at cfg.BaseURL.
// Requests go through the extension transport so MineAI specific fields reach the wire.
func NewClient(cfg config.LLMConfig) *openai.Client {
	return NewClientWithKey(cfg, cfg.APIKey)
}

// NewClientWithKey is NewClient with the credential overridden.
func NewClientWithKey(cfg config.LLMConfig, apiKey string) *openai.Client {
	config := openai.DefaultConfig(apiKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	config.HTTPClient = NewTransport(&http.Client{Timeout: cfg.Timeout})

	return openai.NewClientWithConfig(config)
}

// NewServiceFromConfig wires a Service over a fresh client for the given credential.
func NewServiceFromConfig(cfg config.LLMConfig, apiKey string) *OpenAIService {
	return NewService(NewClientWithKey(cfg, apiKey))
}
