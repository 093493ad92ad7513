// Package llm provides a provider-neutral chat client used for article
// summarization and AI-assisted text extraction.
package llm

import "time"

// ModelTier selects a model by the job it does rather than by name.
type ModelTier string

const (
	// TierExtraction is used for structured article extraction from HTML.
	TierExtraction ModelTier = "extraction"
	// TierSummary is used for article summaries.
	TierSummary ModelTier = "summary"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderMock   Provider = "mock"
)

// Config holds the model configuration for a client.
type Config struct {
	Provider    Provider
	APIKey      string
	BaseURL     string
	Models      map[ModelTier]string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
}

// DefaultOpenAIConfig returns the OpenAI configuration.
func DefaultOpenAIConfig(apiKey string) *Config {
	return &Config{
		Provider: ProviderOpenAI,
		APIKey:   apiKey,
		Models: map[ModelTier]string{
			TierExtraction: "gpt-4o-mini",
			TierSummary:    "gpt-3.5-turbo",
		},
		MaxTokens:   1000,
		Temperature: 0.3,
		Timeout:     30 * time.Second,
	}
}

// DefaultGeminiConfig returns the Gemini configuration.
func DefaultGeminiConfig(apiKey string) *Config {
	return &Config{
		Provider: ProviderGemini,
		APIKey:   apiKey,
		Models: map[ModelTier]string{
			TierExtraction: "gemini-2.5-flash-lite",
			TierSummary:    "gemini-2.5-flash",
		},
		MaxTokens:   1000,
		Temperature: 0.3,
		Timeout:     30 * time.Second,
	}
}

// GetModel returns the model name for a given tier, falling back to the
// summary model.
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	return c.Models[TierSummary]
}

// WithModel returns a copy of the config with a specific model for a tier.
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	next := *c
	next.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		next.Models[k] = v
	}
	next.Models[tier] = model
	return &next
}
