// Package llm provides LLM configuration and client abstractions shared by the
// evidence search and content classification stages.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: classification, readability labelling
	TierLite ModelTier = "lite"
	// TierStandard is for grounded search over claims
	TierStandard ModelTier = "standard"
	// TierAdvanced is for long or ambiguous content
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderOpenAI is the OpenAI chat completions provider
	ProviderOpenAI Provider = "openai"
	// ProviderPerplexity is Perplexity's OpenAI-compatible search API
	ProviderPerplexity Provider = "perplexity"
)

// PerplexityBaseURL is the OpenAI-compatible endpoint for Perplexity.
const PerplexityBaseURL = "https://api.perplexity.ai"

// Config holds the model configuration for the application
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	// BaseURL overrides the provider endpoint (OpenAI-compatible providers only)
	BaseURL string
	// Temperature applies to every request; zero means the provider default of 0.1
	Temperature float64
	// MaxTokens caps completion length for OpenAI-compatible providers
	MaxTokens int64
}

// DefaultConfig returns the default configuration (Gemini)
func DefaultConfig() *Config {
	return DefaultGeminiConfig()
}

// DefaultGeminiConfig returns the default Gemini configuration
func DefaultGeminiConfig() *Config {
	return &Config{
		Provider: ProviderGemini,
		Models: map[ModelTier]string{
			TierLite:     "gemini-2.5-flash-lite",
			TierStandard: "gemini-2.5-flash",
			TierAdvanced: "gemini-2.5-pro",
		},
	}
}

// DefaultOpenAIConfig returns the default OpenAI configuration
func DefaultOpenAIConfig() *Config {
	return &Config{
		Provider: ProviderOpenAI,
		Models: map[ModelTier]string{
			TierLite:     "gpt-4o-mini",
			TierStandard: "gpt-4o",
			TierAdvanced: "gpt-4o",
		},
		MaxTokens: 3000,
	}
}

// DefaultPerplexityConfig returns the default Perplexity configuration
func DefaultPerplexityConfig() *Config {
	return &Config{
		Provider: ProviderPerplexity,
		Models: map[ModelTier]string{
			TierLite:     "sonar",
			TierStandard: "sonar-pro",
			TierAdvanced: "sonar-pro",
		},
		BaseURL:   PerplexityBaseURL,
		MaxTokens: 3000,
	}
}

// ConfigFor returns the default configuration for a provider name, falling
// back to Gemini for unknown names.
func ConfigFor(provider Provider) *Config {
	switch provider {
	case ProviderOpenAI:
		return DefaultOpenAIConfig()
	case ProviderPerplexity:
		return DefaultPerplexityConfig()
	default:
		return DefaultGeminiConfig()
	}
}

// GetModel returns the model name for a given tier
func (c *Config) GetModel(tier ModelTier) string {
	if model, ok := c.Models[tier]; ok {
		return model
	}
	// Fallback chain: try standard, then lite
	if model, ok := c.Models[TierStandard]; ok {
		return model
	}
	if model, ok := c.Models[TierLite]; ok {
		return model
	}
	return "" // No model configured
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := *c
	newConfig.Models = make(map[ModelTier]string, len(c.Models)+1)
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return &newConfig
}

func (c *Config) temperature() float64 {
	if c.Temperature <= 0 {
		return 0.1
	}
	return c.Temperature
}
