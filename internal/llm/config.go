// Package llm provides centralized LLM configuration and client abstractions.
// This package enables switching providers per request and keeps the
// evaluation stages provider-agnostic.
package llm

// ModelTier represents the complexity/capability level of a model
type ModelTier string

const (
	// TierLite is for simple tasks: transcription, extraction
	TierLite ModelTier = "lite"
	// TierStandard is for moderate reasoning: comparison, gauge
	TierStandard ModelTier = "standard"
	// TierAdvanced is for complex reasoning: classification, generation
	TierAdvanced ModelTier = "advanced"
)

// Provider represents an LLM provider
type Provider string

// Provider constants define supported LLM providers
const (
	// ProviderGemini is the Google Gemini provider
	ProviderGemini Provider = "gemini"
	// ProviderAnthropic is the Anthropic/Claude provider
	ProviderAnthropic Provider = "anthropic"
)

// ModelPricing holds per-million-token prices used for cost accounting.
type ModelPricing struct {
	InputPerMTok  float64
	OutputPerMTok float64
}

// Config holds the model configuration for one provider
type Config struct {
	Provider Provider
	Models   map[ModelTier]string
	Pricing  map[string]ModelPricing
}

// DefaultConfig returns the default configuration (currently Gemini)
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
		Pricing: map[string]ModelPricing{
			"gemini-2.5-flash-lite": {InputPerMTok: 0.10, OutputPerMTok: 0.40},
			"gemini-2.5-flash":      {InputPerMTok: 0.30, OutputPerMTok: 2.50},
			"gemini-2.5-pro":        {InputPerMTok: 1.25, OutputPerMTok: 10.00},
		},
	}
}

// DefaultAnthropicConfig returns the default Anthropic configuration
func DefaultAnthropicConfig() *Config {
	return &Config{
		Provider: ProviderAnthropic,
		Models: map[ModelTier]string{
			TierLite:     "claude-haiku-4-5",
			TierStandard: "claude-haiku-4-5",
			TierAdvanced: "claude-sonnet-4-5",
		},
		Pricing: map[string]ModelPricing{
			"claude-haiku-4-5":  {InputPerMTok: 1.00, OutputPerMTok: 5.00},
			"claude-sonnet-4-5": {InputPerMTok: 3.00, OutputPerMTok: 15.00},
		},
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
	return ""
}

// WithModel returns a new Config with a specific model for a tier
func (c *Config) WithModel(tier ModelTier, model string) *Config {
	newConfig := &Config{
		Provider: c.Provider,
		Models:   make(map[ModelTier]string, len(c.Models)),
		Pricing:  c.Pricing,
	}
	for k, v := range c.Models {
		newConfig.Models[k] = v
	}
	newConfig.Models[tier] = model
	return newConfig
}

// Cost computes the dollar cost of a usage record for the named model.
// Returns 0 when the model has no pricing entry.
func (c *Config) Cost(model string, usage Usage) float64 {
	p, ok := c.Pricing[model]
	if !ok {
		return 0
	}
	return float64(usage.InputTokens)/1e6*p.InputPerMTok +
		float64(usage.OutputTokens)/1e6*p.OutputPerMTok
}
