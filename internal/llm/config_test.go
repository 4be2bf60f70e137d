package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetModelFallback(t *testing.T) {
	cfg := &Config{Models: map[ModelTier]string{TierStandard: "standard-model"}}

	assert.Equal(t, "standard-model", cfg.GetModel(TierAdvanced))
	assert.Equal(t, "standard-model", cfg.GetModel(TierStandard))

	cfg = &Config{Models: map[ModelTier]string{TierLite: "lite-model"}}
	assert.Equal(t, "lite-model", cfg.GetModel(TierAdvanced))

	cfg = &Config{}
	assert.Equal(t, "", cfg.GetModel(TierStandard))
}

func TestWithModelDoesNotMutate(t *testing.T) {
	base := DefaultGeminiConfig()
	custom := base.WithModel(TierAdvanced, "gemini-exp")

	assert.Equal(t, "gemini-exp", custom.GetModel(TierAdvanced))
	assert.Equal(t, "gemini-2.5-pro", base.GetModel(TierAdvanced))
	assert.Equal(t, base.GetModel(TierStandard), custom.GetModel(TierStandard))
}

func TestCost(t *testing.T) {
	cfg := DefaultGeminiConfig()
	usage := Usage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	assert.InDelta(t, 2.80, cfg.Cost("gemini-2.5-flash", usage), 1e-9)
	assert.Zero(t, cfg.Cost("unknown-model", usage))
}
