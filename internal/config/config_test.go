package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-evaluator/internal/llm"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("STANDARDS_PATH", "")
	t.Setenv("ARTIFACT_DIR", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderGemini, cfg.Provider)
	assert.Equal(t, "data/classification_standards.json", cfg.StandardsPath)
	assert.Equal(t, "artifacts", cfg.ArtifactDir)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "test-key", cfg.EvaluationKey())
	assert.Equal(t, llm.ProviderGemini, cfg.EvaluationConfig().Provider)
	assert.Nil(t, cfg.OrgContext())
}

func TestLoadAnthropicProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "anthropic")
	t.Setenv("ANTHROPIC_API_KEY", "claude-key")
	t.Setenv("GEMINI_API_KEY", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, llm.ProviderAnthropic, cfg.Provider)
	assert.Equal(t, "claude-key", cfg.EvaluationKey())
	assert.Equal(t, llm.ProviderAnthropic, cfg.EvaluationConfig().Provider)
}

func TestLoadRejectsMissingKey(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "gemini")
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no API key")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "watson")
	t.Setenv("GEMINI_API_KEY", "key")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestOrgContext(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "key")
	t.Setenv("LLM_PROVIDER", "")
	t.Setenv("ORG_NAME", "Provincial Government")
	t.Setenv("ORG_LOCATION", "Halifax")

	cfg, err := Load()
	require.NoError(t, err)

	org := cfg.OrgContext()
	require.NotNil(t, org)
	assert.Equal(t, "Provincial Government", org.OrganizationName)
	assert.Equal(t, "Halifax", org.Location)
}
