// Package config loads runtime configuration from the environment, with
// .env support for local development.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/types"
)

// Config holds everything the CLI and server need to run.
type Config struct {
	// Provider selects the evaluation-stage provider: gemini or anthropic.
	Provider llm.Provider `validate:"required,oneof=gemini anthropic"`

	GeminiAPIKey    string
	AnthropicAPIKey string

	// StandardsPath locates the grade matrix JSON document.
	StandardsPath string `validate:"required"`

	// DatabaseURL enables PostgreSQL persistence when set; otherwise runs
	// are stored as JSON files under ArtifactDir.
	DatabaseURL string
	ArtifactDir string `validate:"required"`
	OutputDir   string `validate:"required"`
	ServerAddr  string `validate:"required"`

	Org types.OrganizationalContext
}

// Load reads configuration from the environment. A .env file in the working
// directory is loaded first when present.
func Load() (*Config, error) {
	// Missing .env is fine; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := &Config{
		Provider:        llm.Provider(getEnv("LLM_PROVIDER", string(llm.ProviderGemini))),
		GeminiAPIKey:    os.Getenv("GEMINI_API_KEY"),
		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		StandardsPath:   getEnv("STANDARDS_PATH", "data/classification_standards.json"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ArtifactDir:     getEnv("ARTIFACT_DIR", "artifacts"),
		OutputDir:       getEnv("OUTPUT_DIR", "output"),
		ServerAddr:      getEnv("SERVER_ADDR", ":8080"),
		Org: types.OrganizationalContext{
			OrganizationName: os.Getenv("ORG_NAME"),
			Industry:         os.Getenv("ORG_INDUSTRY"),
			Location:         os.Getenv("ORG_LOCATION"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks structural constraints and that the selected provider has
// an API key.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.EvaluationKey() == "" {
		return fmt.Errorf("no API key configured for provider %s", c.Provider)
	}
	return nil
}

// EvaluationKey returns the API key for the configured evaluation provider.
func (c *Config) EvaluationKey() string {
	switch c.Provider {
	case llm.ProviderAnthropic:
		return c.AnthropicAPIKey
	default:
		return c.GeminiAPIKey
	}
}

// EvaluationConfig returns the model configuration for the evaluation
// provider.
func (c *Config) EvaluationConfig() *llm.Config {
	if c.Provider == llm.ProviderAnthropic {
		return llm.DefaultAnthropicConfig()
	}
	return llm.DefaultGeminiConfig()
}

// OrgContext returns the organizational context, or nil when none is
// configured.
func (c *Config) OrgContext() *types.OrganizationalContext {
	if c.Org.OrganizationName == "" {
		return nil
	}
	org := c.Org
	return &org
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
