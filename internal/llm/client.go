package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// Usage captures token counts reported by a provider for one call. Counts
// feed the cost accounting in Config.Cost.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// TotalTokens returns input plus output tokens.
func (u Usage) TotalTokens() int64 {
	return u.InputTokens + u.OutputTokens
}

// Add accumulates another usage record into u.
func (u *Usage) Add(other Usage) {
	u.InputTokens += other.InputTokens
	u.OutputTokens += other.OutputTokens
}

// Blob is a binary attachment (e.g. a PDF) sent alongside a prompt.
type Blob struct {
	MIMEType string
	Data     []byte
}

// GenerateRequest describes one model call. Temperature and MaxTokens are
// explicit per call; evaluation stages run at temperature 0 for reproducible
// output.
type GenerateRequest struct {
	Prompt      string
	Tier        ModelTier
	Temperature float32
	MaxTokens   int32
	Media       []Blob
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate sends a prompt (plus optional media) and returns the raw
	// response text with token usage.
	Generate(ctx context.Context, req GenerateRequest) (string, Usage, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Provider identifies the backing provider
	Provider() Provider
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey)
	default:
		return NewGeminiClient(ctx, config, apiKey)
	}
}

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Generate sends a prompt to the configured Gemini model for the tier.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (string, Usage, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", Usage{}, &TransportError{Provider: ProviderGemini, Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(req.Temperature)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(req.MaxTokens)
	}

	parts := make([]genai.Part, 0, len(req.Media)+1)
	for _, m := range req.Media {
		parts = append(parts, genai.Blob{MIMEType: m.MIMEType, Data: m.Data})
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", Usage{}, &TransportError{Provider: ProviderGemini, Message: "generate content", Cause: err}
	}

	var usage Usage
	if resp.UsageMetadata != nil {
		usage.InputTokens = int64(resp.UsageMetadata.PromptTokenCount)
		usage.OutputTokens = int64(resp.UsageMetadata.CandidatesTokenCount)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return "", usage, err
	}
	return text, usage, nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Provider returns ProviderGemini.
func (c *GeminiClient) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &TransportError{Provider: ProviderGemini, Message: "no candidates in response"}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &TransportError{Provider: ProviderGemini, Message: "no content in response"}
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", &TransportError{Provider: ProviderGemini, Message: "no text parts in response"}
	}

	return strings.Join(parts, ""), nil
}
