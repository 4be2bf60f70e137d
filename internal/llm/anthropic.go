package llm

import (
	"context"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client for Anthropic Claude models.
type AnthropicClient struct {
	client anthropic.Client
	config *Config
}

// NewAnthropicClient creates a new Anthropic client
func NewAnthropicClient(config *Config, apiKey string) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	return &AnthropicClient{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		config: config,
	}, nil
}

// Generate sends a prompt to the configured Claude model for the tier.
func (c *AnthropicClient) Generate(ctx context.Context, req GenerateRequest) (string, Usage, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return "", Usage{}, &TransportError{Provider: ProviderAnthropic, Message: fmt.Sprintf("no model configured for tier %s", req.Tier)}
	}
	if len(req.Media) > 0 {
		return "", Usage{}, &TransportError{Provider: ProviderAnthropic, Message: "media attachments are only routed to the Gemini client"}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}

	message, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   maxTokens,
		Temperature: anthropic.Float(float64(req.Temperature)),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", Usage{}, &TransportError{Provider: ProviderAnthropic, Message: "messages create", Cause: err}
	}

	usage := Usage{
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}

	for _, block := range message.Content {
		if block.Type == "text" {
			return block.Text, usage, nil
		}
	}
	return "", usage, &TransportError{Provider: ProviderAnthropic, Message: "no text content in response"}
}

// GetModel returns the model name for a tier
func (c *AnthropicClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Provider returns ProviderAnthropic.
func (c *AnthropicClient) Provider() Provider {
	return ProviderAnthropic
}

// Close is a no-op; the Anthropic client holds no long-lived resources.
func (c *AnthropicClient) Close() error {
	return nil
}
