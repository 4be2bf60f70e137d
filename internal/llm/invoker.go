package llm

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/jonathan/job-evaluator/internal/schemas"
)

// InvokeRequest describes one structured-output model call: a prompt, the
// JSON Schema the response must satisfy, and deterministic-output settings.
type InvokeRequest struct {
	// Stage labels errors and log lines (e.g. "compare", "gauge").
	Stage string
	// Prompt is the fully rendered prompt text.
	Prompt string
	// Schema is the JSON Schema document the extracted object must satisfy.
	Schema string
	// Tier selects the provider model.
	Tier ModelTier
	// Temperature of the call. Evaluation stages pass 0.
	Temperature float32
	// MaxTokens caps the response; 0 uses the provider default.
	MaxTokens int32
	// Media carries optional binary attachments.
	Media []Blob
}

// InvokeResult is a validated structured response plus call metadata.
type InvokeResult struct {
	// JSON is the extracted, schema-valid response object.
	JSON []byte
	// Provider identifies the backing provider that served the call.
	Provider Provider
	// Model is the provider model that produced the response.
	Model string
	// Usage holds token counts for cost accounting.
	Usage Usage
	// Duration of the provider call.
	Duration time.Duration
}

// Invoker wraps a Client with response extraction and schema validation.
// Both evaluation stages and the job-description generator call models
// through an Invoker so the "call model, validate structured output" logic
// exists exactly once.
type Invoker struct {
	client Client
}

// NewInvoker creates an Invoker backed by the given client.
func NewInvoker(client Client) *Invoker {
	return &Invoker{client: client}
}

// Provider identifies the backing client's provider.
func (inv *Invoker) Provider() Provider {
	return inv.client.Provider()
}

// Model returns the provider model serving the given tier.
func (inv *Invoker) Model(tier ModelTier) string {
	return inv.client.GetModel(tier)
}

// Invoke sends the prompt, extracts the first well-formed JSON object from
// the response (tolerating code fences and surrounding prose), and validates
// it against the request schema. Transport failures and contract violations
// surface as distinct typed errors; the raw response is never coerced into a
// best-guess result.
func (inv *Invoker) Invoke(ctx context.Context, req InvokeRequest) (*InvokeResult, error) {
	model := inv.client.GetModel(req.Tier)
	start := time.Now()

	text, usage, err := inv.client.Generate(ctx, GenerateRequest{
		Prompt:      req.Prompt,
		Tier:        req.Tier,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Media:       req.Media,
	})
	duration := time.Since(start)
	if err != nil {
		log.Printf("[llm] %s call failed provider=%s model=%s duration=%s err=%v",
			req.Stage, inv.client.Provider(), model, duration.Round(time.Millisecond), err)
		return nil, err
	}

	log.Printf("[llm] %s call completed provider=%s model=%s duration=%s tokens_in=%d tokens_out=%d",
		req.Stage, inv.client.Provider(), model, duration.Round(time.Millisecond),
		usage.InputTokens, usage.OutputTokens)

	jsonText, ok := ExtractJSONObject(text)
	if !ok {
		return nil, &ValidationError{
			Stage:   req.Stage,
			Message: "response contains no well-formed JSON object",
		}
	}

	if req.Schema != "" {
		if err := schemas.ValidateJSONString(req.Schema, jsonText); err != nil {
			var ve *schemas.ValidationError
			if errors.As(err, &ve) {
				fields := make([]FieldError, 0, len(ve.Errors))
				for _, fe := range ve.Errors {
					fields = append(fields, FieldError{Field: fe.Field, Message: fe.Message})
				}
				return nil, &ValidationError{
					Stage:   req.Stage,
					Message: "response does not match expected schema",
					Fields:  fields,
				}
			}
			return nil, err
		}
	}

	return &InvokeResult{
		JSON:     []byte(jsonText),
		Provider: inv.client.Provider(),
		Model:    model,
		Usage:    usage,
		Duration: duration,
	}, nil
}
