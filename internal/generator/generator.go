// Package generator produces formal job descriptions by calling multiple LLM
// providers in parallel and returning every result side by side. A provider
// failure never discards the other provider's output.
package generator

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/errgroup"

	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/prompts"
	"github.com/jonathan/job-evaluator/internal/schemas"
	"github.com/jonathan/job-evaluator/internal/types"
)

const maxOutputTokens = 8000

// ProviderResult is one provider's attempt at the job description. Exactly
// one of Description or Error is set.
type ProviderResult struct {
	Provider    llm.Provider          `json:"provider"`
	Model       string                `json:"model,omitempty"`
	Description *types.JobDescription `json:"description,omitempty"`
	Error       string                `json:"error,omitempty"`
	Usage       llm.Usage             `json:"usage"`
	DurationMS  int64                 `json:"duration_ms"`
}

// Result holds the per-provider outcomes in the order the generator was
// configured.
type Result struct {
	Results []ProviderResult `json:"results"`
}

// Succeeded returns the successful provider results.
func (r *Result) Succeeded() []ProviderResult {
	out := make([]ProviderResult, 0, len(r.Results))
	for _, pr := range r.Results {
		if pr.Description != nil {
			out = append(out, pr)
		}
	}
	return out
}

// TotalUsage sums token usage across all provider attempts.
func (r *Result) TotalUsage() llm.Usage {
	var total llm.Usage
	for _, pr := range r.Results {
		total.Add(pr.Usage)
	}
	return total
}

// Generator fans a generation request out to its configured invokers.
type Generator struct {
	invokers []*llm.Invoker
	org      *types.OrganizationalContext
	validate *validator.Validate
}

// New creates a Generator. org may be nil when no organizational context is
// configured.
func New(invokers []*llm.Invoker, org *types.OrganizationalContext) *Generator {
	return &Generator{
		invokers: invokers,
		org:      org,
		validate: validator.New(),
	}
}

// Generate runs the request against every configured provider in parallel.
// It returns an error only when the request itself is invalid or every
// provider failed; individual provider failures are recorded in the result.
func (g *Generator) Generate(ctx context.Context, req types.JobDescriptionRequest) (*Result, error) {
	if len(g.invokers) == 0 {
		return nil, fmt.Errorf("no generation providers configured")
	}
	if err := g.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("invalid generation request: %w", err)
	}

	prompt := g.buildPrompt(req)
	results := make([]ProviderResult, len(g.invokers))

	eg, gctx := errgroup.WithContext(ctx)
	for i, invoker := range g.invokers {
		eg.Go(func() error {
			start := time.Now()
			results[i] = g.runProvider(gctx, invoker, prompt)
			results[i].DurationMS = time.Since(start).Milliseconds()
			// Provider failures are isolated; never cancel the sibling.
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	result := &Result{Results: results}
	if len(result.Succeeded()) == 0 {
		return result, fmt.Errorf("all %d generation providers failed", len(g.invokers))
	}
	return result, nil
}

func (g *Generator) runProvider(ctx context.Context, invoker *llm.Invoker, prompt string) ProviderResult {
	pr := ProviderResult{
		Provider: invoker.Provider(),
		Model:    invoker.Model(llm.TierAdvanced),
	}

	raw, err := invoker.InvokeWithRetry(ctx, llm.InvokeRequest{
		Stage:       "generate",
		Prompt:      prompt,
		Schema:      schemas.MustSchema(schemas.JobDescription),
		Tier:        llm.TierAdvanced,
		Temperature: 0,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		pr.Error = err.Error()
		return pr
	}

	var desc types.JobDescription
	if err := json.Unmarshal(raw.JSON, &desc); err != nil {
		pr.Error = fmt.Sprintf("failed to decode job description: %v", err)
		return pr
	}

	pr.Description = &desc
	pr.Model = raw.Model
	pr.Usage = raw.Usage
	return pr
}

func (g *Generator) buildPrompt(req types.JobDescriptionRequest) string {
	var details strings.Builder
	writeField := func(label, value string) {
		if value != "" {
			details.WriteString(fmt.Sprintf("%s: %s\n", label, value))
		}
	}

	writeField("Working Title", req.JobTitle)
	writeField("Department", req.Department)
	writeField("Reports To", req.ReportsTo)
	writeField("Primary Responsibilities", req.PrimaryResponsibilities)
	writeField("Key Deliverables", req.KeyDeliverables)
	writeField("Unique Aspects", req.UniqueAspects)
	if req.ManagesPeople {
		writeField("People Management", "Manages/Supervises People")
		writeField("Direct Reports", req.DirectReports)
	} else {
		writeField("People Management", "Individual Contributor")
	}
	writeField("Key Contacts", req.KeyContacts)
	writeField("Decision Authority", req.DecisionAuthority)
	writeField("Innovation and Problem Solving", req.InnovationProblemSolving)
	writeField("Impact of Results", req.ImpactOfResults)

	var orgBlock string
	if g.org != nil {
		var org strings.Builder
		org.WriteString("**Organizational Context:**\n")
		org.WriteString(fmt.Sprintf("Organization: %s\n", g.org.OrganizationName))
		if g.org.Industry != "" {
			org.WriteString(fmt.Sprintf("Industry: %s\n", g.org.Industry))
		}
		if g.org.Location != "" {
			org.WriteString(fmt.Sprintf("Location: %s\n", g.org.Location))
		}
		orgBlock = org.String()
	}

	return prompts.Format(prompts.MustGet("generation.json", "generate-job-description"), map[string]string{
		"RequestDetails":        details.String(),
		"OrganizationalContext": orgBlock,
	})
}
