// Package comparator implements the first evaluation stage: a semantic diff
// of two position description versions, organized by document section and by
// classification category.
package comparator

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/prompts"
	"github.com/jonathan/job-evaluator/internal/schemas"
	"github.com/jonathan/job-evaluator/internal/types"
)

const maxOutputTokens = 8000

// Request carries the two document versions to compare. Paths are recorded
// in the result so later stages can trace provenance; Text fields hold the
// extracted document text.
type Request struct {
	OldPath string
	NewPath string
	OldText string
	NewText string
}

// Comparator runs the comparison stage through a model invoker.
type Comparator struct {
	invoker *llm.Invoker
}

// New creates a Comparator.
func New(invoker *llm.Invoker) *Comparator {
	return &Comparator{invoker: invoker}
}

// Compare diffs the two document versions. The returned InvokeResult carries
// the raw validated JSON for artifact persistence plus token usage.
func (c *Comparator) Compare(ctx context.Context, req Request) (*types.ComparisonResult, *llm.InvokeResult, error) {
	prompt := prompts.Format(prompts.MustGet("evaluation.json", "compare-documents"), map[string]string{
		"OldDocument": req.OldText,
		"NewDocument": req.NewText,
	})

	raw, err := c.invoker.InvokeWithRetry(ctx, llm.InvokeRequest{
		Stage:       "compare",
		Prompt:      prompt,
		Schema:      schemas.MustSchema(schemas.Comparison),
		Tier:        llm.TierStandard,
		Temperature: 0,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return nil, nil, err
	}

	var result types.ComparisonResult
	if err := json.Unmarshal(raw.JSON, &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode comparison result: %w", err)
	}

	// Schema enforces the enum and the six category keys; nil maps from a
	// decode of empty objects still need to be usable downstream.
	if result.ChangesBySection == nil {
		result.ChangesBySection = map[string]types.ChangeSet{}
	}
	if result.ClassificationRelevantChanges == nil {
		result.ClassificationRelevantChanges = map[string]types.ChangeSet{}
	}
	for _, key := range types.CategoryKeys() {
		if _, ok := result.ClassificationRelevantChanges[key]; !ok {
			result.ClassificationRelevantChanges[key] = types.ChangeSet{}
		}
	}

	result.OldDocument = req.OldPath
	result.NewDocument = req.NewPath

	return &result, raw, nil
}
