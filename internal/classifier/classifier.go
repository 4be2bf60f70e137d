// Package classifier implements the final evaluation stage: recommending a
// classification level for a position, either standalone or informed by the
// change context produced by the earlier stages.
package classifier

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/prompts"
	"github.com/jonathan/job-evaluator/internal/schemas"
	"github.com/jonathan/job-evaluator/internal/standards"
	"github.com/jonathan/job-evaluator/internal/types"
)

const (
	maxOutputTokens = 8000
	maxPositionText = 10000
	maxRationale    = 500
	maxChanges      = 1000
)

// Request carries the position text plus optional context from the earlier
// stages. Comparison and Gauge may both be nil for standalone classification.
type Request struct {
	PositionText string
	Comparison   *types.ComparisonResult
	Gauge        *types.RevaluationRecommendation
}

// Classifier runs the classification stage against the full grade matrix.
type Classifier struct {
	invoker *llm.Invoker
	store   *standards.Store
}

// New creates a Classifier.
func New(invoker *llm.Invoker, store *standards.Store) *Classifier {
	return &Classifier{invoker: invoker, store: store}
}

// Classify recommends a level for the position. The previous level is taken
// from the gauge context only; it is never read out of the document itself,
// and the change_context_used flag always reflects whether context was
// actually supplied.
func (c *Classifier) Classify(ctx context.Context, req Request) (*types.ClassificationRecommendation, *llm.InvokeResult, error) {
	hasContext := req.Comparison != nil || req.Gauge != nil

	var previousLevel *int
	if req.Gauge != nil {
		level := req.Gauge.CurrentLevel
		previousLevel = &level
	}

	prompt, err := c.buildPrompt(req, hasContext, previousLevel)
	if err != nil {
		return nil, nil, err
	}

	raw, err := c.invoker.InvokeWithRetry(ctx, llm.InvokeRequest{
		Stage:       "classify",
		Prompt:      prompt,
		Schema:      schemas.MustSchema(schemas.Classification),
		Tier:        llm.TierAdvanced,
		Temperature: 0,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return nil, nil, err
	}

	var result types.ClassificationRecommendation
	if err := json.Unmarshal(raw.JSON, &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode classification result: %w", err)
	}

	// These two fields are facts about the request, not model judgment.
	result.PreviousLevel = previousLevel
	result.ChangeContextUsed = hasContext

	if previousLevel != nil && result.RecommendedLevel < *previousLevel &&
		!mentionsScopeReduction(result.Rationale) {
		return nil, nil, &llm.ValidationError{
			Stage: "classify",
			Message: fmt.Sprintf("recommended level %s is below previous level %s without a documented scope reduction",
				standards.FormatLevelKey(result.RecommendedLevel), standards.FormatLevelKey(*previousLevel)),
		}
	}

	return &result, raw, nil
}

func (c *Classifier) buildPrompt(req Request, hasContext bool, previousLevel *int) (string, error) {
	var contextSection strings.Builder

	if req.Gauge != nil {
		contextSection.WriteString("**CONTEXT FROM REVALUATION GAUGE:**\n")
		contextSection.WriteString(fmt.Sprintf("- Previous Classification: %s\n", standards.FormatLevelKey(req.Gauge.CurrentLevel)))
		contextSection.WriteString(fmt.Sprintf("- Should Reevaluate: %t\n", req.Gauge.ShouldReevaluate))
		contextSection.WriteString(fmt.Sprintf("- Gauge Confidence: %d%%\n", req.Gauge.Confidence))
		contextSection.WriteString(fmt.Sprintf("- Likely New Level Range: %s\n", req.Gauge.LikelyNewLevelRange))
		contextSection.WriteString(fmt.Sprintf("- Gauge Rationale: %s\n", truncate(req.Gauge.Rationale, maxRationale)))
		contextSection.WriteString(fmt.Sprintf("- Categories Affected: %s\n\n", strings.Join(req.Gauge.CategoriesAffected, ", ")))
	}

	if req.Comparison != nil {
		changes, err := json.MarshalIndent(req.Comparison.ClassificationRelevantChanges, "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to encode category changes: %w", err)
		}
		contextSection.WriteString("**CONTEXT FROM DOCUMENT COMPARISON:**\n")
		contextSection.WriteString(fmt.Sprintf("- Overall Significance: %s\n", req.Comparison.OverallSignificance))
		contextSection.WriteString(fmt.Sprintf("- Summary: %s\n\n", req.Comparison.Summary))
		contextSection.WriteString("Classification-Relevant Changes:\n")
		contextSection.WriteString(truncate(string(changes), maxChanges))
		contextSection.WriteString("\n")
	}

	var contextInstruction string
	if hasContext {
		baseline := "as indicated above"
		if previousLevel != nil {
			baseline = standards.FormatLevelKey(*previousLevel)
		}
		contextInstruction = fmt.Sprintf(`**IMPORTANT: You have context from previous analysis steps.**
- Start from the baseline of the previous level: %s
- Consider the documented changes and their significance
- Use the gauge recommendation as INPUT (not constraint) for your analysis
- Your classification should align with the evidence but be independent`, baseline)
	} else {
		contextInstruction = `**NOTE: You are analyzing this position WITHOUT change context.**
- Classify based solely on the position description content
- Match against all 17 classification levels independently`
	}

	previousLevelJSON := "null"
	if previousLevel != nil {
		previousLevelJSON = strconv.Itoa(*previousLevel)
	}

	return prompts.Format(prompts.MustGet("evaluation.json", "classify-position"), map[string]string{
		"ContextSection":        contextSection.String(),
		"ContextInstruction":    contextInstruction,
		"StandardsContext":      c.store.FormatAll(),
		"PositionText":          truncate(req.PositionText, maxPositionText),
		"PreviousLevelJSON":     previousLevelJSON,
		"ChangeContextUsedJSON": strconv.FormatBool(hasContext),
	}), nil
}

var reductionTerms = []string{"reduc", "scaled back", "scale back", "downgrad", "removed", "narrow"}

func mentionsScopeReduction(rationale string) bool {
	lower := strings.ToLower(rationale)
	for _, term := range reductionTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
