// Package gauge implements the second evaluation stage: deciding whether
// documented changes are material enough to warrant formal re-evaluation
// relative to the position's current classification level.
package gauge

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
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
	maxOutputTokens = 4000
	maxPositionText = 8000
)

// Request carries the comparison result plus the full text of the updated
// position description. CurrentLevel may be 0, in which case the level is
// detected from the new document's filename.
type Request struct {
	Comparison   *types.ComparisonResult
	PositionText string
	CurrentLevel int
}

// Gauge runs the materiality assessment through a model invoker, reasoning
// against the current level and its immediate neighbors in the grade matrix.
type Gauge struct {
	invoker *llm.Invoker
	store   *standards.Store
}

// New creates a Gauge.
func New(invoker *llm.Invoker, store *standards.Store) *Gauge {
	return &Gauge{invoker: invoker, store: store}
}

// Assess decides whether the documented changes warrant re-evaluation.
// Level detection failures propagate as *standards.LevelDetectionError;
// a recommendation below the current level without a documented scope
// reduction is rejected as a contract violation.
func (g *Gauge) Assess(ctx context.Context, req Request) (*types.RevaluationRecommendation, *llm.InvokeResult, error) {
	currentLevel := req.CurrentLevel
	if currentLevel == 0 {
		detected, err := standards.DetectLevel(filepath.Base(req.Comparison.NewDocument))
		if err != nil {
			return nil, nil, err
		}
		currentLevel = detected
	}
	if currentLevel < standards.MinLevel || currentLevel > standards.MaxLevel {
		return nil, nil, fmt.Errorf("current level %d out of range [%d, %d]",
			currentLevel, standards.MinLevel, standards.MaxLevel)
	}

	prompt, err := g.buildPrompt(req, currentLevel)
	if err != nil {
		return nil, nil, err
	}

	raw, err := g.invoker.InvokeWithRetry(ctx, llm.InvokeRequest{
		Stage:       "gauge",
		Prompt:      prompt,
		Schema:      schemas.MustSchema(schemas.Revaluation),
		Tier:        llm.TierStandard,
		Temperature: 0,
		MaxTokens:   maxOutputTokens,
	})
	if err != nil {
		return nil, nil, err
	}

	var result types.RevaluationRecommendation
	if err := json.Unmarshal(raw.JSON, &result); err != nil {
		return nil, nil, fmt.Errorf("failed to decode gauge result: %w", err)
	}

	if err := validate(&result, currentLevel); err != nil {
		return nil, nil, err
	}

	return &result, raw, nil
}

func (g *Gauge) buildPrompt(req Request, currentLevel int) (string, error) {
	sections, err := json.MarshalIndent(req.Comparison.ChangesBySection, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode section changes: %w", err)
	}
	relevant, err := json.MarshalIndent(req.Comparison.ClassificationRelevantChanges, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode category changes: %w", err)
	}

	return prompts.Format(prompts.MustGet("evaluation.json", "gauge-materiality"), map[string]string{
		"CurrentLevel":        strconv.Itoa(currentLevel),
		"CurrentLevelKey":     standards.FormatLevelKey(currentLevel),
		"StandardsContext":    g.store.FormatWindow(currentLevel),
		"ComparisonSummary":   req.Comparison.Summary,
		"OverallSignificance": string(req.Comparison.OverallSignificance),
		"ChangesBySection":    string(sections),
		"RelevantChanges":     string(relevant),
		"PositionText":        truncate(req.PositionText, maxPositionText),
	}), nil
}

// validate enforces the output contract beyond what the schema can express:
// the echoed current level must match the input, the range must parse, and
// the range may only drop below the current level when the rationale
// documents an explicit scope reduction.
func validate(r *types.RevaluationRecommendation, currentLevel int) error {
	if r.CurrentLevel != currentLevel {
		return &llm.ValidationError{
			Stage: "gauge",
			Message: fmt.Sprintf("response reports current_level %d, expected %d",
				r.CurrentLevel, currentLevel),
		}
	}

	low, _, err := r.RangeBounds()
	if err != nil {
		return &llm.ValidationError{
			Stage:   "gauge",
			Message: fmt.Sprintf("unparseable likely_new_level_range: %v", err),
		}
	}

	if low < currentLevel && !mentionsScopeReduction(r.Rationale) {
		return &llm.ValidationError{
			Stage: "gauge",
			Message: fmt.Sprintf("range %q falls below current level %s without a documented scope reduction",
				r.LikelyNewLevelRange, standards.FormatLevelKey(currentLevel)),
		}
	}

	return nil
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
