// Package pipeline provides the high-level orchestration for document
// evaluation and job-description generation. Evaluation runs are context
// chained: each stage consumes the validated output of the one before it,
// and every stage result is persisted before the run advances.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/job-evaluator/internal/classifier"
	"github.com/jonathan/job-evaluator/internal/comparator"
	"github.com/jonathan/job-evaluator/internal/db"
	"github.com/jonathan/job-evaluator/internal/extraction"
	"github.com/jonathan/job-evaluator/internal/gauge"
	"github.com/jonathan/job-evaluator/internal/generator"
	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/types"
)

// State names the phase an evaluation run is in. Failed is absorbing: a
// stage error halts the run and nothing downstream executes.
type State string

// Run states.
const (
	StateIdle        State = "idle"
	StateExtracting  State = "extracting"
	StateComparing   State = "comparing"
	StateGauging     State = "gauging"
	StateClassifying State = "classifying"
	StateComplete    State = "complete"
	StateFailed      State = "failed"
)

// Store is the persistence contract the pipeline needs. Both db.DB and
// db.FileStore satisfy it. GetArtifact returns nil with no error when the
// artifact does not exist.
type Store interface {
	CreateRun(ctx context.Context, mode, oldDocument, newDocument string) (uuid.UUID, error)
	CompleteRun(ctx context.Context, runID uuid.UUID, status string) error
	SaveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error
	SaveTextArtifact(ctx context.Context, runID uuid.UUID, step, text string) error
	GetArtifact(ctx context.Context, runID uuid.UUID, step string) ([]byte, error)
}

// ProgressEvent reports a state transition during a run.
type ProgressEvent struct {
	RunID   string `json:"run_id"`
	State   State  `json:"state"`
	Message string `json:"message"`
}

// ProgressCallback is called on every state transition.
type ProgressCallback func(event ProgressEvent)

// StageError wraps the error that halted a run with the stage it came from.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Options wires the pipeline's collaborators.
type Options struct {
	Comparator *comparator.Comparator
	Gauge      *gauge.Gauge
	Classifier *classifier.Classifier
	Generator  *generator.Generator
	Extractor  extraction.Source
	Store      Store
	// Pricing maps each provider to its model pricing for cost accounting.
	Pricing    map[llm.Provider]*llm.Config
	OnProgress ProgressCallback
}

// Pipeline orchestrates runs against the configured stages and store.
type Pipeline struct {
	opts Options
}

// New creates a Pipeline. Store is required; stages may be nil when the
// corresponding operations are never invoked.
func New(opts Options) (*Pipeline, error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("pipeline requires a store")
	}
	return &Pipeline{opts: opts}, nil
}

func (p *Pipeline) emit(runID uuid.UUID, state State, message string) {
	if p.opts.OnProgress != nil {
		p.opts.OnProgress(ProgressEvent{
			RunID:   runID.String(),
			State:   state,
			Message: message,
		})
	}
}

// fail records the halting stage on the run and returns the wrapped error.
func (p *Pipeline) fail(ctx context.Context, runID uuid.UUID, stage string, err error) error {
	p.emit(runID, StateFailed, fmt.Sprintf("%s: %v", stage, err))
	status := fmt.Sprintf("%s:%s", db.StatusFailed, stage)
	if cerr := p.opts.Store.CompleteRun(ctx, runID, status); cerr != nil {
		return fmt.Errorf("recording failure of stage %s: %w (original: %w)", stage, cerr, err)
	}
	return &StageError{Stage: stage, Err: err}
}

func (p *Pipeline) saveArtifact(ctx context.Context, runID uuid.UUID, step string, content any) error {
	if err := p.opts.Store.SaveArtifact(ctx, runID, step, content); err != nil {
		return fmt.Errorf("persisting %s artifact: %w", step, err)
	}
	return nil
}

// CostSummary aggregates token usage and dollar cost across a run's calls.
type CostSummary struct {
	Calls        []CallCost `json:"calls"`
	TotalTokens  int64      `json:"total_tokens"`
	TotalCostUSD float64    `json:"total_cost_usd"`
}

// CallCost records one model call's usage.
type CallCost struct {
	Stage        string       `json:"stage"`
	Provider     llm.Provider `json:"provider"`
	Model        string       `json:"model"`
	InputTokens  int64        `json:"input_tokens"`
	OutputTokens int64        `json:"output_tokens"`
	CostUSD      float64      `json:"cost_usd"`
}

func (cs *CostSummary) add(stage string, provider llm.Provider, model string, usage llm.Usage, pricing map[llm.Provider]*llm.Config) {
	cost := 0.0
	if cfg, ok := pricing[provider]; ok && cfg != nil {
		cost = cfg.Cost(model, usage)
	}
	cs.Calls = append(cs.Calls, CallCost{
		Stage:        stage,
		Provider:     provider,
		Model:        model,
		InputTokens:  usage.InputTokens,
		OutputTokens: usage.OutputTokens,
		CostUSD:      cost,
	})
	cs.TotalTokens += usage.TotalTokens()
	cs.TotalCostUSD += cost
}

// EvaluationRequest describes an evaluation run over two document versions.
// WithGauge and WithClassify control how far the chain runs; classification
// always receives whatever context the earlier stages produced.
type EvaluationRequest struct {
	OldPath      string
	NewPath      string
	CurrentLevel int
	WithGauge    bool
	WithClassify bool
}

// EvaluationResult holds everything an evaluation run produced. Gauge and
// Classification are nil for stages that were not requested.
type EvaluationResult struct {
	RunID          uuid.UUID                           `json:"run_id"`
	Comparison     *types.ComparisonResult             `json:"comparison"`
	Gauge          *types.RevaluationRecommendation    `json:"gauge,omitempty"`
	Classification *types.ClassificationRecommendation `json:"classification,omitempty"`
	Cost           CostSummary                         `json:"cost"`
}

// Evaluate runs the comparison stage and, when requested, chains the gauge
// and classifier behind it. Each stage's artifact is saved before the next
// stage starts, so a failed run leaves every completed stage recoverable.
func (p *Pipeline) Evaluate(ctx context.Context, req EvaluationRequest) (*EvaluationResult, error) {
	runID, err := p.opts.Store.CreateRun(ctx, db.ModeFullWorkflow, req.OldPath, req.NewPath)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	result := &EvaluationResult{RunID: runID}

	p.emit(runID, StateExtracting, "extracting document text")
	oldText, err := p.opts.Extractor.Extract(ctx, req.OldPath)
	if err != nil {
		return result, p.fail(ctx, runID, "extract", err)
	}
	newText, err := p.opts.Extractor.Extract(ctx, req.NewPath)
	if err != nil {
		return result, p.fail(ctx, runID, "extract", err)
	}
	if err := p.opts.Store.SaveTextArtifact(ctx, runID, db.StepOldDocumentText, oldText); err != nil {
		return result, p.fail(ctx, runID, "extract", err)
	}
	if err := p.opts.Store.SaveTextArtifact(ctx, runID, db.StepNewDocumentText, newText); err != nil {
		return result, p.fail(ctx, runID, "extract", err)
	}

	p.emit(runID, StateComparing, "comparing document versions")
	comparison, compareRaw, err := p.opts.Comparator.Compare(ctx, comparator.Request{
		OldPath: req.OldPath,
		NewPath: req.NewPath,
		OldText: oldText,
		NewText: newText,
	})
	if err != nil {
		return result, p.fail(ctx, runID, "compare", err)
	}
	if err := p.saveArtifact(ctx, runID, db.StepComparison, comparison); err != nil {
		return result, p.fail(ctx, runID, "compare", err)
	}
	result.Comparison = comparison
	result.Cost.add("compare", compareRaw.Provider, compareRaw.Model, compareRaw.Usage, p.opts.Pricing)

	if req.WithGauge || req.WithClassify {
		p.emit(runID, StateGauging, "assessing change materiality")
		gaugeResult, gaugeRaw, err := p.opts.Gauge.Assess(ctx, gauge.Request{
			Comparison:   comparison,
			PositionText: newText,
			CurrentLevel: req.CurrentLevel,
		})
		if err != nil {
			return result, p.fail(ctx, runID, "gauge", err)
		}
		if err := p.saveArtifact(ctx, runID, db.StepGauge, gaugeResult); err != nil {
			return result, p.fail(ctx, runID, "gauge", err)
		}
		result.Gauge = gaugeResult
		result.Cost.add("gauge", gaugeRaw.Provider, gaugeRaw.Model, gaugeRaw.Usage, p.opts.Pricing)
	}

	if req.WithClassify {
		p.emit(runID, StateClassifying, "classifying position")
		classification, classifyRaw, err := p.opts.Classifier.Classify(ctx, classifier.Request{
			PositionText: newText,
			Comparison:   comparison,
			Gauge:        result.Gauge,
		})
		if err != nil {
			return result, p.fail(ctx, runID, "classify", err)
		}
		if err := p.saveArtifact(ctx, runID, db.StepClassification, classification); err != nil {
			return result, p.fail(ctx, runID, "classify", err)
		}
		result.Classification = classification
		result.Cost.add("classify", classifyRaw.Provider, classifyRaw.Model, classifyRaw.Usage, p.opts.Pricing)
	}

	if err := p.saveArtifact(ctx, runID, db.StepCostSummary, result.Cost); err != nil {
		return result, p.fail(ctx, runID, "persist", err)
	}
	if err := p.opts.Store.CompleteRun(ctx, runID, db.StatusCompleted); err != nil {
		return result, fmt.Errorf("completing run: %w", err)
	}
	p.emit(runID, StateComplete, "evaluation complete")
	return result, nil
}

// ClassifyRequest describes a standalone classification of one document.
// ContextRunID optionally names an earlier evaluation run whose comparison
// and gauge artifacts are supplied to the classifier as change context.
type ClassifyRequest struct {
	Path         string
	ContextRunID uuid.UUID
}

// ClassifyResult holds a standalone classification run's output.
type ClassifyResult struct {
	RunID          uuid.UUID                           `json:"run_id"`
	Classification *types.ClassificationRecommendation `json:"classification"`
	Cost           CostSummary                         `json:"cost"`
}

// Classify evaluates a single document against the full grade matrix. When
// the request names a context run, that run's comparison and gauge artifacts
// are loaded and passed to the classifier.
func (p *Pipeline) Classify(ctx context.Context, req ClassifyRequest) (*ClassifyResult, error) {
	runID, err := p.opts.Store.CreateRun(ctx, db.ModeClassify, "", req.Path)
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	result := &ClassifyResult{RunID: runID}

	var comparison *types.ComparisonResult
	var gaugeResult *types.RevaluationRecommendation
	if req.ContextRunID != uuid.Nil {
		comparison, gaugeResult, err = p.loadChangeContext(ctx, req.ContextRunID)
		if err != nil {
			return result, p.fail(ctx, runID, "context", err)
		}
	}

	p.emit(runID, StateExtracting, "extracting document text")
	text, err := p.opts.Extractor.Extract(ctx, req.Path)
	if err != nil {
		return result, p.fail(ctx, runID, "extract", err)
	}
	if err := p.opts.Store.SaveTextArtifact(ctx, runID, db.StepNewDocumentText, text); err != nil {
		return result, p.fail(ctx, runID, "extract", err)
	}

	p.emit(runID, StateClassifying, "classifying position")
	classification, raw, err := p.opts.Classifier.Classify(ctx, classifier.Request{
		PositionText: text,
		Comparison:   comparison,
		Gauge:        gaugeResult,
	})
	if err != nil {
		return result, p.fail(ctx, runID, "classify", err)
	}
	if err := p.saveArtifact(ctx, runID, db.StepClassification, classification); err != nil {
		return result, p.fail(ctx, runID, "classify", err)
	}
	result.Classification = classification
	result.Cost.add("classify", raw.Provider, raw.Model, raw.Usage, p.opts.Pricing)

	if err := p.saveArtifact(ctx, runID, db.StepCostSummary, result.Cost); err != nil {
		return result, p.fail(ctx, runID, "persist", err)
	}
	if err := p.opts.Store.CompleteRun(ctx, runID, db.StatusCompleted); err != nil {
		return result, fmt.Errorf("completing run: %w", err)
	}
	p.emit(runID, StateComplete, "classification complete")
	return result, nil
}

// loadChangeContext pulls the comparison and gauge artifacts from an earlier
// evaluation run. The comparison must exist; the gauge artifact is optional
// because compare-only runs never produce one.
func (p *Pipeline) loadChangeContext(ctx context.Context, contextRunID uuid.UUID) (*types.ComparisonResult, *types.RevaluationRecommendation, error) {
	data, err := p.opts.Store.GetArtifact(ctx, contextRunID, db.StepComparison)
	if err != nil {
		return nil, nil, fmt.Errorf("loading comparison from run %s: %w", contextRunID, err)
	}
	if data == nil {
		return nil, nil, fmt.Errorf("run %s has no comparison artifact", contextRunID)
	}
	var comparison types.ComparisonResult
	if err := json.Unmarshal(data, &comparison); err != nil {
		return nil, nil, fmt.Errorf("decoding comparison from run %s: %w", contextRunID, err)
	}

	var gaugeResult *types.RevaluationRecommendation
	data, err = p.opts.Store.GetArtifact(ctx, contextRunID, db.StepGauge)
	if err != nil {
		return nil, nil, fmt.Errorf("loading gauge result from run %s: %w", contextRunID, err)
	}
	if data != nil {
		gaugeResult = &types.RevaluationRecommendation{}
		if err := json.Unmarshal(data, gaugeResult); err != nil {
			return nil, nil, fmt.Errorf("decoding gauge result from run %s: %w", contextRunID, err)
		}
	}
	return &comparison, gaugeResult, nil
}

// GenerationResult holds a generation run's output.
type GenerationResult struct {
	RunID  uuid.UUID         `json:"run_id"`
	Result *generator.Result `json:"result"`
	Cost   CostSummary       `json:"cost"`
}

// Generate runs the job-description generator and persists the outcome,
// including partial results when one provider failed.
func (p *Pipeline) Generate(ctx context.Context, req types.JobDescriptionRequest) (*GenerationResult, error) {
	runID, err := p.opts.Store.CreateRun(ctx, db.ModeGenerate, "", "")
	if err != nil {
		return nil, fmt.Errorf("creating run: %w", err)
	}
	result := &GenerationResult{RunID: runID}

	genResult, genErr := p.opts.Generator.Generate(ctx, req)
	if genResult != nil {
		result.Result = genResult
		for _, pr := range genResult.Results {
			if pr.Description != nil {
				result.Cost.add("generate", pr.Provider, pr.Model, pr.Usage, p.opts.Pricing)
			}
		}
		if err := p.saveArtifact(ctx, runID, db.StepGeneration, genResult); err != nil {
			return result, p.fail(ctx, runID, "generate", err)
		}
		if err := p.saveArtifact(ctx, runID, db.StepCostSummary, result.Cost); err != nil {
			return result, p.fail(ctx, runID, "persist", err)
		}
	}
	if genErr != nil {
		return result, p.fail(ctx, runID, "generate", genErr)
	}

	if err := p.opts.Store.CompleteRun(ctx, runID, db.StatusCompleted); err != nil {
		return result, fmt.Errorf("completing run: %w", err)
	}
	p.emit(runID, StateComplete, "generation complete")
	return result, nil
}
