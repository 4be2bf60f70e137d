package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-evaluator/internal/classifier"
	"github.com/jonathan/job-evaluator/internal/comparator"
	"github.com/jonathan/job-evaluator/internal/db"
	"github.com/jonathan/job-evaluator/internal/extraction"
	"github.com/jonathan/job-evaluator/internal/gauge"
	"github.com/jonathan/job-evaluator/internal/generator"
	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/standards"
	"github.com/jonathan/job-evaluator/internal/types"
)

// memStore records runs and artifacts in memory, preserving save order.
type memStore struct {
	mu        sync.Mutex
	runs      map[uuid.UUID]*db.Run
	artifacts map[string]any
	saveOrder []string
}

func newMemStore() *memStore {
	return &memStore{
		runs:      make(map[uuid.UUID]*db.Run),
		artifacts: make(map[string]any),
	}
}

func (m *memStore) CreateRun(_ context.Context, mode, oldDoc, newDoc string) (uuid.UUID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := uuid.New()
	m.runs[id] = &db.Run{ID: id, Mode: mode, OldDocument: oldDoc, NewDocument: newDoc, Status: db.StatusRunning}
	return id, nil
}

func (m *memStore) CompleteRun(_ context.Context, runID uuid.UUID, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[runID]
	if !ok {
		return fmt.Errorf("run not found: %s", runID)
	}
	run.Status = status
	return nil
}

func (m *memStore) SaveArtifact(_ context.Context, _ uuid.UUID, step string, content any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[step] = content
	m.saveOrder = append(m.saveOrder, step)
	return nil
}

func (m *memStore) SaveTextArtifact(_ context.Context, _ uuid.UUID, step, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.artifacts[step] = text
	m.saveOrder = append(m.saveOrder, step)
	return nil
}

func (m *memStore) GetArtifact(_ context.Context, _ uuid.UUID, step string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	content, ok := m.artifacts[step]
	if !ok {
		return nil, nil
	}
	if raw, ok := content.(string); ok {
		return []byte(raw), nil
	}
	return json.Marshal(content)
}

func (m *memStore) status(runID uuid.UUID) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.runs[runID].Status
}

// queueClient replays canned responses in call order.
type queueClient struct {
	mu        sync.Mutex
	responses []string
	errs      []error
}

func (q *queueClient) Generate(_ context.Context, _ llm.GenerateRequest) (string, llm.Usage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.errs) > 0 {
		err := q.errs[0]
		q.errs = q.errs[1:]
		if err != nil {
			return "", llm.Usage{}, err
		}
	}
	if len(q.responses) == 0 {
		return "", llm.Usage{}, fmt.Errorf("queueClient exhausted")
	}
	resp := q.responses[0]
	q.responses = q.responses[1:]
	return resp, llm.Usage{InputTokens: 100, OutputTokens: 50}, nil
}

func (q *queueClient) GetModel(llm.ModelTier) string { return "gemini-2.5-flash" }
func (q *queueClient) Provider() llm.Provider        { return llm.ProviderGemini }
func (q *queueClient) Close() error                  { return nil }

func testStore17() *standards.Store {
	entries := make([]standards.LevelStandard, 0, 17)
	for l := 1; l <= 17; l++ {
		entries = append(entries, standards.LevelStandard{
			Level: l, Title: fmt.Sprintf("Level %d", l),
			Categories: map[string][]string{types.CategoryAccountabilities: {"criteria"}},
		})
	}
	return standards.NewStore(entries)
}

const comparisonJSON = `{
	"summary": "Leadership duties were added.",
	"changes_by_section": {"Responsibilities": {"additions": ["Leads a team"], "deletions": [], "modifications": []}},
	"classification_relevant_changes": {
		"accountabilities": {"additions": [], "deletions": [], "modifications": []},
		"knowledge_experience": {"additions": [], "deletions": [], "modifications": []},
		"decision_making": {"additions": [], "deletions": [], "modifications": []},
		"customer_relationship": {"additions": [], "deletions": [], "modifications": []},
		"leadership": {"additions": ["Leads a team"], "deletions": [], "modifications": []},
		"project_management": {"additions": [], "deletions": [], "modifications": []}
	},
	"overall_significance": "major"
}`

const gaugeJSON = `{
	"should_reevaluate": true,
	"confidence": 88,
	"current_level": 9,
	"likely_new_level_range": "EC-09 to EC-10",
	"rationale": "New leadership duties elevate the role beyond its current scope.",
	"key_factors": ["Team leadership added"],
	"categories_affected": ["leadership"],
	"risk_assessment": "medium"
}`

const classificationJSON = `{
	"position_title": "Senior Policy Analyst",
	"recommended_level": 10,
	"confidence": 84,
	"previous_level": 9,
	"rationale": "The expanded leadership scope matches the next level.",
	"category_analysis": {
		"accountabilities": "a", "knowledge_experience": "b", "decision_making": "c",
		"customer_relationship": "d", "leadership": "e", "project_management": "f"
	},
	"supporting_evidence": ["Leads a team"],
	"alternative_levels": [9],
	"change_context_used": true,
	"comparable_positions": ["Senior Program Analyst"]
}`

func writeDoc(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func newTestPipeline(t *testing.T, client llm.Client, store Store) *Pipeline {
	t.Helper()
	invoker := llm.NewInvoker(client)
	matrix := testStore17()
	p, err := New(Options{
		Comparator: comparator.New(invoker),
		Gauge:      gauge.New(invoker, matrix),
		Classifier: classifier.New(invoker, matrix),
		Extractor:  extraction.NewExtractor(nil),
		Store:      store,
		Pricing: map[llm.Provider]*llm.Config{
			llm.ProviderGemini: llm.DefaultGeminiConfig(),
		},
	})
	require.NoError(t, err)
	return p
}

func TestEvaluateFullWorkflow(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeDoc(t, dir, "analyst_EC-09_old.txt", "Original position description.")
	newPath := writeDoc(t, dir, "analyst_EC-09_new.txt", "Updated position description with leadership.")

	client := &queueClient{responses: []string{comparisonJSON, gaugeJSON, classificationJSON}}
	store := newMemStore()

	var states []State
	p := newTestPipeline(t, client, store)
	p.opts.OnProgress = func(e ProgressEvent) { states = append(states, e.State) }

	result, err := p.Evaluate(context.Background(), EvaluationRequest{
		OldPath:      oldPath,
		NewPath:      newPath,
		WithGauge:    true,
		WithClassify: true,
	})
	require.NoError(t, err)

	require.NotNil(t, result.Comparison)
	require.NotNil(t, result.Gauge)
	require.NotNil(t, result.Classification)
	assert.Equal(t, 10, result.Classification.RecommendedLevel)
	require.NotNil(t, result.Classification.PreviousLevel)
	assert.Equal(t, 9, *result.Classification.PreviousLevel)
	assert.True(t, result.Classification.ChangeContextUsed)

	assert.Equal(t, db.StatusCompleted, store.status(result.RunID))
	assert.Equal(t, []string{
		db.StepOldDocumentText, db.StepNewDocumentText,
		db.StepComparison, db.StepGauge, db.StepClassification, db.StepCostSummary,
	}, store.saveOrder)

	assert.Len(t, result.Cost.Calls, 3)
	assert.Equal(t, int64(450), result.Cost.TotalTokens)
	assert.Greater(t, result.Cost.TotalCostUSD, 0.0)

	assert.Equal(t, []State{
		StateExtracting, StateComparing, StateGauging, StateClassifying, StateComplete,
	}, states)
}

func TestEvaluateCompareOnly(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeDoc(t, dir, "old_EC-05.txt", "Old text.")
	newPath := writeDoc(t, dir, "new_EC-05.txt", "New text.")

	client := &queueClient{responses: []string{comparisonJSON}}
	store := newMemStore()
	p := newTestPipeline(t, client, store)

	result, err := p.Evaluate(context.Background(), EvaluationRequest{OldPath: oldPath, NewPath: newPath})
	require.NoError(t, err)

	assert.NotNil(t, result.Comparison)
	assert.Nil(t, result.Gauge)
	assert.Nil(t, result.Classification)
	assert.Len(t, result.Cost.Calls, 1)
}

func TestEvaluateHaltsOnGaugeFailure(t *testing.T) {
	dir := t.TempDir()
	oldPath := writeDoc(t, dir, "old_EC-09.txt", "Old text.")
	newPath := writeDoc(t, dir, "new_EC-09.txt", "New text.")

	// Gauge responses are malformed twice: the single validation retry is
	// spent and the run must halt with the gauge stage recorded.
	client := &queueClient{responses: []string{comparisonJSON, "not json at all", "still not json"}}
	store := newMemStore()
	p := newTestPipeline(t, client, store)

	result, err := p.Evaluate(context.Background(), EvaluationRequest{
		OldPath: oldPath, NewPath: newPath, WithGauge: true, WithClassify: true,
	})
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "gauge", se.Stage)
	var ve *llm.ValidationError
	assert.ErrorAs(t, err, &ve)

	// Comparison artifact survives the failed run.
	assert.Contains(t, store.artifacts, db.StepComparison)
	assert.NotContains(t, store.artifacts, db.StepGauge)
	assert.Equal(t, "failed:gauge", store.status(result.RunID))
	assert.NotNil(t, result.Comparison)
}

func TestEvaluateHaltsOnExtractionFailure(t *testing.T) {
	store := newMemStore()
	p := newTestPipeline(t, &queueClient{}, store)

	result, err := p.Evaluate(context.Background(), EvaluationRequest{
		OldPath: filepath.Join(t.TempDir(), "missing.txt"),
		NewPath: filepath.Join(t.TempDir(), "missing2.txt"),
	})
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "extract", se.Stage)
	var ee *extraction.ExtractionError
	assert.ErrorAs(t, err, &ee)
	assert.Equal(t, "failed:extract", store.status(result.RunID))
}

func TestClassifyStandaloneRun(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "position.txt", "Position description text.")

	standalone := `{
	"position_title": "Senior Policy Analyst",
	"recommended_level": 10,
	"confidence": 84,
	"previous_level": null,
	"rationale": "Strong fit at this level.",
	"category_analysis": {
		"accountabilities": "a", "knowledge_experience": "b", "decision_making": "c",
		"customer_relationship": "d", "leadership": "e", "project_management": "f"
	},
	"supporting_evidence": [],
	"alternative_levels": [],
	"change_context_used": false,
	"comparable_positions": []
}`
	client := &queueClient{responses: []string{standalone}}
	store := newMemStore()
	p := newTestPipeline(t, client, store)

	result, err := p.Classify(context.Background(), ClassifyRequest{Path: path})
	require.NoError(t, err)

	assert.Equal(t, 10, result.Classification.RecommendedLevel)
	assert.Nil(t, result.Classification.PreviousLevel)
	assert.False(t, result.Classification.ChangeContextUsed)
	assert.Equal(t, db.StatusCompleted, store.status(result.RunID))
	assert.Contains(t, store.artifacts, db.StepClassification)
}

func TestClassifyWithPriorContext(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "position.txt", "Updated position description.")

	store := newMemStore()
	store.artifacts[db.StepComparison] = comparisonJSON
	store.artifacts[db.StepGauge] = gaugeJSON

	client := &queueClient{responses: []string{classificationJSON}}
	p := newTestPipeline(t, client, store)

	result, err := p.Classify(context.Background(), ClassifyRequest{
		Path:         path,
		ContextRunID: uuid.New(),
	})
	require.NoError(t, err)

	assert.True(t, result.Classification.ChangeContextUsed)
	require.NotNil(t, result.Classification.PreviousLevel)
	assert.Equal(t, 9, *result.Classification.PreviousLevel)
	assert.Equal(t, db.StatusCompleted, store.status(result.RunID))
}

func TestClassifyContextRunMissingComparison(t *testing.T) {
	dir := t.TempDir()
	path := writeDoc(t, dir, "position.txt", "Position description.")

	store := newMemStore()
	p := newTestPipeline(t, &queueClient{}, store)

	result, err := p.Classify(context.Background(), ClassifyRequest{
		Path:         path,
		ContextRunID: uuid.New(),
	})
	require.Error(t, err)

	var se *StageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "context", se.Stage)
	assert.Equal(t, "failed:context", store.status(result.RunID))
}

func TestGeneratePersistsPartialFailure(t *testing.T) {
	good := &queueClient{responses: []string{`{
	"job_working_title": "Analyst",
	"department": "Policy",
	"reports_to": "Director",
	"overall_purpose": "Provides analysis.",
	"key_responsibilities": ["Leads research"],
	"contacts_typical": "Directors",
	"innovation": "Expert judgment",
	"decision_making": "Independent within policy",
	"impact_of_results": "Department-wide"
}`}}
	bad := &failClient{}

	store := newMemStore()
	matrix := testStore17()
	invoker := llm.NewInvoker(good)
	p, err := New(Options{
		Comparator: comparator.New(invoker),
		Gauge:      gauge.New(invoker, matrix),
		Classifier: classifier.New(invoker, matrix),
		Generator: generator.New([]*llm.Invoker{
			llm.NewInvoker(good), llm.NewInvoker(bad),
		}, nil),
		Extractor: extraction.NewExtractor(nil),
		Store:     store,
	})
	require.NoError(t, err)

	result, err := p.Generate(context.Background(), types.JobDescriptionRequest{
		JobTitle:                "Analyst",
		Department:              "Policy",
		PrimaryResponsibilities: "Leads research.",
	})
	require.NoError(t, err)

	require.NotNil(t, result.Result)
	assert.Len(t, result.Result.Succeeded(), 1)
	assert.Contains(t, store.artifacts, db.StepGeneration)
	assert.Equal(t, db.StatusCompleted, store.status(result.RunID))
}

type failClient struct{}

func (f *failClient) Generate(context.Context, llm.GenerateRequest) (string, llm.Usage, error) {
	return "", llm.Usage{}, fmt.Errorf("provider unavailable")
}
func (f *failClient) GetModel(llm.ModelTier) string { return "claude-sonnet-4-5" }
func (f *failClient) Provider() llm.Provider        { return llm.ProviderAnthropic }
func (f *failClient) Close() error                  { return nil }
