package export

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-evaluator/internal/generator"
	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/pipeline"
	"github.com/jonathan/job-evaluator/internal/types"
)

func intPtr(v int) *int { return &v }

func sampleEvaluation() *pipeline.EvaluationResult {
	return &pipeline.EvaluationResult{
		Comparison: &types.ComparisonResult{
			OldDocument:         "old_EC-09.txt",
			NewDocument:         "new_EC-09.txt",
			Summary:             "Leadership duties were added.",
			OverallSignificance: types.SignificanceMajor,
			ChangesBySection: map[string]types.ChangeSet{
				"Responsibilities": {Additions: []string{"Leads a team"}},
			},
			ClassificationRelevantChanges: map[string]types.ChangeSet{
				types.CategoryLeadership: {Additions: []string{"Leads a team"}},
			},
		},
		Gauge: &types.RevaluationRecommendation{
			ShouldReevaluate:    true,
			Confidence:          88,
			CurrentLevel:        9,
			LikelyNewLevelRange: "EC-09 to EC-10",
			Rationale:           "Changes elevate the role.",
			KeyFactors:          []string{"Team leadership added"},
			CategoriesAffected:  []string{"leadership"},
			RiskAssessment:      types.RiskMedium,
		},
		Classification: &types.ClassificationRecommendation{
			PositionTitle:     "Senior Policy Analyst",
			RecommendedLevel:  10,
			Confidence:        84,
			PreviousLevel:     intPtr(9),
			Rationale:         "Expanded scope matches the next level.",
			CategoryAnalysis:  map[string]string{types.CategoryLeadership: "Now leads a team"},
			ChangeContextUsed: true,
		},
		Cost: pipeline.CostSummary{
			Calls: []pipeline.CallCost{
				{Stage: "compare", Model: "gemini-2.5-flash", InputTokens: 100, OutputTokens: 50, CostUSD: 0.01},
			},
			TotalTokens:  150,
			TotalCostUSD: 0.01,
		},
	}
}

func TestFormatEvaluation(t *testing.T) {
	report := FormatEvaluation(sampleEvaluation())

	assert.Contains(t, report, "JOB EVALUATION ANALYSIS REPORT")
	assert.Contains(t, report, "TOOL 1: POSITION COMPARISON")
	assert.Contains(t, report, "TOOL 2: RE-EVALUATION GAUGE")
	assert.Contains(t, report, "TOOL 3: CLASSIFICATION RECOMMENDATION")
	assert.Contains(t, report, "MAJOR")
	assert.Contains(t, report, "  + Leads a team")
	assert.Contains(t, report, "EC-09")
	assert.Contains(t, report, "EC-10")
	assert.Contains(t, report, "Previous Level:")
	assert.Contains(t, report, "Change Context Used:")
	assert.Contains(t, report, "  YES")
	assert.Contains(t, report, "USAGE")
}

func TestFormatEvaluationCompareOnly(t *testing.T) {
	result := sampleEvaluation()
	result.Gauge = nil
	result.Classification = nil

	report := FormatEvaluation(result)
	assert.Contains(t, report, "TOOL 1: POSITION COMPARISON")
	assert.NotContains(t, report, "TOOL 2")
	assert.NotContains(t, report, "TOOL 3")
}

func TestFormatClassification(t *testing.T) {
	result := &pipeline.ClassifyResult{
		Classification: &types.ClassificationRecommendation{
			PositionTitle:    "Analyst",
			RecommendedLevel: 7,
			Confidence:       90,
			Rationale:        "Fits the level.",
			CategoryAnalysis: map[string]string{types.CategoryAccountabilities: "Routine scope"},
		},
	}

	report := FormatClassification(result)
	assert.Contains(t, report, "CLASSIFICATION RECOMMENDATION")
	assert.Contains(t, report, "EC-07")
	assert.NotContains(t, report, "Previous Level:")
	assert.NotContains(t, report, "Change Context Used:")
}

func TestFormatGeneration(t *testing.T) {
	result := &generator.Result{
		Results: []generator.ProviderResult{
			{
				Provider: llm.ProviderGemini,
				Model:    "gemini-2.5-pro",
				Description: &types.JobDescription{
					JobWorkingTitle:     "Analyst",
					Department:          "Policy",
					OverallPurpose:      "Provides analysis.",
					KeyResponsibilities: []string{"Leads research"},
				},
			},
			{Provider: llm.ProviderAnthropic, Error: "rate limited"},
		},
	}
	result.Results[0].Usage = llm.Usage{InputTokens: 300, OutputTokens: 400}

	report := FormatGeneration(result)
	assert.Contains(t, report, "PROVIDER: GEMINI")
	assert.Contains(t, report, "- Leads research")
	assert.Contains(t, report, "PROVIDER: ANTHROPIC")
	assert.Contains(t, report, "FAILED")
	assert.Contains(t, report, "rate limited")
	assert.Contains(t, report, "Total Tokens:\n  700")
}

func TestWriteReport(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteReport(dir, "1712000000000", "report body")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "1712000000000", "report.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "report body", string(data))
}
