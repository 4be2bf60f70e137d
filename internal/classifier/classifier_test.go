package classifier

import (
	"context"
	"fmt"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/standards"
	"github.com/jonathan/job-evaluator/internal/types"
)

type fakeClient struct {
	response string
	lastReq  llm.GenerateRequest
}

func (f *fakeClient) Generate(_ context.Context, req llm.GenerateRequest) (string, llm.Usage, error) {
	f.lastReq = req
	return f.response, llm.Usage{InputTokens: 500, OutputTokens: 200}, nil
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return "fake-model" }
func (f *fakeClient) Provider() llm.Provider        { return llm.ProviderGemini }
func (f *fakeClient) Close() error                  { return nil }

func testStore() *standards.Store {
	entries := make([]standards.LevelStandard, 0, 17)
	for l := 1; l <= 17; l++ {
		entries = append(entries, standards.LevelStandard{
			Level: l,
			Title: fmt.Sprintf("Level %d title", l),
			Categories: map[string][]string{
				types.CategoryDecisionMaking: {"decision criteria"},
			},
		})
	}
	return standards.NewStore(entries)
}

func classificationResponse(level int, previousLevel, rationale string) string {
	return fmt.Sprintf(`{
	"position_title": "Senior Policy Analyst",
	"recommended_level": %d,
	"confidence": 82,
	"previous_level": %s,
	"rationale": %q,
	"category_analysis": {
		"accountabilities": "matches level",
		"knowledge_experience": "matches level",
		"decision_making": "matches level",
		"customer_relationship": "matches level",
		"leadership": "matches level",
		"project_management": "matches level"
	},
	"supporting_evidence": ["Leads cross-department initiatives"],
	"alternative_levels": [%d],
	"change_context_used": true,
	"comparable_positions": ["Senior Program Analyst"]
}`, level, previousLevel, rationale, level+1)
}

func TestClassifyStandalone(t *testing.T) {
	// Model claims context was used; the flag must be corrected to the truth.
	client := &fakeClient{response: classificationResponse(10, "9", "Strong match at this level.")}
	c := New(llm.NewInvoker(client), testStore())

	result, raw, err := c.Classify(context.Background(), Request{PositionText: "position text"})
	require.NoError(t, err)
	require.NotNil(t, raw)

	assert.Equal(t, 10, result.RecommendedLevel)
	assert.False(t, result.ChangeContextUsed)
	assert.Nil(t, result.PreviousLevel)

	assert.Contains(t, client.lastReq.Prompt, "WITHOUT change context")
	assert.Contains(t, client.lastReq.Prompt, "position text")
	assert.Contains(t, client.lastReq.Prompt, "EC-17")
	assert.Equal(t, float32(0), client.lastReq.Temperature)
}

func TestClassifyWithGaugeContext(t *testing.T) {
	client := &fakeClient{response: classificationResponse(10, "9", "Changes elevate the role.")}
	c := New(llm.NewInvoker(client), testStore())

	result, _, err := c.Classify(context.Background(), Request{
		PositionText: "position text",
		Gauge: &types.RevaluationRecommendation{
			ShouldReevaluate:    true,
			Confidence:          90,
			CurrentLevel:        9,
			LikelyNewLevelRange: "EC-09 to EC-10",
			Rationale:           "Material changes found.",
			CategoriesAffected:  []string{types.CategoryLeadership},
			RiskAssessment:      types.RiskMedium,
		},
	})
	require.NoError(t, err)

	assert.True(t, result.ChangeContextUsed)
	require.NotNil(t, result.PreviousLevel)
	assert.Equal(t, 9, *result.PreviousLevel)
	assert.True(t, result.LevelChanged())

	assert.Contains(t, client.lastReq.Prompt, "REVALUATION GAUGE")
	assert.Contains(t, client.lastReq.Prompt, "baseline of the previous level: EC-09")
}

func TestClassifyWithComparisonOnly(t *testing.T) {
	client := &fakeClient{response: classificationResponse(10, "null", "Solid fit.")}
	c := New(llm.NewInvoker(client), testStore())

	result, _, err := c.Classify(context.Background(), Request{
		PositionText: "position text",
		Comparison: &types.ComparisonResult{
			Summary:             "Minor edits only.",
			OverallSignificance: types.SignificanceMinor,
			ClassificationRelevantChanges: map[string]types.ChangeSet{
				types.CategoryAccountabilities: {},
			},
		},
	})
	require.NoError(t, err)

	assert.True(t, result.ChangeContextUsed)
	assert.Nil(t, result.PreviousLevel)
	assert.Contains(t, client.lastReq.Prompt, "DOCUMENT COMPARISON")
}

func TestClassifyRejectsUndocumentedDemotion(t *testing.T) {
	client := &fakeClient{response: classificationResponse(7, "9", "The role fits better lower.")}
	c := New(llm.NewInvoker(client), testStore())

	_, _, err := c.Classify(context.Background(), Request{
		PositionText: "position text",
		Gauge:        &types.RevaluationRecommendation{CurrentLevel: 9, LikelyNewLevelRange: "EC-09"},
	})
	var ve *llm.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message, "below previous level")
}

func TestClassifyAllowsDocumentedDemotion(t *testing.T) {
	client := &fakeClient{response: classificationResponse(8, "9",
		"Supervisory duties were removed, reducing the role's scope.")}
	c := New(llm.NewInvoker(client), testStore())

	result, _, err := c.Classify(context.Background(), Request{
		PositionText: "position text",
		Gauge:        &types.RevaluationRecommendation{CurrentLevel: 9, LikelyNewLevelRange: "EC-08 to EC-09"},
	})
	require.NoError(t, err)
	assert.Equal(t, 8, result.RecommendedLevel)
}

func TestTruncateKeepsRuneBoundary(t *testing.T) {
	s := "préavis" // é is two bytes
	got := truncate(s, 3)
	assert.Equal(t, "pr", got)
	assert.True(t, utf8.ValidString(got))

	assert.Equal(t, s, truncate(s, len(s)))
	assert.Equal(t, "pré", truncate(s, 4))
}
