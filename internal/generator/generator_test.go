package generator

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/job-evaluator/internal/llm"
	"github.com/jonathan/job-evaluator/internal/types"
)

type fakeClient struct {
	provider llm.Provider
	response string
	err      error
	lastReq  llm.GenerateRequest
}

func (f *fakeClient) Generate(_ context.Context, req llm.GenerateRequest) (string, llm.Usage, error) {
	f.lastReq = req
	if f.err != nil {
		return "", llm.Usage{}, f.err
	}
	return f.response, llm.Usage{InputTokens: 300, OutputTokens: 400}, nil
}

func (f *fakeClient) GetModel(llm.ModelTier) string { return string(f.provider) + "-model" }
func (f *fakeClient) Provider() llm.Provider        { return f.provider }
func (f *fakeClient) Close() error                  { return nil }

const validDescription = `{
	"job_working_title": "Senior Policy Analyst",
	"department": "Policy and Planning",
	"reports_to": "Director of Policy",
	"overall_purpose": "Provides strategic policy analysis for the department.",
	"key_responsibilities": ["Leads policy research initiatives", "Develops briefing materials"],
	"people_management": "Individual Contributor",
	"contacts_typical": "Works with departmental directors and external agencies.",
	"innovation": "Applies expert judgment to novel policy questions.",
	"decision_making": "Decides research approaches independently; escalates policy positions.",
	"impact_of_results": "Analysis shapes department-wide policy direction.",
	"working_conditions": "Standard office environment."
}`

func validRequest() types.JobDescriptionRequest {
	return types.JobDescriptionRequest{
		JobTitle:                "Senior Policy Analyst",
		Department:              "Policy and Planning",
		ReportsTo:               "Director of Policy",
		PrimaryResponsibilities: "Leads policy research and develops briefing materials.",
		KeyContacts:             "Departmental directors",
	}
}

func TestGenerateBothProviders(t *testing.T) {
	gemini := &fakeClient{provider: llm.ProviderGemini, response: validDescription}
	claude := &fakeClient{provider: llm.ProviderAnthropic, response: validDescription}

	g := New([]*llm.Invoker{llm.NewInvoker(gemini), llm.NewInvoker(claude)},
		&types.OrganizationalContext{OrganizationName: "Provincial Government", Location: "Halifax"})

	result, err := g.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	assert.Equal(t, llm.ProviderGemini, result.Results[0].Provider)
	assert.Equal(t, llm.ProviderAnthropic, result.Results[1].Provider)
	for _, pr := range result.Results {
		require.NotNil(t, pr.Description, string(pr.Provider))
		assert.Empty(t, pr.Error)
		assert.Equal(t, "Senior Policy Analyst", pr.Description.JobWorkingTitle)
	}
	assert.Len(t, result.Succeeded(), 2)

	assert.Contains(t, gemini.lastReq.Prompt, "Provincial Government")
	assert.Contains(t, gemini.lastReq.Prompt, "Senior Policy Analyst")
	assert.Contains(t, gemini.lastReq.Prompt, "Individual Contributor")
	assert.Equal(t, float32(0), gemini.lastReq.Temperature)
}

func TestGenerateOneProviderFails(t *testing.T) {
	gemini := &fakeClient{provider: llm.ProviderGemini, response: validDescription}
	claude := &fakeClient{
		provider: llm.ProviderAnthropic,
		err:      errors.New("rate limited"),
	}

	g := New([]*llm.Invoker{llm.NewInvoker(gemini), llm.NewInvoker(claude)}, nil)

	result, err := g.Generate(context.Background(), validRequest())
	require.NoError(t, err)
	require.Len(t, result.Results, 2)

	assert.NotNil(t, result.Results[0].Description)
	assert.Nil(t, result.Results[1].Description)
	assert.Contains(t, result.Results[1].Error, "rate limited")
	assert.Len(t, result.Succeeded(), 1)
}

func TestGenerateAllProvidersFail(t *testing.T) {
	claude := &fakeClient{
		provider: llm.ProviderAnthropic,
		err:      errors.New("unavailable"),
	}

	g := New([]*llm.Invoker{llm.NewInvoker(claude)}, nil)

	result, err := g.Generate(context.Background(), validRequest())
	require.Error(t, err)
	require.NotNil(t, result)
	assert.Contains(t, err.Error(), "all 1 generation providers failed")
}

func TestGenerateRejectsInvalidRequest(t *testing.T) {
	g := New([]*llm.Invoker{llm.NewInvoker(&fakeClient{provider: llm.ProviderGemini})}, nil)

	_, err := g.Generate(context.Background(), types.JobDescriptionRequest{Department: "Policy"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid generation request")
}

func TestTotalUsage(t *testing.T) {
	result := &Result{Results: []ProviderResult{
		{Usage: llm.Usage{InputTokens: 300, OutputTokens: 400}},
		{Usage: llm.Usage{InputTokens: 100, OutputTokens: 50}},
	}}

	usage := result.TotalUsage()
	assert.Equal(t, int64(400), usage.InputTokens)
	assert.Equal(t, int64(450), usage.OutputTokens)
	assert.Equal(t, int64(850), usage.TotalTokens())
}
