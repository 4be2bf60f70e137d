package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustSchemaKnownNames(t *testing.T) {
	for _, name := range []string{Comparison, Revaluation, Classification, JobDescription} {
		assert.NotEmpty(t, MustSchema(name), name)
	}
}

func TestMustSchemaPanicsOnUnknown(t *testing.T) {
	assert.Panics(t, func() { MustSchema("nonexistent") })
}

const categoryAnalysis = `{
	"accountabilities": "Owns significant policy files",
	"knowledge_experience": "Five years of analysis",
	"decision_making": "Frames options independently",
	"customer_relationship": "Leads stakeholder consultations",
	"leadership": "Guides junior staff",
	"project_management": "Runs concurrent projects"
}`

func TestValidateClassification(t *testing.T) {
	valid := `{
		"position_title": "Senior Analyst",
		"recommended_level": 7,
		"confidence": 85,
		"previous_level": null,
		"rationale": "Scope and decision authority match the level standards.",
		"category_analysis": ` + categoryAnalysis + `,
		"supporting_evidence": ["Leads policy files"],
		"alternative_levels": [6, 8],
		"comparable_positions": [],
		"change_context_used": false
	}`
	require.NoError(t, Validate(Classification, valid))
}

func TestValidateRejectsOutOfRangeLevel(t *testing.T) {
	invalid := `{
		"position_title": "Senior Analyst",
		"recommended_level": 42,
		"confidence": 85,
		"previous_level": null,
		"rationale": "x",
		"category_analysis": ` + categoryAnalysis + `,
		"supporting_evidence": [],
		"alternative_levels": [],
		"comparable_positions": [],
		"change_context_used": false
	}`
	err := Validate(Classification, invalid)
	require.Error(t, err)

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	require.NotEmpty(t, ve.Errors)
	assert.Equal(t, "recommended_level", ve.Errors[0].Field)
}

func TestValidateRejectsMalformedSchema(t *testing.T) {
	err := ValidateJSONString(`{"type": 12}`, `{}`)
	require.Error(t, err)

	var le *SchemaLoadError
	assert.ErrorAs(t, err, &le)
}
