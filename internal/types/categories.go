// Package types provides type definitions for structured data used throughout the job-evaluator system.
//
//nolint:revive // types is a standard Go package name pattern
package types

// Category keys used across comparison diffs, gauge assessments, and
// classification analysis. The wire format (JSON keys) uses snake_case; the
// display names match the grade matrix headings.
const (
	CategoryAccountabilities     = "accountabilities"
	CategoryKnowledgeExperience  = "knowledge_experience"
	CategoryDecisionMaking       = "decision_making"
	CategoryCustomerRelationship = "customer_relationship"
	CategoryLeadership           = "leadership"
	CategoryProjectManagement    = "project_management"
)

// CategoryKeys returns the six classification category keys in canonical order.
func CategoryKeys() []string {
	return []string{
		CategoryAccountabilities,
		CategoryKnowledgeExperience,
		CategoryDecisionMaking,
		CategoryCustomerRelationship,
		CategoryLeadership,
		CategoryProjectManagement,
	}
}

// CategoryDisplayNames maps category keys to the headings used in the grade matrix.
var CategoryDisplayNames = map[string]string{
	CategoryAccountabilities:     "Accountabilities",
	CategoryKnowledgeExperience:  "Knowledge & Experience",
	CategoryDecisionMaking:       "Decision Making",
	CategoryCustomerRelationship: "Customer & Relationship Management",
	CategoryLeadership:           "Leadership",
	CategoryProjectManagement:    "Project Management",
}

// IsCategoryKey reports whether key is one of the six classification categories.
func IsCategoryKey(key string) bool {
	_, ok := CategoryDisplayNames[key]
	return ok
}
