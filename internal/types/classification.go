package types

// ClassificationRecommendation is the structured output of the classifier
// stage: a best-fit level (1-17) with per-category analysis and supporting
// evidence. PreviousLevel is nil when no prior level was known; it is never
// inferred from the document itself.
type ClassificationRecommendation struct {
	PositionTitle       string            `json:"position_title"`
	RecommendedLevel    int               `json:"recommended_level"`
	Confidence          int               `json:"confidence"`
	PreviousLevel       *int              `json:"previous_level,omitempty"`
	Rationale           string            `json:"rationale"`
	CategoryAnalysis    map[string]string `json:"category_analysis"`
	SupportingEvidence  []string          `json:"supporting_evidence"`
	AlternativeLevels   []int             `json:"alternative_levels"`
	ChangeContextUsed   bool              `json:"change_context_used"`
	ComparablePositions []string          `json:"comparable_positions"`
}

// LevelChanged reports whether the recommendation moves the position away
// from its previous level. False when no previous level is known.
func (r *ClassificationRecommendation) LevelChanged() bool {
	return r.PreviousLevel != nil && *r.PreviousLevel != r.RecommendedLevel
}
