package types

// Significance rates how much a position description changed between versions.
type Significance string

// Significance values accepted from the comparison model output.
const (
	SignificanceMinor    Significance = "minor"
	SignificanceModerate Significance = "moderate"
	SignificanceMajor    Significance = "major"
)

// Valid reports whether s is one of the three defined significance ratings.
func (s Significance) Valid() bool {
	switch s {
	case SignificanceMinor, SignificanceModerate, SignificanceMajor:
		return true
	}
	return false
}

// ChangeSet holds the additions, deletions, and modifications detected within
// one document section or classification category.
type ChangeSet struct {
	Additions     []string `json:"additions"`
	Deletions     []string `json:"deletions"`
	Modifications []string `json:"modifications"`
}

// Empty reports whether the change set contains no changes at all.
func (c ChangeSet) Empty() bool {
	return len(c.Additions) == 0 && len(c.Deletions) == 0 && len(c.Modifications) == 0
}

// ComparisonResult is the structured output of comparing two position
// descriptions. Changes are organized both by document section (flexible,
// model-chosen names) and by the six fixed classification categories
// (always all six keys present, possibly with empty lists).
type ComparisonResult struct {
	OldDocument                   string               `json:"old_document"`
	NewDocument                   string               `json:"new_document"`
	Summary                       string               `json:"summary"`
	ChangesBySection              map[string]ChangeSet `json:"changes_by_section"`
	ClassificationRelevantChanges map[string]ChangeSet `json:"classification_relevant_changes"`
	OverallSignificance           Significance         `json:"overall_significance"`
}

// HasMaterialChanges reports whether any classification category recorded a change.
func (r *ComparisonResult) HasMaterialChanges() bool {
	for _, cs := range r.ClassificationRelevantChanges {
		if !cs.Empty() {
			return true
		}
	}
	return false
}
