package types

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Risk rates the exposure of not re-evaluating a changed position.
type Risk string

// Risk values accepted from the gauge model output.
const (
	RiskLow    Risk = "low"
	RiskMedium Risk = "medium"
	RiskHigh   Risk = "high"
)

// Valid reports whether r is one of the three defined risk ratings.
func (r Risk) Valid() bool {
	switch r {
	case RiskLow, RiskMedium, RiskHigh:
		return true
	}
	return false
}

// RevaluationRecommendation is the structured output of the gauge stage:
// whether documented changes are material enough to warrant formal
// re-evaluation relative to the position's current level.
type RevaluationRecommendation struct {
	ShouldReevaluate    bool     `json:"should_reevaluate"`
	Confidence          int      `json:"confidence"`
	CurrentLevel        int      `json:"current_level"`
	LikelyNewLevelRange string   `json:"likely_new_level_range"`
	Rationale           string   `json:"rationale"`
	KeyFactors          []string `json:"key_factors"`
	CategoriesAffected  []string `json:"categories_affected"`
	RiskAssessment      Risk     `json:"risk_assessment"`
}

var levelRangeRe = regexp.MustCompile(`(?i)(?:EC[\s-]?)?(\d{1,2})`)

// ParseLevelRange parses a level range expression into its lower and upper
// bounds. Accepted forms include "10", "10-11", "10 to 11", and the prefixed
// variants the model sometimes emits ("EC-10 to EC-11"). A single level
// yields equal bounds.
func ParseLevelRange(s string) (low, high int, err error) {
	matches := levelRangeRe.FindAllStringSubmatch(strings.TrimSpace(s), -1)
	if len(matches) == 0 {
		return 0, 0, fmt.Errorf("no level numbers in range %q", s)
	}
	low, _ = strconv.Atoi(matches[0][1])
	high = low
	if len(matches) > 1 {
		high, _ = strconv.Atoi(matches[len(matches)-1][1])
	}
	if low < 1 || high > 17 || low > high {
		return 0, 0, fmt.Errorf("level range %q out of bounds (1-17)", s)
	}
	return low, high, nil
}

// RangeBounds returns the parsed bounds of LikelyNewLevelRange.
func (r *RevaluationRecommendation) RangeBounds() (low, high int, err error) {
	return ParseLevelRange(r.LikelyNewLevelRange)
}
