package standards

import (
	"fmt"
	"regexp"
	"strconv"
)

// LevelDetectionError indicates that no classification level token could be
// found in a document identifier. Callers must surface this to the user
// rather than guessing a level.
type LevelDetectionError struct {
	Identifier string
}

func (e *LevelDetectionError) Error() string {
	return fmt.Sprintf("could not detect a classification level in %q: expected a token like EC-07", e.Identifier)
}

// levelTokenRe matches "EC-07", "EC 7", "ec12" and similar variants.
var levelTokenRe = regexp.MustCompile(`(?i)EC[\s_-]?(\d{1,2})`)

// DetectLevel extracts the classification level from a document identifier,
// typically a filename like "senior_analyst_EC-09.txt".
func DetectLevel(identifier string) (int, error) {
	m := levelTokenRe.FindStringSubmatch(identifier)
	if m == nil {
		return 0, &LevelDetectionError{Identifier: identifier}
	}
	level, err := strconv.Atoi(m[1])
	if err != nil || level < MinLevel || level > MaxLevel {
		return 0, &LevelDetectionError{Identifier: identifier}
	}
	return level, nil
}

// ParseLevelToken parses an exact level key such as "EC-07" or "EC-7".
// Unlike DetectLevel it requires the whole string to be a level token.
func ParseLevelToken(token string) (int, error) {
	m := levelTokenRe.FindStringSubmatch(token)
	if m == nil || m[0] != token {
		return 0, fmt.Errorf("not a level token: %q", token)
	}
	level, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("not a level token: %q", token)
	}
	if level < MinLevel || level > MaxLevel {
		return 0, fmt.Errorf("level %d out of range [%d, %d]", level, MinLevel, MaxLevel)
	}
	return level, nil
}
