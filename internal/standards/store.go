// Package standards loads the 17-level grade matrix and exposes read-only
// access to per-level category text. The store is loaded once at startup and
// safely shared across concurrent pipeline runs.
package standards

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/jonathan/job-evaluator/internal/types"
)

// Level bounds of the grade matrix.
const (
	MinLevel = 1
	MaxLevel = 17
)

// LevelStandard holds the descriptive text for one classification level
// across the six categories. Immutable after load.
type LevelStandard struct {
	Level      int                 `json:"level"`
	Title      string              `json:"title"`
	GradeCode  string              `json:"grade_code"`
	Categories map[string][]string `json:"categories"`
}

// Key returns the conventional level token, e.g. "EC-07".
func (ls LevelStandard) Key() string {
	return FormatLevelKey(ls.Level)
}

// FormatLevelKey renders a level number as its zero-padded token.
func FormatLevelKey(level int) string {
	return fmt.Sprintf("EC-%02d", level)
}

// Store is the read-only grade matrix keyed by integer level.
type Store struct {
	levels map[int]LevelStandard
}

// fileFormat mirrors the persisted standards document.
type fileFormat struct {
	ClassificationLevels map[string]struct {
		Title      string              `json:"title"`
		GradeCode  string              `json:"grade_code"`
		Categories map[string][]string `json:"categories"`
	} `json:"classification_levels"`
}

// Load reads the standards document from disk. Levels outside 1-17 or with
// unparseable keys are rejected rather than skipped; the matrix must be
// complete and well-formed to evaluate against it.
func Load(path string) (*Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read standards file: %w", err)
	}
	return Parse(data)
}

// Parse builds a Store from a standards JSON document.
func Parse(data []byte) (*Store, error) {
	var doc fileFormat
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse standards JSON: %w", err)
	}
	if len(doc.ClassificationLevels) == 0 {
		return nil, fmt.Errorf("standards document contains no classification levels")
	}

	levels := make(map[int]LevelStandard, len(doc.ClassificationLevels))
	for key, entry := range doc.ClassificationLevels {
		level, err := ParseLevelToken(key)
		if err != nil {
			return nil, fmt.Errorf("invalid level key %q: %w", key, err)
		}
		if _, dup := levels[level]; dup {
			return nil, fmt.Errorf("duplicate level %d in standards document", level)
		}
		levels[level] = LevelStandard{
			Level:      level,
			Title:      entry.Title,
			GradeCode:  entry.GradeCode,
			Categories: entry.Categories,
		}
	}

	return &Store{levels: levels}, nil
}

// NewStore builds a Store directly from level standards. Used by tests and
// by callers that assemble the matrix programmatically.
func NewStore(entries []LevelStandard) *Store {
	levels := make(map[int]LevelStandard, len(entries))
	for _, e := range entries {
		levels[e.Level] = e
	}
	return &Store{levels: levels}
}

// Get returns the standard for a level.
func (s *Store) Get(level int) (LevelStandard, bool) {
	ls, ok := s.levels[level]
	return ls, ok
}

// Len returns the number of loaded levels.
func (s *Store) Len() int {
	return len(s.levels)
}

// All returns every loaded level in ascending order.
func (s *Store) All() []LevelStandard {
	out := make([]LevelStandard, 0, len(s.levels))
	for _, ls := range s.levels {
		out = append(out, ls)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out
}

// Window returns the standards for {level-1, level, level+1}, clamped to the
// matrix bounds. The gauge stage deliberately reasons against this narrow
// window rather than the full 17-level sweep.
func (s *Store) Window(level int) []LevelStandard {
	out := make([]LevelStandard, 0, 3)
	for offset := -1; offset <= 1; offset++ {
		l := level + offset
		if l < MinLevel || l > MaxLevel {
			continue
		}
		if ls, ok := s.levels[l]; ok {
			out = append(out, ls)
		}
	}
	return out
}

// FormatWindow renders the ±1 window around the current level for prompt
// context, marking the current level and truncating category items to keep
// the prompt focused.
func (s *Store) FormatWindow(currentLevel int) string {
	var sb strings.Builder
	sb.WriteString("**Relevant Classification Standards:**\n")
	for _, ls := range s.Window(currentLevel) {
		marker := ""
		if ls.Level == currentLevel {
			marker = " <- CURRENT LEVEL"
		}
		sb.WriteString(fmt.Sprintf("\n**%s%s:** %s\n", ls.Key(), marker, ls.Title))
		writeCategoryItems(&sb, ls.Categories, 2, 120)
	}
	return sb.String()
}

// FormatAll renders all loaded levels for the classifier prompt, with the
// leading items of each category summarized.
func (s *Store) FormatAll() string {
	var sb strings.Builder
	sb.WriteString("**Grade Matrix - Classification Standards:**\n")
	for _, ls := range s.All() {
		sb.WriteString(fmt.Sprintf("\n**%s: %s**\n", ls.Key(), ls.Title))
		if ls.GradeCode != "" {
			sb.WriteString(fmt.Sprintf("Grade Code: %s\n", ls.GradeCode))
		}
		writeCategoryItems(&sb, ls.Categories, 2, 150)
	}
	return sb.String()
}

// writeCategoryItems appends up to maxItems truncated items per category, in
// canonical category order.
func writeCategoryItems(sb *strings.Builder, categories map[string][]string, maxItems, maxLen int) {
	for _, key := range types.CategoryKeys() {
		items := categories[key]
		if len(items) == 0 {
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s:\n", types.CategoryDisplayNames[key]))
		for i, item := range items {
			if i >= maxItems {
				break
			}
			if len(item) > maxLen {
				item = item[:maxLen] + "..."
			}
			sb.WriteString(fmt.Sprintf("    - %s\n", item))
		}
	}
}
