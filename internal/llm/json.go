// Package llm - json.go provides shared utilities for LLM response processing.
package llm

import (
	"encoding/json"
	"strings"
)

// CleanJSONBlock removes markdown code block wrappers from JSON responses.
// LLMs often wrap JSON in ```json ... ``` blocks even when instructed not to.
func CleanJSONBlock(text string) string {
	text = strings.TrimSpace(text)

	// Handle ```json ... ``` blocks
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	// Handle generic ``` ... ``` blocks
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		// Skip potential language identifier on first line
		if idx := strings.Index(text, "\n"); idx >= 0 {
			firstLine := text[:idx]
			if len(firstLine) < 20 && !strings.Contains(firstLine, " ") && !strings.Contains(firstLine, "{") {
				text = text[idx+1:]
			}
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		return strings.TrimSpace(text)
	}

	return text
}

// ExtractJSONObject finds the first well-formed JSON object embedded in a
// model response. It handles responses wrapped in explanatory prose, fenced
// code blocks, or both. Returns false when no complete object is present.
func ExtractJSONObject(text string) (string, bool) {
	// A fenced block, if present, is the most reliable carrier.
	if fenced := extractFencedJSON(text); fenced != "" {
		if obj, ok := scanJSONObject(fenced); ok {
			return obj, true
		}
	}

	return scanJSONObject(text)
}

// extractFencedJSON locates the first code fence, tolerating prose before
// it, and strips the fence with CleanJSONBlock.
func extractFencedJSON(text string) string {
	start := strings.Index(text, "```")
	if start < 0 {
		return ""
	}
	return CleanJSONBlock(text[start:])
}

// scanJSONObject scans for the first balanced top-level object and confirms
// it parses. Brace tracking is string-aware so braces inside values do not
// confuse the depth count.
func scanJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		ch := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch ch {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					candidate := text[start : i+1]
					if json.Valid([]byte(candidate)) {
						return candidate, true
					}
					// Malformed candidate: keep scanning past it.
					next := strings.IndexByte(text[i+1:], '{')
					if next < 0 {
						return "", false
					}
					return scanJSONObject(text[i+1:])
				}
			}
		}
	}
	return "", false
}
