package extraction

import (
	"regexp"
	"strings"
)

var (
	multiSpaceRe = regexp.MustCompile(`\s+`)
	blankRunRe   = regexp.MustCompile(`\n\n\n+`)
)

// CleanText normalizes extracted document text while preserving structure:
// headings and bullets keep their markers, runs of spaces collapse, and
// blank-line runs shrink to at most one blank line.
func CleanText(content string) string {
	if content == "" {
		return ""
	}

	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	cleaned := make([]string, 0, len(lines))
	for _, line := range lines {
		cleaned = append(cleaned, cleanLine(line))
	}

	result := strings.Join(cleaned, "\n")
	result = blankRunRe.ReplaceAllString(result, "\n\n")
	return strings.TrimSpace(result)
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, " \t")
	if strings.TrimSpace(line) == "" {
		return ""
	}

	trimmed := strings.TrimLeft(line, " \t")

	// Markdown headings lose stray leading indentation.
	if strings.HasPrefix(trimmed, "#") {
		return trimmed
	}

	// Bullets keep their indentation.
	if isBulletLine(trimmed) {
		indent := len(line) - len(trimmed)
		if indent > 0 {
			return strings.Repeat(" ", indent) + trimmed
		}
		return trimmed
	}

	leadingSpace := len(line) - len(trimmed)
	content := multiSpaceRe.ReplaceAllString(strings.TrimSpace(line), " ")
	if leadingSpace > 0 {
		return strings.Repeat(" ", leadingSpace) + content
	}
	return content
}

func isBulletLine(trimmed string) bool {
	return strings.HasPrefix(trimmed, "- ") || strings.HasPrefix(trimmed, "* ") ||
		strings.HasPrefix(trimmed, "• ") || strings.HasPrefix(trimmed, "· ")
}
