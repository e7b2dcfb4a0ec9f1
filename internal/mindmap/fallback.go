package mindmap

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var (
	listPrefix     = regexp.MustCompile(`^[\d.\-*\s]+`)
	themeMarkers   = []string{"key", "main", "important", "analysis", "finding"}
	bulletPrefixes = []string{"1.", "2.", "3.", "4.", "5.", "-", "*"}
)

// scanThemeLines scans text line by line for heading-like lines and turns
// them into themes. Used when every generation attempt failed to yield
// parseable structure. May return nothing; callers chain onto the source
// document and finally genericThemes.
func scanThemeLines(text string) []OutlineNode {
	var candidates []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) <= 10 || len(line) >= 100 {
			continue
		}
		if !looksLikeHeading(line) {
			continue
		}
		clean := strings.TrimSpace(listPrefix.ReplaceAllString(line, ""))
		if len(clean) > 5 {
			candidates = append(candidates, clean)
		}
		if len(candidates) >= maxThemes {
			break
		}
	}

	themes := make([]OutlineNode, 0, len(candidates))
	for i, name := range candidates {
		if len(name) > 50 {
			name = clampString(name, 50) + "..."
		}
		themes = append(themes, OutlineNode{
			ID:      fmt.Sprintf("theme_%d", i+1),
			Name:    name,
			Summary: "Key topic extracted from document content",
		})
	}
	return themes
}

func looksLikeHeading(line string) bool {
	runes := []rune(line)
	if unicode.IsUpper(runes[0]) {
		return true
	}
	lower := strings.ToLower(line)
	for _, marker := range themeMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	for _, prefix := range bulletPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

func genericThemes() []OutlineNode {
	return []OutlineNode{
		{ID: "theme_1", Name: "Document Overview", Summary: "Main content and structure of the document"},
		{ID: "theme_2", Name: "Key Points", Summary: "Important findings and conclusions"},
		{ID: "theme_3", Name: "Analysis", Summary: "Analysis and interpretation of the content"},
	}
}
