package mindmap

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// similarityThreshold is the token-overlap percentage above which two theme
// names are considered the same theme.
const similarityThreshold = 75

// NormalizeOutline coerces an untrusted generic value tree into a valid
// Outline: required fields are synthesized, lengths clamped, per-parent
// fan-out capped and the depth limit enforced by not descending further.
// The result always passes Validate when at least one theme survives.
func NormalizeOutline(raw map[string]any, defaultTitle string) *Outline {
	o := &Outline{Title: defaultTitle}
	if raw != nil {
		if title, ok := raw["title"].(string); ok && strings.TrimSpace(title) != "" {
			o.Title = clampString(strings.TrimSpace(title), maxNameLength)
		}
		themes := childList(raw, "themes")
		for i, item := range themes {
			if len(o.Themes) >= maxThemes {
				break
			}
			node, ok := normalizeNode(item, fmt.Sprintf("theme_%d", i+1), 1)
			if !ok {
				continue
			}
			o.Themes = append(o.Themes, node)
		}
	}

	o.Themes = dedupeThemes(o.Themes)
	ensureUniqueIDs(o)
	o.computeStats()
	return o
}

func normalizeNode(item any, fallbackID string, depth int) (OutlineNode, bool) {
	m, ok := item.(map[string]any)
	if !ok {
		return OutlineNode{}, false
	}

	node := OutlineNode{
		ID:      stringField(m, fallbackID, "id"),
		Name:    clampString(stringField(m, "", "name", "title"), maxNameLength),
		Summary: clampString(stringField(m, "", "summary", "description"), maxSummaryLength),
	}
	if node.Name == "" {
		node.Name = defaultNameForID(fallbackID)
	}
	if node.Summary == "" {
		node.Summary = "Key topic extracted from document content"
	}
	if imp, ok := m["importance"].(float64); ok {
		node.Importance = clampFloat(imp, 0, 1)
	}
	if kws, ok := m["keywords"].([]any); ok {
		for _, kw := range kws {
			if s, ok := kw.(string); ok && strings.TrimSpace(s) != "" {
				node.Keywords = append(node.Keywords, strings.TrimSpace(s))
			}
		}
	}

	// Depth cap: anything below the limit is simply not descended into.
	if depth < maxDepth {
		limit := maxSubtopics
		if depth >= 2 {
			limit = maxDetails
		}
		for i, child := range childItems(m) {
			if len(node.Children) >= limit {
				break
			}
			childID := fmt.Sprintf("%s_%s_%d", node.ID, childLabel(depth), i+1)
			if c, ok := normalizeNode(child, childID, depth+1); ok {
				node.Children = append(node.Children, c)
			}
		}
	}
	return node, true
}

// childItems accepts the different keys models use for nesting.
func childItems(m map[string]any) []any {
	for _, key := range []string{"subtopics", "sub_themes", "details", "children"} {
		if items := childList(m, key); items != nil {
			return items
		}
	}
	return nil
}

func childList(m map[string]any, key string) []any {
	items, ok := m[key].([]any)
	if !ok {
		return nil
	}
	return items
}

func childLabel(parentDepth int) string {
	if parentDepth == 1 {
		return "sub"
	}
	return "detail"
}

func stringField(m map[string]any, fallback string, keys ...string) string {
	for _, key := range keys {
		if s, ok := m[key].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return fallback
}

func defaultNameForID(id string) string {
	parts := strings.Split(id, "_")
	for i := range parts {
		if parts[i] == "" {
			continue
		}
		parts[i] = strings.ToUpper(parts[i][:1]) + parts[i][1:]
	}
	return strings.Join(parts, " ")
}

// clampString cuts s to at most limit bytes without splitting a rune.
func clampString(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	s = s[:limit]
	for len(s) > 0 {
		if r, size := utf8.DecodeLastRuneInString(s); r != utf8.RuneError || size > 1 {
			break
		}
		s = s[:len(s)-1]
	}
	return s
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// dedupeThemes drops themes whose name is lexically near-identical to an
// earlier theme, folding their children into the survivor.
func dedupeThemes(themes []OutlineNode) []OutlineNode {
	out := make([]OutlineNode, 0, len(themes))
	for _, t := range themes {
		merged := false
		for i := range out {
			if SimilarityRatio(out[i].Name, t.Name) >= similarityThreshold {
				for _, c := range t.Children {
					if len(out[i].Children) >= maxSubtopics {
						break
					}
					out[i].Children = append(out[i].Children, c)
				}
				merged = true
				break
			}
		}
		if !merged {
			out = append(out, t)
		}
	}
	return out
}

// SimilarityRatio scores two names on a 0-100 scale using token overlap.
func SimilarityRatio(a, b string) int {
	a = strings.ToLower(strings.TrimSpace(a))
	b = strings.ToLower(strings.TrimSpace(b))
	if a == "" || b == "" {
		return 0
	}
	if a == b {
		return 100
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 80
	}
	wordsA := make(map[string]struct{})
	for _, w := range strings.Fields(a) {
		wordsA[w] = struct{}{}
	}
	wordsB := make(map[string]struct{})
	for _, w := range strings.Fields(b) {
		wordsB[w] = struct{}{}
	}
	common := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			common++
		}
	}
	total := len(wordsA) + len(wordsB) - common
	if total == 0 {
		return 0
	}
	return common * 100 / total
}

// ensureUniqueIDs rewrites colliding or empty ids so every id is unique
// across the whole tree, keeping UI keys and drill-down callbacks stable.
func ensureUniqueIDs(o *Outline) {
	seen := make(map[string]bool)
	var walk func(n *OutlineNode)
	walk = func(n *OutlineNode) {
		id := strings.TrimSpace(n.ID)
		if id == "" {
			id = "node"
		}
		if seen[id] {
			for suffix := 2; ; suffix++ {
				candidate := fmt.Sprintf("%s_%d", id, suffix)
				if !seen[candidate] {
					id = candidate
					break
				}
			}
		}
		n.ID = id
		seen[id] = true
		for i := range n.Children {
			walk(&n.Children[i])
		}
	}
	for i := range o.Themes {
		walk(&o.Themes[i])
	}
}
