package mindmap

import (
	"fmt"
	"regexp"
	"strings"
)

var unsafeIDChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// mermaidNameLimit keeps node labels readable in rendered diagrams.
const mermaidNameLimit = 25

// ToMermaid renders the outline as a Mermaid graph: node declarations plus
// parent-to-child edges under a synthetic root. Identifiers are de-duplicated
// per node, not per name, so two nodes sharing a display name never collide.
func ToMermaid(o *Outline) string {
	var lines []string
	lines = append(lines, "graph TD")

	title := clampString(o.Title, 35)
	lines = append(lines, fmt.Sprintf("    Root[%q]", strings.ReplaceAll(title, `"`, "'")))

	used := map[string]bool{"Root": true}
	var walk func(n *OutlineNode, parentID string, level int)
	walk = func(n *OutlineNode, parentID string, level int) {
		nodeID := mermaidID(n.ID, level, used)
		name := strings.ReplaceAll(n.Name, `"`, "'")
		if len(name) > mermaidNameLimit {
			name = clampString(name, mermaidNameLimit) + "..."
		}
		lines = append(lines, fmt.Sprintf("    %s[%q]", nodeID, name))
		lines = append(lines, fmt.Sprintf("    %s --> %s", parentID, nodeID))
		for i := range n.Children {
			walk(&n.Children[i], nodeID, level+1)
		}
	}
	for i := range o.Themes {
		walk(&o.Themes[i], "Root", 1)
	}
	return strings.Join(lines, "\n")
}

func mermaidID(raw string, level int, used map[string]bool) string {
	base := unsafeIDChars.ReplaceAllString(raw, "")
	if len(base) > 10 {
		base = base[:10]
	}
	if base == "" {
		base = "node"
	}
	id := fmt.Sprintf("N%d_%s", level, base)
	for suffix := 2; used[id]; suffix++ {
		id = fmt.Sprintf("N%d_%s_%d", level, base, suffix)
	}
	used[id] = true
	return id
}

// ToMarkdown renders the outline as nested headings, each followed by its
// summary.
func ToMarkdown(o *Outline) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", o.Title)

	var walk func(n *OutlineNode, level int)
	walk = func(n *OutlineNode, level int) {
		heading := level + 1
		if heading > 6 {
			heading = 6
		}
		fmt.Fprintf(&sb, "%s %s\n\n", strings.Repeat("#", heading), n.Name)
		if n.Summary != "" {
			fmt.Fprintf(&sb, "%s\n\n", n.Summary)
		}
		for i := range n.Children {
			walk(&n.Children[i], level+1)
		}
	}
	for i := range o.Themes {
		walk(&o.Themes[i], 1)
	}
	return strings.TrimRight(sb.String(), "\n") + "\n"
}
