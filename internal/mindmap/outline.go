// Package mindmap turns free-form model output into a validated, bounded
// tree of document themes, and renders that tree for display and export.
package mindmap

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

// Structural bounds enforced on every outline, whatever the model returned.
const (
	maxNameLength    = 100
	maxSummaryLength = 200
	maxThemes        = 8
	maxSubtopics     = 6
	maxDetails       = 4
	maxDepth         = 3
)

// OutlineNode is one theme, subtopic or detail. Ids are unique across the
// whole tree so the rendering surface can key on them.
type OutlineNode struct {
	ID         string        `json:"id"`
	Name       string        `json:"name"`
	Summary    string        `json:"summary"`
	Importance float64       `json:"importance,omitempty"`
	Keywords   []string      `json:"keywords,omitempty"`
	Children   []OutlineNode `json:"children,omitempty"`
}

// Stats counts nodes per level for the status surface.
type Stats struct {
	ThemeCount    int `json:"theme_count"`
	SubtopicCount int `json:"subtopic_count"`
	DetailCount   int `json:"detail_count"`
}

// Outline is the validated tree produced per generation request.
type Outline struct {
	Title  string        `json:"title"`
	Themes []OutlineNode `json:"themes"`
	Stats  Stats         `json:"stats"`
}

const outlineSchema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "required": ["title", "themes"],
  "properties": {
    "title": {"type": "string", "minLength": 1},
    "themes": {
      "type": "array",
      "minItems": 1,
      "items": {"$ref": "#/$defs/node"}
    },
    "stats": {
      "type": "object",
      "properties": {
        "theme_count": {"type": "integer", "minimum": 0},
        "subtopic_count": {"type": "integer", "minimum": 0},
        "detail_count": {"type": "integer", "minimum": 0}
      }
    }
  },
  "$defs": {
    "node": {
      "type": "object",
      "required": ["id", "name"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string", "minLength": 1, "maxLength": 100},
        "summary": {"type": "string", "maxLength": 200},
        "importance": {"type": "number", "minimum": 0, "maximum": 1},
        "keywords": {"type": "array", "items": {"type": "string"}},
        "children": {"type": "array", "items": {"$ref": "#/$defs/node"}}
      }
    }
  }
}`

var (
	schemaOnce     sync.Once
	compiledSchema *jsonschema.Schema
	schemaErr      error
)

func loadCompiledSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("outline.schema.json", strings.NewReader(outlineSchema)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile("outline.schema.json")
	})
	return compiledSchema, schemaErr
}

// Validate checks the outline against the embedded JSON schema plus the
// invariants the schema cannot express (global id uniqueness, depth cap).
func (o *Outline) Validate() error {
	if o == nil {
		return fmt.Errorf("outline is nil")
	}
	schema, err := loadCompiledSchema()
	if err != nil {
		return fmt.Errorf("failed to compile outline schema: %w", err)
	}

	raw, err := json.Marshal(o)
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return err
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("outline schema validation failed: %w", err)
	}

	ids := make(map[string]bool)
	for i := range o.Themes {
		if err := checkNode(&o.Themes[i], 1, ids); err != nil {
			return err
		}
	}
	return nil
}

func checkNode(n *OutlineNode, depth int, ids map[string]bool) error {
	if depth > maxDepth {
		return fmt.Errorf("node %s exceeds depth limit %d", n.ID, maxDepth)
	}
	if ids[n.ID] {
		return fmt.Errorf("duplicate node id: %s", n.ID)
	}
	ids[n.ID] = true
	for i := range n.Children {
		if err := checkNode(&n.Children[i], depth+1, ids); err != nil {
			return err
		}
	}
	return nil
}

// computeStats walks the tree and fills per-level counts. Depth 1 nodes are
// themes, depth 2 subtopics, everything deeper counts as detail.
func (o *Outline) computeStats() {
	var stats Stats
	var walk func(n *OutlineNode, depth int)
	walk = func(n *OutlineNode, depth int) {
		switch depth {
		case 1:
			stats.ThemeCount++
		case 2:
			stats.SubtopicCount++
		default:
			stats.DetailCount++
		}
		for i := range n.Children {
			walk(&n.Children[i], depth+1)
		}
	}
	for i := range o.Themes {
		walk(&o.Themes[i], 1)
	}
	o.Stats = stats
}
