package mindmap

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDecode(t *testing.T, raw string) map[string]any {
	t.Helper()
	var v map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &v))
	return v
}

func TestNormalizeOutline_SynthesizesMissingFields(t *testing.T) {
	raw := mustDecode(t, `{
		"themes": [
			{"name": "First Theme"},
			{"summary": "only a summary"},
			"not an object",
			{"name": "Third", "sub_themes": [{"name": "Child"}]}
		]
	}`)

	o := NormalizeOutline(raw, "Default Title")
	require.NoError(t, o.Validate())

	assert.Equal(t, "Default Title", o.Title)
	require.Len(t, o.Themes, 3)
	assert.Equal(t, "theme_1", o.Themes[0].ID)
	assert.Equal(t, "First Theme", o.Themes[0].Name)
	assert.NotEmpty(t, o.Themes[0].Summary)
	assert.Equal(t, "Theme 2", o.Themes[1].Name)

	require.Len(t, o.Themes[2].Children, 1)
	assert.Equal(t, "Child", o.Themes[2].Children[0].Name)
}

func TestNormalizeOutline_ClampsLengthsAndFanout(t *testing.T) {
	longName := strings.Repeat("n", 300)
	longSummary := strings.Repeat("s", 500)
	subs := make([]string, 0, 10)
	for i := 0; i < 10; i++ {
		subs = append(subs, `{"name": "sub"}`)
	}
	raw := mustDecode(t, `{
		"title": "T",
		"themes": [{
			"name": "`+longName+`",
			"summary": "`+longSummary+`",
			"importance": 7.5,
			"subtopics": [`+strings.Join(subs, ",")+`]
		}]
	}`)

	o := NormalizeOutline(raw, "T")
	require.NoError(t, o.Validate())
	require.Len(t, o.Themes, 1)

	theme := o.Themes[0]
	assert.Len(t, theme.Name, maxNameLength)
	assert.Len(t, theme.Summary, maxSummaryLength)
	assert.Equal(t, 1.0, theme.Importance)
	assert.Len(t, theme.Children, maxSubtopics)
}

func TestNormalizeOutline_ClampsOnRuneBoundaries(t *testing.T) {
	raw := mustDecode(t, `{
		"title": "T",
		"themes": [{
			"name": "`+strings.Repeat("文", 60)+`",
			"summary": "`+strings.Repeat("é", 150)+`"
		}]
	}`)

	o := NormalizeOutline(raw, "T")
	require.NoError(t, o.Validate())

	theme := o.Themes[0]
	assert.True(t, utf8.ValidString(theme.Name))
	assert.True(t, utf8.ValidString(theme.Summary))
	assert.LessOrEqual(t, len(theme.Name), maxNameLength)
	assert.LessOrEqual(t, len(theme.Summary), maxSummaryLength)
}

func TestNormalizeOutline_DepthCapped(t *testing.T) {
	raw := mustDecode(t, `{
		"title": "T",
		"themes": [{
			"name": "L1",
			"subtopics": [{
				"name": "L2",
				"details": [{
					"name": "L3",
					"children": [{"name": "L4 should be dropped"}]
				}]
			}]
		}]
	}`)

	o := NormalizeOutline(raw, "T")
	require.NoError(t, o.Validate())

	l3 := o.Themes[0].Children[0].Children[0]
	assert.Equal(t, "L3", l3.Name)
	assert.Empty(t, l3.Children)
}

func TestNormalizeOutline_MergesNearDuplicateThemes(t *testing.T) {
	raw := mustDecode(t, `{
		"title": "T",
		"themes": [
			{"name": "Climate Change Impact", "subtopics": [{"name": "Rising seas"}]},
			{"name": "climate change impact", "subtopics": [{"name": "Heat waves"}]},
			{"name": "Economic Policy"}
		]
	}`)

	o := NormalizeOutline(raw, "T")
	require.NoError(t, o.Validate())
	require.Len(t, o.Themes, 2)
	assert.Len(t, o.Themes[0].Children, 2)
}

func TestNormalizeOutline_GloballyUniqueIDs(t *testing.T) {
	raw := mustDecode(t, `{
		"title": "T",
		"themes": [
			{"id": "dup", "name": "One", "subtopics": [{"id": "dup", "name": "Two"}]},
			{"id": "dup", "name": "Three"}
		]
	}`)

	o := NormalizeOutline(raw, "T")
	require.NoError(t, o.Validate())

	ids := make(map[string]bool)
	var walk func(n OutlineNode)
	walk = func(n OutlineNode) {
		assert.False(t, ids[n.ID], "duplicate id %s", n.ID)
		ids[n.ID] = true
		for _, c := range n.Children {
			walk(c)
		}
	}
	for _, th := range o.Themes {
		walk(th)
	}
}

func TestNormalizeOutline_EmptyInput(t *testing.T) {
	o := NormalizeOutline(nil, "Fallback")
	assert.Equal(t, "Fallback", o.Title)
	assert.Empty(t, o.Themes)
	assert.Error(t, o.Validate(), "an outline without themes is not valid")
}

func TestComputeStats(t *testing.T) {
	raw := mustDecode(t, `{
		"title": "T",
		"themes": [
			{"name": "A", "subtopics": [
				{"name": "A1", "details": [{"name": "A1a"}, {"name": "A1b"}]},
				{"name": "A2"}
			]},
			{"name": "B"}
		]
	}`)

	o := NormalizeOutline(raw, "T")
	assert.Equal(t, Stats{ThemeCount: 2, SubtopicCount: 2, DetailCount: 2}, o.Stats)
}

func TestSimilarityRatio(t *testing.T) {
	assert.Equal(t, 100, SimilarityRatio("Same Name", "same name"))
	assert.Equal(t, 80, SimilarityRatio("Climate", "Climate Change"))
	assert.Equal(t, 0, SimilarityRatio("", "anything"))
	assert.Greater(t, SimilarityRatio("climate change impact", "impact climate shift"), 30)
	assert.Less(t, SimilarityRatio("alpha beta", "gamma delta"), similarityThreshold)
}
