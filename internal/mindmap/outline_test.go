package mindmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_AcceptsLeafNodes(t *testing.T) {
	o := &Outline{
		Title: "T",
		Themes: []OutlineNode{
			{ID: "theme_1", Name: "Leaf theme"},
			{ID: "theme_2", Name: "Parent", Children: []OutlineNode{
				{ID: "theme_2_sub_1", Name: "Leaf subtopic"},
			}},
		},
	}
	o.computeStats()
	assert.NoError(t, o.Validate())
}

func TestOutlineNode_LeafMarshalsWithoutChildren(t *testing.T) {
	raw, err := json.Marshal(OutlineNode{ID: "theme_1", Name: "Leaf"})
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "children")
}

func TestValidate_RejectsDuplicateIDs(t *testing.T) {
	o := &Outline{
		Title: "T",
		Themes: []OutlineNode{
			{ID: "dup", Name: "One"},
			{ID: "dup", Name: "Two"},
		},
	}
	assert.Error(t, o.Validate())
}

func TestValidate_RejectsDepthOverflow(t *testing.T) {
	o := &Outline{
		Title: "T",
		Themes: []OutlineNode{
			{ID: "a", Name: "L1", Children: []OutlineNode{
				{ID: "b", Name: "L2", Children: []OutlineNode{
					{ID: "c", Name: "L3", Children: []OutlineNode{
						{ID: "d", Name: "L4"},
					}},
				}},
			}},
		},
	}
	assert.Error(t, o.Validate())
}
