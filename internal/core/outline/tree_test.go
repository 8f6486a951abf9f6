package outline

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func items(pairs ...any) []LeveledItem {
	out := make([]LeveledItem, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, LeveledItem{Level: pairs[i].(int), Title: pairs[i+1].(string)})
	}
	return out
}

func titles(nodes []*Node) []string {
	out := make([]string, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n.Content)
	}
	return out
}

func TestBuildTree(t *testing.T) {
	roots := BuildTree(items(0, "A", 1, "B", 1, "C", 2, "D", 0, "E"))

	require.Len(t, roots, 2)
	assert.Equal(t, []string{"A", "E"}, titles(roots))

	a := roots[0]
	assert.Equal(t, []string{"B", "C"}, titles(a.Children))
	assert.Empty(t, a.Children[0].Children)
	assert.Equal(t, []string{"D"}, titles(a.Children[1].Children))
	assert.Empty(t, roots[1].Children)
}

func TestBuildTree_LevelGap(t *testing.T) {
	roots := BuildTree(items(0, "A", 3, "B"))

	require.Len(t, roots, 1)
	assert.Equal(t, []string{"B"}, titles(roots[0].Children))
}

func TestBuildTree_Edges(t *testing.T) {
	tests := []struct {
		name      string
		in        []LeveledItem
		wantRoots []string
	}{
		{name: "empty", in: nil, wantRoots: []string{}},
		{name: "negative levels are roots", in: items(-1, "A", -3, "B"), wantRoots: []string{"A", "B"}},
		{name: "first item deep", in: items(2, "A", 2, "B"), wantRoots: []string{"A", "B"}},
		{name: "shallower after deep", in: items(2, "A", 1, "B", 3, "C"), wantRoots: []string{"A", "B"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantRoots, titles(BuildTree(tt.in)))
		})
	}
}

func TestBuildTree_CopiesFields(t *testing.T) {
	in := []LeveledItem{{Level: 0, Title: "Milk", Note: "2L", Checked: true, Checkbox: true, Heading: 2, Color: 5}}

	roots := BuildTree(in)

	require.Len(t, roots, 1)
	assert.Equal(t, &Node{Content: "Milk", Note: "2L", Checked: true, Checkbox: true, Heading: 2, Color: 5}, roots[0])
	assert.Equal(t, "Milk", in[0].Title, "input must not be mutated")
}

func TestRender(t *testing.T) {
	nodes := []*Node{
		{Content: "Groceries", Children: []*Node{
			{Content: "Milk", Note: "oat"},
			{Content: "Bread", Checked: true, Children: []*Node{
				{Content: "Rye"},
			}},
		}},
		{Content: "Chores"},
	}

	want := strings.Join([]string{
		"- Groceries",
		"  - Milk",
		"    > oat",
		"  - ~~Bread~~",
		"    - Rye",
		"- Chores",
	}, "\n")

	assert.Equal(t, want, Render(nodes))
}

func TestRender_CheckedWithNote(t *testing.T) {
	got := Render([]*Node{{Content: "Done", Checked: true, Note: "yesterday"}})
	assert.Equal(t, "- ~~Done~~\n  > yesterday", got)
}

func TestRender_Empty(t *testing.T) {
	assert.Equal(t, EmptyTree, Render(nil))
	assert.Empty(t, RenderAt(nil, 2))
}

func TestRenderAt_Depth(t *testing.T) {
	got := RenderAt([]*Node{{Content: "x"}}, 2)
	assert.Equal(t, "    - x", got)
}

// parseLevels recovers item depths from rendered text, skipping note lines.
func parseLevels(text string) []int {
	var levels []int
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimLeft(line, " ")
		if !strings.HasPrefix(trimmed, "- ") {
			continue
		}
		levels = append(levels, (len(line)-len(trimmed))/2)
	}
	return levels
}

func TestRender_RoundTripLevels(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for run := range 200 {
		n := rng.IntN(30) + 1
		in := make([]LeveledItem, n)
		want := make([]int, n)
		prev := -1
		for i := range n {
			level := rng.IntN(prev + 2)
			in[i] = LeveledItem{Level: level, Title: fmt.Sprintf("item-%d", i)}
			if rng.IntN(3) == 0 {
				in[i].Note = "note"
			}
			in[i].Checked = rng.IntN(4) == 0
			want[i] = level
			prev = level
		}

		got := parseLevels(Render(BuildTree(in)))
		require.Equal(t, want, got, "run %d", run)
	}
}

func TestFlatten_InvertsBuildTree(t *testing.T) {
	in := items(0, "A", 1, "B", 1, "C", 2, "D", 0, "E")

	assert.Equal(t, in, Flatten(BuildTree(in)))
	assert.Equal(t, 5, Count(BuildTree(in)))
}

func TestFlatten_NormalizesGaps(t *testing.T) {
	got := Flatten(BuildTree(items(0, "A", 3, "B", 5, "C")))
	assert.Equal(t, items(0, "A", 1, "B", 2, "C"), got)
}
