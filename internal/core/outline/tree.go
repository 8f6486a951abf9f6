package outline

import "strings"

// EmptyTree is what Render returns for an empty node list.
const EmptyTree = "(no items)"

// BuildTree converts a flat leveled list into a forest. Each item becomes a
// child of the nearest preceding item with a strictly smaller level, or a
// root when there is none. Gaps between levels are flattened.
func BuildTree(items []LeveledItem) []*Node {
	type frame struct {
		node  *Node
		level int
	}

	var (
		roots []*Node
		stack []frame
	)

	for _, it := range items {
		node := &Node{
			Content:  it.Title,
			Note:     it.Note,
			Checked:  it.Checked,
			Checkbox: it.Checkbox,
			Heading:  it.Heading,
			Color:    it.Color,
		}

		for len(stack) > 0 && stack[len(stack)-1].level >= it.Level {
			stack = stack[:len(stack)-1]
		}

		if len(stack) == 0 {
			roots = append(roots, node)
		} else {
			parent := stack[len(stack)-1].node
			parent.Children = append(parent.Children, node)
		}

		stack = append(stack, frame{node: node, level: it.Level})
	}

	return roots
}

// Flatten is the inverse of BuildTree: a depth-first walk emitting one
// LeveledItem per node with its depth as the level.
func Flatten(nodes []*Node) []LeveledItem {
	var out []LeveledItem
	var walk func(nodes []*Node, depth int)
	walk = func(nodes []*Node, depth int) {
		for _, n := range nodes {
			out = append(out, LeveledItem{
				Level:    depth,
				Title:    n.Content,
				Note:     n.Note,
				Checked:  n.Checked,
				Checkbox: n.Checkbox,
				Heading:  n.Heading,
				Color:    n.Color,
			})
			walk(n.Children, depth+1)
		}
	}
	walk(nodes, 0)
	return out
}

// Render formats a forest as an indented markdown list, two spaces per
// level. Checked items are struck through and notes follow their item as
// a blockquote line.
func Render(nodes []*Node) string {
	if len(nodes) == 0 {
		return EmptyTree
	}
	return RenderAt(nodes, 0)
}

// RenderAt renders nodes starting at the given depth. Unlike Render it
// returns an empty string for an empty list.
func RenderAt(nodes []*Node, depth int) string {
	var b strings.Builder
	writeNodes(&b, nodes, depth)
	return strings.TrimSuffix(b.String(), "\n")
}

func writeNodes(b *strings.Builder, nodes []*Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		b.WriteString(indent)
		if n.Checked {
			b.WriteString("- ~~")
			b.WriteString(n.Content)
			b.WriteString("~~\n")
		} else {
			b.WriteString("- ")
			b.WriteString(n.Content)
			b.WriteString("\n")
		}

		if n.Note != "" {
			b.WriteString(indent)
			b.WriteString("  > ")
			b.WriteString(n.Note)
			b.WriteString("\n")
		}

		writeNodes(b, n.Children, depth+1)
	}
}

// Count returns the number of nodes in the forest.
func Count(nodes []*Node) int {
	total := 0
	for _, n := range nodes {
		total += 1 + Count(n.Children)
	}
	return total
}
