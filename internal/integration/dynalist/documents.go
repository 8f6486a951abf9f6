package dynalist

import (
	"context"
	"fmt"

	"github.com/hay-kot/dyna/internal/core/outline"
)

type rawNode struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Note     string   `json:"note"`
	Checked  bool     `json:"checked"`
	Checkbox bool     `json:"checkbox"`
	Heading  int      `json:"heading"`
	Color    int      `json:"color"`
	Children []string `json:"children"`
}

type docReadResponse struct {
	FileID  string    `json:"file_id"`
	Title   string    `json:"title"`
	Version int       `json:"version"`
	Nodes   []rawNode `json:"nodes"`
}

// document indexes the flat node list returned by doc/read.
type document struct {
	nodes  map[string]rawNode
	parent map[string]string
}

func (c *Client) readDocument(ctx context.Context, fileID string) (*document, error) {
	var out docReadResponse
	if err := c.post(ctx, "/doc/read", map[string]any{"file_id": fileID}, &out); err != nil {
		return nil, err
	}

	doc := &document{
		nodes:  make(map[string]rawNode, len(out.Nodes)),
		parent: make(map[string]string, len(out.Nodes)),
	}
	for _, n := range out.Nodes {
		doc.nodes[n.ID] = n
		for _, child := range n.Children {
			doc.parent[child] = n.ID
		}
	}
	return doc, nil
}

// tree builds the subtree below id. Ids referenced but missing from the
// node list are skipped.
func (d *document) tree(id string) []*outline.Node {
	n, ok := d.nodes[id]
	if !ok {
		return nil
	}

	out := make([]*outline.Node, 0, len(n.Children))
	for _, childID := range n.Children {
		child, ok := d.nodes[childID]
		if !ok {
			continue
		}
		node := toNode(child)
		node.Children = d.tree(childID)
		out = append(out, node)
	}
	return out
}

func toNode(n rawNode) *outline.Node {
	return &outline.Node{
		ID:       n.ID,
		Content:  n.Content,
		Note:     n.Note,
		Checked:  n.Checked,
		Checkbox: n.Checkbox,
		Heading:  n.Heading,
		Color:    n.Color,
	}
}

// ReadTree returns the whole document as a forest below its root node.
func (c *Client) ReadTree(ctx context.Context, fileID string) ([]*outline.Node, error) {
	doc, err := c.readDocument(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return doc.tree(outline.RootID), nil
}

// Children returns the direct children of parentID without their subtrees.
func (c *Client) Children(ctx context.Context, fileID, parentID string) ([]*outline.Node, error) {
	doc, err := c.readDocument(ctx, fileID)
	if err != nil {
		return nil, err
	}

	parent, ok := doc.nodes[parentID]
	if !ok {
		return nil, fmt.Errorf("children of %s in %s: %w", parentID, fileID, ErrNodeNotFound)
	}

	out := make([]*outline.Node, 0, len(parent.Children))
	for _, id := range parent.Children {
		if n, ok := doc.nodes[id]; ok {
			out = append(out, toNode(n))
		}
	}
	return out, nil
}

// nodeChange is one doc/edit change. Pointer fields are omitted when nil so
// edits leave unspecified fields untouched.
type nodeChange struct {
	Action   string  `json:"action"`
	NodeID   string  `json:"node_id,omitempty"`
	ParentID string  `json:"parent_id,omitempty"`
	Index    *int    `json:"index,omitempty"`
	Content  *string `json:"content,omitempty"`
	Note     *string `json:"note,omitempty"`
	Checked  *bool   `json:"checked,omitempty"`
	Checkbox *bool   `json:"checkbox,omitempty"`
	Heading  *int    `json:"heading,omitempty"`
	Color    *int    `json:"color,omitempty"`
}

type docEditResponse struct {
	NewNodeIDs []string `json:"new_node_ids"`
}

// edit applies changes in batches and returns the ids of inserted nodes in
// the order their insert changes were given.
func (c *Client) edit(ctx context.Context, fileID string, changes []nodeChange) ([]string, error) {
	var created []string
	for start := 0; start < len(changes); start += maxChanges {
		end := min(start+maxChanges, len(changes))

		var out docEditResponse
		body := map[string]any{"file_id": fileID, "changes": changes[start:end]}
		if err := c.post(ctx, "/doc/edit", body, &out); err != nil {
			return created, err
		}
		created = append(created, out.NewNodeIDs...)
	}
	return created, nil
}

func ptr[T any](v T) *T { return &v }

func insertChange(parentID string, n *outline.Node) nodeChange {
	ch := nodeChange{
		Action:   "insert",
		ParentID: parentID,
		Index:    ptr(-1),
		Content:  ptr(n.Content),
	}
	if n.Note != "" {
		ch.Note = ptr(n.Note)
	}
	if n.Checked {
		ch.Checked = ptr(true)
	}
	if n.Checkbox {
		ch.Checkbox = ptr(true)
	}
	if n.Heading != 0 {
		ch.Heading = ptr(n.Heading)
	}
	if n.Color != 0 {
		ch.Color = ptr(n.Color)
	}
	return ch
}

// InsertTree writes the forest one depth level at a time, since children
// can only be inserted once their parent's id is known.
func (c *Client) InsertTree(ctx context.Context, fileID, parentID string, nodes []*outline.Node) ([]string, error) {
	if parentID == "" {
		parentID = outline.RootID
	}

	type pending struct {
		parentID string
		node     *outline.Node
	}

	var rootIDs []string
	level := make([]pending, 0, len(nodes))
	for _, n := range nodes {
		level = append(level, pending{parentID: parentID, node: n})
	}

	for depth := 0; len(level) > 0; depth++ {
		changes := make([]nodeChange, len(level))
		for i, p := range level {
			changes[i] = insertChange(p.parentID, p.node)
		}

		ids, err := c.edit(ctx, fileID, changes)
		if err != nil {
			return rootIDs, fmt.Errorf("insert depth %d: %w", depth, err)
		}
		if len(ids) != len(level) {
			return rootIDs, fmt.Errorf("insert depth %d: expected %d node ids, got %d", depth, len(level), len(ids))
		}

		if depth == 0 {
			rootIDs = ids
		}

		var next []pending
		for i, p := range level {
			for _, child := range p.node.Children {
				next = append(next, pending{parentID: ids[i], node: child})
			}
		}
		level = next
	}

	return rootIDs, nil
}

// EditItems applies field changes to existing nodes.
func (c *Client) EditItems(ctx context.Context, fileID string, edits []outline.Edit) error {
	changes := make([]nodeChange, 0, len(edits))
	for _, e := range edits {
		changes = append(changes, nodeChange{
			Action:   "edit",
			NodeID:   e.NodeID,
			Content:  e.Changes.Content,
			Note:     e.Changes.Note,
			Checked:  e.Changes.Checked,
			Checkbox: e.Changes.Checkbox,
			Heading:  e.Changes.Heading,
			Color:    e.Changes.Color,
		})
	}
	_, err := c.edit(ctx, fileID, changes)
	return err
}

// DeleteItems removes nodes and their subtrees.
func (c *Client) DeleteItems(ctx context.Context, fileID string, nodeIDs []string) error {
	changes := make([]nodeChange, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		changes = append(changes, nodeChange{Action: "delete", NodeID: id})
	}
	_, err := c.edit(ctx, fileID, changes)
	return err
}

// CheckItems sets the checked state of nodes.
func (c *Client) CheckItems(ctx context.Context, fileID string, nodeIDs []string, checked bool) error {
	changes := make([]nodeChange, 0, len(nodeIDs))
	for _, id := range nodeIDs {
		changes = append(changes, nodeChange{Action: "edit", NodeID: id, Checked: ptr(checked)})
	}
	_, err := c.edit(ctx, fileID, changes)
	return err
}

// ClearChecked deletes checked nodes. A checked node inside a checked
// subtree goes with its ancestor and is not counted separately.
func (c *Client) ClearChecked(ctx context.Context, fileID string) (int, error) {
	doc, err := c.readDocument(ctx, fileID)
	if err != nil {
		return 0, err
	}

	var ids []string
	var walk func(id string)
	walk = func(id string) {
		n, ok := doc.nodes[id]
		if !ok {
			return
		}
		for _, childID := range n.Children {
			child, ok := doc.nodes[childID]
			if !ok {
				continue
			}
			if child.Checked {
				ids = append(ids, childID)
				continue
			}
			walk(childID)
		}
	}
	walk(outline.RootID)

	if len(ids) == 0 {
		return 0, nil
	}
	if err := c.DeleteItems(ctx, fileID, ids); err != nil {
		return 0, err
	}
	return len(ids), nil
}

// MoveItems relocates nodes. Moves without a NewParent keep the node's
// current parent, which requires reading the document once.
func (c *Client) MoveItems(ctx context.Context, fileID string, moves []outline.Move) error {
	var doc *document
	changes := make([]nodeChange, 0, len(moves))
	for _, m := range moves {
		parentID := m.NewParent
		if parentID == "" {
			if doc == nil {
				var err error
				if doc, err = c.readDocument(ctx, fileID); err != nil {
					return err
				}
			}
			p, ok := doc.parent[m.NodeID]
			if !ok {
				return fmt.Errorf("move %s in %s: %w", m.NodeID, fileID, ErrNodeNotFound)
			}
			parentID = p
		}
		changes = append(changes, nodeChange{
			Action:   "move",
			NodeID:   m.NodeID,
			ParentID: parentID,
			Index:    ptr(m.NewIndex),
		})
	}
	_, err := c.edit(ctx, fileID, changes)
	return err
}
