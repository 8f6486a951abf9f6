// Package outlinetest provides an in-memory outline.Client for tests.
package outlinetest

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hay-kot/dyna/internal/core/outline"
)

// Client is an in-memory outline.Client. Documents are keyed by file id.
// Setting Err makes every call fail with it.
type Client struct {
	mu     sync.Mutex
	Files  []outline.File
	Docs   map[string][]*outline.Node
	Err    error
	Calls  []string
	nextID int
}

var _ outline.Client = (*Client)(nil)

// New returns an empty client with a single root folder.
func New() *Client {
	return &Client{
		Files: []outline.File{{ID: "folder-root", Title: "Root", Type: outline.FileTypeFolder}},
		Docs:  map[string][]*outline.Node{},
	}
}

func (c *Client) record(call string) error {
	c.Calls = append(c.Calls, call)
	return c.Err
}

func (c *Client) id(prefix string) string {
	c.nextID++
	return fmt.Sprintf("%s-%d", prefix, c.nextID)
}

func (c *Client) ListFiles(_ context.Context) ([]outline.File, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("ListFiles"); err != nil {
		return nil, err
	}
	return slices.Clone(c.Files), nil
}

func (c *Client) CreateDocument(_ context.Context, title, parentID string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CreateDocument"); err != nil {
		return "", err
	}
	id := c.id("doc")
	c.Files = append(c.Files, outline.File{ID: id, Title: title, Type: outline.FileTypeDocument})
	c.Docs[id] = nil
	return id, nil
}

func (c *Client) ReadTree(_ context.Context, fileID string) ([]*outline.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("ReadTree"); err != nil {
		return nil, err
	}
	nodes, ok := c.Docs[fileID]
	if !ok {
		return nil, fmt.Errorf("document %s not found", fileID)
	}
	return nodes, nil
}

func (c *Client) Children(_ context.Context, fileID, parentID string) ([]*outline.Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("Children"); err != nil {
		return nil, err
	}
	if parentID == outline.RootID {
		return c.Docs[fileID], nil
	}
	n := find(c.Docs[fileID], parentID)
	if n == nil {
		return nil, fmt.Errorf("node %s not found", parentID)
	}
	return n.Children, nil
}

func (c *Client) InsertTree(_ context.Context, fileID, parentID string, nodes []*outline.Node) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("InsertTree"); err != nil {
		return nil, err
	}
	c.assign(nodes)
	if parentID == outline.RootID {
		c.Docs[fileID] = append(c.Docs[fileID], nodes...)
	} else {
		p := find(c.Docs[fileID], parentID)
		if p == nil {
			return nil, fmt.Errorf("node %s not found", parentID)
		}
		p.Children = append(p.Children, nodes...)
	}
	ids := make([]string, len(nodes))
	for i, n := range nodes {
		ids[i] = n.ID
	}
	return ids, nil
}

func (c *Client) assign(nodes []*outline.Node) {
	for _, n := range nodes {
		n.ID = c.id("node")
		c.assign(n.Children)
	}
}

func (c *Client) EditItems(_ context.Context, fileID string, edits []outline.Edit) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("EditItems"); err != nil {
		return err
	}
	for _, e := range edits {
		n := find(c.Docs[fileID], e.NodeID)
		if n == nil {
			return fmt.Errorf("node %s not found", e.NodeID)
		}
		ch := e.Changes
		if ch.Content != nil {
			n.Content = *ch.Content
		}
		if ch.Note != nil {
			n.Note = *ch.Note
		}
		if ch.Checked != nil {
			n.Checked = *ch.Checked
		}
		if ch.Checkbox != nil {
			n.Checkbox = *ch.Checkbox
		}
		if ch.Heading != nil {
			n.Heading = *ch.Heading
		}
		if ch.Color != nil {
			n.Color = *ch.Color
		}
	}
	return nil
}

func (c *Client) DeleteItems(_ context.Context, fileID string, nodeIDs []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("DeleteItems"); err != nil {
		return err
	}
	c.Docs[fileID] = prune(c.Docs[fileID], func(n *outline.Node) bool {
		return slices.Contains(nodeIDs, n.ID)
	})
	return nil
}

func (c *Client) CheckItems(_ context.Context, fileID string, nodeIDs []string, checked bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("CheckItems"); err != nil {
		return err
	}
	for _, id := range nodeIDs {
		if n := find(c.Docs[fileID], id); n != nil {
			n.Checked = checked
		}
	}
	return nil
}

func (c *Client) ClearChecked(_ context.Context, fileID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("ClearChecked"); err != nil {
		return 0, err
	}
	removed := 0
	c.Docs[fileID] = prune(c.Docs[fileID], func(n *outline.Node) bool {
		if n.Checked {
			removed++
			return true
		}
		return false
	})
	return removed, nil
}

func (c *Client) MoveItems(_ context.Context, fileID string, moves []outline.Move) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.record("MoveItems"); err != nil {
		return err
	}
	for _, m := range moves {
		n := find(c.Docs[fileID], m.NodeID)
		if n == nil {
			return fmt.Errorf("node %s not found", m.NodeID)
		}
		parent := m.NewParent
		if parent == "" {
			parent = parentOf(c.Docs[fileID], outline.RootID, m.NodeID)
		}
		c.Docs[fileID] = prune(c.Docs[fileID], func(x *outline.Node) bool { return x == n })

		if parent == outline.RootID {
			roots := c.Docs[fileID]
			idx := min(max(m.NewIndex, 0), len(roots))
			c.Docs[fileID] = slices.Insert(roots, idx, n)
			continue
		}
		p := find(c.Docs[fileID], parent)
		if p == nil {
			return fmt.Errorf("node %s not found", parent)
		}
		idx := min(max(m.NewIndex, 0), len(p.Children))
		p.Children = slices.Insert(p.Children, idx, n)
	}
	return nil
}

func find(nodes []*outline.Node, id string) *outline.Node {
	for _, n := range nodes {
		if n.ID == id {
			return n
		}
		if f := find(n.Children, id); f != nil {
			return f
		}
	}
	return nil
}

func parentOf(nodes []*outline.Node, parentID, id string) string {
	for _, n := range nodes {
		if n.ID == id {
			return parentID
		}
		if p := parentOf(n.Children, n.ID, id); p != "" {
			return p
		}
	}
	return ""
}

func prune(nodes []*outline.Node, drop func(*outline.Node) bool) []*outline.Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if drop(n) {
			continue
		}
		n.Children = prune(n.Children, drop)
		out = append(out, n)
	}
	return out
}
