// Package outline defines the hierarchical document model shared by the
// agent tools, the CLI and the outline-document API client.
package outline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hay-kot/criterio"
)

// RootID is the id of the implicit root node of every document.
const RootID = "root"

// FileType distinguishes documents from folders.
type FileType string

const (
	FileTypeDocument FileType = "document"
	FileTypeFolder   FileType = "folder"
)

// File is a document or folder in the user's account.
type File struct {
	ID         string   `json:"id"`
	Title      string   `json:"title"`
	Type       FileType `json:"type"`
	Permission int      `json:"permission,omitempty"`
	Children   []string `json:"children,omitempty"`
}

// LeveledItem is one line of a flat outline import. Level encodes depth
// relative to the surrounding items; there is no parent reference.
type LeveledItem struct {
	Level    int    `json:"level"`
	Title    string `json:"title"`
	Note     string `json:"note,omitempty"`
	Checked  bool   `json:"checked,omitempty"`
	Checkbox bool   `json:"checkbox,omitempty"`
	Heading  int    `json:"heading,omitempty"`
	Color    int    `json:"color,omitempty"`
}

// Node is one item of an outline tree. ID is empty for nodes that have not
// been written to a document yet.
type Node struct {
	ID       string  `json:"id,omitempty"`
	Content  string  `json:"content"`
	Note     string  `json:"note,omitempty"`
	Checked  bool    `json:"checked,omitempty"`
	Checkbox bool    `json:"checkbox,omitempty"`
	Heading  int     `json:"heading,omitempty"`
	Color    int     `json:"color,omitempty"`
	Children []*Node `json:"children,omitempty"`
}

// Changes holds the fields of an Edit. Nil fields are left untouched.
type Changes struct {
	Content  *string `json:"content,omitempty"`
	Note     *string `json:"note,omitempty"`
	Checked  *bool   `json:"checked,omitempty"`
	Checkbox *bool   `json:"checkbox,omitempty"`
	Heading  *int    `json:"heading,omitempty"`
	Color    *int    `json:"color,omitempty"`
}

// Edit changes the fields of an existing node.
type Edit struct {
	NodeID  string  `json:"nodeId"`
	Changes Changes `json:"changes"`
}

// Move relocates a node. An empty NewParent keeps the current parent.
type Move struct {
	NodeID    string `json:"nodeId"`
	NewParent string `json:"newParent,omitempty"`
	NewIndex  int    `json:"newIndex"`
}

// Client is the outline-document API. Implementations are bound to one
// user's credential.
type Client interface {
	ListFiles(ctx context.Context) ([]File, error)
	CreateDocument(ctx context.Context, title, parentID string) (string, error)
	ReadTree(ctx context.Context, fileID string) ([]*Node, error)
	Children(ctx context.Context, fileID, parentID string) ([]*Node, error)
	// InsertTree appends nodes and all their descendants under parentID and
	// returns the ids of the inserted top-level nodes.
	InsertTree(ctx context.Context, fileID, parentID string, nodes []*Node) ([]string, error)
	EditItems(ctx context.Context, fileID string, edits []Edit) error
	DeleteItems(ctx context.Context, fileID string, nodeIDs []string) error
	CheckItems(ctx context.Context, fileID string, nodeIDs []string, checked bool) error
	// ClearChecked deletes every checked node and returns how many were removed.
	ClearChecked(ctx context.Context, fileID string) (int, error)
	MoveItems(ctx context.Context, fileID string, moves []Move) error
}

// ErrInvalidCredential matches client errors caused by a rejected
// credential. Retrying with the same credential cannot succeed.
var ErrInvalidCredential = errors.New("invalid outline credential")

// ClientFactory builds a Client for a credential.
type ClientFactory func(token string) Client

const (
	maxHeading = 3
	maxColor   = 6
)

// ValidateItems checks the formatting fields of an import. Levels are not
// checked; BuildTree accepts any sequence.
func ValidateItems(items []LeveledItem) error {
	var errs criterio.FieldErrorsBuilder
	for i, it := range items {
		if it.Heading < 0 || it.Heading > maxHeading {
			errs = errs.Append(fmt.Sprintf("items[%d].heading", i), fmt.Errorf("must be between 0 and %d, got %d", maxHeading, it.Heading))
		}
		if it.Color < 0 || it.Color > maxColor {
			errs = errs.Append(fmt.Sprintf("items[%d].color", i), fmt.Errorf("must be between 0 and %d, got %d", maxColor, it.Color))
		}
	}
	return errs.ToError()
}

// ValidateEdits checks node ids and formatting ranges of a batch of edits.
func ValidateEdits(edits []Edit) error {
	var errs criterio.FieldErrorsBuilder
	for i, e := range edits {
		if e.NodeID == "" {
			errs = errs.Append(fmt.Sprintf("edits[%d].nodeId", i), errors.New("is required"))
		}
		if h := e.Changes.Heading; h != nil && (*h < 0 || *h > maxHeading) {
			errs = errs.Append(fmt.Sprintf("edits[%d].changes.heading", i), fmt.Errorf("must be between 0 and %d, got %d", maxHeading, *h))
		}
		if c := e.Changes.Color; c != nil && (*c < 0 || *c > maxColor) {
			errs = errs.Append(fmt.Sprintf("edits[%d].changes.color", i), fmt.Errorf("must be between 0 and %d, got %d", maxColor, *c))
		}
	}
	return errs.ToError()
}
