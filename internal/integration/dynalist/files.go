package dynalist

import (
	"context"
	"fmt"

	"github.com/hay-kot/dyna/internal/core/outline"
)

type fileListResponse struct {
	RootFileID string         `json:"root_file_id"`
	Files      []outline.File `json:"files"`
}

// ListFiles returns every document and folder the token can see.
func (c *Client) ListFiles(ctx context.Context) ([]outline.File, error) {
	var out fileListResponse
	if err := c.post(ctx, "/file/list", nil, &out); err != nil {
		return nil, err
	}
	return out.Files, nil
}

func (c *Client) rootFolderID(ctx context.Context) (string, error) {
	var out fileListResponse
	if err := c.post(ctx, "/file/list", nil, &out); err != nil {
		return "", err
	}
	if out.RootFileID == "" {
		return "", fmt.Errorf("dynalist /file/list: missing root_file_id")
	}
	return out.RootFileID, nil
}

type fileChange struct {
	Action   string `json:"action"`
	Type     string `json:"type"`
	ParentID string `json:"parent_id"`
	Index    int    `json:"index"`
	Title    string `json:"title"`
}

type fileEditResponse struct {
	Results []bool   `json:"results"`
	Created []string `json:"created"`
}

// CreateDocument creates an empty document at the end of parentID. An
// empty parentID or outline.RootID places it in the account's root folder.
func (c *Client) CreateDocument(ctx context.Context, title, parentID string) (string, error) {
	if parentID == "" || parentID == outline.RootID {
		root, err := c.rootFolderID(ctx)
		if err != nil {
			return "", err
		}
		parentID = root
	}

	body := map[string]any{
		"changes": []fileChange{{
			Action:   "create",
			Type:     string(outline.FileTypeDocument),
			ParentID: parentID,
			Index:    -1,
			Title:    title,
		}},
	}

	var out fileEditResponse
	if err := c.post(ctx, "/file/edit", body, &out); err != nil {
		return "", err
	}

	if len(out.Results) > 0 && !out.Results[0] {
		return "", fmt.Errorf("dynalist /file/edit: create %q in %s rejected", title, parentID)
	}
	if len(out.Created) == 0 {
		return "", fmt.Errorf("dynalist /file/edit: no id returned for %q", title)
	}

	return out.Created[0], nil
}
