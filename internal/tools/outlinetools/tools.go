package outlinetools

import (
	"context"
	"fmt"
	"strings"

	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/mark3labs/mcp-go/mcp"
)

// ─── list_lists ─────────────────────────────────────────────────────────────

type listListsTool struct{ client outline.Client }

func (t *listListsTool) Definition() mcp.Tool {
	return mcp.NewTool("list_lists",
		mcp.WithDescription("Get all available Dynalist documents/lists and folders"),
	)
}

func (t *listListsTool) Handle(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	files, err := t.client.ListFiles(ctx)
	if err != nil {
		return failure("list_lists", err)
	}
	return jsonResult(files)
}

// ─── create_list ────────────────────────────────────────────────────────────

type createListTool struct{ client outline.Client }

func (t *createListTool) Definition() mcp.Tool {
	return mcp.NewTool("create_list",
		mcp.WithDescription("Create a new Dynalist document/list in a specific parent folder. Requires a parent folder ID from list_lists."),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Name of the new list"),
		),
		mcp.WithString("parentId",
			mcp.Required(),
			mcp.Description("Parent folder ID (required - get from list_lists)"),
		),
	)
}

func (t *createListTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, bad := requireString(req, "name")
	if bad != nil {
		return bad, nil
	}
	parentID := req.GetString("parentId", "")
	if parentID == "" {
		return mcp.NewToolResultError("parentId is required to create a list. Use one of the folder IDs from list_lists."), nil
	}

	id, err := t.client.CreateDocument(ctx, name, parentID)
	if err != nil {
		return failure("create_list", err)
	}
	return jsonResult(map[string]string{"id": id})
}

// ─── add_items_hierarchically ───────────────────────────────────────────────

type addItemsTool struct{ client outline.Client }

func (t *addItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("add_items_hierarchically",
		mcp.WithDescription("Add multiple items to a list with hierarchical structure based on levels. "+
			"Each item becomes a child of the nearest preceding item with a smaller level."),
		listIDParam(),
		mcp.WithArray("items",
			mcp.Required(),
			mcp.Description("Array of hierarchical items to add, in document order"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": withProps(map[string]any{
					"level": map[string]any{"type": "integer", "description": "Hierarchy level (0 for root, 1 for child, etc.)"},
					"title": map[string]any{"type": "string", "description": "Item content/title"},
				}),
				"required": []string{"level", "title"},
			}),
		),
	)
}

func (t *addItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ListID string                `json:"listId"`
		Items  []outline.LeveledItem `json:"items"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ListID == "" {
		return mcp.NewToolResultError("'listId' is required"), nil
	}
	if len(args.Items) == 0 {
		return mcp.NewToolResultError("'items' must contain at least one item"), nil
	}
	if err := outline.ValidateItems(args.Items); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	tree := outline.BuildTree(args.Items)
	ids, err := t.client.InsertTree(ctx, args.ListID, outline.RootID, tree)
	if err != nil {
		return failure("add_items_hierarchically", err)
	}

	return jsonResult(map[string]any{
		"rootNodes": ids,
		"inserted":  outline.Count(tree),
	})
}

// ─── get_items_tree ─────────────────────────────────────────────────────────

type getTreeTool struct{ client outline.Client }

func (t *getTreeTool) Definition() mcp.Tool {
	return mcp.NewTool("get_items_tree",
		mcp.WithDescription("Get all items in a list as a hierarchical tree. Returns an indented outline followed by the node IDs needed for edits."),
		listIDParam(),
	)
}

func (t *getTreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID, bad := requireString(req, "listId")
	if bad != nil {
		return bad, nil
	}

	tree, err := t.client.ReadTree(ctx, listID)
	if err != nil {
		return failure("get_items_tree", err)
	}

	var b strings.Builder
	b.WriteString(outline.Render(tree))
	if len(tree) > 0 {
		b.WriteString("\n\nNode IDs:\n")
		writeIDs(&b, tree, 0)
	}
	return mcp.NewToolResultText(strings.TrimRight(b.String(), "\n")), nil
}

func writeIDs(b *strings.Builder, nodes []*outline.Node, depth int) {
	for _, n := range nodes {
		fmt.Fprintf(b, "%s%s: %s\n", strings.Repeat("  ", depth), n.ID, n.Content)
		writeIDs(b, n.Children, depth+1)
	}
}

// ─── get_item_children ──────────────────────────────────────────────────────

type getChildrenTool struct{ client outline.Client }

func (t *getChildrenTool) Definition() mcp.Tool {
	return mcp.NewTool("get_item_children",
		mcp.WithDescription("Get direct children of a specific item in a list"),
		listIDParam(),
		mcp.WithString("parentNodeId",
			mcp.Required(),
			mcp.Description("ID of the parent node to get children from"),
		),
	)
}

func (t *getChildrenTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID, bad := requireString(req, "listId")
	if bad != nil {
		return bad, nil
	}
	parentID, bad := requireString(req, "parentNodeId")
	if bad != nil {
		return bad, nil
	}

	children, err := t.client.Children(ctx, listID, parentID)
	if err != nil {
		return failure("get_item_children", err)
	}
	return jsonResult(children)
}

// ─── edit_items ─────────────────────────────────────────────────────────────

type editItemsTool struct{ client outline.Client }

func (t *editItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("edit_items",
		mcp.WithDescription("Edit multiple items (content, notes, formatting) in a list. Only provided fields change."),
		listIDParam(),
		mcp.WithArray("edits",
			mcp.Required(),
			mcp.Description("Array of edits to apply"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"nodeId": map[string]any{"type": "string", "description": "ID of the item to edit"},
					"changes": map[string]any{
						"type":        "object",
						"description": "Changes to apply",
						"properties": withProps(map[string]any{
							"content": map[string]any{"type": "string", "description": "New content/title"},
						}),
					},
				},
				"required": []string{"nodeId", "changes"},
			}),
		),
	)
}

func (t *editItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ListID string         `json:"listId"`
		Edits  []outline.Edit `json:"edits"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ListID == "" {
		return mcp.NewToolResultError("'listId' is required"), nil
	}
	if err := outline.ValidateEdits(args.Edits); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if err := t.client.EditItems(ctx, args.ListID, args.Edits); err != nil {
		return failure("edit_items", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Edited %d item(s)", len(args.Edits))), nil
}

// ─── delete_items ───────────────────────────────────────────────────────────

type deleteItemsTool struct{ client outline.Client }

func (t *deleteItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("delete_items",
		mcp.WithDescription("Delete multiple items (and their children) from a list by their IDs"),
		listIDParam(),
		nodeIDsParam("Array of item IDs to delete"),
	)
}

func (t *deleteItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ListID  string   `json:"listId"`
		NodeIDs []string `json:"nodeIds"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ListID == "" || len(args.NodeIDs) == 0 {
		return mcp.NewToolResultError("'listId' and at least one node id are required"), nil
	}

	if err := t.client.DeleteItems(ctx, args.ListID, args.NodeIDs); err != nil {
		return failure("delete_items", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Deleted %d item(s)", len(args.NodeIDs))), nil
}

// ─── check_items ────────────────────────────────────────────────────────────

type checkItemsTool struct{ client outline.Client }

func (t *checkItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("check_items",
		mcp.WithDescription("Check or uncheck multiple items in a list"),
		listIDParam(),
		nodeIDsParam("Array of item IDs to check/uncheck"),
		mcp.WithBoolean("checked",
			mcp.Required(),
			mcp.Description("Whether to check (true) or uncheck (false) the items"),
		),
	)
}

func (t *checkItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ListID  string   `json:"listId"`
		NodeIDs []string `json:"nodeIds"`
		Checked *bool    `json:"checked"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ListID == "" || len(args.NodeIDs) == 0 || args.Checked == nil {
		return mcp.NewToolResultError("'listId', 'nodeIds' and 'checked' are required"), nil
	}

	if err := t.client.CheckItems(ctx, args.ListID, args.NodeIDs, *args.Checked); err != nil {
		return failure("check_items", err)
	}

	state := "Checked"
	if !*args.Checked {
		state = "Unchecked"
	}
	return mcp.NewToolResultText(fmt.Sprintf("%s %d item(s)", state, len(args.NodeIDs))), nil
}

// ─── clear_checked ──────────────────────────────────────────────────────────

type clearCheckedTool struct{ client outline.Client }

func (t *clearCheckedTool) Definition() mcp.Tool {
	return mcp.NewTool("clear_checked",
		mcp.WithDescription("Remove all checked items from a list"),
		listIDParam(),
	)
}

func (t *clearCheckedTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	listID, bad := requireString(req, "listId")
	if bad != nil {
		return bad, nil
	}

	n, err := t.client.ClearChecked(ctx, listID)
	if err != nil {
		return failure("clear_checked", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Removed %d checked item(s)", n)), nil
}

// ─── move_items ─────────────────────────────────────────────────────────────

type moveItemsTool struct{ client outline.Client }

func (t *moveItemsTool) Definition() mcp.Tool {
	return mcp.NewTool("move_items",
		mcp.WithDescription("Move multiple items to new positions or parents in a list"),
		listIDParam(),
		mcp.WithArray("operations",
			mcp.Required(),
			mcp.Description("Array of move operations"),
			mcp.Items(map[string]any{
				"type": "object",
				"properties": map[string]any{
					"nodeId":    map[string]any{"type": "string", "description": "ID of the item to move"},
					"newParent": map[string]any{"type": "string", "description": "New parent ID (optional, defaults to the current parent)"},
					"newIndex":  map[string]any{"type": "integer", "description": "New position index among the parent's children"},
				},
				"required": []string{"nodeId", "newIndex"},
			}),
		),
	)
}

func (t *moveItemsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var args struct {
		ListID     string         `json:"listId"`
		Operations []outline.Move `json:"operations"`
	}
	if err := bindArgs(req, &args); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if args.ListID == "" || len(args.Operations) == 0 {
		return mcp.NewToolResultError("'listId' and at least one operation are required"), nil
	}
	for i, op := range args.Operations {
		if op.NodeID == "" {
			return mcp.NewToolResultError(fmt.Sprintf("operations[%d].nodeId is required", i)), nil
		}
	}

	if err := t.client.MoveItems(ctx, args.ListID, args.Operations); err != nil {
		return failure("move_items", err)
	}
	return mcp.NewToolResultText(fmt.Sprintf("Moved %d item(s)", len(args.Operations))), nil
}
