// Package outlinetools exposes outline operations as MCP tools. The same
// definitions back the chat agent and the `dyna mcp` stdio server.
//
// Each tool follows one pattern:
//   - Definition() returns the mcp.Tool schema
//   - Handle() validates arguments, calls the outline.Client and returns text
//
// Argument and API failures are returned as tool error results so the model
// can correct itself. A rejected credential is returned as a Go error since
// no retry can succeed.
package outlinetools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool is an MCP tool definition with its handler.
type Tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

// New returns every outline tool bound to client.
func New(client outline.Client) []Tool {
	return []Tool{
		&listListsTool{client: client},
		&createListTool{client: client},
		&addItemsTool{client: client},
		&getTreeTool{client: client},
		&getChildrenTool{client: client},
		&editItemsTool{client: client},
		&deleteItemsTool{client: client},
		&checkItemsTool{client: client},
		&clearCheckedTool{client: client},
		&moveItemsTool{client: client},
	}
}

// bindArgs decodes the raw tool arguments into dst.
func bindArgs(req mcp.CallToolRequest, dst any) error {
	raw, err := json.Marshal(req.GetArguments())
	if err != nil {
		return fmt.Errorf("encode arguments: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	return nil
}

// failure converts a client error into a tool result, or into a Go error
// when the credential was rejected.
func failure(op string, err error) (*mcp.CallToolResult, error) {
	if errors.Is(err, outline.ErrInvalidCredential) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return mcp.NewToolResultError(fmt.Sprintf("%s failed: %v", op, err)), nil
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func requireString(req mcp.CallToolRequest, key string) (string, *mcp.CallToolResult) {
	v := req.GetString(key, "")
	if v == "" {
		return "", mcp.NewToolResultError(fmt.Sprintf("'%s' is required", key))
	}
	return v, nil
}

var formattingProps = map[string]any{
	"note":     map[string]any{"type": "string", "description": "Optional note for the item"},
	"checked":  map[string]any{"type": "boolean", "description": "Whether the item is checked"},
	"checkbox": map[string]any{"type": "boolean", "description": "Whether to show a checkbox"},
	"heading":  map[string]any{"type": "integer", "minimum": 0, "maximum": 3, "description": "Heading level (0-3)"},
	"color":    map[string]any{"type": "integer", "minimum": 0, "maximum": 6, "description": "Color label (0-6)"},
}

func withProps(extra map[string]any) map[string]any {
	out := make(map[string]any, len(formattingProps)+len(extra))
	for k, v := range formattingProps {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

func listIDParam() mcp.ToolOption {
	return mcp.WithString("listId",
		mcp.Required(),
		mcp.Description("ID of the list (document)"),
	)
}

func nodeIDsParam(desc string) mcp.ToolOption {
	return mcp.WithArray("nodeIds",
		mcp.Required(),
		mcp.Description(desc),
		mcp.Items(map[string]any{"type": "string"}),
	)
}
