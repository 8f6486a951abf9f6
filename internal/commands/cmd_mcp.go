package commands

import (
	"context"

	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/hay-kot/dyna/internal/tools/outlinetools"
)

const mcpInstructions = `Tools for reading and editing Dynalist documents.
Call list_lists first to discover document and folder ids. Every other tool
takes a listId (a document id) from that result.`

type McpCmd struct {
	flags *Flags
	app   *App
}

// NewMcpCmd creates a new mcp command.
func NewMcpCmd(flags *Flags, app *App) *McpCmd {
	return &McpCmd{flags: flags, app: app}
}

// Register adds the mcp command to the application.
func (cmd *McpCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "mcp",
		Usage:     "Serve the outline tools over MCP stdio",
		UsageText: "dyna mcp",
		Description: `Runs a Model Context Protocol server on stdin/stdout exposing the same
Dynalist tools the chat assistant uses. Requires DYNALIST_TOKEN.

Logs go to stderr or --log-file so stdout stays reserved for the protocol.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *McpCmd) run(_ context.Context, _ *cli.Command) error {
	client, err := cmd.app.OutlineClient()
	if err != nil {
		return err
	}

	log := logging.Component("mcp")
	log.Info().Msg("serving outline tools on stdio")
	return server.ServeStdio(newMCPServer(cmd.app.Version, client))
}

func newMCPServer(version string, client outline.Client) *server.MCPServer {
	s := server.NewMCPServer(
		"dyna",
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(mcpInstructions),
	)

	for _, tool := range outlinetools.New(client) {
		s.AddTool(tool.Definition(), tool.Handle)
	}
	return s
}
