// Package agent is the language-model runtime behind free-form chat
// messages. Each turn loads the session's checkpoint, builds the system
// prompt with the user's memory list, runs the tool-calling loop against
// the outline tools and saves the extended conversation.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/core/outline"
	"github.com/hay-kot/dyna/internal/integration/openai"
	"github.com/hay-kot/dyna/internal/tools/outlinetools"
	"github.com/mark3labs/mcp-go/mcp"
)

// NoResponse is returned when the model ends a turn without text.
const NoResponse = "No response received from the agent."

// Completer is the chat-completions endpoint used by the runtime.
type Completer interface {
	Complete(ctx context.Context, req openai.Request) (openai.Response, error)
}

// Options wires a Runtime.
type Options struct {
	LLM      Completer
	Model    string
	Clients  outline.ClientFactory
	History  *History
	Prompt   *Prompt
	MaxSteps int
}

// Runtime runs agent turns.
type Runtime struct {
	llm      Completer
	model    string
	clients  outline.ClientFactory
	history  *History
	prompt   *Prompt
	maxSteps int
}

// New creates a Runtime.
func New(opts Options) *Runtime {
	if opts.MaxSteps <= 0 {
		opts.MaxSteps = 12
	}
	return &Runtime{
		llm:      opts.LLM,
		model:    opts.Model,
		clients:  opts.Clients,
		history:  opts.History,
		prompt:   opts.Prompt,
		maxSteps: opts.MaxSteps,
	}
}

// Invoke runs one turn. Errors are returned as *TurnError.
func (r *Runtime) Invoke(ctx context.Context, sessionKey, text, credential string) (string, error) {
	turnID := uuid.NewString()
	ctx = logging.WithTurnID(logging.WithSessionKey(ctx, sessionKey), turnID)
	log := logging.Component("agent").With().Ctx(ctx).Logger()

	var client outline.Client
	if credential != "" {
		client = r.clients(credential)
	}

	system := r.prompt.Build(ctx, client)

	past, err := r.history.Load(ctx, sessionKey)
	if err != nil {
		log.Warn().Err(err).Msg("load checkpoint, starting a fresh conversation")
		past = nil
	}

	toolset := newToolset(client)
	turn := []openai.Message{{Role: openai.RoleUser, Content: text}}

	for step := 1; ; step++ {
		if step > r.maxSteps {
			return "", &TurnError{Err: fmt.Errorf("%w (%d)", ErrStepLimit, r.maxSteps)}
		}

		msgs := make([]openai.Message, 0, len(past)+len(turn)+1)
		msgs = append(msgs, openai.Message{Role: openai.RoleSystem, Content: system})
		msgs = append(msgs, past...)
		msgs = append(msgs, turn...)

		res, err := r.llm.Complete(ctx, openai.Request{
			Model:    r.model,
			Messages: msgs,
			Tools:    toolset.declarations(),
		})
		if err != nil {
			return "", &TurnError{Err: err}
		}

		reply := res.Message
		reply.Role = openai.RoleAssistant
		turn = append(turn, reply)

		if len(reply.ToolCalls) == 0 {
			if err := r.history.Save(ctx, sessionKey, append(past, turn...)); err != nil {
				log.Warn().Err(err).Msg("save checkpoint")
			}

			log.Info().Int("steps", step).Msg("turn complete")

			if strings.TrimSpace(reply.Content) == "" {
				return NoResponse, nil
			}
			return reply.Content, nil
		}

		for _, call := range reply.ToolCalls {
			out, err := toolset.call(ctx, call)
			if err != nil {
				return "", &TurnError{Err: err}
			}
			log.Debug().Str("tool", call.Function.Name).Int("step", step).Msg("tool call")
			turn = append(turn, openai.Message{
				Role:       openai.RoleTool,
				ToolCallID: call.ID,
				Content:    out,
			})
		}
	}
}

// toolset adapts the outline MCP tools to function calling.
type toolset struct {
	tools map[string]outlinetools.Tool
	decls []openai.Tool
}

func newToolset(client outline.Client) *toolset {
	ts := &toolset{tools: map[string]outlinetools.Tool{}}
	if client == nil {
		return ts
	}
	for _, t := range outlinetools.New(client) {
		def := t.Definition()
		ts.tools[def.Name] = t
		ts.decls = append(ts.decls, openai.NewTool(def.Name, def.Description, def.InputSchema))
	}
	return ts
}

func (ts *toolset) declarations() []openai.Tool {
	return ts.decls
}

// call runs one tool. Tool failures become text for the model; only
// errors that end the turn are returned.
func (ts *toolset) call(ctx context.Context, call openai.ToolCall) (string, error) {
	tool, ok := ts.tools[call.Function.Name]
	if !ok {
		return fmt.Sprintf("Error: unknown tool %q", call.Function.Name), nil
	}

	args := map[string]any{}
	if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
		if err := json.Unmarshal([]byte(raw), &args); err != nil {
			return fmt.Sprintf("Error: arguments are not valid JSON: %v", err), nil
		}
	}

	req := mcp.CallToolRequest{}
	req.Params.Name = call.Function.Name
	req.Params.Arguments = args

	res, err := tool.Handle(ctx, req)
	if err != nil {
		return "", err
	}

	text := resultText(res)
	if res.IsError {
		return "Error: " + text, nil
	}
	return text, nil
}

func resultText(res *mcp.CallToolResult) string {
	var parts []string
	for _, c := range res.Content {
		switch tc := c.(type) {
		case mcp.TextContent:
			parts = append(parts, tc.Text)
		case *mcp.TextContent:
			parts = append(parts, tc.Text)
		}
	}
	return strings.Join(parts, "\n")
}
