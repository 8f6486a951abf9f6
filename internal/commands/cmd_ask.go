package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	coreagent "github.com/hay-kot/dyna/internal/core/agent"
	"github.com/hay-kot/dyna/pkg/iojson"
)

// DefaultThreadID is the conversation used by ask when none is given.
const DefaultThreadID = "demo-thread-1"

type AskCmd struct {
	flags *Flags
	app   *App

	threadID   string
	jsonOutput bool
}

// NewAskCmd creates a new ask command.
func NewAskCmd(flags *Flags, app *App) *AskCmd {
	return &AskCmd{flags: flags, app: app}
}

// Register adds the ask command to the application.
func (cmd *AskCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ask",
		Usage:     "Ask the assistant a single question",
		UsageText: "dyna ask [--thread-id id] [--json] <question...>",
		Description: `Runs one agent turn against your Dynalist account and prints the answer.

Uses DYNALIST_TOKEN as the credential. Turns sharing a --thread-id continue
the same conversation.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "thread-id",
				Aliases:     []string{"t"},
				Usage:       "conversation thread to continue",
				Value:       DefaultThreadID,
				Destination: &cmd.threadID,
			},
			&cli.BoolFlag{
				Name:        "json",
				Aliases:     []string{"j"},
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

type askResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response,omitempty"`
	ThreadID string `json:"threadId,omitempty"`
	Error    string `json:"error,omitempty"`
}

func (cmd *AskCmd) run(ctx context.Context, c *cli.Command) error {
	question := strings.TrimSpace(strings.Join(c.Args().Slice(), " "))
	if question == "" {
		return errors.New("a question is required")
	}

	res := cmd.ask(ctx, question)

	w := c.Root().Writer
	if cmd.jsonOutput {
		if err := iojson.WriteWith(w, c.Root().ErrWriter, res); err != nil {
			return err
		}
		if !res.Success {
			return cli.Exit("", 1)
		}
		return nil
	}

	if !res.Success {
		return errors.New(res.Error)
	}

	_, err := fmt.Fprintln(w, renderAnswer(res.Response, terminalWidth(w)))
	return err
}

func (cmd *AskCmd) ask(ctx context.Context, question string) askResult {
	cfg := cmd.app.Config
	if err := cfg.RequireDynalistToken(); err != nil {
		return askResult{Error: err.Error()}
	}

	runtime, err := cmd.app.Runtime()
	if err != nil {
		return askResult{Error: err.Error()}
	}

	reply, err := runtime.Invoke(ctx, cmd.threadID, question, cfg.Dynalist.Token)
	if err != nil {
		msg, ok := coreagent.UserMessage(err)
		if !ok {
			msg = err.Error()
		}
		return askResult{Error: msg}
	}

	return askResult{Success: true, Response: reply, ThreadID: cmd.threadID}
}

// terminalWidth returns the width of w when it is a terminal, or 0.
func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return 0
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil {
		return 0
	}
	return width
}

// renderAnswer formats markdown for a terminal of the given width. A zero
// width means output is not a terminal and the text is returned unchanged.
func renderAnswer(text string, width int) string {
	if width <= 0 {
		return text
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStylePath("dark"),
		glamour.WithWordWrap(min(width, 120)),
	)
	if err != nil {
		return text
	}

	out, err := r.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimRight(out, "\n")
}
