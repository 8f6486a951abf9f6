package commands

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/core/agent"
	"github.com/hay-kot/dyna/internal/core/userstate"
	"github.com/hay-kot/dyna/pkg/iojson"
)

type UserCmd struct {
	flags *Flags
	app   *App

	jsonOutput bool
}

// NewUserCmd creates a new user command.
func NewUserCmd(flags *Flags, app *App) *UserCmd {
	return &UserCmd{flags: flags, app: app}
}

// Register adds the user command to the application.
func (cmd *UserCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "user",
		Usage: "Inspect and reset per-chat state",
		Description: `Administrative commands operating on a Telegram chat id.

'status' shows whether a Dynalist token is stored and whether a turn is in
progress. 'reset' clears a stuck processing flag, like /reset. 'wipe' also
forgets the stored token and the assistant's conversation history.`,
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "Show a chat's stored state",
				UsageText: "dyna user status [--json] <chat-id>",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:        "json",
						Usage:       "output as JSON",
						Destination: &cmd.jsonOutput,
					},
				},
				Action: cmd.runStatus,
			},
			{
				Name:      "reset",
				Usage:     "Clear a chat's processing flag",
				UsageText: "dyna user reset <chat-id>",
				Action:    cmd.runReset,
			},
			{
				Name:      "wipe",
				Usage:     "Forget a chat's token, processing flag and conversation",
				UsageText: "dyna user wipe <chat-id>",
				Action:    cmd.runWipe,
			},
		},
	})

	return app
}

func chatIDArg(c *cli.Command) (int64, error) {
	if c.Args().Len() != 1 {
		return 0, fmt.Errorf("expected exactly one chat id, got %d arguments", c.Args().Len())
	}
	id, err := strconv.ParseInt(c.Args().First(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid chat id %q", c.Args().First())
	}
	return id, nil
}

func (cmd *UserCmd) runStatus(ctx context.Context, c *cli.Command) error {
	chatID, err := chatIDArg(c)
	if err != nil {
		return err
	}

	status, err := cmd.app.Users.Status(ctx, chatID)
	if err != nil {
		return fmt.Errorf("read chat state: %w", err)
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, status)
	}
	printStatus(c.Root().Writer, status, time.Now())
	return nil
}

func printStatus(w io.Writer, s userstate.Status, now time.Time) {
	_, _ = fmt.Fprintf(w, "Chat:       %d\n", s.ChatID)

	if s.HasToken {
		_, _ = fmt.Fprintf(w, "Token:      %s\n", s.MaskedToken)
	} else {
		_, _ = fmt.Fprintln(w, "Token:      not set")
	}

	switch {
	case !s.Processing:
		_, _ = fmt.Fprintln(w, "Processing: no")
	case s.ProcessingExpires != nil:
		_, _ = fmt.Fprintf(w, "Processing: yes (expires %s)\n", humanize.RelTime(*s.ProcessingExpires, now, "ago", "from now"))
	default:
		_, _ = fmt.Fprintln(w, "Processing: yes")
	}
}

func (cmd *UserCmd) runReset(ctx context.Context, c *cli.Command) error {
	chatID, err := chatIDArg(c)
	if err != nil {
		return err
	}
	if !cmd.app.Users.ClearConversation(ctx, chatID) {
		return fmt.Errorf("failed to reset chat %d", chatID)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Reset chat %d\n", chatID)
	return nil
}

func (cmd *UserCmd) runWipe(ctx context.Context, c *cli.Command) error {
	chatID, err := chatIDArg(c)
	if err != nil {
		return err
	}
	if !cmd.app.Users.ClearAll(ctx, chatID) {
		return fmt.Errorf("failed to wipe chat %d", chatID)
	}
	if err := cmd.app.History.Clear(ctx, agent.SessionKey(chatID)); err != nil {
		return fmt.Errorf("clear conversation for chat %d: %w", chatID, err)
	}
	_, _ = fmt.Fprintf(c.Root().Writer, "Wiped chat %d\n", chatID)
	return nil
}
