package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/bot"
	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/integration/telegram"
)

// shutdownGrace bounds how long in-flight turns may run after a stop signal.
const shutdownGrace = 30 * time.Second

type ServeCmd struct {
	flags *Flags
	app   *App
}

// NewServeCmd creates a new serve command.
func NewServeCmd(flags *Flags, app *App) *ServeCmd {
	return &ServeCmd{flags: flags, app: app}
}

// Register adds the serve command to the application.
func (cmd *ServeCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "serve",
		Usage:     "Run the Telegram bot using long polling",
		UsageText: "dyna serve",
		Description: `Polls Telegram for new messages and answers them.

Requires TELEGRAM_BOT_TOKEN and OPENAI_API_KEY. Each chat registers its own
Dynalist token with /token. Messages are handled concurrently, up to
bot.max_concurrent at a time. Stop with Ctrl+C; turns already running are
given time to finish.`,
		Action: cmd.run,
	})

	return app
}

func (cmd *ServeCmd) run(ctx context.Context, _ *cli.Command) error {
	log := logging.Component("serve")
	cfg := cmd.app.Config

	if err := cfg.RequireBot(); err != nil {
		return err
	}

	transport, err := telegram.New(cfg.Telegram.Token, telegram.Options{})
	if err != nil {
		return err
	}

	b, err := newBot(cmd.app, transport)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go bot.Sweep(ctx, cmd.app.KV, cfg.Bot.SweepInterval)

	messages, err := transport.Poll(ctx, cfg.Telegram.PollTimeout)
	if err != nil {
		return err
	}

	log.Info().Int("max_concurrent", cfg.Bot.MaxConcurrent).Msg("polling for updates")

	pool := bot.NewWorkerPool(cfg.Bot.MaxConcurrent)
	work := context.WithoutCancel(ctx)

	for msg := range messages {
		if err := pool.Go(ctx, func() { b.Handle(work, msg) }); err != nil {
			break
		}
	}

	log.Info().Msg("stopped polling, waiting for running turns")
	return drain(pool)
}

// newBot wires the orchestrator around a transport.
func newBot(app *App, transport chat.Transport) (*bot.Bot, error) {
	runtime, err := app.Runtime()
	if err != nil {
		return nil, err
	}
	return bot.New(app.Users, transport, runtime, app.Config.Bot.TypingInterval), nil
}

func drain(pool *bot.WorkerPool) error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := pool.Wait(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("turns still running after %s", shutdownGrace)
		}
		return err
	}
	return nil
}
