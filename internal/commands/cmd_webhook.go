package commands

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/bot"
	"github.com/hay-kot/dyna/internal/core/chat"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/integration/telegram"
	"github.com/hay-kot/dyna/internal/server"
)

type WebhookCmd struct {
	flags *Flags
	app   *App

	listen string
	pprof  bool
}

// NewWebhookCmd creates a new webhook command.
func NewWebhookCmd(flags *Flags, app *App) *WebhookCmd {
	return &WebhookCmd{flags: flags, app: app}
}

// Register adds the webhook command to the application.
func (cmd *WebhookCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "webhook",
		Usage:     "Run the Telegram bot behind an HTTP webhook",
		UsageText: "dyna webhook [--listen addr] [--pprof]",
		Description: `Starts an HTTP server that receives Telegram updates.

POST requests to webhook.path are acknowledged immediately and processed in
the background. GET /api reports the server status. When webhook.secret (or
TELEGRAM_WEBHOOK_SECRET) is set, requests without the matching
X-Telegram-Bot-Api-Secret-Token header are rejected.

Registering the webhook URL with Telegram is left to the operator.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "listen",
				Usage:       "address to listen on (overrides webhook.listen)",
				Destination: &cmd.listen,
			},
			&cli.BoolFlag{
				Name:        "pprof",
				Usage:       "serve pprof handlers under /debug/pprof",
				Destination: &cmd.pprof,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *WebhookCmd) run(ctx context.Context, _ *cli.Command) error {
	log := logging.Component("webhook")
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

	pool := bot.NewWorkerPool(cfg.Bot.MaxConcurrent)
	work := context.WithoutCancel(ctx)

	listen := cfg.Webhook.Listen
	if cmd.listen != "" {
		listen = cmd.listen
	}

	srv := server.New(server.Options{
		Listen:  listen,
		Path:    cfg.Webhook.Path,
		Secret:  cfg.Webhook.Secret,
		Pprof:   cfg.Webhook.Pprof || cmd.pprof,
		Version: cmd.app.Version,
		OnMessage: enqueue(pool, func(msg chat.Message) { b.Handle(work, msg) }),
	})

	if err := srv.Start(ctx); err != nil {
		return err
	}

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("webhook server shutdown")
	}

	log.Info().Msg("waiting for running turns")
	return drain(pool)
}

// enqueue hands each update to the pool without blocking the request, so
// Telegram gets its acknowledgement even while every worker is busy.
func enqueue(pool *bot.WorkerPool, handle func(chat.Message)) func(chat.Message) {
	return func(msg chat.Message) {
		pool.Submit(func() { handle(msg) })
	}
}
