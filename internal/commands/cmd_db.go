package commands

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/data/db"
)

type DbCmd struct {
	flags *Flags
	app   *App

	down   int
	prefix string
}

// NewDbCmd creates a new db command.
func NewDbCmd(flags *Flags, app *App) *DbCmd {
	return &DbCmd{flags: flags, app: app}
}

// Register adds the db command to the application.
func (cmd *DbCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "db",
		Usage: "Inspect and migrate the state database",
		Description: `Administrative commands for the SQLite database under --data-dir.

Every dyna command applies pending migrations on startup, so a rollback only
lasts until the next invocation. Use it to test a down migration or to drop
all stored state before upgrading.`,
		Commands: []*cli.Command{
			{
				Name:      "status",
				Usage:     "List schema migrations and when they were applied",
				UsageText: "dyna db status",
				Action:    cmd.runStatus,
			},
			{
				Name:      "migrate",
				Usage:     "Apply pending migrations, or revert the newest with --down",
				UsageText: "dyna db migrate [--down N]",
				Flags: []cli.Flag{
					&cli.IntFlag{
						Name:        "down",
						Usage:       "revert the newest N applied migrations",
						Destination: &cmd.down,
					},
				},
				Action: cmd.runMigrate,
			},
			{
				Name:      "keys",
				Usage:     "List live keys in the state store",
				UsageText: "dyna db keys [--prefix chat:]",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "prefix",
						Usage:       "only list keys starting with this prefix",
						Destination: &cmd.prefix,
					},
				},
				Action: cmd.runKeys,
			},
		},
	})

	return app
}

func (cmd *DbCmd) runStatus(ctx context.Context, c *cli.Command) error {
	statuses, err := cmd.app.DB.Migrations(ctx)
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	printMigrations(c.Root().Writer, statuses, time.Now())
	return nil
}

func printMigrations(w io.Writer, statuses []db.MigrationStatus, now time.Time) {
	for _, s := range statuses {
		state := "pending"
		if s.Applied() {
			state = "applied " + humanize.RelTime(s.AppliedAt, now, "ago", "from now")
		}
		_, _ = fmt.Fprintf(w, "%04d  %-24s %s\n", s.Version, s.Name, state)
	}
}

func (cmd *DbCmd) runMigrate(ctx context.Context, c *cli.Command) error {
	w := c.Root().Writer

	if cmd.down < 0 {
		return fmt.Errorf("--down must be positive, got %d", cmd.down)
	}

	if cmd.down == 0 {
		if err := cmd.app.DB.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		_, _ = fmt.Fprintln(w, "Schema is up to date")
		return nil
	}

	reverted, err := cmd.app.DB.Rollback(ctx, cmd.down)
	if err != nil {
		return fmt.Errorf("rollback: %w", err)
	}
	for _, m := range reverted {
		_, _ = fmt.Fprintf(w, "Reverted %04d_%s\n", m.Version, m.Name)
	}
	return nil
}

func (cmd *DbCmd) runKeys(ctx context.Context, c *cli.Command) error {
	keys, err := cmd.app.KV.ListKeys(ctx)
	if err != nil {
		return fmt.Errorf("list keys: %w", err)
	}
	for _, k := range keys {
		if strings.HasPrefix(k, cmd.prefix) {
			_, _ = fmt.Fprintln(c.Root().Writer, k)
		}
	}
	return nil
}
