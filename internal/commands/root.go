package commands

import (
	"github.com/urfave/cli/v3"
)

// NewRootCmd builds the dyna command tree. Lifecycle hooks are left to the
// caller so docgen can render the same tree without side effects.
func NewRootCmd(flags *Flags, app *App, version string) *cli.Command {
	root := &cli.Command{
		Name:      "dyna",
		Usage:     "Chat with your Dynalist documents through Telegram",
		UsageText: "dyna [global options] command [command options]",
		Description: `Dyna is a Telegram bot that manages Dynalist documents through an AI
assistant. Each chat registers its own Dynalist API token with /token.

Run 'dyna serve' to poll Telegram, or 'dyna webhook' to receive updates over HTTP.
Run 'dyna ask' to talk to the assistant from the terminal.`,
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("DYNA_LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (logs go to stderr when unset)",
				Sources:     cli.EnvVars("DYNA_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("DYNA_CONFIG"),
				Value:       DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
			&cli.StringFlag{
				Name:        "data-dir",
				Usage:       "path to data directory",
				Sources:     cli.EnvVars("DYNA_DATA_DIR"),
				Value:       DefaultDataDir(),
				Destination: &flags.DataDir,
			},
		},
	}

	root = NewServeCmd(flags, app).Register(root)
	root = NewWebhookCmd(flags, app).Register(root)
	root = NewAskCmd(flags, app).Register(root)
	root = NewMcpCmd(flags, app).Register(root)
	root = NewUserCmd(flags, app).Register(root)
	root = NewOutlineCmd(flags, app).Register(root)
	root = NewDbCmd(flags, app).Register(root)
	root = NewConfigValidateCmd(flags, app).Register(root)

	return root
}
