package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/core/config"
	"github.com/hay-kot/dyna/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	app    *App
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags, app *App) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags, app: app}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:      "validate",
				Usage:     "Validate configuration file",
				UsageText: "dyna config validate [options]",
				Description: `Loads the configuration file and environment, then reports which
commands have the settings they need. Exits non-zero when the file itself is
invalid; missing credentials only affect the commands that need them.`,
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

// ValidationCheck is the readiness of one group of commands.
type ValidationCheck struct {
	Name     string   `json:"name"`
	Commands []string `json:"commands,omitempty"`
	Ready    bool     `json:"ready"`
	Errors   []string `json:"errors,omitempty"`
}

// checkConfig reports the deep validation result first, then whether each
// group of commands has the settings it needs.
func checkConfig(cfg *config.Config, configPath string) []ValidationCheck {
	checks := []struct {
		name     string
		commands []string
		err      error
	}{
		{"config", nil, cfg.ValidateDeep(configPath)},
		{"chat bot", []string{"serve", "webhook"}, cfg.RequireBot()},
		{"agent", []string{"ask"}, criterio.ValidateStruct(cfg.RequireAgent(), cfg.RequireDynalistToken())},
		{"outline", []string{"mcp", "outline"}, cfg.RequireDynalistToken()},
	}

	out := make([]ValidationCheck, 0, len(checks))
	for _, c := range checks {
		out = append(out, ValidationCheck{
			Name:     c.name,
			Commands: c.commands,
			Ready:    c.err == nil,
			Errors:   describe(c.err),
		})
	}
	return out
}

func describe(err error) []string {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Err))
	}
	return msgs
}

func (cmd *ConfigValidateCmd) run(_ context.Context, c *cli.Command) error {
	checks := checkConfig(cmd.app.Config, cmd.flags.ConfigPath)
	valid := checks[0].Ready

	if cmd.format == "json" {
		out := struct {
			Valid  bool              `json:"valid"`
			Config string            `json:"config"`
			Checks []ValidationCheck `json:"checks"`
		}{
			Valid:  valid,
			Config: cmd.flags.ConfigPath,
			Checks: checks,
		}
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
			return err
		}
	} else {
		printChecks(c.Root().Writer, checks)
	}

	if !valid {
		return cli.Exit("", 1)
	}
	return nil
}

func printChecks(w io.Writer, checks []ValidationCheck) {
	for _, c := range checks {
		scope := ""
		if len(c.Commands) > 0 {
			scope = " " + fmt.Sprint(c.Commands)
		}
		if c.Ready {
			_, _ = fmt.Fprintf(w, "✓ %s: ok%s\n", c.Name, scope)
			continue
		}
		_, _ = fmt.Fprintf(w, "✗ %s: not ready%s\n", c.Name, scope)
		for _, e := range c.Errors {
			_, _ = fmt.Fprintf(w, "  %s\n", e)
		}
	}
}
