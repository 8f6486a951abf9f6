package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/hay-kot/dyna/internal/commands"
	"github.com/hay-kot/dyna/internal/core/config"
	"github.com/hay-kot/dyna/internal/core/logging"
	"github.com/hay-kot/dyna/internal/data/db"
	"github.com/hay-kot/dyna/internal/data/stores"
	"github.com/hay-kot/dyna/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		database  *db.DB
		flags     = &commands.Flags{}
		dynaApp   = &commands.App{}
	)

	app := commands.NewRootCmd(flags, dynaApp, build())

	app.Before = func(ctx context.Context, c *cli.Command) (context.Context, error) {
		logger, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
		if err != nil {
			return ctx, fmt.Errorf("setup logger: %w", err)
		}
		log.Logger = logger.Hook(logging.ContextHook{})
		logCloser = closer

		cfg, err := config.Load(flags.ConfigPath, flags.DataDir)
		if err != nil {
			return ctx, fmt.Errorf("load config: %w", err)
		}
		flags.Config = cfg

		dbOpts := db.OpenOptions{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			BusyTimeout:  cfg.Database.BusyTimeout,
		}
		database, err = db.Open(cfg.DatabaseDir(), dbOpts)
		if err != nil && stores.IsCorruptionError(err) {
			backup, recoverErr := stores.RecoverFromCorruption(cfg.DatabaseDir())
			if recoverErr != nil {
				return ctx, fmt.Errorf("recover database: %w", recoverErr)
			}
			log.Warn().Str("backup", backup).Msg("database was corrupted, moved aside and starting fresh")
			database, err = db.Open(cfg.DatabaseDir(), dbOpts)
		}
		if err != nil {
			return ctx, fmt.Errorf("open database: %w", err)
		}

		// Commands already hold a pointer to dynaApp.
		*dynaApp = *commands.NewApp(version, cfg, database)

		return ctx, nil
	}

	app.After = func(ctx context.Context, c *cli.Command) error {
		if database != nil {
			if err := database.Close(); err != nil {
				log.Error().Err(err).Msg("failed to close database")
				return err
			}
		}

		if logCloser != nil {
			logCloser()
		}
		return nil
	}

	exitCode := 0
	if err := app.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
