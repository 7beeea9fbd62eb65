package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/toksikk/soundbig/internal/cfg"
	soundbig "github.com/toksikk/soundbig/internal/core"
	"github.com/toksikk/soundbig/internal/datastore"
	"github.com/urfave/cli/v2"
)

var version = ""
var builddate = ""

func loadConfig(c *cli.Context) (*cfg.Config, error) {
	conf, err := cfg.Load(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return conf, nil
}

func run(c *cli.Context) error {
	conf, err := loadConfig(c)
	if err != nil {
		return err
	}
	soundbig.SetupLogging(c.Bool("debug") || conf.DevMode)
	return soundbig.StartSoundbig(conf)
}

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("could not load .env file", "error", err)
	}
	soundbig.SetVersion(version, builddate)

	app := &cli.App{
		Name:    "soundbig",
		Usage:   "discord soundboard queue bot",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   cfg.DefaultConfigFile,
				Usage:   "path to the configuration file",
				EnvVars: []string{"SOUNDBIG_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "enable debug logging",
			},
		},
		Before: func(c *cli.Context) error {
			soundbig.SetupLogging(c.Bool("debug"))
			return nil
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "start the bot",
				Action: run,
			},
			{
				Name:  "migrate",
				Usage: "create or update the combination tables",
				Action: func(c *cli.Context) error {
					conf, err := loadConfig(c)
					if err != nil {
						return err
					}
					if _, err := datastore.InitDB(conf.Database.Driver, conf.Database.DSN); err != nil {
						return err
					}
					slog.Info("Database migrated", "driver", conf.Database.Driver)
					return nil
				},
			},
			{
				Name:  "check",
				Usage: "print a report of the loaded configuration",
				Action: func(c *cli.Context) error {
					conf, err := loadConfig(c)
					if err != nil {
						return err
					}
					cfg.Check(os.Stdout, conf)
					return nil
				},
			},
			{
				Name:  "guide",
				Usage: "print the setup guide",
				Action: func(c *cli.Context) error {
					cfg.Guide(os.Stdout)
					return nil
				},
			},
			{
				Name:  "unregister",
				Usage: "delete every registered slash command",
				Action: func(c *cli.Context) error {
					conf, err := loadConfig(c)
					if err != nil {
						return err
					}
					if !conf.HasToken() {
						return fmt.Errorf("no discord token configured")
					}
					session, err := soundbig.NewSession(conf)
					if err != nil {
						return err
					}
					return soundbig.UnregisterCommands(session, conf.Discord.GuildID)
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("soundbig stopped", "error", err)
		os.Exit(1)
	}
}
