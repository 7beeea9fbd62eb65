package soundbig

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"github.com/toksikk/soundbig/internal/cfg"
	"github.com/toksikk/soundbig/internal/datastore"
	"github.com/toksikk/soundbig/internal/gamerstatus"
	"github.com/toksikk/soundbig/internal/metrics"
	"github.com/toksikk/soundbig/internal/playback"
	"github.com/toksikk/soundbig/internal/web"
)

const shutdownTimeout = 10 * time.Second

const intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildVoiceStates |
	discordgo.IntentsGuildMessages |
	discordgo.IntentsDirectMessages

// SetupLogging installs the colored default logger
func SetupLogging(debug bool) {
	level := slog.LevelInfo
	if debug || os.Getenv("DEBUG") != "" {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      level,
		TimeFormat: time.Kitchen,
	})))
}

// NewSession creates a discord session from the config without opening it
func NewSession(conf *cfg.Config) (*discordgo.Session, error) {
	discord, err := discordgo.New("Bot " + conf.Discord.Token)
	if err != nil {
		return nil, fmt.Errorf("could not create discord session: %w", err)
	}

	// Set sharding info
	discord.ShardID = conf.Discord.ShardID
	discord.ShardCount = conf.Discord.ShardCount
	if discord.ShardCount <= 0 {
		discord.ShardCount = 1
	}
	discord.Identify.Intents = intents
	return discord, nil
}

// StartSoundbig runs the bot until SIGINT or SIGTERM
func StartSoundbig(conf *cfg.Config) error {
	LogVersion()
	if err := conf.Validate(); err != nil {
		return err
	}

	db, err := datastore.InitDB(conf.Database.Driver, conf.Database.DSN)
	if err != nil {
		return err
	}
	store := datastore.NewStore(db)
	m := metrics.New()
	queues := playback.NewRegistry(conf.Playback.SoundDelay, m)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	slog.Info("Starting discord session...")
	discord, err := NewSession(conf)
	if err != nil {
		return err
	}

	bot := NewBot(ctx, discord, conf, store, queues, m)
	bot.Attach()

	if err := discord.Open(); err != nil {
		return fmt.Errorf("could not open discord websocket connection: %w", err)
	}
	defer func() {
		if err := discord.Close(); err != nil {
			slog.Warn("could not close discord session", "error", err)
		}
	}()

	gamerstatus.Start(ctx, discord)

	if conf.Web.Port > 0 {
		router := web.NewRouter(web.Options{
			Queues:    queues,
			Store:     store,
			Metrics:   m.Handler(),
			RateLimit: conf.Web.RateLimit,
			Burst:     conf.Web.Burst,
		})
		slog.Info("Starting web server", "port", conf.Web.Port)
		go func() {
			if err := web.StartWebServer(ctx, conf.Web.Port, router); err != nil {
				slog.Error("web server stopped", "error", err)
			}
		}()
	} else {
		slog.Info("No web port configured. Skipping web server start.")
	}

	// We're running!
	Banner(nil)
	slog.Info("Soundbig is ready. Quit with CTRL-C.")

	slog.Info("Dev Mode", "enabled", conf.DevMode)
	if conf.DevMode {
		banner := new(bytes.Buffer)
		Banner(banner)
		bot.notifyOwner("```I just started!\n" + banner.String() + "```")
		if err := discord.UpdateCustomStatus("I just started! " + version + " (" + builddate + ")"); err != nil {
			slog.Warn("Failed to set custom status", "error", err)
		}
	}

	<-ctx.Done()
	slog.Info("Shutting down")

	// drains see the canceled ctx and leave voice before the session closes
	waitCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := queues.Wait(waitCtx); err != nil {
		slog.Warn("Queue playback did not stop in time", "error", err)
	}
	return nil
}
