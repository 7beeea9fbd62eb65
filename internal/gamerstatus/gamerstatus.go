// Package gamerstatus rotates the bot presence through command hints.
package gamerstatus

import (
	"context"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/toksikk/soundbig/internal/util"
)

// Presence is the part of the discord session the rotator needs
type Presence interface {
	UpdateListeningStatus(name string) error
	UpdateGameStatus(idle int, name string) error
}

type status struct {
	listening bool
	text      string
}

var statuses = []status{
	{listening: true, text: "/soundboard"},
	{listening: true, text: "/playsound"},
	{listening: true, text: "/play_created_combinations"},
	{text: "with /create_combination"},
	{text: "the soundboard"},
	{text: "/listsounds for a list"},
}

var (
	initialDelay = 5 * time.Minute
	minInterval  = 5
	maxInterval  = 15
)

// Start the rotator, it stops with ctx
func Start(ctx context.Context, discord *discordgo.Session) {
	go rotate(ctx, discord, func() time.Duration {
		return time.Duration(util.RandomRange(minInterval, maxInterval)) * time.Minute
	})
	slog.Info("gamerstatus function started")
}

func apply(p Presence, s status) error {
	if s.listening {
		return p.UpdateListeningStatus(s.text)
	}
	return p.UpdateGameStatus(0, s.text)
}

func rotate(ctx context.Context, p Presence, interval func() time.Duration) {
	wait := initialDelay
	for {
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}

		if err := apply(p, statuses[util.RandomRange(0, len(statuses))]); err != nil {
			slog.Error("Could not set status", "error", err)
		}
		wait = interval()
	}
}
