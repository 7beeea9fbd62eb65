package soundbig

import (
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/bwmarrin/discordgo"
	humanize "github.com/dustin/go-humanize"
)

type botStats struct {
	Guilds       int
	Sessions     int
	ActiveDrains int
	Drafts       int
	SoundDelay   time.Duration
	Uptime       time.Duration
	Started      time.Time
}

func (b *Bot) collectStats() botStats {
	guilds := 0
	if b.session.State != nil {
		guilds = len(b.session.State.Ready.Guilds)
	}
	return botStats{
		Guilds:       guilds,
		Sessions:     b.queues.Guilds(),
		ActiveDrains: b.queues.ActiveDrains(),
		Drafts:       b.drafts.len(),
		SoundDelay:   b.queues.Delay(),
		Uptime:       time.Since(b.startTime).Round(time.Second),
		Started:      b.startTime,
	}
}

func formatStats(st botStats, mem runtime.MemStats) string {
	return fmt.Sprintf(`Soundbig:        %s
Discordgo:       %s
Go:              %s

Memory:
  Alloc:         %s
  Sys:           %s
  TotalAlloc:    %s

Heap:
  Alloc:         %s
  InUse:         %s

Tasks:           %s
Servers:         %s
Queues:          %s
Playing:         %s
Drafts:          %s
Sound delay:     %s

Uptime:          %s (since %s)
`, version, discordgo.VERSION, runtime.Version(),
		humanize.Bytes(mem.Alloc), humanize.Bytes(mem.Sys), humanize.Bytes(mem.TotalAlloc),
		humanize.Bytes(mem.HeapAlloc), humanize.Bytes(mem.HeapInuse),
		humanize.Comma(int64(runtime.NumGoroutine())), humanize.Comma(int64(st.Guilds)),
		humanize.Comma(int64(st.Sessions)), humanize.Comma(int64(st.ActiveDrains)), humanize.Comma(int64(st.Drafts)),
		st.SoundDelay, st.Uptime, st.Started.Format("2006-01-02 15:04:05"))
}

func (b *Bot) displayBotStats(cid string) {
	mem := runtime.MemStats{}
	runtime.ReadMemStats(&mem)

	_, err := b.session.ChannelMessageSend(cid, "```"+formatStats(b.collectStats(), mem)+"```")
	if err != nil {
		slog.Error("could not send channel message", "error", err)
	}
}

func (b *Bot) notifyOwner(message string) {
	if b.conf.Discord.OwnerID == "" {
		return
	}
	st, err := b.session.UserChannelCreate(b.conf.Discord.OwnerID)
	if err != nil {
		slog.Warn("could not open owner channel", "error", err)
		return
	}
	if _, err := b.session.ChannelMessageSend(st.ID, message); err != nil {
		slog.Error("could not send channel message", "error", err)
	}
}
