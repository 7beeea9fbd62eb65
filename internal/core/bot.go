package soundbig

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/toksikk/soundbig/internal/cfg"
	"github.com/toksikk/soundbig/internal/datastore"
	"github.com/toksikk/soundbig/internal/metrics"
	"github.com/toksikk/soundbig/internal/playback"
)

// Bot wires the discord session to the queues and the combination store.
type Bot struct {
	session *discordgo.Session
	conf    *cfg.Config
	store   *datastore.Store
	queues  *playback.Registry
	drafts  *draftRegistry
	metrics *metrics.Metrics

	// ctx ends with the process, drains started by handlers run on it
	ctx       context.Context
	startTime time.Time

	commandHandlers   map[string]commandHandler
	componentHandlers map[string]componentHandler
}

type componentHandler = func(*discordgo.Session, *discordgo.InteractionCreate, []string)

// NewBot creates a bot. Handlers are added to the session by Attach.
func NewBot(ctx context.Context, session *discordgo.Session, conf *cfg.Config, store *datastore.Store, queues *playback.Registry, m *metrics.Metrics) *Bot {
	b := &Bot{
		session:   session,
		conf:      conf,
		store:     store,
		queues:    queues,
		drafts:    newDraftRegistry(),
		metrics:   m,
		ctx:       ctx,
		startTime: time.Now(),
	}

	b.commandHandlers = map[string]commandHandler{
		cmdSoundboard:        b.handleSoundboard,
		cmdPlaySound:         b.handlePlaySound,
		cmdListSounds:        b.handleListSounds,
		cmdCreateCombination: b.handleCreateCombination,
		cmdListCombinations:  b.handleListCombinations,
		cmdDeleteCombination: b.handleDeleteCombinations,
		cmdPlayCombinations:  b.handlePlayCombinations,
	}
	b.componentHandlers = map[string]componentHandler{
		actionQueue:     b.handleQueueButton,
		actionPlayQueue: b.handlePlayQueueButton,
		actionDraftAdd:  b.handleDraftAddButton,
		actionDraftSave: b.handleDraftSaveButton,
		actionDelete:    b.handleDeleteButton,
		actionPlayCombo: b.handlePlayComboButton,
	}
	return b
}

// Attach registers the event handlers on the session
func (b *Bot) Attach() {
	b.session.AddHandler(b.onReady)
	b.session.AddHandler(b.onInteractionCreate)
	b.session.AddHandler(b.onMessageCreate)
}

func (b *Bot) onReady(s *discordgo.Session, event *discordgo.Ready) {
	slog.Info("Received READY payload.", "guilds", len(event.Guilds))
	if err := b.registerCommands(event.User.ID); err != nil {
		slog.Error("Failed to register commands", "error", err)
	}
}

func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.GuildID == "" {
		if i.Type == discordgo.InteractionApplicationCommandAutocomplete {
			replyChoices(s, i, nil)
			return
		}
		replyText(s, i, msgGuildOnly)
		return
	}

	switch i.Type {
	case discordgo.InteractionApplicationCommand:
		name := i.ApplicationCommandData().Name
		handler, ok := b.commandHandlers[name]
		if !ok {
			slog.Warn("Unknown command", "name", name)
			return
		}
		b.metrics.Interaction(name)
		handler(s, i)

	case discordgo.InteractionApplicationCommandAutocomplete:
		if i.ApplicationCommandData().Name == cmdPlaySound {
			b.handlePlaySoundAutocomplete(s, i)
		}

	case discordgo.InteractionMessageComponent:
		action, args, err := parseCustomID(i.MessageComponentData().CustomID)
		if err != nil {
			slog.Warn("Ignoring component interaction", "error", err)
			return
		}
		handler, ok := b.componentHandlers[action]
		if !ok {
			return
		}
		b.metrics.Interaction("button_" + action)
		handler(s, i, args)
	}
}

// onMessageCreate answers owner control messages that mention the bot
func (b *Bot) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || b.conf.Discord.OwnerID == "" || m.Author.ID != b.conf.Discord.OwnerID {
		return
	}

	mentioned := false
	for _, mention := range m.Mentions {
		if mention.ID == s.State.User.ID {
			mentioned = true
			break
		}
	}
	if !mentioned {
		return
	}

	parts := strings.Fields(strings.ToLower(m.Content))
	for _, p := range parts {
		if p == "status" {
			b.displayBotStats(m.ChannelID)
			return
		}
	}
}
