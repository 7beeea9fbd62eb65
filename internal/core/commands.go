package soundbig

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
	"github.com/toksikk/soundbig/internal/datastore"
)

const (
	cmdSoundboard        = "soundboard"
	cmdPlaySound         = "playsound"
	cmdListSounds        = "listsounds"
	cmdCreateCombination = "create_combination"
	cmdListCombinations  = "list_combinations"
	cmdDeleteCombination = "delete_combinations"
	cmdPlayCombinations  = "play_created_combinations"

	maxCombinationNameLen  = datastore.MaxNameLength
	maxAutocompleteChoices = 25
)

type commandHandler = func(*discordgo.Session, *discordgo.InteractionCreate)

var (
	guildContexts = []discordgo.InteractionContextType{discordgo.InteractionContextGuild}
	minNameLength = 1
	dmPermission  = false
)

var botCommands = []*discordgo.ApplicationCommand{
	{
		Name:         cmdSoundboard,
		Description:  "Show the soundboard sounds and add them to a queue and play them",
		Contexts:     &guildContexts,
		DMPermission: &dmPermission,
	}, {
		Name:         cmdPlaySound,
		Description:  "Queue a soundboard sound and start playback",
		Contexts:     &guildContexts,
		DMPermission: &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:         discordgo.ApplicationCommandOptionString,
				Name:         "sound",
				Description:  "Name of the soundboard sound",
				Required:     true,
				Autocomplete: true,
			},
		},
	}, {
		Name:         cmdListSounds,
		Description:  "List all available sounds",
		Contexts:     &guildContexts,
		DMPermission: &dmPermission,
	}, {
		Name:         cmdCreateCombination,
		Description:  "Create a named combination of soundboard sounds",
		Contexts:     &guildContexts,
		DMPermission: &dmPermission,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Name of the new combination",
				Required:    true,
				MinLength:   &minNameLength,
				MaxLength:   maxCombinationNameLen,
			},
		},
	}, {
		Name:         cmdListCombinations,
		Description:  "List all created combinations",
		Contexts:     &guildContexts,
		DMPermission: &dmPermission,
	}, {
		Name:         cmdDeleteCombination,
		Description:  "Delete a combination for this server",
		Contexts:     &guildContexts,
		DMPermission: &dmPermission,
	}, {
		Name:         cmdPlayCombinations,
		Description:  "Play created combinations for this server",
		Contexts:     &guildContexts,
		DMPermission: &dmPermission,
	},
}

// registerCommands replaces all commands of the application in one call,
// stale commands from older versions disappear with it.
func (b *Bot) registerCommands(appID string) error {
	created, err := b.session.ApplicationCommandBulkOverwrite(appID, b.conf.Discord.GuildID, botCommands)
	if err != nil {
		return fmt.Errorf("could not register commands: %w", err)
	}
	for _, c := range created {
		slog.Debug("Registered command", "name", c.Name, "id", c.ID)
	}
	slog.Info("Registered commands", "count", len(created), "guild", b.conf.Discord.GuildID)
	return nil
}

// UnregisterCommands deletes every command of the application.
func UnregisterCommands(s *discordgo.Session, guildID string) error {
	user, err := s.User("@me")
	if err != nil {
		return fmt.Errorf("could not get bot user: %w", err)
	}

	commands, err := s.ApplicationCommands(user.ID, guildID)
	if err != nil {
		return fmt.Errorf("could not list commands: %w", err)
	}

	for _, command := range commands {
		if err := s.ApplicationCommandDelete(user.ID, guildID, command.ID); err != nil {
			slog.Error("Failed to delete command", "name", command.Name, "error", err)
			continue
		}
		slog.Info("Deleted command", "name", command.Name)
	}
	return nil
}
